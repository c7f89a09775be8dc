// Command vaultd runs the Mint Vault and Stake Vault engines behind a single
// JSON-RPC listener, following the teacher's cmd/nhb/main.go bootstrap shape:
// load config, open the store, load (or create) the operator key, wire the
// engines, then serve until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/provenance-io/hastra-sol-vault/config"
	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/mintvault"
	"github.com/provenance-io/hastra-sol-vault/native/seed"
	"github.com/provenance-io/hastra-sol-vault/native/stakevault"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
	"github.com/provenance-io/hastra-sol-vault/observability/logging"
	"github.com/provenance-io/hastra-sol-vault/rpc"
	"github.com/provenance-io/hastra-sol-vault/state"
	"github.com/provenance-io/hastra-sol-vault/storage"
)

func main() {
	configFile := flag.String("config", "./vaultd.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("VAULTD_ENV"))
	logger := logging.Setup("vaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	operatorKey, err := cfg.OperatorPrivateKey()
	if err != nil {
		logger.Error("failed to load operator key", slog.Any("error", err))
		os.Exit(1)
	}
	upgradeAuthority := operatorKey.PubKey().Address()
	logger.Info("operator identity resolved", "address", upgradeAuthority.String())

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	store := state.NewStore(db)
	ledger := tokenledger.NewLedger(store)

	mintEngine := mintvault.NewEngine(store, ledger, upgradeAuthority)
	mintEngine.SetLogger(logger)

	stakeEngine := stakevault.NewEngine(store, ledger, mintEngine, upgradeAuthority)
	stakeEngine.SetLogger(logger)

	if err := bootstrap(cfg, ledger, mintEngine, stakeEngine, upgradeAuthority); err != nil {
		logger.Error("failed to bootstrap vaults", slog.Any("error", err))
		os.Exit(1)
	}

	quotaStore := rpc.NewStateQuotaStore(store)
	server := rpc.NewServer(rpc.ServerConfig{
		ListenAddress:      cfg.RPC.ListenAddress,
		TLSCertFile:        cfg.RPC.TLSCertFile,
		TLSKeyFile:         cfg.RPC.TLSKeyFile,
		RateLimitPerMinute: cfg.RPC.RateLimitPerMinute,
	}, mintEngine, stakeEngine, quotaStore, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPC.ListenAddress)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc server exited", slog.Any("error", err))
			os.Exit(1)
		}
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("error during shutdown", slog.Any("error", err))
		}
	}
}

const shutdownGracePeriod = 10 * time.Second

// bootstrap registers the reserve/derivative/share mints and initializes both
// engines the first time vaultd runs against an empty store. On subsequent
// starts Initialize fails with ErrAlreadyInitialized for both vaults, which
// is treated as a no-op rather than a fatal error.
func bootstrap(cfg *config.Config, ledger *tokenledger.Ledger, mintEngine *mintvault.Engine, stakeEngine *stakevault.Engine, upgradeAuthority crypto.Address) error {
	reserveMint, err := ensureMint(ledger, "reserve", upgradeAuthority, upgradeAuthority, upgradeAuthority)
	if err != nil {
		return fmt.Errorf("register reserve mint: %w", err)
	}
	derivativeMint, err := ensureMint(ledger, "derivative", mintEngine.MintAuthority(), mintEngine.MintAuthority(), mintEngine.FreezeAuthority())
	if err != nil {
		return fmt.Errorf("register derivative mint: %w", err)
	}
	shareMint, err := ensureMint(ledger, "share", stakeEngine.ShareAuthority(), stakeEngine.ShareAuthority(), stakeEngine.FreezeAuthority())
	if err != nil {
		return fmt.Errorf("register share mint: %w", err)
	}

	freezeAdmins, err := parseConfigAddresses(cfg.MintVault.FreezeAdministrators)
	if err != nil {
		return fmt.Errorf("mintvault freeze administrators: %w", err)
	}
	rewardsAdmins, err := parseConfigAddresses(cfg.MintVault.RewardsAdministrators)
	if err != nil {
		return fmt.Errorf("mintvault rewards administrators: %w", err)
	}

	mintReserveAccount := upgradeAuthority
	mintRedeemReserveAccount := upgradeAuthority
	allowedExternalMintProgram := stakeEngine.ExternalMintAuthority()

	if err := mintEngine.Initialize(upgradeAuthority, freezeAdmins, rewardsAdmins, allowedExternalMintProgram, reserveMint, derivativeMint, mintReserveAccount, mintRedeemReserveAccount, upgradeAuthority); err != nil {
		if err != mintvault.ErrAlreadyInitialized {
			return err
		}
	}

	stakeFreezeAdmins, err := parseConfigAddresses(cfg.StakeVault.FreezeAdministrators)
	if err != nil {
		return fmt.Errorf("stakevault freeze administrators: %w", err)
	}
	stakeRewardsAdmins, err := parseConfigAddresses(cfg.StakeVault.RewardsAdministrators)
	if err != nil {
		return fmt.Errorf("stakevault rewards administrators: %w", err)
	}

	stakeReserveAccount := upgradeAuthority
	if err := stakeEngine.Initialize(upgradeAuthority, cfg.StakeVault.UnbondingPeriodSeconds, stakeFreezeAdmins, stakeRewardsAdmins, derivativeMint, shareMint, stakeReserveAccount, upgradeAuthority); err != nil {
		if err != stakevault.ErrAlreadyInitialized {
			return err
		}
	}

	return nil
}

// ensureMint registers a mint on first run and recovers its deterministic ID
// on subsequent restarts, since tokenledger.Ledger.CreateMint derives MintID
// from the mint name via the same seed.Derive tag/seed pair it uses
// internally (native/tokenledger/ledger.go's mintKey).
func ensureMint(ledger *tokenledger.Ledger, name string, mintAuthority, burnAuthority, freezeAuthority crypto.Address) (tokenledger.MintID, error) {
	id, err := ledger.CreateMint(name, 6, mintAuthority, burnAuthority, freezeAuthority)
	if err != nil {
		if err == tokenledger.ErrMintExists {
			var existingID tokenledger.MintID
			copy(existingID[:], seed.Derive("tokenledger/mint", []byte(name)))
			if _, lookupErr := ledger.Mint(existingID); lookupErr != nil {
				return tokenledger.MintID{}, lookupErr
			}
			return existingID, nil
		}
		return tokenledger.MintID{}, err
	}
	return id, nil
}

func parseConfigAddresses(addrs []string) ([]crypto.Address, error) {
	out := make([]crypto.Address, 0, len(addrs))
	for _, a := range addrs {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(a))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
