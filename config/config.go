// Package config loads vaultd's TOML configuration, following the teacher's
// Load/createDefault pattern (config/config.go): a config file is created
// with sane defaults and a freshly generated operator key the first time
// vaultd starts against an empty data directory, then decoded verbatim on
// every subsequent start.
package config

import (
	"encoding/hex"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/provenance-io/hastra-sol-vault/crypto"
)

// MintVaultConfig seeds the Mint Vault's roster at first-run initialization
// (see cmd/vaultd's bootstrap step). Addresses are bech32 strings using
// crypto.VaultPrefix/ProgramPrefix. AllowedExternalMintProgram is decoded but
// not read by bootstrap, which always allowlists the Stake Vault's
// ExternalMintAuthority.
type MintVaultConfig struct {
	FreezeAdministrators       []string `toml:"FreezeAdministrators"`
	RewardsAdministrators      []string `toml:"RewardsAdministrators"`
	AllowedExternalMintProgram string   `toml:"AllowedExternalMintProgram"`
}

// StakeVaultConfig seeds the Stake Vault's roster and unbonding period at
// first-run initialization.
type StakeVaultConfig struct {
	FreezeAdministrators   []string `toml:"FreezeAdministrators"`
	RewardsAdministrators  []string `toml:"RewardsAdministrators"`
	UnbondingPeriodSeconds int64    `toml:"UnbondingPeriodSeconds"`
}

// RPCConfig configures the JSON-RPC listener, matching rpc.ServerConfig's
// optional TLS fields.
type RPCConfig struct {
	ListenAddress      string `toml:"ListenAddress"`
	TLSCertFile        string `toml:"TLSCertFile,omitempty"`
	TLSKeyFile         string `toml:"TLSKeyFile,omitempty"`
	RateLimitPerMinute uint32 `toml:"RateLimitPerMinute"`
}

// Config is vaultd's top-level configuration record.
type Config struct {
	DataDir string `toml:"DataDir"`

	// OperatorKey is the vaultd process's own secp256k1 key. Its derived
	// address is injected into both engines as the upgrade authority (see
	// DESIGN.md §2a: "Upgrade authority is injected, not derived") — the
	// one identity the host chain would otherwise resolve from
	// program-deployment metadata.
	OperatorKey string `toml:"OperatorKey"`

	RPC        RPCConfig        `toml:"rpc"`
	MintVault  MintVaultConfig  `toml:"mintvault"`
	StakeVault StakeVaultConfig `toml:"stakevault"`
}

// Load loads the configuration from path, creating a default file with a
// freshly generated operator key if none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.OperatorKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.OperatorKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:     "./vaultd-data",
		OperatorKey: hex.EncodeToString(key.Bytes()),
		RPC: RPCConfig{
			ListenAddress:      ":8080",
			RateLimitPerMinute: 120,
		},
		MintVault: MintVaultConfig{
			FreezeAdministrators:  []string{},
			RewardsAdministrators: []string{},
		},
		StakeVault: StakeVaultConfig{
			FreezeAdministrators:   []string{},
			RewardsAdministrators:  []string{},
			UnbondingPeriodSeconds: 7 * 24 * 60 * 60,
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OperatorPrivateKey decodes the hex-encoded operator key.
func (c *Config) OperatorPrivateKey() (*crypto.PrivateKey, error) {
	b, err := hex.DecodeString(c.OperatorKey)
	if err != nil {
		return nil, err
	}
	return crypto.PrivateKeyFromBytes(b)
}
