// Package stakevault implements the appreciating share pool: virtual-offset
// share accounting, a time-locked unbond/redeem ticket, and cross-program
// reward publication into the Mint Vault. Grounded, like native/mintvault, on
// the teacher's native/lending.Engine shape — guard-then-mutate methods over
// a narrow store-backed interface — generalized from a lending ledger to a
// single-asset share vault.
package stakevault

import (
	"errors"
	"math/big"
	"time"

	"log/slog"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/events"
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/mintvault"
	"github.com/provenance-io/hastra-sol-vault/native/seed"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
	"github.com/provenance-io/hastra-sol-vault/state"
)

// Ledger is the narrow token-ledger surface the engine depends on. Mint is
// needed to read the share mint's TotalSupply for share-accounting
// conversions (spec §4.6's S term).
type Ledger interface {
	MintTo(id tokenledger.MintID, to crypto.Address, amount *big.Int, authority crypto.Address) error
	Burn(id tokenledger.MintID, from crypto.Address, amount *big.Int, authority crypto.Address) error
	Transfer(id tokenledger.MintID, from, to crypto.Address, amount *big.Int) error
	BalanceOf(id tokenledger.MintID, account crypto.Address) (*big.Int, error)
	IsFrozen(id tokenledger.MintID, account crypto.Address) (bool, error)
	Freeze(id tokenledger.MintID, account crypto.Address, authority crypto.Address) error
	Thaw(id tokenledger.MintID, account crypto.Address, authority crypto.Address) error
	Mint(id tokenledger.MintID) (*tokenledger.Mint, error)
}

// MintVaultMinter is the cross-program surface the Stake Vault invokes to
// publish rewards (spec §4.8). native/mintvault.Engine implements it
// directly; Engine.externalMintAuthority is presented as callerProgram,
// which the Mint Vault checks against its own AllowedExternalMintProgram.
type MintVaultMinter interface {
	MintRewardInto(callerProgram crypto.Address, account crypto.Address, amount *big.Int, rewardID uint32) error
}

// Engine implements the Stake Vault's state machine.
type Engine struct {
	store            *state.Store
	ledger           Ledger
	mintVault        MintVaultMinter
	emitter          events.Emitter
	logger           *slog.Logger
	now              func() time.Time
	upgradeAuthority crypto.Address

	shareAuthority        crypto.Address
	freezeAuthority       crypto.Address
	externalMintAuthority crypto.Address
}

// NewEngine constructs a Stake Vault engine. mintVault is the Mint Vault
// instance this pool publishes rewards into; upgradeAuthority is injected the
// same way native/mintvault.NewEngine's is (see DESIGN.md §2a).
func NewEngine(store *state.Store, ledger Ledger, mintVault MintVaultMinter, upgradeAuthority crypto.Address) *Engine {
	return &Engine{
		store:                 store,
		ledger:                ledger,
		mintVault:             mintVault,
		emitter:               events.NoopEmitter{},
		now:                   time.Now,
		upgradeAuthority:      upgradeAuthority,
		shareAuthority:        crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("stakevault/share-authority")),
		freezeAuthority:       crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("stakevault/freeze-authority")),
		externalMintAuthority: crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("stakevault/external-mint-authority")),
	}
}

func authorityBytes(role string) []byte {
	id := seed.DeriveAuthority(role)
	return id[:]
}

// ShareAuthority returns the derived identity that must be configured as the
// share mint's mint/burn authority.
func (e *Engine) ShareAuthority() crypto.Address { return e.shareAuthority }

// FreezeAuthority returns the derived identity that must be configured as
// the share mint's freeze authority.
func (e *Engine) FreezeAuthority() crypto.Address { return e.freezeAuthority }

// ExternalMintAuthority returns the identity this engine presents to the
// Mint Vault when publishing rewards; the Mint Vault's
// AllowedExternalMintProgram must be configured to this exact value.
func (e *Engine) ExternalMintAuthority() crypto.Address { return e.externalMintAuthority }

// SetEmitter installs an event emitter, resetting to a no-op emitter when
// passed nil.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger installs a structured logger. Initialize and Deposit each log
// one Info line; the other transitions are reported only through the emitter.
func (e *Engine) SetLogger(logger *slog.Logger) { e.logger = logger }

// SetClock overrides the engine's time source, used by tests to exercise the
// unbonding-period timer deterministically.
func (e *Engine) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
		return
	}
	e.now = now
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ev)
}

func (e *Engine) info(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Info(msg, args...)
}

var configKey = seed.Derive("stakevault/config")

func (e *Engine) loadConfig() (*Config, error) {
	var stored storedConfig
	ok, err := e.store.Get(configKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return stored.toConfig(), nil
}

func (e *Engine) saveConfig(cfg *Config) error {
	return e.store.Put(configKey, cfg.toStored())
}

func ticketKey(user crypto.Address) []byte {
	return seed.Derive("stakevault/ticket", user.Bytes())
}

func rewardRecordKey(id uint32, amount *big.Int) []byte {
	return seed.Derive("stakevault/reward-record", seed.Uint64Seed(uint64(id)), amount.Bytes())
}

func checkAmountBounds(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if !fitsUint64(amount) {
		return ErrOverflow
	}
	return nil
}

// Initialize binds the Stake Vault's mints, unbonding period, and accounts.
func (e *Engine) Initialize(
	caller crypto.Address,
	unbondingPeriodSeconds int64,
	freezeAdmins, rewardsAdmins []crypto.Address,
	reserveMint, shareMint tokenledger.MintID,
	reserveAccount, vaultAuthority crypto.Address,
) error {
	if !caller.Equal(e.upgradeAuthority) {
		return ErrUnauthorized
	}
	if reserveMint == shareMint {
		return ErrInvalidMint
	}
	if unbondingPeriodSeconds <= 0 {
		return ErrZeroAmount
	}
	if len(freezeAdmins) > common.MaxAdmins || len(rewardsAdmins) > common.MaxAdmins {
		return ErrAdminListTooLong
	}

	cfg := &Config{
		ReserveMint:            reserveMint,
		ShareMint:              shareMint,
		UnbondingPeriodSeconds: unbondingPeriodSeconds,
		Roster: common.Roster{
			UpgradeAuthority: e.upgradeAuthority,
			FreezeAdmins:     append([]crypto.Address(nil), freezeAdmins...),
			RewardsAdmins:    append([]crypto.Address(nil), rewardsAdmins...),
		},
		ReserveAccount: reserveAccount,
		VaultAuthority: vaultAuthority,
	}
	if err := e.store.PutIfAbsent(configKey, cfg.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrAlreadyInitialized
		}
		return err
	}
	e.info("stakevault initialized")
	return nil
}

// Pause toggles the paused flag. Per §4.1, in the Stake Vault this is a
// freeze-administrator action (unlike the Mint Vault, where it is
// upgrade-authority-only).
func (e *Engine) Pause(caller crypto.Address, paused bool) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireFreezeAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	cfg.Paused = paused
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(events.StakeVaultPaused{Paused: paused})
	return nil
}

// UpdateConfig rotates the unbonding period. Gated on the upgrade authority.
func (e *Engine) UpdateConfig(caller crypto.Address, unbondingPeriodSeconds int64) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if unbondingPeriodSeconds <= 0 {
		return ErrZeroAmount
	}
	cfg.UnbondingPeriodSeconds = unbondingPeriodSeconds
	return e.saveConfig(cfg)
}

// UpdateFreezeAdministrators applies an idempotent add/remove update to the
// freeze administrator list, gated on the upgrade authority.
func (e *Engine) UpdateFreezeAdministrators(caller crypto.Address, add, remove []crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	updated, err := common.UpdateAdminList(cfg.Roster.FreezeAdmins, add, remove)
	if err != nil {
		return ErrAdminListTooLong
	}
	cfg.Roster.FreezeAdmins = updated
	return e.saveConfig(cfg)
}

// UpdateRewardsAdministrators applies an idempotent add/remove update to the
// rewards administrator list, gated on the upgrade authority.
func (e *Engine) UpdateRewardsAdministrators(caller crypto.Address, add, remove []crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	updated, err := common.UpdateAdminList(cfg.Roster.RewardsAdmins, add, remove)
	if err != nil {
		return ErrAdminListTooLong
	}
	cfg.Roster.RewardsAdmins = updated
	return e.saveConfig(cfg)
}

// SetStakeVaultTokenAccountConfig rebinds the active reserve account and its
// owning vault authority.
func (e *Engine) SetStakeVaultTokenAccountConfig(caller crypto.Address, newAccount, newVaultAuthority crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	cfg.ReserveAccount = newAccount
	cfg.VaultAuthority = newVaultAuthority
	return e.saveConfig(cfg)
}

// Deposit mints shares for amount of derivative deposited, computing the
// share amount from the pool's state before moving any funds (spec §4.6:
// compute-then-transfer, since computing after would double-count the
// deposit in A).
func (e *Engine) Deposit(caller crypto.Address, amount *big.Int, reserveAccount crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "stakevault"); err != nil {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	if !reserveAccount.Equal(cfg.ReserveAccount) {
		return ErrInvalidVaultTokenAccount
	}
	frozen, err := e.ledger.IsFrozen(cfg.ShareMint, caller)
	if err != nil {
		return err
	}
	if frozen {
		return ErrAccountFrozen
	}
	userBalance, err := e.ledger.BalanceOf(cfg.ReserveMint, caller)
	if err != nil {
		return err
	}
	if userBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	vaultAssets, totalShares, err := e.poolState(cfg)
	if err != nil {
		return err
	}
	shares, err := assetsToShares(amount, vaultAssets, totalShares)
	if err != nil {
		return err
	}

	if err := e.ledger.Transfer(cfg.ReserveMint, caller, cfg.ReserveAccount, amount); err != nil {
		return err
	}
	if err := e.ledger.MintTo(cfg.ShareMint, caller, shares, e.shareAuthority); err != nil {
		_ = e.ledger.Transfer(cfg.ReserveMint, cfg.ReserveAccount, caller, amount)
		return err
	}

	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.StakeVaultDeposited{User: userBytes, Amount: amount, Shares: shares})
	e.info("stakevault deposit", "amount", amount.String(), "shares", shares.String())
	return nil
}

func (e *Engine) poolState(cfg *Config) (vaultAssets, totalShares *big.Int, err error) {
	vaultAssets, err = e.ledger.BalanceOf(cfg.ReserveMint, cfg.ReserveAccount)
	if err != nil {
		return nil, nil, err
	}
	mint, err := e.ledger.Mint(cfg.ShareMint)
	if err != nil {
		return nil, nil, err
	}
	return vaultAssets, mint.TotalSupply, nil
}

// SharesToAssets is a non-mutating read query; no pause gate, no authority
// check, per spec §4.6.
func (e *Engine) SharesToAssets(shares *big.Int) (*big.Int, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	vaultAssets, totalShares, err := e.poolState(cfg)
	if err != nil {
		return nil, err
	}
	return sharesToAssets(shares, vaultAssets, totalShares)
}

// AssetsToShares is a non-mutating read query; no pause gate, no authority
// check, per spec §4.6.
func (e *Engine) AssetsToShares(amount *big.Int) (*big.Int, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	vaultAssets, totalShares, err := e.poolState(cfg)
	if err != nil {
		return nil, err
	}
	return assetsToShares(amount, vaultAssets, totalShares)
}

// ExchangeRate is a non-mutating read query; no pause gate, no authority
// check, per spec §4.6.
func (e *Engine) ExchangeRate() (*big.Int, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	vaultAssets, totalShares, err := e.poolState(cfg)
	if err != nil {
		return nil, err
	}
	return exchangeRate(vaultAssets, totalShares)
}

// Unbond burns shares immediately and opens a time-locked ticket. Burning at
// unbond (rather than at redeem) removes the shares from S right away; the
// payout itself is priced by Redeem against the pool state at redeem time.
func (e *Engine) Unbond(caller crypto.Address, shares *big.Int) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "stakevault"); err != nil {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(shares); err != nil {
		return err
	}
	userShares, err := e.ledger.BalanceOf(cfg.ShareMint, caller)
	if err != nil {
		return err
	}
	if userShares.Cmp(shares) < 0 {
		return ErrInsufficientBalance
	}

	open, err := e.store.Has(ticketKey(caller))
	if err != nil {
		return err
	}
	if open {
		return ErrTicketAlreadyOpen
	}

	vaultAssets, _, err := e.poolState(cfg)
	if err != nil {
		return err
	}

	if err := e.ledger.Burn(cfg.ShareMint, caller, shares, e.shareAuthority); err != nil {
		return err
	}

	ticket := &UnbondingTicket{
		Owner:           caller,
		RequestedShares: shares,
		StartBalance:    vaultAssets,
		StartTimestamp:  e.now().Unix(),
	}
	if err := e.store.PutIfAbsent(ticketKey(caller), ticket.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrTicketAlreadyOpen
		}
		return err
	}
	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.StakeVaultUnbonded{User: userBytes, Shares: shares})
	return nil
}

// Redeem pays out a matured unbonding ticket, pricing the payout from the
// pool's current state (which may have grown via reward publication since
// unbond), then closes the ticket.
func (e *Engine) Redeem(caller crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "stakevault"); err != nil {
		return ErrProtocolPaused
	}

	var stored storedUnbondingTicket
	ok, err := e.store.Get(ticketKey(caller), &stored)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoTicket
	}
	ticket := stored.toTicket()

	if e.now().Unix() < ticket.StartTimestamp+cfg.UnbondingPeriodSeconds {
		return ErrNotUnbonded
	}

	vaultAssets, totalShares, err := e.poolState(cfg)
	if err != nil {
		return err
	}
	payout, err := sharesToAssets(ticket.RequestedShares, vaultAssets, totalShares)
	if err != nil {
		return err
	}

	if err := e.ledger.Transfer(cfg.ReserveMint, cfg.ReserveAccount, caller, payout); err != nil {
		return err
	}
	if err := e.store.Delete(ticketKey(caller)); err != nil {
		return err
	}
	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.StakeVaultRedeemed{User: userBytes, Payout: payout})
	return nil
}

// PublishRewards records an idempotent reward publication and invokes the
// Mint Vault's cross-program reward-mint entry under this engine's
// externalMintAuthority identity, per spec §4.8.
func (e *Engine) PublishRewards(caller crypto.Address, rewardID uint32, amount *big.Int) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireRewardsAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}

	record := &RewardPublicationRecord{ID: rewardID, Amount: amount, Timestamp: e.now().Unix()}
	if err := e.store.PutIfAbsent(rewardRecordKey(rewardID, amount), record.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrDuplicateRewardId
		}
		return err
	}

	if err := e.mintVault.MintRewardInto(e.externalMintAuthority, cfg.ReserveAccount, amount, rewardID); err != nil {
		// Drop the record so a failed publication can be retried.
		if delErr := e.store.Delete(rewardRecordKey(rewardID, amount)); delErr != nil {
			return delErr
		}
		if errors.Is(err, mintvault.ErrProtocolPaused) {
			return ErrProtocolPaused
		}
		return ErrCrossProgramCallRejected
	}
	e.emit(events.StakeVaultRewardsPublished{RewardID: rewardID, Amount: amount})
	return nil
}

// FreezeTokenAccount freezes a share token account. Gated on freeze
// administrator privilege.
func (e *Engine) FreezeTokenAccount(caller crypto.Address, account crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireFreezeAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := e.ledger.Freeze(cfg.ShareMint, account, e.freezeAuthority); err != nil {
		return err
	}
	var accBytes [20]byte
	copy(accBytes[:], account.Bytes())
	e.emit(events.StakeVaultAccountFreezeToggled{Account: accBytes, Frozen: true})
	return nil
}

// ThawTokenAccount reverses FreezeTokenAccount.
func (e *Engine) ThawTokenAccount(caller crypto.Address, account crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireFreezeAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := e.ledger.Thaw(cfg.ShareMint, account, e.freezeAuthority); err != nil {
		return err
	}
	var accBytes [20]byte
	copy(accBytes[:], account.Bytes())
	e.emit(events.StakeVaultAccountFreezeToggled{Account: accBytes, Frozen: false})
	return nil
}
