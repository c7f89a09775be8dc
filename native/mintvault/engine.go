// Package mintvault implements the 1:1 reserve/derivative exchange with
// two-phase redemption and Merkle reward claims. The engine shape (injected
// storage and ledger, a narrow Ledger interface, guard-then-mutate method
// bodies, an events.Emitter hook) is grounded on the teacher's
// native/lending.Engine; the redemption/claim state machines are grounded on
// the teacher's core/state/claimable.go two-phase claim/expire pattern.
package mintvault

import (
	"errors"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"log/slog"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/events"
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/seed"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
	"github.com/provenance-io/hastra-sol-vault/state"
)

// Ledger is the narrow token-ledger surface the engine depends on, carved out
// of tokenledger.Ledger the same way native/lending.engineState is carved out
// of core/state.Manager.
type Ledger interface {
	MintTo(id tokenledger.MintID, to crypto.Address, amount *big.Int, authority crypto.Address) error
	Burn(id tokenledger.MintID, from crypto.Address, amount *big.Int, authority crypto.Address) error
	Transfer(id tokenledger.MintID, from, to crypto.Address, amount *big.Int) error
	BalanceOf(id tokenledger.MintID, account crypto.Address) (*big.Int, error)
	IsFrozen(id tokenledger.MintID, account crypto.Address) (bool, error)
	Freeze(id tokenledger.MintID, account crypto.Address, authority crypto.Address) error
	Thaw(id tokenledger.MintID, account crypto.Address, authority crypto.Address) error
}

// Engine implements the Mint Vault's state machine. mintAuthority,
// freezeAuthority and redeemVaultAuthority are derived, key-less identities.
// mintAuthority must be the MintAuthority and BurnAuthority, and
// freezeAuthority the FreezeAuthority, configured on the derivative mint when
// it is created, or minting, burning and freezing fail at the ledger boundary
// with ErrUnauthorized. redeemVaultAuthority is derived but never presented
// to the ledger: Transfer takes no authority, so reserve moves out of the
// redeem-reserve account without it.
type Engine struct {
	store            *state.Store
	ledger           Ledger
	emitter          events.Emitter
	logger           *slog.Logger
	now              func() time.Time
	upgradeAuthority crypto.Address

	mintAuthority        crypto.Address
	freezeAuthority      crypto.Address
	redeemVaultAuthority crypto.Address
}

// NewEngine constructs a Mint Vault engine. upgradeAuthority stands in for
// the host chain's program-deployment metadata lookup (spec §6); it is fixed
// for the engine's lifetime and is the one identity Initialize itself is
// gated on.
func NewEngine(store *state.Store, ledger Ledger, upgradeAuthority crypto.Address) *Engine {
	return &Engine{
		store:                store,
		ledger:               ledger,
		emitter:              events.NoopEmitter{},
		now:                  time.Now,
		upgradeAuthority:     upgradeAuthority,
		mintAuthority:        crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("mintvault/mint-authority")),
		freezeAuthority:      crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("mintvault/freeze-authority")),
		redeemVaultAuthority: crypto.MustNewAddress(crypto.ProgramPrefix, authorityBytes("mintvault/redeem-vault-authority")),
	}
}

func authorityBytes(role string) []byte {
	id := seed.DeriveAuthority(role)
	return id[:]
}

// MintAuthority returns the derived identity that must be configured as the
// derivative mint's mint/burn authority for this engine to operate on it.
func (e *Engine) MintAuthority() crypto.Address { return e.mintAuthority }

// FreezeAuthority returns the derived identity that must be configured as
// the derivative mint's freeze authority.
func (e *Engine) FreezeAuthority() crypto.Address { return e.freezeAuthority }

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
// unbonding-style timing windows deterministically. The Mint Vault itself has
// no time-gated operation, but epochs record CreatedAt from this clock.
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

var configKey = seed.Derive("mintvault/config")

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

func requestKey(user crypto.Address) []byte {
	return seed.Derive("mintvault/redemption", user.Bytes())
}

func epochKey(index uint64) []byte {
	return seed.Derive("mintvault/epoch", seed.Uint64Seed(index))
}

func claimKey(epochIndex uint64, user crypto.Address) []byte {
	return seed.Derive("mintvault/claim", seed.Uint64Seed(epochIndex), user.Bytes())
}

// checkAmountBounds rejects amounts that cannot round-trip through a 64-bit
// unsigned quantity, the "final truncated result must fit in 64 bits"
// requirement spec.md applies to every arithmetic result.
func checkAmountBounds(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if _, overflow := uint256.FromBig(amount); overflow {
		return ErrOverflow
	}
	if !amount.IsUint64() {
		return ErrOverflow
	}
	return nil
}

// Initialize binds the Mint Vault's mints and accounts. Only the configured
// upgrade authority may call it, and only once.
func (e *Engine) Initialize(
	caller crypto.Address,
	freezeAdmins, rewardsAdmins []crypto.Address,
	allowedExternalMintProgram crypto.Address,
	reserveMint, derivativeMint tokenledger.MintID,
	reserveAccount, redeemReserveAccount crypto.Address,
	vaultAuthority crypto.Address,
) error {
	if !caller.Equal(e.upgradeAuthority) {
		return ErrUnauthorized
	}
	if reserveMint == derivativeMint {
		return ErrInvalidMint
	}
	if len(freezeAdmins) > common.MaxAdmins || len(rewardsAdmins) > common.MaxAdmins {
		return ErrAdminListTooLong
	}

	cfg := &Config{
		ReserveMint:    reserveMint,
		DerivativeMint: derivativeMint,
		VaultAuthority: vaultAuthority,
		Roster: common.Roster{
			UpgradeAuthority: e.upgradeAuthority,
			FreezeAdmins:     append([]crypto.Address(nil), freezeAdmins...),
			RewardsAdmins:    append([]crypto.Address(nil), rewardsAdmins...),
		},
		AllowedExternalMintProgram: allowedExternalMintProgram,
		ReserveAccount:             reserveAccount,
		RedeemReserveAccount:       redeemReserveAccount,
	}
	if err := e.store.PutIfAbsent(configKey, cfg.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrAlreadyInitialized
		}
		return err
	}
	e.info("mintvault initialized")
	e.emit(events.MintVaultPaused{Paused: false})
	return nil
}

// Pause toggles the paused flag. Per §4.1 this is an upgrade-authority-only
// action in the Mint Vault.
func (e *Engine) Pause(caller crypto.Address, paused bool) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	cfg.Paused = paused
	if err := e.saveConfig(cfg); err != nil {
		return err
	}
	e.emit(events.MintVaultPaused{Paused: paused})
	return nil
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

// UpdateVaultTokenAccount rotates the active reserve-holding account without
// touching any other configuration field, per §9's cyclic-reference note.
func (e *Engine) UpdateVaultTokenAccount(caller crypto.Address, newAccount crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	cfg.ReserveAccount = newAccount
	return e.saveConfig(cfg)
}

// SetVaultTokenAccountConfig rebinds both the active reserve account and its
// owning vault authority in one call, used for a full reconfiguration rather
// than a bare rotation.
func (e *Engine) SetVaultTokenAccountConfig(caller crypto.Address, newAccount, newVaultAuthority crypto.Address) error {
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

// Deposit transfers amount of reserve from caller to the bound reserve
// account and mints amount of derivative to caller. Fixed 1:1.
func (e *Engine) Deposit(caller crypto.Address, amount *big.Int, reserveAccount crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "mintvault"); err != nil {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	if !reserveAccount.Equal(cfg.ReserveAccount) {
		return ErrInvalidVaultTokenAccount
	}
	frozen, err := e.ledger.IsFrozen(cfg.DerivativeMint, caller)
	if err != nil {
		return err
	}
	if frozen {
		return ErrAccountFrozen
	}
	balance, err := e.ledger.BalanceOf(cfg.ReserveMint, caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	if err := e.ledger.Transfer(cfg.ReserveMint, caller, cfg.ReserveAccount, amount); err != nil {
		return err
	}
	if err := e.ledger.MintTo(cfg.DerivativeMint, caller, amount, e.mintAuthority); err != nil {
		// Roll back the reserve transfer so a failed mint never leaves the
		// user short of both reserve and derivative.
		_ = e.ledger.Transfer(cfg.ReserveMint, cfg.ReserveAccount, caller, amount)
		return err
	}

	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.MintVaultDeposited{User: userBytes, Amount: amount})
	e.info("mintvault deposit", "amount", amount.String())
	return nil
}

// RequestRedeem opens a Redemption Request for caller. It does not move any
// funds; it only records intent, per §4.4.
func (e *Engine) RequestRedeem(caller crypto.Address, amount *big.Int) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "mintvault"); err != nil {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	balance, err := e.ledger.BalanceOf(cfg.DerivativeMint, caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	req := &RedemptionRequest{User: caller, Amount: amount}
	if err := e.store.PutIfAbsent(requestKey(caller), req.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrRedemptionAlreadyOpen
		}
		return err
	}

	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.MintVaultRedeemRequested{User: userBytes, Amount: amount})
	return nil
}

// CompleteRedeem settles caller's (the user's) open redemption request.
// Called by a rewards administrator, not the user.
func (e *Engine) CompleteRedeem(admin crypto.Address, user crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireRewardsAdmin(&cfg.Roster, admin); err != nil {
		return ErrUnauthorized
	}

	var stored storedRedemptionRequest
	ok, err := e.store.Get(requestKey(user), &stored)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoOpenRedemption
	}
	req := stored.toRequest()

	reserveBalance, err := e.ledger.BalanceOf(cfg.ReserveMint, cfg.RedeemReserveAccount)
	if err != nil {
		return err
	}
	if reserveBalance.Cmp(req.Amount) < 0 {
		return ErrInsufficientRedeemReserve
	}

	if err := e.ledger.Transfer(cfg.ReserveMint, cfg.RedeemReserveAccount, user, req.Amount); err != nil {
		return err
	}
	if err := e.ledger.Burn(cfg.DerivativeMint, user, req.Amount, e.mintAuthority); err != nil {
		_ = e.ledger.Transfer(cfg.ReserveMint, user, cfg.RedeemReserveAccount, req.Amount)
		return err
	}
	if err := e.store.Delete(requestKey(user)); err != nil {
		return err
	}

	var userBytes [20]byte
	copy(userBytes[:], user.Bytes())
	e.emit(events.MintVaultRedeemCompleted{User: userBytes, Amount: req.Amount})
	return nil
}

// SweepRedeemVaultFunds moves amount reserve out of the redeem-reserve
// account to an arbitrary destination, for operational recovery. Only the
// upgrade authority may call it.
func (e *Engine) SweepRedeemVaultFunds(caller crypto.Address, destination crypto.Address, amount *big.Int) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireUpgradeAuthority(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	return e.ledger.Transfer(cfg.ReserveMint, cfg.RedeemReserveAccount, destination, amount)
}

// CreateRewardsEpoch creates an immutable rewards epoch. Only a rewards
// administrator may call it.
func (e *Engine) CreateRewardsEpoch(caller crypto.Address, index uint64, root [32]byte, total *big.Int) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireRewardsAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := checkAmountBounds(total); err != nil {
		return err
	}

	epoch := &RewardsEpoch{Index: index, MerkleRoot: root, Total: total, CreatedAt: e.now().Unix()}
	if err := e.store.PutIfAbsent(epochKey(index), epoch.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrEpochAlreadyExists
		}
		return err
	}
	e.emit(events.MintVaultEpochCreated{Index: index, MerkleRoot: root, Total: total})
	return nil
}

// ClaimRewards verifies a Merkle inclusion proof for caller against the
// named epoch and, on success, permanently marks the claim consumed and
// mints amount derivative to caller.
func (e *Engine) ClaimRewards(caller crypto.Address, amount *big.Int, epochIndex uint64, proof []MerkleStep) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.Guard(cfg, "mintvault"); err != nil {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	frozen, err := e.ledger.IsFrozen(cfg.DerivativeMint, caller)
	if err != nil {
		return err
	}
	if frozen {
		return ErrAccountFrozen
	}

	var storedEpoch storedRewardsEpoch
	ok, err := e.store.Get(epochKey(epochIndex), &storedEpoch)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEpochMissing
	}
	epoch := storedEpoch.toEpoch()

	leaf := leafHash(caller, amount.Uint64(), epochIndex)
	if !verifyProof(epoch.MerkleRoot, leaf, proof) {
		return ErrInvalidProof
	}

	if err := e.store.PutIfAbsent(claimKey(epochIndex, caller), struct{}{}); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return ErrAlreadyClaimed
		}
		return err
	}
	if err := e.ledger.MintTo(cfg.DerivativeMint, caller, amount, e.mintAuthority); err != nil {
		return err
	}

	var userBytes [20]byte
	copy(userBytes[:], caller.Bytes())
	e.emit(events.MintVaultRewardClaimed{User: userBytes, EpochIndex: epochIndex, Amount: amount})
	return nil
}

// FreezeTokenAccount freezes a derivative token account. Gated on freeze
// administrator privilege.
func (e *Engine) FreezeTokenAccount(caller crypto.Address, account crypto.Address) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := common.RequireFreezeAdmin(&cfg.Roster, caller); err != nil {
		return ErrUnauthorized
	}
	if err := e.ledger.Freeze(cfg.DerivativeMint, account, e.freezeAuthority); err != nil {
		return err
	}
	var accBytes [20]byte
	copy(accBytes[:], account.Bytes())
	e.emit(events.MintVaultAccountFreezeToggled{Account: accBytes, Frozen: true})
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
	if err := e.ledger.Thaw(cfg.DerivativeMint, account, e.freezeAuthority); err != nil {
		return err
	}
	var accBytes [20]byte
	copy(accBytes[:], account.Bytes())
	e.emit(events.MintVaultAccountFreezeToggled{Account: accBytes, Frozen: false})
	return nil
}

// MintRewardInto is the cross-program entry point the Stake Vault's
// publish_rewards invokes under its external_mint_authority identity
// (spec §4.8). callerProgram must match AllowedExternalMintProgram and the
// Mint Vault must not be paused. The derivative is minted into whatever
// account is passed; the engine does not check it against the Stake Vault's
// bound reserve account (PublishRewards passes that account).
func (e *Engine) MintRewardInto(callerProgram crypto.Address, account crypto.Address, amount *big.Int, rewardID uint32) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if !callerProgram.Equal(cfg.AllowedExternalMintProgram) {
		return ErrCrossProgramCallRejected
	}
	if cfg.Paused {
		return ErrProtocolPaused
	}
	if err := checkAmountBounds(amount); err != nil {
		return err
	}
	if err := e.ledger.MintTo(cfg.DerivativeMint, account, amount, e.mintAuthority); err != nil {
		return err
	}
	var accBytes [20]byte
	copy(accBytes[:], account.Bytes())
	e.emit(events.MintVaultRewardMinted{Account: accBytes, Amount: amount, RewardID: rewardID})
	return nil
}
