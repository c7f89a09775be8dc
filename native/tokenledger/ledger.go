// Package tokenledger is the generalized multi-mint balance ledger the vault
// engines sit on top of. It stands in for the host chain's token program
// (spec.md's external collaborator): both the reserve/derivative mints
// managed by the mint vault and the share mint managed by the stake vault are
// just mints registered here. It is grounded on the teacher's
// core/state/accounts.go balance-mutation style and core/claimable's
// status/freeze bookkeeping, generalized from a fixed two-balance account to
// an arbitrary number of named mints.
package tokenledger

import (
	"errors"
	"math/big"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/seed"
	"github.com/provenance-io/hastra-sol-vault/state"
)

var (
	ErrMintNotFound        = errors.New("tokenledger: mint not found")
	ErrMintExists          = errors.New("tokenledger: mint already registered")
	ErrAccountFrozen       = errors.New("tokenledger: account is frozen")
	ErrInsufficientBalance = errors.New("tokenledger: insufficient balance")
	ErrInvalidAmount       = errors.New("tokenledger: amount must be positive")
	ErrUnauthorized        = errors.New("tokenledger: caller is not the configured authority")
)

// MintID is the deterministic, collision-resistant identifier for a
// registered mint, analogous to an SPL mint address.
type MintID [32]byte

// storedMint is the RLP-persisted mint record.
type storedMint struct {
	Name            string
	Decimals        uint8
	MintAuthority   []byte
	BurnAuthority   []byte
	FreezeAuthority []byte
	TotalSupply     []byte
}

// Mint is the domain view of a registered mint.
type Mint struct {
	ID              MintID
	Name            string
	Decimals        uint8
	MintAuthority   crypto.Address
	BurnAuthority   crypto.Address
	FreezeAuthority crypto.Address
	TotalSupply     *big.Int
}

func (m *Mint) toStored() *storedMint {
	return &storedMint{
		Name:            m.Name,
		Decimals:        m.Decimals,
		MintAuthority:   m.MintAuthority.Bytes(),
		BurnAuthority:   m.BurnAuthority.Bytes(),
		FreezeAuthority: m.FreezeAuthority.Bytes(),
		TotalSupply:     m.TotalSupply.Bytes(),
	}
}

func (s *storedMint) toMint(id MintID) *Mint {
	return &Mint{
		ID:              id,
		Name:            s.Name,
		Decimals:        s.Decimals,
		MintAuthority:   crypto.MustNewAddress(crypto.ProgramPrefix, padTo20(s.MintAuthority)),
		BurnAuthority:   crypto.MustNewAddress(crypto.ProgramPrefix, padTo20(s.BurnAuthority)),
		FreezeAuthority: crypto.MustNewAddress(crypto.ProgramPrefix, padTo20(s.FreezeAuthority)),
		TotalSupply:     new(big.Int).SetBytes(s.TotalSupply),
	}
}

func padTo20(b []byte) []byte {
	if len(b) == 20 {
		return b
	}
	out := make([]byte, 20)
	copy(out[20-len(b):], b)
	return out
}

// storedAccount is the RLP-persisted per-mint account record.
type storedAccount struct {
	Balance []byte
	Frozen  bool
}

// Ledger is the concrete, Store-backed implementation of the balance engine
// the mint vault and stake vault consume through their own narrow
// engineState-style interfaces.
type Ledger struct {
	store *state.Store
}

// NewLedger constructs a Ledger over the given record store.
func NewLedger(store *state.Store) *Ledger {
	return &Ledger{store: store}
}

func mintKey(name string) []byte {
	return seed.Derive("tokenledger/mint", []byte(name))
}

func mintRecordKey(id MintID) []byte {
	return seed.Derive("tokenledger/mint-record", id[:])
}

func accountKey(id MintID, addr crypto.Address) []byte {
	return seed.Derive("tokenledger/account", id[:], addr.Bytes())
}

// CreateMint registers a new mint identified by name and returns its
// deterministic MintID. Creating a mint under an already-used name fails
// with ErrMintExists, matching the host chain's "mint address already in
// use" rejection.
func (l *Ledger) CreateMint(name string, decimals uint8, mintAuthority, burnAuthority, freezeAuthority crypto.Address) (MintID, error) {
	var id MintID
	copy(id[:], mintKey(name))

	record := &Mint{
		ID:              id,
		Name:            name,
		Decimals:        decimals,
		MintAuthority:   mintAuthority,
		BurnAuthority:   burnAuthority,
		FreezeAuthority: freezeAuthority,
		TotalSupply:     big.NewInt(0),
	}
	if err := l.store.PutIfAbsent(mintRecordKey(id), record.toStored()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return MintID{}, ErrMintExists
		}
		return MintID{}, err
	}
	return id, nil
}

func (l *Ledger) loadMint(id MintID) (*Mint, error) {
	var stored storedMint
	ok, err := l.store.Get(mintRecordKey(id), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMintNotFound
	}
	return stored.toMint(id), nil
}

func (l *Ledger) saveMint(m *Mint) error {
	return l.store.Put(mintRecordKey(m.ID), m.toStored())
}

// Mint returns the domain record for a registered mint.
func (l *Ledger) Mint(id MintID) (*Mint, error) {
	return l.loadMint(id)
}

func (l *Ledger) loadAccount(id MintID, addr crypto.Address) (*storedAccount, error) {
	var acc storedAccount
	ok, err := l.store.Get(accountKey(id, addr), &acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &storedAccount{Balance: big.NewInt(0).Bytes()}, nil
	}
	return &acc, nil
}

func (l *Ledger) saveAccount(id MintID, addr crypto.Address, acc *storedAccount) error {
	return l.store.Put(accountKey(id, addr), acc)
}

// BalanceOf returns the balance of account for the given mint.
func (l *Ledger) BalanceOf(id MintID, account crypto.Address) (*big.Int, error) {
	acc, err := l.loadAccount(id, account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(acc.Balance), nil
}

// IsFrozen reports whether account is frozen for the given mint.
func (l *Ledger) IsFrozen(id MintID, account crypto.Address) (bool, error) {
	acc, err := l.loadAccount(id, account)
	if err != nil {
		return false, err
	}
	return acc.Frozen, nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MintTo credits amount of mint into to's account, provided authority matches
// the mint's configured mint authority. TotalSupply is updated in the same
// call so callers never observe a partially-applied mint.
func (l *Ledger) MintTo(id MintID, to crypto.Address, amount *big.Int, authority crypto.Address) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	m, err := l.loadMint(id)
	if err != nil {
		return err
	}
	if !m.MintAuthority.Equal(authority) {
		return ErrUnauthorized
	}
	acc, err := l.loadAccount(id, to)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return ErrAccountFrozen
	}
	newBalance := new(big.Int).Add(new(big.Int).SetBytes(acc.Balance), amount)
	acc.Balance = newBalance.Bytes()
	if err := l.saveAccount(id, to, acc); err != nil {
		return err
	}
	m.TotalSupply = new(big.Int).Add(m.TotalSupply, amount)
	return l.saveMint(m)
}

// Burn debits amount of mint from from's account, provided authority matches
// the mint's configured burn authority or the account owner itself — the
// vault engines always call this as the configured burn authority, standing
// in for the host chain's delegated-burn capability a vault PDA holds over a
// user's token account once a redemption/unbond has been authorized.
func (l *Ledger) Burn(id MintID, from crypto.Address, amount *big.Int, authority crypto.Address) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	m, err := l.loadMint(id)
	if err != nil {
		return err
	}
	if !m.BurnAuthority.Equal(authority) && !from.Equal(authority) {
		return ErrUnauthorized
	}
	acc, err := l.loadAccount(id, from)
	if err != nil {
		return err
	}
	if acc.Frozen {
		return ErrAccountFrozen
	}
	balance := new(big.Int).SetBytes(acc.Balance)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.Balance = new(big.Int).Sub(balance, amount).Bytes()
	if err := l.saveAccount(id, from, acc); err != nil {
		return err
	}
	m.TotalSupply = new(big.Int).Sub(m.TotalSupply, amount)
	return l.saveMint(m)
}

// Transfer moves amount of mint from from to to. Both accounts must be
// unfrozen. Applies the debit before the credit and restores the debit if
// the credit step fails, mirroring the rollback-closure discipline the
// teacher's claimable balance mutations use.
func (l *Ledger) Transfer(id MintID, from, to crypto.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	fromAcc, err := l.loadAccount(id, from)
	if err != nil {
		return err
	}
	if fromAcc.Frozen {
		return ErrAccountFrozen
	}
	fromBalance := new(big.Int).SetBytes(fromAcc.Balance)
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := l.loadAccount(id, to)
	if err != nil {
		return err
	}
	if toAcc.Frozen {
		return ErrAccountFrozen
	}

	originalFromBalance := append([]byte(nil), fromAcc.Balance...)
	fromAcc.Balance = new(big.Int).Sub(fromBalance, amount).Bytes()
	if err := l.saveAccount(id, from, fromAcc); err != nil {
		return err
	}
	rollback := func() {
		fromAcc.Balance = originalFromBalance
		_ = l.saveAccount(id, from, fromAcc)
	}

	toAcc.Balance = new(big.Int).Add(new(big.Int).SetBytes(toAcc.Balance), amount).Bytes()
	if err := l.saveAccount(id, to, toAcc); err != nil {
		rollback()
		return err
	}
	return nil
}

// Freeze marks account unable to send or receive mint, provided authority
// matches the mint's configured freeze authority.
func (l *Ledger) Freeze(id MintID, account crypto.Address, authority crypto.Address) error {
	return l.setFrozen(id, account, authority, true)
}

// Thaw clears a previous Freeze.
func (l *Ledger) Thaw(id MintID, account crypto.Address, authority crypto.Address) error {
	return l.setFrozen(id, account, authority, false)
}

func (l *Ledger) setFrozen(id MintID, account crypto.Address, authority crypto.Address, frozen bool) error {
	m, err := l.loadMint(id)
	if err != nil {
		return err
	}
	if !m.FreezeAuthority.Equal(authority) {
		return ErrUnauthorized
	}
	acc, err := l.loadAccount(id, account)
	if err != nil {
		return err
	}
	acc.Frozen = frozen
	return l.saveAccount(id, account, acc)
}
