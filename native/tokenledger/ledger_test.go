package tokenledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/state"
	"github.com/provenance-io/hastra-sol-vault/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store := state.NewStore(storage.NewMemDB())
	return NewLedger(store)
}

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.MustNewAddress(crypto.VaultPrefix, raw)
}

func TestCreateMintRejectsDuplicateName(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)

	_, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)

	_, err = l.CreateMint("dUSD", 6, authority, authority, authority)
	require.ErrorIs(t, err, ErrMintExists)
}

func TestMintToAndBalanceOf(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)
	user := addr(2)

	id, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)

	require.NoError(t, l.MintTo(id, user, big.NewInt(1000), authority))

	balance, err := l.BalanceOf(id, user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), balance)

	m, err := l.Mint(id)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), m.TotalSupply)
}

func TestMintToRejectsWrongAuthority(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)
	attacker := addr(9)
	user := addr(2)

	id, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)

	err = l.MintTo(id, user, big.NewInt(100), attacker)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)
	a := addr(2)
	b := addr(3)

	id, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)
	require.NoError(t, l.MintTo(id, a, big.NewInt(50), authority))

	err = l.Transfer(id, a, b, big.NewInt(100))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	balance, err := l.BalanceOf(id, a)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(50), balance)
}

func TestFreezeBlocksMint(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)
	user := addr(2)

	id, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)
	require.NoError(t, l.Freeze(id, user, authority))

	err = l.MintTo(id, user, big.NewInt(10), authority)
	require.ErrorIs(t, err, ErrAccountFrozen)

	require.NoError(t, l.Thaw(id, user, authority))
	require.NoError(t, l.MintTo(id, user, big.NewInt(10), authority))
}

func TestBurnFromUnknownAuthorityRejected(t *testing.T) {
	l := newTestLedger(t)
	authority := addr(1)
	user := addr(2)
	attacker := addr(9)

	id, err := l.CreateMint("dUSD", 6, authority, authority, authority)
	require.NoError(t, err)
	require.NoError(t, l.MintTo(id, user, big.NewInt(10), authority))

	err = l.Burn(id, user, big.NewInt(5), attacker)
	require.ErrorIs(t, err, ErrUnauthorized)
}
