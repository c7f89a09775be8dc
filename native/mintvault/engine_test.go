package mintvault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
	"github.com/provenance-io/hastra-sol-vault/state"
	"github.com/provenance-io/hastra-sol-vault/storage"
)

type harness struct {
	engine               *Engine
	ledger               *tokenledger.Ledger
	reserveMint          tokenledger.MintID
	derivativeMint       tokenledger.MintID
	reserveMintAuthority crypto.Address
	upgradeAuthority     crypto.Address
	freezeAdmin          crypto.Address
	rewardsAdmin         crypto.Address
	user                 crypto.Address
	reserveAccount       crypto.Address
	redeemReserveAccount crypto.Address
	vaultAuthority       crypto.Address
	externalProgram      crypto.Address
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := state.NewStore(storage.NewMemDB())
	ledger := tokenledger.NewLedger(store)

	h := &harness{
		ledger:               ledger,
		reserveMintAuthority: testAddr(t, 0xAA),
		upgradeAuthority:     testAddr(t, 1),
		freezeAdmin:          testAddr(t, 2),
		rewardsAdmin:         testAddr(t, 3),
		user:                 testAddr(t, 4),
		reserveAccount:       testAddr(t, 5),
		redeemReserveAccount: testAddr(t, 6),
		vaultAuthority:       testAddr(t, 7),
		externalProgram:      testAddr(t, 8),
	}

	h.engine = NewEngine(store, ledger, h.upgradeAuthority)

	reserveMint, err := ledger.CreateMint("reserve", 6, h.reserveMintAuthority, h.reserveMintAuthority, h.reserveMintAuthority)
	require.NoError(t, err)
	h.reserveMint = reserveMint

	derivativeMint, err := ledger.CreateMint("derivative", 6, h.engine.MintAuthority(), h.engine.MintAuthority(), h.engine.FreezeAuthority())
	require.NoError(t, err)
	h.derivativeMint = derivativeMint

	require.NoError(t, h.engine.Initialize(
		h.upgradeAuthority,
		[]crypto.Address{h.freezeAdmin},
		[]crypto.Address{h.rewardsAdmin},
		h.externalProgram,
		h.reserveMint,
		h.derivativeMint,
		h.reserveAccount,
		h.redeemReserveAccount,
		h.vaultAuthority,
	))

	return h
}

func (h *harness) fundReserve(t *testing.T, account crypto.Address, amount int64) {
	t.Helper()
	require.NoError(t, h.ledger.MintTo(h.reserveMint, account, big.NewInt(amount), h.reserveMintAuthority))
}

func TestInitializeRejectsNonUpgradeAuthority(t *testing.T) {
	store := state.NewStore(storage.NewMemDB())
	ledger := tokenledger.NewLedger(store)
	upgradeAuthority := testAddr(t, 1)
	engine := NewEngine(store, ledger, upgradeAuthority)

	reserveMint, err := ledger.CreateMint("reserve", 6, testAddr(t, 9), testAddr(t, 9), testAddr(t, 9))
	require.NoError(t, err)
	derivativeMint, err := ledger.CreateMint("derivative", 6, engine.MintAuthority(), engine.MintAuthority(), engine.FreezeAuthority())
	require.NoError(t, err)

	err = engine.Initialize(testAddr(t, 99), nil, nil, testAddr(t, 8), reserveMint, derivativeMint, testAddr(t, 5), testAddr(t, 6), testAddr(t, 7))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestInitializeRejectsDoubleInit(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Initialize(
		h.upgradeAuthority, nil, nil, h.externalProgram,
		h.reserveMint, h.derivativeMint, h.reserveAccount, h.redeemReserveAccount, h.vaultAuthority,
	)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestDepositMintsDerivative1to1(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)

	require.NoError(t, h.engine.Deposit(h.user, big.NewInt(400), h.reserveAccount))

	derivBalance, err := h.ledger.BalanceOf(h.derivativeMint, h.user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), derivBalance)

	reserveBalance, err := h.ledger.BalanceOf(h.reserveMint, h.user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(600), reserveBalance)

	vaultReserve, err := h.ledger.BalanceOf(h.reserveMint, h.reserveAccount)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(400), vaultReserve)
}

func TestDepositRejectsWrongReserveAccount(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)
	err := h.engine.Deposit(h.user, big.NewInt(100), testAddr(t, 123))
	require.ErrorIs(t, err, ErrInvalidVaultTokenAccount)
}

func TestDepositRejectsInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Deposit(h.user, big.NewInt(100), h.reserveAccount)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDepositRejectsWhenPaused(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)
	require.NoError(t, h.engine.Pause(h.upgradeAuthority, true))
	err := h.engine.Deposit(h.user, big.NewInt(100), h.reserveAccount)
	require.ErrorIs(t, err, ErrProtocolPaused)
}

func TestPauseRejectsNonUpgradeAuthority(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Pause(h.freezeAdmin, true)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRedeemRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)
	h.fundReserve(t, h.redeemReserveAccount, 1000)
	require.NoError(t, h.engine.Deposit(h.user, big.NewInt(500), h.reserveAccount))

	require.NoError(t, h.engine.RequestRedeem(h.user, big.NewInt(200)))

	err := h.engine.RequestRedeem(h.user, big.NewInt(50))
	require.ErrorIs(t, err, ErrRedemptionAlreadyOpen)

	err = h.engine.CompleteRedeem(h.user, h.user)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, h.engine.CompleteRedeem(h.rewardsAdmin, h.user))

	derivBalance, err := h.ledger.BalanceOf(h.derivativeMint, h.user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), derivBalance)

	reserveBalance, err := h.ledger.BalanceOf(h.reserveMint, h.user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700), reserveBalance)

	err = h.engine.CompleteRedeem(h.rewardsAdmin, h.user)
	require.ErrorIs(t, err, ErrNoOpenRedemption)
}

func TestCompleteRedeemRejectsInsufficientReserve(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)
	require.NoError(t, h.engine.Deposit(h.user, big.NewInt(500), h.reserveAccount))
	require.NoError(t, h.engine.RequestRedeem(h.user, big.NewInt(200)))

	err := h.engine.CompleteRedeem(h.rewardsAdmin, h.user)
	require.ErrorIs(t, err, ErrInsufficientRedeemReserve)
}

func TestClaimRewardsSingleLeafEpoch(t *testing.T) {
	h := newHarness(t)
	leaf := leafHash(h.user, 150, 0)

	require.NoError(t, h.engine.CreateRewardsEpoch(h.rewardsAdmin, 0, leaf, big.NewInt(150)))

	err := h.engine.CreateRewardsEpoch(h.rewardsAdmin, 0, leaf, big.NewInt(150))
	require.ErrorIs(t, err, ErrEpochAlreadyExists)

	require.NoError(t, h.engine.ClaimRewards(h.user, big.NewInt(150), 0, nil))

	balance, err := h.ledger.BalanceOf(h.derivativeMint, h.user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(150), balance)

	err = h.engine.ClaimRewards(h.user, big.NewInt(150), 0, nil)
	require.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestClaimRewardsRejectsUnknownEpoch(t *testing.T) {
	h := newHarness(t)
	err := h.engine.ClaimRewards(h.user, big.NewInt(1), 7, nil)
	require.ErrorIs(t, err, ErrEpochMissing)
}

func TestClaimRewardsRejectsBadProof(t *testing.T) {
	h := newHarness(t)
	root := leafHash(testAddr(t, 250), 999, 0)
	require.NoError(t, h.engine.CreateRewardsEpoch(h.rewardsAdmin, 0, root, big.NewInt(999)))

	err := h.engine.ClaimRewards(h.user, big.NewInt(150), 0, nil)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestFreezeTokenAccountBlocksDeposit(t *testing.T) {
	h := newHarness(t)
	h.fundReserve(t, h.user, 1000)
	require.NoError(t, h.engine.FreezeTokenAccount(h.freezeAdmin, h.user))

	err := h.engine.Deposit(h.user, big.NewInt(100), h.reserveAccount)
	require.ErrorIs(t, err, ErrAccountFrozen)

	require.NoError(t, h.engine.ThawTokenAccount(h.freezeAdmin, h.user))
	require.NoError(t, h.engine.Deposit(h.user, big.NewInt(100), h.reserveAccount))
}

func TestMintRewardIntoRejectsUnknownProgram(t *testing.T) {
	h := newHarness(t)
	err := h.engine.MintRewardInto(testAddr(t, 200), h.redeemReserveAccount, big.NewInt(10), 1)
	require.ErrorIs(t, err, ErrCrossProgramCallRejected)
}

func TestMintRewardIntoMintsForAllowedProgram(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.MintRewardInto(h.externalProgram, h.redeemReserveAccount, big.NewInt(10), 1))

	balance, err := h.ledger.BalanceOf(h.derivativeMint, h.redeemReserveAccount)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), balance)
}

func TestUpdateFreezeAdministratorsIdempotent(t *testing.T) {
	h := newHarness(t)
	newAdmin := testAddr(t, 50)
	require.NoError(t, h.engine.UpdateFreezeAdministrators(h.upgradeAuthority, []crypto.Address{newAdmin, newAdmin}, nil))
	require.NoError(t, h.engine.FreezeTokenAccount(newAdmin, h.user))
}
