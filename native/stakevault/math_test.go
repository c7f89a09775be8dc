package stakevault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssetsToSharesFirstDepositIsExact(t *testing.T) {
	shares, err := assetsToShares(big.NewInt(1_000_000), big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), shares)
}

func TestInflationAttackDefence(t *testing.T) {
	// Attacker deposits 1_000_000, receives 1_000_000 shares exactly.
	attackerShares, err := assetsToShares(big.NewInt(1_000_000), big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), attackerShares)

	// Pool now holds 1_000_000 assets, 1_000_000 shares outstanding.
	vaultAssets := big.NewInt(1_000_000)
	totalShares := attackerShares

	// Attacker donates 10_000 * 10^6 directly into the vault account.
	vaultAssets = new(big.Int).Add(vaultAssets, big.NewInt(10_000_000_000))

	victimDeposit := big.NewInt(10_000_000_000)
	victimShares, err := assetsToShares(victimDeposit, vaultAssets, totalShares)
	require.NoError(t, err)
	require.True(t, victimShares.Sign() > 0)
	require.True(t, victimShares.Cmp(new(big.Int).Mul(attackerShares, big.NewInt(2))) < 0)
	require.True(t, victimShares.Cmp(big.NewInt(1_999_000)) >= 0)

	vaultAssetsAfter := new(big.Int).Add(vaultAssets, victimDeposit)
	totalSharesAfter := new(big.Int).Add(totalShares, victimShares)
	rate, err := exchangeRate(vaultAssetsAfter, totalSharesAfter)
	require.NoError(t, err)
	require.True(t, rate.Cmp(big.NewInt(5_000_000_000_000)) >= 0)
	require.True(t, rate.Cmp(big.NewInt(6_000_000_000_000)) <= 0)
}

func TestSharesToAssetsRoundsDown(t *testing.T) {
	vaultAssets := big.NewInt(1_000_000_007)
	totalShares := big.NewInt(999_999)
	a := big.NewInt(123_456)

	shares, err := assetsToShares(a, vaultAssets, totalShares)
	require.NoError(t, err)
	back, err := sharesToAssets(shares, vaultAssets, totalShares)
	require.NoError(t, err)

	require.True(t, back.Cmp(a) <= 0)
	gap := new(big.Int).Sub(a, back)
	require.True(t, gap.Cmp(big.NewInt(1)) <= 0)
}

func TestExchangeRateMonotonicOnRewardPublication(t *testing.T) {
	vaultAssets := big.NewInt(1_000_000_000)
	totalShares := big.NewInt(1_000_000)

	before, err := exchangeRate(vaultAssets, totalShares)
	require.NoError(t, err)

	after, err := exchangeRate(new(big.Int).Add(vaultAssets, big.NewInt(100_000_000)), totalShares)
	require.NoError(t, err)

	require.True(t, after.Cmp(before) > 0)
}

func TestAssetsToSharesRejectsOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 300)
	_, err := assetsToShares(huge, big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)
}
