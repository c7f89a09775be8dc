package events

import "math/big"

const (
	TypeStakeVaultInitialized = "stakevault.initialized"
	TypeStakeVaultPaused      = "stakevault.paused"
	TypeStakeVaultDeposited   = "stakevault.deposited"
	TypeStakeVaultUnbonded    = "stakevault.unbonded"
	TypeStakeVaultRedeemed    = "stakevault.redeemed"
	TypeStakeVaultRewardsPublished = "stakevault.rewards_published"
	TypeStakeVaultAccountFreeze    = "stakevault.account_freeze_toggled"
)

type StakeVaultDeposited struct {
	User   [20]byte
	Amount *big.Int
	Shares *big.Int
}

func (StakeVaultDeposited) EventType() string { return TypeStakeVaultDeposited }

type StakeVaultUnbonded struct {
	User   [20]byte
	Shares *big.Int
}

func (StakeVaultUnbonded) EventType() string { return TypeStakeVaultUnbonded }

type StakeVaultRedeemed struct {
	User   [20]byte
	Payout *big.Int
}

func (StakeVaultRedeemed) EventType() string { return TypeStakeVaultRedeemed }

type StakeVaultRewardsPublished struct {
	RewardID uint32
	Amount   *big.Int
}

func (StakeVaultRewardsPublished) EventType() string { return TypeStakeVaultRewardsPublished }

type StakeVaultPaused struct {
	Paused bool
}

func (StakeVaultPaused) EventType() string { return TypeStakeVaultPaused }

type StakeVaultAccountFreezeToggled struct {
	Account [20]byte
	Frozen  bool
}

func (StakeVaultAccountFreezeToggled) EventType() string { return TypeStakeVaultAccountFreeze }
