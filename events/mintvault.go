package events

import "math/big"

const (
	TypeMintVaultInitialized  = "mintvault.initialized"
	TypeMintVaultPaused       = "mintvault.paused"
	TypeMintVaultDeposited    = "mintvault.deposited"
	TypeMintVaultRedeemOpened = "mintvault.redeem_requested"
	TypeMintVaultRedeemDone   = "mintvault.redeem_completed"
	TypeMintVaultEpochCreated = "mintvault.epoch_created"
	TypeMintVaultRewardClaim  = "mintvault.reward_claimed"
	TypeMintVaultRewardMinted = "mintvault.reward_minted"
	TypeMintVaultAccountFreeze = "mintvault.account_freeze_toggled"
)

type MintVaultDeposited struct {
	User     [20]byte
	Amount   *big.Int
}

func (MintVaultDeposited) EventType() string { return TypeMintVaultDeposited }

type MintVaultRedeemRequested struct {
	User   [20]byte
	Amount *big.Int
}

func (MintVaultRedeemRequested) EventType() string { return TypeMintVaultRedeemOpened }

type MintVaultRedeemCompleted struct {
	User   [20]byte
	Amount *big.Int
}

func (MintVaultRedeemCompleted) EventType() string { return TypeMintVaultRedeemDone }

type MintVaultEpochCreated struct {
	Index      uint64
	MerkleRoot [32]byte
	Total      *big.Int
}

func (MintVaultEpochCreated) EventType() string { return TypeMintVaultEpochCreated }

type MintVaultRewardClaimed struct {
	User       [20]byte
	EpochIndex uint64
	Amount     *big.Int
}

func (MintVaultRewardClaimed) EventType() string { return TypeMintVaultRewardClaim }

type MintVaultRewardMinted struct {
	Account [20]byte
	Amount  *big.Int
	RewardID uint32
}

func (MintVaultRewardMinted) EventType() string { return TypeMintVaultRewardMinted }

type MintVaultPaused struct {
	Paused bool
}

func (MintVaultPaused) EventType() string { return TypeMintVaultPaused }

type MintVaultAccountFreezeToggled struct {
	Account [20]byte
	Frozen  bool
}

func (MintVaultAccountFreezeToggled) EventType() string { return TypeMintVaultAccountFreeze }
