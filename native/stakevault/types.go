package stakevault

import (
	"math/big"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
)

// Config is the Stake Vault's one-per-instance record (spec §3).
// ReserveAccount/VaultAuthority are kept out of the Roster and mutable
// independently via SetStakeVaultTokenAccountConfig, mirroring the Mint
// Vault's cyclic-reference-breaking design (spec §9).
type Config struct {
	ReserveMint             tokenledger.MintID // the derivative token held by the pool
	ShareMint               tokenledger.MintID
	UnbondingPeriodSeconds  int64
	Roster                  common.Roster
	Paused                  bool
	ReserveAccount          crypto.Address
	VaultAuthority          crypto.Address
}

type storedConfig struct {
	ReserveMint            [32]byte
	ShareMint              [32]byte
	UnbondingPeriodSeconds int64
	UpgradeAuthority       []byte
	FreezeAdmins           [][]byte
	RewardsAdmins          [][]byte
	Paused                 bool
	ReserveAccount         []byte
	VaultAuthority         []byte
}

func addrBytesOrEmpty(a crypto.Address) []byte {
	if a.IsZero() {
		return nil
	}
	return a.Bytes()
}

func addrFromBytes(b []byte) crypto.Address {
	if len(b) == 0 {
		return crypto.Address{}
	}
	return crypto.MustNewAddress(crypto.VaultPrefix, b)
}

func addrListFromBytes(list [][]byte) []crypto.Address {
	out := make([]crypto.Address, 0, len(list))
	for _, b := range list {
		out = append(out, addrFromBytes(b))
	}
	return out
}

func addrListToBytes(list []crypto.Address) [][]byte {
	out := make([][]byte, 0, len(list))
	for _, a := range list {
		out = append(out, a.Bytes())
	}
	return out
}

func (c *Config) toStored() *storedConfig {
	return &storedConfig{
		ReserveMint:            c.ReserveMint,
		ShareMint:              c.ShareMint,
		UnbondingPeriodSeconds: c.UnbondingPeriodSeconds,
		UpgradeAuthority:       addrBytesOrEmpty(c.Roster.UpgradeAuthority),
		FreezeAdmins:           addrListToBytes(c.Roster.FreezeAdmins),
		RewardsAdmins:          addrListToBytes(c.Roster.RewardsAdmins),
		Paused:                 c.Paused,
		ReserveAccount:         addrBytesOrEmpty(c.ReserveAccount),
		VaultAuthority:         addrBytesOrEmpty(c.VaultAuthority),
	}
}

func (s *storedConfig) toConfig() *Config {
	return &Config{
		ReserveMint:            s.ReserveMint,
		ShareMint:              s.ShareMint,
		UnbondingPeriodSeconds: s.UnbondingPeriodSeconds,
		Roster: common.Roster{
			UpgradeAuthority: addrFromBytes(s.UpgradeAuthority),
			FreezeAdmins:     addrListFromBytes(s.FreezeAdmins),
			RewardsAdmins:    addrListFromBytes(s.RewardsAdmins),
		},
		Paused:         s.Paused,
		ReserveAccount: addrFromBytes(s.ReserveAccount),
		VaultAuthority: addrFromBytes(s.VaultAuthority),
	}
}

// IsPaused implements native/common.PauseView.
func (c *Config) IsPaused(module string) bool {
	return c.Paused
}

// UnbondingTicket is the one-per-user time-locked exit record (spec §3,
// §4.7). Shares are burned at unbond time, not at redeem time. The payout is
// sharesToAssets(RequestedShares) evaluated against the pool's state at
// redeem time; StartBalance records the vault's assets at unbond and is not
// used in the payout.
type UnbondingTicket struct {
	Owner           crypto.Address
	RequestedShares *big.Int
	StartBalance    *big.Int
	StartTimestamp  int64
}

type storedUnbondingTicket struct {
	Owner           []byte
	RequestedShares []byte
	StartBalance    []byte
	StartTimestamp  int64
}

func (t *UnbondingTicket) toStored() *storedUnbondingTicket {
	return &storedUnbondingTicket{
		Owner:           t.Owner.Bytes(),
		RequestedShares: t.RequestedShares.Bytes(),
		StartBalance:    t.StartBalance.Bytes(),
		StartTimestamp:  t.StartTimestamp,
	}
}

func (s *storedUnbondingTicket) toTicket() *UnbondingTicket {
	return &UnbondingTicket{
		Owner:           addrFromBytes(s.Owner),
		RequestedShares: new(big.Int).SetBytes(s.RequestedShares),
		StartBalance:    new(big.Int).SetBytes(s.StartBalance),
		StartTimestamp:  s.StartTimestamp,
	}
}

// RewardPublicationRecord is the idempotence record for publish_rewards,
// keyed by the (id, amount) pair per spec §3/§4.8.
type RewardPublicationRecord struct {
	ID        uint32
	Amount    *big.Int
	Timestamp int64
}

type storedRewardPublicationRecord struct {
	ID        uint32
	Amount    []byte
	Timestamp int64
}

func (r *RewardPublicationRecord) toStored() *storedRewardPublicationRecord {
	return &storedRewardPublicationRecord{ID: r.ID, Amount: r.Amount.Bytes(), Timestamp: r.Timestamp}
}
