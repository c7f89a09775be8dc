package mintvault

import (
	"math/big"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/common"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
)

// Config is the one-per-instance record described in spec §3. VaultAuthority
// is the external, rotatable owner of the active reserve account; it is kept
// out of the Roster because it is a holding-account property, not an
// administrator role.
type Config struct {
	ReserveMint                tokenledger.MintID
	DerivativeMint              tokenledger.MintID
	VaultAuthority              crypto.Address
	Roster                      common.Roster
	AllowedExternalMintProgram  crypto.Address
	Paused                      bool

	// ReserveAccount and RedeemReserveAccount are the two token accounts
	// bound at Initialize time: the deposit-side holding account and the
	// completion-side redemption reserve. Both are fields of this Config
	// record; there is no separate binding record. ReserveAccount is rotated
	// by UpdateVaultTokenAccount/SetVaultTokenAccountConfig, which rewrite the
	// Config record with only that binding changed, so operational rotation
	// never requires reinitializing the whole config.
	ReserveAccount       crypto.Address
	RedeemReserveAccount crypto.Address
}

// storedConfig is the RLP-persisted form of Config.
type storedConfig struct {
	ReserveMint                [32]byte
	DerivativeMint              [32]byte
	VaultAuthority              []byte
	UpgradeAuthority            []byte
	FreezeAdmins                [][]byte
	RewardsAdmins               [][]byte
	AllowedExternalMintProgram  []byte
	Paused                      bool
	ReserveAccount              []byte
	RedeemReserveAccount        []byte
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
		ReserveMint:                c.ReserveMint,
		DerivativeMint:              c.DerivativeMint,
		VaultAuthority:              addrBytesOrEmpty(c.VaultAuthority),
		UpgradeAuthority:            addrBytesOrEmpty(c.Roster.UpgradeAuthority),
		FreezeAdmins:                addrListToBytes(c.Roster.FreezeAdmins),
		RewardsAdmins:               addrListToBytes(c.Roster.RewardsAdmins),
		AllowedExternalMintProgram:  addrBytesOrEmpty(c.AllowedExternalMintProgram),
		Paused:                      c.Paused,
		ReserveAccount:              addrBytesOrEmpty(c.ReserveAccount),
		RedeemReserveAccount:        addrBytesOrEmpty(c.RedeemReserveAccount),
	}
}

func (s *storedConfig) toConfig() *Config {
	return &Config{
		ReserveMint:    s.ReserveMint,
		DerivativeMint: s.DerivativeMint,
		VaultAuthority: addrFromBytes(s.VaultAuthority),
		Roster: common.Roster{
			UpgradeAuthority: addrFromBytes(s.UpgradeAuthority),
			FreezeAdmins:     addrListFromBytes(s.FreezeAdmins),
			RewardsAdmins:    addrListFromBytes(s.RewardsAdmins),
		},
		AllowedExternalMintProgram: addrFromBytes(s.AllowedExternalMintProgram),
		Paused:                     s.Paused,
		ReserveAccount:             addrFromBytes(s.ReserveAccount),
		RedeemReserveAccount:       addrFromBytes(s.RedeemReserveAccount),
	}
}

// IsPaused implements native/common.PauseView.
func (c *Config) IsPaused(module string) bool {
	return c.Paused
}

// RedemptionRequest is the one-per-user open-redemption record (spec §3).
type RedemptionRequest struct {
	User   crypto.Address
	Amount *big.Int
}

type storedRedemptionRequest struct {
	User   []byte
	Amount []byte
}

func (r *RedemptionRequest) toStored() *storedRedemptionRequest {
	return &storedRedemptionRequest{User: r.User.Bytes(), Amount: r.Amount.Bytes()}
}

func (s *storedRedemptionRequest) toRequest() *RedemptionRequest {
	return &RedemptionRequest{User: addrFromBytes(s.User), Amount: new(big.Int).SetBytes(s.Amount)}
}

// RewardsEpoch is the immutable-after-creation reward distribution record.
type RewardsEpoch struct {
	Index      uint64
	MerkleRoot [32]byte
	Total      *big.Int
	CreatedAt  int64
}

type storedRewardsEpoch struct {
	Index      uint64
	MerkleRoot [32]byte
	Total      []byte
	CreatedAt  int64
}

func (e *RewardsEpoch) toStored() *storedRewardsEpoch {
	return &storedRewardsEpoch{Index: e.Index, MerkleRoot: e.MerkleRoot, Total: e.Total.Bytes(), CreatedAt: e.CreatedAt}
}

func (s *storedRewardsEpoch) toEpoch() *RewardsEpoch {
	return &RewardsEpoch{Index: s.Index, MerkleRoot: s.MerkleRoot, Total: new(big.Int).SetBytes(s.Total), CreatedAt: s.CreatedAt}
}

// MerkleStep is one positional proof step, per spec §4.5's chosen convention.
type MerkleStep struct {
	Sibling [32]byte
	IsLeft  bool
}
