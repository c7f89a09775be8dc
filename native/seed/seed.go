// Package seed derives the deterministic storage keys every vault record is
// addressed by. On the host chain this is the program-derived-address (PDA)
// computation; here it is the same keccak256(tag || seeds...) scheme the
// teacher uses for its own derived keys (core/state's
// accountMetadataKey/claimableStorageKey helpers), generalized to an
// arbitrary seed list so each record type gets its own collision-free
// namespace without a central prefix registry.
package seed

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Derive returns the deterministic key for tag addressed by seeds. Each
// record type (mint vault config, redemption request, claim record, stake
// position, unbonding ticket, ...) uses a distinct tag so that two record
// types can never collide even if their seed bytes happen to coincide.
func Derive(tag string, seeds ...[]byte) []byte {
	buf := []byte(tag)
	for _, s := range seeds {
		buf = append(buf, byte(len(s)>>8), byte(len(s)))
		buf = append(buf, s...)
	}
	return ethcrypto.Keccak256(buf)
}

// Uint64Seed encodes n as an 8-byte big-endian seed component, matching the
// fixed-width encoding the teacher uses for epoch/nonce-indexed keys
// (potsoRewardMetaKeyFormat and friends use decimal formatting; this module
// uses fixed-width binary so seed components never need escaping).
func Uint64Seed(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// DeriveAuthority derives a stable, key-less "program authority" address seed
// for a given role name (e.g. "mintvault/mint-authority",
// "stakevault/external-mint-authority"). These derived authorities stand in for the
// host chain's PDA signer capability: no private key exists for them, and
// engine code treats equality against a derived authority as proof that a
// call originated from the expected internal caller rather than an arbitrary
// external signer.
func DeriveAuthority(role string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("authority:" + role))
	var out [20]byte
	copy(out[:], digest[len(digest)-20:])
	return out
}
