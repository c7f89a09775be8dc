package mintvault

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/provenance-io/hastra-sol-vault/crypto"
)

// leafHash reconstructs the spec §4.5 leaf: SHA256(user ‖ amount_LE8 ‖
// epoch_index_LE8). The source protocol hashes a 32-byte Ed25519 public key;
// this module's addresses are 20-byte account identifiers, so the address is
// left-padded with zero bytes to 32 to keep the leaf a fixed 48-byte
// pre-image without inventing a second key format.
func leafHash(user crypto.Address, amount uint64, epochIndex uint64) [32]byte {
	var preimage [32 + 8 + 8]byte
	copy(preimage[12:32], user.Bytes())
	binary.LittleEndian.PutUint64(preimage[32:40], amount)
	binary.LittleEndian.PutUint64(preimage[40:48], epochIndex)
	return sha256.Sum256(preimage[:])
}

// verifyProof walks a positional Merkle proof (sibling, is_left) applying
// SHA256(sibling‖node) when is_left and SHA256(node‖sibling) otherwise, per
// the canonical convention spec §4.5 mandates over the sorted-pair
// alternative.
func verifyProof(root [32]byte, leaf [32]byte, proof []MerkleStep) bool {
	node := leaf
	for _, step := range proof {
		var buf [64]byte
		if step.IsLeft {
			copy(buf[0:32], step.Sibling[:])
			copy(buf[32:64], node[:])
		} else {
			copy(buf[0:32], node[:])
			copy(buf[32:64], step.Sibling[:])
		}
		node = sha256.Sum256(buf[:])
	}
	return node == root
}
