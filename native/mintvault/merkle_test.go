package mintvault

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provenance-io/hastra-sol-vault/crypto"
)

func testAddr(t *testing.T, b byte) crypto.Address {
	t.Helper()
	raw := make([]byte, 20)
	raw[19] = b
	addr, err := crypto.NewAddress(crypto.VaultPrefix, raw)
	require.NoError(t, err)
	return addr
}

func TestVerifyProofSingleLeafTree(t *testing.T) {
	user := testAddr(t, 1)
	leaf := leafHash(user, 100, 0)
	require.True(t, verifyProof(leaf, leaf, nil))
}

func TestVerifyProofTwoLeafTree(t *testing.T) {
	userA := testAddr(t, 1)
	userB := testAddr(t, 2)
	leafA := leafHash(userA, 100, 0)
	leafB := leafHash(userB, 200, 0)

	var buf [64]byte
	copy(buf[0:32], leafA[:])
	copy(buf[32:64], leafB[:])
	root := sha256.Sum256(buf[:])

	require.True(t, verifyProof(root, leafA, []MerkleStep{{Sibling: leafB, IsLeft: false}}))
	require.True(t, verifyProof(root, leafB, []MerkleStep{{Sibling: leafA, IsLeft: true}}))
}

func TestVerifyProofRejectsWrongSibling(t *testing.T) {
	userA := testAddr(t, 1)
	userB := testAddr(t, 2)
	userC := testAddr(t, 3)
	leafA := leafHash(userA, 100, 0)
	leafB := leafHash(userB, 200, 0)
	leafC := leafHash(userC, 300, 0)

	var buf [64]byte
	copy(buf[0:32], leafA[:])
	copy(buf[32:64], leafB[:])
	root := sha256.Sum256(buf[:])

	require.False(t, verifyProof(root, leafA, []MerkleStep{{Sibling: leafC, IsLeft: false}}))
}

func TestLeafHashDistinguishesEpoch(t *testing.T) {
	user := testAddr(t, 1)
	leafEpoch0 := leafHash(user, 100, 0)
	leafEpoch1 := leafHash(user, 100, 1)
	require.NotEqual(t, leafEpoch0, leafEpoch1)
}
