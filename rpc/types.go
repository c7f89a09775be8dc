package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/provenance-io/hastra-sol-vault/crypto"
	"github.com/provenance-io/hastra-sol-vault/native/tokenledger"
)

// ensureHexPrefix normalizes a hex-encoded string to carry a leading 0x,
// matching the wire convention the teacher's rpc/types.go uses for every
// byte-string field.
func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}

func trimHexPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
}

// parseAddress decodes a bech32 address string (either the "vlt" user prefix
// or the "vltp" derived-authority prefix).
func parseAddress(s string) (crypto.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return crypto.Address{}, fmt.Errorf("address required")
	}
	return crypto.DecodeAddress(s)
}

func parseAddressList(list []string) ([]crypto.Address, error) {
	out := make([]crypto.Address, 0, len(list))
	for _, s := range list {
		addr, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// parseAmount decodes a base-10 decimal string into a *big.Int, the wire
// convention for every token quantity (amounts can exceed float64/JSON-number
// precision, so they travel as strings).
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func formatAmount(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// parseMintID decodes a hex-encoded 32-byte mint identifier.
func parseMintID(s string) (tokenledger.MintID, error) {
	var id tokenledger.MintID
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return id, fmt.Errorf("invalid mint id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("mint id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func formatMintID(id tokenledger.MintID) string {
	return ensureHexPrefix(hex.EncodeToString(id[:]))
}

// parseRoot decodes a hex-encoded 32-byte Merkle root.
func parseRoot(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return out, fmt.Errorf("invalid merkle root: %w", err)
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("merkle root must be %d bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}

// merkleStepParam is the wire form of mintvault.MerkleStep.
type merkleStepParam struct {
	Sibling string `json:"sibling"`
	IsLeft  bool   `json:"isLeft"`
}
