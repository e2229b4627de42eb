package naming

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// Hash names simulations by digesting their parameters together with the
// sweep ID, so IDs are stable across runs of the same sweep and distinct
// between sweeps. Two equal parameter sets inside one sweep share an ID;
// that collision is the intended way to spot duplicate configurations.
type Hash struct {
	// Digits is the number of hex characters kept from the digest.
	// 0 means the default of 8.
	Digits int
}

// NewHash returns a Hash namer with the default ID length.
func NewHash() *Hash {
	return &Hash{}
}

// Start is a no-op; hashing needs no sweep length.
func (h *Hash) Start(int) error { return nil }

// GenerateID digests the canonical form of set, a JSON array of [name, value]
// pairs sorted by name, followed by the sweep ID bytes, and returns the
// leading hex characters.
func (h *Hash) GenerateID(set sweep.Params, sweepID string) (string, error) {
	canonical, err := canonicalParams(set)
	if err != nil {
		return "", fmt.Errorf("hash namer: %w", err)
	}
	digest := sha1.New()
	digest.Write(canonical)
	digest.Write([]byte(sweepID))
	id := hex.EncodeToString(digest.Sum(nil))

	digits := h.Digits
	if digits <= 0 {
		digits = 8
	}
	if digits > len(id) {
		digits = len(id)
	}
	return id[:digits], nil
}

func canonicalParams(set sweep.Params) ([]byte, error) {
	sorted := set.Sorted()
	pairs := make([][2]any, len(sorted))
	for i, p := range sorted {
		pairs[i] = [2]any{p.Name, p.Value}
	}
	return json.Marshal(pairs)
}
