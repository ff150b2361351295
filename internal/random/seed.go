// Package random provides seed and generator helpers.
//
// Seeds come from crypto/rand so that per-game randomness (for example
// turn-order shuffles) cannot be predicted across client processes,
// while engines stay deterministic once seeded.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// NewSeed generates a high-entropy seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewGenerator returns a math/rand generator seeded from crypto/rand.
func NewGenerator() (*mrand.Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return mrand.New(mrand.NewSource(seed)), nil
}
