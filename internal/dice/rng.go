package dice

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
)

// RandomSource draws uniform integers in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// DefaultRNG returns a ChaCha8 stream keyed from crypto/rand. It is not safe
// for concurrent use; a Session only draws under its lock.
func DefaultRNG() RandomSource {
	var key [32]byte
	cryptorand.Read(key[:]) // never returns an error
	return rand.New(rand.NewChaCha8(key))
}

// NewSeededRNG returns a reproducible PCG source.
func NewSeededRNG(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Face draws one die face uniformly from [1, sides].
func Face(rng RandomSource, sides int) int {
	return 1 + rng.IntN(sides)
}
