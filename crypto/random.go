// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	cryptorand "crypto/rand"
	mathrand "math/rand"
)

// RandomSource supplies cryptographically random bytes to the codec. It is
// injected explicitly, never read from a package-level default, so tests can
// substitute a deterministic source instead of the OS CSPRNG.
type RandomSource interface {
	Read(p []byte) (n int, err error)
}

// SystemRandom is the production [RandomSource], backed by crypto/rand.
type SystemRandom struct{}

// Read implements [RandomSource].
func (SystemRandom) Read(p []byte) (int, error) {
	return cryptorand.Read(p)
}

// DeterministicRandom is a [RandomSource] for tests. It is seeded explicitly
// and produces a reproducible byte stream, so that test vectors (IVs,
// nonces, item keys) are stable across runs.
type DeterministicRandom struct {
	r *mathrand.Rand
}

// NewDeterministicRandom returns a [DeterministicRandom] seeded with seed.
func NewDeterministicRandom(seed int64) *DeterministicRandom {
	return &DeterministicRandom{r: mathrand.New(mathrand.NewSource(seed))}
}

// Read implements [RandomSource].
func (d *DeterministicRandom) Read(p []byte) (int, error) {
	return d.r.Read(p)
}
