// Copyright 2017 The Fuchsia Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"sync"
)

// Random is the single random source per component: seeded externally
// for deterministic tests, used by the encoder for random_id, RAPPOR
// noise draws and the Forculus nonce. The analyzer does not use it: it
// takes a *math/rand.Rand for its per-row Gaussian noise in phase 2.
type Random interface {
	// RandomBytes returns num bytes of random data from a uniform
	// distribution, or an error if the underlying entropy source fails.
	RandomBytes(num uint32) ([]byte, error)

	// RandomUint63 returns a uniformly random integer in [0, max). max
	// must be in (0, 2^63).
	RandomUint63(max uint64) (uint64, error)

	// Float64 returns a uniformly random float64 in [0, 1), used to
	// draw RAPPOR noise bits.
	Float64() float64
}

// DeterministicRandom uses a seeded math/rand PRNG, reproducible under
// a fixed seed.
type DeterministicRandom struct {
	mu   sync.RWMutex
	rand *mathrand.Rand
}

// NewDeterministicRandom creates and seeds the deterministic PRNG.
func NewDeterministicRandom(seed int64) *DeterministicRandom {
	return &DeterministicRandom{
		rand: mathrand.New(mathrand.NewSource(seed)),
	}
}

func (r *DeterministicRandom) RandomBytes(num uint32) ([]byte, error) {
	bytes := make([]byte, num)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.rand.Read(bytes)
	return bytes, err
}

func (r *DeterministicRandom) RandomUint63(max uint64) (uint64, error) {
	if max <= 0 || max >= 1<<63 {
		return 0, fmt.Errorf("invalid max value [%v]", max)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(r.rand.Int63n(int64(max))), nil
}

func (r *DeterministicRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// SecureRandom draws from crypto/rand; used outside of tests.
type SecureRandom struct{}

func (r *SecureRandom) RandomBytes(num uint32) ([]byte, error) {
	bytes := make([]byte, num)
	_, err := cryptorand.Read(bytes)
	return bytes, err
}

func (r *SecureRandom) RandomUint63(max uint64) (uint64, error) {
	if max <= 0 || max >= 1<<63 {
		return 0, fmt.Errorf("invalid max value [%v]", max)
	}
	var z big.Int
	z.SetUint64(max)
	nBig, err := cryptorand.Int(cryptorand.Reader, &z)
	if err != nil {
		return 0, err
	}
	return nBig.Uint64(), nil
}

func (r *SecureRandom) Float64() float64 {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / float64(1<<53)
}
