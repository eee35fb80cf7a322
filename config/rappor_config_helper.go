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

package config

// RAPPOR parameter tables ported from
// original_source/algorithms/rappor/rappor_config_helper.{h,cc}. The
// original's RapporConfigHelper is linked into both the client encoder
// and the server-side analyzer so the two sides never disagree about
// the noise model or cohort/bit-count heuristics; ProbBitFlip,
// NumCohorts and NumBloomBits play the same shared role here (encoder
// and rappor both import config rather than keeping their own copies).
const (
	tinyNumCohorts    = 5
	smallNumCohorts   = 10
	mediumNumCohorts  = 50
	largeNumCohorts   = 100
	defaultNumCohorts = 50

	tinyNumBloomBits    = 8
	smallNumBloomBits   = 16
	mediumNumBloomBits  = 64
	largeNumBloomBits   = 128
	defaultNumBloomBits = 32

	// StringRapporNumHashes is fixed at 2 for String RAPPOR.
	StringRapporNumHashes = 2
)

// ProbBitFlip returns the (p, q) randomized-response pair for level:
// p = P(report 1 | true 0), q = P(report 1 | true 1) = 1 - p. Used
// identically by Basic RAPPOR and String RAPPOR. prob_rr (permanent
// randomized response) is fixed at 0 throughout.
func ProbBitFlip(level NoiseLevel) (p, q float64) {
	switch level {
	case NoiseNone:
		return 0.00, 1.00
	case NoiseSmall:
		return 0.01, 0.99
	case NoiseMedium:
		return 0.10, 0.90
	case NoiseLarge:
		return 0.25, 0.75
	default:
		return 0.00, 1.00
	}
}

// NumCohorts implements RapporConfigHelper's population-size ->
// num_cohorts heuristic.
func NumCohorts(expectedPopulationSize uint64, isSet bool) uint32 {
	if !isSet {
		return defaultNumCohorts
	}
	switch {
	case expectedPopulationSize < 100:
		return tinyNumCohorts
	case expectedPopulationSize < 1000:
		return smallNumCohorts
	case expectedPopulationSize < 10000:
		return mediumNumCohorts
	default:
		return largeNumCohorts
	}
}

// NumBloomBits implements RapporConfigHelper's string-set-size ->
// num_bloom_bits heuristic.
func NumBloomBits(expectedStringSetSize uint64, isSet bool) uint32 {
	if !isSet {
		return defaultNumBloomBits
	}
	switch {
	case expectedStringSetSize < 100:
		return tinyNumBloomBits
	case expectedStringSetSize < 1000:
		return smallNumBloomBits
	case expectedStringSetSize < 10000:
		return mediumNumBloomBits
	default:
		return largeNumBloomBits
	}
}
