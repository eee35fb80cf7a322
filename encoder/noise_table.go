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

package encoder

import "github.com/fuchsia-br/cobalt-core/config"

// noiseParams is the (p, q) randomized-response pair for one noise
// level, used identically by Basic RAPPOR and String RAPPOR. The table
// itself lives in config so the rappor analyzer can invert the exact
// same noise model the encoder applied
// (original_source/algorithms/rappor/rappor_config_helper.{h,cc} is
// likewise linked into both the client and the server).
type noiseParams struct {
	P float64 // prob(0 -> 1)
	Q float64 // prob(1 -> 1)
}

// noiseParamsFor returns the (p, q) pair for level.
func noiseParamsFor(level config.NoiseLevel) noiseParams {
	p, q := config.ProbBitFlip(level)
	return noiseParams{P: p, Q: q}
}

// stringRapporNumHashes is fixed at 2 for String RAPPOR.
const stringRapporNumHashes = config.StringRapporNumHashes

// numCohortsFor implements RapporConfigHelper's population-size ->
// num_cohorts heuristic.
func numCohortsFor(expectedPopulationSize uint64, isSet bool) uint32 {
	return config.NumCohorts(expectedPopulationSize, isSet)
}

// numBloomBitsFor implements RapporConfigHelper's string-set-size ->
// num_bloom_bits heuristic.
func numBloomBitsFor(expectedStringSetSize uint64, isSet bool) uint32 {
	return config.NumBloomBits(expectedStringSetSize, isSet)
}
