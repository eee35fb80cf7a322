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

package rappor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/fuchsia-br/cobalt-core/internal/bloom"
)

func noNoiseConfig(numCohorts, numBits, numHashes uint32) Config {
	return Config{NumCohorts: numCohorts, NumBits: numBits, NumHashes: numHashes, P: 0.0, Q: 1.0}
}

// encodeNoNoise builds the Bloom filter bytes a noise-free client
// would report for candidate under cohort, the same bit layout
// EncodeStringRappor writes (data[i/8] bit 7-i%8, bit i set iff one of
// candidate's hashes lands on it).
func encodeNoNoise(candidate string, cohort uint32, cfg Config) []byte {
	trueIndices := bloom.BitIndices([]byte(candidate), cohort, cfg.NumHashes, cfg.NumBits)
	trueBits := make(map[uint32]bool, len(trueIndices))
	for _, idx := range trueIndices {
		trueBits[idx] = true
	}
	numBytes := (cfg.NumBits + 7) / 8
	data := make([]byte, numBytes)
	for i := uint32(0); i < cfg.NumBits; i++ {
		if trueBits[i] {
			data[i/8] |= 1 << (7 - (i % 8))
		}
	}
	return data
}

func TestBuildCandidateMapMatchesBloomBitIndices(t *testing.T) {
	cfg := noNoiseConfig(3, 16, 2)
	candidates := []string{"alpha", "beta"}
	m := BuildCandidateMap(candidates, cfg)

	if m.Rows() != int(cfg.NumCohorts*cfg.NumBits) || m.Cols() != len(candidates) {
		t.Fatalf("got shape %dx%d, want %dx%d", m.Rows(), m.Cols(), cfg.NumCohorts*cfg.NumBits, len(candidates))
	}

	for col, candidate := range candidates {
		for cohort := uint32(0); cohort < cfg.NumCohorts; cohort++ {
			want := make(map[int]bool)
			for _, bit := range bloom.BitIndices([]byte(candidate), cohort, cfg.NumHashes, cfg.NumBits) {
				want[int(cohort)*int(cfg.NumBits)+int(bit)] = true
			}
			got := make(map[int]bool)
			for row := 0; row < m.Rows(); row++ {
				for k := m.RowStart[row]; k < m.RowStart[row+1]; k++ {
					if m.ColIndex[k] == col {
						got[row] = true
					}
				}
			}
			for row := range want {
				if !got[row] {
					t.Errorf("candidate %q cohort %d: row %d missing from candidate matrix", candidate, cohort, row)
				}
			}
		}
	}
}

func TestBloomBitCounterRecoversExactCountsWithoutNoise(t *testing.T) {
	cfg := noNoiseConfig(2, 8, 2)
	bc := NewBloomBitCounter(cfg)

	data := encodeNoNoise("heavy-hitter", 0, cfg)
	for i := 0; i < 10; i++ {
		bc.AddObservation(0, data)
	}

	estimates := bc.EstimateCounts()
	if estimates[0].NumObservations != 10 {
		t.Fatalf("got %d observations, want 10", estimates[0].NumObservations)
	}
	trueIndices := bloom.BitIndices([]byte("heavy-hitter"), 0, cfg.NumHashes, cfg.NumBits)
	trueBits := make(map[uint32]bool, len(trueIndices))
	for _, idx := range trueIndices {
		trueBits[idx] = true
	}
	for bit := uint32(0); bit < cfg.NumBits; bit++ {
		want := 0.0
		if trueBits[bit] {
			want = 10.0
		}
		if got := estimates[0].CountEstimates[bit]; math.Abs(got-want) > 1e-9 {
			t.Errorf("bit %d: got count estimate %v, want %v", bit, got, want)
		}
	}
	// Cohort 1 saw no observations.
	if estimates[1].NumObservations != 0 {
		t.Errorf("got %d observations in untouched cohort, want 0", estimates[1].NumObservations)
	}
}

func TestExtractEstimatedBitCountRatiosDividesByObservations(t *testing.T) {
	cfg := noNoiseConfig(1, 4, 2)
	counts := []CohortCounts{
		{CountEstimates: []float64{5, 0, 5, 0}, StdErrors: []float64{1, 1, 1, 1}, NumObservations: 10},
	}
	labels, stdErrors := ExtractEstimatedBitCountRatiosAndStdErrors(counts, cfg)
	want := []float64{0.5, 0, 0.5, 0}
	for i, w := range want {
		if math.Abs(labels[i]-w) > 1e-9 {
			t.Errorf("labels[%d] = %v, want %v", i, labels[i], w)
		}
		if math.Abs(stdErrors[i]-0.1) > 1e-9 {
			t.Errorf("stdErrors[%d] = %v, want 0.1", i, stdErrors[i])
		}
	}
}

func TestAnalyzeIdentifiesDominantCandidate(t *testing.T) {
	cfg := noNoiseConfig(8, 16, 2)
	candidates := []string{"common-value", "rare-value-a", "rare-value-b", "never-reported"}

	analyzer := NewAnalyzer(cfg)
	numReports := 200
	for i := 0; i < numReports; i++ {
		cohort := uint32(i) % cfg.NumCohorts
		analyzer.AddObservation(cohort, encodeNoNoise("common-value", cohort, cfg))
	}
	for i := 0; i < 5; i++ {
		cohort := uint32(i) % cfg.NumCohorts
		analyzer.AddObservation(cohort, encodeNoNoise("rare-value-a", cohort, cfg))
	}

	rng := rand.New(rand.NewSource(1))
	results, err := analyzer.Analyze(candidates, rng)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(results) != len(candidates) {
		t.Fatalf("got %d results, want %d", len(results), len(candidates))
	}

	common := results[0].CountEstimate
	for i := 1; i < len(results); i++ {
		if common <= results[i].CountEstimate {
			t.Errorf("common-value estimate %v not greater than candidate %d's estimate %v", common, i, results[i].CountEstimate)
		}
	}
	if common < float64(numReports)/2 {
		t.Errorf("common-value estimate %v too low relative to %d reports", common, numReports)
	}
}
