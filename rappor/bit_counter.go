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

import "math"

// CohortCounts is one cohort's debiased bit-count estimate, the
// counterpart of BloomBitCounter's per-cohort result
// (original_source/algorithms/rappor/bloom_bit_counter.h is absent
// from the retrieved pack; see DESIGN.md for the standard randomized-
// response debiasing construction used here instead).
type CohortCounts struct {
	// CountEstimates[j] estimates the number of reports in this cohort
	// whose true bit j was 1, debiased for randomized response. Not yet
	// divided by NumObservations; ExtractEstimatedBitCountRatiosAndStdErrors
	// does that division.
	CountEstimates []float64
	// StdErrors[j] is the standard error of CountEstimates[j].
	StdErrors []float64
	// NumObservations is the number of reports folded into this cohort.
	NumObservations uint32
}

// BloomBitCounter accumulates raw per-cohort, per-bit 1-counts from RAPPOR
// reports and debiases them into CohortCounts on demand, playing the
// role bloom_bit_counter.{h,cc} plays for the original RapporAnalyzer.
type BloomBitCounter struct {
	cfg    Config
	ones   [][]uint32 // ones[cohort][bit] = number of reports with bit set
	counts []uint32   // counts[cohort] = number of reports seen
}

// NewBloomBitCounter builds an empty BloomBitCounter for cfg.
func NewBloomBitCounter(cfg Config) *BloomBitCounter {
	ones := make([][]uint32, cfg.NumCohorts)
	for c := range ones {
		ones[c] = make([]uint32, cfg.NumBits)
	}
	return &BloomBitCounter{cfg: cfg, ones: ones, counts: make([]uint32, cfg.NumCohorts)}
}

// AddObservation folds one client's reported Bloom filter into
// cohort's running totals. data is bit-packed MSB-first, bit j at
// data[j/8]>>(7-j%8)&1 — the same layout EncodeStringRappor writes,
// so that a bit index here and in BuildCandidateMap refer to the same
// physical bit without any left/right re-indexing.
func (bc *BloomBitCounter) AddObservation(cohort uint32, data []byte) {
	if cohort >= bc.cfg.NumCohorts {
		return
	}
	bc.counts[cohort]++
	row := bc.ones[cohort]
	for j := uint32(0); j < bc.cfg.NumBits && int(j/8) < len(data); j++ {
		if data[j/8]&(1<<(7-(j%8))) != 0 {
			row[j]++
		}
	}
}

// NumObservations returns the total number of observations folded in
// across all cohorts (RapporAnalyzer uses this to scale the final
// candidate-count estimates back from ratios to absolute counts).
func (bc *BloomBitCounter) NumObservations() uint32 {
	var total uint32
	for _, n := range bc.counts {
		total += n
	}
	return total
}

// EstimateCounts returns one CohortCounts per cohort, debiasing each
// observed 1-count c out of n reports via the standard randomized-
// response inverse ĉ = (c - n*p) / (q - p), the unbiased estimator of
// the true 1-count given p = P(report 1 | true 0), q = P(report 1 |
// true 1) — the construction the absent BloomBitCounter implements
// (DESIGN.md). Its standard error uses the fixed noise parameter p, not
// the observed proportion: se(ĉ) = sqrt(n*p*(1-p)) / (q-p).
func (bc *BloomBitCounter) EstimateCounts() []CohortCounts {
	out := make([]CohortCounts, bc.cfg.NumCohorts)
	denom := bc.cfg.Q - bc.cfg.P
	for c := uint32(0); c < bc.cfg.NumCohorts; c++ {
		n := bc.counts[c]
		estimates := make([]float64, bc.cfg.NumBits)
		stdErrs := make([]float64, bc.cfg.NumBits)
		if n > 0 && denom != 0 {
			nf := float64(n)
			variance := nf * bc.cfg.P * (1 - bc.cfg.P)
			if variance < 0 {
				variance = 0
			}
			stdErr := math.Sqrt(variance) / math.Abs(denom)
			for j := uint32(0); j < bc.cfg.NumBits; j++ {
				count := float64(bc.ones[c][j])
				estimates[j] = (count - nf*bc.cfg.P) / denom
				stdErrs[j] = stdErr
			}
		}
		out[c] = CohortCounts{CountEstimates: estimates, StdErrors: stdErrs, NumObservations: n}
	}
	return out
}

// ExtractEstimatedBitCountRatiosAndStdErrors flattens per-cohort
// CohortCounts into the right-hand side b of Ax=b (length
// num_cohorts*num_bits, stacked cohort-major/bit-minor to match
// BuildCandidateMap's row order): b[cohort*num_bits+bit] is that
// cohort's debiased bit count divided by its number of observations,
// and the matching stdErrors entry is the count's standard error
// divided the same way (rappor_analyzer.cc's
// ExtractEstimatedBitCountRatiosAndStdErrors; see its source comment
// for the justification of dividing by n_i).
func ExtractEstimatedBitCountRatiosAndStdErrors(cohortCounts []CohortCounts, cfg Config) (labels, stdErrors []float64) {
	rows := int(cfg.NumCohorts) * int(cfg.NumBits)
	labels = make([]float64, rows)
	stdErrors = make([]float64, rows)
	for cohort, cc := range cohortCounts {
		n := float64(cc.NumObservations)
		if n == 0 {
			continue
		}
		for bit := 0; bit < int(cfg.NumBits) && bit < len(cc.CountEstimates); bit++ {
			row := cohort*int(cfg.NumBits) + bit
			labels[row] = cc.CountEstimates[bit] / n
			stdErrors[row] = cc.StdErrors[bit] / n
		}
	}
	return labels, stdErrors
}
