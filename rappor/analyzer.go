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
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// CandidateResult is a single candidate's RAPPOR analysis result
// (original_source/algorithms/rappor/rappor_analyzer.h's
// CandidateResult).
type CandidateResult struct {
	CountEstimate float64
	StdError      float64
}

// Parameters controlling how many candidates RunFirstRapporStep is
// allowed to carry into the second step, transcribed from
// rappor_analyzer.cc's Analyze().
const (
	maxNonzeroCoefficients      = 500
	columns2RowsRatioSecondStep = 0.7
	maxSolution1NormFirstStep   = 0.9
	l1FirstToSecondStepRatio    = 1e-3
)

// Analyzer performs a single String RAPPOR analysis: it accumulates
// reports via AddObservation, then Analyze runs the two-step lasso
// procedure against a candidate string list and estimates each
// candidate's share of the population
// (original_source/algorithms/rappor/rappor_analyzer.{h,cc}).
type Analyzer struct {
	cfg             Config
	bloomBitCounter *BloomBitCounter
}

// NewAnalyzer builds an Analyzer for cfg, the same RAPPOR parameters
// the client used to encode the observations it will be given.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg, bloomBitCounter: NewBloomBitCounter(cfg)}
}

// AddObservation folds one client report into the analysis. data is
// the Bloom filter bytes from a RapporObservation, matching
// EncodeStringRappor's output layout.
func (a *Analyzer) AddObservation(cohort uint32, data []byte) {
	a.bloomBitCounter.AddObservation(cohort, data)
}

// BloomBitCounter exposes the underlying BloomBitCounter, e.g. to inspect
// per-cohort observation counts (RapporAnalyzer::bit_counter()).
func (a *Analyzer) BloomBitCounter() *BloomBitCounter { return a.bloomBitCounter }

// Analyze runs the RAPPOR analysis against candidates and returns one
// CandidateResult per candidate, in the same order. rng supplies the
// Gaussian noise GetExactValuesAndStdErrs uses in its Monte Carlo
// standard-error estimation; pass a seeded *rand.Rand for
// reproducible tests. An error return means the lasso computation
// failed to converge or to reach its final subproblem within its
// epoch budget; the partial results are still returned alongside it.
func (a *Analyzer) Analyze(candidates []string, rng *rand.Rand) ([]CandidateResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("rappor: cannot analyze with an empty candidate list")
	}

	candidateMatrix := BuildCandidateMap(candidates, a.cfg)
	labels, stdErrors := ExtractEstimatedBitCountRatiosAndStdErrors(a.bloomBitCounter.EstimateCounts(), a.cfg)

	lassoRunner := NewLassoRunner(candidateMatrix)

	numCandidates := len(candidates)
	numRows := int(a.cfg.NumCohorts) * int(a.cfg.NumBits)
	maxNonzero := numCandidates
	if byRows := int(columns2RowsRatioSecondStep * float64(numRows)); byRows < maxNonzero {
		maxNonzero = byRows
	}
	if maxNonzeroCoefficients < maxNonzero {
		maxNonzero = maxNonzeroCoefficients
	}

	weights, secondStepCols := lassoRunner.RunFirstRapporStep(maxNonzero, maxSolution1NormFirstStep, labels)

	results := make([]CandidateResult, numCandidates)
	if len(secondStepCols) == 0 {
		return results, firstStepError(lassoRunner.MinimizerData())
	}

	subMatrix := PrepareSecondStepMatrix(candidateMatrix, secondStepCols)
	secondStepInitialGuess := mat.NewVecDense(len(secondStepCols), nil)
	for i, col := range secondStepCols {
		secondStepInitialGuess.SetVec(i, weights.AtVec(col))
	}

	l1Second := l1FirstToSecondStepRatio * lassoRunner.MinimizerData().L1
	exactWeights, stdErrorsSecondStep := lassoRunner.GetExactValuesAndStdErrs(
		l1Second, secondStepInitialGuess, stdErrors, subMatrix, labels, rng)

	numObservations := float64(a.bloomBitCounter.NumObservations())
	for i, col := range secondStepCols {
		results[col] = CandidateResult{
			CountEstimate: exactWeights.AtVec(i) * numObservations,
			StdError:      stdErrorsSecondStep.AtVec(i) * numObservations,
		}
	}

	return results, firstStepError(lassoRunner.MinimizerData())
}

func firstStepError(data MinimizerData) error {
	if !data.Converged {
		return fmt.Errorf("rappor: the last lasso subproblem did not converge")
	}
	if !data.ReachedLastLassoSubproblem {
		return fmt.Errorf("rappor: the lasso path did not reach the last subproblem")
	}
	return nil
}
