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

	"gonum.org/v1/gonum/mat"

	"github.com/fuchsia-br/cobalt-core/lossmin"
)

// Constants used by both RunFirstRapporStep and GetExactValuesAndStdErrs,
// transcribed from original_source/algorithms/rappor/lasso_runner.cc.
// They are meant to be generic; modify with caution.
const (
	zeroThreshold           = 1e-6
	l2ToL1Ratio             = 1e-3
	lossEpochs              = 5
	convergenceEpochs       = 5
	initialAlpha            = 0.5
	minConvergenceThreshold = 1e-12

	// Constants used inside RunFirstRapporStep.
	relativeConvergenceThreshold            = 1e-5
	relativeInLassoPathConvergenceThreshold = 1e-4
	simpleConvergenceThreshold              = 1e-5
	maxEpochs                               = 20000
	numLassoSteps                           = 100
	l1MaxToL1MinRatio                       = 1e-3
	useLinearPath                           = true

	// Constants used inside GetExactValuesAndStdErrs.
	relativeConvergenceThreshold2Step = 1e-6
	simpleConvergenceThreshold2Step   = 1e-6
	numRuns                           = 20
	maxEpochsSingleRun                = 5000
)

// MinimizerData records bookkeeping about RunFirstRapporStep's last
// run, the counterpart of the teacher's MinimizerData struct.
type MinimizerData struct {
	Converged                  bool
	ReachedSolution            bool
	ReachedLastLassoSubproblem bool
	NumEpochsRun               int
	L1, L2                     float64
	ZeroThreshold              float64
	ConvergenceThreshold       float64
}

// LassoRunner runs the two RAPPOR optimization steps over a fixed
// design matrix: a decreasing-l1 lasso path to identify nonzero
// candidates (RunFirstRapporStep), then repeated noise-perturbed
// re-solves to obtain less-biased coefficients and standard errors
// (GetExactValuesAndStdErrs). Both solve
//
//	min ||A*x - b||^2 / (2N) + l1*||x||_1 + l2/2*||x||_2^2
//
// with lossmin.ParallelBoostingWithMomentum
// (original_source/algorithms/rappor/lasso_runner.{h,cc}).
type LassoRunner struct {
	matrix *lossmin.SparseMatrix
	data   MinimizerData
}

// NewLassoRunner builds a LassoRunner over matrix, shared by both
// steps of one RapporAnalyzer.Analyze call.
func NewLassoRunner(matrix *lossmin.SparseMatrix) *LassoRunner {
	return &LassoRunner{matrix: matrix}
}

// MinimizerData returns bookkeeping from the most recent
// RunFirstRapporStep.
func (r *LassoRunner) MinimizerData() MinimizerData { return r.data }

// RunFirstRapporStep computes the lasso path: a sequence of decreasing
// l1 penalties, warm-started from the previous step's solution, until
// the number of nonzero coefficients reaches maxNonzeroCoeffs, the
// solution's 1-norm reaches maxSolution1Norm, or the path is
// exhausted — at which point the final subproblem is re-solved to a
// tighter tolerance. The returned weights hold the lasso path's final
// solution; secondStepCols holds the indices of its nonzero entries.
func (r *LassoRunner) RunFirstRapporStep(maxNonzeroCoeffs int, maxSolution1Norm float64, labels []float64) (weights *mat.VecDense, secondStepCols []int) {
	numCandidates := r.matrix.Cols()
	labelVec := mat.NewVecDense(len(labels), append([]float64(nil), labels...))
	gradEval := lossmin.NewGradientEvaluator(r.matrix, labelVec)
	minimizer := lossmin.NewParallelBoostingWithMomentum(0.0, 0.0, gradEval)

	weights = mat.NewVecDense(numCandidates, nil)
	initialGradient := mat.NewVecDense(numCandidates, nil)
	gradEval.Gradient(weights, initialGradient)

	initialMeanGradientNorm := vecNorm(initialGradient) / float64(numCandidates)
	finalConvergenceThreshold := math.Max(minConvergenceThreshold, relativeConvergenceThreshold*initialMeanGradientNorm)
	inLassoPathConvergenceThreshold := math.Max(minConvergenceThreshold, relativeInLassoPathConvergenceThreshold*initialMeanGradientNorm)

	l1max := vecAbsMax(initialGradient)
	l1min := l1MaxToL1MinRatio * l1max
	l2 := l2ToL1Ratio * l1min
	l1delta := (l1max - l1min) / float64(numLassoSteps)
	l1mult := math.Exp(math.Log(l1MaxToL1MinRatio) / float64(numLassoSteps))

	minimizer.ZeroThreshold = zeroThreshold
	minimizer.ConvergenceThreshold = inLassoPathConvergenceThreshold
	minimizer.SimpleConvergenceThreshold = simpleConvergenceThreshold
	minimizer.L2 = l2
	minimizer.RecomputeLearningRates()

	var lossHistory []float64
	solution1Norm := 0.0
	totalEpochsRun := 0
	howManyNonzeroCoeffs := 0

	l1ThisStep := l1max - l1delta
	if !useLinearPath {
		l1ThisStep = l1max * l1mult
	}

	step := 0
	for ; step < numLassoSteps && totalEpochsRun < maxEpochs; step++ {
		if howManyNonzeroCoeffs >= maxNonzeroCoeffs || step == numLassoSteps-1 || solution1Norm >= maxSolution1Norm {
			minimizer.ConvergenceThreshold = finalConvergenceThreshold
			if step < numLassoSteps-1 {
				if useLinearPath {
					l1ThisStep += l1delta
				} else {
					l1ThisStep /= l1mult
				}
				step = numLassoSteps - 1
			}
		}

		minimizer.L1 = math.Max(l1min, l1ThisStep)
		minimizer.Converged = false
		minimizer.ReachedSolution = false
		minimizer.SetPhiCenter(cloneVec(weights))
		minimizer.SetAlpha(initialAlpha)
		minimizer.SetBeta(1.0 - initialAlpha)

		minimizer.Run(maxEpochs, lossEpochs, convergenceEpochs, weights, &lossHistory)

		solution1Norm = vecAbsSum(weights)
		howManyNonzeroCoeffs = countAbove(weights, zeroThreshold)
		totalEpochsRun += minimizer.NumEpochsRun

		if useLinearPath {
			l1ThisStep -= l1delta
		} else {
			l1ThisStep *= l1mult
		}
	}

	r.data = MinimizerData{
		Converged:                  minimizer.Converged,
		ReachedSolution:            minimizer.ReachedSolution,
		ReachedLastLassoSubproblem: step == numLassoSteps,
		NumEpochsRun:               totalEpochsRun,
		L1:                         minimizer.L1,
		L2:                         minimizer.L2,
		ZeroThreshold:              zeroThreshold,
		ConvergenceThreshold:       finalConvergenceThreshold,
	}

	for i := 0; i < weights.Len(); i++ {
		if weights.AtVec(i) > zeroThreshold {
			secondStepCols = append(secondStepCols, i)
		}
	}
	return weights, secondStepCols
}

// GetExactValuesAndStdErrs solves instances*x = labels (plus the
// LassoRunner's fixed l2-to-l1-ratio penalty at the given l1) numRuns
// times, each time adding independent Gaussian noise with per-row
// standard deviation stdErrs to labels, always warm-started from
// estCandidateWeights. It returns the sample mean of the converged
// runs' solutions (or estCandidateWeights unchanged if none
// converged) and, if at least 5 runs converged, the sample standard
// deviation of each coefficient across those runs (otherwise all
// zero). rng supplies the Gaussian noise; pass a seeded *rand.Rand for
// reproducible tests.
func (r *LassoRunner) GetExactValuesAndStdErrs(l1 float64, estCandidateWeights *mat.VecDense, stdErrs []float64, instances *lossmin.SparseMatrix, labels []float64, rng *rand.Rand) (exactWeights, stdErrors *mat.VecDense) {
	l2 := l2ToL1Ratio * l1
	numCandidates := estCandidateWeights.Len()

	var convergedRuns []*mat.VecDense
	meanWeights := mat.NewVecDense(numCandidates, nil)

	for run := 0; run < numRuns; run++ {
		noisyLabels := make([]float64, len(labels))
		for j, v := range labels {
			noisyLabels[j] = v + rng.NormFloat64()*stdErrs[j]
		}
		labelVec := mat.NewVecDense(len(noisyLabels), noisyLabels)

		candidateWeights := cloneVec(estCandidateWeights)
		gradEval := lossmin.NewGradientEvaluator(instances, labelVec)
		minimizer := lossmin.NewParallelBoostingWithMomentum(l1, l2, gradEval)

		initialGradient := mat.NewVecDense(numCandidates, nil)
		gradEval.Gradient(candidateWeights, initialGradient)
		initialMeanGradientNorm := vecNorm(initialGradient) / float64(numCandidates)
		convergenceThreshold := math.Max(minConvergenceThreshold, relativeConvergenceThreshold2Step*initialMeanGradientNorm)

		minimizer.Converged = false
		minimizer.ReachedSolution = false
		minimizer.SetPhiCenter(cloneVec(candidateWeights))
		minimizer.ConvergenceThreshold = convergenceThreshold
		minimizer.ZeroThreshold = zeroThreshold
		minimizer.SimpleConvergenceThreshold = simpleConvergenceThreshold2Step
		minimizer.SetAlpha(initialAlpha)
		minimizer.SetBeta(1.0 - initialAlpha)

		var lossHistoryNotUsed []float64
		minimizer.Run(maxEpochsSingleRun, lossEpochs, convergenceEpochs, candidateWeights, &lossHistoryNotUsed)

		if minimizer.Converged {
			meanWeights.AddVec(meanWeights, candidateWeights)
			convergedRuns = append(convergedRuns, candidateWeights)
		}
	}

	if len(convergedRuns) > 0 {
		meanWeights.ScaleVec(1.0/float64(len(convergedRuns)), meanWeights)
	} else {
		meanWeights.CopyVec(estCandidateWeights)
	}

	sampleStds := mat.NewVecDense(numCandidates, nil)
	if len(convergedRuns) >= 5 {
		for _, w := range convergedRuns {
			for i := 0; i < numCandidates; i++ {
				d := w.AtVec(i) - meanWeights.AtVec(i)
				sampleStds.SetVec(i, sampleStds.AtVec(i)+d*d)
			}
		}
		n := float64(len(convergedRuns) - 1)
		for i := 0; i < numCandidates; i++ {
			sampleStds.SetVec(i, math.Sqrt(sampleStds.AtVec(i)/n))
		}
	}

	return meanWeights, sampleStds
}
