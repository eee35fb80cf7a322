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

package lossmin

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// exactSolutionLoss is the loss below which an initial guess is
// treated as already exact, skipping the run entirely
// (original_source/util/lossmin/minimizers/loss-minimizer.cc's
// hard-coded 1e-12).
const exactSolutionLoss = 1e-12

// Base holds the convergence bookkeeping and regularization parameters
// shared by gradient descent minimizers over a GradientEvaluator,
// mirroring the teacher's LossMinimizer base class' private state.
// ParallelBoostingWithMomentum is the only minimizer the pack's
// original implementation ships, so Base is embedded directly rather
// than accessed through a virtual-dispatch interface.
type Base struct {
	L1, L2 float64

	GradientEvaluator *GradientEvaluator

	Converged       bool
	ReachedSolution bool
	NumEpochsRun    int

	ConvergenceThreshold       float64
	SimpleConvergenceThreshold float64
	NumConvergenceEpochs       int
	ZeroThreshold              float64
}

// NewBase builds a Base with the teacher's documented default
// thresholds (loss-minimizer.h's in-class initializers).
func NewBase(l1, l2 float64, gradientEvaluator *GradientEvaluator) Base {
	return Base{
		L1:                         l1,
		L2:                         l2,
		GradientEvaluator:          gradientEvaluator,
		ConvergenceThreshold:       1e-5,
		SimpleConvergenceThreshold: 1e-5,
		NumConvergenceEpochs:       5,
		ZeroThreshold:              1e-6,
	}
}

// Loss returns gradient_evaluator.Loss(weights) plus l1/l2 penalties,
// the teacher's LossMinimizer::Loss default implementation.
func (b *Base) Loss(weights *mat.VecDense) float64 {
	loss := b.GradientEvaluator.Loss(weights)
	if b.L2 > 0 {
		loss += 0.5 * b.L2 * squaredNorm(weights)
	}
	if b.L1 > 0 {
		loss += b.L1 * absSum(weights)
	}
	return loss
}

// SimpleConvergenceCheck declares convergence once the max relative
// loss decrease over the last NumConvergenceEpochs recorded values
// drops below SimpleConvergenceThreshold.
func (b *Base) SimpleConvergenceCheck(loss []float64) {
	if len(loss) <= b.NumConvergenceEpochs {
		return
	}
	lossDifference := 0.0
	for i := len(loss) - b.NumConvergenceEpochs; i < len(loss); i++ {
		if loss[i-1] > exactSolutionLoss {
			if d := 1 - loss[i]/loss[i-1]; d > lossDifference {
				lossDifference = d
			}
		} else {
			b.ReachedSolution = true
			b.Converged = true
		}
	}
	if lossDifference < b.SimpleConvergenceThreshold {
		b.Converged = true
	}
}

// L1Prox applies soft thresholding: sign(x) * max(0, |x| - threshold).
func L1Prox(x, threshold float64) float64 {
	return sign(x) * math.Max(math.Abs(x)-threshold, 0.0)
}

// L1ProxVec applies L1Prox coefficientwise to weights in place with a
// scalar threshold.
func L1ProxVec(weights *mat.VecDense, threshold float64) {
	for i := 0; i < weights.Len(); i++ {
		weights.SetVec(i, L1Prox(weights.AtVec(i), threshold))
	}
}

// L1ProxVecPerCoordinate applies L1Prox coefficientwise to weights
// using a per-coordinate threshold vector.
func L1ProxVecPerCoordinate(weights, threshold *mat.VecDense) {
	for i := 0; i < weights.Len(); i++ {
		weights.SetVec(i, L1Prox(weights.AtVec(i), threshold.AtVec(i)))
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1.0
	case x < 0:
		return -1.0
	default:
		return 0.0
	}
}

func absSum(v *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < v.Len(); i++ {
		sum += math.Abs(v.AtVec(i))
	}
	return sum
}
