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

// ParallelBoostingWithMomentum implements I. Mukherjee, K. Canini,
// R. Frongillo, and Y. Singer, "Parallel Boosting with Momentum", ECML
// PKDD 2013 (original_source/util/lossmin/minimizers/
// parallel-boosting-with-momentum.{h,cc}). Variable names follow the
// paper, as the teacher's do.
type ParallelBoostingWithMomentum struct {
	Base

	learningRates *mat.VecDense
	phiCenter     *mat.VecDense
	alpha         float64
	beta          float64
}

// NewParallelBoostingWithMomentum builds and sets up a minimizer over
// gradientEvaluator with the given l1/l2 regularization.
func NewParallelBoostingWithMomentum(l1, l2 float64, gradientEvaluator *GradientEvaluator) *ParallelBoostingWithMomentum {
	p := &ParallelBoostingWithMomentum{Base: NewBase(l1, l2, gradientEvaluator)}
	p.Setup()
	return p
}

// Setup sets learning rates and initializes alpha, beta and phiCenter,
// called once at construction and again if the dataset changes.
func (p *ParallelBoostingWithMomentum) Setup() {
	p.computeAndSetLearningRates()
	p.Converged = false
	p.ReachedSolution = false
	p.alpha = 0.5
	p.beta = 1.0 - p.alpha
	p.phiCenter = mat.NewVecDense(p.GradientEvaluator.NumWeights(), nil)
}

// computeAndSetLearningRates sets learningRates[j] = 1 / (sparsity *
// (curvature[j] + l2)), where sparsity is the maximum l0 norm of the
// instance rows, matching compute_and_set_learning_rates exactly.
func (p *ParallelBoostingWithMomentum) computeAndSetLearningRates() {
	sparsity := p.GradientEvaluator.Sparsity()
	curvature := p.GradientEvaluator.PerCoordinateCurvature()
	rates := mat.NewVecDense(curvature.Len(), nil)
	for i := 0; i < curvature.Len(); i++ {
		rates.SetVec(i, 1.0/((curvature.AtVec(i)+p.L2)*sparsity))
	}
	p.learningRates = rates
}

// RecomputeLearningRates recomputes learningRates from the current L2
// and the gradient evaluator's curvature/sparsity. Callers that change
// L2 after construction (e.g. between lasso-path steps) must call this
// before the next EpochUpdate, mirroring
// compute_and_set_learning_rates's re-invocation in lasso_runner.cc.
func (p *ParallelBoostingWithMomentum) RecomputeLearningRates() {
	p.computeAndSetLearningRates()
}

// SetPhiCenter sets phiCenter (v_0 in the paper). Should equal the
// initial weights guess passed to Run, though the implementation does
// not enforce it.
func (p *ParallelBoostingWithMomentum) SetPhiCenter(phi *mat.VecDense) { p.phiCenter = phi }

// SetAlpha resets alpha, e.g. before a fresh Run.
func (p *ParallelBoostingWithMomentum) SetAlpha(alpha float64) { p.alpha = alpha }

// SetBeta resets beta, e.g. before a fresh Run.
func (p *ParallelBoostingWithMomentum) SetBeta(beta float64) { p.beta = beta }

// Loss returns the total loss at weights: GradientEvaluator.Loss plus
// the l2 and l1 penalty terms.
func (p *ParallelBoostingWithMomentum) Loss(weights *mat.VecDense) float64 {
	loss := p.GradientEvaluator.Loss(weights)
	if p.L2 > 0 {
		loss += 0.5 * p.L2 * squaredNorm(weights)
	}
	if p.L1 > 0 {
		loss += p.L1 * absSum(weights)
	}
	return loss
}

// ConvergenceCheck verifies the KKT conditions directly: for
// weights_i > 0, gradient_i should equal -l1; for weights_i < 0,
// gradient_i should equal l1; for weights_i == 0, gradient_i should
// lie in [-l1, l1]. gradient excludes the l1 penalty's own
// contribution. Converges once the Euclidean norm of the violations,
// divided by the number of weights, drops below ConvergenceThreshold.
func (p *ParallelBoostingWithMomentum) ConvergenceCheck(weights, gradient *mat.VecDense) {
	var errorSquared float64
	for i := 0; i < gradient.Len(); i++ {
		w, g := weights.AtVec(i), gradient.AtVec(i)
		var err float64
		switch {
		case w > p.ZeroThreshold:
			err = g + p.L1
		case w < -p.ZeroThreshold:
			err = g - p.L1
		default:
			err = math.Max(math.Abs(g)-p.L1, 0.0)
		}
		errorSquared += err * err
	}
	if math.Sqrt(errorSquared)/float64(weights.Len()) < p.ConvergenceThreshold {
		p.ReachedSolution = true
		p.Converged = true
	}
}

// EpochUpdate runs one iteration: computes the intermediate point y,
// takes a gradient step from y, applies l1 shrinkage, and updates the
// quadratic approximation's center and momentum parameters.
func (p *ParallelBoostingWithMomentum) EpochUpdate(weights *mat.VecDense, epoch int, checkConvergence bool) {
	n := weights.Len()
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y.SetVec(i, (1.0-p.alpha)*weights.AtVec(i)+p.alpha*p.phiCenter.AtVec(i))
	}

	gradientWrtY := mat.NewVecDense(n, nil)
	p.GradientEvaluator.Gradient(y, gradientWrtY)
	if p.L2 > 0 {
		for i := 0; i < n; i++ {
			gradientWrtY.SetVec(i, gradientWrtY.AtVec(i)+p.L2*y.AtVec(i))
		}
	}

	for i := 0; i < n; i++ {
		weights.SetVec(i, weights.AtVec(i)-gradientWrtY.AtVec(i)*p.learningRates.AtVec(i))
	}

	if p.L1 > 0 {
		for i := 0; i < n; i++ {
			weights.SetVec(i, L1Prox(weights.AtVec(i), p.L1*p.learningRates.AtVec(i)))
		}
	}

	for i := 0; i < n; i++ {
		p.phiCenter.SetVec(i, p.phiCenter.AtVec(i)-(1.0-p.alpha)/p.alpha*(y.AtVec(i)-weights.AtVec(i)))
	}
	p.alpha = -p.beta/2.0 + math.Pow(p.beta+p.beta*p.beta/4.0, 0.5)
	p.beta *= 1.0 - p.alpha

	if checkConvergence {
		gradientWrtWeights := mat.NewVecDense(n, nil)
		p.GradientEvaluator.Gradient(weights, gradientWrtWeights)
		if p.L2 > 0 {
			for i := 0; i < n; i++ {
				gradientWrtWeights.SetVec(i, gradientWrtWeights.AtVec(i)+p.L2*weights.AtVec(i))
			}
		}
		p.ConvergenceCheck(weights, gradientWrtWeights)
	}
}

// Run drives the minimizer for up to maxEpochs epochs, recording the
// loss every lossEpochs epochs and checking convergence every
// convergenceEpochs epochs. weights holds the initial guess on entry
// and the final parameters on return. Returns whether the algorithm
// converged (loss-minimizer.cc's LossMinimizer::Run, specialized to
// the one concrete minimizer in the pack rather than dispatched
// through a virtual EpochUpdate).
func (p *ParallelBoostingWithMomentum) Run(maxEpochs, lossEpochs, convergenceEpochs int, weights *mat.VecDense, loss *[]float64) bool {
	if p.Loss(weights) < exactSolutionLoss {
		p.Converged = true
		p.ReachedSolution = true
		return p.Converged
	}

	epoch := 0
	for ; epoch < maxEpochs; epoch++ {
		if epoch%lossEpochs == 0 {
			*loss = append(*loss, p.Loss(weights))
		}

		checkConvergence := epoch > 0 && epoch%convergenceEpochs == 0
		p.EpochUpdate(weights, epoch, checkConvergence)

		if checkConvergence {
			p.SimpleConvergenceCheck(*loss)
		}

		if p.Converged {
			break
		}
	}
	*loss = append(*loss, p.Loss(weights))
	p.NumEpochsRun = min(epoch+1, maxEpochs)
	return p.Converged
}

// RunDefault evaluates the loss and checks convergence at every epoch.
func (p *ParallelBoostingWithMomentum) RunDefault(maxEpochs int, weights *mat.VecDense, loss *[]float64) bool {
	return p.Run(maxEpochs, 1, 1, weights, loss)
}
