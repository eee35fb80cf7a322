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

import "gonum.org/v1/gonum/mat"

// GradientEvaluator computes the value and gradient of the linear
// regression loss f(x) = (1/2N) * ||A*x - b||^2 over a labeled dataset,
// where A is Instances and b is Labels
// (original_source/util/lossmin/minimizers/gradient-evaluator.{h,cc}).
type GradientEvaluator struct {
	instances           *SparseMatrix
	instancesTransposed *SparseMatrix
	labels              *mat.VecDense
}

// NewGradientEvaluator precomputes the transpose of instances once, as
// the teacher's constructor does, since Gradient needs it on every
// call.
func NewGradientEvaluator(instances *SparseMatrix, labels *mat.VecDense) *GradientEvaluator {
	return &GradientEvaluator{
		instances:           instances,
		instancesTransposed: instances.Transpose(),
		labels:              labels,
	}
}

// NumExamples returns the number of rows (instances) in the dataset.
func (g *GradientEvaluator) NumExamples() int { return g.instances.Rows() }

// NumFeatures returns the number of columns (features).
func (g *GradientEvaluator) NumFeatures() int { return g.instances.Cols() }

// NumWeights is an alias for NumFeatures.
func (g *GradientEvaluator) NumWeights() int { return g.NumFeatures() }

// Instances returns the instance matrix A.
func (g *GradientEvaluator) Instances() *SparseMatrix { return g.instances }

// Labels returns the label vector b.
func (g *GradientEvaluator) Labels() *mat.VecDense { return g.labels }

// Residual returns A*weights - labels.
func (g *GradientEvaluator) Residual(weights *mat.VecDense) *mat.VecDense {
	residual := g.instances.MulVec(weights)
	residual.SubVec(residual, g.labels)
	return residual
}

// Loss returns 0.5 * ||Residual(weights)||^2 / NumExamples.
func (g *GradientEvaluator) Loss(weights *mat.VecDense) float64 {
	residual := g.Residual(weights)
	return 0.5 * squaredNorm(residual) / float64(g.NumExamples())
}

// Gradient computes (1/N) * Aᵀ * (A*weights - labels) into gradient,
// which the caller must size to NumWeights and the teacher requires be
// pre-zeroed.
func (g *GradientEvaluator) Gradient(weights, gradient *mat.VecDense) {
	residual := g.Residual(weights)
	grad := g.instancesTransposed.MulVec(residual)
	grad.ScaleVec(1.0/float64(g.NumExamples()), grad)
	gradient.CopyVec(grad)
}

// PerCoordinateCurvature returns, for each feature j, the average of
// A[:,j]^2 across rows — an upper bound on the loss curvature along
// coordinate j, used to set ParallelBoostingWithMomentum's learning
// rates.
func (g *GradientEvaluator) PerCoordinateCurvature() *mat.VecDense {
	sums := g.instances.ColumnSquaredSums()
	n := float64(g.NumExamples())
	curvature := mat.NewVecDense(len(sums), nil)
	for j, s := range sums {
		curvature.SetVec(j, s/n)
	}
	return curvature
}

// Sparsity returns the maximum row l0 norm across the instance matrix.
func (g *GradientEvaluator) Sparsity() float64 {
	var sparsity int
	for i := 0; i < g.instances.Rows(); i++ {
		if n := g.instances.RowNonZeros(i); n > sparsity {
			sparsity = n
		}
	}
	return float64(sparsity)
}

func squaredNorm(v *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		sum += x * x
	}
	return sum
}
