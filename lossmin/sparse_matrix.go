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

// Package lossmin implements the regularized linear regression solver
// the RapporAnalyzer's LASSO path runs at each step: a gradient
// evaluator over a sparse instance matrix, and a parallel-boosting
// minimizer with momentum.
package lossmin

import "gonum.org/v1/gonum/mat"

// SparseMatrix is a minimal CSR sparse matrix, standing in for the
// Eigen::SparseMatrix the instance matrix A is stored as in
// original_source/util/lossmin/eigen-types.h. No sparse-matrix library
// appears anywhere in the retrieved pack (see DESIGN.md), so this
// mirrors Eigen's row-major CSR layout by hand: RowStart has rows+1
// entries, and row i's nonzeros are the half-open
// [RowStart[i], RowStart[i+1]) slice of ColIndex/Values.
type SparseMatrix struct {
	rows, cols int
	RowStart   []int
	ColIndex   []int
	Values     []float64
}

// NewSparseMatrix builds a SparseMatrix from CSR arrays. The caller
// owns rowStart/colIndex/values; they are not copied.
func NewSparseMatrix(rows, cols int, rowStart, colIndex []int, values []float64) *SparseMatrix {
	return &SparseMatrix{rows: rows, cols: cols, RowStart: rowStart, ColIndex: colIndex, Values: values}
}

// Rows returns the number of rows (instances).
func (m *SparseMatrix) Rows() int { return m.rows }

// Cols returns the number of columns (features).
func (m *SparseMatrix) Cols() int { return m.cols }

// RowNonZeros returns the number of nonzero entries in row i, the l0
// norm Eigen's InnerIterator walks in GradientEvaluator::Sparsity().
func (m *SparseMatrix) RowNonZeros(i int) int {
	return m.RowStart[i+1] - m.RowStart[i]
}

// Transpose builds the CSR representation of m's transpose, the same
// precomputation GradientEvaluator's constructor does once up front
// (instances_transposed_) rather than on every gradient call.
func (m *SparseMatrix) Transpose() *SparseMatrix {
	colCounts := make([]int, m.cols+1)
	for _, c := range m.ColIndex {
		colCounts[c+1]++
	}
	for i := 0; i < m.cols; i++ {
		colCounts[i+1] += colCounts[i]
	}
	rowStart := colCounts
	colIndex := make([]int, len(m.ColIndex))
	values := make([]float64, len(m.Values))
	cursor := append([]int(nil), rowStart[:m.cols]...)

	for row := 0; row < m.rows; row++ {
		for k := m.RowStart[row]; k < m.RowStart[row+1]; k++ {
			col := m.ColIndex[k]
			dst := cursor[col]
			colIndex[dst] = row
			values[dst] = m.Values[k]
			cursor[col]++
		}
	}
	return &SparseMatrix{rows: m.cols, cols: m.rows, RowStart: rowStart, ColIndex: colIndex, Values: values}
}

// MulVec computes A*x, matching GradientEvaluator::Residual's
// definition-straight-from-iterators matrix-vector multiply.
func (m *SparseMatrix) MulVec(x *mat.VecDense) *mat.VecDense {
	result := mat.NewVecDense(m.rows, nil)
	for i := 0; i < m.rows; i++ {
		var sum float64
		for k := m.RowStart[i]; k < m.RowStart[i+1]; k++ {
			sum += m.Values[k] * x.AtVec(m.ColIndex[k])
		}
		result.SetVec(i, sum)
	}
	return result
}

// ColumnSquaredSums returns, for each column j, the sum over rows of
// value[i][j]^2, i.e. (1ᵀ (A ⊙ A)) / rows before the division — the
// cwiseProduct GradientEvaluator::PerCoordinateCurvature computes.
func (m *SparseMatrix) ColumnSquaredSums() []float64 {
	sums := make([]float64, m.cols)
	for i := 0; i < m.rows; i++ {
		for k := m.RowStart[i]; k < m.RowStart[i+1]; k++ {
			v := m.Values[k]
			sums[m.ColIndex[k]] += v * v
		}
	}
	return sums
}
