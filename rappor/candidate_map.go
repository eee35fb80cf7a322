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
	"github.com/fuchsia-br/cobalt-core/internal/bloom"
	"github.com/fuchsia-br/cobalt-core/lossmin"
)

// BuildCandidateMap builds the (num_cohorts*num_bits) x len(candidates)
// binary design matrix A: row cohort*num_bits+bit, column i is 1 iff
// one of candidates[i]'s num_hashes hash functions maps it to bit
// within cohort (original_source/algorithms/rappor/rappor_analyzer.cc's
// BuildCandidateMap). The original indexes candidate-map bits "from
// the right" and then reverses them ("from the left") when scattering
// into candidate_matrix_, specifically so that row index lines up with
// the client's Bloom-filter byte layout; here bloom.BitIndices already
// returns indices in the client's own byte layout (see its doc
// comment), so no reversal step is needed — the two reversals in the
// original cancel out once client and analyzer share one hashing
// function.
func BuildCandidateMap(candidates []string, cfg Config) *lossmin.SparseMatrix {
	rows := int(cfg.NumCohorts) * int(cfg.NumBits)
	cols := len(candidates)

	colRows := make([][]int, cols)
	for i, candidate := range candidates {
		seen := make(map[int]bool)
		for cohort := uint32(0); cohort < cfg.NumCohorts; cohort++ {
			bits := bloom.BitIndices([]byte(candidate), cohort, cfg.NumHashes, cfg.NumBits)
			for _, bit := range bits {
				row := int(cohort)*int(cfg.NumBits) + int(bit)
				if !seen[row] {
					seen[row] = true
					colRows[i] = append(colRows[i], row)
				}
			}
		}
	}

	rowStart := make([]int, rows+1)
	for _, rs := range colRows {
		for _, row := range rs {
			rowStart[row+1]++
		}
	}
	for r := 0; r < rows; r++ {
		rowStart[r+1] += rowStart[r]
	}
	colIndex := make([]int, rowStart[rows])
	values := make([]float64, rowStart[rows])
	cursor := append([]int(nil), rowStart[:rows]...)
	for col, rs := range colRows {
		for _, row := range rs {
			dst := cursor[row]
			colIndex[dst] = col
			values[dst] = 1.0
			cursor[row]++
		}
	}
	return lossmin.NewSparseMatrix(rows, cols, rowStart, colIndex, values)
}

// PrepareSecondStepMatrix selects the columns in cols (in order) out
// of the full candidate matrix m, building the submatrix the second
// RAPPOR step regresses the Gaussian-perturbed labels against over
// only the first step's significant candidates
// (original_source/algorithms/rappor/rappor_analyzer_utils.{h,cc}'s
// PrepareSecondRapporStepMatrix).
func PrepareSecondStepMatrix(m *lossmin.SparseMatrix, cols []int) *lossmin.SparseMatrix {
	newColOf := make(map[int]int, len(cols))
	for newCol, oldCol := range cols {
		newColOf[oldCol] = newCol
	}

	rowStart := make([]int, m.Rows()+1)
	var colIndex []int
	var values []float64
	for row := 0; row < m.Rows(); row++ {
		rowStart[row] = len(colIndex)
		for k := m.RowStart[row]; k < m.RowStart[row+1]; k++ {
			if newCol, ok := newColOf[m.ColIndex[k]]; ok {
				colIndex = append(colIndex, newCol)
				values = append(values, m.Values[k])
			}
		}
	}
	rowStart[m.Rows()] = len(colIndex)
	return lossmin.NewSparseMatrix(m.Rows(), len(cols), rowStart, colIndex, values)
}
