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

	"gonum.org/v1/gonum/mat"
)

func vecNorm(v *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		sum += x * x
	}
	return math.Sqrt(sum)
}

func vecAbsMax(v *mat.VecDense) float64 {
	var m float64
	for i := 0; i < v.Len(); i++ {
		if a := math.Abs(v.AtVec(i)); a > m {
			m = a
		}
	}
	return m
}

func vecAbsSum(v *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < v.Len(); i++ {
		sum += math.Abs(v.AtVec(i))
	}
	return sum
}

func countAbove(v *mat.VecDense, threshold float64) int {
	var n int
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) > threshold {
			n++
		}
	}
	return n
}

func cloneVec(v *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	out.CopyVec(v)
	return out
}
