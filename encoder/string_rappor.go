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

package encoder

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/internal/bloom"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// cohortFor deterministically assigns this client to one of numCohorts
// cohorts from its client_secret, so repeated encodes by the same
// client land in the same cohort.
func (e *Encoder) cohortFor(numCohorts uint32) uint32 {
	if numCohorts == 0 {
		return 0
	}
	digest := sha256.Sum256(e.clientSecret)
	v := binary.BigEndian.Uint32(digest[:4])
	return v % numCohorts
}

// EncodeStringRappor implements Bloom-filter + cohort + RAPPOR encoding
// of an unbounded string set.
func (e *Encoder) EncodeStringRappor(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32, str string) (*Result, *status.Status) {
	if !report.HasNoiseLevel() {
		return nil, status.Errorf(status.InvalidConfig, "report %d has no local_privacy_noise_level", report.Id)
	}
	numCohorts := numCohortsFor(report.ExpectedPopulationSize, report.ExpectedPopulationSize != 0)
	numBits := numBloomBitsFor(report.ExpectedStringSetSize, report.ExpectedStringSetSize != 0)
	params := noiseParamsFor(report.LocalPrivacyNoiseLevel)

	cohort := e.cohortFor(numCohorts)
	trueIndices := bloom.BitIndices([]byte(str), cohort, stringRapporNumHashes, numBits)
	trueBits := make(map[uint32]bool, len(trueIndices))
	for _, idx := range trueIndices {
		trueBits[idx] = true
	}

	numBytes := (numBits + 7) / 8
	data := make([]byte, numBytes)
	for i := uint32(0); i < numBits; i++ {
		var probOne float64
		if trueBits[i] {
			probOne = params.Q
		} else {
			probOne = params.P
		}
		if e.rand.Float64() < probOne {
			data[i/8] |= 1 << (7 - (i % 8))
		}
	}

	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId: randomId,
		Rappor:   &pb.RapporObservation{Cohort: cohort, Data: data},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}
