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
	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// EncodeBasicRappor implements coordinatewise randomized response over
// a known category set. num_categories is max_event_code + 1.
func (e *Encoder) EncodeBasicRappor(ref config.MetricRef, metric *config.MetricDefinition, report *config.ReportDefinition, dayIndex uint32, valueIndex uint32) (*Result, *status.Status) {
	if !report.HasNoiseLevel() {
		return nil, status.Errorf(status.InvalidConfig, "report %d has no local_privacy_noise_level", report.Id)
	}
	numCategories := metric.MaxEventCode + 1
	if valueIndex >= numCategories {
		return nil, status.Errorf(status.InvalidArguments, "value_index %d >= num_categories %d", valueIndex, numCategories)
	}

	data, err := e.encodeBasicRapporBits(valueIndex, numCategories, noiseParamsFor(report.LocalPrivacyNoiseLevel))
	if err != nil {
		return nil, status.Errorf(status.Other, "%v", err)
	}

	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId:    randomId,
		BasicRappor: &pb.BasicRapporObservation{Data: data},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}

// encodeBasicRapporBits builds the num_categories-bit vector (packed
// MSB-first into ceil(num_categories/8) bytes) with bit valueIndex true
// and every bit randomized per (p, q): a true bit is reported as 1 with
// probability q, a false bit is reported as 1 with probability p.
func (e *Encoder) encodeBasicRapporBits(valueIndex, numCategories uint32, params noiseParams) ([]byte, error) {
	numBytes := (numCategories + 7) / 8
	data := make([]byte, numBytes)
	for i := uint32(0); i < numCategories; i++ {
		trueBit := i == valueIndex
		var probOne float64
		if trueBit {
			probOne = params.Q
		} else {
			probOne = params.P
		}
		if e.rand.Float64() < probOne {
			data[i/8] |= 1 << (7 - (i % 8))
		}
	}
	return data, nil
}
