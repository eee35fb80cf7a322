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
	"testing"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/util"
)

func newTestEncoder() *Encoder {
	return New([]byte("client-secret"), &pb.SystemProfile{BoardName: "board", ProductName: "product"}, util.NewDeterministicRandom(1))
}

// Basic RAPPOR, noiseless, max_event_code=100, event_code=42 produces a
// 13-byte observation with exactly one bit set.
func TestEncodeBasicRapporNoiseless(t *testing.T) {
	e := newTestEncoder()
	metric := &config.MetricDefinition{Id: 1, MaxEventCode: 100}
	report := &config.ReportDefinition{Id: 123, ReportType: config.SimpleOccurrenceCount, LocalPrivacyNoiseLevel: config.NoiseNone}
	ref := config.MetricRef{CustomerId: 1, ProjectId: 1, MetricId: 1}

	result, errStatus := e.EncodeBasicRappor(ref, metric, report, 12345, 42)
	if errStatus != nil {
		t.Fatalf("EncodeBasicRappor failed: %v", errStatus)
	}
	data := result.Observation.BasicRappor.Data
	if len(data) != 13 {
		t.Fatalf("got %d bytes, want 13", len(data))
	}
	var bitsSet int
	for _, b := range data {
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				bitsSet++
			}
		}
	}
	if bitsSet != 1 {
		t.Fatalf("got %d bits set, want exactly 1", bitsSet)
	}
	if result.Metadata.MetricId != 1 || result.Metadata.ReportId != 123 || result.Metadata.DayIndex != 12345 {
		t.Fatalf("unexpected metadata: %+v", result.Metadata)
	}
}

func TestEncodeBasicRapporRejectsOutOfRangeIndex(t *testing.T) {
	e := newTestEncoder()
	metric := &config.MetricDefinition{Id: 1, MaxEventCode: 10}
	report := &config.ReportDefinition{LocalPrivacyNoiseLevel: config.NoiseNone}
	ref := config.MetricRef{}

	if _, errStatus := e.EncodeBasicRappor(ref, metric, report, 0, 11); errStatus == nil {
		t.Fatalf("expected InvalidArguments for value_index >= num_categories")
	}
}

func TestEncodeBasicRapporRequiresNoiseLevel(t *testing.T) {
	e := newTestEncoder()
	metric := &config.MetricDefinition{Id: 1, MaxEventCode: 10}
	report := &config.ReportDefinition{LocalPrivacyNoiseLevel: config.NoiseUnset}
	ref := config.MetricRef{}

	if _, errStatus := e.EncodeBasicRappor(ref, metric, report, 0, 1); errStatus == nil {
		t.Fatalf("expected InvalidConfig when noise level unset")
	}
}

func TestEncodeStringRapporNoiselessSetsExpectedBits(t *testing.T) {
	e := newTestEncoder()
	report := &config.ReportDefinition{Id: 1, LocalPrivacyNoiseLevel: config.NoiseNone, ExpectedStringSetSize: 50, ExpectedPopulationSize: 50}
	ref := config.MetricRef{}

	result, errStatus := e.EncodeStringRappor(ref, report, 0, "candidate-5")
	if errStatus != nil {
		t.Fatalf("EncodeStringRappor failed: %v", errStatus)
	}
	if len(result.Observation.Rappor.Data) != 1 { // numBloomBits=8 for set size < 100
		t.Fatalf("got %d bytes, want 1", len(result.Observation.Rappor.Data))
	}
}

func TestEncodeForculusRejectsLowThreshold(t *testing.T) {
	e := newTestEncoder()
	report := &config.ReportDefinition{Threshold: 1}
	ref := config.MetricRef{}
	if _, errStatus := e.EncodeForculus(ref, report, 0, "x"); errStatus == nil {
		t.Fatalf("expected InvalidConfig for threshold < 2")
	}
}

func TestEncodeForculusRoundTripsThroughCipher(t *testing.T) {
	e := newTestEncoder()
	report := &config.ReportDefinition{Threshold: 3}
	ref := config.MetricRef{}
	result, errStatus := e.EncodeForculus(ref, report, 0, "heavy-hitter")
	if errStatus != nil {
		t.Fatalf("EncodeForculus failed: %v", errStatus)
	}
	if len(result.Observation.Forculus.Ciphertext) == 0 {
		t.Fatalf("expected non-empty ciphertext")
	}
}

func TestEncodeIntegerEventHashesComponent(t *testing.T) {
	e := newTestEncoder()
	report := &config.ReportDefinition{Id: 1}
	ref := config.MetricRef{}
	result, errStatus := e.EncodeIntegerEvent(ref, report, 0, 7, "gpu", 42)
	if errStatus != nil {
		t.Fatalf("EncodeIntegerEvent failed: %v", errStatus)
	}
	if len(result.Observation.IntegerEvent.ComponentNameHash) != 32 {
		t.Fatalf("expected 32-byte component hash")
	}

	noComponent, errStatus := e.EncodeIntegerEvent(ref, report, 0, 7, "", 42)
	if errStatus != nil {
		t.Fatalf("EncodeIntegerEvent failed: %v", errStatus)
	}
	if len(noComponent.Observation.IntegerEvent.ComponentNameHash) != 0 {
		t.Fatalf("expected empty component hash for empty component name")
	}
}
