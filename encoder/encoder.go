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

// Package encoder converts a single Event into an Observation under one
// Report: Basic RAPPOR, String RAPPOR, Forculus threshold encryption,
// and histogram/integer/custom encodings, governed by per-report noise
// level and population heuristics. Grounded on
// original_source/logger/encoder.cc and
// original_source/algorithms/rappor/rappor_config_helper.cc.
package encoder

import (
	"crypto/sha256"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/util"
)

// randomIdSize is the size in bytes of the per-observation random_id.
const randomIdSize = 8

// Encoder is a pure function of (MetricRef, ReportDefinition,
// day_index, event_payload, client_secret, SystemProfile) and an
// internal RNG used for random_id, RAPPOR noise draws and the Forculus
// nonce. The Forculus share point x is drawn from crypto/rand, not from
// this RNG.
type Encoder struct {
	clientSecret  []byte
	systemProfile *pb.SystemProfile
	rand          util.Random
}

// New builds an Encoder for one client. clientSecret seeds the cohort
// assignment for String RAPPOR (see string_rappor.go); systemProfile is
// the full, unfiltered device profile, filtered per report at encode
// time.
func New(clientSecret []byte, systemProfile *pb.SystemProfile, rand util.Random) *Encoder {
	return &Encoder{clientSecret: clientSecret, systemProfile: systemProfile, rand: rand}
}

// Result pairs an encoded Observation with the metadata that must
// accompany it into the store.
type Result struct {
	Observation *pb.Observation
	Metadata    *pb.ObservationMetadata
}

func (e *Encoder) newRandomId() ([]byte, *status.Status) {
	id, err := e.rand.RandomBytes(randomIdSize)
	if err != nil {
		return nil, status.Errorf(status.Other, "failed to generate random_id: %v", err)
	}
	return id, nil
}

func (e *Encoder) buildMetadata(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32) *pb.ObservationMetadata {
	return &pb.ObservationMetadata{
		CustomerId:    ref.CustomerId,
		ProjectId:     ref.ProjectId,
		MetricId:      ref.MetricId,
		ReportId:      report.Id,
		DayIndex:      dayIndex,
		SystemProfile: e.systemProfile.Filter(systemProfileFields(report)),
	}
}

func systemProfileFields(report *config.ReportDefinition) []pb.SystemProfileField {
	fields := make([]pb.SystemProfileField, 0, len(report.SystemProfileField))
	for _, f := range report.SystemProfileField {
		fields = append(fields, pb.SystemProfileField(f))
	}
	return fields
}

// hashComponentName returns the 32-byte SHA-256 hash of name, or an
// empty byte slice when name is empty, mirroring
// original_source/logger/encoder.cc's HashComponentNameIfNotEmpty.
func hashComponentName(name string) []byte {
	if name == "" {
		return []byte{}
	}
	digest := sha256.Sum256([]byte(name))
	return digest[:]
}

// EncodeIntegerEvent always succeeds.
func (e *Encoder) EncodeIntegerEvent(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32, eventCode uint32, component string, value int64) (*Result, *status.Status) {
	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId: randomId,
		IntegerEvent: &pb.IntegerEventObservation{
			EventCode:         eventCode,
			ComponentNameHash: hashComponentName(component),
			Value:             value,
		},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}

// EncodeHistogram moves buckets into the observation.
func (e *Encoder) EncodeHistogram(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32, eventCode uint32, component string, buckets []*pb.HistogramBucket) (*Result, *status.Status) {
	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId: randomId,
		Histogram: &pb.HistogramObservation{
			EventCode:         eventCode,
			ComponentNameHash: hashComponentName(component),
			Buckets:           buckets,
		},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}

// EncodeCustom copies dimension values into the observation.
func (e *Encoder) EncodeCustom(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32, parts map[string]*pb.CustomValuePart) (*Result, *status.Status) {
	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId: randomId,
		Custom:   &pb.CustomObservation{Parts: parts},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}
