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

package ingest

import (
	"errors"
	"testing"

	"github.com/fuchsia-br/cobalt-core/pb"
)

type fakeAnalyzer struct {
	batches []*pb.ObservationBatch
	fail    error
}

func (a *fakeAnalyzer) Analyze(batch *pb.ObservationBatch) error {
	if a.fail != nil {
		return a.fail
	}
	a.batches = append(a.batches, batch)
	return nil
}

func TestDispatchOnceSendsBucketsAtOrAboveThreshold(t *testing.T) {
	buf := newTestBuffer(t)
	buf.AddObservationBatches([]*pb.ObservationBatch{sampleBatch(1, 5)}, 10)

	analyzer := &fakeAnalyzer{}
	policy := DispatchPolicy{Threshold: 3, BatchSize: 2, DisposalAgeDays: 30}
	if errStatus := DispatchOnce(buf, policy, analyzer, 10); errStatus != nil {
		t.Fatalf("DispatchOnce failed: %v", errStatus)
	}

	total := 0
	for _, b := range analyzer.batches {
		total += len(b.EncryptedObservation)
	}
	if total != 5 {
		t.Fatalf("got %d observations analyzed, want 5", total)
	}
	if len(analyzer.batches) != 3 {
		t.Fatalf("got %d batches (batchSize=2 over 5 obs), want 3", len(analyzer.batches))
	}

	remaining, errStatus := buf.GetObservations(&pb.ObservationMetadata{MetricId: 1})
	if errStatus != nil {
		t.Fatalf("GetObservations failed: %v", errStatus)
	}
	if len(remaining) != 0 {
		t.Fatalf("got %d observations left after dispatch, want 0", len(remaining))
	}
}

func TestDispatchOnceLeavesBucketsBelowThreshold(t *testing.T) {
	buf := newTestBuffer(t)
	buf.AddObservationBatches([]*pb.ObservationBatch{sampleBatch(1, 1)}, 10)

	analyzer := &fakeAnalyzer{}
	policy := DispatchPolicy{Threshold: 5, BatchSize: 2, DisposalAgeDays: 30}
	if errStatus := DispatchOnce(buf, policy, analyzer, 10); errStatus != nil {
		t.Fatalf("DispatchOnce failed: %v", errStatus)
	}
	if len(analyzer.batches) != 0 {
		t.Fatalf("got %d batches dispatched, want 0 (below threshold)", len(analyzer.batches))
	}

	remaining, errStatus := buf.GetObservations(&pb.ObservationMetadata{MetricId: 1})
	if errStatus != nil {
		t.Fatalf("GetObservations failed: %v", errStatus)
	}
	if len(remaining) != 1 {
		t.Fatalf("got %d observations left, want 1 (not yet aged out)", len(remaining))
	}
}

func TestDispatchOnceDisposesAgedObservationsBelowThreshold(t *testing.T) {
	buf := newTestBuffer(t)
	buf.AddObservationBatches([]*pb.ObservationBatch{sampleBatch(1, 1)}, 1) // arrival day 1

	analyzer := &fakeAnalyzer{}
	policy := DispatchPolicy{Threshold: 5, BatchSize: 2, DisposalAgeDays: 7}
	// current day index 30: 29 days old, older than disposal age of 7.
	if errStatus := DispatchOnce(buf, policy, analyzer, 30); errStatus != nil {
		t.Fatalf("DispatchOnce failed: %v", errStatus)
	}

	remaining, errStatus := buf.GetObservations(&pb.ObservationMetadata{MetricId: 1})
	if errStatus != nil {
		t.Fatalf("GetObservations failed: %v", errStatus)
	}
	if len(remaining) != 0 {
		t.Fatalf("got %d observations left, want 0 (aged out)", len(remaining))
	}
}

func TestDispatchOnceContinuesAfterAnalyzerFailure(t *testing.T) {
	buf := newTestBuffer(t)
	buf.AddObservationBatches([]*pb.ObservationBatch{sampleBatch(1, 3), sampleBatch(2, 3)}, 10)

	analyzer := &fakeAnalyzer{fail: errors.New("analyzer unavailable")}
	policy := DispatchPolicy{Threshold: 1, BatchSize: 10, DisposalAgeDays: 30}
	if errStatus := DispatchOnce(buf, policy, analyzer, 10); errStatus != nil {
		t.Fatalf("DispatchOnce failed: %v", errStatus)
	}

	// Both buckets should remain, since the analyzer rejected every send
	// and nothing was erased.
	remaining1, _ := buf.GetObservations(&pb.ObservationMetadata{MetricId: 1})
	remaining2, _ := buf.GetObservations(&pb.ObservationMetadata{MetricId: 2})
	if len(remaining1) != 3 || len(remaining2) != 3 {
		t.Fatalf("got %d and %d remaining, want 3 and 3 (nothing erased on failure)", len(remaining1), len(remaining2))
	}
}
