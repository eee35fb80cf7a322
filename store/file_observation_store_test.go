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

package store

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/fuchsia-br/cobalt-core/pb"
)

func newTestStore(t *testing.T, maxPerObs, maxPerEnvelope, maxTotal int64) (*FileObservationStore, string) {
	t.Helper()
	dir, err := ioutil.TempDir("", "file_observation_store_test")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	s, err := NewFileObservationStore(maxPerObs, maxPerEnvelope, maxTotal, DefaultFileSystem{}, dir)
	if err != nil {
		t.Fatalf("NewFileObservationStore failed: %v", err)
	}
	return s, dir
}

func sampleObservation(n int) (*pb.EncryptedMessage, *pb.ObservationMetadata) {
	return &pb.EncryptedMessage{Ciphertext: make([]byte, n)}, &pb.ObservationMetadata{MetricId: 1, ReportId: 1, DayIndex: 1}
}

func TestAddAndTakeEnvelope(t *testing.T) {
	s, _ := newTestStore(t, 1000, 400, 100000)
	message, metadata := sampleObservation(10)
	for i := 0; i < 3; i++ {
		if errStatus := s.AddEncryptedObservation(message, metadata); errStatus != nil {
			t.Fatalf("AddEncryptedObservation failed: %v", errStatus)
		}
	}
	if s.Empty() {
		t.Fatalf("store should not be empty after adding observations")
	}

	holder := s.TakeNextEnvelopeHolder()
	if holder == nil {
		t.Fatalf("expected a non-nil envelope holder after finalizing the active file")
	}
	envelope := holder.GetEnvelope()
	if len(envelope.Batch) != 1 {
		t.Fatalf("got %d batches, want 1 (same metadata)", len(envelope.Batch))
	}
	if len(envelope.Batch[0].EncryptedObservation) != 3 {
		t.Fatalf("got %d observations, want 3", len(envelope.Batch[0].EncryptedObservation))
	}
	holder.Discard()
}

func TestObservationTooBigRejected(t *testing.T) {
	s, _ := newTestStore(t, 5, 400, 100000)
	message, metadata := sampleObservation(20)
	if errStatus := s.AddEncryptedObservation(message, metadata); errStatus == nil {
		t.Fatalf("expected ObservationTooBig error")
	}
}

func TestStoreFullRejected(t *testing.T) {
	s, _ := newTestStore(t, 1000, 1000, 50)
	message, metadata := sampleObservation(40)
	if errStatus := s.AddEncryptedObservation(message, metadata); errStatus != nil {
		t.Fatalf("first add should succeed: %v", errStatus)
	}
	if errStatus := s.AddEncryptedObservation(message, metadata); errStatus == nil {
		t.Fatalf("expected StoreFull on the second add")
	}
}

func TestEnvelopeRollsOverAtMaxBytesPerEnvelope(t *testing.T) {
	s, dir := newTestStore(t, 1000, 100, 100000)
	message, metadata := sampleObservation(80)
	for i := 0; i < 2; i++ {
		if errStatus := s.AddEncryptedObservation(message, metadata); errStatus != nil {
			t.Fatalf("AddEncryptedObservation failed: %v", errStatus)
		}
	}
	files, err := DefaultFileSystem{}.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	foundFinalized := false
	for _, f := range files {
		if finalizedFileRegex.MatchString(f) {
			foundFinalized = true
		}
	}
	if !foundFinalized {
		t.Fatalf("expected at least one finalized file among %v", files)
	}
}

func TestCrashRecoveryFinalizesLeftoverActiveFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "file_observation_store_crash_test")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	s1, err := NewFileObservationStore(1000, 100000, 100000, DefaultFileSystem{}, dir)
	if err != nil {
		t.Fatalf("NewFileObservationStore failed: %v", err)
	}
	message, metadata := sampleObservation(10)
	if errStatus := s1.AddEncryptedObservation(message, metadata); errStatus != nil {
		t.Fatalf("AddEncryptedObservation failed: %v", errStatus)
	}
	// Simulate a crash: no finalize call, just a fresh store pointed at
	// the same directory.
	s2, err := NewFileObservationStore(1000, 100000, 100000, DefaultFileSystem{}, dir)
	if err != nil {
		t.Fatalf("NewFileObservationStore (recovery) failed: %v", err)
	}
	holder := s2.TakeNextEnvelopeHolder()
	if holder == nil {
		t.Fatalf("expected the leftover in_progress.data to be recovered as a finalized file")
	}
	envelope := holder.GetEnvelope()
	if len(envelope.Batch) != 1 || len(envelope.Batch[0].EncryptedObservation) != 1 {
		t.Fatalf("unexpected recovered envelope: %+v", envelope)
	}
}
