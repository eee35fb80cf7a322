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

package shipping

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/scheduler"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/store"
)

type fakeUploader struct {
	uploaded [][]byte
	fail     error
}

func (f *fakeUploader) Upload(ctx context.Context, message *pb.EncryptedMessage) error {
	if f.fail != nil {
		return f.fail
	}
	f.uploaded = append(f.uploaded, message.Ciphertext)
	return nil
}

func noopEncrypt(envelope *pb.Envelope) (*pb.EncryptedMessage, *status.Status) {
	return &pb.EncryptedMessage{Ciphertext: []byte("envelope")}, nil
}

func newTestManager(t *testing.T, uploader Uploader) (*ShippingManager, *store.FileObservationStore) {
	t.Helper()
	dir, err := ioutil.TempDir("", "shipping_manager_test")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	s, err := store.NewFileObservationStore(1000, 400, 100000, store.DefaultFileSystem{}, dir)
	if err != nil {
		t.Fatalf("NewFileObservationStore failed: %v", err)
	}
	sched := scheduler.NewSteadyState(time.Hour, time.Second)
	return NewShippingManager(s, sched, noopEncrypt, uploader, 5*time.Second), s
}

func addObservation(t *testing.T, s *store.FileObservationStore) {
	t.Helper()
	message := &pb.EncryptedMessage{Ciphertext: []byte("ciphertext")}
	metadata := &pb.ObservationMetadata{MetricId: 1}
	if errStatus := s.AddEncryptedObservation(message, metadata); errStatus != nil {
		t.Fatalf("AddEncryptedObservation failed: %v", errStatus)
	}
}

func TestShipOneWithNoEnvelopeIsANoop(t *testing.T) {
	m, _ := newTestManager(t, &fakeUploader{})
	if m.ShipOne() {
		t.Fatalf("expected ShipOne to report false when the store is empty")
	}
	if m.LastSendStatus() != SendNotAttempted {
		t.Fatalf("got %v, want SendNotAttempted", m.LastSendStatus())
	}
}

func TestShipOneSucceeds(t *testing.T) {
	uploader := &fakeUploader{}
	m, s := newTestManager(t, uploader)
	addObservation(t, s)
	// Force the active file to finalize so TakeNextEnvelopeHolder sees it.
	s.TakeNextEnvelopeHolder()

	addObservation(t, s)
	if !m.ShipOne() {
		t.Fatalf("expected ShipOne to succeed")
	}
	if len(uploader.uploaded) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploader.uploaded))
	}
	if m.LastSendStatus() != SendSucceeded {
		t.Fatalf("got %v, want SendSucceeded", m.LastSendStatus())
	}
}

func TestShipOneRetriesOnRetryableFailure(t *testing.T) {
	uploader := &fakeUploader{fail: &RetryableError{Err: errors.New("server unavailable")}}
	m, s := newTestManager(t, uploader)
	addObservation(t, s)

	if m.ShipOne() {
		t.Fatalf("expected ShipOne to report false on retryable failure")
	}
	if m.LastSendStatus() != SendFailedRetryable {
		t.Fatalf("got %v, want SendFailedRetryable", m.LastSendStatus())
	}

	// The held envelope should be retried (and merged with anything new)
	// on the next ShipOne call, not lost.
	uploader.fail = nil
	if !m.ShipOne() {
		t.Fatalf("expected the retained envelope to ship successfully on retry")
	}
}

func TestShipOneDropsOnFatalFailure(t *testing.T) {
	uploader := &fakeUploader{fail: errors.New("envelope rejected")}
	m, s := newTestManager(t, uploader)
	addObservation(t, s)

	if m.ShipOne() {
		t.Fatalf("expected ShipOne to report false on fatal failure")
	}
	if m.LastSendStatus() != SendFailedFatal {
		t.Fatalf("got %v, want SendFailedFatal", m.LastSendStatus())
	}

	uploader.fail = nil
	if m.ShipOne() {
		t.Fatalf("expected no envelope left to ship after a fatal failure discarded it")
	}
}
