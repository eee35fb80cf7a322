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

// Package shipping implements the worker loop that ships finalized
// envelopes to the upload endpoint on a scheduled cadence, grounded
// on shuffler/src/dispatcher/dispatcher.go's
// Dispatch/dispatchInternal loop shape, adapted from "shuffler sends
// to the analyzer on a volume/age policy" to "client sends to the
// upload endpoint on a scheduled interval".
package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/scheduler"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/store"
)

// Encrypter turns one Envelope into an EncryptedMessage destined for
// the shuffler.
type Encrypter func(envelope *pb.Envelope) (*pb.EncryptedMessage, *status.Status)

// SendStatus records the outcome of the most recent ship attempt, for
// diagnostics/tests.
type SendStatus int

const (
	SendNotAttempted SendStatus = iota
	SendSucceeded
	SendFailedRetryable
	SendFailedFatal
)

// ShippingManager owns the worker loop that periodically takes the
// oldest finalized envelope from the store, encrypts it, and uploads
// it; on a retryable failure the envelope is not returned to the
// store: the manager holds it in memory and merges it with the next
// envelope it takes from the store, so the next attempt ships both.
type ShippingManager struct {
	observationStore *store.FileObservationStore
	scheduler        *scheduler.UploadScheduler
	encrypt          Encrypter
	uploader         Uploader
	deadline         time.Duration

	mu         sync.Mutex
	pending    *store.FileEnvelopeHolder
	lastStatus SendStatus

	expediteCh chan struct{}
	stopCh     chan struct{}
}

// NewShippingManager wires a store, a scheduler, an envelope
// encrypter, and an upload transport together.
func NewShippingManager(observationStore *store.FileObservationStore, sched *scheduler.UploadScheduler, encrypt Encrypter, uploader Uploader, deadline time.Duration) *ShippingManager {
	return &ShippingManager{
		observationStore: observationStore,
		scheduler:        sched,
		encrypt:          encrypt,
		uploader:         uploader,
		deadline:         deadline,
		expediteCh:       make(chan struct{}, 1),
		stopCh:           make(chan struct{}),
	}
}

// NotifyObservationsAdded implements logger.UpdateRecipient: it does
// not itself expedite a send (ShippingManager still honors
// MinInterval), it only lets Run's sleep be interrupted sooner so a
// freshly-full envelope isn't held past min_interval unnecessarily.
func (m *ShippingManager) NotifyObservationsAdded() {
	select {
	case m.expediteCh <- struct{}{}:
	default:
	}
}

// Stop ends the worker loop started by Run.
func (m *ShippingManager) Stop() { close(m.stopCh) }

// Run loops forever (until Stop is called), waiting scheduler.Interval()
// between ship attempts (original_source/encoder/upload_scheduler.cc's
// consumer loop, shuffler/src/dispatcher/dispatcher.go's Dispatch loop).
func (m *ShippingManager) Run() {
	var lastShip time.Time
	for {
		interval := m.scheduler.Interval()
		select {
		case <-m.stopCh:
			return
		case <-m.expediteCh:
		case <-time.After(interval):
		}
		if wait := m.scheduler.MinInterval() - time.Since(lastShip); !lastShip.IsZero() && wait > 0 {
			select {
			case <-m.stopCh:
				return
			case <-time.After(wait):
			}
		}
		lastShip = time.Now()
		m.ShipOne()
	}
}

// ShipOne ships a single envelope if one is available: any
// previously-held (failed-retry) envelope first, merged with anything
// new the store has accumulated since, otherwise the oldest envelope
// the store can hand back. Returns true if an envelope was shipped
// successfully.
func (m *ShippingManager) ShipOne() bool {
	m.mu.Lock()
	holder := m.pending
	m.pending = nil
	m.mu.Unlock()

	next := m.observationStore.TakeNextEnvelopeHolder()
	if holder != nil && next != nil {
		holder.MergeWith(next)
	} else if next != nil {
		holder = next
	}
	if holder == nil {
		m.setStatus(SendNotAttempted)
		return false
	}

	envelope := holder.GetEnvelope()
	encrypted, errStatus := m.encrypt(envelope)
	if errStatus != nil {
		glog.Errorf("failed to encrypt envelope for shipping: %v", errStatus)
		m.retain(holder)
		m.setStatus(SendFailedFatal)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.deadline)
	defer cancel()
	if err := m.uploader.Upload(ctx, encrypted); err != nil {
		if IsRetryable(err) {
			glog.Warningf("retryable upload failure, holding envelope for next attempt: %v", err)
			m.retain(holder)
			m.setStatus(SendFailedRetryable)
		} else {
			glog.Errorf("fatal upload failure, dropping envelope: %v", err)
			holder.Discard()
			m.setStatus(SendFailedFatal)
		}
		return false
	}

	holder.Discard()
	m.setStatus(SendSucceeded)
	return true
}

func (m *ShippingManager) retain(holder *store.FileEnvelopeHolder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.MergeWith(holder)
	} else {
		m.pending = holder
	}
}

func (m *ShippingManager) setStatus(s SendStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastStatus = s
}

// LastSendStatus reports the outcome of the most recent ShipOne call.
func (m *ShippingManager) LastSendStatus() SendStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStatus
}
