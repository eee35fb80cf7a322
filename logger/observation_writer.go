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

// Package logger dispatches one client Event to every Report configured
// for its Metric: encode, encrypt, and enqueue an Observation per
// report. Grounded on original_source/logger/logger.h and
// observation_writer.cc.
package logger

import (
	"github.com/golang/glog"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// ObservationStoreWriter is the capability an ObservationWriter enqueues
// encrypted observations into; FileObservationStore implements it.
type ObservationStoreWriter interface {
	AddEncryptedObservation(message *pb.EncryptedMessage, metadata *pb.ObservationMetadata) *status.Status
}

// UpdateRecipient is notified every time a new observation is added to
// the store, so a ShippingManager can wake up early.
type UpdateRecipient interface {
	NotifyObservationsAdded()
}

// ObservationWriter encrypts one Observation and hands it to the store,
// then notifies the recipient (original_source/logger/observation_writer.cc).
type ObservationWriter struct {
	encrypter func(observation *pb.Observation) (*pb.EncryptedMessage, *status.Status)
	store     ObservationStoreWriter
	recipient UpdateRecipient
}

// NewObservationWriter wires an encryption function, a store and an
// update recipient together. encrypt is a function rather than an
// interface so any EncryptedMessageMaker-shaped capability can be
// supplied without an adapter type.
func NewObservationWriter(encrypt func(*pb.Observation) (*pb.EncryptedMessage, *status.Status), store ObservationStoreWriter, recipient UpdateRecipient) *ObservationWriter {
	return &ObservationWriter{encrypter: encrypt, store: store, recipient: recipient}
}

// WriteObservation encrypts observation, appends it (with metadata) to
// the store, and notifies the recipient. Every failure collapses to
// status.Other, matching original_source/logger/observation_writer.cc.
func (w *ObservationWriter) WriteObservation(observation *pb.Observation, metadata *pb.ObservationMetadata) *status.Status {
	encrypted, errStatus := w.encrypter(observation)
	if errStatus != nil {
		glog.Error("Encryption of an Observation failed: ", errStatus)
		return status.Errorf(status.Other, "encryption failed: %v", errStatus)
	}
	if errStatus := w.store.AddEncryptedObservation(encrypted, metadata); errStatus != nil {
		glog.Error("AddEncryptedObservation failed: ", errStatus)
		return status.Errorf(status.Other, "store append failed: %v", errStatus)
	}
	w.recipient.NotifyObservationsAdded()
	return nil
}
