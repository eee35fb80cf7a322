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

package pb

import "github.com/golang/protobuf/proto"

// ObservationBatch is a set of EncryptedMessages sharing one
// ObservationMetadata.
type ObservationBatch struct {
	MetaData             *ObservationMetadata `protobuf:"bytes,1,opt,name=meta_data,json=metaData,proto3" json:"meta_data,omitempty"`
	EncryptedObservation []*EncryptedMessage  `protobuf:"bytes,2,rep,name=encrypted_observation,json=encryptedObservation,proto3" json:"encrypted_observation,omitempty"`
}

func (m *ObservationBatch) Reset()         { *m = ObservationBatch{} }
func (m *ObservationBatch) String() string { return proto.CompactTextString(m) }
func (*ObservationBatch) ProtoMessage()    {}

// Envelope is the sequence of batches shipped in a single upload.
type Envelope struct {
	Batch []*ObservationBatch `protobuf:"bytes,1,rep,name=batch,proto3" json:"batch,omitempty"`
}

func (m *Envelope) Reset()         { *m = Envelope{} }
func (m *Envelope) String() string { return proto.CompactTextString(m) }
func (*Envelope) ProtoMessage()    {}

// ObservationStoreRecord is the on-disk record type FileObservationStore
// appends to its active file: either a metadata record (written once,
// whenever the metadata differs from the last record written) or an
// encrypted observation record, length-delimited on disk. Exactly one
// of the two fields is set.
type ObservationStoreRecord struct {
	MetaData             *ObservationMetadata `protobuf:"bytes,1,opt,name=meta_data,json=metaData,proto3" json:"meta_data,omitempty"`
	EncryptedObservation *EncryptedMessage    `protobuf:"bytes,2,opt,name=encrypted_observation,json=encryptedObservation,proto3" json:"encrypted_observation,omitempty"`
}

func (m *ObservationStoreRecord) Reset()         { *m = ObservationStoreRecord{} }
func (m *ObservationStoreRecord) String() string { return proto.CompactTextString(m) }
func (*ObservationStoreRecord) ProtoMessage()    {}

// IngestRecord is the leveldb value type the ingest buffer stores per
// observation: the still-encrypted ciphertext plus bookkeeping needed
// to dispatch and age it out.
type IngestRecord struct {
	EncryptedObservation *EncryptedMessage `protobuf:"bytes,1,opt,name=encrypted_observation,json=encryptedObservation,proto3" json:"encrypted_observation,omitempty"`
	Id                   string            `protobuf:"bytes,2,opt,name=id,proto3" json:"id,omitempty"`
	ArrivalDayIndex      uint32            `protobuf:"varint,3,opt,name=arrival_day_index,json=arrivalDayIndex,proto3" json:"arrival_day_index,omitempty"`
}

func (m *IngestRecord) Reset()         { *m = IngestRecord{} }
func (m *IngestRecord) String() string { return proto.CompactTextString(m) }
func (*IngestRecord) ProtoMessage()    {}
