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

// BasicRapporObservation is the encoded output of Basic RAPPOR: one bit
// per category, randomized per the configured noise level.
type BasicRapporObservation struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *BasicRapporObservation) Reset()         { *m = BasicRapporObservation{} }
func (m *BasicRapporObservation) String() string { return proto.CompactTextString(m) }
func (*BasicRapporObservation) ProtoMessage()    {}

// RapporObservation is the encoded output of String RAPPOR: a Bloom
// filter drawn from one of the client's assigned cohorts.
type RapporObservation struct {
	Cohort uint32 `protobuf:"varint,1,opt,name=cohort,proto3" json:"cohort,omitempty"`
	Data   []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *RapporObservation) Reset()         { *m = RapporObservation{} }
func (m *RapporObservation) String() string { return proto.CompactTextString(m) }
func (*RapporObservation) ProtoMessage()    {}

// ForculusObservation carries a Forculus-encrypted ciphertext; the
// plaintext is recoverable by the analyzer only once at least
// threshold distinct clients submit the same plaintext (GLOSSARY).
type ForculusObservation struct {
	Ciphertext         []byte `protobuf:"bytes,1,opt,name=ciphertext,proto3" json:"ciphertext,omitempty"`
	PointX             []byte `protobuf:"bytes,2,opt,name=point_x,json=pointX,proto3" json:"point_x,omitempty"`
	PointY             []byte `protobuf:"bytes,3,opt,name=point_y,json=pointY,proto3" json:"point_y,omitempty"`
	ThresholdCiphertext []byte `protobuf:"bytes,4,opt,name=threshold_ciphertext,json=thresholdCiphertext,proto3" json:"threshold_ciphertext,omitempty"`
}

func (m *ForculusObservation) Reset()         { *m = ForculusObservation{} }
func (m *ForculusObservation) String() string { return proto.CompactTextString(m) }
func (*ForculusObservation) ProtoMessage()    {}

// IntegerEventObservation carries one occurrence of an EventCount-style
// metric.
type IntegerEventObservation struct {
	EventCode         uint32 `protobuf:"varint,1,opt,name=event_code,json=eventCode,proto3" json:"event_code,omitempty"`
	ComponentNameHash []byte `protobuf:"bytes,2,opt,name=component_name_hash,json=componentNameHash,proto3" json:"component_name_hash,omitempty"`
	Value             int64  `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *IntegerEventObservation) Reset()         { *m = IntegerEventObservation{} }
func (m *IntegerEventObservation) String() string { return proto.CompactTextString(m) }
func (*IntegerEventObservation) ProtoMessage()    {}

// HistogramBucket is one (index, count) pair of a histogram observation.
type HistogramBucket struct {
	Index uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Count uint64 `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
}

func (m *HistogramBucket) Reset()         { *m = HistogramBucket{} }
func (m *HistogramBucket) String() string { return proto.CompactTextString(m) }
func (*HistogramBucket) ProtoMessage()    {}

// HistogramObservation carries a full distribution for one event code.
type HistogramObservation struct {
	EventCode         uint32             `protobuf:"varint,1,opt,name=event_code,json=eventCode,proto3" json:"event_code,omitempty"`
	ComponentNameHash []byte             `protobuf:"bytes,2,opt,name=component_name_hash,json=componentNameHash,proto3" json:"component_name_hash,omitempty"`
	Buckets           []*HistogramBucket `protobuf:"bytes,3,rep,name=buckets,proto3" json:"buckets,omitempty"`
}

func (m *HistogramObservation) Reset()         { *m = HistogramObservation{} }
func (m *HistogramObservation) String() string { return proto.CompactTextString(m) }
func (*HistogramObservation) ProtoMessage()    {}

// CustomObservation carries a flat map of named, typed dimension values
// for CustomRawDump-style reports.
type CustomObservation struct {
	Parts map[string]*CustomValuePart `protobuf:"bytes,1,rep,name=parts,proto3" json:"parts,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *CustomObservation) Reset()         { *m = CustomObservation{} }
func (m *CustomObservation) String() string { return proto.CompactTextString(m) }
func (*CustomObservation) ProtoMessage()    {}

// CustomValuePart is one dimension of a CustomObservation: exactly one
// of the fields below is set.
type CustomValuePart struct {
	StringValue string  `protobuf:"bytes,1,opt,name=string_value,json=stringValue,proto3" json:"string_value,omitempty"`
	IntValue    int64   `protobuf:"varint,2,opt,name=int_value,json=intValue,proto3" json:"int_value,omitempty"`
	DoubleValue float64 `protobuf:"fixed64,3,opt,name=double_value,json=doubleValue,proto3" json:"double_value,omitempty"`
	IndexValue  uint32  `protobuf:"varint,4,opt,name=index_value,json=indexValue,proto3" json:"index_value,omitempty"`
}

func (m *CustomValuePart) Reset()         { *m = CustomValuePart{} }
func (m *CustomValuePart) String() string { return proto.CompactTextString(m) }
func (*CustomValuePart) ProtoMessage()    {}

// Observation is a tagged variant carrying exactly one encoded payload
// plus a random_id generated fresh per observation.
type Observation struct {
	RandomId     []byte                    `protobuf:"bytes,1,opt,name=random_id,json=randomId,proto3" json:"random_id,omitempty"`
	BasicRappor  *BasicRapporObservation   `protobuf:"bytes,2,opt,name=basic_rappor,json=basicRappor,proto3" json:"basic_rappor,omitempty"`
	Rappor       *RapporObservation        `protobuf:"bytes,3,opt,name=rappor,proto3" json:"rappor,omitempty"`
	Forculus     *ForculusObservation      `protobuf:"bytes,4,opt,name=forculus,proto3" json:"forculus,omitempty"`
	IntegerEvent *IntegerEventObservation  `protobuf:"bytes,5,opt,name=integer_event,json=integerEvent,proto3" json:"integer_event,omitempty"`
	Histogram    *HistogramObservation     `protobuf:"bytes,6,opt,name=histogram,proto3" json:"histogram,omitempty"`
	Custom       *CustomObservation        `protobuf:"bytes,7,opt,name=custom,proto3" json:"custom,omitempty"`
}

func (m *Observation) Reset()         { *m = Observation{} }
func (m *Observation) String() string { return proto.CompactTextString(m) }
func (*Observation) ProtoMessage()    {}

// ObservationMetadata travels alongside the encrypted observation into
// the store.
type ObservationMetadata struct {
	CustomerId    uint32          `protobuf:"varint,1,opt,name=customer_id,json=customerId,proto3" json:"customer_id,omitempty"`
	ProjectId     uint32          `protobuf:"varint,2,opt,name=project_id,json=projectId,proto3" json:"project_id,omitempty"`
	MetricId      uint32          `protobuf:"varint,3,opt,name=metric_id,json=metricId,proto3" json:"metric_id,omitempty"`
	ReportId      uint32          `protobuf:"varint,4,opt,name=report_id,json=reportId,proto3" json:"report_id,omitempty"`
	DayIndex      uint32          `protobuf:"varint,5,opt,name=day_index,json=dayIndex,proto3" json:"day_index,omitempty"`
	SystemProfile *SystemProfile  `protobuf:"bytes,6,opt,name=system_profile,json=systemProfile,proto3" json:"system_profile,omitempty"`
}

func (m *ObservationMetadata) Reset()         { *m = ObservationMetadata{} }
func (m *ObservationMetadata) String() string { return proto.CompactTextString(m) }
func (*ObservationMetadata) ProtoMessage()    {}

// Equal reports whether two metadata values are byte-for-byte
// equivalent for the purposes of batch grouping.
func (m *ObservationMetadata) Equal(o *ObservationMetadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	a, err1 := proto.Marshal(m)
	b, err2 := proto.Marshal(o)
	if err1 != nil || err2 != nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EncryptionScheme names the scheme used for an EncryptedMessage.
type EncryptionScheme int

const (
	SchemeNone EncryptionScheme = iota
	SchemeHybridECDHV1
)

// EncryptedMessage wraps ciphertext produced by the EncryptedMessageMaker
// capability.
type EncryptedMessage struct {
	Scheme     int32  `protobuf:"varint,1,opt,name=scheme,proto3" json:"scheme,omitempty"`
	PublicKeyFingerprint []byte `protobuf:"bytes,2,opt,name=public_key_fingerprint,json=publicKeyFingerprint,proto3" json:"public_key_fingerprint,omitempty"`
	Ciphertext []byte `protobuf:"bytes,3,opt,name=ciphertext,proto3" json:"ciphertext,omitempty"`
}

func (m *EncryptedMessage) Reset()         { *m = EncryptedMessage{} }
func (m *EncryptedMessage) String() string { return proto.CompactTextString(m) }
func (*EncryptedMessage) ProtoMessage()    {}
