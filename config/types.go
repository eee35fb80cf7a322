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

// Package config holds the in-memory project configuration registry
// consulted by the encoder and logger: customers, projects, metrics and
// reports, looked up by id-tuple or by name. Loading a registry from a
// human-authored YAML file is the in-scope front end; the distributed
// multi-file compiler that builds that YAML from per-project source
// fragments is not reimplemented here.
package config

import "github.com/golang/protobuf/proto"

// MetricType is the tag of a MetricDefinition variant.
type MetricType int

const (
	EventOccurred MetricType = iota
	EventCount
	ElapsedTime
	FrameRate
	MemoryUsage
	IntHistogram
	StringUsed
	CustomMetric
)

// ReportType is the tag of a ReportDefinition variant.
type ReportType int

const (
	SimpleOccurrenceCount ReportType = iota
	EventComponentOccurrenceCount
	NumericAggregation
	NumericPerfRawDump
	IntRangeHistogram
	HighFrequencyStringCounts
	StringCountsWithThreshold
	CustomRawDump
)

// NoiseLevel selects the RAPPOR (p, q) pair an encoder uses.
type NoiseLevel int

const (
	NoiseNone NoiseLevel = iota
	NoiseSmall
	NoiseMedium
	NoiseLarge
)

// NoiseUnset distinguishes "report doesn't name a noise level" from the
// zero value NoiseNone, which is itself a valid, explicit setting.
const NoiseUnset NoiseLevel = -1

// SystemProfileField names one field of a SystemProfile a report or
// metric may elect to carry (config_validator/system_profile_field.go).
type SystemProfileField int

const (
	SystemProfileFieldOS SystemProfileField = iota
	SystemProfileFieldARCH
	SystemProfileFieldBoardName
	SystemProfileFieldProductName
)

func (f SystemProfileField) String() string {
	switch f {
	case SystemProfileFieldOS:
		return "OS"
	case SystemProfileFieldARCH:
		return "ARCH"
	case SystemProfileFieldBoardName:
		return "BOARD_NAME"
	case SystemProfileFieldProductName:
		return "PRODUCT_NAME"
	default:
		return "UNKNOWN"
	}
}

// HistogramBucketSpec is a linear{floor, num_buckets, step_size} or
// exponential{floor, num_buckets, base, step_multiplier} bucketing
// scheme.
type HistogramBucketSpec struct {
	Linear      *LinearBuckets
	Exponential *ExponentialBuckets
}

type LinearBuckets struct {
	Floor      int64 `yaml:"floor"`
	NumBuckets uint32 `yaml:"num_buckets"`
	StepSize   int64 `yaml:"step_size"`
}

type ExponentialBuckets struct {
	Floor          int64  `yaml:"floor"`
	NumBuckets     uint32 `yaml:"num_buckets"`
	Base           float64 `yaml:"base"`
	StepMultiplier float64 `yaml:"step_multiplier"`
}

// ReportDefinition is a tagged variant over report types.
type ReportDefinition struct {
	Id                     uint32               `yaml:"id"`
	Name                   string               `yaml:"name"`
	ReportType             ReportType           `yaml:"report_type"`
	LocalPrivacyNoiseLevel NoiseLevel           `yaml:"local_privacy_noise_level"`
	ExpectedPopulationSize uint64               `yaml:"expected_population_size"`
	ExpectedStringSetSize  uint64               `yaml:"expected_string_set_size"`
	Threshold              uint32               `yaml:"threshold"`
	SystemProfileField     []SystemProfileField `yaml:"system_profile_field"`
}

// HasNoiseLevel reports whether the report explicitly configured a
// local_privacy_noise_level.
func (r *ReportDefinition) HasNoiseLevel() bool {
	return r != nil && r.LocalPrivacyNoiseLevel != NoiseUnset
}

// MetaData carries the expiry-related fields validated by
// config_validator/metrics.go in the teacher.
type MetaData struct {
	ExpiresAfter string `yaml:"expires_after"`
}

// MetricDefinition is a tagged variant over metric types.
type MetricDefinition struct {
	CustomerId    uint32                `yaml:"-"`
	ProjectId     uint32                `yaml:"-"`
	Id            uint32                `yaml:"id"`
	Name          string                `yaml:"name"`
	MetricType    MetricType            `yaml:"metric_type"`
	MaxEventCode  uint32                `yaml:"max_event_code"`
	BucketSpec    *HistogramBucketSpec  `yaml:"bucket_spec,omitempty"`
	Reports       []*ReportDefinition   `yaml:"reports"`
	MetaDataField *MetaData             `yaml:"meta_data,omitempty"`

	// SystemProfileField lists the fields this metric's observations may
	// carry; a report may only request a field its metric supplies
	// (config_validator/system_profile_field.go).
	SystemProfileField []SystemProfileField `yaml:"system_profile_field"`
}

func (m *MetricDefinition) GetMetaData() *MetaData { return m.MetaDataField }

// Project groups the metrics published by one project.
type Project struct {
	CustomerId uint32              `yaml:"-"`
	Id         uint32              `yaml:"id"`
	Name       string              `yaml:"name"`
	Metrics    []*MetricDefinition `yaml:"metrics"`
}

// Customer groups the projects of one customer.
type Customer struct {
	Id       uint32     `yaml:"id"`
	Name     string     `yaml:"name"`
	Projects []*Project `yaml:"projects"`
}

// CobaltConfig is the top-level registry message: customers, projects,
// metrics and reports. It is kept proto.Message-shaped so it can
// round-trip through ConsistentProtoStore the same way any other
// long-lived snapshot does.
type CobaltConfig struct {
	Customers []*Customer `protobuf:"bytes,1,rep,name=customers,proto3" yaml:"customers"`
}

func (m *CobaltConfig) Reset()         { *m = CobaltConfig{} }
func (m *CobaltConfig) String() string { return proto.CompactTextString(m) }
func (*CobaltConfig) ProtoMessage()    {}
