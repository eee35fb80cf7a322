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

package logger

import (
	"testing"
	"time"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/encoder"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/util"
)

type fakeStore struct {
	added []*pb.ObservationMetadata
}

func (f *fakeStore) AddEncryptedObservation(message *pb.EncryptedMessage, metadata *pb.ObservationMetadata) *status.Status {
	f.added = append(f.added, metadata)
	return nil
}

type fakeRecipient struct {
	notified int
}

func (f *fakeRecipient) NotifyObservationsAdded() { f.notified++ }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestLogger(t *testing.T, cfg *config.CobaltConfig) (*Logger, *fakeStore, *fakeRecipient) {
	t.Helper()
	registry, errStatus := config.NewRegistry(cfg)
	if errStatus != nil {
		t.Fatalf("NewRegistry failed: %v", errStatus)
	}
	enc := encoder.New([]byte("secret"), &pb.SystemProfile{}, util.NewDeterministicRandom(7))
	store := &fakeStore{}
	recipient := &fakeRecipient{}
	writer := NewObservationWriter(func(obs *pb.Observation) (*pb.EncryptedMessage, *status.Status) {
		return &pb.EncryptedMessage{Scheme: int32(pb.SchemeNone)}, nil
	}, store, recipient)
	l := NewLogger(enc, writer, registry, 1, 1)
	l.clock = fixedClock{t: time.Unix(1700000000, 0)}
	return l, store, recipient
}

func buildConfig(metric *config.MetricDefinition) *config.CobaltConfig {
	return &config.CobaltConfig{Customers: []*config.Customer{{
		Id: 1, Projects: []*config.Project{{
			Id: 1, Metrics: []*config.MetricDefinition{metric},
		}},
	}}}
}

func TestLogEventWritesOneObservationPerReport(t *testing.T) {
	metric := &config.MetricDefinition{
		Id: 10, MetricType: config.EventOccurred, MaxEventCode: 5,
		Reports: []*config.ReportDefinition{
			{Id: 1, ReportType: config.SimpleOccurrenceCount, LocalPrivacyNoiseLevel: config.NoiseNone},
		},
	}
	l, store, recipient := newTestLogger(t, buildConfig(metric))

	if errStatus := l.LogEvent(10, 3); errStatus != nil {
		t.Fatalf("LogEvent failed: %v", errStatus)
	}
	if len(store.added) != 1 {
		t.Fatalf("got %d observations, want 1", len(store.added))
	}
	if recipient.notified != 1 {
		t.Fatalf("got %d notifications, want 1", recipient.notified)
	}
}

func TestLogEventRejectsWrongMetricType(t *testing.T) {
	metric := &config.MetricDefinition{Id: 10, MetricType: config.EventCount}
	l, _, _ := newTestLogger(t, buildConfig(metric))

	if errStatus := l.LogEvent(10, 1); errStatus == nil {
		t.Fatalf("expected error logging EventOccurred against an EventCount metric")
	}
}

func TestLogStringDispatchesByReportType(t *testing.T) {
	metric := &config.MetricDefinition{
		Id: 20, MetricType: config.StringUsed,
		Reports: []*config.ReportDefinition{
			{Id: 1, ReportType: config.HighFrequencyStringCounts, LocalPrivacyNoiseLevel: config.NoiseNone, ExpectedStringSetSize: 10, ExpectedPopulationSize: 10},
			{Id: 2, ReportType: config.StringCountsWithThreshold, Threshold: 3},
		},
	}
	l, store, _ := newTestLogger(t, buildConfig(metric))

	if errStatus := l.LogString(20, "hello"); errStatus != nil {
		t.Fatalf("LogString failed: %v", errStatus)
	}
	if len(store.added) != 2 {
		t.Fatalf("got %d observations, want 2 (one per report)", len(store.added))
	}
}

func TestLogEventRejectsMismatchedReportType(t *testing.T) {
	metric := &config.MetricDefinition{
		Id: 11, MetricType: config.EventOccurred, MaxEventCode: 5,
		Reports: []*config.ReportDefinition{
			{Id: 1, ReportType: config.NumericAggregation},
		},
	}
	l, store, _ := newTestLogger(t, buildConfig(metric))

	errStatus := l.LogEvent(11, 3)
	if errStatus == nil {
		t.Fatal("LogEvent with a report type invalid for EVENT_OCCURRED = nil, want InvalidConfig")
	}
	if errStatus.Code != status.InvalidConfig {
		t.Errorf("got code %v, want InvalidConfig", errStatus.Code)
	}
	if len(store.added) != 0 {
		t.Errorf("got %d observations written, want 0", len(store.added))
	}
}

func TestLogIntHistogramWritesBuckets(t *testing.T) {
	metric := &config.MetricDefinition{
		Id: 30, MetricType: config.IntHistogram,
		Reports: []*config.ReportDefinition{
			{Id: 1, ReportType: config.IntRangeHistogram},
		},
	}
	l, store, _ := newTestLogger(t, buildConfig(metric))
	buckets := []*pb.HistogramBucket{{Index: 0, Count: 5}, {Index: 1, Count: 2}}

	if errStatus := l.LogIntHistogram(30, 1, "gpu", buckets); errStatus != nil {
		t.Fatalf("LogIntHistogram failed: %v", errStatus)
	}
	if len(store.added) != 1 {
		t.Fatalf("got %d observations, want 1", len(store.added))
	}
}
