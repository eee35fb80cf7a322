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

package config

import "testing"

func sampleConfig() *CobaltConfig {
	return &CobaltConfig{
		Customers: []*Customer{
			{
				Id:   1,
				Name: "acme",
				Projects: []*Project{
					{
						Id:   2,
						Name: "widgets",
						Metrics: []*MetricDefinition{
							{
								Id:           3,
								Name:         "ErrorOccurred",
								MetricType:   EventOccurred,
								MaxEventCode: 100,
								Reports: []*ReportDefinition{
									{Id: 123, Name: "ErrorCountsByType", ReportType: SimpleOccurrenceCount, LocalPrivacyNoiseLevel: NoiseSmall},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestRegistryLookupByIdAndName(t *testing.T) {
	reg, errStatus := NewRegistry(sampleConfig())
	if errStatus != nil {
		t.Fatalf("NewRegistry failed: %v", errStatus)
	}
	ref := MetricRef{CustomerId: 1, ProjectId: 2, MetricId: 3}
	m, errStatus := reg.Metric(ref)
	if errStatus != nil {
		t.Fatalf("Metric lookup failed: %v", errStatus)
	}
	if m.Name != "ErrorOccurred" {
		t.Fatalf("got name %q, want ErrorOccurred", m.Name)
	}
	byName, errStatus := reg.MetricByName("ErrorOccurred")
	if errStatus != nil || byName != m {
		t.Fatalf("MetricByName mismatch: %v, %v", byName, errStatus)
	}
	report, errStatus := reg.Report(ref, 123)
	if errStatus != nil {
		t.Fatalf("Report lookup failed: %v", errStatus)
	}
	if report.LocalPrivacyNoiseLevel != NoiseSmall {
		t.Fatalf("got noise level %v, want NoiseSmall", report.LocalPrivacyNoiseLevel)
	}
}

func TestRegistryDuplicateMetricIdRejected(t *testing.T) {
	cfg := sampleConfig()
	dup := *cfg.Customers[0].Projects[0].Metrics[0]
	cfg.Customers[0].Projects[0].Metrics = append(cfg.Customers[0].Projects[0].Metrics, &dup)
	if _, errStatus := NewRegistry(cfg); errStatus == nil {
		t.Fatalf("expected duplicate metric id to be rejected")
	}
}

func TestIdFromNameIsStable(t *testing.T) {
	a := IdFromName("ErrorOccurred")
	b := IdFromName("ErrorOccurred")
	if a != b {
		t.Fatalf("IdFromName not stable: %d != %d", a, b)
	}
	if a == IdFromName("SomethingElse") {
		t.Fatalf("unexpected hash collision in test fixture")
	}
}
