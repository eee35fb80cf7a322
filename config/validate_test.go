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

func makeTestConfig(metric *MetricDefinition) *CobaltConfig {
	return &CobaltConfig{
		Customers: []*Customer{
			{Id: 1, Projects: []*Project{
				{Id: 1, Metrics: []*MetricDefinition{metric}},
			}},
		},
	}
}

func TestValidateRejectsReservedMetricId(t *testing.T) {
	cfg := makeTestConfig(&MetricDefinition{Id: 0, Name: "bad"})
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(metric id 0) = nil, want an error")
	}
}

func TestValidateRejectsDuplicateMetricIds(t *testing.T) {
	cfg := &CobaltConfig{
		Customers: []*Customer{
			{Id: 1, Projects: []*Project{
				{Id: 1, Metrics: []*MetricDefinition{
					{Id: 5, Name: "a"},
					{Id: 5, Name: "b"},
				}},
			}},
		},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(duplicate metric ids) = nil, want an error")
	}
}

func TestValidateRejectsDuplicateReportIds(t *testing.T) {
	metric := &MetricDefinition{
		Id:   5,
		Name: "m",
		Reports: []*ReportDefinition{
			{Id: 1, Name: "r1"},
			{Id: 1, Name: "r2"},
		},
	}
	cfg := makeTestConfig(metric)
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(duplicate report ids) = nil, want an error")
	}
}

func TestValidateRejectsUndeclaredSystemProfileField(t *testing.T) {
	metric := &MetricDefinition{
		Id:                 5,
		Name:               "m",
		SystemProfileField: []SystemProfileField{SystemProfileFieldBoardName},
		Reports: []*ReportDefinition{
			{Id: 1, Name: "r1", SystemProfileField: []SystemProfileField{SystemProfileFieldARCH}},
		},
	}
	cfg := makeTestConfig(metric)
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(report requests undeclared field) = nil, want an error")
	}
}

func TestValidateRejectsMismatchedReportType(t *testing.T) {
	metric := &MetricDefinition{
		Id:         5,
		Name:       "m",
		MetricType: EventOccurred,
		Reports: []*ReportDefinition{
			{Id: 1, Name: "r1", ReportType: NumericAggregation},
		},
	}
	cfg := makeTestConfig(metric)
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate(NumericAggregation report under an EVENT_OCCURRED metric) = nil, want an error")
	}
}

func TestValidateAcceptsDeclaredSystemProfileField(t *testing.T) {
	metric := &MetricDefinition{
		Id:                 5,
		Name:               "m",
		SystemProfileField: []SystemProfileField{SystemProfileFieldBoardName, SystemProfileFieldARCH},
		Reports: []*ReportDefinition{
			{Id: 1, Name: "r1", SystemProfileField: []SystemProfileField{SystemProfileFieldARCH}},
		},
	}
	cfg := makeTestConfig(metric)
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(report requests declared field) = %v, want nil", err)
	}
}
