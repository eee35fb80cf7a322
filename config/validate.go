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

import (
	"fmt"
	"time"

	"github.com/fuchsia-br/cobalt-core/status"
)

// Validate checks the structural invariants the teacher's
// config_validator package enforces on a CobaltConfig before it is
// accepted into a Registry: metric id 0 is reserved, any metric under a
// project id of 100 or higher must declare an expiry no more than one
// year out (config_validator/metrics.go), metric ids must be unique
// within their project and report ids unique within their metric
// (config_validator/{metrics,reports}.go),
// a report may only request a system_profile_field its metric also
// declares (config_validator/system_profile_field.go), and a report's
// type must be one the logger's dispatch table actually encodes for
// its metric's type (logger.dispatch's InvalidConfig default case).
func Validate(cfg *CobaltConfig) *status.Status {
	if cfg == nil {
		return nil
	}
	for _, customer := range cfg.Customers {
		for _, project := range customer.Projects {
			metricIds := map[uint32]bool{}
			for _, metric := range project.Metrics {
				if metricIds[metric.Id] {
					return status.Errorf(status.InvalidConfig,
						"metric id %d is repeated in project (%d,%d); metric ids must be unique",
						metric.Id, customer.Id, project.Id)
				}
				metricIds[metric.Id] = true

				if err := validateMetric(metric, project.Id); err != nil {
					return status.Errorf(status.InvalidConfig,
						"error validating metric %v (%d,%d,%d): %v",
						metric.Name, customer.Id, project.Id, metric.Id, err)
				}

				reportIds := map[uint32]bool{}
				for _, report := range metric.Reports {
					if reportIds[report.Id] {
						return status.Errorf(status.InvalidConfig,
							"report id %d is repeated under metric %v (%d,%d,%d); report ids must be unique",
							report.Id, metric.Name, customer.Id, project.Id, metric.Id)
					}
					reportIds[report.Id] = true

					if err := validateSystemProfileFields(metric, report); err != nil {
						return status.Errorf(status.InvalidConfig,
							"error validating report %v (%d,%d,%d): %v",
							report.Name, customer.Id, project.Id, report.Id, err)
					}

					if !reportTypeValidForMetricType(metric.MetricType, report.ReportType) {
						return status.Errorf(status.InvalidConfig,
							"report %v (%d,%d,%d) has type %v, not valid for metric %v's type %v",
							report.Name, customer.Id, project.Id, report.Id, report.ReportType, metric.Name, metric.MetricType)
					}
				}
			}
		}
	}
	return nil
}

// validateSystemProfileFields makes sure every system_profile_field a
// report requests is among the fields its metric declares, the Go
// counterpart of the teacher's containsSystemProfileField/
// validateSystemProfileFields pair in
// config_validator/system_profile_field.go.
func validateSystemProfileFields(m *MetricDefinition, r *ReportDefinition) error {
	declared := map[SystemProfileField]bool{}
	for _, f := range m.SystemProfileField {
		declared[f] = true
	}
	for _, f := range r.SystemProfileField {
		if !declared[f] {
			return fmt.Errorf("uses SystemProfileField %v, but metric %v does not supply it", f, m.Name)
		}
	}
	return nil
}

// reportTypeValidForMetricType mirrors the logger package's per-metric
// dispatch tables (logger.LogEvent/LogEventCount/logIntegerPerformance/
// LogIntHistogram/LogString/LogCustomEvent): a report is only useful if
// some Log*() call actually knows how to encode its report type for
// the owning metric's type.
func reportTypeValidForMetricType(m MetricType, r ReportType) bool {
	switch m {
	case EventOccurred:
		return r == SimpleOccurrenceCount || r == EventComponentOccurrenceCount
	case EventCount:
		return r == NumericAggregation || r == EventComponentOccurrenceCount
	case ElapsedTime, FrameRate, MemoryUsage:
		return r == NumericAggregation || r == NumericPerfRawDump
	case IntHistogram:
		return r == IntRangeHistogram
	case StringUsed:
		return r == HighFrequencyStringCounts || r == StringCountsWithThreshold
	case CustomMetric:
		return r == CustomRawDump
	default:
		return false
	}
}

func validateMetric(m *MetricDefinition, projectId uint32) *status.Status {
	if m.Id == 0 {
		return status.Errorf(status.InvalidConfig, "metric id '0' is invalid")
	}
	if projectId >= 100 {
		if m.GetMetaData() == nil || m.GetMetaData().ExpiresAfter == "" {
			return status.Errorf(status.InvalidConfig,
				"expires_after is not present; all metrics with project_id >= 100 must have an expires_after field set")
		}
		oldestValidExpiry := time.Now().AddDate(1, 0, 0)
		date, err := time.Parse("2006/01/02", m.GetMetaData().ExpiresAfter)
		if err != nil {
			return status.Errorf(status.InvalidConfig, "unable to parse expires_after: %v", err)
		}
		if date.After(oldestValidExpiry) {
			return status.Errorf(status.InvalidConfig,
				"expiry date %v is past the maximum expiry date of %v", date, oldestValidExpiry)
		}
	}
	return nil
}
