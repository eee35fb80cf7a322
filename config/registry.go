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

	"github.com/fuchsia-br/cobalt-core/status"
)

// MetricRef addresses one metric by its (customer, project, metric) id tuple.
type MetricRef struct {
	CustomerId uint32
	ProjectId  uint32
	MetricId   uint32
}

func formatId(customerId, projectId, id uint32) string {
	return fmt.Sprintf("(%d,%d,%d)", customerId, projectId, id)
}

// Registry is the in-memory lookup surface built from a CobaltConfig,
// grounded on config_validator's duplicate-id detection
// (config/config_parser/src/config_validator/metrics.go in the
// teacher).
type Registry struct {
	metricsById   map[MetricRef]*MetricDefinition
	metricsByName map[string]*MetricDefinition
	reportsById   map[MetricRef]map[uint32]*ReportDefinition
}

// NewRegistry builds a Registry from a CobaltConfig, returning
// InvalidConfig if any metric id is repeated within a project.
func NewRegistry(cfg *CobaltConfig) (*Registry, *status.Status) {
	reg := &Registry{
		metricsById:   make(map[MetricRef]*MetricDefinition),
		metricsByName: make(map[string]*MetricDefinition),
		reportsById:   make(map[MetricRef]map[uint32]*ReportDefinition),
	}
	if cfg == nil {
		return reg, nil
	}
	for _, customer := range cfg.Customers {
		for _, project := range customer.Projects {
			for _, metric := range project.Metrics {
				metric.CustomerId = customer.Id
				metric.ProjectId = project.Id
				ref := MetricRef{CustomerId: customer.Id, ProjectId: project.Id, MetricId: metric.Id}
				if _, exists := reg.metricsById[ref]; exists {
					return nil, status.Errorf(status.InvalidConfig,
						"metric id %s is repeated; metric ids must be unique", formatId(ref.CustomerId, ref.ProjectId, ref.MetricId))
				}
				reg.metricsById[ref] = metric
				reg.metricsByName[metric.Name] = metric
				reports := make(map[uint32]*ReportDefinition, len(metric.Reports))
				for _, report := range metric.Reports {
					reports[report.Id] = report
				}
				reg.reportsById[ref] = reports
			}
		}
	}
	return reg, nil
}

// Metric looks up a MetricDefinition by id-tuple.
func (reg *Registry) Metric(ref MetricRef) (*MetricDefinition, *status.Status) {
	m, ok := reg.metricsById[ref]
	if !ok {
		return nil, status.Errorf(status.NotFound, "no metric for %s", formatId(ref.CustomerId, ref.ProjectId, ref.MetricId))
	}
	return m, nil
}

// MetricByName looks up a MetricDefinition by its published name.
func (reg *Registry) MetricByName(name string) (*MetricDefinition, *status.Status) {
	m, ok := reg.metricsByName[name]
	if !ok {
		return nil, status.Errorf(status.NotFound, "no metric named %q", name)
	}
	return m, nil
}

// Report looks up a ReportDefinition under a metric by report id.
func (reg *Registry) Report(ref MetricRef, reportId uint32) (*ReportDefinition, *status.Status) {
	reports, ok := reg.reportsById[ref]
	if !ok {
		return nil, status.Errorf(status.NotFound, "no metric for %s", formatId(ref.CustomerId, ref.ProjectId, ref.MetricId))
	}
	r, ok := reports[reportId]
	if !ok {
		return nil, status.Errorf(status.NotFound, "no report %d under metric %s", reportId, formatId(ref.CustomerId, ref.ProjectId, ref.MetricId))
	}
	return r, nil
}
