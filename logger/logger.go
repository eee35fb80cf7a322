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
	"time"

	"github.com/golang/glog"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/encoder"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// secondsPerDay is used to convert the logging clock into the day_index
// carried on every ObservationMetadata.
const secondsPerDay = 24 * 60 * 60

// Clock supplies the current time; SystemClock wraps time.Now, a fake
// clock can pin tests to a known day_index.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func dayIndex(clock Clock) uint32 {
	return uint32(clock.Now().Unix() / secondsPerDay)
}

// Logger dispatches one Event per client-visible Log*() call to every
// Report configured on its Metric, encoding once per report and
// writing each resulting Observation
// through the shared ObservationWriter. One Logger serves one project
// (original_source/logger/logger.h).
type Logger struct {
	encoder   *encoder.Encoder
	writer    *ObservationWriter
	registry  *config.Registry
	project   config.MetricRef // CustomerId/ProjectId populated, MetricId ignored
	clock     Clock
}

// NewLogger builds a Logger scoped to one (customer, project).
func NewLogger(enc *encoder.Encoder, writer *ObservationWriter, registry *config.Registry, customerID, projectID uint32) *Logger {
	return &Logger{
		encoder:  enc,
		writer:   writer,
		registry: registry,
		project:  config.MetricRef{CustomerId: customerID, ProjectId: projectID},
		clock:    SystemClock{},
	}
}

func (l *Logger) ref(metricID uint32) config.MetricRef {
	return config.MetricRef{CustomerId: l.project.CustomerId, ProjectId: l.project.ProjectId, MetricId: metricID}
}

// lookupMetric resolves metricID and checks it has the expected type,
// mirroring EventLogger::InitializeEvent in original_source/logger/logger.cc.
func (l *Logger) lookupMetric(metricID uint32, expected config.MetricType) (*config.MetricDefinition, *status.Status) {
	metric, errStatus := l.registry.Metric(l.ref(metricID))
	if errStatus != nil {
		return nil, errStatus
	}
	if metric.MetricType != expected {
		return nil, status.Errorf(status.InvalidArguments, "metric %d has type %v, expected %v", metricID, metric.MetricType, expected)
	}
	return metric, nil
}

// dispatch encodes and writes one observation per report of metric,
// using encodeOne to turn a single report into an encoder.Result.
// encodeOne returns InvalidConfig for a report type that doesn't apply
// to the metric's type; dispatch surfaces that as an error rather than
// treating it as a silent no-op. The first error encountered is logged
// and returned; dispatch still attempts every remaining report
// (original_source/logger/logger.cc processes each report
// independently).
func (l *Logger) dispatch(metric *config.MetricDefinition, encodeOne func(report *config.ReportDefinition) (*encoder.Result, *status.Status)) *status.Status {
	var firstErr *status.Status
	for _, report := range metric.Reports {
		result, errStatus := encodeOne(report)
		if errStatus != nil {
			glog.Errorf("failed to encode observation for metric %d report %d: %v", metric.Id, report.Id, errStatus)
			if firstErr == nil {
				firstErr = errStatus
			}
			continue
		}
		if errStatus := l.writer.WriteObservation(result.Observation, result.Metadata); errStatus != nil {
			if firstErr == nil {
				firstErr = errStatus
			}
		}
	}
	return firstErr
}

// LogEvent logs a single occurrence of event_code for an EVENT_OCCURRED metric.
func (l *Logger) LogEvent(metricID, eventCode uint32) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, config.EventOccurred)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.SimpleOccurrenceCount:
			return l.encoder.EncodeBasicRappor(l.ref(metricID), metric, report, day, eventCode)
		case config.EventComponentOccurrenceCount:
			return l.encoder.EncodeIntegerEvent(l.ref(metricID), report, day, eventCode, "", 1)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for an EVENT_OCCURRED metric", report.Id, report.ReportType)
		}
	})
}

// LogEventCount logs a count of events during a period, for an
// EVENT_COUNT metric.
func (l *Logger) LogEventCount(metricID, eventCode uint32, component string, periodDurationMicros int64, count int64) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, config.EventCount)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.NumericAggregation, config.EventComponentOccurrenceCount:
			return l.encoder.EncodeIntegerEvent(l.ref(metricID), report, day, eventCode, component, count)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for an EVENT_COUNT metric", report.Id, report.ReportType)
		}
	})
}

// logIntegerPerformance implements the shared dispatch behind
// LogElapsedTime/LogFrameRate/LogMemoryUsage
// (IntegerPerformanceEventLogger in original_source/logger/logger.cc).
func (l *Logger) logIntegerPerformance(metricID uint32, metricType config.MetricType, eventCode uint32, component string, value int64) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, metricType)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.NumericAggregation, config.NumericPerfRawDump:
			return l.encoder.EncodeIntegerEvent(l.ref(metricID), report, day, eventCode, component, value)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for a %v metric", report.Id, report.ReportType, metricType)
		}
	})
}

// LogElapsedTime logs elapsed_micros for an ELAPSED_TIME metric.
func (l *Logger) LogElapsedTime(metricID, eventCode uint32, component string, elapsedMicros int64) *status.Status {
	return l.logIntegerPerformance(metricID, config.ElapsedTime, eventCode, component, elapsedMicros)
}

// LogFrameRate logs fps (scaled by 1000 into an int64) for a FRAME_RATE metric.
func (l *Logger) LogFrameRate(metricID, eventCode uint32, component string, fps float32) *status.Status {
	return l.logIntegerPerformance(metricID, config.FrameRate, eventCode, component, int64(fps*1000))
}

// LogMemoryUsage logs bytes for a MEMORY_USAGE metric.
func (l *Logger) LogMemoryUsage(metricID, eventCode uint32, component string, bytes int64) *status.Status {
	return l.logIntegerPerformance(metricID, config.MemoryUsage, eventCode, component, bytes)
}

// LogIntHistogram logs a bucketed int distribution for an INT_HISTOGRAM metric.
func (l *Logger) LogIntHistogram(metricID, eventCode uint32, component string, buckets []*pb.HistogramBucket) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, config.IntHistogram)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.IntRangeHistogram:
			return l.encoder.EncodeHistogram(l.ref(metricID), report, day, eventCode, component, buckets)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for an INT_HISTOGRAM metric", report.Id, report.ReportType)
		}
	})
}

// LogString logs str for a STRING_USED metric, String-RAPPOR or
// Forculus encoded depending on each report's type.
func (l *Logger) LogString(metricID uint32, str string) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, config.StringUsed)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.HighFrequencyStringCounts:
			return l.encoder.EncodeStringRappor(l.ref(metricID), report, day, str)
		case config.StringCountsWithThreshold:
			return l.encoder.EncodeForculus(l.ref(metricID), report, day, str)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for a STRING_USED metric", report.Id, report.ReportType)
		}
	})
}

// LogCustomEvent logs a CUSTOM metric's named, typed dimension values.
func (l *Logger) LogCustomEvent(metricID uint32, parts map[string]*pb.CustomValuePart) *status.Status {
	metric, errStatus := l.lookupMetric(metricID, config.CustomMetric)
	if errStatus != nil {
		return errStatus
	}
	day := dayIndex(l.clock)
	return l.dispatch(metric, func(report *config.ReportDefinition) (*encoder.Result, *status.Status) {
		switch report.ReportType {
		case config.CustomRawDump:
			return l.encoder.EncodeCustom(l.ref(metricID), report, day, parts)
		default:
			return nil, status.Errorf(status.InvalidConfig, "report %d has type %v, not valid for a CUSTOM metric", report.Id, report.ReportType)
		}
	})
}
