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

// Package scheduler computes the bounded exponential-backoff interval
// between successive uploads, grounded on
// original_source/encoder/upload_scheduler.cc.
package scheduler

import "time"

// MaxSeconds stands in for "infinity": a ShippingManager configured
// with this as its target interval effectively disables periodic
// sends. Kept well under 2^31 seconds, per the original's comment
// about a libc++ condition_variable::wait_for() bug triggered by
// chrono::seconds::max().
const MaxSeconds = 999999999 * time.Second

// UploadScheduler hands ShippingManager successive wait intervals: it
// starts at initial_interval and doubles on every call until it
// reaches target_interval, where it then holds steady. This lets a
// freshly started client upload quickly once, then settle into an
// infrequent steady-state cadence.
type UploadScheduler struct {
	currentInterval time.Duration
	targetInterval  time.Duration
	minInterval     time.Duration
}

// New builds a scheduler. Panics unless 0 <= minInterval <=
// targetInterval <= MaxSeconds and initialInterval <= targetInterval
// (minInterval may exceed initialInterval) — these are
// constructor invariants, not runtime conditions, per
// original_source/encoder/upload_scheduler.cc's CHECK()s.
func New(targetInterval, minInterval, initialInterval time.Duration) *UploadScheduler {
	if minInterval < 0 {
		panic("scheduler: min_interval must be >= 0")
	}
	if initialInterval > targetInterval {
		panic("scheduler: initial_interval must be <= target_interval")
	}
	if minInterval > targetInterval {
		panic("scheduler: min_interval must be <= target_interval")
	}
	if targetInterval > MaxSeconds {
		panic("scheduler: target_interval must be <= MaxSeconds")
	}
	return &UploadScheduler{
		currentInterval: initialInterval,
		targetInterval:  targetInterval,
		minInterval:     minInterval,
	}
}

// NewSteadyState builds a scheduler with no ramp-up: every call to
// Interval() returns target_interval.
func NewSteadyState(targetInterval, minInterval time.Duration) *UploadScheduler {
	return New(targetInterval, minInterval, targetInterval)
}

// MinInterval is the hard floor ShippingManager must respect between
// any two sends, regardless of expedited-send requests.
func (s *UploadScheduler) MinInterval() time.Duration { return s.minInterval }

// Interval returns the current wait interval, then doubles it (capped
// at target_interval) for the next call.
func (s *UploadScheduler) Interval() time.Duration {
	interval := s.currentInterval
	if s.currentInterval < s.targetInterval {
		s.currentInterval *= 2
		if s.currentInterval >= s.targetInterval {
			s.currentInterval = s.targetInterval
		}
	}
	return interval
}
