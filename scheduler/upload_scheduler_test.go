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

package scheduler

import (
	"testing"
	"time"
)

// Starting at 3s and doubling up to a 3600s target produces
// 3,6,12,24,48,96,192,384,768,1536,3072,3600,3600,...
func TestIntervalSequenceMatchesSpecScenario(t *testing.T) {
	s := New(3600*time.Second, 1*time.Second, 3*time.Second)
	want := []int{3, 6, 12, 24, 48, 96, 192, 384, 768, 1536, 3072, 3600, 3600}
	for i, w := range want {
		got := s.Interval()
		if got != time.Duration(w)*time.Second {
			t.Fatalf("interval %d: got %v, want %ds", i, got, w)
		}
	}
}

func TestSteadyStateNeverRampsUp(t *testing.T) {
	s := NewSteadyState(10*time.Second, 1*time.Second)
	for i := 0; i < 3; i++ {
		if got := s.Interval(); got != 10*time.Second {
			t.Fatalf("call %d: got %v, want 10s", i, got)
		}
	}
}

func TestMinIntervalIsExposed(t *testing.T) {
	s := New(100*time.Second, 5*time.Second, 1*time.Second)
	if s.MinInterval() != 5*time.Second {
		t.Fatalf("got %v, want 5s", s.MinInterval())
	}
}

func TestConstructorInvariantsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for initial_interval > target_interval")
		}
	}()
	New(1*time.Second, 0, 10*time.Second)
}
