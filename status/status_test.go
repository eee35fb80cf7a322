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

package status

import (
	"testing"

	"google.golang.org/grpc/codes"
)

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{OK, codes.OK},
		{InvalidArguments, codes.InvalidArgument},
		{InvalidConfig, codes.FailedPrecondition},
		{ObservationTooBig, codes.InvalidArgument},
		{StoreFull, codes.ResourceExhausted},
		{WriteFailed, codes.Internal},
		{NotFound, codes.NotFound},
		{DeadlineExceeded, codes.DeadlineExceeded},
	}
	for _, c := range cases {
		s := &Status{Code: c.code}
		if got := s.GRPCCode(); got != c.want {
			t.Errorf("Status{Code: %v}.GRPCCode() = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestGRPCCodeNilStatusIsOK(t *testing.T) {
	var s *Status
	if got := s.GRPCCode(); got != codes.OK {
		t.Errorf("nil Status.GRPCCode() = %v, want codes.OK", got)
	}
}
