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

// Package status defines the small closed set of result codes returned
// by the core's entry points (encoder, logger, store, analyzer). The
// enum shape follows the teacher's pervasive use of
// google.golang.org/grpc/codes for status-carrying errors, without
// pulling in the RPC stack itself; GRPCCode maps each Status onto the
// closest grpc/codes.Code so a future RPC front-end can surface these
// statuses without re-deriving the mapping.
package status

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// Code is one of the observable return codes of the logger and
// analyzer entry points.
type Code int

const (
	OK Code = iota
	InvalidArguments
	InvalidConfig
	ObservationTooBig
	StoreFull
	WriteFailed
	NotFound
	DeadlineExceeded
	Other
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case InvalidArguments:
		return "InvalidArguments"
	case InvalidConfig:
		return "InvalidConfig"
	case ObservationTooBig:
		return "ObservationTooBig"
	case StoreFull:
		return "StoreFull"
	case WriteFailed:
		return "WriteFailed"
	case NotFound:
		return "NotFound"
	case DeadlineExceeded:
		return "DeadlineExceeded"
	default:
		return "Other"
	}
}

// Status is a status code paired with a human-readable message. It
// implements error so callers may use errors.As to recover the code.
type Status struct {
	Code    Code
	Message string
}

func (s *Status) Error() string {
	if s.Message == "" {
		return s.Code.String()
	}
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// Errorf builds a *Status with a formatted message, mirroring the
// teacher's grpc.Errorf(codes.X, "...", args...) call shape.
func Errorf(code Code, format string, args ...interface{}) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Ok reports whether s represents success. A nil Status is considered OK.
func Ok(s *Status) bool {
	return s == nil || s.Code == OK
}

// GRPCCode maps s onto the grpc/codes.Code a gRPC front-end would
// return for it, mirroring the teacher's grpc.Errorf(codes.X, ...)
// call sites (e.g. leveldb_store.go, encrypted_message_util.go) one
// status code at a time. A nil s maps to codes.OK.
func (s *Status) GRPCCode() codes.Code {
	if s == nil {
		return codes.OK
	}
	switch s.Code {
	case OK:
		return codes.OK
	case InvalidArguments:
		return codes.InvalidArgument
	case InvalidConfig:
		return codes.FailedPrecondition
	case ObservationTooBig:
		return codes.InvalidArgument
	case StoreFull:
		return codes.ResourceExhausted
	case WriteFailed:
		return codes.Internal
	case NotFound:
		return codes.NotFound
	case DeadlineExceeded:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}
