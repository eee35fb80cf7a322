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

// Package system supplies the device identity a report may elect to
// attach to its observations. It mirrors util.Random's shape: one
// capability interface, a deterministic implementation for tests, and
// a "real" implementation that reads the actual host.
package system

import (
	"runtime"

	"github.com/fuchsia-br/cobalt-core/pb"
)

// SystemProfileProvider supplies the SystemProfile an Encoder attaches
// to observations, filtered per-report by pb.SystemProfile.Filter.
// Callers obtain one Profile() at process startup and pass it to
// encoder.New; board/product identity does not change over a
// process's lifetime.
type SystemProfileProvider interface {
	Profile() *pb.SystemProfile
}

// StaticSystemProfileProvider always returns the same, caller-supplied
// profile. Tests and single-board deployments construct one directly
// instead of probing the host.
type StaticSystemProfileProvider struct {
	profile *pb.SystemProfile
}

// NewStaticSystemProfileProvider wraps profile. A nil profile behaves
// as an all-empty one.
func NewStaticSystemProfileProvider(profile *pb.SystemProfile) *StaticSystemProfileProvider {
	if profile == nil {
		profile = &pb.SystemProfile{}
	}
	return &StaticSystemProfileProvider{profile: profile}
}

func (p *StaticSystemProfileProvider) Profile() *pb.SystemProfile {
	return p.profile
}

// HostSystemProfileProvider fills Os/Arch from the running process's
// runtime.GOOS/GOARCH and BoardName/ProductName from values supplied at
// construction (Go has no portable way to read board/product identity
// off the host; those come from the deployment's own configuration).
type HostSystemProfileProvider struct {
	boardName   string
	productName string
}

// NewHostSystemProfileProvider records the board and product identity
// this deployment should report.
func NewHostSystemProfileProvider(boardName, productName string) *HostSystemProfileProvider {
	return &HostSystemProfileProvider{boardName: boardName, productName: productName}
}

func (p *HostSystemProfileProvider) Profile() *pb.SystemProfile {
	return &pb.SystemProfile{
		Os:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		BoardName:   p.boardName,
		ProductName: p.productName,
	}
}
