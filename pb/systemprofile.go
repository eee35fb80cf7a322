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

// Package pb holds the wire message types shared by the encoder, the
// observation store and the analyzer. These are hand-written structs
// carrying protoc-gen-go-style field tags (no protoc toolchain is
// available in this environment) so that github.com/golang/protobuf/proto's
// legacy reflection-based marshaling works against them unchanged; see
// DESIGN.md "pb/ — wire message types".
package pb

import "github.com/golang/protobuf/proto"

// SystemProfile carries the subset of device identity fields a report
// elects to attach to its observations.
type SystemProfile struct {
	Os          string `protobuf:"bytes,1,opt,name=os,proto3" json:"os,omitempty"`
	Arch        string `protobuf:"bytes,2,opt,name=arch,proto3" json:"arch,omitempty"`
	BoardName   string `protobuf:"bytes,3,opt,name=board_name,json=boardName,proto3" json:"board_name,omitempty"`
	ProductName string `protobuf:"bytes,4,opt,name=product_name,json=productName,proto3" json:"product_name,omitempty"`
}

func (m *SystemProfile) Reset()         { *m = SystemProfile{} }
func (m *SystemProfile) String() string { return proto.CompactTextString(m) }
func (*SystemProfile) ProtoMessage()    {}

// SystemProfileField names one field a report may elect to carry.
type SystemProfileField int

const (
	FieldOS SystemProfileField = iota
	FieldARCH
	FieldBoardName
	FieldProductName
)

// Filter returns a copy of full restricted to fields, following the
// default-inclusion rule: when fields is empty, only BoardName and
// ProductName are included.
func (full *SystemProfile) Filter(fields []SystemProfileField) *SystemProfile {
	if full == nil {
		return &SystemProfile{}
	}
	if len(fields) == 0 {
		return &SystemProfile{BoardName: full.BoardName, ProductName: full.ProductName}
	}
	out := &SystemProfile{}
	for _, f := range fields {
		switch f {
		case FieldOS:
			out.Os = full.Os
		case FieldARCH:
			out.Arch = full.Arch
		case FieldBoardName:
			out.BoardName = full.BoardName
		case FieldProductName:
			out.ProductName = full.ProductName
		}
	}
	return out
}
