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

package store

import (
	"io/ioutil"

	"github.com/golang/protobuf/proto"

	"github.com/fuchsia-br/cobalt-core/status"
)

const (
	tmpSuffix      = ".tmp"
	overrideSuffix = ".override"
)

// ConsistentProtoStore persists a single protocol buffer message with
// crash-safe overwrite semantics, grounded on
// original_source/util/consistent_proto_store.cc.
type ConsistentProtoStore struct {
	primaryFile  string
	tmpFile      string
	overrideFile string
	fs           FileSystem
}

// NewConsistentProtoStore builds a store rooted at filename; fs is used
// for every filesystem interaction.
func NewConsistentProtoStore(filename string, fs FileSystem) *ConsistentProtoStore {
	return &ConsistentProtoStore{
		primaryFile:  filename,
		tmpFile:      filename + tmpSuffix,
		overrideFile: filename + overrideSuffix,
		fs:           fs,
	}
}

// Write overwrites the stored proto with message, following the 5-step
// sequence documented in original_source/util/consistent_proto_store.cc:
// recover any interrupted prior write, write to a temp file, rename it
// to override, delete the primary, then rename override to primary.
func (s *ConsistentProtoStore) Write(message proto.Message) *status.Status {
	if s.fs.FileExists(s.overrideFile) {
		_ = s.fs.Delete(s.primaryFile) // ignore: primary may not exist
		if err := s.fs.Rename(s.overrideFile, s.primaryFile); err != nil {
			return status.Errorf(status.Other, "error during recovery: %v", err)
		}
	}

	if errStatus := s.writeToTmp(message); errStatus != nil {
		return errStatus
	}
	if err := s.fs.Rename(s.tmpFile, s.overrideFile); err != nil {
		return status.Errorf(status.Other, "unable to rename %q => %q: %v", s.tmpFile, s.overrideFile, err)
	}
	if s.fs.FileExists(s.primaryFile) {
		if err := s.fs.Delete(s.primaryFile); err != nil {
			return status.Errorf(status.Other, "unable to remove old file %q: %v", s.primaryFile, err)
		}
	}
	if err := s.fs.Rename(s.overrideFile, s.primaryFile); err != nil {
		return status.Errorf(status.Other, "unable to rename %q => %q: %v", s.overrideFile, s.primaryFile, err)
	}
	return nil
}

func (s *ConsistentProtoStore) writeToTmp(message proto.Message) *status.Status {
	serialized, err := proto.Marshal(message)
	if err != nil {
		return status.Errorf(status.Other, "unable to serialize proto: %v", err)
	}
	if err := ioutil.WriteFile(s.tmpFile, serialized, 0644); err != nil {
		return status.Errorf(status.Other, "unable to write temp file %q: %v", s.tmpFile, err)
	}
	return nil
}

// Read parses the previously written proto into message, preferring
// override_file over primary_file (an override file present means a
// Write was interrupted after step 3 but before step 5).
func (s *ConsistentProtoStore) Read(message proto.Message) *status.Status {
	if data, err := ioutil.ReadFile(s.overrideFile); err == nil {
		if unmarshalErr := proto.Unmarshal(data, message); unmarshalErr == nil {
			return nil
		}
	}

	data, err := ioutil.ReadFile(s.primaryFile)
	if err != nil {
		return status.Errorf(status.NotFound, "unable to open %q: %v", s.primaryFile, err)
	}
	if err := proto.Unmarshal(data, message); err != nil {
		return status.Errorf(status.InvalidArguments, "unable to parse the protobuf from the store; data is corrupt: %v", err)
	}
	return nil
}
