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
	"os"
	"path/filepath"
	"testing"

	"github.com/fuchsia-br/cobalt-core/config"
)

func TestConsistentProtoStoreWriteRead(t *testing.T) {
	dir, err := ioutil.TempDir("", "consistent_proto_store_test")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "registry.pb")
	s := NewConsistentProtoStore(path, DefaultFileSystem{})

	written := &config.CobaltConfig{Customers: []*config.Customer{{Id: 1, Name: "acme"}}}
	if errStatus := s.Write(written); errStatus != nil {
		t.Fatalf("Write failed: %v", errStatus)
	}

	read := &config.CobaltConfig{}
	if errStatus := s.Read(read); errStatus != nil {
		t.Fatalf("Read failed: %v", errStatus)
	}
	if len(read.Customers) != 1 || read.Customers[0].Id != 1 || read.Customers[0].Name != "acme" {
		t.Fatalf("unexpected read-back: %+v", read)
	}
}

func TestConsistentProtoStoreOverwrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "consistent_proto_store_test2")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "registry.pb")
	s := NewConsistentProtoStore(path, DefaultFileSystem{})

	if errStatus := s.Write(&config.CobaltConfig{Customers: []*config.Customer{{Id: 1}}}); errStatus != nil {
		t.Fatalf("first Write failed: %v", errStatus)
	}
	if errStatus := s.Write(&config.CobaltConfig{Customers: []*config.Customer{{Id: 2}, {Id: 3}}}); errStatus != nil {
		t.Fatalf("second Write failed: %v", errStatus)
	}

	read := &config.CobaltConfig{}
	if errStatus := s.Read(read); errStatus != nil {
		t.Fatalf("Read failed: %v", errStatus)
	}
	if len(read.Customers) != 2 {
		t.Fatalf("got %d customers, want 2 (the second write should fully replace the first)", len(read.Customers))
	}
}

func TestConsistentProtoStoreReadMissingFileNotFound(t *testing.T) {
	dir, err := ioutil.TempDir("", "consistent_proto_store_test3")
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	s := NewConsistentProtoStore(filepath.Join(dir, "nonexistent.pb"), DefaultFileSystem{})
	if errStatus := s.Read(&config.CobaltConfig{}); errStatus == nil {
		t.Fatalf("expected NotFound reading a store that was never written")
	}
}
