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

// Package store implements two persistence primitives:
// FileObservationStore, a crash-safe append-only queue of observation
// envelopes, and ConsistentProtoStore, an atomically-updated
// single-message store. Grounded on
// original_source/encoder/file_observation_store.cc and
// original_source/util/consistent_proto_store.cc.
package store

import (
	"io/ioutil"
	"os"
)

// FileSystem is the platform capability both stores are built against;
// DefaultFileSystem wraps os/ioutil.
type FileSystem interface {
	MakeDirectory(directory string) error
	ListFiles(directory string) ([]string, error)
	Delete(path string) error
	FileSize(path string) (int64, error)
	Rename(from, to string) error
	FileExists(path string) bool
}

// DefaultFileSystem is the production FileSystem implementation.
type DefaultFileSystem struct{}

func (DefaultFileSystem) MakeDirectory(directory string) error {
	return os.MkdirAll(directory, 0755)
}

func (DefaultFileSystem) ListFiles(directory string) ([]string, error) {
	entries, err := ioutil.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (DefaultFileSystem) Delete(path string) error {
	return os.Remove(path)
}

func (DefaultFileSystem) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (DefaultFileSystem) Rename(from, to string) error {
	return os.Rename(from, to)
}

func (DefaultFileSystem) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
