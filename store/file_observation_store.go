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
	"bufio"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/fuchsia-br/cobalt-core/internal/wire"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

const activeFileName = "in_progress.data"

// finalizedFileRegex matches <13-digit millisecond timestamp>-<7-digit
// random number>.data, exactly original_source/encoder/file_observation_store.cc's
// kFinalizedFileRegex.
var finalizedFileRegex = regexp.MustCompile(`^\d{13}-\d{7}\.data$`)

// StoreStatus is the outcome of AddEncryptedObservation.
type StoreStatus int

const (
	StoreOk StoreStatus = iota
	StoreObservationTooBig
	StoreFullStatus
	StoreWriteFailed
)

type fields struct {
	metadataWritten     bool
	lastWrittenMetadata []byte
	activeFile          *os.File
	activeWriter        *bufio.Writer
	activeBytesWritten  int64
	filesTaken          map[string]bool
	finalizedBytes      int64
}

// FileObservationStore is a crash-safe, append-only queue of encrypted
// observations persisted as length-delimited ObservationStoreRecords,
// grounded on original_source/encoder/file_observation_store.cc.
type FileObservationStore struct {
	maxBytesPerObservation int64
	maxBytesPerEnvelope    int64
	maxBytesTotal          int64
	fs                     FileSystem
	rootDirectory          string
	activeFilePath         string

	mu     sync.Mutex
	fields fields
}

// NewFileObservationStore builds (or recovers) a store rooted at
// rootDirectory. Any in_progress.data left over from a prior crash is
// finalized (or deleted, if empty) during construction.
func NewFileObservationStore(maxBytesPerObservation, maxBytesPerEnvelope, maxBytesTotal int64, fs FileSystem, rootDirectory string) (*FileObservationStore, error) {
	if _, err := fs.ListFiles(rootDirectory); err != nil {
		if mkErr := fs.MakeDirectory(rootDirectory); mkErr != nil {
			return nil, fmt.Errorf("failed to create %q: %w", rootDirectory, mkErr)
		}
	}

	s := &FileObservationStore{
		maxBytesPerObservation: maxBytesPerObservation,
		maxBytesPerEnvelope:    maxBytesPerEnvelope,
		maxBytesTotal:          maxBytesTotal,
		fs:                     fs,
		rootDirectory:          rootDirectory,
		activeFilePath:         filepath.Join(rootDirectory, activeFileName),
	}
	s.fields.filesTaken = make(map[string]bool)

	for _, name := range s.listFinalizedFiles() {
		if size, err := fs.FileSize(s.fullPath(name)); err == nil {
			s.fields.finalizedBytes += size
		}
	}
	s.finalizeActiveFile()

	return s, nil
}

func (s *FileObservationStore) fullPath(name string) string {
	return filepath.Join(s.rootDirectory, name)
}

func (s *FileObservationStore) listFinalizedFiles() []string {
	names, err := s.fs.ListFiles(s.rootDirectory)
	if err != nil {
		return nil
	}
	finalized := make([]string, 0, len(names))
	for _, name := range names {
		if finalizedFileRegex.MatchString(name) {
			finalized = append(finalized, name)
		}
	}
	return finalized
}

// AddEncryptedObservation appends message+metadata to the active file,
// following the protocol of
// original_source/encoder/file_observation_store.cc::AddEncryptedObservation:
// size check, total-size check, conditional metadata record, observation
// record, then finalize if the envelope is now full.
func (s *FileObservationStore) AddEncryptedObservation(message *pb.EncryptedMessage, metadata *pb.ObservationMetadata) *status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	// "+1" accounts for the scheme field, mirroring the original's comment.
	obsSize := int64(len(message.Ciphertext) + len(message.PublicKeyFingerprint) + 1)
	if obsSize > s.maxBytesPerObservation {
		glog.Warningf("An observation that was too big was passed in: %d bytes", obsSize)
		return status.Errorf(status.ObservationTooBig, "observation of %d bytes exceeds max_bytes_per_observation %d", obsSize, s.maxBytesPerObservation)
	}

	if err := s.openActiveFile(); err != nil {
		return status.Errorf(status.WriteFailed, "unable to open active file: %v", err)
	}

	if s.fields.finalizedBytes+s.fields.activeBytesWritten+obsSize > s.maxBytesTotal {
		return status.Errorf(status.StoreFull, "observation store is full")
	}

	metadataBytes, err := proto.Marshal(metadata)
	if err != nil {
		return status.Errorf(status.WriteFailed, "unable to serialize metadata: %v", err)
	}
	if !s.fields.metadataWritten || !bytesEqual(metadataBytes, s.fields.lastWrittenMetadata) {
		record := &pb.ObservationStoreRecord{MetaData: metadata}
		if errStatus := s.writeRecord(record); errStatus != nil {
			return errStatus
		}
		s.fields.metadataWritten = true
		s.fields.lastWrittenMetadata = metadataBytes
	}

	record := &pb.ObservationStoreRecord{EncryptedObservation: message}
	if errStatus := s.writeRecord(record); errStatus != nil {
		return errStatus
	}

	if s.fields.activeBytesWritten >= s.maxBytesPerEnvelope {
		s.finalizeActiveFile()
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *FileObservationStore) openActiveFile() error {
	if s.fields.activeFile != nil {
		return nil
	}
	f, err := os.OpenFile(s.activeFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.fields.activeFile = f
	s.fields.activeWriter = bufio.NewWriter(f)
	s.fields.activeBytesWritten = 0
	return nil
}

func (s *FileObservationStore) writeRecord(record proto.Message) *status.Status {
	payload, err := proto.Marshal(record)
	if err != nil {
		return status.Errorf(status.WriteFailed, "unable to serialize record: %v", err)
	}
	n, err := wire.WriteRecord(s.fields.activeWriter, payload)
	if err != nil {
		return status.Errorf(status.WriteFailed, "unable to write record to %q: %v", s.activeFilePath, err)
	}
	if flushErr := s.fields.activeWriter.Flush(); flushErr != nil {
		return status.Errorf(status.WriteFailed, "unable to flush %q: %v", s.activeFilePath, flushErr)
	}
	s.fields.activeBytesWritten += int64(n)
	return nil
}

// finalizeActiveFile closes the active file and renames it to a
// timestamp-random finalized name, or deletes it if it is empty
// (original_source/encoder/file_observation_store.cc::FinalizeActiveFile).
// Must be called with s.mu held.
func (s *FileObservationStore) finalizeActiveFile() bool {
	if s.fields.activeFile != nil {
		_ = s.fields.activeWriter.Flush()
		_ = s.fields.activeFile.Close()
		s.fields.activeFile = nil
		s.fields.activeWriter = nil
	}
	s.fields.metadataWritten = false

	size, err := s.fs.FileSize(s.activeFilePath)
	if err != nil {
		return false
	}
	if size == 0 {
		_ = s.fs.Delete(s.activeFilePath)
		s.fields.activeBytesWritten = 0
		return false
	}

	newName := s.fullPath(generateFinalizedName())
	if err := s.fs.Rename(s.activeFilePath, newName); err != nil {
		return false
	}
	if newSize, err := s.fs.FileSize(newName); err == nil {
		s.fields.finalizedBytes += newSize
	}
	s.fields.activeBytesWritten = 0
	return true
}

func generateFinalizedName() string {
	millis := time.Now().UnixNano() / int64(time.Millisecond)
	n, err := rand.Int(rand.Reader, big.NewInt(9000000))
	random := int64(1000000)
	if err == nil {
		random += n.Int64()
	}
	return fmt.Sprintf("%013d-%07d.data", millis, random)
}

// getOldestFinalizedFile returns the lexicographically-smallest
// finalized file name not already taken; lexicographic order matches
// numeric order here because the timestamp prefix has fixed width.
func (s *FileObservationStore) getOldestFinalizedFile() (string, bool) {
	found := ""
	for _, name := range s.listFinalizedFiles() {
		if s.fields.filesTaken[name] {
			continue
		}
		if found == "" || name < found {
			found = name
		}
	}
	return found, found != ""
}

// TakeNextEnvelopeHolder removes and returns the oldest finalized file
// as an EnvelopeHolder, finalizing the active file first if no
// finalized file exists yet. Returns nil if the store is empty.
func (s *FileObservationStore) TakeNextEnvelopeHolder() *FileEnvelopeHolder {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.getOldestFinalizedFile()
	if !ok {
		if s.fields.activeFile == nil || s.fields.activeBytesWritten == 0 {
			return nil
		}
		if !s.finalizeActiveFile() {
			return nil
		}
		name, ok = s.getOldestFinalizedFile()
		if !ok {
			return nil
		}
	}

	s.fields.filesTaken[name] = true
	if size, err := s.fs.FileSize(s.fullPath(name)); err == nil {
		s.fields.finalizedBytes -= size
	}
	return newFileEnvelopeHolder(s.fs, s.rootDirectory, name)
}

// ReturnEnvelopeHolder restores a previously-taken envelope (e.g. after
// a failed upload) to the pool of finalized files.
func (s *FileObservationStore) ReturnEnvelopeHolder(h *FileEnvelopeHolder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range h.fileNames {
		delete(s.fields.filesTaken, name)
		if size, err := s.fs.FileSize(s.fullPath(name)); err == nil {
			s.fields.finalizedBytes += size
		}
	}
	h.fileNames = make(map[string]bool)
}

// Size returns the total number of bytes held by the store, finalized
// files plus the active file.
func (s *FileObservationStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.fields.finalizedBytes
	if s.fields.activeFile != nil {
		size += s.fields.activeBytesWritten
	}
	return size
}

func (s *FileObservationStore) Empty() bool { return s.Size() == 0 }

// Delete removes every file in the store, for test cleanup.
func (s *FileObservationStore) Delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, _ := s.fs.ListFiles(s.rootDirectory)
	for _, name := range names {
		_ = s.fs.Delete(s.fullPath(name))
	}
	_ = s.fs.Delete(s.rootDirectory)
}
