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
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/fuchsia-br/cobalt-core/internal/wire"
	"github.com/fuchsia-br/cobalt-core/pb"
)

// FileEnvelopeHolder represents an Envelope as a set of finalized file
// names; observations are not read into memory until GetEnvelope() is
// called (original_source/encoder/file_observation_store.h).
type FileEnvelopeHolder struct {
	fs            FileSystem
	rootDirectory string
	fileNames     map[string]bool
	envelopeRead  bool
	envelope      *pb.Envelope
	cachedSize    int64
}

func newFileEnvelopeHolder(fs FileSystem, rootDirectory, fileName string) *FileEnvelopeHolder {
	return &FileEnvelopeHolder{
		fs:            fs,
		rootDirectory: rootDirectory,
		fileNames:     map[string]bool{fileName: true},
	}
}

func (h *FileEnvelopeHolder) fullPath(name string) string {
	return h.rootDirectory + string(os.PathSeparator) + name
}

// MergeWith absorbs other's file names into h, invalidating any cached
// envelope/size so they are recomputed from the combined file set.
func (h *FileEnvelopeHolder) MergeWith(other *FileEnvelopeHolder) {
	for name := range other.fileNames {
		h.fileNames[name] = true
	}
	other.fileNames = make(map[string]bool)
	h.envelope = nil
	h.envelopeRead = false
	h.cachedSize = 0
}

// GetEnvelope reads every held file into one Envelope, grouping
// encrypted observations into ObservationBatches by identical metadata.
// A file whose records can't all be parsed contributes whatever
// prefix parsed successfully; reading continues with the next file.
// A corrupt file is left as-is on disk: the reader truncates at the
// first bad record and moves on rather than deleting or rewriting it.
func (h *FileEnvelopeHolder) GetEnvelope() *pb.Envelope {
	if h.envelopeRead {
		return h.envelope
	}

	envelope := &pb.Envelope{}
	batchesByMetadata := make(map[string]*pb.ObservationBatch)
	var currentBatch *pb.ObservationBatch

	// current_batch persists across files, matching the original's single
	// loop variable declared outside the per-file read loop: a file that
	// opens with an observation record (no leading metadata of its own)
	// still lands in the batch established by the previous file.
	for name := range h.fileNames {
		h.readFileInto(name, envelope, batchesByMetadata, &currentBatch)
	}

	h.envelope = envelope
	h.envelopeRead = true
	return envelope
}

// readFileInto appends name's records into envelope/batchesByMetadata
// and returns false if the file ended with an unparsable record; the
// records read before it are kept.
func (h *FileEnvelopeHolder) readFileInto(name string, envelope *pb.Envelope, batchesByMetadata map[string]*pb.ObservationBatch, currentBatch **pb.ObservationBatch) bool {
	f, err := os.Open(h.fullPath(name))
	if err != nil {
		return true
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		payload, err := wire.ReadRecord(reader)
		if err == io.EOF {
			return true
		}
		if err != nil {
			glog.Warningf("corrupt record in %q, returning envelope read so far: %v", name, err)
			return false
		}
		record := &pb.ObservationStoreRecord{}
		if err := proto.Unmarshal(payload, record); err != nil {
			glog.Warningf("unparsable record in %q, returning envelope read so far: %v", name, err)
			return false
		}
		switch {
		case record.MetaData != nil:
			key, err := proto.Marshal(record.MetaData)
			if err != nil {
				return false
			}
			batch, ok := batchesByMetadata[string(key)]
			if !ok {
				batch = &pb.ObservationBatch{MetaData: record.MetaData}
				envelope.Batch = append(envelope.Batch, batch)
				batchesByMetadata[string(key)] = batch
			}
			*currentBatch = batch
		case record.EncryptedObservation != nil:
			if *currentBatch == nil {
				return false // observation record with no preceding metadata: corrupt
			}
			(*currentBatch).EncryptedObservation = append((*currentBatch).EncryptedObservation, record.EncryptedObservation)
		default:
			return false
		}
	}
}

// Size returns the total size in bytes of the held files.
func (h *FileEnvelopeHolder) Size() int64 {
	if h.cachedSize > 0 {
		return h.cachedSize
	}
	var total int64
	for name := range h.fileNames {
		if size, err := h.fs.FileSize(h.fullPath(name)); err == nil {
			total += size
		}
	}
	h.cachedSize = total
	return total
}

// Discard deletes every file backing this holder, releasing its disk
// space permanently (called once an envelope has shipped successfully;
// mirrors the teacher's FileEnvelopeHolder destructor).
func (h *FileEnvelopeHolder) Discard() {
	for name := range h.fileNames {
		_ = h.fs.Delete(h.fullPath(name))
	}
	h.fileNames = make(map[string]bool)
}
