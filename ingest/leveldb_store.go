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

package ingest

import (
	"runtime"
	"sync"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbutil "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/util"
)

// Buffer is a LevelDB-backed intake buffer keyed by ObservationMetadata,
// the same shape as the teacher's LevelDBStore, repurposed to feed the
// analyzer pipeline instead of the shuffler's shuffle-and-forward loop.
type Buffer struct {
	dbDir       string
	db          *leveldb.DB
	rand        util.Random
	mu          sync.RWMutex
	bucketSizes map[string]uint64
}

// NewBuffer opens (or creates) a buffer at dbDirPath.
func NewBuffer(dbDirPath string, rand util.Random) (*Buffer, *status.Status) {
	db, err := leveldb.OpenFile(dbDirPath, nil)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, status.Errorf(status.Other, "unable to open leveldb at %q: %v", dbDirPath, err)
	}
	b := &Buffer{dbDir: dbDirPath, db: db, rand: rand, bucketSizes: make(map[string]uint64)}
	if errStatus := b.initialize(); errStatus != nil {
		return nil, errStatus
	}
	return b, nil
}

func (b *Buffer) initialize() *status.Status {
	iter := b.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key())
		bKey := key
		if idx := lastSeparator(key); idx >= 0 {
			bKey = key[:idx]
		}
		b.bucketSizes[bKey]++
	}
	if err := iter.Error(); err != nil {
		return status.Errorf(status.Other, "leveldb iteration error: %v", err)
	}
	return nil
}

func lastSeparator(key string) int {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == keySeparator[0] {
			return i
		}
	}
	return -1
}

// Close releases the underlying database handle.
func (b *Buffer) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	runtime.GC()
	return err
}

// AddObservationBatches ingests every ObservationBatch in batches,
// stamping each observation with arrivalDayIndex
// (original_source/shuffler equivalent: LevelDBStore.AddAllObservations).
func (b *Buffer) AddObservationBatches(batches []*pb.ObservationBatch, arrivalDayIndex uint32) *status.Status {
	dbBatch := new(leveldb.Batch)
	deltas := make(map[string]uint64)

	for _, batch := range batches {
		if batch == nil || batch.MetaData == nil {
			return status.Errorf(status.InvalidArguments, "an ObservationBatch or its meta_data is unset")
		}
		bKey, err := bucketKey(batch.MetaData)
		if err != nil {
			return status.Errorf(status.Other, "unable to build bucket key: %v", err)
		}
		for _, encrypted := range batch.EncryptedObservation {
			if encrypted == nil {
				return status.Errorf(status.InvalidArguments, "a nil encrypted_observation under metadata %v", batch.MetaData)
			}
			key, id, err := rowKey(bKey, b.rand)
			if err != nil {
				return status.Errorf(status.Other, "unable to generate row key: %v", err)
			}
			value, err := proto.Marshal(&pb.IngestRecord{EncryptedObservation: encrypted, Id: id, ArrivalDayIndex: arrivalDayIndex})
			if err != nil {
				return status.Errorf(status.Other, "unable to serialize ingest record: %v", err)
			}
			dbBatch.Put(key, value)
			deltas[bKey]++
		}
	}

	if err := b.db.Write(dbBatch, &opt.WriteOptions{Sync: true}); err != nil {
		glog.Errorln("AddObservationBatches failed:", err)
		return status.Errorf(status.Other, "leveldb write failed: %v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for k, n := range deltas {
		b.bucketSizes[k] += n
	}
	return nil
}

// GetObservations returns every buffered record under metadata.
func (b *Buffer) GetObservations(metadata *pb.ObservationMetadata) ([]*pb.IngestRecord, *status.Status) {
	bKey, err := bucketKey(metadata)
	if err != nil {
		return nil, status.Errorf(status.InvalidArguments, "unable to build bucket key: %v", err)
	}
	rng := leveldbutil.BytesPrefix([]byte(bKey + keySeparator))
	iter := b.db.NewIterator(rng, nil)
	defer iter.Release()

	var records []*pb.IngestRecord
	for iter.Next() {
		record := &pb.IngestRecord{}
		if err := proto.Unmarshal(iter.Value(), record); err != nil {
			return nil, status.Errorf(status.Other, "unable to parse buffered record: %v", err)
		}
		records = append(records, record)
	}
	if err := iter.Error(); err != nil {
		return nil, status.Errorf(status.Other, "leveldb iterator error: %v", err)
	}
	return records, nil
}

// Keys returns every distinct ObservationMetadata currently buffered.
func (b *Buffer) Keys() ([]*pb.ObservationMetadata, *status.Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]*pb.ObservationMetadata, 0, len(b.bucketSizes))
	for bKey := range b.bucketSizes {
		metadata, err := bucketKeyToMetadata(bKey)
		if err != nil {
			return nil, status.Errorf(status.Other, "unable to parse bucket key: %v", err)
		}
		keys = append(keys, metadata)
	}
	return keys, nil
}

// Count returns the number of buffered observations under metadata.
func (b *Buffer) Count(metadata *pb.ObservationMetadata) (uint64, *status.Status) {
	bKey, err := bucketKey(metadata)
	if err != nil {
		return 0, status.Errorf(status.InvalidArguments, "unable to build bucket key: %v", err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bucketSizes[bKey], nil
}

// Delete removes the given records under metadata, e.g. after they've
// been dispatched to the analyzer or aged out.
func (b *Buffer) Delete(metadata *pb.ObservationMetadata, records []*pb.IngestRecord) *status.Status {
	if len(records) == 0 {
		return nil
	}
	bKey, err := bucketKey(metadata)
	if err != nil {
		return status.Errorf(status.InvalidArguments, "unable to build bucket key: %v", err)
	}
	batch := new(leveldb.Batch)
	for _, record := range records {
		batch.Delete([]byte(bKey + keySeparator + record.Id))
	}
	if err := b.db.Write(batch, nil); err != nil {
		return status.Errorf(status.Other, "leveldb write failed: %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bucketSizes[bKey] >= uint64(len(records)) {
		b.bucketSizes[bKey] -= uint64(len(records))
	} else {
		b.bucketSizes[bKey] = 0
	}
	return nil
}
