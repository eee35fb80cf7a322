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
	"fmt"

	"github.com/golang/glog"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// Analyzer accepts one bucket's worth of buffered observations, destined
// for the RapporAnalyzer/lasso pipeline rather than the teacher's gRPC
// shuffler-to-analyzer hop.
type Analyzer interface {
	Analyze(batch *pb.ObservationBatch) error
}

// DispatchPolicy is the volume/age threshold under which a bucket is
// handed to the Analyzer or aged out, grounded on
// shuffler/src/dispatcher/dispatcher.go's dispatchInternal, repurposed
// from "shuffler forwards to analyzer" to "ingest buffer forwards to
// the RapporAnalyzer".
type DispatchPolicy struct {
	// Threshold is the minimum number of buffered observations a bucket
	// must hold before it is dispatched.
	Threshold uint64
	// BatchSize chunks a dispatched bucket into Analyze calls of at
	// most this many observations.
	BatchSize int
	// DisposalAgeDays discards observations that have sat below
	// Threshold for this many days, measured in arrival-day-index units.
	DisposalAgeDays uint32
}

// DispatchOnce walks every bucket currently buffered: buckets at or
// above Threshold are chunked into BatchSize-sized ObservationBatches
// and handed to analyzer, then erased from buf; buckets below Threshold
// are pruned of any observation older than DisposalAgeDays and left in
// place for the next dispatch attempt.
func DispatchOnce(buf *Buffer, policy DispatchPolicy, analyzer Analyzer, currentDayIndex uint32) *status.Status {
	keys, errStatus := buf.Keys()
	if errStatus != nil {
		return errStatus
	}

	for _, metadata := range keys {
		records, errStatus := buf.GetObservations(metadata)
		if errStatus != nil {
			glog.Errorf("ingest: GetObservations failed for %v: %v", metadata, errStatus)
			continue
		}

		if uint64(len(records)) >= policy.Threshold {
			if err := dispatchBucket(metadata, records, policy.BatchSize, analyzer); err != nil {
				glog.Errorf("ingest: dispatch failed for %v: %v", metadata, err)
				continue
			}
			if errStatus := buf.Delete(metadata, records); errStatus != nil {
				glog.Errorf("ingest: failed to erase dispatched bucket %v: %v", metadata, errStatus)
			}
			continue
		}

		if errStatus := pruneAged(buf, metadata, records, policy.DisposalAgeDays, currentDayIndex); errStatus != nil {
			glog.Errorf("ingest: failed to prune aged observations for %v: %v", metadata, errStatus)
		}
	}
	return nil
}

func dispatchBucket(metadata *pb.ObservationMetadata, records []*pb.IngestRecord, batchSize int, analyzer Analyzer) error {
	if batchSize <= 0 {
		return fmt.Errorf("ingest: invalid batch size %d", batchSize)
	}
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := &pb.ObservationBatch{MetaData: metadata}
		for _, record := range records[start:end] {
			batch.EncryptedObservation = append(batch.EncryptedObservation, record.EncryptedObservation)
		}
		if err := analyzer.Analyze(batch); err != nil {
			return err
		}
	}
	return nil
}

// pruneAged deletes every record older than disposalAgeDays and leaves
// the rest buffered (shuffler/src/dispatcher/dispatcher.go's
// updateObservations, adapted to arrival-day-index age rather than wall
// clock CreationTimestamp, since that's what IngestRecord carries).
func pruneAged(buf *Buffer, metadata *pb.ObservationMetadata, records []*pb.IngestRecord, disposalAgeDays uint32, currentDayIndex uint32) *status.Status {
	var aged []*pb.IngestRecord
	for _, record := range records {
		if currentDayIndex >= record.ArrivalDayIndex && currentDayIndex-record.ArrivalDayIndex >= disposalAgeDays {
			aged = append(aged, record)
		}
	}
	if len(aged) == 0 {
		return nil
	}
	return buf.Delete(metadata, aged)
}
