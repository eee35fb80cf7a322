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

// Package ingest buffers incoming encrypted observations received at
// the upload endpoint, grouped by ObservationMetadata, until enough
// have accumulated to hand a batch to the RapporAnalyzer; observations
// that wait too long below that threshold are discarded. Grounded on shuffler/src/storage/leveldb_store.go and
// shuffler/src/storage/rowkey.go's bucket-key scheme, repurposed from
// "shuffler buffering observations for the analyzer" to "analyzer-side
// intake buffering observations for the lasso/rappor pipeline".
package ingest

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/util"
)

const keySeparator = "."

// bucketKey returns a stable string key for an ObservationMetadata,
// the base64url encoding of its whole serialized form, used both as the bucketSizes map key and as the leveldb row-key
// prefix.
func bucketKey(metadata *pb.ObservationMetadata) (string, error) {
	if metadata == nil {
		return "", fmt.Errorf("ingest: metadata is nil")
	}
	serialized, err := proto.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

// bucketKeyToMetadata reverses bucketKey.
func bucketKeyToMetadata(key string) (*pb.ObservationMetadata, error) {
	serialized, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, err
	}
	metadata := &pb.ObservationMetadata{}
	if err := proto.Unmarshal(serialized, metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// rowKey generates a new, randomly suffixed leveldb key under bKey's
// prefix, so distinct observations sharing one ObservationMetadata
// sort in a random, unlinkable order (same purpose as the teacher's
// NewRowKey).
func rowKey(bKey string, rand util.Random) (key []byte, id string, err error) {
	randomBytes, err := rand.RandomBytes(16)
	if err != nil {
		return nil, "", err
	}
	id = base64.RawURLEncoding.EncodeToString(randomBytes)
	return []byte(strings.Join([]string{bKey, id}, keySeparator)), id, nil
}
