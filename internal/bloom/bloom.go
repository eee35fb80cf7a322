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

// Package bloom implements the candidate-hashing scheme shared by the
// client-side String RAPPOR encoder and the server-side RapporAnalyzer,
// so that the bits a client sets and the bits the analyzer's candidate
// matrix predicts land on the same indices.
package bloom

import (
	"crypto/sha256"
	"encoding/binary"
)

// BitIndices returns the distinct Bloom-filter bit positions that
// numHashes hash functions map candidate to within a cohort, each index
// in [0, numBits). Positions are in the client's byte layout: index i
// is bit 7-i%8 of data[i/8], so index 0 is the most-significant bit of
// the first byte. A single SHA-256 digest of
// (candidate, cohort, numHashes) is computed and numHashes bit indices
// are extracted from it, each reduced modulo numBits.
func BitIndices(candidate []byte, cohort, numHashes, numBits uint32) []uint32 {
	h := sha256.New()
	h.Write(candidate)
	var cohortBuf [4]byte
	binary.BigEndian.PutUint32(cohortBuf[:], cohort)
	h.Write(cohortBuf[:])
	var hashesBuf [4]byte
	binary.BigEndian.PutUint32(hashesBuf[:], numHashes)
	h.Write(hashesBuf[:])
	digest := h.Sum(nil)

	seen := make(map[uint32]bool, numHashes)
	indices := make([]uint32, 0, numHashes)
	for i := uint32(0); i < numHashes; i++ {
		// Consume 4 bytes per hash, from the right (end) of the digest.
		byteOffset := len(digest) - 4 - int(i)*4
		if byteOffset < 0 {
			byteOffset = ((int(i) * 7) % (len(digest) - 4))
		}
		raw := binary.BigEndian.Uint32(digest[byteOffset : byteOffset+4])
		idx := raw % numBits
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}
	return indices
}
