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

package config

// IdFromName computes a stable 32-bit id from a config element's name
// using FNV-1 (not FNV-1a): hash starts at the offset basis, is
// multiplied by the prime, then XORed with each input byte, in that
// order. Ported from original_source/config/id.cc.
func IdFromName(name string) uint32 {
	const (
		fnvPrime       uint32 = 0x1000193
		fnvOffsetBasis uint32 = 0x811c9dc5
	)
	hash := fnvOffsetBasis
	for i := 0; i < len(name); i++ {
		hash *= fnvPrime
		hash ^= uint32(name[i])
	}
	return hash
}
