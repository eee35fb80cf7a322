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

// Package rappor implements the server-side String RAPPOR analysis
// that inverts EncodeStringRappor's Bloom-filter + cohort + randomized-
// response encoding back into per-candidate population estimates. It
// is grounded on original_source/algorithms/rappor/{rappor_analyzer,
// lasso_runner,rappor_analyzer_utils}.{h,cc}.
package rappor

import "github.com/fuchsia-br/cobalt-core/config"

// Config holds the per-report RAPPOR parameters the analyzer needs to
// rebuild the candidate matrix and debias observed bit counts: the
// same three parameters (noise level, cohort count, bit count) the
// client encoder reads off the identical report
// (original_source/algorithms/rappor/rappor_config.h's RapporConfig),
// plus the fixed number of Bloom hash functions.
type Config struct {
	NumCohorts uint32
	NumBits    uint32
	NumHashes  uint32
	P, Q       float64
}

// NewConfig derives a Config from the same ReportDefinition fields
// EncodeStringRappor reads, so the analyzer always agrees with the
// client about cohort count, bit count and noise parameters.
func NewConfig(report *config.ReportDefinition) Config {
	p, q := config.ProbBitFlip(report.LocalPrivacyNoiseLevel)
	return Config{
		NumCohorts: config.NumCohorts(report.ExpectedPopulationSize, report.ExpectedPopulationSize != 0),
		NumBits:    config.NumBloomBits(report.ExpectedStringSetSize, report.ExpectedStringSetSize != 0),
		NumHashes:  config.StringRapporNumHashes,
		P:          p,
		Q:          q,
	}
}
