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

package encoder

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/fuchsia-br/cobalt-core/config"
	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
	"github.com/fuchsia-br/cobalt-core/util"
)

// forculusPrime is the modulus of the field Forculus' Shamir
// polynomials are evaluated over: a 256-bit prime, large enough
// that plaintext-derived key material and random shares are
// effectively uniform. No implementation of Forculus is present in
// original_source/ (confirmed absent from its _INDEX.md); this is the
// standard threshold secret-sharing construction named in GLOSSARY
// ("Forculus"), not copied from a retrieved source file — see
// DESIGN.md.
var forculusPrime, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)

// polynomialFromPlaintext deterministically derives degree+1
// coefficients (coefficient 0 is the secret K) from plaintext, so that
// every client encoding the same plaintext under the same threshold
// builds the identical polynomial: coefficients are an HKDF-like
// expansion of SHA-256(plaintext || threshold || index).
func polynomialFromPlaintext(plaintext []byte, threshold uint32) []*big.Int {
	degree := int(threshold) - 1
	coeffs := make([]*big.Int, degree+1)
	for i := 0; i <= degree; i++ {
		h := sha256.New()
		h.Write(plaintext)
		h.Write([]byte{byte(threshold), byte(threshold >> 8), byte(threshold >> 16), byte(threshold >> 24)})
		h.Write([]byte{byte(i), byte(i >> 8)})
		digest := h.Sum(nil)
		coeffs[i] = new(big.Int).Mod(new(big.Int).SetBytes(digest), forculusPrime)
	}
	return coeffs
}

func evalPolynomial(coeffs []*big.Int, x *big.Int) *big.Int {
	result := new(big.Int)
	power := big.NewInt(1)
	for _, c := range coeffs {
		term := new(big.Int).Mul(c, power)
		result.Add(result, term)
		result.Mod(result, forculusPrime)
		power.Mul(power, x)
		power.Mod(power, forculusPrime)
	}
	return result
}

// EncodeForculus encrypts str under Forculus threshold encryption: the
// server can recover str only once at least threshold distinct clients
// submit an observation for the same str under the same report.
func (e *Encoder) EncodeForculus(ref config.MetricRef, report *config.ReportDefinition, dayIndex uint32, str string) (*Result, *status.Status) {
	if report.Threshold < 2 {
		return nil, status.Errorf(status.InvalidConfig, "forculus threshold %d < 2", report.Threshold)
	}

	plaintext := []byte(str)
	coeffs := polynomialFromPlaintext(plaintext, report.Threshold)

	x, err := rand.Int(rand.Reader, forculusPrime)
	if err != nil {
		return nil, status.Errorf(status.Other, "failed to draw share x: %v", err)
	}
	if x.Sign() == 0 {
		x.SetInt64(1)
	}
	y := evalPolynomial(coeffs, x)

	key := sha256.Sum256(coeffs[0].Bytes())
	cipher, cipherErr := util.NewSymmetricCipher(key[:])
	if cipherErr != nil {
		return nil, status.Errorf(status.Other, "failed to build forculus cipher: %v", cipherErr)
	}
	nonce, err := e.rand.RandomBytes(12)
	if err != nil {
		return nil, status.Errorf(status.Other, "failed to draw nonce: %v", err)
	}
	ciphertext, cipherErr := cipher.Encrypt(plaintext, nonce)
	if cipherErr != nil {
		return nil, status.Errorf(status.Other, "forculus encryption failed: %v", cipherErr)
	}

	randomId, errStatus := e.newRandomId()
	if errStatus != nil {
		return nil, errStatus
	}
	obs := &pb.Observation{
		RandomId: randomId,
		Forculus: &pb.ForculusObservation{
			Ciphertext: append(nonce, ciphertext...),
			PointX:     x.Bytes(),
			PointY:     y.Bytes(),
		},
	}
	return &Result{Observation: obs, Metadata: e.buildMetadata(ref, report, dayIndex)}, nil
}
