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

package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// Crypter is the pluggable encryption capability consumed wherever a
// component needs to turn plaintext bytes into ciphertext bytes
// without caring which scheme backs it; it is always injected, never
// reached for as global state.
type Crypter interface {
	Encrypt(plainText []byte, key string) (cipherText []byte)
	Decrypt(cipherText []byte, key string) (plainText []byte)
}

// NoOpCrypter is a pass-through Crypter, used when no analyzer/shuffler
// key is configured.
type NoOpCrypter struct{}

func (c *NoOpCrypter) Encrypt(plainText []byte, key string) (cipherText []byte) { return plainText }
func (c *NoOpCrypter) Decrypt(cipherText []byte, key string) (plainText []byte) { return cipherText }

// ellipticCurve is the curve used by the hybrid cipher's ECDH key
// agreement.
var ellipticCurve = elliptic.P256()

// SymmetricCipher is an AES-GCM authenticated cipher keyed by a raw
// 16/24/32-byte key, used by HybridCipher to protect the payload once a
// shared secret has been established via ECDH.
type SymmetricCipher struct {
	aead cipher.AEAD
}

// NewSymmetricCipher builds an AES-GCM cipher from a raw key. key must
// be 16, 24 or 32 bytes (selecting AES-128/192/256).
func NewSymmetricCipher(key []byte) (*SymmetricCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid AES key: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SymmetricCipher{aead: aead}, nil
}

// Encrypt seals plaintext under nonce, which must be aead.NonceSize()
// bytes (12 for AES-GCM).
func (c *SymmetricCipher) Encrypt(plaintext, nonce []byte) ([]byte, error) {
	if len(nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d, want %d", len(nonce), c.aead.NonceSize())
	}
	return c.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext sealed by Encrypt under the same nonce.
func (c *SymmetricCipher) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d, want %d", len(nonce), c.aead.NonceSize())
	}
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

// generateECKey generates a fresh P-256 key pair, returning the raw
// private scalar, the compressed public key encoding and the public
// key's affine coordinates.
func generateECKey() (privateKey, publicKey []byte, pubX, pubY *big.Int, err error) {
	priv, x, y, err := elliptic.GenerateKey(ellipticCurve, rand.Reader)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return priv, MarshalCompressed(ellipticCurve, x, y), x, y, nil
}

// HybridCipher implements Cobalt's elliptic-curve Diffie-Hellman-based
// hybrid encryption scheme (EncryptedMessage_HYBRID_ECDH_V1): for each
// message, an ephemeral EC key pair is generated, ECDH with the
// recipient's static key produces a shared secret, SHA-256 of the
// shared point's x-coordinate derives an AES-256-GCM key, and the
// ephemeral public key plus a random nonce are prepended to the
// AES-GCM ciphertext. The implementation file backing this scheme
// (referenced only by shuffler/src/util/crypto_util_test.go) is absent
// from the retrieved original_source/ pack; this is a standard ECIES
// construction over the existing MarshalCompressed/ySquared helpers,
// not copied from any retrieved source file (see DESIGN.md).
type HybridCipher struct {
	privateKey []byte
	publicX    *big.Int
	publicY    *big.Int
}

// NewHybridCipher builds a cipher able to encrypt (given a recipient
// public key) and/or decrypt (given this party's private key). Either
// may be nil if that direction is unused.
func NewHybridCipher(privateKey, publicKey []byte) *HybridCipher {
	h := &HybridCipher{privateKey: privateKey}
	if publicKey != nil {
		x, y := UnmarshalCompressedPoint(ellipticCurve, publicKey)
		if x == nil {
			return nil
		}
		h.publicX, h.publicY = x, y
	}
	return h
}

const hybridNonceSize = 12

// Encrypt seals plaintext to the recipient public key supplied at
// construction.
func (h *HybridCipher) Encrypt(plaintext []byte) ([]byte, error) {
	if h == nil || h.publicX == nil {
		return nil, fmt.Errorf("hybrid cipher has no recipient public key")
	}
	ephemeralPriv, ephemeralX, ephemeralY, err := elliptic.GenerateKey(ellipticCurve, rand.Reader)
	if err != nil {
		return nil, err
	}
	sharedX, _ := ellipticCurve.ScalarMult(h.publicX, h.publicY, ephemeralPriv)
	aesKey := sha256.Sum256(sharedX.Bytes())
	symCipher, err := NewSymmetricCipher(aesKey[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, hybridNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext, err := symCipher.Encrypt(plaintext, nonce)
	if err != nil {
		return nil, err
	}
	ephemeralPub := MarshalCompressed(ellipticCurve, ephemeralX, ephemeralY)

	out := make([]byte, 0, len(ephemeralPub)+len(nonce)+len(ciphertext))
	out = append(out, ephemeralPub...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decrypt opens ciphertext produced by Encrypt using this party's
// private key.
func (h *HybridCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if h == nil || h.privateKey == nil {
		return nil, fmt.Errorf("hybrid cipher has no private key")
	}
	pointLen := (ellipticCurve.Params().BitSize+7)>>3 + 1
	if len(ciphertext) < pointLen+hybridNonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	ephemeralX, ephemeralY := UnmarshalCompressedPoint(ellipticCurve, ciphertext[:pointLen])
	if ephemeralX == nil {
		return nil, fmt.Errorf("invalid ephemeral public key encoding")
	}
	nonce := ciphertext[pointLen : pointLen+hybridNonceSize]
	sealed := ciphertext[pointLen+hybridNonceSize:]

	sharedX, _ := ellipticCurve.ScalarMult(ephemeralX, ephemeralY, h.privateKey)
	aesKey := sha256.Sum256(sharedX.Bytes())
	symCipher, err := NewSymmetricCipher(aesKey[:])
	if err != nil {
		return nil, err
	}
	return symCipher.Decrypt(sealed, nonce)
}
