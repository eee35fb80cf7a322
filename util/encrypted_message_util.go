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
	"encoding/pem"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/fuchsia-br/cobalt-core/pb"
	"github.com/fuchsia-br/cobalt-core/status"
)

// EncryptedMessageMaker builds EncryptedMessages for the ObservationWriter
// (encrypting to the analyzer's key) and the ShippingManager (encrypting
// to the shuffler's key). Adapted from the teacher's
// shuffler/src/util/encrypted_message_util.go.
type EncryptedMessageMaker struct {
	hybridCipher     *HybridCipher
	encryptionScheme pb.EncryptionScheme
}

// NewEncryptedMessageMaker constructs a maker for the given scheme.
// SchemeNone sends plaintext (never valid in production); SchemeHybridECDHV1
// requires publicKeyPem to be a PEM encoding of a recipient public key.
// Returns nil if publicKeyPem cannot be parsed.
func NewEncryptedMessageMaker(publicKeyPem string, scheme pb.EncryptionScheme) *EncryptedMessageMaker {
	var cipher *HybridCipher
	if scheme == pb.SchemeHybridECDHV1 {
		block, _ := pem.Decode([]byte(publicKeyPem))
		if block == nil {
			glog.Errorln("Failed to decode publicKeyPem.")
			return nil
		}
		cipher = NewHybridCipher(nil, block.Bytes)
		if cipher == nil {
			glog.Errorln("Failed to construct a HybridCipher.")
			return nil
		}
	}
	return &EncryptedMessageMaker{hybridCipher: cipher, encryptionScheme: scheme}
}

// Encrypt serializes and encrypts message, returning an EncryptedMessage.
func (m *EncryptedMessageMaker) Encrypt(message proto.Message) (*pb.EncryptedMessage, *status.Status) {
	if m == nil {
		return nil, status.Errorf(status.InvalidArguments, "EncryptedMessageMaker is nil")
	}
	if message == nil {
		return nil, status.Errorf(status.InvalidArguments, "message is nil")
	}
	serialized, err := proto.Marshal(message)
	if err != nil {
		return nil, status.Errorf(status.InvalidArguments, "message could not be serialized: %v", err)
	}

	encrypted := &pb.EncryptedMessage{Scheme: int32(m.encryptionScheme)}
	if m.encryptionScheme == pb.SchemeNone {
		encrypted.Ciphertext = serialized
		return encrypted, nil
	}
	if m.encryptionScheme != pb.SchemeHybridECDHV1 {
		return nil, status.Errorf(status.Other, "unexpected encryption scheme: %v", m.encryptionScheme)
	}
	if m.hybridCipher == nil {
		return nil, status.Errorf(status.Other, "hybrid cipher is nil")
	}
	ciphertext, err := m.hybridCipher.Encrypt(serialized)
	if err != nil {
		return nil, status.Errorf(status.Other, "encryption failed: %v", err)
	}
	encrypted.Ciphertext = ciphertext
	return encrypted, nil
}

// MessageDecrypter reverses EncryptedMessageMaker given a private key.
type MessageDecrypter struct {
	hybridCipher *HybridCipher
}

// NewMessageDecrypter builds a decrypter. If privateKeyPem does not
// parse, the resulting decrypter can still handle SchemeNone messages.
func NewMessageDecrypter(privateKeyPem string) *MessageDecrypter {
	var hybridCipher *HybridCipher
	block, _ := pem.Decode([]byte(privateKeyPem))
	if block == nil {
		glog.V(1).Infoln("Failed to decode privateKeyPem.")
	} else {
		hybridCipher = NewHybridCipher(block.Bytes, nil)
	}
	return &MessageDecrypter{hybridCipher: hybridCipher}
}

// DecryptMessage decrypts encryptedMessage and unmarshals the result
// into outMessage.
func (m *MessageDecrypter) DecryptMessage(encryptedMessage *pb.EncryptedMessage, outMessage proto.Message) *status.Status {
	if m == nil {
		return status.Errorf(status.InvalidArguments, "MessageDecrypter is nil")
	}
	if encryptedMessage == nil {
		return status.Errorf(status.InvalidArguments, "encryptedMessage is nil")
	}
	if outMessage == nil {
		return status.Errorf(status.InvalidArguments, "outMessage is nil")
	}
	scheme := pb.EncryptionScheme(encryptedMessage.Scheme)
	if scheme == pb.SchemeNone {
		if err := proto.Unmarshal(encryptedMessage.Ciphertext, outMessage); err != nil {
			return status.Errorf(status.InvalidArguments, "unable to unmarshal ciphertext: %v", err)
		}
		return nil
	}
	if scheme != pb.SchemeHybridECDHV1 {
		return status.Errorf(status.InvalidArguments, "unrecognized encryption scheme: %v", scheme)
	}
	if m.hybridCipher == nil {
		return status.Errorf(status.Other, "hybrid cipher is nil")
	}
	recovered, err := m.hybridCipher.Decrypt(encryptedMessage.Ciphertext)
	if err != nil {
		return status.Errorf(status.InvalidArguments, "decryption error: %v", err)
	}
	if err := proto.Unmarshal(recovered, outMessage); err != nil {
		return status.Errorf(status.InvalidArguments, "unable to unmarshal decrypted text: %v", err)
	}
	return nil
}
