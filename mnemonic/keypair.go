// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mnemonic

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

// KeyPair is an ed25519 signing key pair. The secret key is the 64-byte
// expanded form: the 32-byte seed followed by the public key.
type KeyPair struct {
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
}

// NewKeyPairFromSeed expands a 32-byte seed into a key pair
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"seed must be %d bytes, got %d",
			ed25519.SeedSize,
			len(seed),
		)
	}
	secretKey := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		PublicKey: secretKey.Public().(ed25519.PublicKey),
		SecretKey: secretKey,
	}, nil
}

// NewKeyPairFromSecretKey accepts an external 64-byte secret key, verifying
// that its embedded public key matches the seed's scalar-base product
func NewKeyPairFromSecretKey(secretKey []byte) (*KeyPair, error) {
	if len(secretKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf(
			"secret key must be %d bytes, got %d",
			ed25519.PrivateKeySize,
			len(secretKey),
		)
	}
	derived, err := publicKeyFromSeed(secretKey[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(derived, secretKey[ed25519.SeedSize:]) {
		return nil, fmt.Errorf(
			"secret key's public part does not match its seed",
		)
	}
	kp := &KeyPair{
		PublicKey: make([]byte, ed25519.PublicKeySize),
		SecretKey: make([]byte, ed25519.PrivateKeySize),
	}
	copy(kp.SecretKey, secretKey)
	copy(kp.PublicKey, derived)
	return kp, nil
}

// publicKeyFromSeed recomputes the public key as the clamped scalar times
// the base point
func publicKeyFromSeed(seed []byte) ([]byte, error) {
	digest := sha512.Sum512(seed)
	scalar, err := new(edwards25519.Scalar).SetBytesWithClamping(digest[:32])
	if err != nil {
		return nil, err
	}
	point := new(edwards25519.Point).ScalarBaseMult(scalar)
	return point.Bytes(), nil
}

// Sign signs a message with the secret key
func (kp *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.SecretKey, message)
}

// Verify checks a signature against the public key
func (kp *KeyPair) Verify(message []byte, signature []byte) bool {
	return ed25519.Verify(kp.PublicKey, message, signature)
}
