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

// Package mnemonic implements 24-word recovery phrases and their ed25519
// key derivation.
package mnemonic

import (
	"crypto/hmac"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidMnemonic indicates a phrase that fails validation
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// InvalidMnemonicError wraps the specific reason a phrase was rejected
type InvalidMnemonicError struct {
	Reason string
}

func (e InvalidMnemonicError) Error() string {
	return "invalid mnemonic: " + e.Reason
}

func (InvalidMnemonicError) Is(target error) bool {
	return target == ErrInvalidMnemonic
}

const (
	// WordCount is the required number of words in a phrase
	WordCount = 24

	pbkdf2Iterations = 100000
	seedLen          = 64

	saltSeed         = "TON default seed"
	saltSeedVersion  = "TON seed version"
	saltPasswordSeed = "TON fast seed version"
)

var englishWords = sync.OnceValue(func() map[string]struct{} {
	words := make(map[string]struct{}, len(wordlists.English))
	for _, w := range wordlists.English {
		words[w] = struct{}{}
	}
	return words
})

// Mnemonic is a validated 24-word recovery phrase with an optional password
type Mnemonic struct {
	words    []string
	password string
}

// New builds a mnemonic from its words, normalizing and validating them
func New(words []string, password string) (*Mnemonic, error) {
	m, err := newUnvalidated(words, password)
	if err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewUnvalidated builds a mnemonic without the derived-seed check, for
// callers carrying phrases validated elsewhere. Words are still normalized
// and checked against the word list.
func NewUnvalidated(words []string, password string) (*Mnemonic, error) {
	return newUnvalidated(words, password)
}

// FromString splits a whitespace-separated phrase
func FromString(phrase string, password string) (*Mnemonic, error) {
	return New(strings.Fields(phrase), password)
}

func newUnvalidated(words []string, password string) (*Mnemonic, error) {
	if len(words) != WordCount {
		return nil, InvalidMnemonicError{
			Reason: fmt.Sprintf("expected %d words, got %d", WordCount, len(words)),
		}
	}
	normalized := make([]string, WordCount)
	dictionary := englishWords()
	for i, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if _, ok := dictionary[word]; !ok {
			return nil, InvalidMnemonicError{
				Reason: fmt.Sprintf("unknown word %q", word),
			}
		}
		normalized[i] = word
	}
	return &Mnemonic{words: normalized, password: password}, nil
}

// Words returns the normalized phrase words
func (m *Mnemonic) Words() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// entropy is HMAC-SHA-512 keyed by the joined phrase over the password
func (m *Mnemonic) entropy(password string) []byte {
	mac := hmac.New(sha512.New, []byte(strings.Join(m.words, " ")))
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// validate checks the derived-seed markers: a passwordless phrase must
// yield a basic seed starting with 0; a password phrase must additionally
// yield a password seed starting with 1
func (m *Mnemonic) validate() error {
	passlessEntropy := m.entropy("")
	passlessValid := isBasicSeed(passlessEntropy)
	if m.password == "" {
		if !passlessValid {
			return InvalidMnemonicError{Reason: "seed marker check failed"}
		}
		return nil
	}
	passwordSeed := pbkdf2.Key(
		passlessEntropy,
		[]byte(saltPasswordSeed),
		1,
		seedLen,
		sha512.New,
	)
	if passwordSeed[0] != 1 {
		return InvalidMnemonicError{Reason: "password seed marker check failed"}
	}
	if isBasicSeed(m.entropy(m.password)) {
		return InvalidMnemonicError{
			Reason: "phrase validates without its password",
		}
	}
	return nil
}

func isBasicSeed(entropy []byte) bool {
	iterations := max(1, pbkdf2Iterations/256)
	seed := pbkdf2.Key(
		entropy,
		[]byte(saltSeedVersion),
		iterations,
		seedLen,
		sha512.New,
	)
	return seed[0] == 0
}

// ToKeyPair derives the signing key pair from the phrase
func (m *Mnemonic) ToKeyPair() (*KeyPair, error) {
	seed := pbkdf2.Key(
		m.entropy(m.password),
		[]byte(saltSeed),
		pbkdf2Iterations,
		seedLen,
		sha512.New,
	)
	return NewKeyPairFromSeed(seed[:32])
}
