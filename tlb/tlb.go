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

// Package tlb implements the TL-B object model: schema types that read and
// write themselves through cell builders and parsers.
package tlb

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blinklabs-io/goton/cell"
)

// ErrSchemaMismatch indicates data that does not match the expected schema
var ErrSchemaMismatch = errors.New("tlb schema mismatch")

// Marshaler is implemented by types that can write themselves to a cell
// builder
type Marshaler interface {
	MarshalTLB(b *cell.Builder) error
}

// Unmarshaler is implemented by types that can read themselves from a cell
// parser
type Unmarshaler interface {
	UnmarshalTLB(p *cell.Parser) error
}

// Prefix is a constructor tag stored ahead of a type's fields
type Prefix struct {
	Value  uint64
	BitLen int
}

// PrefixError indicates a constructor tag other than the expected one
type PrefixError struct {
	Expected Prefix
	Actual   uint64
}

func (e PrefixError) Error() string {
	return fmt.Sprintf(
		"unexpected prefix: expected %#x (%d bits), got %#x",
		e.Expected.Value,
		e.Expected.BitLen,
		e.Actual,
	)
}

func (PrefixError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// WritePrefix stores a constructor tag
func WritePrefix(b *cell.Builder, pfx Prefix) error {
	if pfx.BitLen == 0 {
		return nil
	}
	return b.StoreUint(pfx.Value, pfx.BitLen)
}

// VerifyPrefix loads a constructor tag and restores the cursor on mismatch
func VerifyPrefix(p *cell.Parser, pfx Prefix) error {
	if pfx.BitLen == 0 {
		return nil
	}
	actual, err := p.LoadUint(pfx.BitLen)
	if err != nil {
		return err
	}
	if actual != pfx.Value {
		if err := p.Seek(-pfx.BitLen); err != nil {
			return err
		}
		return PrefixError{Expected: pfx, Actual: actual}
	}
	return nil
}

// peekPrefix loads a constructor tag and always restores the cursor
func peekPrefix(p *cell.Parser, bitLen int) (uint64, error) {
	val, err := p.LoadUint(bitLen)
	if err != nil {
		return 0, err
	}
	if err := p.Seek(-bitLen); err != nil {
		return 0, err
	}
	return val, nil
}

// ToCell serializes a value into a fresh cell
func ToCell(v Marshaler) (*cell.Cell, error) {
	builder := cell.NewBuilder()
	if err := v.MarshalTLB(builder); err != nil {
		return nil, err
	}
	return builder.Build()
}

// FromCell parses a value from a cell, requiring all bits and references to
// be consumed
func FromCell(c *cell.Cell, v Unmarshaler) error {
	parser := c.Parser()
	if err := v.UnmarshalTLB(parser); err != nil {
		return err
	}
	return parser.EnsureEmpty()
}

// CellHash returns the representation hash of the value's cell form
func CellHash(v Marshaler) (cell.Hash, error) {
	c, err := ToCell(v)
	if err != nil {
		return cell.Hash{}, err
	}
	return c.Hash(), nil
}

// ToBoc serializes a value as a single-root bag of cells
func ToBoc(v Marshaler, addCrc32c bool) ([]byte, error) {
	c, err := ToCell(v)
	if err != nil {
		return nil, err
	}
	return c.ToBoc(addCrc32c)
}

func ToBocHex(v Marshaler, addCrc32c bool) (string, error) {
	data, err := ToBoc(v, addCrc32c)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func ToBocBase64(v Marshaler, addCrc32c bool) (string, error) {
	data, err := ToBoc(v, addCrc32c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FromBoc parses a value from a single-root bag of cells
func FromBoc(data []byte, v Unmarshaler) error {
	root, err := cell.FromBoc(data)
	if err != nil {
		return err
	}
	return FromCell(root, v)
}

func FromBocHex(s string, v Unmarshaler) error {
	root, err := cell.FromBocHex(s)
	if err != nil {
		return err
	}
	return FromCell(root, v)
}

func FromBocBase64(s string, v Unmarshaler) error {
	root, err := cell.FromBocBase64(s)
	if err != nil {
		return err
	}
	return FromCell(root, v)
}
