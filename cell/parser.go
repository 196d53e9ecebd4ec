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

package cell

import (
	"fmt"
	"math/big"
)

// Parser walks a cell's data bits and references in order. Every load
// operation checks bounds and never reads past the cell.
type Parser struct {
	bits    bitReader
	refs    []*Cell
	nextRef int
}

func newParser(data []byte, bitLen int, refs []*Cell) *Parser {
	return &Parser{
		bits: bitReader{data: data, bitLen: bitLen},
		refs: refs,
	}
}

func (p *Parser) RemainingBits() int {
	return p.bits.remaining()
}

// RemainingBytes returns the number of whole bytes left to read
func (p *Parser) RemainingBytes() int {
	return p.bits.remaining() / 8
}

func (p *Parser) RemainingRefs() int {
	return len(p.refs) - p.nextRef
}

func (p *Parser) ensureBits(bitLen int) error {
	if p.bits.remaining() < bitLen {
		return UnderflowError{
			Requested: bitLen,
			Remaining: p.bits.remaining(),
		}
	}
	return nil
}

func (p *Parser) LoadBit() (bool, error) {
	if err := p.ensureBits(1); err != nil {
		return false, err
	}
	return p.bits.readBit(), nil
}

// LoadUint loads a bitLen-bit unsigned value, most-significant first
func (p *Parser) LoadUint(bitLen int) (uint64, error) {
	if bitLen < 0 || bitLen > 64 {
		return 0, fmt.Errorf("invalid uint bit length %d", bitLen)
	}
	if err := p.ensureBits(bitLen); err != nil {
		return 0, err
	}
	return p.bits.readValue(bitLen), nil
}

// LoadInt loads a bitLen-bit two's complement value
func (p *Parser) LoadInt(bitLen int) (int64, error) {
	if bitLen < 1 || bitLen > 64 {
		return 0, fmt.Errorf("invalid int bit length %d", bitLen)
	}
	if err := p.ensureBits(bitLen); err != nil {
		return 0, err
	}
	val := p.bits.readValue(bitLen)
	if bitLen < 64 && val&(1<<(bitLen-1)) != 0 {
		val |= ^uint64(0) << bitLen
	}
	return int64(val), nil
}

func (p *Parser) LoadByte() (byte, error) {
	val, err := p.LoadUint(8)
	if err != nil {
		return 0, err
	}
	return byte(val), nil
}

// LoadBytes loads numBytes whole bytes at the current bit position
func (p *Parser) LoadBytes(numBytes int) ([]byte, error) {
	return p.LoadBits(numBytes * 8)
}

// LoadBits loads bitLen bits left-aligned into a fresh byte slice
func (p *Parser) LoadBits(bitLen int) ([]byte, error) {
	if bitLen < 0 {
		return nil, fmt.Errorf("invalid bit length %d", bitLen)
	}
	if err := p.ensureBits(bitLen); err != nil {
		return nil, err
	}
	return p.bits.readBits(bitLen), nil
}

func (p *Parser) LoadString(numBytes int) (string, error) {
	data, err := p.LoadBytes(numBytes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Parser) LoadHash() (Hash, error) {
	var h Hash
	if err := p.ensureBits(8 * HashSize); err != nil {
		return h, err
	}
	copy(h[:], p.bits.readBits(8*HashSize))
	return h, nil
}

// LoadBigUint loads a bitLen-bit unsigned big integer
func (p *Parser) LoadBigUint(bitLen int) (*big.Int, error) {
	if bitLen < 0 {
		return nil, fmt.Errorf("invalid bit length %d", bitLen)
	}
	if err := p.ensureBits(bitLen); err != nil {
		return nil, err
	}
	val := new(big.Int)
	for i := 0; i < bitLen; i++ {
		val.Lsh(val, 1)
		if p.bits.readBit() {
			val.SetBit(val, 0, 1)
		}
	}
	return val, nil
}

// LoadBigInt loads a bitLen-bit two's complement big integer
func (p *Parser) LoadBigInt(bitLen int) (*big.Int, error) {
	val, err := p.LoadBigUint(bitLen)
	if err != nil {
		return nil, err
	}
	if bitLen > 0 && val.Bit(bitLen-1) == 1 {
		ceiling := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
		val.Sub(val, ceiling)
	}
	return val, nil
}

// LoadCoins loads a 4-bit byte count followed by that many magnitude bytes
func (p *Parser) LoadCoins() (*big.Int, error) {
	numBytes, err := p.LoadUint(4)
	if err != nil {
		return nil, err
	}
	return p.LoadBigUint(int(numBytes) * 8)
}

// LoadUnaryLength counts consecutive 1 bits up to the terminating 0
func (p *Parser) LoadUnaryLength() (int, error) {
	n := 0
	for {
		bit, err := p.LoadBit()
		if err != nil {
			return 0, err
		}
		if !bit {
			return n, nil
		}
		n++
	}
}

// NextRef returns the next unread reference
func (p *Parser) NextRef() (*Cell, error) {
	if p.nextRef >= len(p.refs) {
		return nil, fmt.Errorf(
			"%w: all %d references read",
			ErrRefUnderflow,
			len(p.refs),
		)
	}
	ref := p.refs[p.nextRef]
	p.nextRef++
	return ref, nil
}

// LoadMaybeRef loads a presence bit and, when set, the next reference.
// Returns nil for an absent value.
func (p *Parser) LoadMaybeRef() (*Cell, error) {
	present, err := p.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return p.NextRef()
}

// LoadEitherCellRef loads a layout bit: 0 means the cell is inline in the
// remaining bits and references, 1 means it is the next reference
func (p *Parser) LoadEitherCellRef() (*Cell, error) {
	isRef, err := p.LoadBit()
	if err != nil {
		return nil, err
	}
	if isRef {
		return p.NextRef()
	}
	return p.LoadRemaining()
}

// LoadRemaining gathers all remaining bits and unread references into a new
// cell
func (p *Parser) LoadRemaining() (*Cell, error) {
	builder := NewBuilder()
	if err := builder.StoreRemaining(p); err != nil {
		return nil, err
	}
	return builder.Build()
}

// SkipBits advances past bitLen bits
func (p *Parser) SkipBits(bitLen int) error {
	if err := p.ensureBits(bitLen); err != nil {
		return err
	}
	p.bits.pos += bitLen
	return nil
}

// Seek moves the bit cursor by offset, which may be negative
func (p *Parser) Seek(offset int) error {
	newPos := p.bits.pos + offset
	if newPos < 0 || newPos > p.bits.bitLen {
		return UnderflowError{
			Requested: offset,
			Remaining: p.bits.remaining(),
		}
	}
	p.bits.pos = newPos
	return nil
}

// EnsureEmpty errors unless every bit and reference has been read
func (p *Parser) EnsureEmpty() error {
	if p.RemainingBits() != 0 || p.RemainingRefs() != 0 {
		return NonEmptyParserError{
			RemainingBits: p.RemainingBits(),
			RemainingRefs: p.RemainingRefs(),
		}
	}
	return nil
}
