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
	mathbits "math/bits"
)

// Builder assembles a cell bit by bit. Store operations fail rather than
// truncate once the 1023-bit or 4-reference limits would be exceeded.
type Builder struct {
	bits     bitWriter
	refs     []*Cell
	isExotic bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// BitsStored returns the number of data bits stored so far
func (b *Builder) BitsStored() int {
	return b.bits.bitLen
}

// RemainingBits returns the number of data bits that can still be stored
func (b *Builder) RemainingBits() int {
	return MaxCellBits - b.bits.bitLen
}

func (b *Builder) RefsStored() int {
	return len(b.refs)
}

// SetExotic marks the built cell as exotic; its type is taken from the
// first data byte at Build time.
func (b *Builder) SetExotic(isExotic bool) {
	b.isExotic = isExotic
}

func (b *Builder) checkCapacity(bitLen int) error {
	if b.bits.bitLen+bitLen > MaxCellBits {
		return CapacityError{Requested: bitLen, Used: b.bits.bitLen}
	}
	return nil
}

func (b *Builder) StoreBit(v bool) error {
	if err := b.checkCapacity(1); err != nil {
		return err
	}
	b.bits.writeBit(v)
	return nil
}

// StoreUint stores val in exactly bitLen bits, most-significant first
func (b *Builder) StoreUint(val uint64, bitLen int) error {
	if bitLen < 0 || bitLen > 64 {
		return fmt.Errorf("invalid uint bit length %d", bitLen)
	}
	if mathbits.Len64(val) > bitLen {
		return fmt.Errorf(
			"value %d does not fit in %d bits",
			val,
			bitLen,
		)
	}
	if err := b.checkCapacity(bitLen); err != nil {
		return err
	}
	b.bits.writeValue(val, bitLen)
	return nil
}

// StoreInt stores val as a bitLen-bit two's complement value
func (b *Builder) StoreInt(val int64, bitLen int) error {
	if bitLen < 1 || bitLen > 64 {
		return fmt.Errorf("invalid int bit length %d", bitLen)
	}
	if bitLen < 64 {
		if val >= int64(1)<<(bitLen-1) || val < -(int64(1)<<(bitLen-1)) {
			return fmt.Errorf(
				"value %d does not fit in %d bits",
				val,
				bitLen,
			)
		}
	}
	if err := b.checkCapacity(bitLen); err != nil {
		return err
	}
	mask := ^uint64(0)
	if bitLen < 64 {
		mask = (uint64(1) << bitLen) - 1
	}
	b.bits.writeValue(uint64(val)&mask, bitLen)
	return nil
}

func (b *Builder) StoreByte(val byte) error {
	return b.StoreUint(uint64(val), 8)
}

// StoreBytes stores whole bytes at the current bit position
func (b *Builder) StoreBytes(data []byte) error {
	if err := b.checkCapacity(len(data) * 8); err != nil {
		return err
	}
	b.bits.writeBytes(data)
	return nil
}

// StoreBits stores the first bitLen bits of data, most-significant first
func (b *Builder) StoreBits(data []byte, bitLen int) error {
	if len(data)*8 < bitLen {
		return fmt.Errorf(
			"data has %d bits, need %d",
			len(data)*8,
			bitLen,
		)
	}
	if err := b.checkCapacity(bitLen); err != nil {
		return err
	}
	b.bits.writeBits(data, bitLen)
	return nil
}

func (b *Builder) StoreString(val string) error {
	return b.StoreBytes([]byte(val))
}

func (b *Builder) StoreHash(hash Hash) error {
	return b.StoreBytes(hash[:])
}

// StoreBigUint stores a non-negative big integer in exactly bitLen bits
func (b *Builder) StoreBigUint(val *big.Int, bitLen int) error {
	if val.Sign() < 0 {
		return fmt.Errorf("cannot store negative value %s as unsigned", val)
	}
	if val.BitLen() > bitLen {
		return fmt.Errorf(
			"value %s needs %d bits, only %d available",
			val,
			val.BitLen(),
			bitLen,
		)
	}
	if err := b.checkCapacity(bitLen); err != nil {
		return err
	}
	for i := bitLen - 1; i >= 0; i-- {
		b.bits.writeBit(val.Bit(i) == 1)
	}
	return nil
}

// StoreBigInt stores a big integer as a bitLen-bit two's complement value
func (b *Builder) StoreBigInt(val *big.Int, bitLen int) error {
	if val.BitLen()+1 > bitLen {
		return fmt.Errorf(
			"value %s needs %d bits, only %d available",
			val,
			val.BitLen()+1,
			bitLen,
		)
	}
	if err := b.checkCapacity(bitLen); err != nil {
		return err
	}
	// big.Int.And treats operands as infinite two's complement
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bitLen))
	mask.Sub(mask, big.NewInt(1))
	wrapped := new(big.Int).And(val, mask)
	for i := bitLen - 1; i >= 0; i-- {
		b.bits.writeBit(wrapped.Bit(i) == 1)
	}
	return nil
}

// StoreCoins stores an amount as a 4-bit byte count followed by that many
// magnitude bytes
func (b *Builder) StoreCoins(val *big.Int) error {
	if val.Sign() < 0 {
		return fmt.Errorf("cannot store negative coin amount %s", val)
	}
	if val.Sign() == 0 {
		return b.StoreUint(0, 4)
	}
	numBytes := (val.BitLen() + 7) / 8
	if numBytes > 15 {
		return fmt.Errorf("coin amount %s does not fit in 15 bytes", val)
	}
	if err := b.StoreUint(uint64(numBytes), 4); err != nil {
		return err
	}
	return b.StoreBigUint(val, numBytes*8)
}

// StoreRef appends a reference to a finished cell
func (b *Builder) StoreRef(ref *Cell) error {
	if len(b.refs) >= MaxCellRefs {
		return fmt.Errorf("%w: cell already has %d", ErrTooManyReferences, MaxCellRefs)
	}
	if ref == nil {
		return fmt.Errorf("cannot store nil cell reference")
	}
	b.refs = append(b.refs, ref)
	return nil
}

// StoreBuilderRef builds the child and appends it as a reference
func (b *Builder) StoreBuilderRef(child *Builder) error {
	cell, err := child.Build()
	if err != nil {
		return err
	}
	return b.StoreRef(cell)
}

// StoreMaybeRef stores a presence bit followed by the reference when ref is
// not nil
func (b *Builder) StoreMaybeRef(ref *Cell) error {
	if ref == nil {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return b.StoreRef(ref)
}

// StoreCellData stores another cell's data bits inline, without its
// references
func (b *Builder) StoreCellData(cell *Cell) error {
	return b.StoreBits(cell.data, cell.bitLen)
}

// StoreCell stores another cell's data bits and references inline
func (b *Builder) StoreCell(cell *Cell) error {
	if err := b.StoreCellData(cell); err != nil {
		return err
	}
	for _, ref := range cell.refs {
		if err := b.StoreRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// StoreRemaining stores everything left in a parser: remaining bits and
// unread references
func (b *Builder) StoreRemaining(p *Parser) error {
	numBits := p.RemainingBits()
	data, err := p.LoadBits(numBits)
	if err != nil {
		return err
	}
	if err := b.StoreBits(data, numBits); err != nil {
		return err
	}
	for p.RemainingRefs() > 0 {
		ref, err := p.NextRef()
		if err != nil {
			return err
		}
		if err := b.StoreRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// EitherLayout selects how an either-cell field is stored
type EitherLayout int

const (
	// EitherLayoutNative stores inline when the cell fits in the remaining
	// bits, as a reference otherwise
	EitherLayoutNative EitherLayout = iota
	EitherLayoutInline
	EitherLayoutRef
)

// StoreEitherCellRef stores a cell either inline (preceded by a 0 bit) or as
// a reference (preceded by a 1 bit)
func (b *Builder) StoreEitherCellRef(cell *Cell, layout EitherLayout) error {
	if layout == EitherLayoutNative {
		if cell.bitLen < b.RemainingBits() {
			layout = EitherLayoutInline
		} else {
			layout = EitherLayoutRef
		}
	}
	switch layout {
	case EitherLayoutInline:
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return b.StoreCell(cell)
	case EitherLayoutRef:
		if err := b.StoreBit(true); err != nil {
			return err
		}
		return b.StoreRef(cell)
	}
	return fmt.Errorf("invalid either layout %d", layout)
}

// Build pads the data to a whole byte and returns the immutable cell
func (b *Builder) Build() (*Cell, error) {
	return NewCell(b.bits.buf, b.bits.bitLen, b.refs, b.isExotic)
}
