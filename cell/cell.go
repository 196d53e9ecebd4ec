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
	"crypto/sha256"
	"fmt"
)

const (
	// MaxCellBits is the maximum number of data bits in a single cell
	MaxCellBits = 1023
	// MaxCellRefs is the maximum number of references in a single cell
	MaxCellRefs = 4
	// MaxLevel is the maximum merkle level of a cell
	MaxLevel = 3

	depthSize = 2
)

// Cell is an immutable bit string of up to 1023 bits with up to 4 references
// to other cells. Identity (hash and depth per merkle level) is computed at
// construction, so cells are safe for concurrent use.
type Cell struct {
	data      []byte
	bitLen    int
	refs      []*Cell
	cellType  CellType
	levelMask LevelMask
	hashes    [4]Hash
	depths    [4]uint16
}

// NewCell builds a validated cell from data bits and references. The data
// slice must hold at least bitLen bits; bits beyond bitLen are ignored.
func NewCell(data []byte, bitLen int, refs []*Cell, isExotic bool) (*Cell, error) {
	if bitLen > MaxCellBits {
		return nil, CapacityError{Used: bitLen}
	}
	if len(refs) > MaxCellRefs {
		return nil, fmt.Errorf(
			"%w: %d references",
			ErrTooManyReferences,
			len(refs),
		)
	}
	if len(data)*8 < bitLen {
		return nil, fmt.Errorf(
			"data has %d bits, need %d",
			len(data)*8,
			bitLen,
		)
	}
	for _, ref := range refs {
		if ref == nil {
			return nil, fmt.Errorf("nil cell reference")
		}
	}
	cellType := CellTypeOrdinary
	if isExotic {
		var err error
		cellType, err = exoticCellType(data, bitLen)
		if err != nil {
			return nil, err
		}
	}
	levelMask, err := cellLevelMask(cellType, data, bitLen, refs)
	if err != nil {
		return nil, err
	}
	if isExotic {
		if err := validateExotic(cellType, data, bitLen, refs); err != nil {
			return nil, err
		}
	}
	c := &Cell{
		data:      data[:(bitLen+7)/8],
		bitLen:    bitLen,
		refs:      refs,
		cellType:  cellType,
		levelMask: levelMask,
	}
	if err := c.computeHashes(); err != nil {
		return nil, err
	}
	return c, nil
}

// EmptyCell returns the ordinary cell with no data and no references.
func EmptyCell() *Cell {
	c, err := NewCell(nil, 0, nil, false)
	if err != nil {
		// cannot happen for an empty ordinary cell
		panic(err)
	}
	return c
}

// Data returns the underlying data bytes. The last byte may contain unused
// bits beyond BitLen. Callers must not modify the returned slice.
func (c *Cell) Data() []byte {
	return c.data
}

func (c *Cell) BitLen() int {
	return c.bitLen
}

// Refs returns the cell's references. Callers must not modify the returned
// slice.
func (c *Cell) Refs() []*Cell {
	return c.refs
}

// Ref returns the reference at the given index
func (c *Cell) Ref(idx int) (*Cell, error) {
	if idx < 0 || idx >= len(c.refs) {
		return nil, InvalidIndexError{Index: idx, RefCount: len(c.refs)}
	}
	return c.refs[idx], nil
}

func (c *Cell) CellType() CellType {
	return c.cellType
}

func (c *Cell) IsExotic() bool {
	return c.cellType != CellTypeOrdinary
}

func (c *Cell) LevelMask() LevelMask {
	return c.levelMask
}

// Hash returns the cell's representation hash at the maximum level
func (c *Cell) Hash() Hash {
	return c.HashForLevel(MaxLevel)
}

// HashForLevel returns the representation hash at the given merkle level
func (c *Cell) HashForLevel(level uint8) Hash {
	if level > MaxLevel {
		level = MaxLevel
	}
	return c.hashes[level]
}

// Depth returns the cell's depth at the maximum level
func (c *Cell) Depth() uint16 {
	return c.DepthForLevel(MaxLevel)
}

func (c *Cell) DepthForLevel(level uint8) uint16 {
	if level > MaxLevel {
		level = MaxLevel
	}
	return c.depths[level]
}

// Parser returns a new parser positioned at the start of the cell's data
func (c *Cell) Parser() *Parser {
	return newParser(c.data, c.bitLen, c.refs)
}

func (c *Cell) String() string {
	return fmt.Sprintf(
		"Cell{type=%s, bits=%d, refs=%d, hash=%s}",
		c.cellType,
		c.bitLen,
		len(c.refs),
		c.Hash(),
	)
}

// SnakeData reassembles a byte payload spread over a chain of cells, each
// holding whole bytes and continuing in its single reference.
func (c *Cell) SnakeData() ([]byte, error) {
	var out []byte
	cur := c
	for cur != nil {
		if cur.bitLen%8 != 0 {
			return nil, fmt.Errorf(
				"snake data cell has partial byte (%d bits)",
				cur.bitLen,
			)
		}
		if len(cur.refs) > 1 {
			return nil, fmt.Errorf(
				"snake data cell has %d references",
				len(cur.refs),
			)
		}
		out = append(out, cur.data[:cur.bitLen/8]...)
		if len(cur.refs) == 0 {
			break
		}
		cur = cur.refs[0]
	}
	return out, nil
}

// computeHashes fills the per-level hash and depth arrays. For each
// significant level the representation is d1 d2, padded data (the previous
// level's hash above the lowest stored level), then each reference's depth
// and hash at the child level.
func (c *Cell) computeHashes() error {
	hashCount := c.levelMask.HashCount()
	if c.cellType == CellTypePrunedBranch {
		hashCount = 1
	}
	hashIdxOffset := c.levelMask.HashCount() - hashCount
	hashes := make([]Hash, 0, hashCount)
	depths := make([]uint16, 0, hashCount)
	hashIdx := 0
	for level := uint8(0); level <= c.levelMask.Level(); level++ {
		if !c.levelMask.IsSignificant(level) {
			continue
		}
		if hashIdx < hashIdxOffset {
			hashIdx++
			continue
		}
		var curData []byte
		var curBitLen int
		if hashIdx == hashIdxOffset {
			if level != 0 && c.cellType != CellTypePrunedBranch {
				return ExoticCellError{
					Reason: "lowest stored hash must be at level 0",
				}
			}
			curData = c.data
			curBitLen = c.bitLen
		} else {
			prev := hashes[hashIdx-hashIdxOffset-1]
			curData = prev[:]
			curBitLen = 8 * HashSize
		}
		var depth uint16
		for _, ref := range c.refs {
			refDepth := childDepth(c.cellType, ref, level)
			if refDepth+1 > depth {
				depth = refDepth + 1
			}
		}
		repr := c.repr(level, curData, curBitLen)
		hashes = append(hashes, sha256.Sum256(repr))
		depths = append(depths, depth)
		hashIdx++
	}
	var err error
	c.hashes, c.depths, err = resolveHashesAndDepths(
		c.cellType,
		c.levelMask,
		c.data,
		c.bitLen,
		hashes,
		depths,
	)
	return err
}

// repr builds the representation that is hashed for the given level. The
// bits descriptor always reflects the cell's own data length.
func (c *Cell) repr(level uint8, curData []byte, curBitLen int) []byte {
	dataLen := (curBitLen + 7) / 8
	buf := make([]byte, 0, 2+dataLen+len(c.refs)*(depthSize+HashSize))
	buf = append(buf, c.refsDescriptor(level), c.bitsDescriptor())
	buf = appendPaddedData(buf, curData, curBitLen)
	for _, ref := range c.refs {
		depth := childDepth(c.cellType, ref, level)
		buf = append(buf, byte(depth>>8), byte(depth))
	}
	for _, ref := range c.refs {
		hash := childHash(c.cellType, ref, level)
		buf = append(buf, hash[:]...)
	}
	return buf
}

// refsDescriptor is d1: reference count, exotic flag and the level mask
// applied at the given level
func (c *Cell) refsDescriptor(level uint8) byte {
	d1 := byte(len(c.refs))
	if c.cellType != CellTypeOrdinary {
		d1 += 8
	}
	d1 += byte(c.levelMask.Apply(level).Mask()) * 32
	return d1
}

// bitsDescriptor is d2: full data bytes plus ceil bytes, odd when the last
// byte is partial
func (c *Cell) bitsDescriptor() byte {
	return byte(c.bitLen/8 + (c.bitLen+7)/8)
}

// appendPaddedData appends bitLen bits of data, setting the completion tag
// bit when the last byte is partial
func appendPaddedData(buf []byte, data []byte, bitLen int) []byte {
	dataLen := (bitLen + 7) / 8
	start := len(buf)
	buf = append(buf, data[:dataLen]...)
	if rest := bitLen % 8; rest != 0 {
		last := &buf[start+dataLen-1]
		*last &= ^byte((1 << (8 - rest)) - 1)
		*last |= 1 << (8 - rest - 1)
	}
	return buf
}
