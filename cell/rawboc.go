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
	"encoding/binary"
	"fmt"
	"hash/crc32"
	mathbits "math/bits"
)

// bocMagic is the serialized bag-of-cells prefix
const bocMagic = 0xb5ee9c72

const (
	bocFlagHasIdx       = 0x80
	bocFlagHasCrc32c    = 0x40
	bocFlagHasCacheBits = 0x20
)

var bocChecksumTable = crc32.MakeTable(crc32.Castagnoli)

// rawCell is the wire form of a single cell: flattened data plus indices of
// referenced cells within the same bag
type rawCell struct {
	data      []byte
	bitLen    int
	refs      []int
	levelMask uint32
	isExotic  bool
}

// rawBagOfCells is the wire form of a bag of cells before cells are linked
type rawBagOfCells struct {
	cells []rawCell
	roots []int
}

// byteReader is a bounds-checked cursor over untrusted input
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *byteReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, BocError{Reason: "unexpected end of input"}
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, BocError{Reason: "unexpected end of input"}
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// readVarSize reads an n-byte big-endian unsigned value, n up to 8
func (r *byteReader) readVarSize(n int) (int, error) {
	data, err := r.readBytes(n)
	if err != nil {
		return 0, err
	}
	var val uint64
	for _, b := range data {
		val = val<<8 | uint64(b)
	}
	if val > uint64(maxInt) {
		return 0, BocError{Reason: "size value out of range"}
	}
	return int(val), nil
}

const maxInt = int(^uint(0) >> 1)

// parseRawBoc decodes the bag-of-cells envelope without linking references
func parseRawBoc(data []byte) (*rawBagOfCells, error) {
	r := &byteReader{data: data}
	magic, err := r.readVarSize(4)
	if err != nil {
		return nil, err
	}
	if magic != bocMagic {
		return nil, BocError{
			Reason: fmt.Sprintf("unexpected magic 0x%08x", magic),
		}
	}
	header, err := r.readByte()
	if err != nil {
		return nil, err
	}
	hasIdx := header&bocFlagHasIdx != 0
	hasCrc32c := header&bocFlagHasCrc32c != 0
	sizeBytes := int(header & 0x07)
	if sizeBytes > 4 {
		return nil, BocError{
			Reason: fmt.Sprintf("invalid size byte count %d", sizeBytes),
		}
	}
	offBytesRaw, err := r.readByte()
	if err != nil {
		return nil, err
	}
	offBytes := int(offBytesRaw)
	if offBytes > 8 {
		return nil, BocError{
			Reason: fmt.Sprintf("invalid offset byte count %d", offBytes),
		}
	}
	numCells, err := r.readVarSize(sizeBytes)
	if err != nil {
		return nil, err
	}
	numRoots, err := r.readVarSize(sizeBytes)
	if err != nil {
		return nil, err
	}
	if _, err := r.readVarSize(sizeBytes); err != nil {
		// absent cells, unused
		return nil, err
	}
	if _, err := r.readVarSize(offBytes); err != nil {
		// total serialized cell size, unused
		return nil, err
	}
	// each serialized cell takes at least the two descriptor bytes
	if numCells > r.remaining()/2 {
		return nil, BocError{
			Reason: fmt.Sprintf("cell count %d exceeds input size", numCells),
		}
	}
	if numRoots > numCells {
		return nil, BocError{
			Reason: fmt.Sprintf(
				"root count %d exceeds cell count %d",
				numRoots,
				numCells,
			),
		}
	}
	raw := &rawBagOfCells{
		cells: make([]rawCell, 0, numCells),
		roots: make([]int, 0, numRoots),
	}
	for range numRoots {
		rootIdx, err := r.readVarSize(sizeBytes)
		if err != nil {
			return nil, err
		}
		if rootIdx >= numCells {
			return nil, BocError{
				Reason: fmt.Sprintf("root index %d out of range", rootIdx),
			}
		}
		raw.roots = append(raw.roots, rootIdx)
	}
	if hasIdx {
		if _, err := r.readBytes(numCells * offBytes); err != nil {
			return nil, err
		}
	}
	for range numCells {
		cell, err := parseRawCell(r, sizeBytes, numCells)
		if err != nil {
			return nil, err
		}
		raw.cells = append(raw.cells, cell)
	}
	if hasCrc32c {
		body := data[:r.pos]
		stored, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		checksum := crc32.Checksum(body, bocChecksumTable)
		if binary.LittleEndian.Uint32(stored) != checksum {
			return nil, BocError{Reason: "checksum mismatch"}
		}
	}
	return raw, nil
}

func parseRawCell(r *byteReader, sizeBytes int, numCells int) (rawCell, error) {
	d1, err := r.readByte()
	if err != nil {
		return rawCell{}, err
	}
	refNum := int(d1 & 0x07)
	isExotic := d1&0x08 != 0
	hasHashes := d1&0x10 != 0
	levelMask := uint32(d1 >> 5)
	if refNum > MaxCellRefs {
		return rawCell{}, BocError{
			Reason: fmt.Sprintf("cell has %d references", refNum),
		}
	}
	if hasHashes {
		hashCount := NewLevelMask(levelMask).HashCount()
		if _, err := r.readBytes(hashCount * (HashSize + depthSize)); err != nil {
			return rawCell{}, err
		}
	}
	d2, err := r.readByte()
	if err != nil {
		return rawCell{}, err
	}
	dataSize := int(d2>>1) + int(d2&1)
	fullBytes := d2&1 == 0
	rawData, err := r.readBytes(dataSize)
	if err != nil {
		return rawCell{}, err
	}
	data := make([]byte, dataSize)
	copy(data, rawData)
	bitLen := dataSize * 8
	if !fullBytes {
		if dataSize == 0 {
			return rawCell{}, BocError{Reason: "partial byte in empty cell"}
		}
		last := data[dataSize-1]
		if last == 0 {
			return rawCell{}, BocError{Reason: "missing completion tag"}
		}
		tag := mathbits.TrailingZeros8(last)
		data[dataSize-1] &^= 1 << tag
		bitLen = dataSize*8 - tag - 1
	}
	cell := rawCell{
		data:      data,
		bitLen:    bitLen,
		refs:      make([]int, 0, refNum),
		levelMask: levelMask,
		isExotic:  isExotic,
	}
	for range refNum {
		refIdx, err := r.readVarSize(sizeBytes)
		if err != nil {
			return rawCell{}, err
		}
		if refIdx >= numCells {
			return rawCell{}, BocError{
				Reason: fmt.Sprintf("reference index %d out of range", refIdx),
			}
		}
		cell.refs = append(cell.refs, refIdx)
	}
	return cell, nil
}

// serialize encodes the bag with minimal index and offset widths and
// has_idx unset
func (raw *rawBagOfCells) serialize(addCrc32c bool) ([]byte, error) {
	numRefBytes := (mathbits.Len32(uint32(len(raw.cells))) + 7) / 8
	if numRefBytes == 0 {
		numRefBytes = 1
	}
	fullSize := 0
	for i := range raw.cells {
		fullSize += raw.cells[i].serializedSize(numRefBytes)
	}
	numOffsetBytes := (mathbits.Len(uint(fullSize)) + 7) / 8
	if numOffsetBytes == 0 {
		numOffsetBytes = 1
	}

	out := make([]byte, 0, 11+len(raw.roots)*numRefBytes+fullSize+4)
	out = binary.BigEndian.AppendUint32(out, bocMagic)
	header := byte(numRefBytes)
	if addCrc32c {
		header |= bocFlagHasCrc32c
	}
	out = append(out, header, byte(numOffsetBytes))
	out = appendVarSize(out, len(raw.cells), numRefBytes)
	out = appendVarSize(out, len(raw.roots), numRefBytes)
	out = appendVarSize(out, 0, numRefBytes)
	out = appendVarSize(out, fullSize, numOffsetBytes)
	for _, rootIdx := range raw.roots {
		out = appendVarSize(out, rootIdx, numRefBytes)
	}
	for i := range raw.cells {
		cell := &raw.cells[i]
		d1 := byte(len(cell.refs)) | byte(cell.levelMask<<5)
		if cell.isExotic {
			d1 |= 0x08
		}
		d2 := byte(cell.bitLen/8 + (cell.bitLen+7)/8)
		out = append(out, d1, d2)
		out = appendPaddedData(out, cell.data, cell.bitLen)
		for _, refIdx := range cell.refs {
			out = appendVarSize(out, refIdx, numRefBytes)
		}
	}
	if addCrc32c {
		checksum := crc32.Checksum(out, bocChecksumTable)
		out = binary.LittleEndian.AppendUint32(out, checksum)
	}
	return out, nil
}

func (c *rawCell) serializedSize(numRefBytes int) int {
	return 2 + (c.bitLen+7)/8 + len(c.refs)*numRefBytes
}

func appendVarSize(out []byte, val int, numBytes int) []byte {
	for i := numBytes - 1; i >= 0; i-- {
		out = append(out, byte(val>>(8*i)))
	}
	return out
}
