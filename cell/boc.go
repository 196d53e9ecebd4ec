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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
)

// BagOfCells is a set of root cells serialized together with their shared
// subtrees deduplicated by hash
type BagOfCells struct {
	Roots []*Cell
}

func NewBagOfCells(roots ...*Cell) *BagOfCells {
	return &BagOfCells{Roots: roots}
}

// SingleRoot returns the only root, erroring when the bag holds any other
// number of roots
func (boc *BagOfCells) SingleRoot() (*Cell, error) {
	if len(boc.Roots) != 1 {
		return nil, BocError{
			Reason: fmt.Sprintf("expected 1 root cell, got %d", len(boc.Roots)),
		}
	}
	return boc.Roots[0], nil
}

// ParseBoc decodes a serialized bag of cells, validating every cell.
// References may only point at later cells, so cycles are rejected.
func ParseBoc(data []byte) (*BagOfCells, error) {
	raw, err := parseRawBoc(data)
	if err != nil {
		return nil, err
	}
	numCells := len(raw.cells)
	cells := make([]*Cell, numCells)
	for i := numCells - 1; i >= 0; i-- {
		rc := &raw.cells[i]
		refs := make([]*Cell, 0, len(rc.refs))
		for _, refIdx := range rc.refs {
			if refIdx <= i {
				return nil, BocError{
					Reason: fmt.Sprintf(
						"cell %d references earlier cell %d",
						i,
						refIdx,
					),
				}
			}
			refs = append(refs, cells[refIdx])
		}
		cell, err := NewCell(rc.data, rc.bitLen, refs, rc.isExotic)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBoc, err)
		}
		cells[i] = cell
	}
	boc := &BagOfCells{Roots: make([]*Cell, 0, len(raw.roots))}
	for _, rootIdx := range raw.roots {
		boc.Roots = append(boc.Roots, cells[rootIdx])
	}
	return boc, nil
}

// ParseBocHex decodes a hex-encoded bag of cells
func ParseBocHex(s string) (*BagOfCells, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, BocError{Reason: "invalid hex: " + err.Error()}
	}
	return ParseBoc(data)
}

// ParseBocBase64 decodes a base64-encoded bag of cells
func ParseBocBase64(s string) (*BagOfCells, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, BocError{Reason: "invalid base64: " + err.Error()}
	}
	return ParseBoc(data)
}

// FromBoc decodes a bag of cells that must contain a single root
func FromBoc(data []byte) (*Cell, error) {
	boc, err := ParseBoc(data)
	if err != nil {
		return nil, err
	}
	return boc.SingleRoot()
}

// FromBocHex decodes a hex-encoded single-root bag of cells
func FromBocHex(s string) (*Cell, error) {
	boc, err := ParseBocHex(s)
	if err != nil {
		return nil, err
	}
	return boc.SingleRoot()
}

// FromBocBase64 decodes a base64-encoded single-root bag of cells
func FromBocBase64(s string) (*Cell, error) {
	boc, err := ParseBocBase64(s)
	if err != nil {
		return nil, err
	}
	return boc.SingleRoot()
}

// Serialize encodes the bag with subtrees deduplicated by hash and an
// optional trailing CRC-32/ISCSI checksum
func (boc *BagOfCells) Serialize(addCrc32c bool) ([]byte, error) {
	raw, err := boc.toRaw()
	if err != nil {
		return nil, err
	}
	return raw.serialize(addCrc32c)
}

func (boc *BagOfCells) SerializeHex(addCrc32c bool) (string, error) {
	data, err := boc.Serialize(addCrc32c)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func (boc *BagOfCells) SerializeBase64(addCrc32c bool) (string, error) {
	data, err := boc.Serialize(addCrc32c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ToBoc serializes a single cell as a bag of cells
func (c *Cell) ToBoc(addCrc32c bool) ([]byte, error) {
	return NewBagOfCells(c).Serialize(addCrc32c)
}

func (c *Cell) ToBocHex(addCrc32c bool) (string, error) {
	return NewBagOfCells(c).SerializeHex(addCrc32c)
}

func (c *Cell) ToBocBase64(addCrc32c bool) (string, error) {
	return NewBagOfCells(c).SerializeBase64(addCrc32c)
}

type indexedCell struct {
	index int
	cell  *Cell
}

// toRaw flattens the cell graph: breadth-first indexing deduplicated by
// hash, then reorder passes until every reference points forward
func (boc *BagOfCells) toRaw() (*rawBagOfCells, error) {
	if len(boc.Roots) == 0 {
		return nil, BocError{Reason: "no root cells"}
	}
	index := make(map[Hash]*indexedCell)
	ordered := make([]*indexedCell, 0)
	nextIdx := 0
	queue := make([]*Cell, len(boc.Roots))
	copy(queue, boc.Roots)
	for len(queue) > 0 {
		var next []*Cell
		for _, c := range queue {
			hash := c.Hash()
			if _, ok := index[hash]; ok {
				continue
			}
			ic := &indexedCell{index: nextIdx, cell: c}
			index[hash] = ic
			ordered = append(ordered, ic)
			nextIdx++
			next = append(next, c.refs...)
		}
		queue = next
	}
	for changed := true; changed; {
		changed = false
		for _, ic := range ordered {
			for _, ref := range ic.cell.refs {
				refIc := index[ref.Hash()]
				if refIc.index < ic.index {
					refIc.index = nextIdx
					nextIdx++
					changed = true
				}
			}
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].index < ordered[j].index
	})
	for i, ic := range ordered {
		ic.index = i
	}
	raw := &rawBagOfCells{
		cells: make([]rawCell, 0, len(ordered)),
		roots: make([]int, 0, len(boc.Roots)),
	}
	for _, ic := range ordered {
		refs := make([]int, 0, len(ic.cell.refs))
		for _, ref := range ic.cell.refs {
			refs = append(refs, index[ref.Hash()].index)
		}
		raw.cells = append(raw.cells, rawCell{
			data:      ic.cell.data,
			bitLen:    ic.cell.bitLen,
			refs:      refs,
			levelMask: ic.cell.levelMask.Mask(),
			isExotic:  ic.cell.IsExotic(),
		})
	}
	for _, root := range boc.Roots {
		raw.roots = append(raw.roots, index[root.Hash()].index)
	}
	return raw, nil
}
