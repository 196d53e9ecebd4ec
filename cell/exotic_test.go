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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPrunedBranch(t *testing.T, pruned *Cell) *Cell {
	t.Helper()
	data := make([]byte, 2, 2+HashSize+depthSize)
	data[0] = byte(CellTypePrunedBranch)
	data[1] = 1
	hash := pruned.Hash()
	data = append(data, hash[:]...)
	data = binary.BigEndian.AppendUint16(data, pruned.Depth())
	c, err := NewCell(data, 8*len(data), nil, true)
	require.NoError(t, err)
	return c
}

func TestLibraryRefCell(t *testing.T) {
	lib := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreString("some library code"))
	})
	data := make([]byte, 1, 1+HashSize)
	data[0] = byte(CellTypeLibraryRef)
	hash := lib.Hash()
	data = append(data, hash[:]...)

	c, err := NewCell(data, libraryRefBitLen, nil, true)
	require.NoError(t, err)
	assert.Equal(t, CellTypeLibraryRef, c.CellType())
	assert.True(t, c.IsExotic())
	assert.Equal(t, uint8(0), c.LevelMask().Level())

	p := c.Parser()
	require.NoError(t, p.SkipBits(8))
	stored, err := p.LoadHash()
	require.NoError(t, err)
	assert.Equal(t, lib.Hash(), stored)
}

func TestPrunedBranchCell(t *testing.T) {
	pruned := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(0xCAFE, 16))
		require.NoError(t, b.StoreRef(EmptyCell()))
	})
	c := buildPrunedBranch(t, pruned)

	assert.Equal(t, CellTypePrunedBranch, c.CellType())
	assert.Equal(t, uint8(1), c.LevelMask().Level())

	// level 0 identity comes from the embedded hash and depth
	assert.Equal(t, pruned.Hash(), c.HashForLevel(0))
	assert.Equal(t, pruned.Depth(), c.DepthForLevel(0))

	// the cell's own hash is over its own data
	assert.NotEqual(t, pruned.Hash(), c.Hash())
	assert.Equal(t, c.Hash(), c.HashForLevel(1))
}

func TestPrunedBranchInOrdinaryParent(t *testing.T) {
	pruned := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(42, 32))
	})
	branch := buildPrunedBranch(t, pruned)

	parent := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(7, 8))
		require.NoError(t, b.StoreRef(branch))
	})
	full := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(7, 8))
		require.NoError(t, b.StoreRef(pruned))
	})

	// the parent inherits the branch's level and matches the unpruned
	// tree at level 0
	assert.Equal(t, uint8(1), parent.LevelMask().Level())
	assert.Equal(t, full.Hash(), parent.HashForLevel(0))
	assert.NotEqual(t, full.Hash(), parent.Hash())
}

func TestMerkleProofCell(t *testing.T) {
	body := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(0xABCD, 16))
		require.NoError(t, b.StoreRef(EmptyCell()))
	})
	data := make([]byte, 1, 1+HashSize+depthSize)
	data[0] = byte(CellTypeMerkleProof)
	hash := body.HashForLevel(0)
	data = append(data, hash[:]...)
	data = binary.BigEndian.AppendUint16(data, body.DepthForLevel(0))

	proof, err := NewCell(data, merkleProofBitLen, []*Cell{body}, true)
	require.NoError(t, err)
	assert.Equal(t, CellTypeMerkleProof, proof.CellType())
	assert.Equal(t, uint8(0), proof.LevelMask().Level())
}

func TestExoticCellValidation(t *testing.T) {
	hash := EmptyCell().Hash()

	t.Run("unknown type tag", func(t *testing.T) {
		_, err := NewCell([]byte{0x09, 0x00}, 16, nil, true)
		require.Error(t, err)
		var exotic ExoticCellError
		assert.ErrorAs(t, err, &exotic)
	})
	t.Run("no room for a type tag", func(t *testing.T) {
		_, err := NewCell([]byte{0x02}, 4, nil, true)
		assert.Error(t, err)
	})
	t.Run("library reference with wrong size", func(t *testing.T) {
		data := append([]byte{byte(CellTypeLibraryRef)}, hash[:16]...)
		_, err := NewCell(data, 8*len(data), nil, true)
		assert.Error(t, err)
	})
	t.Run("pruned branch level zero", func(t *testing.T) {
		data := make([]byte, 2+HashSize+depthSize)
		data[0] = byte(CellTypePrunedBranch)
		data[1] = 0
		_, err := NewCell(data, 8*len(data), nil, true)
		assert.Error(t, err)
	})
	t.Run("pruned branch with references", func(t *testing.T) {
		data := make([]byte, 2, 2+HashSize+depthSize)
		data[0] = byte(CellTypePrunedBranch)
		data[1] = 1
		data = append(data, hash[:]...)
		data = binary.BigEndian.AppendUint16(data, 0)
		_, err := NewCell(data, 8*len(data), []*Cell{EmptyCell()}, true)
		assert.Error(t, err)
	})
	t.Run("merkle proof without reference", func(t *testing.T) {
		data := make([]byte, 1, 1+HashSize+depthSize)
		data[0] = byte(CellTypeMerkleProof)
		data = append(data, hash[:]...)
		data = binary.BigEndian.AppendUint16(data, 0)
		_, err := NewCell(data, merkleProofBitLen, nil, true)
		assert.Error(t, err)
	})
	t.Run("merkle proof hash mismatch", func(t *testing.T) {
		body := mustBuild(t, func(b *Builder) {
			require.NoError(t, b.StoreUint(1, 8))
		})
		data := make([]byte, 1, 1+HashSize+depthSize)
		data[0] = byte(CellTypeMerkleProof)
		data = append(data, hash[:]...)
		data = binary.BigEndian.AppendUint16(data, body.DepthForLevel(0))
		_, err := NewCell(data, merkleProofBitLen, []*Cell{body}, true)
		require.Error(t, err)
		var exotic ExoticCellError
		require.ErrorAs(t, err, &exotic)
		assert.Contains(t, exotic.Reason, "hash")
	})
	t.Run("merkle proof depth mismatch", func(t *testing.T) {
		body := mustBuild(t, func(b *Builder) {
			require.NoError(t, b.StoreUint(1, 8))
		})
		data := make([]byte, 1, 1+HashSize+depthSize)
		data[0] = byte(CellTypeMerkleProof)
		bodyHash := body.HashForLevel(0)
		data = append(data, bodyHash[:]...)
		data = binary.BigEndian.AppendUint16(data, body.DepthForLevel(0)+1)
		_, err := NewCell(data, merkleProofBitLen, []*Cell{body}, true)
		assert.Error(t, err)
	})
	t.Run("merkle update needs two references", func(t *testing.T) {
		data := make([]byte, merkleUpdateBitLen/8)
		data[0] = byte(CellTypeMerkleUpdate)
		_, err := NewCell(data, merkleUpdateBitLen, []*Cell{EmptyCell()}, true)
		assert.Error(t, err)
	})
}

func TestMerkleUpdateCell(t *testing.T) {
	before := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(1, 8))
	})
	after := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(2, 8))
	})
	data := make([]byte, 1, merkleUpdateBitLen/8)
	data[0] = byte(CellTypeMerkleUpdate)
	beforeHash := before.HashForLevel(0)
	afterHash := after.HashForLevel(0)
	data = append(data, beforeHash[:]...)
	data = append(data, afterHash[:]...)
	data = binary.BigEndian.AppendUint16(data, before.DepthForLevel(0))
	data = binary.BigEndian.AppendUint16(data, after.DepthForLevel(0))

	c, err := NewCell(data, merkleUpdateBitLen, []*Cell{before, after}, true)
	require.NoError(t, err)
	assert.Equal(t, CellTypeMerkleUpdate, c.CellType())
}
