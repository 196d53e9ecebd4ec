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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyCellHash(t *testing.T) {
	c := EmptyCell()
	assert.Equal(
		t,
		"96a296d224f285c67bee93c30f8a309157f0daa35dc5b87e410b78630a09cfc7",
		c.Hash().String(),
	)
	assert.Equal(t, uint16(0), c.Depth())
	assert.Equal(t, CellTypeOrdinary, c.CellType())
	assert.False(t, c.IsExotic())
}

func TestHashIncludesReferences(t *testing.T) {
	child1 := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(1, 8))
	})
	child2 := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(2, 8))
	})
	parent1 := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(child1))
	})
	parent2 := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(child2))
	})
	assert.NotEqual(t, parent1.Hash(), parent2.Hash())

	same := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(child1))
	})
	assert.Equal(t, parent1.Hash(), same.Hash())
}

func TestDepthChain(t *testing.T) {
	cur := EmptyCell()
	for i := 1; i <= 5; i++ {
		prev := cur
		cur = mustBuild(t, func(b *Builder) {
			require.NoError(t, b.StoreRef(prev))
		})
		assert.Equal(t, uint16(i), cur.Depth())
	}

	// depth follows the deepest branch
	wide := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(EmptyCell()))
		require.NoError(t, b.StoreRef(cur))
	})
	assert.Equal(t, uint16(6), wide.Depth())
}

func TestNewCellValidation(t *testing.T) {
	t.Run("too many bits", func(t *testing.T) {
		_, err := NewCell(make([]byte, 129), 1024, nil, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
	t.Run("too many references", func(t *testing.T) {
		refs := make([]*Cell, 5)
		for i := range refs {
			refs[i] = EmptyCell()
		}
		_, err := NewCell(nil, 0, refs, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTooManyReferences)
	})
	t.Run("nil reference", func(t *testing.T) {
		_, err := NewCell(nil, 0, []*Cell{nil}, false)
		assert.Error(t, err)
	})
	t.Run("data shorter than bit length", func(t *testing.T) {
		_, err := NewCell([]byte{0xff}, 9, nil, false)
		assert.Error(t, err)
	})
	t.Run("max sizes are accepted", func(t *testing.T) {
		refs := make([]*Cell, 4)
		for i := range refs {
			refs[i] = EmptyCell()
		}
		c, err := NewCell(make([]byte, 128), 1023, refs, false)
		require.NoError(t, err)
		assert.Equal(t, 1023, c.BitLen())
		assert.Len(t, c.Refs(), 4)
	})
}

func TestRefIndex(t *testing.T) {
	child := EmptyCell()
	c := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(child))
	})
	got, err := c.Ref(0)
	require.NoError(t, err)
	assert.Equal(t, child.Hash(), got.Hash())

	_, err = c.Ref(1)
	require.Error(t, err)
	var idxErr InvalidIndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, 1, idxErr.Index)
	assert.Equal(t, 1, idxErr.RefCount)

	_, err = c.Ref(-1)
	assert.Error(t, err)
}

func TestSnakeData(t *testing.T) {
	tail := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreString(" world"))
	})
	head := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreString("hello"))
		require.NoError(t, b.StoreRef(tail))
	})
	data, err := head.SnakeData()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	partial := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(1, 3))
	})
	_, err = partial.SnakeData()
	assert.Error(t, err)

	forked := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreRef(tail))
		require.NoError(t, b.StoreRef(tail))
	})
	_, err = forked.SnakeData()
	assert.Error(t, err)
}

func TestCellString(t *testing.T) {
	s := EmptyCell().String()
	assert.Contains(t, s, "Ordinary")
	assert.Contains(t, s, "bits=0")
}
