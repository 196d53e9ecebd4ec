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

	_cbor "github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellCBOR(t *testing.T) {
	child := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreString("payload"))
	})
	orig := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(0xC0FFEE, 24))
		require.NoError(t, b.StoreRef(child))
	})
	data, err := _cbor.Marshal(orig)
	require.NoError(t, err)

	var decoded Cell
	require.NoError(t, _cbor.Unmarshal(data, &decoded))
	assert.Equal(t, orig.Hash(), decoded.Hash())
	assert.Equal(t, orig.BitLen(), decoded.BitLen())
	require.Len(t, decoded.Refs(), 1)
	assert.Equal(t, child.Hash(), decoded.Refs()[0].Hash())
}

func TestBagOfCellsCBOR(t *testing.T) {
	rootA := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(1, 8))
	})
	rootB := mustBuild(t, func(b *Builder) {
		require.NoError(t, b.StoreUint(2, 8))
	})
	orig := NewBagOfCells(rootA, rootB)
	data, err := _cbor.Marshal(orig)
	require.NoError(t, err)

	var decoded BagOfCells
	require.NoError(t, _cbor.Unmarshal(data, &decoded))
	require.Len(t, decoded.Roots, 2)
	assert.Equal(t, rootA.Hash(), decoded.Roots[0].Hash())
	assert.Equal(t, rootB.Hash(), decoded.Roots[1].Hash())
}

func TestCellCBORGarbage(t *testing.T) {
	var decoded Cell
	assert.Error(t, _cbor.Unmarshal([]byte{0xff, 0xff}, &decoded))

	// a valid CBOR byte string that is not a bag of cells
	data, err := _cbor.Marshal([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Error(t, _cbor.Unmarshal(data, &decoded))
}
