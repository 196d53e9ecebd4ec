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

package tlb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/goton/cell"
)

func TestCurrencyCollectionVector(t *testing.T) {
	boc := "b5ee9c720101010100070000094c143b1d14"
	root, err := cell.FromBocHex(boc)
	require.NoError(t, err)

	var cc CurrencyCollection
	require.NoError(t, FromCell(root, &cc))
	assert.Equal(t, uint64(3242439121), cc.Grams.Amount.Uint64())
	assert.Nil(t, cc.Other)

	out, err := ToBocHex(&cc, false)
	require.NoError(t, err)
	assert.Equal(t, boc, out)
}

func TestCurrencyCollectionZero(t *testing.T) {
	cc := NewCurrencyCollection(big.NewInt(0))
	c, err := ToCell(&cc)
	require.NoError(t, err)
	assert.Equal(t, 5, c.BitLen())

	var decoded CurrencyCollection
	require.NoError(t, FromCell(c, &decoded))
	assert.Zero(t, decoded.Grams.Amount.Sign())
	assert.Nil(t, decoded.Other)
}

func TestCoinsRoundTrip(t *testing.T) {
	amounts := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(256),
		new(big.Int).SetUint64(1_000_000_000_000),
		// the largest value that still fits in 15 bytes
		mustBigInt(t, "1329227995784915872903807060280344575"),
	}
	for _, amount := range amounts {
		coins := NewCoins(amount)
		c, err := ToCell(&coins)
		require.NoError(t, err)
		var decoded Coins
		require.NoError(t, FromCell(c, &decoded))
		assert.Zero(t, decoded.Amount.Cmp(amount), "amount %s", amount)
	}

	overflow := NewCoins(
		mustBigInt(t, "1329227995784915872903807060280344576"),
	)
	_, err := ToCell(&overflow)
	assert.Error(t, err)
}

func TestCoinsNilAmount(t *testing.T) {
	coins := Coins{}
	c, err := ToCell(&coins)
	require.NoError(t, err)
	assert.Equal(t, 4, c.BitLen())
}

func mustBigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}
