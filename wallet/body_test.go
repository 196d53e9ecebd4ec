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

package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/goton/cell"
	"github.com/blinklabs-io/goton/tlb"
)

const (
	testSignedBodyV3 = "b5ee9c7201010201008500019a86be376ea96e2f1252377976716a3d252906151feabc8e4b51506405035e45a7b4ff81f783cfe3f86483c822bcbb4f9481804990868bac69caf7af56e30fe70b29a9a317ffffffff000000000301006642007847b4630eb08d9f486fe846d5496878556dfd5a084f82a9a3fb01224e67c84c187a120000000000000000000000000000"
	testSignedBodyV4 = "b5ee9c7201010201008700019c9dcd3a68926ad6fb9d094c5b72901bfc359ada50f22b648c6c2223c767135d397c7489c121071e45a5316a94a533d80c41450049ebeed406c419fea99117f40629a9a31767ad328900000013000301006842007847b4630eb08d9f486fe846d5496878556dfd5a084f82a9a3fb01224e67c84c200989680000000000000000000000000000"
	testSignedBodyV5 = "b5ee9c720101040100940001a17369676e7fffff11ffffffff00000000bc04889cb28b36a3a00810e363a413763ec34860bf0fce552c5d36e37289fafd442f1983d740f92378919d969dd530aec92d258a0779fb371d4659f10ca1b3826001020a0ec3c86d030302006642007847b4630eb08d9f486fe846d5496878556dfd5a084f82a9a3fb01224e67c84c187a1200000000000000000000000000000000"
)

func TestSplitSignedBodyV3(t *testing.T) {
	signed, err := cell.FromBocHex(testSignedBodyV3)
	require.NoError(t, err)

	signature, body, err := SplitSignedBody(VersionV3R2, signed)
	require.NoError(t, err)
	assert.Len(t, signature, ed25519.SignatureSize)

	var decoded BodyV3
	require.NoError(t, tlb.FromCell(body, &decoded))
	assert.Equal(t, DefaultWalletID, decoded.WalletID)
	assert.Equal(t, uint32(4294967295), decoded.ValidUntil)
	assert.Equal(t, uint32(0), decoded.Seqno)
	assert.Equal(t, []uint8{3}, decoded.MsgModes)
	require.Len(t, decoded.Msgs, 1)

	rebuilt, err := tlb.ToCell(&decoded)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), rebuilt.Hash())

	// reassembling the signature and body reproduces the source bytes
	b := cell.NewBuilder()
	require.NoError(t, b.StoreBytes(signature))
	require.NoError(t, b.StoreCell(body))
	reassembled, err := b.Build()
	require.NoError(t, err)
	out, err := reassembled.ToBocHex(false)
	require.NoError(t, err)
	assert.Equal(t, testSignedBodyV3, out)
}

func TestSplitSignedBodyV4(t *testing.T) {
	signed, err := cell.FromBocHex(testSignedBodyV4)
	require.NoError(t, err)

	signature, body, err := SplitSignedBody(VersionV4R2, signed)
	require.NoError(t, err)

	var decoded BodyV4
	require.NoError(t, tlb.FromCell(body, &decoded))
	assert.Equal(t, DefaultWalletID, decoded.WalletID)
	assert.Equal(t, uint32(1739403913), decoded.ValidUntil)
	assert.Equal(t, uint32(19), decoded.Seqno)
	assert.Equal(t, []uint8{3}, decoded.MsgModes)
	require.Len(t, decoded.Msgs, 1)

	rebuilt, err := tlb.ToCell(&decoded)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), rebuilt.Hash())

	b := cell.NewBuilder()
	require.NoError(t, b.StoreBytes(signature))
	require.NoError(t, b.StoreCell(body))
	reassembled, err := b.Build()
	require.NoError(t, err)
	out, err := reassembled.ToBocHex(false)
	require.NoError(t, err)
	assert.Equal(t, testSignedBodyV4, out)
}

func TestSplitSignedBodyV5(t *testing.T) {
	signed, err := cell.FromBocHex(testSignedBodyV5)
	require.NoError(t, err)

	// v5r1 keeps the signature after the body bits
	signature, body, err := SplitSignedBody(VersionV5R1, signed)
	require.NoError(t, err)
	assert.Len(t, signature, ed25519.SignatureSize)

	var decoded BodyV5
	require.NoError(t, tlb.FromCell(body, &decoded))
	assert.Equal(t, DefaultWalletIDV5R1, decoded.WalletID)
	assert.Equal(t, uint32(4294967295), decoded.ValidUntil)
	assert.Equal(t, uint32(0), decoded.Seqno)
	assert.Equal(t, []uint8{3}, decoded.MsgModes)
	require.Len(t, decoded.Msgs, 1)

	rebuilt, err := tlb.ToCell(&decoded)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), rebuilt.Hash())

	b := cell.NewBuilder()
	require.NoError(t, b.StoreCell(body))
	require.NoError(t, b.StoreBytes(signature))
	reassembled, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, signed.Hash(), reassembled.Hash())
}

func TestSplitSignedBodyTooShort(t *testing.T) {
	short, err := cell.NewCell([]byte{1, 2, 3}, 24, nil, false)
	require.NoError(t, err)
	_, _, err = SplitSignedBody(VersionV3R2, short)
	assert.Error(t, err)
}

func TestBodyMsgLimits(t *testing.T) {
	msgs := make([]*cell.Cell, 5)
	modes := make([]uint8, 5)
	for i := range msgs {
		msgs[i] = cell.EmptyCell()
		modes[i] = 3
	}

	t.Run("too many messages", func(t *testing.T) {
		body := &BodyV3{MsgModes: modes, Msgs: msgs}
		_, err := tlb.ToCell(body)
		assert.Error(t, err)
	})
	t.Run("mode count mismatch", func(t *testing.T) {
		body := &BodyV4{MsgModes: modes[:2], Msgs: msgs[:3]}
		_, err := tlb.ToCell(body)
		assert.Error(t, err)

		v5 := &BodyV5{MsgModes: modes[:2], Msgs: msgs[:3]}
		_, err = tlb.ToCell(v5)
		assert.Error(t, err)
	})
	t.Run("v5 takes more than four", func(t *testing.T) {
		body := &BodyV5{
			WalletID:   DefaultWalletIDV5R1,
			ValidUntil: 100,
			MsgModes:   modes,
			Msgs:       msgs,
		}
		c, err := tlb.ToCell(body)
		require.NoError(t, err)
		var decoded BodyV5
		require.NoError(t, tlb.FromCell(c, &decoded))
		assert.Len(t, decoded.Msgs, 5)
	})
}

func TestBodyV5NoMessages(t *testing.T) {
	body := &BodyV5{
		WalletID:   DefaultWalletIDV5R1,
		ValidUntil: 4294967295,
		Seqno:      1,
	}
	c, err := tlb.ToCell(body)
	require.NoError(t, err)

	var decoded BodyV5
	require.NoError(t, tlb.FromCell(c, &decoded))
	assert.Empty(t, decoded.Msgs)
	assert.Equal(t, uint32(1), decoded.Seqno)
}

func TestBodyV4RejectsNonZeroOpcode(t *testing.T) {
	b := cell.NewBuilder()
	require.NoError(t, b.StoreInt(int64(DefaultWalletID), 32))
	require.NoError(t, b.StoreUint(100, 32))
	require.NoError(t, b.StoreUint(1, 32))
	require.NoError(t, b.StoreUint(0xEE, 8))
	c, err := b.Build()
	require.NoError(t, err)

	var decoded BodyV4
	err = tlb.FromCell(c, &decoded)
	require.Error(t, err)
	assert.ErrorIs(t, err, tlb.ErrSchemaMismatch)
}
