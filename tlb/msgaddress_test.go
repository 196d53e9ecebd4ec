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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/goton/cell"
)

func mustHash(t *testing.T, s string) cell.Hash {
	t.Helper()
	h, err := cell.NewHashFromHex(s)
	require.NoError(t, err)
	return h
}

func TestMsgAddressIntStdMarshal(t *testing.T) {
	addr := NewMsgAddressIntStd(
		0,
		mustHash(
			t,
			"e4d954ef9f4e1250a26b5bbad76a1cdd17cfd08babad6f4c23e372270aef6f76",
		),
	)
	c, err := ToCell(addr)
	require.NoError(t, err)
	assert.Equal(t, 267, c.BitLen())
	assert.Equal(t, []byte{
		128, 28, 155, 42, 157, 243, 233, 194, 74, 20, 77, 107, 119, 90,
		237, 67, 155, 162, 249, 250, 17, 117, 117, 173, 233, 132, 124,
		110, 68, 225, 93, 237, 238, 192,
	}, c.Data())
}

func TestMsgAddressIntStdAnycast(t *testing.T) {
	boc := "b5ee9c7201010101002800004bbe031053100134ea6c68e2f2cee9619bdd2732493f3a1361eccd7c5267a9eb3c5dcebc533bb6"
	root, err := cell.FromBocHex(boc)
	require.NoError(t, err)

	p := root.Parser()
	addr, err := LoadMsgAddress(p)
	require.NoError(t, err)
	require.NoError(t, p.EnsureEmpty())

	std, ok := addr.(*MsgAddressIntStd)
	require.True(t, ok)
	require.NotNil(t, std.Anycast)
	assert.Equal(t, uint8(30), std.Anycast.Depth)
	assert.Equal(t, []byte{3, 16, 83, 16}, std.Anycast.RewritePfx)
	assert.Equal(t, int8(0), std.Workchain)
	assert.Equal(t, cell.Hash{
		77, 58, 155, 26, 56, 188, 179, 186, 88, 102, 247, 73, 204, 146,
		79, 206, 132, 216, 123, 51, 95, 20, 153, 234, 122, 207, 23, 115,
		175, 20, 206, 237,
	}, std.Address)

	out, err := ToBocHex(std, false)
	require.NoError(t, err)
	assert.Equal(t, boc, out)
}

func TestMsgAddressIntStdMasterchain(t *testing.T) {
	boc := "b5ee9c720101010100240000439fe00000000000000000000000000000000000000000000000000000000000000010"
	root, err := cell.FromBocHex(boc)
	require.NoError(t, err)

	addr, err := LoadMsgAddressInt(root.Parser())
	require.NoError(t, err)
	std, ok := addr.(*MsgAddressIntStd)
	require.True(t, ok)
	assert.Nil(t, std.Anycast)
	assert.Equal(t, int8(-1), std.Workchain)
	assert.Equal(t, cell.Hash{}, std.Address)

	out, err := ToBocHex(std, false)
	require.NoError(t, err)
	assert.Equal(t, boc, out)
}

func TestMsgAddressNone(t *testing.T) {
	c, err := ToCell(&MsgAddressNone{})
	require.NoError(t, err)
	assert.Equal(t, 2, c.BitLen())

	addr, err := LoadMsgAddress(c.Parser())
	require.NoError(t, err)
	assert.IsType(t, &MsgAddressNone{}, addr)
}

func TestMsgAddressExtern(t *testing.T) {
	orig := &MsgAddressExtern{
		AddressBitLen: 48,
		Address:       []byte{1, 2, 3, 4, 5, 6},
	}
	c, err := ToCell(orig)
	require.NoError(t, err)
	assert.Equal(t, 2+9+48, c.BitLen())

	addr, err := LoadMsgAddress(c.Parser())
	require.NoError(t, err)
	extern, ok := addr.(*MsgAddressExtern)
	require.True(t, ok)
	assert.Equal(t, orig.AddressBitLen, extern.AddressBitLen)
	assert.Equal(t, orig.Address, extern.Address)

	tooLong := &MsgAddressExtern{AddressBitLen: 513, Address: make([]byte, 65)}
	_, err = ToCell(tooLong)
	assert.Error(t, err)
}

func TestMsgAddressIntVar(t *testing.T) {
	orig := &MsgAddressIntVar{
		AddressBitLen: 80,
		Workchain:     100500,
		Address:       []byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}
	c, err := ToCell(orig)
	require.NoError(t, err)

	addr, err := LoadMsgAddressInt(c.Parser())
	require.NoError(t, err)
	varAddr, ok := addr.(*MsgAddressIntVar)
	require.True(t, ok)
	assert.Equal(t, orig.Workchain, varAddr.Workchain)
	assert.Equal(t, orig.AddressBitLen, varAddr.AddressBitLen)
	assert.Equal(t, orig.Address, varAddr.Address)
}

func TestLoadMsgAddressIntRejectsExternal(t *testing.T) {
	for _, addr := range []Marshaler{
		&MsgAddressNone{},
		&MsgAddressExtern{AddressBitLen: 8, Address: []byte{0xAA}},
	} {
		c, err := ToCell(addr)
		require.NoError(t, err)
		_, err = LoadMsgAddressInt(c.Parser())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	}
}

func TestVerifyPrefixRestoresCursor(t *testing.T) {
	c, err := ToCell(&MsgAddressNone{})
	require.NoError(t, err)
	p := c.Parser()
	err = VerifyPrefix(p, Prefix{Value: 0b10, BitLen: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	var pfxErr PrefixError
	require.ErrorAs(t, err, &pfxErr)
	assert.Equal(t, uint64(0), pfxErr.Actual)
	// the cursor is restored, so the right variant still parses
	require.NoError(t, VerifyPrefix(p, Prefix{Value: 0b00, BitLen: 2}))
}
