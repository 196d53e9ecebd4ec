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
	"fmt"

	"github.com/blinklabs-io/goton/cell"
)

// MsgAddress is one of the four address variants, selected by a 2-bit tag
type MsgAddress interface {
	Marshaler
	Unmarshaler
	isMsgAddress()
}

var (
	prefixAddrNone   = Prefix{Value: 0b00, BitLen: 2}
	prefixAddrExtern = Prefix{Value: 0b01, BitLen: 2}
	prefixAddrStd    = Prefix{Value: 0b10, BitLen: 2}
	prefixAddrVar    = Prefix{Value: 0b11, BitLen: 2}
)

// LoadMsgAddress probes the 2-bit tag and parses the matching variant
func LoadMsgAddress(p *cell.Parser) (MsgAddress, error) {
	tag, err := peekPrefix(p, 2)
	if err != nil {
		return nil, err
	}
	var addr MsgAddress
	switch tag {
	case prefixAddrNone.Value:
		addr = &MsgAddressNone{}
	case prefixAddrExtern.Value:
		addr = &MsgAddressExtern{}
	case prefixAddrStd.Value:
		addr = &MsgAddressIntStd{}
	case prefixAddrVar.Value:
		addr = &MsgAddressIntVar{}
	}
	if err := addr.UnmarshalTLB(p); err != nil {
		return nil, err
	}
	return addr, nil
}

// LoadMsgAddressInt parses an internal address, rejecting the external
// variants
func LoadMsgAddressInt(p *cell.Parser) (MsgAddress, error) {
	addr, err := LoadMsgAddress(p)
	if err != nil {
		return nil, err
	}
	switch addr.(type) {
	case *MsgAddressIntStd, *MsgAddressIntVar:
		return addr, nil
	}
	return nil, fmt.Errorf(
		"%w: expected internal address, got %T",
		ErrSchemaMismatch,
		addr,
	)
}

// Anycast is an address rewrite prefix
type Anycast struct {
	Depth      uint8
	RewritePfx []byte
}

func NewAnycast(depth uint8, rewritePfx []byte) *Anycast {
	return &Anycast{Depth: depth, RewritePfx: rewritePfx}
}

func (a *Anycast) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreUint(uint64(a.Depth), 5); err != nil {
		return err
	}
	return b.StoreBits(a.RewritePfx, int(a.Depth))
}

func (a *Anycast) UnmarshalTLB(p *cell.Parser) error {
	depth, err := p.LoadUint(5)
	if err != nil {
		return err
	}
	pfx, err := p.LoadBits(int(depth))
	if err != nil {
		return err
	}
	a.Depth = uint8(depth)
	a.RewritePfx = pfx
	return nil
}

// MsgAddressNone is the absent address
type MsgAddressNone struct{}

func (*MsgAddressNone) isMsgAddress() {}

func (a *MsgAddressNone) MarshalTLB(b *cell.Builder) error {
	return WritePrefix(b, prefixAddrNone)
}

func (a *MsgAddressNone) UnmarshalTLB(p *cell.Parser) error {
	return VerifyPrefix(p, prefixAddrNone)
}

// MsgAddressExtern is an external address of up to 512 bits
type MsgAddressExtern struct {
	AddressBitLen uint16
	Address       []byte
}

func (*MsgAddressExtern) isMsgAddress() {}

func (a *MsgAddressExtern) MarshalTLB(b *cell.Builder) error {
	if a.AddressBitLen > 512 {
		return fmt.Errorf(
			"external address of %d bits exceeds 512",
			a.AddressBitLen,
		)
	}
	if err := WritePrefix(b, prefixAddrExtern); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(a.AddressBitLen), 9); err != nil {
		return err
	}
	return b.StoreBits(a.Address, int(a.AddressBitLen))
}

func (a *MsgAddressExtern) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixAddrExtern); err != nil {
		return err
	}
	bitLen, err := p.LoadUint(9)
	if err != nil {
		return err
	}
	addr, err := p.LoadBits(int(bitLen))
	if err != nil {
		return err
	}
	a.AddressBitLen = uint16(bitLen)
	a.Address = addr
	return nil
}

// MsgAddressIntStd is a standard internal address: an 8-bit workchain and a
// 256-bit account id, optionally with an anycast rewrite
type MsgAddressIntStd struct {
	Anycast   *Anycast
	Workchain int8
	Address   cell.Hash
}

func NewMsgAddressIntStd(workchain int8, address cell.Hash) *MsgAddressIntStd {
	return &MsgAddressIntStd{Workchain: workchain, Address: address}
}

func (*MsgAddressIntStd) isMsgAddress() {}

func (a *MsgAddressIntStd) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixAddrStd); err != nil {
		return err
	}
	if err := b.StoreBit(a.Anycast != nil); err != nil {
		return err
	}
	if a.Anycast != nil {
		if err := a.Anycast.MarshalTLB(b); err != nil {
			return err
		}
	}
	if err := b.StoreInt(int64(a.Workchain), 8); err != nil {
		return err
	}
	return b.StoreHash(a.Address)
}

func (a *MsgAddressIntStd) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixAddrStd); err != nil {
		return err
	}
	hasAnycast, err := p.LoadBit()
	if err != nil {
		return err
	}
	a.Anycast = nil
	if hasAnycast {
		a.Anycast = &Anycast{}
		if err := a.Anycast.UnmarshalTLB(p); err != nil {
			return err
		}
	}
	workchain, err := p.LoadInt(8)
	if err != nil {
		return err
	}
	addr, err := p.LoadHash()
	if err != nil {
		return err
	}
	a.Workchain = int8(workchain)
	a.Address = addr
	return nil
}

// MsgAddressIntVar is a variable-length internal address with a 32-bit
// workchain
type MsgAddressIntVar struct {
	Anycast       *Anycast
	AddressBitLen uint16
	Workchain     int32
	Address       []byte
}

func (*MsgAddressIntVar) isMsgAddress() {}

func (a *MsgAddressIntVar) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixAddrVar); err != nil {
		return err
	}
	if err := b.StoreBit(a.Anycast != nil); err != nil {
		return err
	}
	if a.Anycast != nil {
		if err := a.Anycast.MarshalTLB(b); err != nil {
			return err
		}
	}
	if err := b.StoreUint(uint64(a.AddressBitLen), 9); err != nil {
		return err
	}
	if err := b.StoreInt(int64(a.Workchain), 32); err != nil {
		return err
	}
	return b.StoreBits(a.Address, int(a.AddressBitLen))
}

func (a *MsgAddressIntVar) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixAddrVar); err != nil {
		return err
	}
	hasAnycast, err := p.LoadBit()
	if err != nil {
		return err
	}
	a.Anycast = nil
	if hasAnycast {
		a.Anycast = &Anycast{}
		if err := a.Anycast.UnmarshalTLB(p); err != nil {
			return err
		}
	}
	bitLen, err := p.LoadUint(9)
	if err != nil {
		return err
	}
	workchain, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	addr, err := p.LoadBits(int(bitLen))
	if err != nil {
		return err
	}
	a.AddressBitLen = uint16(bitLen)
	a.Workchain = int32(workchain)
	a.Address = addr
	return nil
}
