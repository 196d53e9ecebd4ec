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

var (
	prefixIntMsgInfo    = Prefix{Value: 0b0, BitLen: 1}
	prefixExtInMsgInfo  = Prefix{Value: 0b10, BitLen: 2}
	prefixExtOutMsgInfo = Prefix{Value: 0b11, BitLen: 2}
)

// CommonMsgInfo is a message header: internal, inbound external or outbound
// external
type CommonMsgInfo interface {
	Marshaler
	Unmarshaler
	isCommonMsgInfo()
}

// LoadCommonMsgInfo probes the header tag and parses the matching variant
func LoadCommonMsgInfo(p *cell.Parser) (CommonMsgInfo, error) {
	tag, err := peekPrefix(p, 2)
	if err != nil {
		return nil, err
	}
	var info CommonMsgInfo
	switch {
	case tag&0b10 == 0:
		info = &IntMsgInfo{}
	case tag == prefixExtInMsgInfo.Value:
		info = &ExtInMsgInfo{}
	default:
		info = &ExtOutMsgInfo{}
	}
	if err := info.UnmarshalTLB(p); err != nil {
		return nil, err
	}
	return info, nil
}

// IntMsgInfo is the header of a message between contracts
type IntMsgInfo struct {
	IhrDisabled bool
	Bounce      bool
	Bounced     bool
	Src         MsgAddress
	Dest        MsgAddress
	Value       CurrencyCollection
	IhrFee      Coins
	FwdFee      Coins
	CreatedLt   uint64
	CreatedAt   uint32
}

func (*IntMsgInfo) isCommonMsgInfo() {}

func (m *IntMsgInfo) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixIntMsgInfo); err != nil {
		return err
	}
	for _, bit := range []bool{m.IhrDisabled, m.Bounce, m.Bounced} {
		if err := b.StoreBit(bit); err != nil {
			return err
		}
	}
	if err := marshalAddr(b, m.Src); err != nil {
		return err
	}
	if err := marshalAddr(b, m.Dest); err != nil {
		return err
	}
	if err := m.Value.MarshalTLB(b); err != nil {
		return err
	}
	if err := m.IhrFee.MarshalTLB(b); err != nil {
		return err
	}
	if err := m.FwdFee.MarshalTLB(b); err != nil {
		return err
	}
	if err := b.StoreUint(m.CreatedLt, 64); err != nil {
		return err
	}
	return b.StoreUint(uint64(m.CreatedAt), 32)
}

func (m *IntMsgInfo) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixIntMsgInfo); err != nil {
		return err
	}
	var err error
	if m.IhrDisabled, err = p.LoadBit(); err != nil {
		return err
	}
	if m.Bounce, err = p.LoadBit(); err != nil {
		return err
	}
	if m.Bounced, err = p.LoadBit(); err != nil {
		return err
	}
	if m.Src, err = LoadMsgAddress(p); err != nil {
		return err
	}
	if m.Dest, err = LoadMsgAddress(p); err != nil {
		return err
	}
	if err := m.Value.UnmarshalTLB(p); err != nil {
		return err
	}
	if err := m.IhrFee.UnmarshalTLB(p); err != nil {
		return err
	}
	if err := m.FwdFee.UnmarshalTLB(p); err != nil {
		return err
	}
	if m.CreatedLt, err = p.LoadUint(64); err != nil {
		return err
	}
	createdAt, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	m.CreatedAt = uint32(createdAt)
	return nil
}

// ExtInMsgInfo is the header of an inbound external message
type ExtInMsgInfo struct {
	Src       MsgAddress
	Dest      MsgAddress
	ImportFee Coins
}

func (*ExtInMsgInfo) isCommonMsgInfo() {}

func (m *ExtInMsgInfo) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixExtInMsgInfo); err != nil {
		return err
	}
	if err := marshalAddr(b, m.Src); err != nil {
		return err
	}
	if err := marshalAddr(b, m.Dest); err != nil {
		return err
	}
	return m.ImportFee.MarshalTLB(b)
}

func (m *ExtInMsgInfo) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixExtInMsgInfo); err != nil {
		return err
	}
	var err error
	if m.Src, err = LoadMsgAddress(p); err != nil {
		return err
	}
	if m.Dest, err = LoadMsgAddress(p); err != nil {
		return err
	}
	return m.ImportFee.UnmarshalTLB(p)
}

// ExtOutMsgInfo is the header of an outbound external message
type ExtOutMsgInfo struct {
	Src       MsgAddress
	Dest      MsgAddress
	CreatedLt uint64
	CreatedAt uint32
}

func (*ExtOutMsgInfo) isCommonMsgInfo() {}

func (m *ExtOutMsgInfo) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixExtOutMsgInfo); err != nil {
		return err
	}
	if err := marshalAddr(b, m.Src); err != nil {
		return err
	}
	if err := marshalAddr(b, m.Dest); err != nil {
		return err
	}
	if err := b.StoreUint(m.CreatedLt, 64); err != nil {
		return err
	}
	return b.StoreUint(uint64(m.CreatedAt), 32)
}

func (m *ExtOutMsgInfo) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixExtOutMsgInfo); err != nil {
		return err
	}
	var err error
	if m.Src, err = LoadMsgAddress(p); err != nil {
		return err
	}
	if m.Dest, err = LoadMsgAddress(p); err != nil {
		return err
	}
	if m.CreatedLt, err = p.LoadUint(64); err != nil {
		return err
	}
	createdAt, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	m.CreatedAt = uint32(createdAt)
	return nil
}

// marshalAddr writes an address, treating nil as the absent variant
func marshalAddr(b *cell.Builder, addr MsgAddress) error {
	if addr == nil {
		addr = &MsgAddressNone{}
	}
	return addr.MarshalTLB(b)
}

// Message is the common message envelope: a header, an optional StateInit
// and a body, the latter two stored inline or as references
type Message struct {
	Info       CommonMsgInfo
	Init       *StateInit
	InitLayout cell.EitherLayout
	Body       *cell.Cell
	BodyLayout cell.EitherLayout
}

func NewMessage(info CommonMsgInfo, body *cell.Cell) *Message {
	return &Message{Info: info, Body: body}
}

func (m *Message) MarshalTLB(b *cell.Builder) error {
	if m.Info == nil {
		return fmt.Errorf("message has no header")
	}
	if err := m.Info.MarshalTLB(b); err != nil {
		return err
	}
	if err := b.StoreBit(m.Init != nil); err != nil {
		return err
	}
	if m.Init != nil {
		initCell, err := ToCell(m.Init)
		if err != nil {
			return err
		}
		if err := b.StoreEitherCellRef(initCell, m.InitLayout); err != nil {
			return err
		}
	}
	body := m.Body
	if body == nil {
		body = cell.EmptyCell()
	}
	return b.StoreEitherCellRef(body, m.BodyLayout)
}

func (m *Message) UnmarshalTLB(p *cell.Parser) error {
	info, err := LoadCommonMsgInfo(p)
	if err != nil {
		return err
	}
	m.Info = info
	hasInit, err := p.LoadBit()
	if err != nil {
		return err
	}
	m.Init = nil
	m.InitLayout = cell.EitherLayoutNative
	if hasInit {
		initIsRef, err := p.LoadBit()
		if err != nil {
			return err
		}
		m.Init = &StateInit{}
		if initIsRef {
			m.InitLayout = cell.EitherLayoutRef
			initCell, err := p.NextRef()
			if err != nil {
				return err
			}
			if err := FromCell(initCell, m.Init); err != nil {
				return err
			}
		} else {
			m.InitLayout = cell.EitherLayoutInline
			if err := m.Init.UnmarshalTLB(p); err != nil {
				return err
			}
		}
	}
	bodyIsRef, err := p.LoadBit()
	if err != nil {
		return err
	}
	m.BodyLayout = cell.EitherLayoutInline
	if bodyIsRef {
		m.BodyLayout = cell.EitherLayoutRef
		if m.Body, err = p.NextRef(); err != nil {
			return err
		}
		return nil
	}
	if m.Body, err = p.LoadRemaining(); err != nil {
		return err
	}
	return nil
}
