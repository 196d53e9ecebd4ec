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
	prefixActionSendMsg         = Prefix{Value: 0x0ec3c86d, BitLen: 32}
	prefixActionSetCode         = Prefix{Value: 0xad4de08e, BitLen: 32}
	prefixActionReserveCurrency = Prefix{Value: 0x36e6b809, BitLen: 32}
	prefixActionChangeLibrary   = Prefix{Value: 0x26fa1dd4, BitLen: 32}
)

// OutAction is one entry of a smart contract's outgoing action list
type OutAction interface {
	Marshaler
	Unmarshaler
	isOutAction()
}

// LoadOutAction probes the 32-bit action tag and parses the matching variant
func LoadOutAction(p *cell.Parser) (OutAction, error) {
	tag, err := peekPrefix(p, 32)
	if err != nil {
		return nil, err
	}
	var action OutAction
	switch tag {
	case prefixActionSendMsg.Value:
		action = &OutActionSendMsg{}
	case prefixActionSetCode.Value:
		action = &OutActionSetCode{}
	case prefixActionReserveCurrency.Value:
		action = &OutActionReserveCurrency{}
	case prefixActionChangeLibrary.Value:
		action = &OutActionChangeLibrary{}
	default:
		return nil, fmt.Errorf(
			"%w: unknown out action tag %#x",
			ErrSchemaMismatch,
			tag,
		)
	}
	if err := action.UnmarshalTLB(p); err != nil {
		return nil, err
	}
	return action, nil
}

// BuildOutList serializes actions as the recursive list form: each node
// holds one action and references the list of the remaining ones
func BuildOutList(actions []OutAction) (*cell.Cell, error) {
	if len(actions) == 0 {
		return cell.EmptyCell(), nil
	}
	prev, err := BuildOutList(actions[1:])
	if err != nil {
		return nil, err
	}
	builder := cell.NewBuilder()
	if err := builder.StoreRef(prev); err != nil {
		return nil, err
	}
	if err := actions[0].MarshalTLB(builder); err != nil {
		return nil, err
	}
	return builder.Build()
}

// ParseOutList reads the recursive action list rooted at the given cell
func ParseOutList(c *cell.Cell) ([]OutAction, error) {
	p := c.Parser()
	if p.RemainingBits() == 0 {
		return nil, nil
	}
	prev, err := p.NextRef()
	if err != nil {
		return nil, err
	}
	action, err := LoadOutAction(p)
	if err != nil {
		return nil, err
	}
	rest, err := ParseOutList(prev)
	if err != nil {
		return nil, err
	}
	return append([]OutAction{action}, rest...), nil
}

// OutActionSendMsg sends a message with the given send mode
type OutActionSendMsg struct {
	Mode   uint8
	OutMsg *cell.Cell
}

func (*OutActionSendMsg) isOutAction() {}

func (a *OutActionSendMsg) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixActionSendMsg); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(a.Mode), 8); err != nil {
		return err
	}
	return b.StoreRef(a.OutMsg)
}

func (a *OutActionSendMsg) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixActionSendMsg); err != nil {
		return err
	}
	mode, err := p.LoadUint(8)
	if err != nil {
		return err
	}
	outMsg, err := p.NextRef()
	if err != nil {
		return err
	}
	a.Mode = uint8(mode)
	a.OutMsg = outMsg
	return nil
}

// OutActionSetCode replaces the contract code
type OutActionSetCode struct {
	NewCode *cell.Cell
}

func (*OutActionSetCode) isOutAction() {}

func (a *OutActionSetCode) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixActionSetCode); err != nil {
		return err
	}
	return b.StoreRef(a.NewCode)
}

func (a *OutActionSetCode) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixActionSetCode); err != nil {
		return err
	}
	newCode, err := p.NextRef()
	if err != nil {
		return err
	}
	a.NewCode = newCode
	return nil
}

// OutActionReserveCurrency reserves part of the balance
type OutActionReserveCurrency struct {
	Mode     uint8
	Currency CurrencyCollection
}

func (*OutActionReserveCurrency) isOutAction() {}

func (a *OutActionReserveCurrency) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixActionReserveCurrency); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(a.Mode), 8); err != nil {
		return err
	}
	return a.Currency.MarshalTLB(b)
}

func (a *OutActionReserveCurrency) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixActionReserveCurrency); err != nil {
		return err
	}
	mode, err := p.LoadUint(8)
	if err != nil {
		return err
	}
	a.Mode = uint8(mode)
	return a.Currency.UnmarshalTLB(p)
}

// OutActionChangeLibrary adds or removes a library, given either by hash or
// by a referenced library cell. The mode takes 7 bits here.
type OutActionChangeLibrary struct {
	Mode        uint8
	LibraryHash *cell.Hash
	Library     *cell.Cell
}

func (*OutActionChangeLibrary) isOutAction() {}

func (a *OutActionChangeLibrary) MarshalTLB(b *cell.Builder) error {
	if err := WritePrefix(b, prefixActionChangeLibrary); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(a.Mode), 7); err != nil {
		return err
	}
	if a.LibraryHash != nil {
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return b.StoreHash(*a.LibraryHash)
	}
	if a.Library == nil {
		return fmt.Errorf("change library action has no library")
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	return b.StoreRef(a.Library)
}

func (a *OutActionChangeLibrary) UnmarshalTLB(p *cell.Parser) error {
	if err := VerifyPrefix(p, prefixActionChangeLibrary); err != nil {
		return err
	}
	mode, err := p.LoadUint(7)
	if err != nil {
		return err
	}
	a.Mode = uint8(mode)
	a.LibraryHash = nil
	a.Library = nil
	isRef, err := p.LoadBit()
	if err != nil {
		return err
	}
	if isRef {
		if a.Library, err = p.NextRef(); err != nil {
			return err
		}
		return nil
	}
	hash, err := p.LoadHash()
	if err != nil {
		return err
	}
	a.LibraryHash = &hash
	return nil
}
