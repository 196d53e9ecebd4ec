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
	"fmt"

	"github.com/blinklabs-io/goton/cell"
	"github.com/blinklabs-io/goton/tlb"
)

// bodyPrefixV5 is the "sign" tag of externally signed v5 requests
var bodyPrefixV5 = tlb.Prefix{Value: 0x7369676e, BitLen: 32}

// MaxMsgsPerBody is the message limit of v3/v4 transfer bodies
const MaxMsgsPerBody = 4

func checkBodyMsgs(modes []uint8, msgs []*cell.Cell) error {
	if len(modes) != len(msgs) {
		return fmt.Errorf(
			"got %d send modes for %d messages",
			len(modes),
			len(msgs),
		)
	}
	if len(msgs) > MaxMsgsPerBody {
		return fmt.Errorf(
			"%d messages exceed the per-body limit of %d",
			len(msgs),
			MaxMsgsPerBody,
		)
	}
	return nil
}

// BodyV3 is the unsigned external transfer body of v3 wallets
type BodyV3 struct {
	WalletID   int32
	ValidUntil uint32
	Seqno      uint32
	MsgModes   []uint8
	Msgs       []*cell.Cell
}

func (body *BodyV3) MarshalTLB(b *cell.Builder) error {
	if err := checkBodyMsgs(body.MsgModes, body.Msgs); err != nil {
		return err
	}
	if err := b.StoreInt(int64(body.WalletID), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.ValidUntil), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.Seqno), 32); err != nil {
		return err
	}
	return storeModedMsgs(b, body.MsgModes, body.Msgs)
}

func (body *BodyV3) UnmarshalTLB(p *cell.Parser) error {
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	validUntil, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	body.WalletID = int32(walletID)
	body.ValidUntil = uint32(validUntil)
	body.Seqno = uint32(seqno)
	body.MsgModes, body.Msgs, err = loadModedMsgs(p)
	return err
}

// BodyV4 is the unsigned external transfer body of v4 wallets; it carries a
// zero opcode between the seqno and the messages
type BodyV4 struct {
	WalletID   int32
	ValidUntil uint32
	Seqno      uint32
	MsgModes   []uint8
	Msgs       []*cell.Cell
}

func (body *BodyV4) MarshalTLB(b *cell.Builder) error {
	if err := checkBodyMsgs(body.MsgModes, body.Msgs); err != nil {
		return err
	}
	if err := b.StoreInt(int64(body.WalletID), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.ValidUntil), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.Seqno), 32); err != nil {
		return err
	}
	if err := b.StoreUint(0, 8); err != nil {
		return err
	}
	return storeModedMsgs(b, body.MsgModes, body.Msgs)
}

func (body *BodyV4) UnmarshalTLB(p *cell.Parser) error {
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	validUntil, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	opcode, err := p.LoadUint(8)
	if err != nil {
		return err
	}
	if opcode != 0 {
		return fmt.Errorf(
			"%w: unexpected opcode %d in transfer body",
			tlb.ErrSchemaMismatch,
			opcode,
		)
	}
	body.WalletID = int32(walletID)
	body.ValidUntil = uint32(validUntil)
	body.Seqno = uint32(seqno)
	body.MsgModes, body.Msgs, err = loadModedMsgs(p)
	return err
}

// BodyV5 is the unsigned external transfer body of v5r1 wallets: a "sign"
// tag, the ids, and the messages wrapped as a referenced send-message
// action list
type BodyV5 struct {
	WalletID   int32
	ValidUntil uint32
	Seqno      uint32
	MsgModes   []uint8
	Msgs       []*cell.Cell
}

func (body *BodyV5) MarshalTLB(b *cell.Builder) error {
	if len(body.MsgModes) != len(body.Msgs) {
		return fmt.Errorf(
			"got %d send modes for %d messages",
			len(body.MsgModes),
			len(body.Msgs),
		)
	}
	if err := tlb.WritePrefix(b, bodyPrefixV5); err != nil {
		return err
	}
	if err := b.StoreInt(int64(body.WalletID), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.ValidUntil), 32); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(body.Seqno), 32); err != nil {
		return err
	}
	if len(body.Msgs) == 0 {
		if err := b.StoreBit(false); err != nil {
			return err
		}
	} else {
		actions := make([]tlb.OutAction, 0, len(body.Msgs))
		for i, msg := range body.Msgs {
			actions = append(actions, &tlb.OutActionSendMsg{
				Mode:   body.MsgModes[i],
				OutMsg: msg,
			})
		}
		list, err := tlb.BuildOutList(actions)
		if err != nil {
			return err
		}
		if err := b.StoreBit(true); err != nil {
			return err
		}
		if err := b.StoreRef(list); err != nil {
			return err
		}
	}
	// no extended actions
	return b.StoreBit(false)
}

func (body *BodyV5) UnmarshalTLB(p *cell.Parser) error {
	if err := tlb.VerifyPrefix(p, bodyPrefixV5); err != nil {
		return err
	}
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	validUntil, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	body.WalletID = int32(walletID)
	body.ValidUntil = uint32(validUntil)
	body.Seqno = uint32(seqno)
	body.MsgModes = nil
	body.Msgs = nil
	list, err := p.LoadMaybeRef()
	if err != nil {
		return err
	}
	if list != nil {
		actions, err := tlb.ParseOutList(list)
		if err != nil {
			return err
		}
		for _, action := range actions {
			sendMsg, ok := action.(*tlb.OutActionSendMsg)
			if !ok {
				return fmt.Errorf(
					"%w: unexpected %T in transfer body",
					tlb.ErrSchemaMismatch,
					action,
				)
			}
			body.MsgModes = append(body.MsgModes, sendMsg.Mode)
			body.Msgs = append(body.Msgs, sendMsg.OutMsg)
		}
	}
	hasExtended, err := p.LoadBit()
	if err != nil {
		return err
	}
	if hasExtended {
		return fmt.Errorf(
			"%w: extended actions are not supported",
			tlb.ErrSchemaMismatch,
		)
	}
	return nil
}

func storeModedMsgs(b *cell.Builder, modes []uint8, msgs []*cell.Cell) error {
	for i, msg := range msgs {
		if err := b.StoreUint(uint64(modes[i]), 8); err != nil {
			return err
		}
		if err := b.StoreRef(msg); err != nil {
			return err
		}
	}
	return nil
}

func loadModedMsgs(p *cell.Parser) ([]uint8, []*cell.Cell, error) {
	var modes []uint8
	var msgs []*cell.Cell
	for p.RemainingRefs() > 0 {
		mode, err := p.LoadUint(8)
		if err != nil {
			return nil, nil, err
		}
		msg, err := p.NextRef()
		if err != nil {
			return nil, nil, err
		}
		modes = append(modes, uint8(mode))
		msgs = append(msgs, msg)
	}
	return modes, msgs, nil
}
