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
	"github.com/blinklabs-io/goton/cell"
)

// TickTock marks a contract for tick and/or tock special transactions
type TickTock struct {
	Tick bool
	Tock bool
}

func (t *TickTock) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreBit(t.Tick); err != nil {
		return err
	}
	return b.StoreBit(t.Tock)
}

func (t *TickTock) UnmarshalTLB(p *cell.Parser) error {
	tick, err := p.LoadBit()
	if err != nil {
		return err
	}
	tock, err := p.LoadBit()
	if err != nil {
		return err
	}
	t.Tick = tick
	t.Tock = tock
	return nil
}

// StateInit is a contract's initial state: code and data cells plus optional
// split depth, tick-tock flags and a library collection. A contract's
// address is this structure's cell hash.
type StateInit struct {
	SplitDepth *uint8
	TickTock   *TickTock
	Code       *cell.Cell
	Data       *cell.Cell
	Library    *cell.Cell
}

func NewStateInit(code *cell.Cell, data *cell.Cell) *StateInit {
	return &StateInit{Code: code, Data: data}
}

func (s *StateInit) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreBit(s.SplitDepth != nil); err != nil {
		return err
	}
	if s.SplitDepth != nil {
		if err := b.StoreUint(uint64(*s.SplitDepth), 5); err != nil {
			return err
		}
	}
	if err := b.StoreBit(s.TickTock != nil); err != nil {
		return err
	}
	if s.TickTock != nil {
		if err := s.TickTock.MarshalTLB(b); err != nil {
			return err
		}
	}
	if err := b.StoreMaybeRef(s.Code); err != nil {
		return err
	}
	if err := b.StoreMaybeRef(s.Data); err != nil {
		return err
	}
	return b.StoreMaybeRef(s.Library)
}

func (s *StateInit) UnmarshalTLB(p *cell.Parser) error {
	hasSplitDepth, err := p.LoadBit()
	if err != nil {
		return err
	}
	s.SplitDepth = nil
	if hasSplitDepth {
		depth, err := p.LoadUint(5)
		if err != nil {
			return err
		}
		splitDepth := uint8(depth)
		s.SplitDepth = &splitDepth
	}
	hasTickTock, err := p.LoadBit()
	if err != nil {
		return err
	}
	s.TickTock = nil
	if hasTickTock {
		s.TickTock = &TickTock{}
		if err := s.TickTock.UnmarshalTLB(p); err != nil {
			return err
		}
	}
	if s.Code, err = p.LoadMaybeRef(); err != nil {
		return err
	}
	if s.Data, err = p.LoadMaybeRef(); err != nil {
		return err
	}
	if s.Library, err = p.LoadMaybeRef(); err != nil {
		return err
	}
	return nil
}
