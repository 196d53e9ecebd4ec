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

import "math/bits"

// LevelMask records which merkle levels of a cell carry a distinct hash.
// Bit i-1 set means level i is significant; level 0 always is.
type LevelMask uint8

// NewLevelMask builds a level mask from its raw three-bit value.
func NewLevelMask(mask uint32) LevelMask {
	return LevelMask(mask & 7)
}

func (m LevelMask) Mask() uint32 {
	return uint32(m)
}

// Level returns the highest significant level, 0..3.
func (m LevelMask) Level() uint8 {
	return uint8(bits.Len8(uint8(m)))
}

// HashIndex returns the position of this mask's hash within a cell's
// significant-hash list.
func (m LevelMask) HashIndex() int {
	return bits.OnesCount8(uint8(m))
}

// HashCount returns the number of stored hashes, including level 0.
func (m LevelMask) HashCount() int {
	return m.HashIndex() + 1
}

// Apply truncates the mask to the given level.
func (m LevelMask) Apply(level uint8) LevelMask {
	return LevelMask(uint32(m) & ((1 << level) - 1))
}

func (m LevelMask) ApplyOr(other LevelMask) LevelMask {
	return m | other
}

func (m LevelMask) ShiftRight() LevelMask {
	return m >> 1
}

// IsSignificant reports whether the given level contributes its own hash.
func (m LevelMask) IsSignificant(level uint8) bool {
	return level == 0 || (uint32(m)>>(level-1))&1 != 0
}
