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

	"github.com/stretchr/testify/assert"
)

func TestLevelMask(t *testing.T) {
	testCases := []struct {
		mask      uint32
		level     uint8
		hashIndex int
		hashCount int
	}{
		{mask: 0, level: 0, hashIndex: 0, hashCount: 1},
		{mask: 1, level: 1, hashIndex: 1, hashCount: 2},
		{mask: 2, level: 2, hashIndex: 1, hashCount: 2},
		{mask: 3, level: 2, hashIndex: 2, hashCount: 3},
		{mask: 4, level: 3, hashIndex: 1, hashCount: 2},
		{mask: 5, level: 3, hashIndex: 2, hashCount: 3},
		{mask: 6, level: 3, hashIndex: 2, hashCount: 3},
		{mask: 7, level: 3, hashIndex: 3, hashCount: 4},
	}
	for _, tc := range testCases {
		m := NewLevelMask(tc.mask)
		assert.Equal(t, tc.level, m.Level(), "mask %d", tc.mask)
		assert.Equal(t, tc.hashIndex, m.HashIndex(), "mask %d", tc.mask)
		assert.Equal(t, tc.hashCount, m.HashCount(), "mask %d", tc.mask)
	}
}

func TestLevelMaskApply(t *testing.T) {
	m := NewLevelMask(0b101)
	assert.Equal(t, uint32(0), m.Apply(0).Mask())
	assert.Equal(t, uint32(0b001), m.Apply(1).Mask())
	assert.Equal(t, uint32(0b001), m.Apply(2).Mask())
	assert.Equal(t, uint32(0b101), m.Apply(3).Mask())
}

func TestLevelMaskIsSignificant(t *testing.T) {
	m := NewLevelMask(0b101)
	assert.True(t, m.IsSignificant(0))
	assert.True(t, m.IsSignificant(1))
	assert.False(t, m.IsSignificant(2))
	assert.True(t, m.IsSignificant(3))
}

func TestLevelMaskTruncatesToThreeBits(t *testing.T) {
	assert.Equal(t, uint32(0b111), NewLevelMask(0xff).Mask())
}
