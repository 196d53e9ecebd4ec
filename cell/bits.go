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

// bitWriter accumulates bits most-significant first into a byte buffer
type bitWriter struct {
	buf    []byte
	bitLen int
}

func (w *bitWriter) writeBit(v bool) {
	if w.bitLen%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if v {
		w.buf[w.bitLen/8] |= 1 << (7 - w.bitLen%8)
	}
	w.bitLen++
}

// writeValue writes the low n bits of val, most-significant first
func (w *bitWriter) writeValue(val uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit((val>>i)&1 == 1)
	}
}

func (w *bitWriter) writeBytes(data []byte) {
	if w.bitLen%8 == 0 {
		w.buf = append(w.buf, data...)
		w.bitLen += len(data) * 8
		return
	}
	for _, b := range data {
		w.writeValue(uint64(b), 8)
	}
}

// writeBits writes the first n bits of data, most-significant first
func (w *bitWriter) writeBits(data []byte, n int) {
	full := n / 8
	w.writeBytes(data[:full])
	if rest := n % 8; rest > 0 {
		w.writeValue(uint64(data[full])>>(8-rest), rest)
	}
}

// bitReader walks a byte buffer bit by bit, most-significant first.
// Callers are responsible for bounds checks against bitLen.
type bitReader struct {
	data   []byte
	bitLen int
	pos    int
}

func (r *bitReader) readBit() bool {
	v := r.data[r.pos/8]>>(7-r.pos%8)&1 == 1
	r.pos++
	return v
}

func (r *bitReader) readValue(n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v <<= 1
		if r.readBit() {
			v |= 1
		}
	}
	return v
}

// readBits reads n bits left-aligned into a fresh byte slice
func (r *bitReader) readBits(n int) []byte {
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if r.readBit() {
			out[i/8] |= 1 << (7 - i%8)
		}
	}
	return out
}

func (r *bitReader) remaining() int {
	return r.bitLen - r.pos
}
