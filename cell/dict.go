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
	"fmt"
	"math/big"
	mathbits "math/bits"
	"sort"
)

// KeyWriter converts a dictionary key to its fixed-width big integer form
type KeyWriter[K comparable] func(K) (*big.Int, error)

// KeyReader converts a parsed fixed-width big integer back into a key
type KeyReader[K comparable] func(*big.Int) (K, error)

// ValueWriter stores a dictionary value at a leaf
type ValueWriter[V any] func(*Builder, V) error

// ValueReader loads a dictionary value at a leaf
type ValueReader[V any] func(*Parser) (V, error)

// UintKey covers dictionary key types stored as unsigned integers
type UintKey interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// StoreDict stores a presence bit and, for a non-empty dictionary, a
// reference to the serialized trie root
func StoreDict[K comparable, V any](
	b *Builder,
	keyLenBits int,
	writeKey KeyWriter[K],
	writeVal ValueWriter[V],
	data map[K]V,
) error {
	if len(data) == 0 {
		return b.StoreBit(false)
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	root, err := buildDictCell(keyLenBits, writeKey, writeVal, data)
	if err != nil {
		return err
	}
	return b.StoreRef(root)
}

// StoreDictData stores the trie root inline; empty dictionaries have no
// inline form
func StoreDictData[K comparable, V any](
	b *Builder,
	keyLenBits int,
	writeKey KeyWriter[K],
	writeVal ValueWriter[V],
	data map[K]V,
) error {
	if len(data) == 0 {
		return DictError{Reason: "empty dictionary has no inline form"}
	}
	root, err := buildDictCell(keyLenBits, writeKey, writeVal, data)
	if err != nil {
		return err
	}
	return b.StoreCell(root)
}

// LoadDict loads a presence bit and, when set, the trie from the next
// reference. An absent dictionary yields an empty map.
func LoadDict[K comparable, V any](
	p *Parser,
	keyLenBits int,
	readKey KeyReader[K],
	readVal ValueReader[V],
) (map[K]V, error) {
	present, err := p.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return map[K]V{}, nil
	}
	root, err := p.NextRef()
	if err != nil {
		return nil, err
	}
	return LoadDictData(root.Parser(), keyLenBits, readKey, readVal)
}

// LoadDictData loads a trie stored inline at the parser's position
func LoadDictData[K comparable, V any](
	p *Parser,
	keyLenBits int,
	readKey KeyReader[K],
	readVal ValueReader[V],
) (map[K]V, error) {
	loader := &dictLoader[K, V]{
		keyLenBits: keyLenBits,
		readKey:    readKey,
		readVal:    readVal,
		result:     map[K]V{},
	}
	if err := loader.parseNode(p, big.NewInt(1)); err != nil {
		return nil, err
	}
	return loader.result, nil
}

// KeyWriterUint adapts an unsigned integer key type
func KeyWriterUint[K UintKey]() KeyWriter[K] {
	return func(k K) (*big.Int, error) {
		return new(big.Int).SetUint64(uint64(k)), nil
	}
}

// KeyReaderUint adapts an unsigned integer key type
func KeyReaderUint[K UintKey]() KeyReader[K] {
	return func(v *big.Int) (K, error) {
		if !v.IsUint64() {
			return 0, DictError{
				Reason: fmt.Sprintf("key %s does not fit in uint64", v),
			}
		}
		return K(v.Uint64()), nil
	}
}

// ValueWriterRef stores a value cell as a reference
func ValueWriterRef(b *Builder, v *Cell) error {
	return b.StoreRef(v)
}

// ValueReaderRef loads a value cell stored as a reference
func ValueReaderRef(p *Parser) (*Cell, error) {
	return p.NextRef()
}

// ValueReaderCell gathers the leaf's remaining bits and references into a
// cell
func ValueReaderCell(p *Parser) (*Cell, error) {
	return p.LoadRemaining()
}

// ValueReaderSnakeData loads a snake-format byte payload stored as a
// reference
func ValueReaderSnakeData(p *Parser) ([]byte, error) {
	c, err := p.NextRef()
	if err != nil {
		return nil, err
	}
	return c.SnakeData()
}

type dictEntry[V any] struct {
	// key carries an extra leading 1 bit above the remaining key bits, so
	// leading zeros survive arithmetic
	key   *big.Int
	value V
}

type dictWriter[V any] struct {
	writeVal       ValueWriter[V]
	keyLenBitsLeft int
}

func buildDictCell[K comparable, V any](
	keyLenBits int,
	writeKey KeyWriter[K],
	writeVal ValueWriter[V],
	data map[K]V,
) (*Cell, error) {
	entries := make([]dictEntry[V], 0, len(data))
	for k, v := range data {
		keyBig, err := writeKey(k)
		if err != nil {
			return nil, err
		}
		if keyBig.Sign() < 0 || keyBig.BitLen() > keyLenBits {
			return nil, DictError{
				Reason: fmt.Sprintf(
					"key %s does not fit in %d bits",
					keyBig,
					keyLenBits,
				),
			}
		}
		entries = append(entries, dictEntry[V]{
			key:   new(big.Int).SetBit(keyBig, keyLenBits, 1),
			value: v,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.Cmp(entries[j].key) < 0
	})
	builder := NewBuilder()
	writer := &dictWriter[V]{writeVal: writeVal, keyLenBitsLeft: keyLenBits}
	if err := writer.fillNode(builder, entries); err != nil {
		return nil, err
	}
	return builder.Build()
}

// fillNode writes one trie node: the label shared by all keys below it,
// then either the leaf value or the two child branches
func (d *dictWriter[V]) fillNode(b *Builder, entries []dictEntry[V]) error {
	if len(entries) == 1 {
		if err := d.storeLabel(b, entries[0].key); err != nil {
			return err
		}
		return d.writeVal(b, entries[0].value)
	}
	keyLen := entries[0].key.BitLen()
	prefixLen := commonPrefixLen(entries[0].key, entries[len(entries)-1].key)
	label := new(big.Int).Rsh(entries[0].key, uint(keyLen-prefixLen-1))
	if err := d.storeLabel(b, label); err != nil {
		return err
	}
	// split on the first bit after the common prefix
	childKeyLen := keyLen - prefixLen - 1
	mask := new(big.Int).Lsh(big.NewInt(1), uint(childKeyLen))
	mask.Sub(mask, big.NewInt(1))
	var left, right []dictEntry[V]
	for _, entry := range entries {
		childKey := new(big.Int).And(entry.key, mask)
		isRight := childKey.BitLen() == childKeyLen
		childKey.SetBit(childKey, childKeyLen-1, 1)
		child := dictEntry[V]{key: childKey, value: entry.value}
		if isRight {
			right = append(right, child)
		} else {
			left = append(left, child)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return DictError{Reason: "unbalanced split"}
	}
	d.keyLenBitsLeft -= prefixLen + 1
	for _, branch := range [][]dictEntry[V]{left, right} {
		childBuilder := NewBuilder()
		if err := d.fillNode(childBuilder, branch); err != nil {
			return err
		}
		if err := b.StoreBuilderRef(childBuilder); err != nil {
			return err
		}
	}
	d.keyLenBitsLeft += prefixLen + 1
	return nil
}

// storeLabel writes a key fragment in whichever of the three label forms is
// smallest: short unless long is strictly smaller, then same if strictly
// smaller than short
func (d *dictWriter[V]) storeLabel(b *Builder, label *big.Int) error {
	if label.BitLen() == 0 {
		return DictError{Reason: "label without leading bit"}
	}
	if label.BitLen() == 1 {
		// empty label, shortest short form
		return b.StoreUint(0, 2)
	}
	labelLen := label.BitLen() - 1
	labelLenLen := ceilLog2(d.keyLenBitsLeft + 1)
	fair := new(big.Int).SetBit(label, labelLen, 0)
	allSame := fair.Sign() == 0 || fair.BitLen() == labelLen && isAllOnes(fair)
	sameLen := maxInt
	if allSame {
		sameLen = 3 + labelLenLen
	}
	shortLen := 2 + 2*labelLen
	longLen := 2 + labelLenLen + labelLen
	switch {
	case sameLen < shortLen:
		if err := b.StoreUint(3, 2); err != nil {
			return err
		}
		if err := b.StoreBit(fair.Sign() != 0); err != nil {
			return err
		}
		return b.StoreUint(uint64(labelLen), labelLenLen)
	case longLen < shortLen:
		if err := b.StoreUint(2, 2); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(labelLen), labelLenLen); err != nil {
			return err
		}
		return b.StoreBigUint(fair, labelLen)
	default:
		if err := b.StoreBit(false); err != nil {
			return err
		}
		for range labelLen {
			if err := b.StoreBit(true); err != nil {
				return err
			}
		}
		if err := b.StoreBit(false); err != nil {
			return err
		}
		return b.StoreBigUint(fair, labelLen)
	}
}

type dictLoader[K comparable, V any] struct {
	keyLenBits int
	readKey    KeyReader[K]
	readVal    ValueReader[V]
	result     map[K]V
}

// parseNode reads one trie node. The prefix accumulates key bits under a
// leading 1 bit; a node is a leaf once the prefix covers the whole key.
func (d *dictLoader[K, V]) parseNode(p *Parser, prefix *big.Int) error {
	prefix, err := d.loadLabel(p, prefix)
	if err != nil {
		return err
	}
	switch {
	case prefix.BitLen() == d.keyLenBits+1:
		keyBig := new(big.Int).SetBit(prefix, d.keyLenBits, 0)
		key, err := d.readKey(keyBig)
		if err != nil {
			return err
		}
		if _, exists := d.result[key]; exists {
			return DictError{
				Reason: fmt.Sprintf("duplicate key %s", keyBig),
			}
		}
		val, err := d.readVal(p)
		if err != nil {
			return err
		}
		d.result[key] = val
		return nil
	case prefix.BitLen() > d.keyLenBits+1:
		return DictError{Reason: "label exceeds key length"}
	}
	for _, branchBit := range []uint{0, 1} {
		child, err := p.NextRef()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptDict, err)
		}
		childPrefix := new(big.Int).Lsh(prefix, 1)
		childPrefix.SetBit(childPrefix, 0, branchBit)
		if err := d.parseNode(child.Parser(), childPrefix); err != nil {
			return err
		}
	}
	return nil
}

func (d *dictLoader[K, V]) loadLabel(
	p *Parser,
	prefix *big.Int,
) (*big.Int, error) {
	isShort, err := p.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDict, err)
	}
	if !isShort {
		// unary length, then that many label bits
		labelLen, err := p.LoadUnaryLength()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptDict, err)
		}
		return d.appendLabelBits(p, prefix, labelLen)
	}
	isSame, err := p.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDict, err)
	}
	if !isSame {
		labelLen, err := d.loadLabelLen(p, prefix)
		if err != nil {
			return nil, err
		}
		return d.appendLabelBits(p, prefix, labelLen)
	}
	repeated, err := p.LoadBit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDict, err)
	}
	labelLen, err := d.loadLabelLen(p, prefix)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Lsh(prefix, uint(labelLen))
	if repeated {
		ones := new(big.Int).Lsh(big.NewInt(1), uint(labelLen))
		ones.Sub(ones, big.NewInt(1))
		out.Or(out, ones)
	}
	return out, nil
}

// loadLabelLen reads a label length sized to the bits still unaccounted for
// below this node
func (d *dictLoader[K, V]) loadLabelLen(
	p *Parser,
	prefix *big.Int,
) (int, error) {
	prefixLenLeft := d.keyLenBits - prefix.BitLen() + 2
	lenLen := ceilLog2(prefixLenLeft)
	if lenLen == 0 {
		return 0, nil
	}
	labelLen, err := p.LoadUint(lenLen)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptDict, err)
	}
	return int(labelLen), nil
}

func (d *dictLoader[K, V]) appendLabelBits(
	p *Parser,
	prefix *big.Int,
	labelLen int,
) (*big.Int, error) {
	out := new(big.Int).Lsh(prefix, uint(labelLen))
	if labelLen > 0 {
		bits, err := p.LoadBigUint(labelLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptDict, err)
		}
		out.Or(out, bits)
	}
	return out, nil
}

// commonPrefixLen counts shared leading bits below the leading marker bit
func commonPrefixLen(a, b *big.Int) int {
	diff := new(big.Int).Xor(a, b)
	return a.BitLen() - diff.BitLen() - 1
}

func isAllOnes(v *big.Int) bool {
	for i := 0; i < v.BitLen(); i++ {
		if v.Bit(i) == 0 {
			return false
		}
	}
	return true
}

// ceilLog2 returns the number of bits needed to represent values 0..n-1
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return mathbits.Len(uint(n - 1))
}
