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

// Package address implements account address parsing and formatting: the
// raw "workchain:hex" form and the checksummed user-friendly base64 forms.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/goton/cell"
	"github.com/blinklabs-io/goton/tlb"
)

var (
	ErrInvalidChecksum  = errors.New("invalid address checksum")
	ErrInvalidLength    = errors.New("invalid address length")
	ErrInvalidWorkchain = errors.New("invalid address workchain")
	ErrInvalidFormat    = errors.New("invalid address format")
)

// ParseError indicates address text that could not be parsed
type ParseError struct {
	Input string
	Err   error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse address %q: %v", e.Input, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

const (
	// user-friendly form: tag, workchain, hash, CRC-16
	userFriendlyLen     = 1 + 1 + cell.HashSize + 2
	userFriendlyTextLen = 48

	tagBounceable    = 0x11
	tagNonBounceable = 0x51
	tagTestnet       = 0x80
)

// Address identifies an account: a signed 32-bit workchain and a 256-bit
// account id, usually a StateInit cell hash
type Address struct {
	Workchain int32
	HashPart  cell.Hash
}

func NewAddress(workchain int32, hashPart cell.Hash) Address {
	return Address{Workchain: workchain, HashPart: hashPart}
}

// NullAddress returns the zero address in the base workchain
func NullAddress() Address {
	return Address{}
}

// Derive computes a contract's address from its initial code and data
func Derive(workchain int32, code *cell.Cell, data *cell.Cell) (Address, error) {
	hash, err := tlb.CellHash(tlb.NewStateInit(code, data))
	if err != nil {
		return Address{}, err
	}
	return Address{Workchain: workchain, HashPart: hash}, nil
}

// FromString parses either textual form, detecting raw by the colon and the
// base64 alphabet by its distinguishing characters
func FromString(s string) (Address, error) {
	if strings.ContainsRune(s, ':') {
		return FromRaw(s)
	}
	if strings.ContainsAny(s, "+/") {
		addr, _, _, err := FromBase64StdFlags(s)
		return addr, err
	}
	addr, _, _, err := FromBase64URLFlags(s)
	return addr, err
}

// FromRaw parses the "workchain:hex" form
func FromRaw(s string) (Address, error) {
	sepIdx := strings.IndexRune(s, ':')
	if sepIdx < 0 {
		return Address{}, ParseError{Input: s, Err: ErrInvalidFormat}
	}
	workchain, err := strconv.ParseInt(s[:sepIdx], 10, 32)
	if err != nil {
		return Address{}, ParseError{Input: s, Err: ErrInvalidWorkchain}
	}
	hexPart := s[sepIdx+1:]
	if len(hexPart) != cell.HashSize*2 {
		return Address{}, ParseError{Input: s, Err: ErrInvalidLength}
	}
	hashPart, err := cell.NewHashFromHex(hexPart)
	if err != nil {
		return Address{}, ParseError{Input: s, Err: ErrInvalidFormat}
	}
	return Address{Workchain: int32(workchain), HashPart: hashPart}, nil
}

// FromBase64URL parses the user-friendly form in the URL-safe alphabet
func FromBase64URL(s string) (Address, error) {
	addr, _, _, err := FromBase64URLFlags(s)
	return addr, err
}

// FromBase64URLFlags parses the user-friendly form in the URL-safe alphabet
// and returns its non-bounceable and testnet flags
func FromBase64URLFlags(s string) (Address, bool, bool, error) {
	if len(s) != userFriendlyTextLen {
		return Address{}, false, false, ParseError{
			Input: s,
			Err:   ErrInvalidLength,
		}
	}
	data, err := base64URLNoPad.DecodeString(s)
	if err != nil {
		return Address{}, false, false, ParseError{
			Input: s,
			Err:   ErrInvalidFormat,
		}
	}
	addr, nonBounceable, testnet, err := fromUserFriendly(data)
	if err != nil {
		return Address{}, false, false, ParseError{Input: s, Err: err}
	}
	return addr, nonBounceable, testnet, nil
}

// FromBase64Std parses the user-friendly form in the standard alphabet
func FromBase64Std(s string) (Address, error) {
	addr, _, _, err := FromBase64StdFlags(s)
	return addr, err
}

// FromBase64StdFlags parses the user-friendly form in the standard alphabet
// and returns its non-bounceable and testnet flags
func FromBase64StdFlags(s string) (Address, bool, bool, error) {
	if len(s) != userFriendlyTextLen {
		return Address{}, false, false, ParseError{
			Input: s,
			Err:   ErrInvalidLength,
		}
	}
	data, err := base64StdNoPad.DecodeString(s)
	if err != nil {
		return Address{}, false, false, ParseError{
			Input: s,
			Err:   ErrInvalidFormat,
		}
	}
	addr, nonBounceable, testnet, err := fromUserFriendly(data)
	if err != nil {
		return Address{}, false, false, ParseError{Input: s, Err: err}
	}
	return addr, nonBounceable, testnet, nil
}

func fromUserFriendly(data []byte) (Address, bool, bool, error) {
	if len(data) != userFriendlyLen {
		return Address{}, false, false, ErrInvalidLength
	}
	stored := uint16(data[34])<<8 | uint16(data[35])
	if stored != crc16Xmodem(data[:34]) {
		return Address{}, false, false, ErrInvalidChecksum
	}
	tag := data[0]
	testnet := tag&tagTestnet != 0
	tag &^= tagTestnet
	var nonBounceable bool
	switch tag {
	case tagBounceable:
		nonBounceable = false
	case tagNonBounceable:
		nonBounceable = true
	default:
		return Address{}, false, false, ErrInvalidFormat
	}
	addr := Address{Workchain: int32(int8(data[1]))}
	copy(addr.HashPart[:], data[2:34])
	return addr, nonBounceable, testnet, nil
}

// ToRaw formats the "workchain:hex" form
func (a Address) ToRaw() string {
	return fmt.Sprintf(
		"%d:%s",
		a.Workchain,
		hex.EncodeToString(a.HashPart[:]),
	)
}

// ToBase64URL formats the bounceable mainnet form in the URL-safe alphabet
func (a Address) ToBase64URL() string {
	return a.ToBase64URLFlags(false, false)
}

func (a Address) ToBase64URLFlags(nonBounceable bool, testnet bool) string {
	return base64URLNoPad.EncodeToString(
		a.toUserFriendly(nonBounceable, testnet),
	)
}

// ToBase64Std formats the bounceable mainnet form in the standard alphabet
func (a Address) ToBase64Std() string {
	return a.ToBase64StdFlags(false, false)
}

func (a Address) ToBase64StdFlags(nonBounceable bool, testnet bool) string {
	return base64StdNoPad.EncodeToString(
		a.toUserFriendly(nonBounceable, testnet),
	)
}

func (a Address) toUserFriendly(nonBounceable bool, testnet bool) []byte {
	data := make([]byte, userFriendlyLen)
	tag := byte(tagBounceable)
	if nonBounceable {
		tag = tagNonBounceable
	}
	if testnet {
		tag |= tagTestnet
	}
	data[0] = tag
	data[1] = byte(a.Workchain)
	copy(data[2:34], a.HashPart[:])
	checksum := crc16Xmodem(data[:34])
	data[34] = byte(checksum >> 8)
	data[35] = byte(checksum)
	return data
}

// String formats the bounceable mainnet URL-safe form
func (a Address) String() string {
	return a.ToBase64URL()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.ToBase64URL()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := FromString(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ToMsgAddress converts to the standard internal schema form
func (a Address) ToMsgAddress() (*tlb.MsgAddressIntStd, error) {
	if a.Workchain < -128 || a.Workchain > 127 {
		return nil, fmt.Errorf(
			"%w: %d does not fit in 8 bits",
			ErrInvalidWorkchain,
			a.Workchain,
		)
	}
	return tlb.NewMsgAddressIntStd(int8(a.Workchain), a.HashPart), nil
}

// FromMsgAddress converts from a schema address, applying any anycast
// rewrite prefix to the account id
func FromMsgAddress(msgAddr tlb.MsgAddress) (Address, error) {
	switch addr := msgAddr.(type) {
	case *tlb.MsgAddressNone:
		return NullAddress(), nil
	case *tlb.MsgAddressIntStd:
		out := Address{
			Workchain: int32(addr.Workchain),
			HashPart:  addr.Address,
		}
		if addr.Anycast != nil {
			rewriteBits(
				out.HashPart[:],
				addr.Anycast.RewritePfx,
				int(addr.Anycast.Depth),
			)
		}
		return out, nil
	case *tlb.MsgAddressIntVar:
		if addr.AddressBitLen != 8*cell.HashSize {
			return Address{}, fmt.Errorf(
				"%w: variable address of %d bits",
				ErrInvalidLength,
				addr.AddressBitLen,
			)
		}
		out := Address{Workchain: addr.Workchain}
		copy(out.HashPart[:], addr.Address)
		if addr.Anycast != nil {
			rewriteBits(
				out.HashPart[:],
				addr.Anycast.RewritePfx,
				int(addr.Anycast.Depth),
			)
		}
		return out, nil
	}
	return Address{}, fmt.Errorf(
		"cannot convert %T to an account address",
		msgAddr,
	)
}

// rewriteBits replaces the first numBits bits of target with prefix
func rewriteBits(target []byte, prefix []byte, numBits int) {
	for i := 0; i < numBits && i < len(target)*8 && i < len(prefix)*8; i++ {
		bit := prefix[i/8] >> (7 - i%8) & 1
		target[i/8] &^= 1 << (7 - i%8)
		target[i/8] |= bit << (7 - i%8)
	}
}
