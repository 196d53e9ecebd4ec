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
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded indicates an attempt to store more than 1023 data bits
	ErrCapacityExceeded = errors.New("cell capacity exceeded")
	// ErrTooManyReferences indicates an attempt to store more than 4 references
	ErrTooManyReferences = errors.New("too many cell references")
	// ErrBufferUnderflow indicates a read past the end of a cell's data bits
	ErrBufferUnderflow = errors.New("not enough bits to read")
	// ErrRefUnderflow indicates a read past the end of a cell's references
	ErrRefUnderflow = errors.New("not enough references to read")
	// ErrUnexpectedData indicates leftover bits or references after a strict parse
	ErrUnexpectedData = errors.New("unexpected data after parse")
	// ErrMalformedBoc indicates an invalid bag-of-cells envelope
	ErrMalformedBoc = errors.New("malformed bag of cells")
	// ErrCorruptDict indicates an invalid dictionary structure
	ErrCorruptDict = errors.New("corrupt dictionary")
)

// CapacityError indicates a builder store operation exceeding the 1023-bit limit
type CapacityError struct {
	Requested int
	Used      int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf(
		"cell capacity exceeded: %d bits used, %d more requested, max %d",
		e.Used,
		e.Requested,
		MaxCellBits,
	)
}

func (CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// UnderflowError indicates a parser load operation with insufficient bits
type UnderflowError struct {
	Requested int
	Remaining int
}

func (e UnderflowError) Error() string {
	return fmt.Sprintf(
		"not enough bits to read: %d requested, %d remaining",
		e.Requested,
		e.Remaining,
	)
}

func (UnderflowError) Is(target error) bool {
	return target == ErrBufferUnderflow
}

// NonEmptyParserError indicates leftover bits or references after a strict parse
type NonEmptyParserError struct {
	RemainingBits int
	RemainingRefs int
}

func (e NonEmptyParserError) Error() string {
	return fmt.Sprintf(
		"non-empty parser: %d bits and %d references remaining",
		e.RemainingBits,
		e.RemainingRefs,
	)
}

func (NonEmptyParserError) Is(target error) bool {
	return target == ErrUnexpectedData
}

// InvalidIndexError indicates a reference index outside a cell's reference list
type InvalidIndexError struct {
	Index    int
	RefCount int
}

func (e InvalidIndexError) Error() string {
	return fmt.Sprintf(
		"invalid reference index %d: cell has %d references",
		e.Index,
		e.RefCount,
	)
}

// ExoticCellError indicates invalid data for an exotic cell variant
type ExoticCellError struct {
	Reason string
}

func (e ExoticCellError) Error() string {
	return "invalid exotic cell: " + e.Reason
}

// BocError indicates an invalid bag-of-cells envelope
type BocError struct {
	Reason string
}

func (e BocError) Error() string {
	return "malformed bag of cells: " + e.Reason
}

func (BocError) Is(target error) bool {
	return target == ErrMalformedBoc
}

// DictError indicates an invalid dictionary structure
type DictError struct {
	Reason string
}

func (e DictError) Error() string {
	return "corrupt dictionary: " + e.Reason
}

func (DictError) Is(target error) bool {
	return target == ErrCorruptDict
}
