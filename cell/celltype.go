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
	"bytes"
	"encoding/binary"
	"fmt"
)

// CellType identifies an ordinary cell or one of the exotic variants
type CellType uint8

const (
	CellTypeOrdinary     CellType = 0
	CellTypePrunedBranch CellType = 1
	CellTypeLibraryRef   CellType = 2
	CellTypeMerkleProof  CellType = 3
	CellTypeMerkleUpdate CellType = 4
)

const (
	prunedBranchBitLenConfigProof = 280

	libraryRefBitLen   = 8 * (1 + HashSize)
	merkleProofBitLen  = 8 * (1 + HashSize + depthSize)
	merkleUpdateBitLen = 8 + 2*(8*HashSize+8*depthSize)
)

func (t CellType) String() string {
	switch t {
	case CellTypeOrdinary:
		return "Ordinary"
	case CellTypePrunedBranch:
		return "PrunedBranch"
	case CellTypeLibraryRef:
		return "LibraryRef"
	case CellTypeMerkleProof:
		return "MerkleProof"
	case CellTypeMerkleUpdate:
		return "MerkleUpdate"
	}
	return fmt.Sprintf("CellType(%d)", uint8(t))
}

// exoticCellType reads the variant tag from the first data byte
func exoticCellType(data []byte, bitLen int) (CellType, error) {
	if bitLen < 8 || len(data) == 0 {
		return 0, ExoticCellError{
			Reason: "not enough data for a type tag",
		}
	}
	t := CellType(data[0])
	switch t {
	case CellTypePrunedBranch,
		CellTypeLibraryRef,
		CellTypeMerkleProof,
		CellTypeMerkleUpdate:
		return t, nil
	}
	return 0, ExoticCellError{
		Reason: fmt.Sprintf("unknown type tag %d", data[0]),
	}
}

// cellLevelMask computes the level mask for a cell of the given type
func cellLevelMask(
	cellType CellType,
	data []byte,
	bitLen int,
	refs []*Cell,
) (LevelMask, error) {
	switch cellType {
	case CellTypeOrdinary:
		var mask LevelMask
		for _, ref := range refs {
			mask = mask.ApplyOr(ref.levelMask)
		}
		return mask, nil
	case CellTypePrunedBranch:
		return prunedBranchLevelMask(data, bitLen)
	case CellTypeLibraryRef:
		return NewLevelMask(0), nil
	case CellTypeMerkleProof:
		if len(refs) != 1 {
			return 0, ExoticCellError{
				Reason: fmt.Sprintf(
					"merkle proof must have 1 reference, got %d",
					len(refs),
				),
			}
		}
		return refs[0].levelMask.ShiftRight(), nil
	case CellTypeMerkleUpdate:
		if len(refs) != 2 {
			return 0, ExoticCellError{
				Reason: fmt.Sprintf(
					"merkle update must have 2 references, got %d",
					len(refs),
				),
			}
		}
		return refs[0].levelMask.ApplyOr(refs[1].levelMask).ShiftRight(), nil
	}
	return 0, ExoticCellError{
		Reason: fmt.Sprintf("unknown cell type %d", cellType),
	}
}

func prunedBranchLevelMask(data []byte, bitLen int) (LevelMask, error) {
	if bitLen < 16 || len(data) < 2 {
		return 0, ExoticCellError{
			Reason: "pruned branch is too short",
		}
	}
	if bitLen == prunedBranchBitLenConfigProof {
		return NewLevelMask(1), nil
	}
	return NewLevelMask(uint32(data[1])), nil
}

// validateExotic checks the structural constraints of an exotic cell
func validateExotic(
	cellType CellType,
	data []byte,
	bitLen int,
	refs []*Cell,
) error {
	switch cellType {
	case CellTypePrunedBranch:
		return validatePrunedBranch(data, bitLen, refs)
	case CellTypeLibraryRef:
		if bitLen != libraryRefBitLen {
			return ExoticCellError{
				Reason: fmt.Sprintf(
					"library reference must be %d bits, got %d",
					libraryRefBitLen,
					bitLen,
				),
			}
		}
		return nil
	case CellTypeMerkleProof:
		return validateMerkleProof(data, bitLen, refs)
	case CellTypeMerkleUpdate:
		return validateMerkleUpdate(data, bitLen, refs)
	}
	return nil
}

func validatePrunedBranch(data []byte, bitLen int, refs []*Cell) error {
	if len(refs) != 0 {
		return ExoticCellError{
			Reason: "pruned branch must not have references",
		}
	}
	if bitLen < 16 {
		return ExoticCellError{
			Reason: "pruned branch is too short",
		}
	}
	if bitLen == prunedBranchBitLenConfigProof {
		return nil
	}
	mask := NewLevelMask(uint32(data[1]))
	level := mask.Level()
	if level == 0 || level > MaxLevel {
		return ExoticCellError{
			Reason: fmt.Sprintf("pruned branch level %d out of range", level),
		}
	}
	expected := 8 * (2 + mask.Apply(level-1).HashCount()*(HashSize+depthSize))
	if bitLen != expected {
		return ExoticCellError{
			Reason: fmt.Sprintf(
				"pruned branch must be %d bits for level mask %d, got %d",
				expected,
				mask.Mask(),
				bitLen,
			),
		}
	}
	return nil
}

func validateMerkleProof(data []byte, bitLen int, refs []*Cell) error {
	if bitLen != merkleProofBitLen {
		return ExoticCellError{
			Reason: fmt.Sprintf(
				"merkle proof must be %d bits, got %d",
				merkleProofBitLen,
				bitLen,
			),
		}
	}
	if len(refs) != 1 {
		return ExoticCellError{
			Reason: fmt.Sprintf(
				"merkle proof must have 1 reference, got %d",
				len(refs),
			),
		}
	}
	storedHash := data[1 : 1+HashSize]
	storedDepth := binary.BigEndian.Uint16(data[1+HashSize : 1+HashSize+depthSize])
	if !bytes.Equal(storedHash, refs[0].HashForLevel(0).Bytes()) {
		return ExoticCellError{
			Reason: "merkle proof hash does not match its reference",
		}
	}
	if storedDepth != refs[0].DepthForLevel(0) {
		return ExoticCellError{
			Reason: "merkle proof depth does not match its reference",
		}
	}
	return nil
}

func validateMerkleUpdate(data []byte, bitLen int, refs []*Cell) error {
	if bitLen != merkleUpdateBitLen {
		return ExoticCellError{
			Reason: fmt.Sprintf(
				"merkle update must be %d bits, got %d",
				merkleUpdateBitLen,
				bitLen,
			),
		}
	}
	if len(refs) != 2 {
		return ExoticCellError{
			Reason: fmt.Sprintf(
				"merkle update must have 2 references, got %d",
				len(refs),
			),
		}
	}
	for i := range 2 {
		hashOffset := 1 + i*HashSize
		depthOffset := 1 + 2*HashSize + i*depthSize
		storedHash := data[hashOffset : hashOffset+HashSize]
		storedDepth := binary.BigEndian.Uint16(
			data[depthOffset : depthOffset+depthSize],
		)
		if !bytes.Equal(storedHash, refs[i].HashForLevel(0).Bytes()) {
			return ExoticCellError{
				Reason: fmt.Sprintf(
					"merkle update hash %d does not match its reference",
					i,
				),
			}
		}
		if storedDepth != refs[i].DepthForLevel(0) {
			return ExoticCellError{
				Reason: fmt.Sprintf(
					"merkle update depth %d does not match its reference",
					i,
				),
			}
		}
	}
	return nil
}

// childHash returns the hash a parent of this type commits to for a child.
// Merkle variants commit to the child one level up.
func childHash(cellType CellType, child *Cell, level uint8) Hash {
	if cellType == CellTypeMerkleProof || cellType == CellTypeMerkleUpdate {
		return child.HashForLevel(level + 1)
	}
	return child.HashForLevel(level)
}

func childDepth(cellType CellType, child *Cell, level uint8) uint16 {
	if cellType == CellTypeMerkleProof || cellType == CellTypeMerkleUpdate {
		return child.DepthForLevel(level + 1)
	}
	return child.DepthForLevel(level)
}

// prunedBranchStored extracts the hash/depth entries embedded in a pruned
// branch, indexed by hash index
func prunedBranchStored(
	data []byte,
	bitLen int,
	mask LevelMask,
) ([]Hash, []uint16, error) {
	count := mask.HashIndex()
	offset := 2
	if bitLen == prunedBranchBitLenConfigProof {
		count = 1
		offset = 1
	}
	need := offset + count*(HashSize+depthSize)
	if len(data) < need {
		return nil, nil, ExoticCellError{
			Reason: "pruned branch data is truncated",
		}
	}
	hashes := make([]Hash, count)
	depths := make([]uint16, count)
	for i := range count {
		copy(hashes[i][:], data[offset+i*HashSize:])
	}
	depthBase := offset + count*HashSize
	for i := range count {
		depths[i] = binary.BigEndian.Uint16(data[depthBase+i*depthSize:])
	}
	return hashes, depths, nil
}

// resolveHashesAndDepths expands the computed significant-level values into
// the per-level lookup arrays, filling pruned levels from embedded data
func resolveHashesAndDepths(
	cellType CellType,
	levelMask LevelMask,
	data []byte,
	bitLen int,
	hashes []Hash,
	depths []uint16,
) ([4]Hash, [4]uint16, error) {
	var outHashes [4]Hash
	var outDepths [4]uint16
	for i := range 4 {
		hashIndex := levelMask.Apply(uint8(i)).HashIndex()
		if cellType == CellTypePrunedBranch {
			if hashIndex != levelMask.HashIndex() {
				stored, storedDepths, err := prunedBranchStored(
					data,
					bitLen,
					levelMask,
				)
				if err != nil {
					return outHashes, outDepths, err
				}
				if hashIndex >= len(stored) {
					return outHashes, outDepths, ExoticCellError{
						Reason: "pruned branch hash index out of range",
					}
				}
				outHashes[i] = stored[hashIndex]
				outDepths[i] = storedDepths[hashIndex]
			} else {
				outHashes[i] = hashes[0]
				outDepths[i] = depths[0]
			}
			continue
		}
		if hashIndex >= len(hashes) {
			return outHashes, outDepths, ExoticCellError{
				Reason: "hash index out of range",
			}
		}
		outHashes[i] = hashes[hashIndex]
		outDepths[i] = depths[hashIndex]
	}
	return outHashes, outDepths, nil
}
