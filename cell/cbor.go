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
	_cbor "github.com/fxamacker/cbor/v2"
)

// Cells travel inside CBOR envelopes as byte strings holding their
// serialized bag of cells.

func (c *Cell) MarshalCBOR() ([]byte, error) {
	boc, err := c.ToBoc(false)
	if err != nil {
		return nil, err
	}
	return _cbor.Marshal(boc)
}

func (c *Cell) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := _cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromBoc(raw)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

func (boc *BagOfCells) MarshalCBOR() ([]byte, error) {
	raw, err := boc.Serialize(false)
	if err != nil {
		return nil, err
	}
	return _cbor.Marshal(raw)
}

func (boc *BagOfCells) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := _cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseBoc(raw)
	if err != nil {
		return err
	}
	*boc = *parsed
	return nil
}
