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

// Package wallet implements versioned wallet contract state and signed
// transfer construction.
package wallet

import "fmt"

// Version identifies a wallet contract revision
type Version uint8

const (
	VersionV1R1 Version = iota
	VersionV1R2
	VersionV1R3
	VersionV2R1
	VersionV2R2
	VersionV3R1
	VersionV3R2
	VersionV4R1
	VersionV4R2
	VersionV5R1
	VersionHighloadV2R2
)

const (
	// DefaultWalletID is the default subwallet id for v3/v4 wallets
	DefaultWalletID int32 = 0x29a9a317
	// DefaultWalletIDV5R1 is the default mainnet wallet id for v5r1
	DefaultWalletIDV5R1 int32 = 0x7FFFFF11
	// DefaultWalletIDV5R1Testnet is the default testnet wallet id for v5r1
	DefaultWalletIDV5R1Testnet int32 = 0x7FFFFFFD
)

func (v Version) String() string {
	switch v {
	case VersionV1R1:
		return "v1r1"
	case VersionV1R2:
		return "v1r2"
	case VersionV1R3:
		return "v1r3"
	case VersionV2R1:
		return "v2r1"
	case VersionV2R2:
		return "v2r2"
	case VersionV3R1:
		return "v3r1"
	case VersionV3R2:
		return "v3r2"
	case VersionV4R1:
		return "v4r1"
	case VersionV4R2:
		return "v4r2"
	case VersionV5R1:
		return "v5r1"
	case VersionHighloadV2R2:
		return "highload-v2r2"
	}
	return fmt.Sprintf("Version(%d)", uint8(v))
}

// DefaultWalletIDFor returns the default wallet id for a version
func DefaultWalletIDFor(version Version) int32 {
	switch version {
	case VersionV5R1:
		return DefaultWalletIDV5R1
	default:
		return DefaultWalletID
	}
}

// HasWalletID reports whether the version stores a wallet id in its data
func (v Version) HasWalletID() bool {
	switch v {
	case VersionV1R1, VersionV1R2, VersionV1R3, VersionV2R1, VersionV2R2:
		return false
	}
	return true
}
