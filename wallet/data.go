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

package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/blinklabs-io/goton/cell"
)

func storePublicKey(b *cell.Builder, publicKey []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf(
			"public key must be %d bytes, got %d",
			ed25519.PublicKeySize,
			len(publicKey),
		)
	}
	return b.StoreBytes(publicKey)
}

func loadPublicKey(p *cell.Parser) ([]byte, error) {
	return p.LoadBytes(ed25519.PublicKeySize)
}

// DataV1V2 is the persistent state of v1 and v2 wallets
type DataV1V2 struct {
	Seqno     uint32
	PublicKey []byte
}

func (d *DataV1V2) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreUint(uint64(d.Seqno), 32); err != nil {
		return err
	}
	return storePublicKey(b, d.PublicKey)
}

func (d *DataV1V2) UnmarshalTLB(p *cell.Parser) error {
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	d.Seqno = uint32(seqno)
	d.PublicKey, err = loadPublicKey(p)
	return err
}

// DataV3 is the persistent state of v3 wallets
type DataV3 struct {
	Seqno     uint32
	WalletID  int32
	PublicKey []byte
}

func (d *DataV3) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreUint(uint64(d.Seqno), 32); err != nil {
		return err
	}
	if err := b.StoreInt(int64(d.WalletID), 32); err != nil {
		return err
	}
	return storePublicKey(b, d.PublicKey)
}

func (d *DataV3) UnmarshalTLB(p *cell.Parser) error {
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	d.Seqno = uint32(seqno)
	d.WalletID = int32(walletID)
	d.PublicKey, err = loadPublicKey(p)
	return err
}

// DataV4 is the persistent state of v4 wallets, with an optional plugin
// dictionary kept as an opaque cell
type DataV4 struct {
	Seqno     uint32
	WalletID  int32
	PublicKey []byte
	Plugins   *cell.Cell
}

func (d *DataV4) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreUint(uint64(d.Seqno), 32); err != nil {
		return err
	}
	if err := b.StoreInt(int64(d.WalletID), 32); err != nil {
		return err
	}
	if err := storePublicKey(b, d.PublicKey); err != nil {
		return err
	}
	return b.StoreMaybeRef(d.Plugins)
}

func (d *DataV4) UnmarshalTLB(p *cell.Parser) error {
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	d.Seqno = uint32(seqno)
	d.WalletID = int32(walletID)
	if d.PublicKey, err = loadPublicKey(p); err != nil {
		return err
	}
	d.Plugins, err = p.LoadMaybeRef()
	return err
}

// DataV5 is the persistent state of v5r1 wallets, with an optional
// extension dictionary kept as an opaque cell
type DataV5 struct {
	SignatureAllowed bool
	Seqno            uint32
	WalletID         int32
	PublicKey        []byte
	Extensions       *cell.Cell
}

func (d *DataV5) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreBit(d.SignatureAllowed); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(d.Seqno), 32); err != nil {
		return err
	}
	if err := b.StoreInt(int64(d.WalletID), 32); err != nil {
		return err
	}
	if err := storePublicKey(b, d.PublicKey); err != nil {
		return err
	}
	return b.StoreMaybeRef(d.Extensions)
}

func (d *DataV5) UnmarshalTLB(p *cell.Parser) error {
	var err error
	if d.SignatureAllowed, err = p.LoadBit(); err != nil {
		return err
	}
	seqno, err := p.LoadUint(32)
	if err != nil {
		return err
	}
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	d.Seqno = uint32(seqno)
	d.WalletID = int32(walletID)
	if d.PublicKey, err = loadPublicKey(p); err != nil {
		return err
	}
	d.Extensions, err = p.LoadMaybeRef()
	return err
}

// DataHighloadV2R2 is the persistent state of highload v2r2 wallets
type DataHighloadV2R2 struct {
	WalletID        int32
	LastCleanedTime uint64
	PublicKey       []byte
	Queries         *cell.Cell
}

func (d *DataHighloadV2R2) MarshalTLB(b *cell.Builder) error {
	if err := b.StoreInt(int64(d.WalletID), 32); err != nil {
		return err
	}
	if err := b.StoreUint(d.LastCleanedTime, 64); err != nil {
		return err
	}
	if err := storePublicKey(b, d.PublicKey); err != nil {
		return err
	}
	return b.StoreMaybeRef(d.Queries)
}

func (d *DataHighloadV2R2) UnmarshalTLB(p *cell.Parser) error {
	walletID, err := p.LoadInt(32)
	if err != nil {
		return err
	}
	d.WalletID = int32(walletID)
	if d.LastCleanedTime, err = p.LoadUint(64); err != nil {
		return err
	}
	if d.PublicKey, err = loadPublicKey(p); err != nil {
		return err
	}
	d.Queries, err = p.LoadMaybeRef()
	return err
}
