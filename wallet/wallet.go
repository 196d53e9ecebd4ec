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

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/cell"
	"github.com/blinklabs-io/goton/mnemonic"
	"github.com/blinklabs-io/goton/tlb"
)

// Wallet is a wallet contract instance: a key pair, the contract code, and
// the address derived from the initial state
type Wallet struct {
	Version  Version
	WalletID int32
	KeyPair  *mnemonic.KeyPair
	Address  address.Address

	code *cell.Cell
}

// NewWallet derives the wallet address from the given contract code and the
// version's initial data
func NewWallet(
	version Version,
	keyPair *mnemonic.KeyPair,
	code *cell.Cell,
	workchain int32,
	walletID int32,
) (*Wallet, error) {
	w := &Wallet{
		Version:  version,
		WalletID: walletID,
		KeyPair:  keyPair,
		code:     code,
	}
	data, err := w.InitialDataCell()
	if err != nil {
		return nil, err
	}
	w.Address, err = address.Derive(workchain, code, data)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewWalletDefault builds a base-workchain wallet with the version's
// default wallet id
func NewWalletDefault(
	version Version,
	keyPair *mnemonic.KeyPair,
	code *cell.Cell,
) (*Wallet, error) {
	return NewWallet(version, keyPair, code, 0, DefaultWalletIDFor(version))
}

func (w *Wallet) Code() *cell.Cell {
	return w.code
}

// InitialDataCell builds the version's deploy-time data cell
func (w *Wallet) InitialDataCell() (*cell.Cell, error) {
	data, err := w.initialData()
	if err != nil {
		return nil, err
	}
	return tlb.ToCell(data)
}

func (w *Wallet) initialData() (tlb.Marshaler, error) {
	publicKey := []byte(w.KeyPair.PublicKey)
	switch w.Version {
	case VersionV1R1, VersionV1R2, VersionV1R3, VersionV2R1, VersionV2R2:
		return &DataV1V2{Seqno: 0, PublicKey: publicKey}, nil
	case VersionV3R1, VersionV3R2:
		return &DataV3{
			Seqno:     0,
			WalletID:  w.WalletID,
			PublicKey: publicKey,
		}, nil
	case VersionV4R1, VersionV4R2:
		return &DataV4{
			Seqno:     0,
			WalletID:  w.WalletID,
			PublicKey: publicKey,
		}, nil
	case VersionV5R1:
		return &DataV5{
			SignatureAllowed: true,
			Seqno:            0,
			WalletID:         w.WalletID,
			PublicKey:        publicKey,
		}, nil
	case VersionHighloadV2R2:
		return &DataHighloadV2R2{
			WalletID:  w.WalletID,
			PublicKey: publicKey,
		}, nil
	}
	return nil, fmt.Errorf("unsupported wallet version %s", w.Version)
}

// StateInit returns the deploy state used for address derivation
func (w *Wallet) StateInit() (*tlb.StateInit, error) {
	data, err := w.InitialDataCell()
	if err != nil {
		return nil, err
	}
	return tlb.NewStateInit(w.code, data), nil
}

// BuildExternalBody builds the version's unsigned transfer body
func (w *Wallet) BuildExternalBody(
	validUntil uint32,
	seqno uint32,
	msgModes []uint8,
	msgs []*cell.Cell,
) (*cell.Cell, error) {
	var body tlb.Marshaler
	switch w.Version {
	case VersionV3R1, VersionV3R2:
		body = &BodyV3{
			WalletID:   w.WalletID,
			ValidUntil: validUntil,
			Seqno:      seqno,
			MsgModes:   msgModes,
			Msgs:       msgs,
		}
	case VersionV4R1, VersionV4R2:
		body = &BodyV4{
			WalletID:   w.WalletID,
			ValidUntil: validUntil,
			Seqno:      seqno,
			MsgModes:   msgModes,
			Msgs:       msgs,
		}
	case VersionV5R1:
		body = &BodyV5{
			WalletID:   w.WalletID,
			ValidUntil: validUntil,
			Seqno:      seqno,
			MsgModes:   msgModes,
			Msgs:       msgs,
		}
	default:
		return nil, fmt.Errorf(
			"transfers are not supported for wallet version %s",
			w.Version,
		)
	}
	return tlb.ToCell(body)
}

// SignExternalBody signs the body's hash. v5r1 appends the signature after
// the body bits; earlier versions prepend it.
func (w *Wallet) SignExternalBody(body *cell.Cell) (*cell.Cell, error) {
	hash := body.Hash()
	signature := w.KeyPair.Sign(hash.Bytes())
	builder := cell.NewBuilder()
	if w.Version == VersionV5R1 {
		if err := builder.StoreCell(body); err != nil {
			return nil, err
		}
		if err := builder.StoreBytes(signature); err != nil {
			return nil, err
		}
	} else {
		if err := builder.StoreBytes(signature); err != nil {
			return nil, err
		}
		if err := builder.StoreCell(body); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// CreateExternalMessage builds the signed inbound external message carrying
// the transfer, optionally attaching the deploy state
func (w *Wallet) CreateExternalMessage(
	validUntil uint32,
	seqno uint32,
	msgModes []uint8,
	msgs []*cell.Cell,
	addStateInit bool,
) (*cell.Cell, error) {
	body, err := w.BuildExternalBody(validUntil, seqno, msgModes, msgs)
	if err != nil {
		return nil, err
	}
	signed, err := w.SignExternalBody(body)
	if err != nil {
		return nil, err
	}
	dest, err := w.Address.ToMsgAddress()
	if err != nil {
		return nil, err
	}
	msg := &tlb.Message{
		Info: &tlb.ExtInMsgInfo{
			Src:       &tlb.MsgAddressNone{},
			Dest:      dest,
			ImportFee: tlb.NewCoinsUint(0),
		},
		Body: signed,
	}
	if addStateInit {
		if msg.Init, err = w.StateInit(); err != nil {
			return nil, err
		}
	}
	return tlb.ToCell(msg)
}

// SplitSignedBody separates a signed body into the signature and the
// unsigned body cell, honoring the version's signature position
func SplitSignedBody(
	version Version,
	signed *cell.Cell,
) ([]byte, *cell.Cell, error) {
	sigBits := 8 * ed25519.SignatureSize
	p := signed.Parser()
	if p.RemainingBits() < sigBits {
		return nil, nil, fmt.Errorf(
			"signed body of %d bits is too short",
			p.RemainingBits(),
		)
	}
	if version == VersionV5R1 {
		bodyBits := p.RemainingBits() - sigBits
		if err := p.SkipBits(bodyBits); err != nil {
			return nil, nil, err
		}
		signature, err := p.LoadBytes(ed25519.SignatureSize)
		if err != nil {
			return nil, nil, err
		}
		if err := p.Seek(-(bodyBits + sigBits)); err != nil {
			return nil, nil, err
		}
		bodyData, err := p.LoadBits(bodyBits)
		if err != nil {
			return nil, nil, err
		}
		builder := cell.NewBuilder()
		if err := builder.StoreBits(bodyData, bodyBits); err != nil {
			return nil, nil, err
		}
		for p.RemainingRefs() > 0 {
			ref, err := p.NextRef()
			if err != nil {
				return nil, nil, err
			}
			if err := builder.StoreRef(ref); err != nil {
				return nil, nil, err
			}
		}
		body, err := builder.Build()
		if err != nil {
			return nil, nil, err
		}
		return signature, body, nil
	}
	signature, err := p.LoadBytes(ed25519.SignatureSize)
	if err != nil {
		return nil, nil, err
	}
	body, err := p.LoadRemaining()
	if err != nil {
		return nil, nil, err
	}
	return signature, body, nil
}
