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
	"fmt"
	"math/big"

	"github.com/jinzhu/copier"

	"github.com/blinklabs-io/goton/address"
	"github.com/blinklabs-io/goton/cell"
	"github.com/blinklabs-io/goton/tlb"
)

// DefaultSendMode pays fees separately and ignores action errors
const DefaultSendMode uint8 = 3

// TransferRequest describes one outgoing transfer
type TransferRequest struct {
	Dest   address.Address
	Amount *big.Int
	Bounce bool
	// Mode defaults to DefaultSendMode when zero
	Mode uint8
	// Body is the internal message payload, empty when nil
	Body *cell.Cell
}

// withDefaults returns a copy of the request with defaults applied, leaving
// the caller's value untouched
func (r *TransferRequest) withDefaults() (*TransferRequest, error) {
	var out TransferRequest
	if err := copier.Copy(&out, r); err != nil {
		return nil, err
	}
	if out.Mode == 0 {
		out.Mode = DefaultSendMode
	}
	if out.Amount == nil {
		out.Amount = big.NewInt(0)
	}
	return &out, nil
}

// BuildInternalMessage builds the internal message for a transfer request
func BuildInternalMessage(req *TransferRequest) (*cell.Cell, error) {
	req, err := req.withDefaults()
	if err != nil {
		return nil, err
	}
	dest, err := req.Dest.ToMsgAddress()
	if err != nil {
		return nil, err
	}
	msg := &tlb.Message{
		Info: &tlb.IntMsgInfo{
			IhrDisabled: true,
			Bounce:      req.Bounce,
			Src:         &tlb.MsgAddressNone{},
			Dest:        dest,
			Value:       tlb.NewCurrencyCollection(req.Amount),
			IhrFee:      tlb.NewCoinsUint(0),
			FwdFee:      tlb.NewCoinsUint(0),
		},
		Body:       req.Body,
		BodyLayout: cell.EitherLayoutRef,
	}
	return tlb.ToCell(msg)
}

// CreateTransferMessage builds, signs and wraps the requested transfers as
// an inbound external message cell
func (w *Wallet) CreateTransferMessage(
	validUntil uint32,
	seqno uint32,
	reqs []*TransferRequest,
	addStateInit bool,
) (*cell.Cell, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no transfer requests")
	}
	modes := make([]uint8, 0, len(reqs))
	msgs := make([]*cell.Cell, 0, len(reqs))
	for _, req := range reqs {
		withDefaults, err := req.withDefaults()
		if err != nil {
			return nil, err
		}
		msg, err := BuildInternalMessage(withDefaults)
		if err != nil {
			return nil, err
		}
		modes = append(modes, withDefaults.Mode)
		msgs = append(msgs, msg)
	}
	return w.CreateExternalMessage(validUntil, seqno, modes, msgs, addStateInit)
}
