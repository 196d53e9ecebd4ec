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

package tlb

import (
	"math/big"

	"github.com/blinklabs-io/goton/cell"
)

// Coins is a variable-length unsigned coin amount: a 4-bit byte count
// followed by the magnitude
type Coins struct {
	Amount *big.Int
}

func NewCoins(amount *big.Int) Coins {
	return Coins{Amount: amount}
}

func NewCoinsUint(amount uint64) Coins {
	return Coins{Amount: new(big.Int).SetUint64(amount)}
}

func (c *Coins) MarshalTLB(b *cell.Builder) error {
	amount := c.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}
	return b.StoreCoins(amount)
}

func (c *Coins) UnmarshalTLB(p *cell.Parser) error {
	amount, err := p.LoadCoins()
	if err != nil {
		return err
	}
	c.Amount = amount
	return nil
}

// CurrencyCollection is a coin amount plus an optional extra-currency
// dictionary kept as an opaque cell
type CurrencyCollection struct {
	Grams Coins
	Other *cell.Cell
}

func NewCurrencyCollection(grams *big.Int) CurrencyCollection {
	return CurrencyCollection{Grams: NewCoins(grams)}
}

func (c *CurrencyCollection) MarshalTLB(b *cell.Builder) error {
	if err := c.Grams.MarshalTLB(b); err != nil {
		return err
	}
	return b.StoreMaybeRef(c.Other)
}

func (c *CurrencyCollection) UnmarshalTLB(p *cell.Parser) error {
	if err := c.Grams.UnmarshalTLB(p); err != nil {
		return err
	}
	other, err := p.LoadMaybeRef()
	if err != nil {
		return err
	}
	c.Other = other
	return nil
}
