// Package market implements the client-side business rules of the flag
// marketplace: pricing, reveal gating, acquisition and auction state
// machines, and bid ordering. Everything here is pure; no I/O.
package market

import (
	"github.com/shopspring/decimal"
)

// ComputeTotal derives the total price from a unit price and the NFT
// multiplicity of a flag. Prices are blockchain-native token amounts, so the
// arithmetic is exact decimal, never binary floating point.
func ComputeTotal(unitPrice decimal.Decimal, nftsRequired int) decimal.Decimal {
	if nftsRequired < 1 {
		nftsRequired = 1
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(nftsRequired)))
}

// Quote carries the base and (optionally) discounted pricing for one flag
// and one viewer. The discount overrides the unit price only; it never
// changes the multiplicity, and both totals stay independently derivable.
type Quote struct {
	NFTsRequired   int
	UnitPrice      decimal.Decimal
	Total          decimal.Decimal
	DiscountedUnit *decimal.Decimal
	DiscountedTot  *decimal.Decimal
}

// NewQuote builds a quote from the base unit price, an optional discounted
// unit price and the flag's NFT multiplicity. A discounted unit equal to the
// base unit is not a discount and is dropped.
func NewQuote(unitPrice decimal.Decimal, discountedUnit *decimal.Decimal, nftsRequired int) Quote {
	if nftsRequired < 1 {
		nftsRequired = 1
	}
	q := Quote{
		NFTsRequired: nftsRequired,
		UnitPrice:    unitPrice,
		Total:        ComputeTotal(unitPrice, nftsRequired),
	}
	if discountedUnit != nil && !discountedUnit.Equal(unitPrice) {
		du := *discountedUnit
		dt := ComputeTotal(du, nftsRequired)
		q.DiscountedUnit = &du
		q.DiscountedTot = &dt
	}
	return q
}

// HasDiscount reports whether a discounted price applies.
func (q Quote) HasDiscount() bool {
	return q.DiscountedUnit != nil
}

// EffectiveTotal returns the total the viewer actually pays: the discounted
// total when present, the base total otherwise.
func (q Quote) EffectiveTotal() decimal.Decimal {
	if q.DiscountedTot != nil {
		return *q.DiscountedTot
	}
	return q.Total
}
