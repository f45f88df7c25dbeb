package payments

import "github.com/shopspring/decimal"

// FeeBreakdown splits a charge into integer minor units. FeeMinor plus
// PayoutMinor always equals AmountMinor.
type FeeBreakdown struct {
	AmountMinor int64
	FeeMinor    int64
	PayoutMinor int64
}

// ComputeFees converts a decimal price into minor units (rounding half up)
// and splits it between the platform fee and the seller payout. The fee uses
// truncating integer division so the seller payout absorbs the remainder.
func ComputeFees(price decimal.Decimal, feePercent int64) FeeBreakdown {
	amount := price.Shift(2).Round(0).IntPart()
	fee := amount * feePercent / 100
	return FeeBreakdown{
		AmountMinor: amount,
		FeeMinor:    fee,
		PayoutMinor: amount - fee,
	}
}

// MinorToDecimal reconstructs a two-place decimal from minor units.
func MinorToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
