package payments

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeFees(t *testing.T) {
	cases := []struct {
		name       string
		price      string
		feePercent int64
		amount     int64
		fee        int64
		payout     int64
	}{
		{"standard price", "19.99", 6, 1999, 119, 1880},
		{"round amount", "10.00", 6, 1000, 60, 940},
		{"zero price", "0.00", 6, 0, 0, 0},
		{"zero fee", "25.50", 0, 2550, 0, 2550},
		{"full fee", "12.34", 100, 1234, 1234, 0},
		{"sub dollar", "0.99", 6, 99, 5, 94},
		{"half cent rounds up", "10.005", 6, 1001, 60, 941},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price := decimal.RequireFromString(tc.price)
			got := ComputeFees(price, tc.feePercent)
			if got.AmountMinor != tc.amount {
				t.Errorf("amount: expected %d, got %d", tc.amount, got.AmountMinor)
			}
			if got.FeeMinor != tc.fee {
				t.Errorf("fee: expected %d, got %d", tc.fee, got.FeeMinor)
			}
			if got.PayoutMinor != tc.payout {
				t.Errorf("payout: expected %d, got %d", tc.payout, got.PayoutMinor)
			}
			if got.FeeMinor+got.PayoutMinor != got.AmountMinor {
				t.Errorf("fee %d + payout %d != amount %d", got.FeeMinor, got.PayoutMinor, got.AmountMinor)
			}
		})
	}
}

func TestComputeFeesSumInvariant(t *testing.T) {
	prices := []string{"0.01", "0.03", "1.01", "7.77", "19.99", "33.33", "99.99", "1234.56"}
	for _, p := range prices {
		price := decimal.RequireFromString(p)
		for fee := int64(0); fee <= 100; fee++ {
			got := ComputeFees(price, fee)
			if got.FeeMinor+got.PayoutMinor != got.AmountMinor {
				t.Fatalf("price %s fee %d%%: %d + %d != %d", p, fee, got.FeeMinor, got.PayoutMinor, got.AmountMinor)
			}
			if got.FeeMinor < 0 || got.PayoutMinor < 0 {
				t.Fatalf("price %s fee %d%%: negative component", p, fee)
			}
		}
	}
}

func TestComputeFeesTruncates(t *testing.T) {
	// 101 * 6 / 100 = 6.06, fee must truncate to 6
	got := ComputeFees(decimal.RequireFromString("1.01"), 6)
	if got.FeeMinor != 6 {
		t.Fatalf("expected truncated fee 6, got %d", got.FeeMinor)
	}
	if got.PayoutMinor != 95 {
		t.Fatalf("expected payout 95, got %d", got.PayoutMinor)
	}
}

func TestMinorToDecimal(t *testing.T) {
	if got := MinorToDecimal(1999); got.String() != "19.99" {
		t.Fatalf("expected 19.99, got %s", got)
	}
	if got := MinorToDecimal(60); got.String() != "0.6" {
		t.Fatalf("expected 0.6, got %s", got)
	}
}
