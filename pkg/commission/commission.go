package commission

import (
	"github.com/shopspring/decimal"

	"github.com/clubswap/clubswap-backend/pkg/enums"
)

// rateByTier holds the fixed marketplace commission rates. Rates are
// constants, never negative, never above 1.0.
var rateByTier = map[enums.SellerTier]decimal.Decimal{
	enums.SellerTierPGAPro:   decimal.NewFromFloat(0.01),
	enums.SellerTierBusiness: decimal.NewFromFloat(0.03),
	enums.SellerTierPro:      decimal.NewFromFloat(0.03),
	enums.SellerTierFree:     decimal.NewFromFloat(0.05),
}

// Breakdown is the commission split for a single gross amount.
type Breakdown struct {
	Rate             decimal.Decimal
	CommissionAmount decimal.Decimal
	SellerReceives   decimal.Decimal
}

// RateForTier returns the commission rate for a seller tier. An unknown
// or empty tier is not an error: it falls back to the free-tier rate.
func RateForTier(tier enums.SellerTier) decimal.Decimal {
	if rate, ok := rateByTier[tier]; ok {
		return rate
	}
	return rateByTier[enums.SellerTierFree]
}

// Calculate splits a gross amount into marketplace commission and the
// seller's share. The commission is rounded to two decimal places; the
// seller share is the unrounded remainder of gross minus commission.
// The function is pure and never fails: callers reject invalid amounts
// upstream.
func Calculate(gross decimal.Decimal, tier enums.SellerTier) Breakdown {
	rate := RateForTier(tier)
	amount := gross.Mul(rate).Round(2)
	return Breakdown{
		Rate:             rate,
		CommissionAmount: amount,
		SellerReceives:   gross.Sub(amount),
	}
}
