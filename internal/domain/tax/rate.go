package tax

import (
	"github.com/shopspring/decimal"
)

// Rate is a tax percentage restricted to the allowed French rate set.
type Rate int

const (
	// RateZero is the exempt / zero rate
	RateZero Rate = 0
	// RateSuperReduced is the super-reduced rate
	RateSuperReduced Rate = 7
	// RateIntermediate is the reduced / intermediate rate
	RateIntermediate Rate = 10
	// RateStandard is the standard rate
	RateStandard Rate = 20
)

// AllowedRates returns the closed set of valid rates, ascending.
func AllowedRates() []Rate {
	return []Rate{RateZero, RateSuperReduced, RateIntermediate, RateStandard}
}

// IsValid returns true if the rate belongs to the allowed set
func (r Rate) IsValid() bool {
	switch r {
	case RateZero, RateSuperReduced, RateIntermediate, RateStandard:
		return true
	default:
		return false
	}
}

// Percent returns the rate as a decimal percentage (e.g. 20)
func (r Rate) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(r))
}

// Fraction returns the rate as a fraction (e.g. 0.2)
func (r Rate) Fraction() decimal.Decimal {
	return decimal.NewFromInt(int64(r)).Div(decimal.NewFromInt(100))
}

// Divisor returns 1 + rate/100, the factor converting TTC to HT.
func (r Rate) Divisor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(r.Fraction())
}

// SnapToAllowed returns the allowed rate nearest to the given percentage.
// Ties resolve to the lower rate so an ambiguous value never overstates tax.
func SnapToAllowed(percent decimal.Decimal) Rate {
	best := RateZero
	bestDist := percent.Sub(best.Percent()).Abs()
	for _, r := range AllowedRates()[1:] {
		dist := percent.Sub(r.Percent()).Abs()
		if dist.LessThan(bestDist) {
			best = r
			bestDist = dist
		}
	}
	return best
}

// ImpliedRate infers a rate from reported amounts by comparing tax to subtotal
// and snapping the implied percentage to the nearest allowed value. The second
// return is false when the subtotal cannot support an inference.
func ImpliedRate(subtotal, taxAmount decimal.Decimal) (Rate, bool) {
	if !subtotal.IsPositive() {
		return RateZero, false
	}
	if taxAmount.IsNegative() {
		return RateZero, false
	}
	implied := taxAmount.Div(subtotal).Mul(decimal.NewFromInt(100))
	return SnapToAllowed(implied), true
}
