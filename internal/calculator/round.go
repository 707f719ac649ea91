package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// finite maps NaN and infinities to 0 so malformed input degrades instead of panicking.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(finite(v))
}

func round2(v float64) float64 {
	return dec(v).Round(2).InexactFloat64()
}
