package calculator

import (
	"github.com/shopspring/decimal"
	"github.com/ukydev/fueltrack/internal/models"
)

// Stats summarizes a set of fuel entries.
type Stats struct {
	EntryCount        int     `json:"entry_count"`
	TotalSpent        float64 `json:"total_spent"`
	TotalLiters       float64 `json:"total_liters"`
	FuelEfficiency    float64 `json:"fuel_efficiency"` // km per liter, 0 means insufficient data
	AvgPricePerLiter  float64 `json:"avg_price_per_liter"`
	LastPricePerLiter float64 `json:"last_price_per_liter"`
	MinOdometer       float64 `json:"min_odometer"`
	MaxOdometer       float64 `json:"max_odometer"`
}

// Aggregate computes totals and the span-based fuel efficiency:
// (max odometer - min odometer) / total liters over the whole window.
// Fewer than two positive odometer readings, or no liters, give an
// efficiency of 0. Missing or non-finite amounts count as 0.
func Aggregate(entries []models.FuelEntry) Stats {
	stats := Stats{EntryCount: len(entries)}
	if len(entries) == 0 {
		return stats
	}

	spent := decimal.Zero
	liters := decimal.Zero
	readings := 0
	var minOdo, maxOdo float64
	var latest *models.FuelEntry

	for i := range entries {
		e := &entries[i]
		spent = spent.Add(dec(e.Cost))
		liters = liters.Add(dec(e.Liters))

		if odo := finite(e.OdometerValue()); odo > 0 {
			if readings == 0 || odo < minOdo {
				minOdo = odo
			}
			if readings == 0 || odo > maxOdo {
				maxOdo = odo
			}
			readings++
		}

		if latest == nil || isLater(*e, *latest) {
			latest = e
		}
	}

	stats.TotalSpent = spent.Round(2).InexactFloat64()
	stats.TotalLiters = liters.Round(2).InexactFloat64()
	stats.MinOdometer = minOdo
	stats.MaxOdometer = maxOdo
	stats.LastPricePerLiter = round2(latest.PricePerLiter)

	if liters.IsPositive() {
		stats.AvgPricePerLiter = spent.Div(liters).Round(2).InexactFloat64()
		if readings >= 2 {
			span := dec(maxOdo - minOdo)
			stats.FuelEfficiency = span.Div(liters).Round(2).InexactFloat64()
		}
	}

	return stats
}

// isLater orders entries by their recorded date and time, then by creation time.
func isLater(a, b models.FuelEntry) bool {
	ak, bk := a.Date+" "+a.Time, b.Date+" "+b.Time
	if ak != bk {
		return ak > bk
	}
	return a.CreatedAt.After(b.CreatedAt)
}
