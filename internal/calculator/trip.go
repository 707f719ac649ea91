package calculator

import "github.com/ukydev/fueltrack/internal/models"

// TripInput describes a planned trip.
type TripInput struct {
	DistanceKm     float64
	FuelEfficiency float64 // km per liter
	PricePerLiter  float64
	OtherCosts     float64
}

// TripEstimate is the projected fuel use and cost of a trip.
type TripEstimate struct {
	DistanceKm     float64 `json:"distance_km"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	PricePerLiter  float64 `json:"price_per_liter"`
	Liters         float64 `json:"liters"`
	FuelCost       float64 `json:"fuel_cost"`
	OtherCosts     float64 `json:"other_costs"`
	TotalCost      float64 `json:"total_cost"`
}

// EstimateTrip projects liters and cost for a trip.
func EstimateTrip(in TripInput) (TripEstimate, error) {
	if finite(in.DistanceKm) <= 0 {
		return TripEstimate{}, models.NewValidationError("distance_km", "distance must be greater than zero")
	}
	if finite(in.FuelEfficiency) <= 0 {
		return TripEstimate{}, models.NewValidationError("fuel_efficiency", "fuel efficiency is unknown; record more entries or provide it")
	}
	if finite(in.PricePerLiter) <= 0 {
		return TripEstimate{}, models.NewValidationError("price_per_liter", "price per liter is unknown; record an entry or provide it")
	}
	if finite(in.OtherCosts) < 0 {
		return TripEstimate{}, models.NewValidationError("other_costs", "other costs cannot be negative")
	}

	liters := dec(in.DistanceKm).Div(dec(in.FuelEfficiency))
	fuelCost := liters.Mul(dec(in.PricePerLiter))
	total := fuelCost.Add(dec(in.OtherCosts))

	return TripEstimate{
		DistanceKm:     in.DistanceKm,
		FuelEfficiency: in.FuelEfficiency,
		PricePerLiter:  in.PricePerLiter,
		Liters:         liters.Round(2).InexactFloat64(),
		FuelCost:       fuelCost.Round(2).InexactFloat64(),
		OtherCosts:     round2(in.OtherCosts),
		TotalCost:      total.Round(2).InexactFloat64(),
	}, nil
}

// EntryCost returns liters x price per liter rounded to cents.
func EntryCost(liters, pricePerLiter float64) float64 {
	return dec(liters).Mul(dec(pricePerLiter)).Round(2).InexactFloat64()
}
