package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/calculator"
	"github.com/ukydev/fueltrack/internal/db"
)

// StatsHandler serves aggregated statistics and trip estimates.
type StatsHandler struct {
	entries  db.EntryCollection
	vehicles db.VehicleCollection
	logger   logrus.FieldLogger
}

func NewStatsHandler(entries db.EntryCollection, vehicles db.VehicleCollection, logger logrus.FieldLogger) *StatsHandler {
	return &StatsHandler{entries: entries, vehicles: vehicles, logger: logger}
}

// TripRequest is the body of POST /api/trips/estimate. Zero efficiency or
// price is filled from the caller's history.
type TripRequest struct {
	VehicleID      string  `json:"vehicle_id"`
	DistanceKm     float64 `json:"distance_km"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	PricePerLiter  float64 `json:"price_per_liter"`
	OtherCosts     float64 `json:"other_costs"`
}

// Stats returns statistics over the caller's entries, optionally for one vehicle.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	stats, err := h.aggregate(r, claims.UserID, r.URL.Query().Get("vehicle_id"))
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// EstimateTrip projects the fuel cost of a trip.
func (h *StatsHandler) EstimateTrip(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req TripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	in := calculator.TripInput{
		DistanceKm:     req.DistanceKm,
		FuelEfficiency: req.FuelEfficiency,
		PricePerLiter:  req.PricePerLiter,
		OtherCosts:     req.OtherCosts,
	}
	if in.FuelEfficiency <= 0 || in.PricePerLiter <= 0 {
		stats, err := h.aggregate(r, claims.UserID, req.VehicleID)
		if err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
		if in.FuelEfficiency <= 0 {
			in.FuelEfficiency = stats.FuelEfficiency
		}
		if in.PricePerLiter <= 0 {
			in.PricePerLiter = stats.LastPricePerLiter
		}
	}

	estimate, err := calculator.EstimateTrip(in)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

func (h *StatsHandler) aggregate(r *http.Request, userID, vehicleID string) (calculator.Stats, error) {
	if vehicleID != "" {
		if _, err := h.vehicles.FindVehicle(r.Context(), vehicleID, userID); err != nil {
			return calculator.Stats{}, err
		}
	}
	entries, err := h.entries.ListEntries(r.Context(), userID, vehicleID)
	if err != nil {
		return calculator.Stats{}, err
	}
	return calculator.Aggregate(entries), nil
}
