package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/calculator"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/metrics"
	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryHandler serves fuel entries.
type EntryHandler struct {
	entries  db.EntryCollection
	vehicles db.VehicleCollection
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
}

func NewEntryHandler(entries db.EntryCollection, vehicles db.VehicleCollection, m *metrics.Metrics, logger logrus.FieldLogger) *EntryHandler {
	return &EntryHandler{entries: entries, vehicles: vehicles, metrics: m, logger: logger}
}

// List returns the caller's entries newest first, optionally for one vehicle.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID != "" {
		if _, err := h.vehicles.FindVehicle(r.Context(), vehicleID, claims.UserID); err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
	}
	entries, err := h.entries.ListEntries(r.Context(), claims.UserID, vehicleID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create records a refueling. The vehicle must belong to the caller and the
// odometer may not go backwards; both are checked before anything is written.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	var vehicle *models.Vehicle
	if req.VehicleID != "" {
		var err error
		vehicle, err = h.vehicles.FindVehicle(r.Context(), req.VehicleID, claims.UserID)
		if err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
		if err := h.checkOdometer(r, claims.UserID, req.VehicleID, req.Odometer); err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
	}

	cost := req.Cost
	if cost == 0 {
		cost = calculator.EntryCost(req.Liters, req.PricePerLiter)
	}

	now := time.Now()
	entry := models.FuelEntry{
		ID:            primitive.NewObjectID(),
		UserID:        claims.UserID,
		VehicleID:     req.VehicleID,
		Date:          req.Date,
		Time:          req.Time,
		Liters:        req.Liters,
		PricePerLiter: req.PricePerLiter,
		Cost:          cost,
		Odometer:      req.Odometer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.entries.InsertEntry(r.Context(), entry); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	h.metrics.EntryCreated()

	if vehicle != nil && vehicle.OdometerOverride != nil {
		if err := h.vehicles.SetOdometerOverride(r.Context(), req.VehicleID, claims.UserID, nil); err != nil {
			h.logger.WithError(err).WithField("vehicle_id", req.VehicleID).Warn("failed to clear odometer override")
		}
	}

	writeJSON(w, http.StatusCreated, entry)
}

// Update edits liters, price, cost or odometer of an entry. When liters or
// price change without an explicit cost, the cost is recomputed.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch models.EntryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if err := patch.Validate(); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	existing, err := h.entries.FindEntry(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	updated := patch.Apply(*existing)
	if patch.Cost == nil && (patch.Liters != nil || patch.PricePerLiter != nil) {
		updated.Cost = calculator.EntryCost(updated.Liters, updated.PricePerLiter)
	}
	updated.UpdatedAt = time.Now()

	if err := h.entries.UpdateEntry(r.Context(), updated); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes one of the caller's entries.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.entries.DeleteEntry(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkOdometer rejects a reading below the highest one already recorded for the vehicle.
func (h *EntryHandler) checkOdometer(r *http.Request, userID, vehicleID string, odometer *float64) error {
	if odometer == nil {
		return nil
	}
	existing, err := h.entries.ListEntries(r.Context(), userID, vehicleID)
	if err != nil {
		return err
	}
	if highest := calculator.MaxOdometer(existing); *odometer < highest {
		return models.NewValidationError("odometer",
			fmt.Sprintf("odometer %.0f is below the last recorded reading %.0f", *odometer, highest))
	}
	return nil
}
