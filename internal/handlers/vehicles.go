package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/calculator"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/metrics"
	"github.com/ukydev/fueltrack/internal/models"
)

// VehicleHandler serves vehicles, their oil-change tracking and the dashboard.
type VehicleHandler struct {
	vehicles        db.VehicleCollection
	entries         db.EntryCollection
	defaultBaseline float64
	metrics         *metrics.Metrics
	logger          logrus.FieldLogger
}

func NewVehicleHandler(vehicles db.VehicleCollection, entries db.EntryCollection, defaultBaseline float64, m *metrics.Metrics, logger logrus.FieldLogger) *VehicleHandler {
	return &VehicleHandler{
		vehicles:        vehicles,
		entries:         entries,
		defaultBaseline: defaultBaseline,
		metrics:         m,
		logger:          logger,
	}
}

// OdometerReading is the resolved current odometer of a vehicle.
type OdometerReading struct {
	Value  float64                   `json:"value"`
	Source calculator.OdometerSource `json:"source"`
}

// Dashboard is everything the client renders for one vehicle.
type Dashboard struct {
	Vehicle     models.Vehicle               `json:"vehicle"`
	Odometer    OdometerReading              `json:"odometer"`
	Maintenance calculator.MaintenanceStatus `json:"maintenance"`
	Stats       calculator.Stats             `json:"stats"`
}

// List returns the caller's vehicles.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.ListVehicles(r.Context(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Create adds a vehicle for the caller.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreateVehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	vehicle, err := models.NewVehicle(claims.UserID, req)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// Get returns one of the caller's vehicles.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	vehicle, err := h.vehicles.FindVehicle(r.Context(), r.PathValue("id"), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// Delete removes a vehicle together with its fuel entries.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.vehicles.FindVehicle(r.Context(), id, claims.UserID); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	// Entries go first so a failed request can be retried until the vehicle itself is gone.
	removed, err := h.entries.DeleteEntriesByVehicle(r.Context(), id, claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), id, claims.UserID); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	h.logger.WithFields(logrus.Fields{"vehicle_id": id, "entries_removed": removed}).Info("vehicle deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ResetMaintenance records an oil change. Without an explicit odometer the
// vehicle's current reading is used. Repeating the call is harmless.
func (h *VehicleHandler) ResetMaintenance(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.ResetMaintenanceRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if req.Odometer != nil && *req.Odometer < 0 {
		writeError(w, http.StatusBadRequest, "odometer cannot be negative")
		return
	}

	dash, err := h.dashboard(r, r.PathValue("id"), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	odometer := dash.Odometer.Value
	if req.Odometer != nil {
		odometer = *req.Odometer
	}
	if err := h.vehicles.ResetMaintenance(r.Context(), dash.Vehicle.ID.Hex(), claims.UserID, odometer); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	h.metrics.MaintenanceReset()

	dash, err = h.dashboard(r, dash.Vehicle.ID.Hex(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// SetOdometer stores a manually entered odometer reading.
func (h *VehicleHandler) SetOdometer(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.OdometerOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if req.Odometer < 0 {
		writeError(w, http.StatusBadRequest, "odometer cannot be negative")
		return
	}
	h.writeOverride(w, r, claims.UserID, &req.Odometer)
}

// ClearOdometer drops the manual reading so entries drive the odometer again.
func (h *VehicleHandler) ClearOdometer(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.writeOverride(w, r, claims.UserID, nil)
}

func (h *VehicleHandler) writeOverride(w http.ResponseWriter, r *http.Request, userID string, odometer *float64) {
	id := r.PathValue("id")
	if err := h.vehicles.SetOdometerOverride(r.Context(), id, userID, odometer); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	dash, err := h.dashboard(r, id, userID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Dashboard returns the vehicle with its odometer, maintenance status and statistics.
func (h *VehicleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	dash, err := h.dashboard(r, r.PathValue("id"), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *VehicleHandler) dashboard(r *http.Request, id, userID string) (*Dashboard, error) {
	vehicle, err := h.vehicles.FindVehicle(r.Context(), id, userID)
	if err != nil {
		return nil, err
	}
	entries, err := h.entries.ListEntries(r.Context(), userID, vehicle.ID.Hex())
	if err != nil {
		return nil, err
	}
	current, source := calculator.CurrentOdometer(entries, vehicle.OdometerOverride)
	return &Dashboard{
		Vehicle:     *vehicle,
		Odometer:    OdometerReading{Value: current, Source: source},
		Maintenance: h.maintenance(*vehicle, current, entries),
		Stats:       calculator.Aggregate(entries),
	}, nil
}

func (h *VehicleHandler) maintenance(v models.Vehicle, current float64, entries []models.FuelEntry) calculator.MaintenanceStatus {
	return calculator.Maintenance(calculator.MaintenanceInput{
		Interval:            v.Interval,
		LastServiceOdometer: v.OilLastOdo,
		CurrentOdometer:     current,
		EarliestOdometer:    calculator.EarliestOdometer(entries),
		DefaultBaseline:     h.defaultBaseline,
	})
}
