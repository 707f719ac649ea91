package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/models"
)

// StationFinder looks up fuel stations around a point.
type StationFinder interface {
	Nearby(ctx context.Context, origin models.Location, radius int) ([]models.Station, error)
}

// StationHandler serves the nearby fuel station lookup.
type StationHandler struct {
	finder StationFinder
	logger logrus.FieldLogger
}

func NewStationHandler(finder StationFinder, logger logrus.FieldLogger) *StationHandler {
	return &StationHandler{finder: finder, logger: logger}
}

// Nearby handles GET /api/stations?lat=&lon=&radius=.
func (h *StationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeFailure(w, r, h.logger, models.NewValidationError("lat", "lat must be a number"))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeFailure(w, r, h.logger, models.NewValidationError("lon", "lon must be a number"))
		return
	}
	radius := 0
	if raw := q.Get("radius"); raw != "" {
		if radius, err = strconv.Atoi(raw); err != nil {
			writeFailure(w, r, h.logger, models.NewValidationError("radius", "radius must be an integer number of meters"))
			return
		}
	}

	found, err := h.finder.Nearby(r.Context(), models.Location{Lat: lat, Lon: lon}, radius)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}
