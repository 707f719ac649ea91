package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/middleware"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/stations"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps err onto the error taxonomy. Unexpected errors are
// logged with the request id and reported without detail.
func writeFailure(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, stations.ErrUpstream):
		logger.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).Warn("upstream failure")
		writeError(w, http.StatusBadGateway, stations.ErrUpstream.Error())
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v. Malformed bodies become a ValidationError.
func decodeJSON(r *http.Request, v interface{}) error {
	return decodeBody(r, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted;
// an empty body leaves v untouched whatever the Content-Length says.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	return decodeBody(r, v, true)
}

func decodeBody(r *http.Request, v interface{}, optional bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return models.NewValidationError("body", "failed to read request body")
	}
	if optional && len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return models.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// currentUser returns the authenticated caller or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user context not found")
		return nil, false
	}
	return claims, true
}
