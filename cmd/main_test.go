package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fueltrack/internal/auth"
	"github.com/ukydev/fueltrack/internal/config"
	"github.com/ukydev/fueltrack/internal/db/sqlite"
	"github.com/ukydev/fueltrack/internal/handlers"
	"github.com/ukydev/fueltrack/internal/metrics"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/notify"
)

const adminEmail = "admin@example.com"

type stubFinder struct{}

func (stubFinder) Nearby(_ context.Context, origin models.Location, _ int) ([]models.Station, error) {
	return []models.Station{{Name: "PTT", Location: origin}}, nil
}

type capturedNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *capturedNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *capturedNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(n.msgs))
	for _, msg := range n.msgs {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

func newTestServer(t *testing.T) (*httptest.Server, *capturedNotifier) {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "fueltrack.db"))
	require.NoError(t, err)
	store := s.Store()
	t.Cleanup(func() { store.Close(context.Background()) })

	cfg := &config.Config{
		Server: config.ServerConfig{RateLimitRequests: 100, RateLimitWindow: 60},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			TokenExpiry: time.Hour,
			AdminEmails: []string{adminEmail},
		},
	}
	authService, err := auth.NewService(cfg.Auth)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	notifier := &capturedNotifier{}
	srv := httptest.NewServer(newRouter(routerDeps{
		cfg:      cfg,
		store:    store,
		auth:     authService,
		notifier: notifier,
		finder:   stubFinder{},
		metrics:  metrics.New(),
		logger:   logger,
	}))
	t.Cleanup(srv.Close)
	return srv, notifier
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func register(t *testing.T, srv *httptest.Server, username, email string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.LoginResponse](t, resp).Token
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = do(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fueltrack_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/vehicles", "/api/entries", "/api/stats", "/api/support", "/api/auth/profile"} {
		resp := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestRegisterLoginAndTrackVehicle(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "rider", "rider@example.com")

	resp := do(t, srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "rider", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "rider", Password: "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decode[models.LoginResponse](t, resp).Token

	resp = do(t, srv, http.MethodPost, "/api/vehicles", token, models.CreateVehicleRequest{Name: "Scooter", Type: models.VehicleBike})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	vehicle := decode[models.Vehicle](t, resp)
	vehicleID := vehicle.ID.Hex()

	for _, odo := range []float64{1000, 1400} {
		resp = do(t, srv, http.MethodPost, "/api/entries", token, models.CreateEntryRequest{
			VehicleID:     vehicleID,
			Date:          "2024-03-01",
			Liters:        4,
			PricePerLiter: 40,
			Odometer:      &odo,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	lower := 1200.0
	resp = do(t, srv, http.MethodPost, "/api/entries", token, models.CreateEntryRequest{
		VehicleID:     vehicleID,
		Date:          "2024-03-02",
		Liters:        4,
		PricePerLiter: 40,
		Odometer:      &lower,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/vehicles/"+vehicleID+"/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[handlers.Dashboard](t, resp)
	assert.Equal(t, 1400.0, dash.Odometer.Value)
	assert.Equal(t, 1000.0, dash.Maintenance.Baseline)
	assert.Equal(t, 40.0, dash.Maintenance.PercentConsumed)
	assert.Equal(t, 2, dash.Stats.EntryCount)

	resp = do(t, srv, http.MethodPost, "/api/vehicles/"+vehicleID+"/maintenance/reset", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash = decode[handlers.Dashboard](t, resp)
	assert.Equal(t, 1400.0, dash.Maintenance.Baseline)
	assert.Equal(t, 0.0, dash.Maintenance.PercentConsumed)

	other := register(t, srv, "stranger", "stranger@example.com")
	resp = do(t, srv, http.MethodGet, "/api/vehicles/"+vehicleID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/api/vehicles/"+vehicleID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/entries", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.FuelEntry](t, resp))
}

func TestAnnouncementsRequireAdmin(t *testing.T) {
	srv, notifier := newTestServer(t)
	userToken := register(t, srv, "rider", "rider@example.com")
	adminToken := register(t, srv, "boss", adminEmail)

	announcement := map[string]string{"subject": "Maintenance window", "body": "Back at noon."}

	resp := do(t, srv, http.MethodPost, "/api/admin/announcements", userToken, announcement)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/admin/announcements", adminToken, announcement)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, notifier.kinds(), notify.KindAnnouncement)
}

func TestStationsRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	token := register(t, srv, "rider", "rider@example.com")

	resp := do(t, srv, http.MethodGet, "/api/stations?lat=13.75&lon=100.5", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "PTT")
}
