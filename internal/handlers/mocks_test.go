package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fueltrack/internal/middleware"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/notify"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserCollection) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	vehicles, _ := args.Get(0).([]models.Vehicle)
	return vehicles, args.Error(1)
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

func (m *MockVehicleCollection) FindVehicle(ctx context.Context, id, userID string) (*models.Vehicle, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) ResetMaintenance(ctx context.Context, id, userID string, odometer float64) error {
	return m.Called(ctx, id, userID, odometer).Error(0)
}

func (m *MockVehicleCollection) SetOdometerOverride(ctx context.Context, id, userID string, odometer *float64) error {
	return m.Called(ctx, id, userID, odometer).Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

// MockEntryCollection is a mock implementation of EntryCollection
type MockEntryCollection struct {
	mock.Mock
}

func (m *MockEntryCollection) ListEntries(ctx context.Context, userID, vehicleID string) ([]models.FuelEntry, error) {
	args := m.Called(ctx, userID, vehicleID)
	entries, _ := args.Get(0).([]models.FuelEntry)
	return entries, args.Error(1)
}

func (m *MockEntryCollection) InsertEntry(ctx context.Context, entry models.FuelEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockEntryCollection) FindEntry(ctx context.Context, id, userID string) (*models.FuelEntry, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuelEntry), args.Error(1)
}

func (m *MockEntryCollection) UpdateEntry(ctx context.Context, entry models.FuelEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockEntryCollection) DeleteEntry(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockEntryCollection) DeleteEntriesByVehicle(ctx context.Context, vehicleID, userID string) (int64, error) {
	args := m.Called(ctx, vehicleID, userID)
	return int64(args.Int(0)), args.Error(1)
}

// MockTicketCollection is a mock implementation of TicketCollection
type MockTicketCollection struct {
	mock.Mock
}

func (m *MockTicketCollection) InsertTicket(ctx context.Context, ticket models.SupportTicket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *MockTicketCollection) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	args := m.Called(ctx, userID)
	tickets, _ := args.Get(0).([]models.SupportTicket)
	return tickets, args.Error(1)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// newRequest builds a request authenticated as userID with the given role.
func newRequest(t *testing.T, method, target string, body interface{}, userID string, role models.Role) *http.Request {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		claims := &models.Claims{UserID: userID, Username: userID, Role: role}
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	}
	return req
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeResponse[map[string]string](t, w)["error"]
}

func ptr(v float64) *float64 { return &v }
