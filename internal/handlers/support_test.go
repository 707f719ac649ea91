package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/notify"
)

func newSupportFixture(t *testing.T) (*SupportHandler, *MockTicketCollection, *MockUserCollection, *recordingNotifier) {
	t.Helper()
	tickets := new(MockTicketCollection)
	users := new(MockUserCollection)
	notifier := &recordingNotifier{}
	return NewSupportHandler(tickets, users, notifier, testLogger()), tickets, users, notifier
}

func TestSupportHandler_CreateTicket(t *testing.T) {
	t.Run("stores and relays", func(t *testing.T) {
		handler, tickets, users, notifier := newSupportFixture(t)
		users.On("FindUserByID", mock.Anything, ownerID).Return(&models.User{Email: "rider@example.com"}, nil)
		tickets.On("InsertTicket", mock.Anything, mock.MatchedBy(func(tk models.SupportTicket) bool {
			return tk.UserID == ownerID && tk.Email == "rider@example.com" && tk.Status == "open" && tk.Subject == "App crash"
		})).Return(nil)

		w := httptest.NewRecorder()
		body := models.SupportRequest{Subject: "  App crash ", Message: "Dashboard shows nothing"}
		handler.CreateTicket(w, newRequest(t, "POST", "/api/support", body, ownerID, models.RoleUser))

		require.Equal(t, http.StatusCreated, w.Code)
		ticket := decodeResponse[models.SupportTicket](t, w)
		_, err := uuid.Parse(ticket.Reference)
		assert.NoError(t, err)

		require.Len(t, notifier.msgs, 1)
		assert.Equal(t, notify.KindSupport, notifier.msgs[0].Kind)
		assert.Equal(t, ticket.Reference, notifier.msgs[0].Reference)
		assert.Equal(t, "rider@example.com", notifier.msgs[0].From)
		tickets.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		handler, tickets, _, notifier := newSupportFixture(t)
		for _, body := range []models.SupportRequest{
			{Subject: "", Message: "text"},
			{Subject: "subject", Message: "   "},
			{Subject: strings.Repeat("s", 201), Message: "text"},
			{Subject: "subject", Message: strings.Repeat("m", 5001)},
		} {
			w := httptest.NewRecorder()
			handler.CreateTicket(w, newRequest(t, "POST", "/api/support", body, ownerID, models.RoleUser))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
		tickets.AssertNotCalled(t, "InsertTicket", mock.Anything, mock.Anything)
		assert.Empty(t, notifier.msgs)
	})

	t.Run("storage failure does not relay", func(t *testing.T) {
		handler, tickets, users, notifier := newSupportFixture(t)
		users.On("FindUserByID", mock.Anything, ownerID).Return(&models.User{Email: "rider@example.com"}, nil)
		tickets.On("InsertTicket", mock.Anything, mock.Anything).Return(models.WrapStorage("insert ticket", assert.AnError))

		w := httptest.NewRecorder()
		handler.CreateTicket(w, newRequest(t, "POST", "/api/support", models.SupportRequest{Subject: "s", Message: "m"}, ownerID, models.RoleUser))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, notifier.msgs)
	})
}

func TestSupportHandler_ListTickets(t *testing.T) {
	t.Run("own tickets", func(t *testing.T) {
		handler, tickets, _, _ := newSupportFixture(t)
		tickets.On("ListTickets", mock.Anything, ownerID).Return([]models.SupportTicket{{Reference: "r1"}}, nil)

		w := httptest.NewRecorder()
		handler.ListTickets(w, newRequest(t, "GET", "/api/support", nil, ownerID, models.RoleUser))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse[[]models.SupportTicket](t, w), 1)
	})

	t.Run("admin lists all", func(t *testing.T) {
		handler, tickets, _, _ := newSupportFixture(t)
		tickets.On("ListTickets", mock.Anything, "").Return([]models.SupportTicket{{}, {}}, nil)

		w := httptest.NewRecorder()
		handler.ListTickets(w, newRequest(t, "GET", "/api/support?all=true", nil, "admin-1", models.RoleAdmin))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse[[]models.SupportTicket](t, w), 2)
	})

	t.Run("user cannot list all", func(t *testing.T) {
		handler, tickets, _, _ := newSupportFixture(t)

		w := httptest.NewRecorder()
		handler.ListTickets(w, newRequest(t, "GET", "/api/support?all=true", nil, ownerID, models.RoleUser))

		assert.Equal(t, http.StatusForbidden, w.Code)
		tickets.AssertNotCalled(t, "ListTickets", mock.Anything, mock.Anything)
	})
}

func TestSupportHandler_Announce(t *testing.T) {
	t.Run("relays to active users", func(t *testing.T) {
		handler, _, users, notifier := newSupportFixture(t)
		users.On("ListActiveUsers", mock.Anything).Return([]models.User{
			{Email: "a@example.com"},
			{Email: ""},
			{Email: "b@example.com"},
		}, nil)

		w := httptest.NewRecorder()
		body := models.AnnouncementRequest{Subject: "Maintenance window", Body: "Back at 02:00"}
		handler.Announce(w, newRequest(t, "POST", "/api/admin/announcements", body, "admin-1", models.RoleAdmin))

		require.Equal(t, http.StatusAccepted, w.Code)
		resp := decodeResponse[map[string]interface{}](t, w)
		assert.Equal(t, 2.0, resp["recipients"])

		require.Len(t, notifier.msgs, 1)
		assert.Equal(t, notify.KindAnnouncement, notifier.msgs[0].Kind)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, notifier.msgs[0].To)
	})

	t.Run("missing body", func(t *testing.T) {
		handler, _, users, notifier := newSupportFixture(t)

		w := httptest.NewRecorder()
		handler.Announce(w, newRequest(t, "POST", "/api/admin/announcements", models.AnnouncementRequest{Subject: "s"}, "admin-1", models.RoleAdmin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		users.AssertNotCalled(t, "ListActiveUsers", mock.Anything)
		assert.Empty(t, notifier.msgs)
	})
}
