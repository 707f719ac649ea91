package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/models"
	"github.com/ukydev/fueltrack/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// SupportHandler files support tickets and relays announcements.
type SupportHandler struct {
	tickets  db.TicketCollection
	users    db.UserCollection
	notifier notify.Notifier
	logger   logrus.FieldLogger
}

func NewSupportHandler(tickets db.TicketCollection, users db.UserCollection, notifier notify.Notifier, logger logrus.FieldLogger) *SupportHandler {
	return &SupportHandler{tickets: tickets, users: users, notifier: notifier, logger: logger}
}

// CreateTicket stores a support request and forwards it to the mail relay.
func (h *SupportHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SupportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	subject, message, err := validateMessage(req.Subject, req.Message, "message")
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	ticket := models.SupportTicket{
		ID:        primitive.NewObjectID(),
		Reference: uuid.NewString(),
		UserID:    claims.UserID,
		Email:     user.Email,
		Subject:   subject,
		Message:   message,
		Status:    "open",
		CreatedAt: time.Now(),
	}
	if err := h.tickets.InsertTicket(r.Context(), ticket); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	h.relay(r, notify.Message{
		Kind:      notify.KindSupport,
		Reference: ticket.Reference,
		From:      ticket.Email,
		Subject:   ticket.Subject,
		Body:      ticket.Message,
		CreatedAt: ticket.CreatedAt,
	})
	writeJSON(w, http.StatusCreated, ticket)
}

// ListTickets returns the caller's tickets. Callers allowed to view every
// ticket get all of them with ?all=true.
func (h *SupportHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	owner := claims.UserID
	if r.URL.Query().Get("all") == "true" {
		caller := models.User{Role: claims.Role}
		if !caller.HasPermission(models.PermViewAllTickets) {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		owner = ""
	}
	tickets, err := h.tickets.ListTickets(r.Context(), owner)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// Announce relays a message to every active user. Delivery happens downstream.
func (h *SupportHandler) Announce(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.AnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	subject, body, err := validateMessage(req.Subject, req.Body, "body")
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	users, err := h.users.ListActiveUsers(r.Context())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	recipients := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			recipients = append(recipients, u.Email)
		}
	}

	reference := uuid.NewString()
	h.relay(r, notify.Message{
		Kind:      notify.KindAnnouncement,
		Reference: reference,
		From:      claims.Username,
		To:        recipients,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	})
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"reference":  reference,
		"recipients": len(recipients),
	})
}

func (h *SupportHandler) relay(r *http.Request, msg notify.Message) {
	if err := h.notifier.Notify(r.Context(), msg); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"kind":      msg.Kind,
			"reference": msg.Reference,
		}).Warn("failed to relay notification")
	}
}

func validateMessage(subject, body, bodyField string) (string, string, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	switch {
	case subject == "":
		return "", "", models.NewValidationError("subject", "subject is required")
	case len(subject) > maxSubjectLength:
		return "", "", models.NewValidationError("subject", "subject must be at most 200 characters")
	case body == "":
		return "", "", models.NewValidationError(bodyField, bodyField+" is required")
	case len(body) > maxMessageLength:
		return "", "", models.NewValidationError(bodyField, bodyField+" must be at most 5000 characters")
	}
	return subject, body, nil
}
