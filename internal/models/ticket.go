package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SupportTicket is a support request relayed to the operators by email.
type SupportTicket struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference string             `bson:"reference" json:"reference"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Email     string             `bson:"email" json:"email"`
	Subject   string             `bson:"subject" json:"subject"`
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"` // "open", "closed"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// SupportRequest is the body of POST /api/support.
type SupportRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// AnnouncementRequest is the body of POST /api/admin/announcements.
type AnnouncementRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
