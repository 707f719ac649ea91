package db

import (
	"context"

	"github.com/ukydev/fueltrack/internal/models"
)

// Every read and write below is scoped by the owning user's ID. A document
// that exists but belongs to someone else is reported as models.ErrNotFound.

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error)
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicle(ctx context.Context, id, userID string) (*models.Vehicle, error)
	// ResetMaintenance sets the last-service odometer in a single scoped update.
	ResetMaintenance(ctx context.Context, id, userID string, odometer float64) error
	// SetOdometerOverride stores a manual reading; nil clears it.
	SetOdometerOverride(ctx context.Context, id, userID string, odometer *float64) error
	DeleteVehicle(ctx context.Context, id, userID string) error
}

// EntryCollection defines the interface for fuel entry data operations.
type EntryCollection interface {
	// ListEntries returns the user's entries, newest first. An empty vehicleID lists all of them.
	ListEntries(ctx context.Context, userID, vehicleID string) ([]models.FuelEntry, error)
	InsertEntry(ctx context.Context, entry models.FuelEntry) error
	FindEntry(ctx context.Context, id, userID string) (*models.FuelEntry, error)
	// UpdateEntry replaces the editable fields of an existing entry.
	UpdateEntry(ctx context.Context, entry models.FuelEntry) error
	DeleteEntry(ctx context.Context, id, userID string) error
	DeleteEntriesByVehicle(ctx context.Context, vehicleID, userID string) (int64, error)
}

// TicketCollection defines the interface for support ticket operations.
type TicketCollection interface {
	InsertTicket(ctx context.Context, ticket models.SupportTicket) error
	// ListTickets returns the user's tickets, or every ticket when userID is empty.
	ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error)
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// Store bundles the collections of one storage backend.
type Store struct {
	Vehicles VehicleCollection
	Entries  EntryCollection
	Tickets  TicketCollection
	Users    UserCollection
	Close    func(ctx context.Context) error
}
