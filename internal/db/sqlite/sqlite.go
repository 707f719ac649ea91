// Package sqlite provides an embedded SQLite implementation of the db collection
// interfaces, used when STORAGE_BACKEND=sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

var (
	_ db.VehicleCollection = (*SQLiteStore)(nil)
	_ db.EntryCollection   = (*SQLiteStore)(nil)
	_ db.TicketCollection  = (*SQLiteStore)(nil)
	_ db.UserCollection    = (*SQLiteStore)(nil)
)

// SQLiteStore implements the db collections using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens the database at dbPath, creating parent directories and the schema.
func New(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under concurrent requests.
	conn.SetMaxOpenConns(1)

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: conn}, nil
}

// Store exposes s through the backend-neutral db.Store.
func (s *SQLiteStore) Store() *db.Store {
	return &db.Store{
		Vehicles: s,
		Entries:  s,
		Tickets:  s,
		Users:    s,
		Close:    func(context.Context) error { return s.Close() },
	}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execOwned runs a write scoped by id and user and reports ErrNotFound when no row matched.
func (s *SQLiteStore) execOwned(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.WrapStorage(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.WrapStorage(op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return models.WrapStorage(op, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

func idOrNew(id primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		return primitive.NewObjectID()
	}
	return id
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
