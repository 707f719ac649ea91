package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ukydev/fueltrack/internal/models"
)

type vehicleRow struct {
	ID               string          `db:"id"`
	UserID           string          `db:"user_id"`
	Name             string          `db:"name"`
	Type             string          `db:"type"`
	Interval         float64         `db:"service_interval"`
	OilLastOdo       float64         `db:"oil_last_odo"`
	OdometerOverride sql.NullFloat64 `db:"odometer_override"`
	CreatedAt        int64           `db:"created_at"`
	UpdatedAt        int64           `db:"updated_at"`
}

func (r vehicleRow) toModel() models.Vehicle {
	return models.Vehicle{
		ID:               parseID(r.ID),
		UserID:           r.UserID,
		Name:             r.Name,
		Type:             models.VehicleType(r.Type),
		Interval:         r.Interval,
		OilLastOdo:       r.OilLastOdo,
		OdometerOverride: floatPtr(r.OdometerOverride),
		CreatedAt:        fromUnix(r.CreatedAt),
		UpdatedAt:        fromUnix(r.UpdatedAt),
	}
}

const vehicleColumns = `id, user_id, name, type, service_interval, oil_last_odo, odometer_override, created_at, updated_at`

// ListVehicles returns the user's vehicles in creation order.
func (s *SQLiteStore) ListVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	var rows []vehicleRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, models.WrapStorage("list vehicles", err)
	}
	vehicles := make([]models.Vehicle, 0, len(rows))
	for _, r := range rows {
		vehicles = append(vehicles, r.toModel())
	}
	return vehicles, nil
}

// InsertVehicle persists a new vehicle.
func (s *SQLiteStore) InsertVehicle(ctx context.Context, v models.Vehicle) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idOrNew(v.ID).Hex(), v.UserID, v.Name, string(v.Type), v.Interval, v.OilLastOdo,
		nullFloat(v.OdometerOverride), toUnix(v.CreatedAt), toUnix(v.UpdatedAt),
	)
	return models.WrapStorage("insert vehicle", err)
}

// FindVehicle returns the user's vehicle with the given id.
func (s *SQLiteStore) FindVehicle(ctx context.Context, id, userID string) (*models.Vehicle, error) {
	var row vehicleRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, notFound("find vehicle", err)
	}
	v := row.toModel()
	return &v, nil
}

// ResetMaintenance records an oil change at odometer in a single scoped update.
func (s *SQLiteStore) ResetMaintenance(ctx context.Context, id, userID string, odometer float64) error {
	return s.execOwned(ctx, "reset maintenance",
		`UPDATE vehicles SET oil_last_odo = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		odometer, time.Now().UnixNano(), id, userID)
}

// SetOdometerOverride stores or clears the manual odometer reading.
func (s *SQLiteStore) SetOdometerOverride(ctx context.Context, id, userID string, odometer *float64) error {
	return s.execOwned(ctx, "set odometer override",
		`UPDATE vehicles SET odometer_override = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		nullFloat(odometer), time.Now().UnixNano(), id, userID)
}

// DeleteVehicle removes the user's vehicle.
func (s *SQLiteStore) DeleteVehicle(ctx context.Context, id, userID string) error {
	return s.execOwned(ctx, "delete vehicle",
		`DELETE FROM vehicles WHERE id = ? AND user_id = ?`, id, userID)
}
