package sqlite

import (
	"context"
	"database/sql"

	"github.com/ukydev/fueltrack/internal/models"
)

type entryRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	VehicleID     string          `db:"vehicle_id"`
	Date          string          `db:"date"`
	Time          string          `db:"time"`
	Liters        float64         `db:"liters"`
	PricePerLiter float64         `db:"price_per_liter"`
	Cost          float64         `db:"cost"`
	Odometer      sql.NullFloat64 `db:"odometer"`
	CreatedAt     int64           `db:"created_at"`
	UpdatedAt     int64           `db:"updated_at"`
}

func (r entryRow) toModel() models.FuelEntry {
	return models.FuelEntry{
		ID:            parseID(r.ID),
		UserID:        r.UserID,
		VehicleID:     r.VehicleID,
		Date:          r.Date,
		Time:          r.Time,
		Liters:        r.Liters,
		PricePerLiter: r.PricePerLiter,
		Cost:          r.Cost,
		Odometer:      floatPtr(r.Odometer),
		CreatedAt:     fromUnix(r.CreatedAt),
		UpdatedAt:     fromUnix(r.UpdatedAt),
	}
}

const entryColumns = `id, user_id, vehicle_id, date, time, liters, price_per_liter, cost, odometer, created_at, updated_at`

// ListEntries returns the user's entries newest first, optionally for one vehicle.
func (s *SQLiteStore) ListEntries(ctx context.Context, userID, vehicleID string) ([]models.FuelEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM fuel_entries WHERE user_id = ?`
	args := []interface{}{userID}
	if vehicleID != "" {
		query += ` AND vehicle_id = ?`
		args = append(args, vehicleID)
	}
	query += ` ORDER BY date DESC, time DESC, created_at DESC`

	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, models.WrapStorage("list entries", err)
	}
	entries := make([]models.FuelEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toModel())
	}
	return entries, nil
}

// InsertEntry persists a new fuel entry.
func (s *SQLiteStore) InsertEntry(ctx context.Context, e models.FuelEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fuel_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idOrNew(e.ID).Hex(), e.UserID, e.VehicleID, e.Date, e.Time, e.Liters, e.PricePerLiter,
		e.Cost, nullFloat(e.Odometer), toUnix(e.CreatedAt), toUnix(e.UpdatedAt),
	)
	return models.WrapStorage("insert entry", err)
}

// FindEntry returns the user's entry with the given id.
func (s *SQLiteStore) FindEntry(ctx context.Context, id, userID string) (*models.FuelEntry, error) {
	var row entryRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+entryColumns+` FROM fuel_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, notFound("find entry", err)
	}
	e := row.toModel()
	return &e, nil
}

// UpdateEntry writes the editable fields of e. A nil odometer keeps the stored reading.
func (s *SQLiteStore) UpdateEntry(ctx context.Context, e models.FuelEntry) error {
	return s.execOwned(ctx, "update entry",
		`UPDATE fuel_entries
		 SET liters = ?, price_per_liter = ?, cost = ?, odometer = COALESCE(?, odometer), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Liters, e.PricePerLiter, e.Cost, nullFloat(e.Odometer), toUnix(e.UpdatedAt),
		e.ID.Hex(), e.UserID)
}

// DeleteEntry removes the user's entry.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id, userID string) error {
	return s.execOwned(ctx, "delete entry",
		`DELETE FROM fuel_entries WHERE id = ? AND user_id = ?`, id, userID)
}

// DeleteEntriesByVehicle removes every entry recorded for the vehicle.
func (s *SQLiteStore) DeleteEntriesByVehicle(ctx context.Context, vehicleID, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM fuel_entries WHERE vehicle_id = ? AND user_id = ?`, vehicleID, userID)
	if err != nil {
		return 0, models.WrapStorage("delete vehicle entries", err)
	}
	n, err := result.RowsAffected()
	return n, models.WrapStorage("delete vehicle entries", err)
}
