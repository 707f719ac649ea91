package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ukydev/fueltrack/internal/models"
)

type userRow struct {
	ID           string        `db:"id"`
	Username     string        `db:"username"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	Role         string        `db:"role"`
	FirstName    string        `db:"first_name"`
	LastName     string        `db:"last_name"`
	IsActive     bool          `db:"is_active"`
	LastLogin    sql.NullInt64 `db:"last_login"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

func (r userRow) toModel() models.User {
	u := models.User{
		ID:           parseID(r.ID),
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		IsActive:     r.IsActive,
		CreatedAt:    fromUnix(r.CreatedAt),
		UpdatedAt:    fromUnix(r.UpdatedAt),
	}
	if r.LastLogin.Valid {
		t := fromUnix(r.LastLogin.Int64)
		u.LastLogin = &t
	}
	return u
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, is_active, last_login, created_at, updated_at`

// InsertUser persists a new, active user.
func (s *SQLiteStore) InsertUser(ctx context.Context, user models.User) error {
	now := time.Now().UnixNano()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 1, NULL, ?, ?)`,
		idOrNew(user.ID).Hex(), user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.FirstName, user.LastName, now, now,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	return models.WrapStorage("insert user", err)
}

// FindUserByID finds a user by their ID
func (s *SQLiteStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, `id = ?`, id)
}

// FindUserByUsername finds a user by their username
func (s *SQLiteStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, `username = ?`, username)
}

// FindUserByEmail finds a user by their email
func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `email = ?`, email)
}

func (s *SQLiteStore) findUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return nil, notFound("find user", err)
	}
	u := row.toModel()
	return &u, nil
}

// ListActiveUsers returns every active user
func (s *SQLiteStore) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users WHERE is_active = 1`); err != nil {
		return nil, models.WrapStorage("list users", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

// UpdateUser replaces the mutable profile fields of a user
func (s *SQLiteStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	err := s.execOwnedUser(ctx,
		`UPDATE users SET email = ?, password_hash = ?, role = ?, first_name = ?, last_name = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.PasswordHash, string(user.Role), user.FirstName, user.LastName, user.IsActive,
		time.Now().UnixNano(), id)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	return err
}

// UpdateLastLogin updates the last login time for a user
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now().UnixNano()
	return s.execOwnedUser(ctx, `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`, now, now, id)
}

func (s *SQLiteStore) execOwnedUser(ctx context.Context, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return models.WrapStorage("update user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.WrapStorage("update user", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
