package sqlite

import (
	"context"

	"github.com/ukydev/fueltrack/internal/models"
)

type ticketRow struct {
	ID        string `db:"id"`
	Reference string `db:"reference"`
	UserID    string `db:"user_id"`
	Email     string `db:"email"`
	Subject   string `db:"subject"`
	Message   string `db:"message"`
	Status    string `db:"status"`
	CreatedAt int64  `db:"created_at"`
}

const ticketColumns = `id, reference, user_id, email, subject, message, status, created_at`

// InsertTicket persists a support ticket.
func (s *SQLiteStore) InsertTicket(ctx context.Context, t models.SupportTicket) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO support_tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		idOrNew(t.ID).Hex(), t.Reference, t.UserID, t.Email, t.Subject, t.Message, t.Status, toUnix(t.CreatedAt),
	)
	return models.WrapStorage("insert ticket", err)
}

// ListTickets returns tickets newest first; an empty userID lists all of them.
func (s *SQLiteStore) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	var rows []ticketRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, models.WrapStorage("list tickets", err)
	}
	tickets := make([]models.SupportTicket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, models.SupportTicket{
			ID:        parseID(r.ID),
			Reference: r.Reference,
			UserID:    r.UserID,
			Email:     r.Email,
			Subject:   r.Subject,
			Message:   r.Message,
			Status:    r.Status,
			CreatedAt: fromUnix(r.CreatedAt),
		})
	}
	return tickets, nil
}
