package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

// Notification is a stored in-app notification; push delivery is handled
// separately by the push package.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, notification *Notification) error
	ListForUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *Notification) error {
	query := `
        INSERT INTO notifications (user_id, title, body)
        VALUES ($1, $2, $3)
        RETURNING id, read, created_at
    `
	return r.db.QueryRow(ctx, query,
		notification.UserID,
		notification.Title,
		notification.Body,
	).Scan(&notification.ID, &notification.Read, &notification.CreatedAt)
}

func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	query := `
        SELECT id, user_id, title, body, read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var notification Notification
		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Title,
			&notification.Body,
			&notification.Read,
			&notification.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, notification)
	}
	return out, rows.Err()
}

func (r *Repository) MarkRead(ctx context.Context, notificationID, userID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
