package verifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("verification request not found")
	ErrAlreadyPending = errors.New("a verification request is already pending")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Verification is a profile verification request: the user submits an
// identity document, an admin or sub-admin decides it.
type Verification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DocumentURL string    `json:"document_url"`
	Status      Status    `json:"status"`
	ReviewedBy  *int64    `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Store interface {
	Create(ctx context.Context, verification *Verification) error
	GetByID(ctx context.Context, verificationID int64) (*Verification, error)
	ListPending(ctx context.Context) ([]Verification, error)
	SetDecision(ctx context.Context, verificationID int64, status Status, reviewedBy int64) (*Verification, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, verification *Verification) error {
	query := `
        INSERT INTO verifications (user_id, document_url, status)
        VALUES ($1, $2, 'pending')
        RETURNING id, status, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		verification.UserID,
		verification.DocumentURL,
	).Scan(&verification.ID, &verification.Status, &verification.CreatedAt, &verification.UpdatedAt)

	// Partial unique index on (user_id) WHERE status = 'pending'.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyPending
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, verificationID int64) (*Verification, error) {
	query := `
        SELECT id, user_id, document_url, status, reviewed_by, created_at, updated_at
        FROM verifications
        WHERE id = $1
    `
	var verification Verification
	err := r.db.QueryRow(ctx, query, verificationID).Scan(
		&verification.ID,
		&verification.UserID,
		&verification.DocumentURL,
		&verification.Status,
		&verification.ReviewedBy,
		&verification.CreatedAt,
		&verification.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &verification, nil
}

func (r *Repository) ListPending(ctx context.Context) ([]Verification, error) {
	query := `
        SELECT id, user_id, document_url, status, reviewed_by, created_at, updated_at
        FROM verifications
        WHERE status = 'pending'
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		var verification Verification
		err := rows.Scan(
			&verification.ID,
			&verification.UserID,
			&verification.DocumentURL,
			&verification.Status,
			&verification.ReviewedBy,
			&verification.CreatedAt,
			&verification.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, verification)
	}
	return out, rows.Err()
}

func (r *Repository) SetDecision(ctx context.Context, verificationID int64, status Status, reviewedBy int64) (*Verification, error) {
	query := `
        UPDATE verifications
        SET status = $2, reviewed_by = $3, updated_at = now()
        WHERE id = $1 AND status = 'pending'
        RETURNING id, user_id, document_url, status, reviewed_by, created_at, updated_at
    `
	var verification Verification
	err := r.db.QueryRow(ctx, query, verificationID, status, reviewedBy).Scan(
		&verification.ID,
		&verification.UserID,
		&verification.DocumentURL,
		&verification.Status,
		&verification.ReviewedBy,
		&verification.CreatedAt,
		&verification.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &verification, nil
}
