package reviews

import (
	"context"
	"errors"

	"barterly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

func (r *Repository) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (transaction_id, reviewer_id, reviewee_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		review.TransactionID,
		review.ReviewerID,
		review.RevieweeID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)

	// The unique (transaction_id, reviewer_id) constraint is the backstop
	// for concurrent submissions that both pass HasReview.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyReviewed
	}
	return err
}

func (r *Repository) HasReview(ctx context.Context, transactionID, reviewerID int64) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS (
          SELECT 1 FROM reviews
          WHERE transaction_id = $1 AND reviewer_id = $2
        )
    `
	err := r.db.QueryRow(ctx, query, transactionID, reviewerID).Scan(&exists)
	return exists, err
}

func (r *Repository) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
        SELECT rv.id, rv.transaction_id, rv.reviewer_id, rv.reviewee_id, rv.rating, rv.comment,
               rv.created_at, rv.updated_at, t.reference, t.status
        FROM reviews rv
        JOIN transactions t ON t.id = rv.transaction_id
        WHERE rv.id = $1
    `
	var review Review
	err := r.db.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.TransactionID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.TransactionReference,
		&review.TransactionStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// ListForUser returns reviews the user wrote or received, joined with the
// transaction.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Review, error) {
	query := `
        SELECT rv.id, rv.transaction_id, rv.reviewer_id, rv.reviewee_id, rv.rating, rv.comment,
               rv.created_at, rv.updated_at, t.reference, t.status
        FROM reviews rv
        JOIN transactions t ON t.id = rv.transaction_id
        WHERE rv.reviewer_id = $1 OR rv.reviewee_id = $1
        ORDER BY rv.created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.TransactionID,
			&review.ReviewerID,
			&review.RevieweeID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.TransactionReference,
			&review.TransactionStatus,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, review)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, reviewID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
