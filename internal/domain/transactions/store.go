package transactions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, transaction *Transaction) error {
	query := `
        INSERT INTO transactions (reference, offer_id, initiator_id, recipient_id, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		transaction.Reference,
		transaction.OfferID,
		transaction.InitiatorID,
		transaction.RecipientID,
		transaction.Status,
	).Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
}

const transactionSelect = `
    SELECT t.id, t.reference, t.offer_id, t.initiator_id, t.recipient_id, t.status,
           t.completed_at, t.cancelled_at, t.disputed_at, t.created_at, t.updated_at,
           o.id, o.item_id, o.offered_by, o.status,
           ui.id, ui.username, ui.first_name, ui.last_name,
           ur.id, ur.username, ur.first_name, ur.last_name
    FROM transactions t
    JOIN offers o ON o.id = t.offer_id
    JOIN users ui ON ui.id = t.initiator_id
    JOIN users ur ON ur.id = t.recipient_id
`

func (r *Repository) GetByID(ctx context.Context, transactionID int64) (*Transaction, error) {
	query := transactionSelect + ` WHERE t.id = $1`

	var transaction Transaction
	if err := scanTransaction(r.db.QueryRow(ctx, query, transactionID), &transaction); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *Repository) List(ctx context.Context) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, transactionSelect+` ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var transaction Transaction
		if err := scanTransaction(rows, &transaction); err != nil {
			return nil, err
		}
		out = append(out, transaction)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row, t *Transaction) error {
	t.Offer = &OfferSummary{}
	t.Initiator = &UserSummary{}
	t.Recipient = &UserSummary{}
	return row.Scan(
		&t.ID,
		&t.Reference,
		&t.OfferID,
		&t.InitiatorID,
		&t.RecipientID,
		&t.Status,
		&t.CompletedAt,
		&t.CancelledAt,
		&t.DisputedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Offer.ID,
		&t.Offer.ItemID,
		&t.Offer.OfferedBy,
		&t.Offer.Status,
		&t.Initiator.ID,
		&t.Initiator.Username,
		&t.Initiator.FirstName,
		&t.Initiator.LastName,
		&t.Recipient.ID,
		&t.Recipient.Username,
		&t.Recipient.FirstName,
		&t.Recipient.LastName,
	)
}

// UpdateStatus persists the status and timestamps exactly as ApplyStatus
// left them on the struct.
func (r *Repository) UpdateStatus(ctx context.Context, transaction *Transaction) error {
	query := `
        UPDATE transactions
        SET status = $2, completed_at = $3, cancelled_at = $4, disputed_at = $5, updated_at = now()
        WHERE id = $1
    `
	result, err := r.db.Exec(ctx, query,
		transaction.ID,
		transaction.Status,
		transaction.CompletedAt,
		transaction.CancelledAt,
		transaction.DisputedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete is an unconditional hard delete. There is no guard against
// deleting a completed transaction.
func (r *Repository) Delete(ctx context.Context, transactionID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OfferParties resolves the two legitimate parties of an offer: the
// offering user and the target item's owner.
func (r *Repository) OfferParties(ctx context.Context, offerID int64) (int64, int64, error) {
	query := `
        SELECT o.offered_by, i.owner_id
        FROM offers o
        JOIN items i ON i.id = o.item_id
        WHERE o.id = $1 AND o.deleted_at IS NULL
    `
	var offeredBy, itemOwner int64
	err := r.db.QueryRow(ctx, query, offerID).Scan(&offeredBy, &itemOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrOfferNotFound
		}
		return 0, 0, err
	}
	return offeredBy, itemOwner, nil
}
