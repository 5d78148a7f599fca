package transactions

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrOfferNotFound = errors.New("offer not found")
	ErrNotOfferParty = errors.New("initiator and recipient must be the offer's two parties")
	ErrBadTransition = errors.New("status transition not allowed")
	ErrInvalidStatus = errors.New("invalid transaction status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	}
	return false
}

// CanTransition is the single policy point for the status machine. The
// machine is deliberately permissive (any status reachable from any);
// tightening it only requires changing this function.
func CanTransition(from, to Status) bool {
	return from.Valid() && to.Valid()
}

type OfferSummary struct {
	ID        int64  `json:"id"`
	ItemID    int64  `json:"item_id"`
	OfferedBy int64  `json:"offered_by"`
	Status    string `json:"status"`
}

type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Transaction struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	OfferID     int64      `json:"offer_id"`
	InitiatorID int64      `json:"initiator_id"`
	RecipientID int64      `json:"recipient_id"`
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	DisputedAt  *time.Time `json:"disputed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined fields
	Offer     *OfferSummary `json:"offer,omitempty"`
	Initiator *UserSummary  `json:"initiator,omitempty"`
	Recipient *UserSummary  `json:"recipient,omitempty"`
}

// Counterparty returns the other participant, or 0 if the user is not a
// participant at all.
func (t *Transaction) Counterparty(userID int64) int64 {
	switch userID {
	case t.InitiatorID:
		return t.RecipientID
	case t.RecipientID:
		return t.InitiatorID
	}
	return 0
}

// ApplyStatus moves the transaction to the new status and stamps the
// matching terminal timestamp the first time that kind is entered. A stamp
// is never overwritten or reset, so re-applying a status is idempotent.
func ApplyStatus(t *Transaction, status Status, now time.Time) {
	t.Status = status
	switch status {
	case StatusCompleted:
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	case StatusCancelled:
		if t.CancelledAt == nil {
			t.CancelledAt = &now
		}
	case StatusDisputed:
		if t.DisputedAt == nil {
			t.DisputedAt = &now
		}
	}
}

// SameParties reports whether {a1, a2} equals {b1, b2} as sets, which is
// how transaction create validates initiator/recipient against the offer.
func SameParties(a1, a2, b1, b2 int64) bool {
	return (a1 == b1 && a2 == b2) || (a1 == b2 && a2 == b1)
}

type Store interface {
	Create(ctx context.Context, transaction *Transaction) error
	GetByID(ctx context.Context, transactionID int64) (*Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
	UpdateStatus(ctx context.Context, transaction *Transaction) error
	Delete(ctx context.Context, transactionID int64) error
	OfferParties(ctx context.Context, offerID int64) (offeredBy int64, itemOwner int64, err error)
}
