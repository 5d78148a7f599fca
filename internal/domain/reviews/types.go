package reviews

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("you have already reviewed this transaction")
	ErrNotParticipant  = errors.New("you are not part of this transaction")
)

type Review struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	ReviewerID    int64     `json:"reviewer_id"`
	RevieweeID    int64     `json:"reviewee_id"`
	Rating        int       `json:"rating"` // 1-5
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Joined fields
	TransactionReference string `json:"transaction_reference,omitempty"`
	TransactionStatus    string `json:"transaction_status,omitempty"`
}

// InferReviewee resolves the reviewee as the transaction participant that
// is not the reviewer. ErrNotParticipant when the reviewer is neither.
func InferReviewee(initiatorID, recipientID, reviewerID int64) (int64, error) {
	switch reviewerID {
	case initiatorID:
		return recipientID, nil
	case recipientID:
		return initiatorID, nil
	}
	return 0, ErrNotParticipant
}

// Store methods run against a dbx.Querier so the duplicate-check + insert
// pair can share one transaction.
type Store interface {
	Create(ctx context.Context, review *Review) error
	HasReview(ctx context.Context, transactionID, reviewerID int64) (bool, error)
	GetByID(ctx context.Context, reviewID int64) (*Review, error)
	ListForUser(ctx context.Context, userID int64) ([]Review, error)
	Delete(ctx context.Context, reviewID int64) error
}
