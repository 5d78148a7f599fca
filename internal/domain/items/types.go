package items

import (
	"context"
	"errors"
	"time"

	"barterly/internal/params"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("item not found")

// Status is the stock lifecycle of a listed item.
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusOutOfStock Status = "out_of_stock"
	StatusSold       Status = "sold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusOutOfStock, StatusSold:
		return true
	}
	return false
}

// Approval is the moderation state set by admins/sub-admins.
type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

func (a Approval) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type Item struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	CategoryID    int64           `json:"category_id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description,omitempty"`
	Location      string          `json:"location"`
	PriceEstimate decimal.Decimal `json:"price_estimate"`
	Images        []string        `json:"images"`
	Status        Status          `json:"status"`
	Approval      Approval        `json:"approval"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Joined fields
	OwnerUsername string `json:"owner_username,omitempty"`
	CategoryName  string `json:"category_name,omitempty"`
}

// PendingOfferCount rides along on the with-offers projection.
type ItemWithOffers struct {
	Item
	PendingOffers int `json:"pending_offers"`
}

type Filter struct {
	CategoryID *int64
	Status     *Status
	Approval   *Approval
	Pagination params.Pagination
}

type Store interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, itemID int64) (*Item, error)
	List(ctx context.Context, filter Filter) ([]Item, int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Item, error)
	ListWithPendingOffers(ctx context.Context, ownerID int64) ([]ItemWithOffers, error)
	Update(ctx context.Context, itemID int64, updates map[string]interface{}) error
	AppendImages(ctx context.Context, itemID int64, urls []string) error
	SetApproval(ctx context.Context, itemID int64, approval Approval) error
	SetStatus(ctx context.Context, itemID int64, status Status) error
	SoftDelete(ctx context.Context, itemID int64) error
}
