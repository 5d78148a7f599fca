package offers

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("offer not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrEmptyBarterSet    = errors.New("an offer must include at least one bartered item")
	ErrTargetInBarterSet = errors.New("the target item cannot be part of the bartered set")
	ErrDuplicateBartered = errors.New("the bartered set contains the same item twice")
	ErrOwnTargetItem     = errors.New("you cannot make an offer on your own item")
	ErrNotItemOwner      = errors.New("every bartered item must belong to you")
)

// Status of an offer. Both accepted and declined are terminal in the sense
// that nothing downstream transitions them further, but the owner may
// overwrite a response (double-response is deliberately permitted).
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Decision is the subset of statuses an owner may respond with.
func (s Status) Decision() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// ItemSummary is the slim item projection joined onto offers.
type ItemSummary struct {
	ID      int64    `json:"id"`
	OwnerID int64    `json:"owner_id"`
	Title   string   `json:"title"`
	Images  []string `json:"images,omitempty"`
	Status  string   `json:"status"`
}

// UserSummary is the slim user projection joined onto offers.
type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Offer struct {
	ID          int64     `json:"id"`
	ItemID      int64     `json:"item_id"`
	OfferedBy   int64     `json:"offered_by"`
	MessageText *string   `json:"message_text,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields
	Item          *ItemSummary  `json:"item,omitempty"`
	BarteredItems []ItemSummary `json:"bartered_items,omitempty"`
	User          *UserSummary  `json:"user,omitempty"`
}

// Store methods run against a dbx.Querier, so a repository instance can be
// scoped to a transaction by the storage container.
type Store interface {
	Create(ctx context.Context, offer *Offer) error
	AttachItems(ctx context.Context, offerID int64, itemIDs []int64) error
	DetachItems(ctx context.Context, offerID int64) error
	GetByID(ctx context.Context, offerID int64) (*Offer, error)
	List(ctx context.Context) ([]Offer, error)
	ListForUser(ctx context.Context, userID int64) ([]Offer, error)
	UpdateStatus(ctx context.Context, offerID int64, status Status) error
	SoftDelete(ctx context.Context, offerID int64) error
	ItemOwners(ctx context.Context, itemIDs []int64) (map[int64]int64, error)
	CountAssociations(ctx context.Context, itemID int64) (int, error)
}

// ValidateBarterSet checks the shape of a create request before any
// database work: non-empty, no duplicates, target not bartered.
func ValidateBarterSet(targetID int64, barteredIDs []int64) error {
	if len(barteredIDs) == 0 {
		return ErrEmptyBarterSet
	}
	seen := make(map[int64]struct{}, len(barteredIDs))
	for _, id := range barteredIDs {
		if id == targetID {
			return ErrTargetInBarterSet
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateBartered
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CheckOwnership validates resolved item owners against the requester:
// every referenced item must exist, the requester must not own the target,
// and must own every bartered item.
func CheckOwnership(owners map[int64]int64, targetID int64, barteredIDs []int64, requesterID int64) error {
	targetOwner, ok := owners[targetID]
	if !ok {
		return ErrItemNotFound
	}
	if targetOwner == requesterID {
		return ErrOwnTargetItem
	}
	for _, id := range barteredIDs {
		owner, ok := owners[id]
		if !ok {
			return ErrItemNotFound
		}
		if owner != requesterID {
			return ErrNotItemOwner
		}
	}
	return nil
}
