package offers

import (
	"context"
	"errors"

	"barterly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{db: q}
}

func (r *Repository) Create(ctx context.Context, offer *Offer) error {
	query := `
        INSERT INTO offers (item_id, offered_by, message_text, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		offer.ItemID,
		offer.OfferedBy,
		offer.MessageText,
		offer.Status,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
}

func (r *Repository) AttachItems(ctx context.Context, offerID int64, itemIDs []int64) error {
	query := `
        INSERT INTO offer_items (offer_id, item_id)
        SELECT $1, unnest($2::bigint[])
    `
	_, err := r.db.Exec(ctx, query, offerID, itemIDs)
	return err
}

func (r *Repository) DetachItems(ctx context.Context, offerID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM offer_items WHERE offer_id = $1`, offerID)
	return err
}

const offerSelect = `
    SELECT o.id, o.item_id, o.offered_by, o.message_text, o.status, o.created_at, o.updated_at,
           i.id, i.owner_id, i.title, i.images, i.status,
           u.id, u.username, u.first_name, u.last_name
    FROM offers o
    JOIN items i ON i.id = o.item_id
    JOIN users u ON u.id = o.offered_by
`

func (r *Repository) GetByID(ctx context.Context, offerID int64) (*Offer, error) {
	query := offerSelect + ` WHERE o.id = $1 AND o.deleted_at IS NULL`

	var offer Offer
	if err := scanOffer(r.db.QueryRow(ctx, query, offerID), &offer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadBarteredItems(ctx, []*Offer{&offer}); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *Repository) List(ctx context.Context) ([]Offer, error) {
	return r.listWhere(ctx, ` WHERE o.deleted_at IS NULL ORDER BY o.created_at DESC`)
}

// ListForUser returns offers the user sent plus offers against the user's
// own items.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Offer, error) {
	return r.listWhere(ctx,
		` WHERE o.deleted_at IS NULL AND (o.offered_by = $1 OR i.owner_id = $1)
          ORDER BY o.created_at DESC`,
		userID)
}

func (r *Repository) listWhere(ctx context.Context, where string, args ...any) ([]Offer, error) {
	rows, err := r.db.Query(ctx, offerSelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offer
	for rows.Next() {
		var offer Offer
		if err := scanOffer(rows, &offer); err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*Offer, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.loadBarteredItems(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func scanOffer(row pgx.Row, offer *Offer) error {
	offer.Item = &ItemSummary{}
	offer.User = &UserSummary{}
	return row.Scan(
		&offer.ID,
		&offer.ItemID,
		&offer.OfferedBy,
		&offer.MessageText,
		&offer.Status,
		&offer.CreatedAt,
		&offer.UpdatedAt,
		&offer.Item.ID,
		&offer.Item.OwnerID,
		&offer.Item.Title,
		&offer.Item.Images,
		&offer.Item.Status,
		&offer.User.ID,
		&offer.User.Username,
		&offer.User.FirstName,
		&offer.User.LastName,
	)
}

// loadBarteredItems fills the bartered sets for the given offers in one
// round trip.
func (r *Repository) loadBarteredItems(ctx context.Context, offers []*Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(offers))
	byID := make(map[int64]*Offer, len(offers))
	for _, o := range offers {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	query := `
        SELECT oi.offer_id, i.id, i.owner_id, i.title, i.images, i.status
        FROM offer_items oi
        JOIN items i ON i.id = oi.item_id
        WHERE oi.offer_id = ANY($1)
        ORDER BY i.id
    `
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var offerID int64
		var item ItemSummary
		if err := rows.Scan(&offerID, &item.ID, &item.OwnerID, &item.Title, &item.Images, &item.Status); err != nil {
			return err
		}
		if o, ok := byID[offerID]; ok {
			o.BarteredItems = append(o.BarteredItems, item)
		}
	}
	return rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, offerID int64, status Status) error {
	result, err := r.db.Exec(ctx,
		`UPDATE offers SET status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		offerID, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, offerID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE offers SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		offerID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemOwners resolves live items to their owners; missing ids are simply
// absent from the map, which CheckOwnership treats as unresolved.
func (r *Repository) ItemOwners(ctx context.Context, itemIDs []int64) (map[int64]int64, error) {
	owners := make(map[int64]int64, len(itemIDs))
	if len(itemIDs) == 0 {
		return owners, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id FROM items WHERE id = ANY($1) AND deleted_at IS NULL`,
		itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, owner int64
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, err
		}
		owners[id] = owner
	}
	return owners, rows.Err()
}

// CountAssociations reports how many offer join rows still reference an
// item as bartered.
func (r *Repository) CountAssociations(ctx context.Context, itemID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM offer_items WHERE item_id = $1`,
		itemID).Scan(&count)
	return count, err
}
