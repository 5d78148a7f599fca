package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const itemColumns = `
    i.id, i.owner_id, i.category_id, i.title, i.description, i.location,
    i.price_estimate, i.images, i.status, i.approval, i.created_at, i.updated_at,
    u.username, c.name
`

const itemJoins = `
    FROM items i
    JOIN users u ON u.id = i.owner_id
    JOIN categories c ON c.id = i.category_id
`

func (r *Repository) Create(ctx context.Context, item *Item) error {
	query := `
        INSERT INTO items (owner_id, category_id, title, description, location, price_estimate, images, status, approval)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		item.OwnerID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.Location,
		item.PriceEstimate,
		item.Images,
		item.Status,
		item.Approval,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, itemID int64) (*Item, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
        WHERE i.id = $1 AND i.deleted_at IS NULL`

	var item Item
	if err := scanItem(r.db.QueryRow(ctx, query, itemID), &item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func scanItem(row pgx.Row, item *Item) error {
	return row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.CategoryID,
		&item.Title,
		&item.Description,
		&item.Location,
		&item.PriceEstimate,
		&item.Images,
		&item.Status,
		&item.Approval,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.OwnerUsername,
		&item.CategoryName,
	)
}

// List returns a filtered page of items plus the total row count for
// pagination metadata.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Item, int, error) {
	where := ` WHERE i.deleted_at IS NULL`
	args := []interface{}{}
	i := 1

	if filter.CategoryID != nil {
		where += fmt.Sprintf(" AND i.category_id = $%d", i)
		args = append(args, *filter.CategoryID)
		i++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND i.status = $%d", i)
		args = append(args, *filter.Status)
		i++
	}
	if filter.Approval != nil {
		where += fmt.Sprintf(" AND i.approval = $%d", i)
		args = append(args, *filter.Approval)
		i++
	}

	var total int
	countQuery := `SELECT COUNT(i.id)` + itemJoins + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + itemJoins + where +
		fmt.Sprintf(" ORDER BY i.created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, filter.Pagination.Limit, filter.Pagination.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		if err := scanItem(rows, &item); err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, total, rows.Err()
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]Item, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
        WHERE i.owner_id = $1 AND i.deleted_at IS NULL
        ORDER BY i.created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		if err := scanItem(rows, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListWithPendingOffers returns the owner's items that have at least one
// live pending offer against them.
func (r *Repository) ListWithPendingOffers(ctx context.Context, ownerID int64) ([]ItemWithOffers, error) {
	query := `SELECT ` + itemColumns + `, COUNT(o.id)` + itemJoins + `
        JOIN offers o ON o.item_id = i.id AND o.status = 'pending' AND o.deleted_at IS NULL
        WHERE i.owner_id = $1 AND i.deleted_at IS NULL
        GROUP BY i.id, u.username, c.name
        ORDER BY i.created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemWithOffers
	for rows.Next() {
		var item ItemWithOffers
		err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.CategoryID,
			&item.Title,
			&item.Description,
			&item.Location,
			&item.PriceEstimate,
			&item.Images,
			&item.Status,
			&item.Approval,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.OwnerUsername,
			&item.CategoryName,
			&item.PendingOffers,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, itemID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	allowed := map[string]bool{
		"category_id":    true,
		"title":          true,
		"description":    true,
		"location":       true,
		"price_estimate": true,
		"status":         true,
	}

	query := `UPDATE items SET updated_at = now()`
	args := []interface{}{itemID}
	i := 2
	for col, val := range updates {
		if !allowed[col] {
			continue
		}
		query += fmt.Sprintf(", %s = $%d", col, i)
		args = append(args, val)
		i++
	}
	query += ` WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AppendImages(ctx context.Context, itemID int64, urls []string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET images = images || $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		itemID, urls)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetApproval(ctx context.Context, itemID int64, approval Approval) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET approval = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		itemID, approval)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetStatus(ctx context.Context, itemID int64, status Status) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		itemID, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flips the item out of stock before hiding it, so a restore
// never resurrects a listing as available.
func (r *Repository) SoftDelete(ctx context.Context, itemID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE items SET status = 'out_of_stock', deleted_at = now(), updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`,
		itemID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
