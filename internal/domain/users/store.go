package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
        INSERT INTO users (username, email, password, first_name, last_name, profile_picture_url, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, is_verified, active, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.Password.hash,
		user.FirstName,
		user.LastName,
		user.ProfilePictureURL,
		user.Role,
	).Scan(&user.ID, &user.IsVerified, &user.Active, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_username_key":
			return ErrDuplicateUsername
		}
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
        SELECT id, username, email, password, first_name, last_name,
               profile_picture_url, role, is_verified, active, created_at, updated_at
        FROM users
        WHERE id = $1 AND deleted_at IS NULL
    `
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// GetByLogin resolves a user by email or username, whichever matches.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*User, error) {
	query := `
        SELECT id, username, email, password, first_name, last_name,
               profile_picture_url, role, is_verified, active, created_at, updated_at
        FROM users
        WHERE (email = $1 OR username = $1) AND deleted_at IS NULL
    `
	return r.scanOne(r.db.QueryRow(ctx, query, login))
}

func (r *Repository) scanOne(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password.hash,
		&user.FirstName,
		&user.LastName,
		&user.ProfilePictureURL,
		&user.Role,
		&user.IsVerified,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update applies a partial update from a column → value map, the same way
// item updates work. Only whitelisted columns are accepted.
func (r *Repository) Update(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	allowed := map[string]bool{
		"username":   true,
		"email":      true,
		"first_name": true,
		"last_name":  true,
	}

	query := `UPDATE users SET updated_at = now()`
	args := []interface{}{userID}
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
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, hash []byte) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET password = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		userID, hash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetProfilePicture(ctx context.Context, userID int64, url string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET profile_picture_url = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		userID, url)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetVerified(ctx context.Context, userID int64, verified bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		userID, verified)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, role string) ([]User, error) {
	query := `
        SELECT id, username, email, password, first_name, last_name,
               profile_picture_url, role, is_verified, active, created_at, updated_at
        FROM users
        WHERE role = $1 AND deleted_at IS NULL
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, role)
}

// ListInactive returns soft-deleted accounts of the given role, for the
// admin restore flow.
func (r *Repository) ListInactive(ctx context.Context, role string) ([]User, error) {
	query := `
        SELECT id, username, email, password, first_name, last_name,
               profile_picture_url, role, is_verified, active, created_at, updated_at
        FROM users
        WHERE role = $1 AND deleted_at IS NOT NULL
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, role)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Password.hash,
			&user.FirstName,
			&user.LastName,
			&user.ProfilePictureURL,
			&user.Role,
			&user.IsVerified,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func (r *Repository) SoftDelete(ctx context.Context, userID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET deleted_at = now(), active = false WHERE id = $1 AND deleted_at IS NULL`,
		userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Restore(ctx context.Context, userID int64) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET deleted_at = NULL, active = true WHERE id = $1 AND deleted_at IS NOT NULL`,
		userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) HardDelete(ctx context.Context, userID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
