package users

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrDuplicateUsername = errors.New("a user with that username already exists")
	QueryTimeoutDuration = time.Second * 5
)

type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Password          password  `json:"-"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	Role              string    `json:"role"`
	IsVerified        bool      `json:"is_verified"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// password keeps only the bcrypt hash in memory; the plaintext is never
// stored on the struct.
type password struct {
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.hash = hash
	return nil
}

func (p *password) Matches(text string) bool {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text)) == nil
}

func (p *password) Hash() []byte { return p.hash }

type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	Update(ctx context.Context, userID int64, updates map[string]interface{}) error
	UpdatePassword(ctx context.Context, userID int64, hash []byte) error
	SetProfilePicture(ctx context.Context, userID int64, url string) error
	SetVerified(ctx context.Context, userID int64, verified bool) error
	List(ctx context.Context, role string) ([]User, error)
	ListInactive(ctx context.Context, role string) ([]User, error)
	SoftDelete(ctx context.Context, userID int64) error
	Restore(ctx context.Context, userID int64) error
	HardDelete(ctx context.Context, userID int64) error
}
