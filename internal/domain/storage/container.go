package storage

import (
	"context"
	"fmt"

	"barterly/internal/domain/categories"
	"barterly/internal/domain/conversations"
	"barterly/internal/domain/items"
	"barterly/internal/domain/notifications"
	"barterly/internal/domain/offers"
	"barterly/internal/domain/pushtokens"
	"barterly/internal/domain/reviews"
	"barterly/internal/domain/transactions"
	"barterly/internal/domain/users"
	"barterly/internal/domain/verifications"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Container bundles the repositories plus tx-scoped units of work for the
// compound writes (offer create/delete, review submit). The WithOfferTx /
// WithReviewTx fields are function values so tests can swap them for fakes.
type Container struct {
	Users         users.Store
	Categories    categories.Store
	Items         items.Store
	Offers        offers.Store
	Transactions  transactions.Store
	Reviews       reviews.Store
	Conversations conversations.Store
	Notifications notifications.Store
	PushTokens    pushtokens.Store
	Verifications verifications.Store

	// WithOfferTx runs fn against an offers repository bound to a single
	// database transaction; commit on nil, rollback on error.
	WithOfferTx func(ctx context.Context, fn func(o offers.Store) error) error

	// WithReviewTx is the same unit-of-work shape for review submission,
	// so the duplicate-check and the insert cannot interleave with a
	// concurrent request's.
	WithReviewTx func(ctx context.Context, fn func(r reviews.Store) error) error
}

func NewContainer(pool *pgxpool.Pool) *Container {
	return &Container{
		Users:         users.NewRepository(pool),
		Categories:    categories.NewRepository(pool),
		Items:         items.NewRepository(pool),
		Offers:        offers.NewRepository(pool),
		Transactions:  transactions.NewRepository(pool),
		Reviews:       reviews.NewRepository(pool),
		Conversations: conversations.NewRepository(pool),
		Notifications: notifications.NewRepository(pool),
		PushTokens:    pushtokens.NewRepository(pool),
		Verifications: verifications.NewRepository(pool),

		WithOfferTx: func(ctx context.Context, fn func(o offers.Store) error) error {
			return withTx(ctx, pool, func(tx pgx.Tx) error {
				return fn(offers.NewRepository(tx))
			})
		},
		WithReviewTx: func(ctx context.Context, fn func(r reviews.Store) error) error {
			return withTx(ctx, pool, func(tx pgx.Tx) error {
				return fn(reviews.NewRepository(tx))
			})
		},
	}
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	if pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
