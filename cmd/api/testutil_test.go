package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"barterly/internal/auth"
	"barterly/internal/domain/notifications"
	"barterly/internal/domain/offers"
	"barterly/internal/domain/reviews"
	"barterly/internal/domain/storage"
	"barterly/internal/domain/transactions"
	"barterly/internal/ratelimiter"
	"barterly/internal/roles"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOfferStore keeps offers, join rows and item ownership in memory.
type fakeOfferStore struct {
	mu      sync.Mutex
	nextID  int64
	offers  map[int64]*offers.Offer
	joins   map[int64][]int64
	owners  map[int64]int64
	titles  map[int64]string
	deleted map[int64]bool
}

func newFakeOfferStore() *fakeOfferStore {
	return &fakeOfferStore{
		nextID:  1,
		offers:  map[int64]*offers.Offer{},
		joins:   map[int64][]int64{},
		owners:  map[int64]int64{},
		titles:  map[int64]string{},
		deleted: map[int64]bool{},
	}
}

func (s *fakeOfferStore) addItem(itemID, ownerID int64, title string) {
	s.owners[itemID] = ownerID
	s.titles[itemID] = title
}

func (s *fakeOfferStore) Create(ctx context.Context, offer *offers.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer.ID = s.nextID
	s.nextID++
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	cp := *offer
	s.offers[offer.ID] = &cp
	return nil
}

func (s *fakeOfferStore) AttachItems(ctx context.Context, offerID int64, itemIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joins[offerID] = append([]int64{}, itemIDs...)
	return nil
}

func (s *fakeOfferStore) DetachItems(ctx context.Context, offerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joins, offerID)
	return nil
}

func (s *fakeOfferStore) GetByID(ctx context.Context, offerID int64) (*offers.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.offers[offerID]
	if !ok || s.deleted[offerID] {
		return nil, offers.ErrNotFound
	}
	offer := *stored
	offer.Item = &offers.ItemSummary{
		ID:      offer.ItemID,
		OwnerID: s.owners[offer.ItemID],
		Title:   s.titles[offer.ItemID],
	}
	for _, id := range s.joins[offerID] {
		offer.BarteredItems = append(offer.BarteredItems, offers.ItemSummary{
			ID:      id,
			OwnerID: s.owners[id],
			Title:   s.titles[id],
		})
	}
	return &offer, nil
}

func (s *fakeOfferStore) List(ctx context.Context) ([]offers.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []offers.Offer
	for id, o := range s.offers {
		if !s.deleted[id] {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOfferStore) ListForUser(ctx context.Context, userID int64) ([]offers.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []offers.Offer
	for id, o := range s.offers {
		if s.deleted[id] {
			continue
		}
		if o.OfferedBy == userID || s.owners[o.ItemID] == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *fakeOfferStore) UpdateStatus(ctx context.Context, offerID int64, status offers.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.offers[offerID]
	if !ok || s.deleted[offerID] {
		return offers.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (s *fakeOfferStore) SoftDelete(ctx context.Context, offerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[offerID]; !ok {
		return offers.ErrNotFound
	}
	s.deleted[offerID] = true
	return nil
}

func (s *fakeOfferStore) ItemOwners(ctx context.Context, itemIDs []int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]int64{}
	for _, id := range itemIDs {
		if owner, ok := s.owners[id]; ok {
			out[id] = owner
		}
	}
	return out, nil
}

func (s *fakeOfferStore) CountAssociations(ctx context.Context, itemID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for offerID, ids := range s.joins {
		if s.deleted[offerID] {
			continue
		}
		for _, id := range ids {
			if id == itemID {
				count++
			}
		}
		if o, ok := s.offers[offerID]; ok && o.ItemID == itemID {
			count++
		}
	}
	return count, nil
}

type fakeTransactionStore struct {
	mu           sync.Mutex
	nextID       int64
	transactions map[int64]*transactions.Transaction
	parties      map[int64][2]int64 // offerID -> {offeredBy, itemOwner}
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{
		nextID:       1,
		transactions: map[int64]*transactions.Transaction{},
		parties:      map[int64][2]int64{},
	}
}

func (s *fakeTransactionStore) Create(ctx context.Context, tr *transactions.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr.ID = s.nextID
	s.nextID++
	tr.CreatedAt = time.Now()
	tr.UpdatedAt = tr.CreatedAt
	cp := *tr
	s.transactions[tr.ID] = &cp
	return nil
}

func (s *fakeTransactionStore) GetByID(ctx context.Context, id int64) (*transactions.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.transactions[id]
	if !ok {
		return nil, transactions.ErrNotFound
	}
	cp := *stored
	return &cp, nil
}

func (s *fakeTransactionStore) List(ctx context.Context) ([]transactions.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []transactions.Transaction
	for _, tr := range s.transactions {
		out = append(out, *tr)
	}
	return out, nil
}

func (s *fakeTransactionStore) UpdateStatus(ctx context.Context, tr *transactions.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.transactions[tr.ID]
	if !ok {
		return transactions.ErrNotFound
	}
	stored.Status = tr.Status
	stored.CompletedAt = tr.CompletedAt
	stored.CancelledAt = tr.CancelledAt
	stored.DisputedAt = tr.DisputedAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *fakeTransactionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return transactions.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *fakeTransactionStore) OfferParties(ctx context.Context, offerID int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parties[offerID]
	if !ok {
		return 0, 0, transactions.ErrOfferNotFound
	}
	return p[0], p[1], nil
}

type reviewKey struct {
	transactionID int64
	reviewerID    int64
}

type fakeReviewStore struct {
	mu      sync.Mutex
	nextID  int64
	reviews map[reviewKey]*reviews.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{nextID: 1, reviews: map[reviewKey]*reviews.Review{}}
}

func (s *fakeReviewStore) Create(ctx context.Context, review *reviews.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{review.TransactionID, review.ReviewerID}
	// Mirrors the unique index on (transaction_id, reviewer_id).
	if _, exists := s.reviews[key]; exists {
		return reviews.ErrAlreadyReviewed
	}
	review.ID = s.nextID
	s.nextID++
	review.CreatedAt = time.Now()
	cp := *review
	s.reviews[key] = &cp
	return nil
}

func (s *fakeReviewStore) HasReview(ctx context.Context, transactionID, reviewerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reviews[reviewKey{transactionID, reviewerID}]
	return ok, nil
}

func (s *fakeReviewStore) GetByID(ctx context.Context, reviewID int64) (*reviews.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, review := range s.reviews {
		if review.ID == reviewID {
			cp := *review
			return &cp, nil
		}
	}
	return nil, reviews.ErrNotFound
}

func (s *fakeReviewStore) ListForUser(ctx context.Context, userID int64) ([]reviews.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reviews.Review
	for _, review := range s.reviews {
		if review.ReviewerID == userID || review.RevieweeID == userID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) Delete(ctx context.Context, reviewID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, review := range s.reviews {
		if review.ID == reviewID {
			delete(s.reviews, key)
			return nil
		}
	}
	return reviews.ErrNotFound
}

type fakeNotificationStore struct{}

func (fakeNotificationStore) Create(ctx context.Context, n *notifications.Notification) error {
	return nil
}
func (fakeNotificationStore) ListForUser(ctx context.Context, userID int64) ([]notifications.Notification, error) {
	return nil, nil
}
func (fakeNotificationStore) MarkRead(ctx context.Context, notificationID, userID int64) error {
	return nil
}

type fakePushTokenStore struct{}

func (fakePushTokenStore) AddOrUpdate(ctx context.Context, userID int64, token string, deviceInfo json.RawMessage) error {
	return nil
}
func (fakePushTokenStore) Remove(ctx context.Context, userID int64, token string) error { return nil }
func (fakePushTokenStore) RemoveByTokenList(ctx context.Context, tokens []string) error { return nil }
func (fakePushTokenStore) GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	return map[int64][]string{}, nil
}

type fakeSender struct{}

func (fakeSender) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}
func (fakeSender) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

type testEnv struct {
	app          *application
	mux          http.Handler
	offers       *fakeOfferStore
	transactions *fakeTransactionStore
	reviews      *fakeReviewStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	offerStore := newFakeOfferStore()
	transactionStore := newFakeTransactionStore()
	reviewStore := newFakeReviewStore()

	// A mutex stands in for the database transaction: the duplicate check
	// and the insert cannot interleave across concurrent requests.
	var reviewTxMu sync.Mutex

	container := &storage.Container{
		Offers:        offerStore,
		Transactions:  transactionStore,
		Reviews:       reviewStore,
		Notifications: fakeNotificationStore{},
		PushTokens:    fakePushTokenStore{},
		WithOfferTx: func(ctx context.Context, fn func(o offers.Store) error) error {
			return fn(offerStore)
		},
		WithReviewTx: func(ctx context.Context, fn func(r reviews.Store) error) error {
			reviewTxMu.Lock()
			defer reviewTxMu.Unlock()
			return fn(reviewStore)
		},
	}

	references, err := transactions.NewReferenceGenerator("test-salt")
	require.NoError(t, err)

	app := &application{
		config: config{
			env:         "test",
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		store:         container,
		logger:        zap.NewNop().Sugar(),
		authenticator: auth.NewJWTAuthenticator("test-secret", "test-refresh", time.Hour, time.Hour, "test", "test"),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
		push:          fakeSender{},
		references:    references,
	}

	return &testEnv{
		app:          app,
		mux:          app.mount(),
		offers:       offerStore,
		transactions: transactionStore,
		reviews:      reviewStore,
	}
}

func (e *testEnv) token(t *testing.T, userID int64, role roles.Role) string {
	t.Helper()
	access, _, err := e.app.authenticator.GenerateTokens(userID, string(role))
	require.NoError(t, err)
	return access
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID int64) *httptest.ResponseRecorder {
	return e.doAs(t, method, path, body, userID, roles.User)
}

func (e *testEnv) doAs(t *testing.T, method, path string, body any, userID int64, role roles.Role) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token(t, userID, role))

	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()

	var env struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}
