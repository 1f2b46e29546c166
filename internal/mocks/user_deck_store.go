package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

type userDeckKey struct {
	userID uuid.UUID
	deckID uuid.UUID
}

// MockUserDeckStore implements store.UserDeckStore for testing
type MockUserDeckStore struct {
	CreateFn       func(ctx context.Context, ud *domain.UserDeck) error
	GetFn          func(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)
	GetForUpdateFn func(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)
	UpdateFn       func(ctx context.Context, ud *domain.UserDeck) error
	DeleteFn       func(ctx context.Context, userID, deckID uuid.UUID) error
	ListByUserFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.UserDeck, error)

	Subscriptions map[userDeckKey]*domain.UserDeck
}

// NewMockUserDeckStore creates a new mock store with initialized defaults
func NewMockUserDeckStore() *MockUserDeckStore {
	return &MockUserDeckStore{
		Subscriptions: make(map[userDeckKey]*domain.UserDeck),
	}
}

// Put stores a subscription directly, bypassing Create semantics.
func (m *MockUserDeckStore) Put(ud *domain.UserDeck) {
	m.Subscriptions[userDeckKey{ud.UserID, ud.DeckID}] = ud
}

// Create implements the UserDeckStore interface
func (m *MockUserDeckStore) Create(ctx context.Context, ud *domain.UserDeck) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, ud)
	}

	key := userDeckKey{ud.UserID, ud.DeckID}
	if _, exists := m.Subscriptions[key]; exists {
		return store.ErrDuplicate
	}
	m.Subscriptions[key] = ud
	return nil
}

// Get implements the UserDeckStore interface
func (m *MockUserDeckStore) Get(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, deckID)
	}
	return m.get(userID, deckID)
}

// GetForUpdate implements the UserDeckStore interface
func (m *MockUserDeckStore) GetForUpdate(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.UserDeck, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, userID, deckID)
	}
	return m.get(userID, deckID)
}

func (m *MockUserDeckStore) get(userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	ud, exists := m.Subscriptions[userDeckKey{userID, deckID}]
	if !exists {
		return nil, store.ErrUserDeckNotFound
	}
	return ud, nil
}

// Update implements the UserDeckStore interface
func (m *MockUserDeckStore) Update(ctx context.Context, ud *domain.UserDeck) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ud)
	}

	key := userDeckKey{ud.UserID, ud.DeckID}
	if _, exists := m.Subscriptions[key]; !exists {
		return store.ErrUserDeckNotFound
	}
	m.Subscriptions[key] = ud
	return nil
}

// Delete implements the UserDeckStore interface
func (m *MockUserDeckStore) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, deckID)
	}

	key := userDeckKey{userID, deckID}
	if _, exists := m.Subscriptions[key]; !exists {
		return store.ErrUserDeckNotFound
	}
	delete(m.Subscriptions, key)
	return nil
}

// ListByUser implements the UserDeckStore interface
func (m *MockUserDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserDeck, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}

	subs := make([]*domain.UserDeck, 0)
	for key, ud := range m.Subscriptions {
		if key.userID == userID {
			subs = append(subs, ud)
		}
	}
	return subs, nil
}

// WithTx implements the UserDeckStore interface
func (m *MockUserDeckStore) WithTx(tx *sql.Tx) store.UserDeckStore {
	return m
}
