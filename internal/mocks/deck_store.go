package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

// MockDeckStore implements store.DeckStore for testing
type MockDeckStore struct {
	CreateFn     func(ctx context.Context, deck *domain.Deck) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Deck, error)
	ListPublicFn func(ctx context.Context) ([]*domain.Deck, error)

	Decks map[uuid.UUID]*domain.Deck
}

// NewMockDeckStore creates a new mock store with initialized defaults
func NewMockDeckStore() *MockDeckStore {
	return &MockDeckStore{
		Decks: make(map[uuid.UUID]*domain.Deck),
	}
}

// Create implements the DeckStore interface
func (m *MockDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, deck)
	}

	if _, exists := m.Decks[deck.ID]; exists {
		return store.ErrDuplicate
	}
	m.Decks[deck.ID] = deck
	return nil
}

// GetByID implements the DeckStore interface
func (m *MockDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	deck, exists := m.Decks[id]
	if !exists {
		return nil, store.ErrDeckNotFound
	}
	return deck, nil
}

// ListPublic implements the DeckStore interface
func (m *MockDeckStore) ListPublic(ctx context.Context) ([]*domain.Deck, error) {
	if m.ListPublicFn != nil {
		return m.ListPublicFn(ctx)
	}

	decks := make([]*domain.Deck, 0)
	for _, deck := range m.Decks {
		if deck.IsPublic {
			decks = append(decks, deck)
		}
	}
	return decks, nil
}

// WithTx implements the DeckStore interface
func (m *MockDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return m
}
