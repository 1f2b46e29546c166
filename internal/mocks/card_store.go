package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

// MockCardStore implements store.CardStore for testing. The default
// implementations are backed by the Cards and DeckCards maps; individual
// methods can be overridden through the Fn fields.
type MockCardStore struct {
	CreateFn           func(ctx context.Context, card *domain.Card) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByWordFn        func(ctx context.Context, language, word string) (*domain.Card, error)
	ListByDeckFn       func(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)
	ListDeckEntriesFn  func(ctx context.Context, deckID uuid.UUID) ([]store.DeckEntry, error)
	AddToDeckFn        func(ctx context.Context, deckID, cardID uuid.UUID, position int) error
	MaxPositionFn      func(ctx context.Context, deckID uuid.UUID) (int, error)
	WordsInDeckFn      func(ctx context.Context, deckID uuid.UUID) (map[string]struct{}, error)
	DueCardIDsFn       func(ctx context.Context, userID, deckID uuid.UUID, now time.Time, limit int) ([]uuid.UUID, error)
	NewCardIDsFn       func(ctx context.Context, userID, deckID uuid.UUID, limit int) ([]uuid.UUID, error)
	CountDueNewTotalFn func(ctx context.Context, userID, deckID uuid.UUID, now time.Time) (int, int, int, error)

	Cards map[uuid.UUID]*domain.Card
	// DeckCards maps deck ID to card ID to membership position.
	DeckCards map[uuid.UUID]map[uuid.UUID]int
}

// NewMockCardStore creates a new mock store with initialized defaults
func NewMockCardStore() *MockCardStore {
	return &MockCardStore{
		Cards:     make(map[uuid.UUID]*domain.Card),
		DeckCards: make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

// AddCard stores a card and attaches it to the deck at the given position.
// It is a test convenience, not part of the store interface.
func (m *MockCardStore) AddCard(deckID uuid.UUID, card *domain.Card, position int) {
	m.Cards[card.ID] = card
	if m.DeckCards[deckID] == nil {
		m.DeckCards[deckID] = make(map[uuid.UUID]int)
	}
	m.DeckCards[deckID][card.ID] = position
}

// Create implements the CardStore interface
func (m *MockCardStore) Create(ctx context.Context, card *domain.Card) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, card)
	}

	for _, existing := range m.Cards {
		if existing.Language == card.Language && existing.Word == card.Word {
			return store.ErrDuplicate
		}
	}
	m.Cards[card.ID] = card
	return nil
}

// GetByID implements the CardStore interface
func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	card, exists := m.Cards[id]
	if !exists {
		return nil, store.ErrCardNotFound
	}
	return card, nil
}

// GetByWord implements the CardStore interface
func (m *MockCardStore) GetByWord(ctx context.Context, language, word string) (*domain.Card, error) {
	if m.GetByWordFn != nil {
		return m.GetByWordFn(ctx, language, word)
	}

	for _, card := range m.Cards {
		if card.Language == language && card.Word == word {
			return card, nil
		}
	}
	return nil, store.ErrCardNotFound
}

// ListByDeck implements the CardStore interface
func (m *MockCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	if m.ListByDeckFn != nil {
		return m.ListByDeckFn(ctx, deckID)
	}

	entries, err := m.ListDeckEntries(ctx, deckID)
	if err != nil {
		return nil, err
	}
	cards := make([]*domain.Card, 0, len(entries))
	for _, entry := range entries {
		cards = append(cards, entry.Card)
	}
	return cards, nil
}

// ListDeckEntries implements the CardStore interface
func (m *MockCardStore) ListDeckEntries(ctx context.Context, deckID uuid.UUID) ([]store.DeckEntry, error) {
	if m.ListDeckEntriesFn != nil {
		return m.ListDeckEntriesFn(ctx, deckID)
	}

	entries := make([]store.DeckEntry, 0)
	for cardID, position := range m.DeckCards[deckID] {
		entries = append(entries, store.DeckEntry{Card: m.Cards[cardID], Position: position})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries, nil
}

// AddToDeck implements the CardStore interface
func (m *MockCardStore) AddToDeck(ctx context.Context, deckID, cardID uuid.UUID, position int) error {
	if m.AddToDeckFn != nil {
		return m.AddToDeckFn(ctx, deckID, cardID, position)
	}

	if m.DeckCards[deckID] == nil {
		m.DeckCards[deckID] = make(map[uuid.UUID]int)
	}
	if _, exists := m.DeckCards[deckID][cardID]; exists {
		return store.ErrDuplicate
	}
	m.DeckCards[deckID][cardID] = position
	return nil
}

// MaxPosition implements the CardStore interface
func (m *MockCardStore) MaxPosition(ctx context.Context, deckID uuid.UUID) (int, error) {
	if m.MaxPositionFn != nil {
		return m.MaxPositionFn(ctx, deckID)
	}

	max := 0
	for _, position := range m.DeckCards[deckID] {
		if position > max {
			max = position
		}
	}
	return max, nil
}

// WordsInDeck implements the CardStore interface
func (m *MockCardStore) WordsInDeck(ctx context.Context, deckID uuid.UUID) (map[string]struct{}, error) {
	if m.WordsInDeckFn != nil {
		return m.WordsInDeckFn(ctx, deckID)
	}

	words := make(map[string]struct{})
	for cardID := range m.DeckCards[deckID] {
		if card, ok := m.Cards[cardID]; ok {
			words[card.Word] = struct{}{}
		}
	}
	return words, nil
}

// DueCardIDs implements the CardStore interface
func (m *MockCardStore) DueCardIDs(
	ctx context.Context,
	userID, deckID uuid.UUID,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	if m.DueCardIDsFn != nil {
		return m.DueCardIDsFn(ctx, userID, deckID, now, limit)
	}
	return nil, nil
}

// NewCardIDs implements the CardStore interface
func (m *MockCardStore) NewCardIDs(
	ctx context.Context,
	userID, deckID uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	if m.NewCardIDsFn != nil {
		return m.NewCardIDsFn(ctx, userID, deckID, limit)
	}
	return nil, nil
}

// CountDueNewTotal implements the CardStore interface
func (m *MockCardStore) CountDueNewTotal(
	ctx context.Context,
	userID, deckID uuid.UUID,
	now time.Time,
) (int, int, int, error) {
	if m.CountDueNewTotalFn != nil {
		return m.CountDueNewTotalFn(ctx, userID, deckID, now)
	}
	return 0, 0, len(m.DeckCards[deckID]), nil
}

// WithTx implements the CardStore interface
func (m *MockCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return m
}
