package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// DeckEntry pairs a card with its membership position in a deck.
type DeckEntry struct {
	Card     *domain.Card
	Position int
}

// CardStore defines the interface for card data persistence, including the
// deck-scoped queries the study queue selector is built on.
type CardStore interface {
	// Create saves a new card.
	// Returns ErrDuplicate if a card with the same language and word exists.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist. Callers walking a
	// session queue rely on this signal to skip identifiers that no longer
	// resolve instead of failing the whole operation.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByWord retrieves a card by its language and word, the natural key.
	// Returns ErrCardNotFound if no such card exists.
	GetByWord(ctx context.Context, language, word string) (*domain.Card, error)

	// ListByDeck returns the cards of a deck in membership position order.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// ListDeckEntries returns the cards of a deck together with their
	// membership positions, in position order. CSV export preserves the
	// stored positions, gaps included.
	ListDeckEntries(ctx context.Context, deckID uuid.UUID) ([]DeckEntry, error)

	// AddToDeck attaches a card to a deck at the given position.
	// Returns ErrDuplicate if the card is already in the deck.
	AddToDeck(ctx context.Context, deckID, cardID uuid.UUID, position int) error

	// MaxPosition returns the highest membership position in a deck, or 0
	// for an empty deck.
	MaxPosition(ctx context.Context, deckID uuid.UUID) (int, error)

	// WordsInDeck returns the set of words already attached to a deck.
	// Used by CSV import to skip duplicates.
	WordsInDeck(ctx context.Context, deckID uuid.UUID) (map[string]struct{}, error)

	// DueCardIDs returns up to limit IDs of cards in the deck whose progress
	// for the user is due at or before now, ordered by due_at ascending with
	// card ID as the stable tie-break.
	DueCardIDs(ctx context.Context, userID, deckID uuid.UUID, now time.Time, limit int) ([]uuid.UUID, error)

	// NewCardIDs returns up to limit IDs of cards in the deck with no
	// progress record for the user, ordered by frequency rank ascending
	// (unranked cards last) with card ID as the stable tie-break.
	NewCardIDs(ctx context.Context, userID, deckID uuid.UUID, limit int) ([]uuid.UUID, error)

	// CountDueNewTotal computes the deck's due, new and total card counts
	// for a user, used to refresh the UserDeck aggregate cache.
	CountDueNewTotal(ctx context.Context, userID, deckID uuid.UUID, now time.Time) (due, newCount, total int, err error)

	// WithTx returns a CardStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
