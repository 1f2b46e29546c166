package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// UserDeckStore defines the interface for deck subscription persistence.
type UserDeckStore interface {
	// Create saves a new subscription.
	// Returns ErrDuplicate if the user is already subscribed to the deck.
	Create(ctx context.Context, ud *domain.UserDeck) error

	// Get retrieves a subscription by (user, deck) without row locking.
	// Returns ErrUserDeckNotFound if the subscription does not exist.
	Get(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)

	// GetForUpdate retrieves a subscription with a row-level lock using
	// SELECT FOR UPDATE. Must be called within a transaction. Session start
	// and grading both lock this row while touching the counters, which
	// serializes all counter mutations for one (user, deck) pair.
	// Returns ErrUserDeckNotFound if the subscription does not exist.
	GetForUpdate(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)

	// Update persists settings, counters and cached counts.
	// Returns ErrUserDeckNotFound if the subscription does not exist.
	Update(ctx context.Context, ud *domain.UserDeck) error

	// Delete removes a subscription.
	// Returns ErrUserDeckNotFound if the subscription does not exist.
	Delete(ctx context.Context, userID, deckID uuid.UUID) error

	// ListByUser returns a user's subscriptions ordered by deck title.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserDeck, error)

	// WithTx returns a UserDeckStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserDeckStore
}
