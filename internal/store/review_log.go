package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// ReviewLogStore defines the interface for the append-only review history.
type ReviewLogStore interface {
	// Create appends one review log entry. Entries are immutable once written.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// ListByUser returns a user's review history, newest first, up to limit
	// entries. A non-nil deckID restricts the history to one deck.
	ListByUser(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	// WithTx returns a ReviewLogStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
