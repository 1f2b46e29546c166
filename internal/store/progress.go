package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// ProgressStore defines the interface for card progress persistence.
// Progress rows are unique per (user, card) and only ever mutated by the
// scheduler through the session manager.
type ProgressStore interface {
	// Create saves a new progress record.
	// Returns ErrDuplicate if a record already exists for the (user, card) pair.
	Create(ctx context.Context, progress *domain.CardProgress) error

	// Get retrieves progress by (user, card) without any row locking.
	// Returns ErrProgressNotFound if the record does not exist.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// GetForUpdate retrieves progress with a row-level lock using
	// SELECT FOR UPDATE. Must be called within a transaction.
	// Returns ErrProgressNotFound if the record does not exist.
	GetForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// Update modifies an existing progress record, identified by the
	// UserID and CardID fields of the given progress.
	// Returns ErrProgressNotFound if the record does not exist.
	Update(ctx context.Context, progress *domain.CardProgress) error

	// ExistingCardIDs reports which of the given card IDs already have a
	// progress record for the user. Used at session creation to count how
	// many queue entries are new.
	ExistingCardIDs(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)

	// WithTx returns a ProgressStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
