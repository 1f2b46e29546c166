package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	// Create saves a new session, including its fixed queue and first nonce.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetActive retrieves the most recently started active session for a
	// (user, deck) pair. Returns ErrSessionNotFound if none exists.
	GetActive(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)

	// GetForUpdate retrieves a session by ID with a row-level lock using
	// SELECT FOR UPDATE. Must be called within a transaction; every grading
	// step locks the session row for the duration of the operation.
	// Returns ErrSessionNotFound if the session does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// Update persists the mutable subset of a session: status, index,
	// current nonce and finished_at. The queue is fixed at creation and
	// never rewritten.
	Update(ctx context.Context, session *domain.StudySession) error

	// WithTx returns a SessionStore bound to the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}
