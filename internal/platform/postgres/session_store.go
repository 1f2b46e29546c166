package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend. The fixed card queue
// is stored as a JSONB array of UUIDs; it is written once at creation and
// never updated.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

const sessionColumns = `id, user_id, deck_id, status, queue, queue_index, current_nonce, started_at, finished_at`

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	queueJSON, err := json.Marshal(session.Queue)
	if err != nil {
		return fmt.Errorf("failed to marshal session queue: %w", err)
	}

	query := `
		INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.DeckID,
		session.Status,
		queueJSON,
		session.Index,
		session.CurrentNonce,
		session.StartedAt,
		session.FinishedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or deck does not exist: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.Int("queue_len", len(session.Queue)))
	return nil
}

// GetActive implements store.SessionStore.GetActive
// Returns store.ErrSessionNotFound if no active session exists for the pair.
func (s *PostgresSessionStore) GetActive(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND deck_id = $2 AND status = $3
		ORDER BY started_at DESC
		LIMIT 1
	`
	return s.getSession(ctx, query, userID, deckID, domain.SessionStatusActive)
}

// GetForUpdate implements store.SessionStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE id = $1
		FOR UPDATE
	`
	return s.getSession(ctx, query, id)
}

func (s *PostgresSessionStore) getSession(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var session domain.StudySession
	var queueJSON []byte

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&session.ID,
		&session.UserID,
		&session.DeckID,
		&session.Status,
		&queueJSON,
		&session.Index,
		&session.CurrentNonce,
		&session.StartedAt,
		&session.FinishedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if len(queueJSON) > 0 {
		if err := json.Unmarshal(queueJSON, &session.Queue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session queue: %w", err)
		}
	}

	return &session, nil
}

// Update implements store.SessionStore.Update
// Only the mutable fields are written; the queue is immutable after creation.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		UPDATE study_sessions
		SET status = $1, queue_index = $2, current_nonce = $3, finished_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.Status,
		session.Index,
		session.CurrentNonce,
		session.FinishedAt,
		session.ID,
	)

	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "session"); err != nil {
		return store.ErrSessionNotFound
	}

	return nil
}

// WithTx implements store.SessionStore.WithTx
// It returns a new SessionStore bound to the given transaction.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
