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

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend. The algorithm state
// blob is stored as a JSONB column so that future algorithms can extend it
// without a schema change.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `user_id, card_id, due_at, last_reviewed_at, ease, interval_days, repetitions, lapses, state, algorithm, algo_state, created_at, updated_at`

// Create implements store.ProgressStore.Create
// Returns store.ErrDuplicate if a record already exists for the (user, card) pair.
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.CardProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	stateJSON, err := json.Marshal(progress.AlgoState)
	if err != nil {
		return fmt.Errorf("failed to marshal algo state: %w", err)
	}

	query := `
		INSERT INTO card_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CardID,
		progress.DueAt,
		progress.LastReviewedAt,
		progress.Ease,
		progress.IntervalDays,
		progress.Repetitions,
		progress.Lapses,
		progress.State,
		progress.Algorithm,
		stateJSON,
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: progress already exists for card: %v", store.ErrDuplicate, err)
		}

		log.Error("failed to create progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return MapError(err)
	}

	return nil
}

// Get implements store.ProgressStore.Get
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM card_progress WHERE user_id = $1 AND card_id = $2`
	return s.getProgress(ctx, query, userID, cardID)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) GetForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM card_progress WHERE user_id = $1 AND card_id = $2 FOR UPDATE`
	return s.getProgress(ctx, query, userID, cardID)
}

func (s *PostgresProgressStore) getProgress(
	ctx context.Context,
	query string,
	userID, cardID uuid.UUID,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var progress domain.CardProgress
	var stateJSON []byte

	err := s.db.QueryRowContext(ctx, query, userID, cardID).Scan(
		&progress.UserID,
		&progress.CardID,
		&progress.DueAt,
		&progress.LastReviewedAt,
		&progress.Ease,
		&progress.IntervalDays,
		&progress.Repetitions,
		&progress.Lapses,
		&progress.State,
		&progress.Algorithm,
		&stateJSON,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	if len(stateJSON) > 0 {
		if err := json.Unmarshal(stateJSON, &progress.AlgoState); err != nil {
			return nil, fmt.Errorf("failed to unmarshal algo state: %w", err)
		}
	}

	return &progress, nil
}

// Update implements store.ProgressStore.Update
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) Update(ctx context.Context, progress *domain.CardProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	stateJSON, err := json.Marshal(progress.AlgoState)
	if err != nil {
		return fmt.Errorf("failed to marshal algo state: %w", err)
	}

	query := `
		UPDATE card_progress
		SET due_at = $1, last_reviewed_at = $2, ease = $3, interval_days = $4,
		    repetitions = $5, lapses = $6, state = $7, algorithm = $8,
		    algo_state = $9, updated_at = $10
		WHERE user_id = $11 AND card_id = $12
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		progress.DueAt,
		progress.LastReviewedAt,
		progress.Ease,
		progress.IntervalDays,
		progress.Repetitions,
		progress.Lapses,
		progress.State,
		progress.Algorithm,
		stateJSON,
		progress.UpdatedAt,
		progress.UserID,
		progress.CardID,
	)

	if err != nil {
		log.Error("failed to update progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "progress"); err != nil {
		return store.ErrProgressNotFound
	}

	return nil
}

// ExistingCardIDs implements store.ProgressStore.ExistingCardIDs
func (s *PostgresProgressStore) ExistingCardIDs(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
) (map[uuid.UUID]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing := make(map[uuid.UUID]struct{})
	if len(cardIDs) == 0 {
		return existing, nil
	}

	// Bind the IDs as a text array and cast; the stdlib driver has no
	// native encoding for []uuid.UUID.
	ids := make([]string, len(cardIDs))
	for i, id := range cardIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT card_id
		FROM card_progress
		WHERE user_id = $1 AND card_id = ANY($2::uuid[])
	`

	rows, err := s.db.QueryContext(ctx, query, userID, ids)
	if err != nil {
		log.Error("failed to query existing progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return existing, nil
}

// WithTx implements store.ProgressStore.WithTx
// It returns a new ProgressStore bound to the given transaction.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
