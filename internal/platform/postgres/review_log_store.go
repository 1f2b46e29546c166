package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend. Log rows are insert
// only; there is no update or delete path.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

const reviewLogColumns = `id, session_id, user_id, deck_id, card_id, quality, reviewed_at, due_before, due_after, ease_before, ease_after, interval_before, interval_after`

// Create implements store.ReviewLogStore.Create
func (s *PostgresReviewLogStore) Create(ctx context.Context, entry *domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("review log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("log_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO review_logs (` + reviewLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SessionID,
		entry.UserID,
		entry.DeckID,
		entry.CardID,
		entry.Quality,
		entry.ReviewedAt,
		entry.DueBefore,
		entry.DueAfter,
		entry.EaseBefore,
		entry.EaseAfter,
		entry.IntervalBefore,
		entry.IntervalAfter,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced entity does not exist: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to create review log",
			slog.String("error", err.Error()),
			slog.String("log_id", entry.ID.String()))
		return MapError(err)
	}

	return nil
}

// ListByUser implements store.ReviewLogStore.ListByUser
func (s *PostgresReviewLogStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	deckID *uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + reviewLogColumns + `
		FROM review_logs
		WHERE user_id = $1 AND ($2::uuid IS NULL OR deck_id = $2)
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, deckID, limit)
	if err != nil {
		log.Error("failed to query review logs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.ReviewLog
	for rows.Next() {
		var entry domain.ReviewLog
		err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.UserID,
			&entry.DeckID,
			&entry.CardID,
			&entry.Quality,
			&entry.ReviewedAt,
			&entry.DueBefore,
			&entry.DueAfter,
			&entry.EaseBefore,
			&entry.EaseAfter,
			&entry.IntervalBefore,
			&entry.IntervalAfter,
		)
		if err != nil {
			log.Error("failed to scan review log row",
				slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if entries == nil {
		entries = []*domain.ReviewLog{}
	}

	return entries, nil
}

// WithTx implements store.ReviewLogStore.WithTx
// It returns a new ReviewLogStore bound to the given transaction.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{
		db:     tx,
		logger: s.logger,
	}
}
