package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// PostgresUserDeckStore implements the store.UserDeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserDeckStore creates a new PostgreSQL implementation of the UserDeckStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserDeckStore(db store.DBTX, logger *slog.Logger) *PostgresUserDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_deck_store")),
	}
}

// Ensure PostgresUserDeckStore implements store.UserDeckStore interface
var _ store.UserDeckStore = (*PostgresUserDeckStore)(nil)

const userDeckColumns = `user_id, deck_id, is_active, added_at, daily_new_limit, chunk_size, new_ratio, cached_due_count, cached_new_count, cached_total_in_deck, cached_at, last_studied_at, reviews_today, reviews_today_date, total_reviews, new_today, new_today_date, total_new_seen`

// Create implements store.UserDeckStore.Create
// Returns store.ErrDuplicate if the user is already subscribed to the deck.
func (s *PostgresUserDeckStore) Create(ctx context.Context, ud *domain.UserDeck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ud.Validate(); err != nil {
		log.Warn("subscription validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", ud.UserID.String()),
			slog.String("deck_id", ud.DeckID.String()))
		return err
	}

	query := `
		INSERT INTO user_decks (` + userDeckColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		ud.UserID,
		ud.DeckID,
		ud.IsActive,
		ud.AddedAt,
		ud.DailyNewLimit,
		ud.ChunkSize,
		ud.NewRatio,
		ud.CachedDueCount,
		ud.CachedNewCount,
		ud.CachedTotalInDeck,
		ud.CachedAt,
		ud.LastStudiedAt,
		ud.ReviewsToday,
		ud.ReviewsTodayDate,
		ud.TotalReviews,
		ud.NewToday,
		ud.NewTodayDate,
		ud.TotalNewSeen,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: already subscribed to deck: %v", store.ErrDuplicate, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or deck does not exist: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to create subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", ud.UserID.String()),
			slog.String("deck_id", ud.DeckID.String()))
		return MapError(err)
	}

	log.Info("subscription created successfully",
		slog.String("user_id", ud.UserID.String()),
		slog.String("deck_id", ud.DeckID.String()))
	return nil
}

// Get implements store.UserDeckStore.Get
// Returns store.ErrUserDeckNotFound if the subscription does not exist.
func (s *PostgresUserDeckStore) Get(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	query := `SELECT ` + userDeckColumns + ` FROM user_decks WHERE user_id = $1 AND deck_id = $2`
	return s.getUserDeck(ctx, query, userID, deckID)
}

// GetForUpdate implements store.UserDeckStore.GetForUpdate
// The row stays locked until the surrounding transaction ends.
// Returns store.ErrUserDeckNotFound if the subscription does not exist.
func (s *PostgresUserDeckStore) GetForUpdate(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	query := `SELECT ` + userDeckColumns + ` FROM user_decks WHERE user_id = $1 AND deck_id = $2 FOR UPDATE`
	return s.getUserDeck(ctx, query, userID, deckID)
}

func (s *PostgresUserDeckStore) getUserDeck(
	ctx context.Context,
	query string,
	userID, deckID uuid.UUID,
) (*domain.UserDeck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var ud domain.UserDeck
	err := s.db.QueryRowContext(ctx, query, userID, deckID).Scan(
		&ud.UserID,
		&ud.DeckID,
		&ud.IsActive,
		&ud.AddedAt,
		&ud.DailyNewLimit,
		&ud.ChunkSize,
		&ud.NewRatio,
		&ud.CachedDueCount,
		&ud.CachedNewCount,
		&ud.CachedTotalInDeck,
		&ud.CachedAt,
		&ud.LastStudiedAt,
		&ud.ReviewsToday,
		&ud.ReviewsTodayDate,
		&ud.TotalReviews,
		&ud.NewToday,
		&ud.NewTodayDate,
		&ud.TotalNewSeen,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("subscription not found",
				slog.String("user_id", userID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, store.ErrUserDeckNotFound
		}
		log.Error("failed to get subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}

	return &ud, nil
}

// Update implements store.UserDeckStore.Update
// Returns store.ErrUserDeckNotFound if the subscription does not exist.
func (s *PostgresUserDeckStore) Update(ctx context.Context, ud *domain.UserDeck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ud.Validate(); err != nil {
		log.Warn("subscription validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", ud.UserID.String()),
			slog.String("deck_id", ud.DeckID.String()))
		return err
	}

	query := `
		UPDATE user_decks
		SET is_active = $1, daily_new_limit = $2, chunk_size = $3, new_ratio = $4,
		    cached_due_count = $5, cached_new_count = $6, cached_total_in_deck = $7, cached_at = $8,
		    last_studied_at = $9, reviews_today = $10, reviews_today_date = $11, total_reviews = $12,
		    new_today = $13, new_today_date = $14, total_new_seen = $15
		WHERE user_id = $16 AND deck_id = $17
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		ud.IsActive,
		ud.DailyNewLimit,
		ud.ChunkSize,
		ud.NewRatio,
		ud.CachedDueCount,
		ud.CachedNewCount,
		ud.CachedTotalInDeck,
		ud.CachedAt,
		ud.LastStudiedAt,
		ud.ReviewsToday,
		ud.ReviewsTodayDate,
		ud.TotalReviews,
		ud.NewToday,
		ud.NewTodayDate,
		ud.TotalNewSeen,
		ud.UserID,
		ud.DeckID,
	)

	if err != nil {
		log.Error("failed to update subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", ud.UserID.String()),
			slog.String("deck_id", ud.DeckID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "subscription"); err != nil {
		return store.ErrUserDeckNotFound
	}

	return nil
}

// Delete implements store.UserDeckStore.Delete
// Returns store.ErrUserDeckNotFound if the subscription does not exist.
func (s *PostgresUserDeckStore) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM user_decks WHERE user_id = $1 AND deck_id = $2`

	result, err := s.db.ExecContext(ctx, query, userID, deckID)
	if err != nil {
		log.Error("failed to delete subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "subscription"); err != nil {
		return store.ErrUserDeckNotFound
	}

	log.Info("subscription deleted",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()))
	return nil
}

// ListByUser implements store.UserDeckStore.ListByUser
func (s *PostgresUserDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserDeck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ud.user_id, ud.deck_id, ud.is_active, ud.added_at, ud.daily_new_limit, ud.chunk_size, ud.new_ratio,
		       ud.cached_due_count, ud.cached_new_count, ud.cached_total_in_deck, ud.cached_at,
		       ud.last_studied_at, ud.reviews_today, ud.reviews_today_date, ud.total_reviews,
		       ud.new_today, ud.new_today_date, ud.total_new_seen
		FROM user_decks ud
		JOIN decks d ON d.id = ud.deck_id
		WHERE ud.user_id = $1
		ORDER BY d.title
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query subscriptions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var subs []*domain.UserDeck
	for rows.Next() {
		var ud domain.UserDeck
		err := rows.Scan(
			&ud.UserID,
			&ud.DeckID,
			&ud.IsActive,
			&ud.AddedAt,
			&ud.DailyNewLimit,
			&ud.ChunkSize,
			&ud.NewRatio,
			&ud.CachedDueCount,
			&ud.CachedNewCount,
			&ud.CachedTotalInDeck,
			&ud.CachedAt,
			&ud.LastStudiedAt,
			&ud.ReviewsToday,
			&ud.ReviewsTodayDate,
			&ud.TotalReviews,
			&ud.NewToday,
			&ud.NewTodayDate,
			&ud.TotalNewSeen,
		)
		if err != nil {
			log.Error("failed to scan subscription row",
				slog.String("error", err.Error()))
			return nil, err
		}
		subs = append(subs, &ud)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if subs == nil {
		subs = []*domain.UserDeck{}
	}

	return subs, nil
}

// WithTx implements store.UserDeckStore.WithTx
// It returns a new UserDeckStore bound to the given transaction.
func (s *PostgresUserDeckStore) WithTx(tx *sql.Tx) store.UserDeckStore {
	return &PostgresUserDeckStore{
		db:     tx,
		logger: s.logger,
	}
}
