package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend. Card tags are stored
// as a JSONB column.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// cardColumns is the canonical select list shared by all card queries.
const cardColumns = `id, language, word, translation, context_sentence, notes, frequency_rank, tags, created_by, created_at`

// Create implements store.CardStore.Create
// Returns store.ErrDuplicate if a card with the same language and word exists.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	tagsJSON, err := json.Marshal(card.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal card tags: %w", err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.Language,
		card.Word,
		card.Translation,
		card.ContextSentence,
		card.Notes,
		card.FrequencyRank,
		tagsJSON,
		card.CreatedBy,
		card.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: card %q already exists for language %s: %v",
				store.ErrDuplicate, card.Word, card.Language, err)
		}

		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	log.Debug("card created successfully",
		slog.String("card_id", card.ID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// GetByWord implements store.CardStore.GetByWord
// Returns store.ErrCardNotFound if no card exists for the language and word.
func (s *PostgresCardStore) GetByWord(ctx context.Context, language, word string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE language = $1 AND word = $2`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, language, word))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by word",
			slog.String("error", err.Error()),
			slog.String("language", language))
		return nil, MapError(err)
	}

	return card, nil
}

// ListByDeck implements store.CardStore.ListByDeck
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.language, c.word, c.translation, c.context_sentence, c.notes, c.frequency_rank, c.tags, c.created_by, c.created_at
		FROM cards c
		JOIN deck_cards dc ON dc.card_id = c.id
		WHERE dc.deck_id = $1
		ORDER BY dc.position, c.id
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query cards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row",
				slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if cards == nil {
		cards = []*domain.Card{}
	}

	return cards, nil
}

// ListDeckEntries implements store.CardStore.ListDeckEntries
func (s *PostgresCardStore) ListDeckEntries(ctx context.Context, deckID uuid.UUID) ([]store.DeckEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT dc.position, c.id, c.language, c.word, c.translation, c.context_sentence, c.notes, c.frequency_rank, c.tags, c.created_by, c.created_at
		FROM deck_cards dc
		JOIN cards c ON c.id = dc.card_id
		WHERE dc.deck_id = $1
		ORDER BY dc.position, c.id
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query deck entries",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []store.DeckEntry
	for rows.Next() {
		var card domain.Card
		var tagsJSON []byte
		var position int

		err := rows.Scan(
			&position,
			&card.ID,
			&card.Language,
			&card.Word,
			&card.Translation,
			&card.ContextSentence,
			&card.Notes,
			&card.FrequencyRank,
			&tagsJSON,
			&card.CreatedBy,
			&card.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan deck entry row",
				slog.String("error", err.Error()))
			return nil, err
		}

		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &card.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal card tags: %w", err)
			}
		}

		entries = append(entries, store.DeckEntry{Card: &card, Position: position})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []store.DeckEntry{}
	}

	return entries, nil
}

// AddToDeck implements store.CardStore.AddToDeck
// Returns store.ErrDuplicate if the card is already in the deck.
func (s *PostgresCardStore) AddToDeck(ctx context.Context, deckID, cardID uuid.UUID, position int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO deck_cards (deck_id, card_id, position)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query, deckID, cardID, position)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: card already in deck: %v", store.ErrDuplicate, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: deck or card does not exist: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to add card to deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.String("card_id", cardID.String()))
		return MapError(err)
	}

	return nil
}

// MaxPosition implements store.CardStore.MaxPosition
func (s *PostgresCardStore) MaxPosition(ctx context.Context, deckID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(MAX(position), 0) FROM deck_cards WHERE deck_id = $1`

	var max int
	if err := s.db.QueryRowContext(ctx, query, deckID).Scan(&max); err != nil {
		return 0, MapError(err)
	}
	return max, nil
}

// WordsInDeck implements store.CardStore.WordsInDeck
func (s *PostgresCardStore) WordsInDeck(ctx context.Context, deckID uuid.UUID) (map[string]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.word
		FROM cards c
		JOIN deck_cards dc ON dc.card_id = c.id
		WHERE dc.deck_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query deck words",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	words := make(map[string]struct{})
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, err
		}
		words[word] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

// DueCardIDs implements store.CardStore.DueCardIDs
// The card ID tie-break keeps the ordering deterministic when multiple
// cards share a due timestamp.
func (s *PostgresCardStore) DueCardIDs(
	ctx context.Context,
	userID, deckID uuid.UUID,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT cp.card_id
		FROM card_progress cp
		JOIN deck_cards dc ON dc.card_id = cp.card_id
		WHERE dc.deck_id = $1
		  AND cp.user_id = $2
		  AND cp.due_at <= $3
		ORDER BY cp.due_at ASC, cp.card_id ASC
		LIMIT $4
	`

	rows, err := s.db.QueryContext(ctx, query, deckID, userID, now, limit)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	return scanIDs(rows)
}

// NewCardIDs implements store.CardStore.NewCardIDs
// Unranked cards sort after every ranked card; the card ID tie-break keeps
// the ordering deterministic within equal ranks.
func (s *PostgresCardStore) NewCardIDs(
	ctx context.Context,
	userID, deckID uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id
		FROM cards c
		JOIN deck_cards dc ON dc.card_id = c.id
		WHERE dc.deck_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM card_progress cp
			WHERE cp.user_id = $2 AND cp.card_id = c.id
		  )
		ORDER BY c.frequency_rank ASC NULLS LAST, c.id ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, deckID, userID, limit)
	if err != nil {
		log.Error("failed to query new cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	return scanIDs(rows)
}

// CountDueNewTotal implements store.CardStore.CountDueNewTotal
func (s *PostgresCardStore) CountDueNewTotal(
	ctx context.Context,
	userID, deckID uuid.UUID,
	now time.Time,
) (due, newCount, total int, err error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE cp.due_at IS NOT NULL AND cp.due_at <= $3) AS due,
			COUNT(*) FILTER (WHERE cp.card_id IS NULL) AS new,
			COUNT(*) AS total
		FROM deck_cards dc
		LEFT JOIN card_progress cp ON cp.card_id = dc.card_id AND cp.user_id = $2
		WHERE dc.deck_id = $1
	`

	err = s.db.QueryRowContext(ctx, query, deckID, userID, now).Scan(&due, &newCount, &total)
	if err != nil {
		log.Error("failed to count deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()),
			slog.String("user_id", userID.String()))
		return 0, 0, 0, MapError(err)
	}

	return due, newCount, total, nil
}

// WithTx implements store.CardStore.WithTx
// It returns a new CardStore bound to the given transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard reads one card row including the JSONB tags column.
func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var tagsJSON []byte

	err := row.Scan(
		&card.ID,
		&card.Language,
		&card.Word,
		&card.Translation,
		&card.ContextSentence,
		&card.Notes,
		&card.FrequencyRank,
		&tagsJSON,
		&card.CreatedBy,
		&card.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &card.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal card tags: %w", err)
		}
	}

	return &card, nil
}

// scanIDs drains a single-column UUID result set.
func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
