// Package library implements deck catalog and subscription management:
// adding decks to a user's library, per-deck scheduling settings, lazily
// refreshed aggregate counts, and CSV import/export of deck content.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// Subscription pairs a user's subscription row with the deck it points at.
type Subscription struct {
	UserDeck  *domain.UserDeck `json:"user_deck"`
	Deck      *domain.Deck     `json:"deck"`
	HasActive bool             `json:"has_active_session"`
}

// Settings is the user-editable subset of a subscription.
type Settings struct {
	DailyNewLimit int     `json:"daily_new_limit"`
	ChunkSize     int     `json:"chunk_size"`
	NewRatio      float64 `json:"new_ratio"`
}

// CardInput carries the user-supplied fields for a single new card.
type CardInput struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Context     string `json:"context"`
	Notes       string `json:"notes"`
	Rank        *int   `json:"rank,omitempty"`
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	Created  int      `json:"created"`
	Attached int      `json:"attached"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

// Service defines the interface for library operations.
type Service interface {
	// ListDecks returns the public deck catalog.
	ListDecks(ctx context.Context) ([]*domain.Deck, error)

	// CreateDeck creates a new public deck owned by the user.
	CreateDeck(ctx context.Context, userID uuid.UUID, language, title, description string) (*domain.Deck, error)

	// Subscribe adds a deck to the user's library with default settings.
	// Subscribing to a deck already in the library returns the existing
	// subscription unchanged.
	Subscribe(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)

	// Unsubscribe removes a deck from the user's library. Progress and
	// review history are kept; only the subscription row is deleted.
	// Returns ErrNotSubscribed if the deck is not in the library.
	Unsubscribe(ctx context.Context, userID, deckID uuid.UUID) error

	// ListLibrary returns the user's subscriptions with deck details.
	// Subscriptions whose aggregate counts have never been computed are
	// refreshed and persisted on the way out.
	ListLibrary(ctx context.Context, userID uuid.UUID) ([]Subscription, error)

	// UpdateSettings replaces the scheduling settings of a subscription.
	// Returns ErrNotSubscribed if the deck is not in the library, or a
	// domain validation error when a value is out of bounds.
	UpdateSettings(ctx context.Context, userID, deckID uuid.UUID, settings Settings) (*domain.UserDeck, error)

	// AddCard attaches a single card to the deck after its last position,
	// creating the card when no card with that language and word exists yet.
	// Returns ErrWordInDeck if the deck already contains the word.
	AddCard(ctx context.Context, userID, deckID uuid.UUID, input CardInput) (*domain.Card, error)

	// ImportCSV parses an uploaded vocabulary CSV and attaches its rows to
	// the deck as new cards, skipping words already present. The import is
	// atomic: either all new rows land or none do.
	ImportCSV(ctx context.Context, userID, deckID uuid.UUID, data []byte) (*ImportResult, error)

	// ExportCSV writes the deck's cards to w in the import format.
	ExportCSV(ctx context.Context, deckID uuid.UUID, w io.Writer) error
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	decks     store.DeckStore
	cards     store.CardStore
	userDecks store.UserDeckStore
	sessions  store.SessionStore
	logger    *slog.Logger

	runTx    func(ctx context.Context, fn store.TxFn) error
	timeFunc func() time.Time
}

// NewService creates a library Service backed by the given database and stores.
func NewService(
	db *sql.DB,
	decks store.DeckStore,
	cards store.CardStore,
	userDecks store.UserDeckStore,
	sessions store.SessionStore,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if decks == nil || cards == nil || userDecks == nil || sessions == nil {
		panic("stores cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		decks:     decks,
		cards:     cards,
		userDecks: userDecks,
		sessions:  sessions,
		logger:    log.With(slog.String("component", "library_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		timeFunc: time.Now,
	}
}

// ListDecks implements Service.ListDecks.
func (s *serviceImpl) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	return s.decks.ListPublic(ctx)
}

// CreateDeck implements Service.CreateDeck.
func (s *serviceImpl) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	language, title, description string,
) (*domain.Deck, error) {
	deck, err := domain.NewDeck(language, title, description, userID)
	if err != nil {
		return nil, err
	}
	deck.IsPublic = true

	if err := s.decks.Create(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// Subscribe implements Service.Subscribe.
func (s *serviceImpl) Subscribe(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	if _, err := s.decks.GetByID(ctx, deckID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}

	existing, err := s.userDecks.Get(ctx, userID, deckID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	ud, err := domain.NewUserDeck(userID, deckID, now)
	if err != nil {
		return nil, err
	}

	if err := s.userDecks.Create(ctx, ud); err != nil {
		// Lost a race with a concurrent subscribe; the existing row wins.
		if errors.Is(err, store.ErrDuplicate) {
			return s.userDecks.Get(ctx, userID, deckID)
		}
		return nil, err
	}

	log.Info("deck added to library",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()))
	return ud, nil
}

// Unsubscribe implements Service.Unsubscribe.
func (s *serviceImpl) Unsubscribe(ctx context.Context, userID, deckID uuid.UUID) error {
	err := s.userDecks.Delete(ctx, userID, deckID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotSubscribed
	}
	return err
}

// ListLibrary implements Service.ListLibrary.
func (s *serviceImpl) ListLibrary(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	subs, err := s.userDecks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]Subscription, 0, len(subs))
	for _, ud := range subs {
		deck, err := s.decks.GetByID(ctx, ud.DeckID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deck %s: %w", ud.DeckID, err)
		}

		// First listing after subscribe or import computes the counts.
		if ud.CachedAt == nil {
			due, newCount, total, err := s.cards.CountDueNewTotal(ctx, userID, ud.DeckID, now)
			if err != nil {
				return nil, fmt.Errorf("failed to compute deck counts: %w", err)
			}
			ud.RefreshCounts(due, newCount, total, now)
			if err := s.userDecks.Update(ctx, ud); err != nil {
				return nil, fmt.Errorf("failed to persist deck counts: %w", err)
			}
			log.Debug("refreshed stale deck counts",
				slog.String("user_id", userID.String()),
				slog.String("deck_id", ud.DeckID.String()))
		}

		hasActive := false
		if _, err := s.sessions.GetActive(ctx, userID, ud.DeckID); err == nil {
			hasActive = true
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		result = append(result, Subscription{UserDeck: ud, Deck: deck, HasActive: hasActive})
	}

	return result, nil
}

// UpdateSettings implements Service.UpdateSettings.
func (s *serviceImpl) UpdateSettings(
	ctx context.Context,
	userID, deckID uuid.UUID,
	settings Settings,
) (*domain.UserDeck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.UserDeck
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		userDecks := s.userDecks.WithTx(tx)

		ud, err := userDecks.GetForUpdate(ctx, userID, deckID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotSubscribed
			}
			return err
		}

		ud.DailyNewLimit = settings.DailyNewLimit
		ud.ChunkSize = settings.ChunkSize
		ud.NewRatio = settings.NewRatio

		if err := ud.Validate(); err != nil {
			return err
		}
		if err := userDecks.Update(ctx, ud); err != nil {
			return err
		}

		updated = ud
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("deck settings updated",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("chunk_size", updated.ChunkSize),
		slog.Int("daily_new_limit", updated.DailyNewLimit))
	return updated, nil
}

// AddCard implements Service.AddCard.
func (s *serviceImpl) AddCard(
	ctx context.Context,
	userID, deckID uuid.UUID,
	input CardInput,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	var card *domain.Card
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)
		cards := s.cards.WithTx(tx)
		userDecks := s.userDecks.WithTx(tx)

		deck, err := decks.GetByID(ctx, deckID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDeckNotFound
			}
			return err
		}

		word := strings.TrimSpace(input.Word)
		existing, err := cards.WordsInDeck(ctx, deckID)
		if err != nil {
			return fmt.Errorf("failed to load deck words: %w", err)
		}
		if _, ok := existing[word]; ok {
			return ErrWordInDeck
		}

		// Cards are shared content keyed by (language, word); reuse an
		// existing card rather than duplicating it.
		card, err = cards.GetByWord(ctx, deck.Language, word)
		if errors.Is(err, store.ErrNotFound) {
			card = &domain.Card{
				ID:              uuid.New(),
				Language:        deck.Language,
				Word:            word,
				Translation:     strings.TrimSpace(input.Translation),
				ContextSentence: input.Context,
				Notes:           input.Notes,
				FrequencyRank:   input.Rank,
				CreatedBy:       userID,
				CreatedAt:       now,
			}
			if err := cards.Create(ctx, card); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		maxPos, err := cards.MaxPosition(ctx, deckID)
		if err != nil {
			return fmt.Errorf("failed to load deck positions: %w", err)
		}
		if err := cards.AddToDeck(ctx, deckID, card.ID, maxPos+1); err != nil {
			return err
		}

		if ud, err := userDecks.GetForUpdate(ctx, userID, deckID); err == nil {
			ud.CachedAt = nil
			if err := userDecks.Update(ctx, ud); err != nil {
				return fmt.Errorf("failed to invalidate deck counts: %w", err)
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("card added to deck",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", card.ID.String()))
	return card, nil
}

// ImportCSV implements Service.ImportCSV.
func (s *serviceImpl) ImportCSV(
	ctx context.Context,
	userID, deckID uuid.UUID,
	data []byte,
) (*ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	rows, problems, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}

	result := &ImportResult{Problems: problems}
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)
		cards := s.cards.WithTx(tx)
		userDecks := s.userDecks.WithTx(tx)

		deck, err := decks.GetByID(ctx, deckID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDeckNotFound
			}
			return err
		}

		existing, err := cards.WordsInDeck(ctx, deckID)
		if err != nil {
			return fmt.Errorf("failed to load deck words: %w", err)
		}

		maxPos, err := cards.MaxPosition(ctx, deckID)
		if err != nil {
			return fmt.Errorf("failed to load deck positions: %w", err)
		}
		nextPos := maxPos + 1

		for _, row := range rows {
			if _, ok := existing[row.Word]; ok {
				result.Skipped++
				continue
			}

			card := &domain.Card{
				ID:              uuid.New(),
				Language:        deck.Language,
				Word:            row.Word,
				Translation:     row.Translation,
				ContextSentence: row.Context,
				FrequencyRank:   row.Rank,
				CreatedBy:       userID,
				CreatedAt:       now,
			}
			if err := cards.Create(ctx, card); err != nil {
				return fmt.Errorf("failed to create card %q: %w", row.Word, err)
			}
			result.Created++

			if err := cards.AddToDeck(ctx, deckID, card.ID, nextPos); err != nil {
				return fmt.Errorf("failed to attach card %q: %w", row.Word, err)
			}
			result.Attached++
			nextPos++

			// Guard against duplicate words within the upload itself.
			existing[row.Word] = struct{}{}
		}

		// Cached counts are stale now; clear the stamp so the next library
		// listing recomputes them.
		if ud, err := userDecks.GetForUpdate(ctx, userID, deckID); err == nil {
			ud.CachedAt = nil
			if err := userDecks.Update(ctx, ud); err != nil {
				return fmt.Errorf("failed to invalidate deck counts: %w", err)
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("csv import completed",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// ExportCSV implements Service.ExportCSV.
func (s *serviceImpl) ExportCSV(ctx context.Context, deckID uuid.UUID, w io.Writer) error {
	if _, err := s.decks.GetByID(ctx, deckID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDeckNotFound
		}
		return err
	}

	entries, err := s.cards.ListDeckEntries(ctx, deckID)
	if err != nil {
		return err
	}

	rows := make([]exportRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, exportRow{
			Position:    entry.Position,
			Word:        entry.Card.Word,
			Translation: entry.Card.Translation,
			Context:     entry.Card.ContextSentence,
		})
	}

	return writeCSV(w, rows)
}
