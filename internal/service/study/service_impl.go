package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/domain/srs"
	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	decks      store.DeckStore
	cards      store.CardStore
	progress   store.ProgressStore
	sessions   store.SessionStore
	userDecks  store.UserDeckStore
	reviewLogs store.ReviewLogStore
	scheduler  srs.Service
	logger     *slog.Logger

	// runTx executes one operation's mutations as a single atomic unit.
	runTx func(ctx context.Context, fn store.TxFn) error

	// timeFunc is the injected clock; each operation reads it exactly once.
	timeFunc func() time.Time
}

// NewService creates a study Service backed by the given database and stores.
func NewService(
	db *sql.DB,
	decks store.DeckStore,
	cards store.CardStore,
	progress store.ProgressStore,
	sessions store.SessionStore,
	userDecks store.UserDeckStore,
	reviewLogs store.ReviewLogStore,
	scheduler srs.Service,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if decks == nil || cards == nil || progress == nil || sessions == nil || userDecks == nil || reviewLogs == nil {
		panic("stores cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		decks:      decks,
		cards:      cards,
		progress:   progress,
		sessions:   sessions,
		userDecks:  userDecks,
		reviewLogs: reviewLogs,
		scheduler:  scheduler,
		logger:     log.With(slog.String("component", "study_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		timeFunc: time.Now,
	}
}

// StartSession implements Service.StartSession.
func (s *serviceImpl) StartSession(ctx context.Context, userID, deckID uuid.UUID) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	// Try to resume an existing active session first. The resume walk runs
	// in its own transaction with the session row locked, so concurrent
	// start calls serialize on it.
	var resumed *StartResult
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		resumed, err = s.resumeActive(ctx, tx, userID, deckID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resumed != nil {
		log.Debug("resumed active study session",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()),
			slog.Int("index", resumed.Card.Index))
		return resumed, nil
	}

	// No resumable session: build a fresh queue under the subscription lock.
	var result *StartResult
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = s.createSession(ctx, tx, userID, deckID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Empty {
		log.Debug("nothing to study",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
	} else {
		log.Info("study session started",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("session_id", result.Card.SessionID.String()),
			slog.Int("queue_len", result.Card.Remaining))
	}
	return result, nil
}

// resumeActive finds the user's active session for the deck and walks its
// cursor forward past card identifiers that no longer resolve, persisting
// the cursor as it skips. Returns a non-nil result when a resolvable card
// was found, or nil when a new session should be created instead.
func (s *serviceImpl) resumeActive(
	ctx context.Context,
	tx *sql.Tx,
	userID, deckID uuid.UUID,
	now time.Time,
) (*StartResult, error) {
	sessions := s.sessions.WithTx(tx)
	cards := s.cards.WithTx(tx)

	existing, err := sessions.GetActive(ctx, userID, deckID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	// Re-read under the row lock; the snapshot above was unlocked.
	locked, err := sessions.GetForUpdate(ctx, existing.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if locked.IsTerminal() {
		return nil, nil
	}

	for !locked.Exhausted() {
		cardID := locked.Queue[locked.Index]
		card, err := cards.GetByID(ctx, cardID)
		if err == nil {
			return &StartResult{
				Resumed: true,
				Card:    cardView(locked, card),
			}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve queued card: %w", err)
		}

		// Dangling reference: skip it and persist the moved cursor.
		locked.Index++
		if err := sessions.Update(ctx, locked); err != nil {
			return nil, fmt.Errorf("failed to advance past missing card: %w", err)
		}
	}

	locked.Finish(now)
	if err := sessions.Update(ctx, locked); err != nil {
		return nil, fmt.Errorf("failed to finish exhausted session: %w", err)
	}
	return nil, nil
}

// createSession builds a queue for the user and deck and, when it is not
// empty, records the new-card debit and creates the session. Runs entirely
// under the subscription row lock.
func (s *serviceImpl) createSession(
	ctx context.Context,
	tx *sql.Tx,
	userID, deckID uuid.UUID,
	now time.Time,
) (*StartResult, error) {
	cards := s.cards.WithTx(tx)
	progress := s.progress.WithTx(tx)
	sessions := s.sessions.WithTx(tx)
	userDecks := s.userDecks.WithTx(tx)

	ud, err := userDecks.GetForUpdate(ctx, userID, deckID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No subscription row: tell a missing deck apart from a deck
			// the user simply has not added.
			if _, deckErr := s.decks.WithTx(tx).GetByID(ctx, deckID); deckErr != nil {
				if errors.Is(deckErr, store.ErrNotFound) {
					return nil, ErrDeckNotFound
				}
				return nil, fmt.Errorf("failed to load deck: %w", deckErr)
			}
			return nil, ErrNotSubscribed
		}
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}

	ud.RolloverNewToday(now)

	queue, err := SelectQueue(ctx, cards, userID, deckID, QueueConfig{
		ChunkSize:     ud.ChunkSize,
		NewRatio:      ud.NewRatio,
		DailyNewLimit: ud.DailyNewLimit,
		NewToday:      ud.NewToday,
	}, now)
	if err != nil {
		return nil, err
	}

	if len(queue) == 0 {
		// Persist the day rollover even when no session is created.
		if err := userDecks.Update(ctx, ud); err != nil {
			return nil, fmt.Errorf("failed to persist day rollover: %w", err)
		}
		return &StartResult{Empty: true}, nil
	}

	seen, err := progress.ExistingCardIDs(ctx, userID, queue)
	if err != nil {
		return nil, fmt.Errorf("failed to count new cards in queue: %w", err)
	}
	newInQueue := 0
	for _, id := range queue {
		if _, ok := seen[id]; !ok {
			newInQueue++
		}
	}

	if newInQueue > 0 {
		ud.BumpNewToday(newInQueue, now)
	}
	if err := userDecks.Update(ctx, ud); err != nil {
		return nil, fmt.Errorf("failed to update subscription counters: %w", err)
	}

	session, err := domain.NewStudySession(userID, deckID, queue, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}
	if err := sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	first, err := cards.GetByID(ctx, queue[0])
	if err != nil {
		return nil, fmt.Errorf("failed to resolve first card: %w", err)
	}

	return &StartResult{Card: cardView(session, first)}, nil
}

// Grade implements Service.Grade.
func (s *serviceImpl) Grade(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	req GradeRequest,
) (*GradeResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.timeFunc().UTC()

	if req.Nonce == "" || req.Index < 0 {
		return nil, ErrInvalidGrade
	}

	var result *GradeResult
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = s.gradeLocked(ctx, tx, userID, sessionID, req, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug("grade step processed",
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID.String()),
		slog.Int("quality", req.Quality),
		slog.Bool("stale", result.Stale),
		slog.Bool("done", result.Done))
	return result, nil
}

// gradeLocked performs one grading step with the session row locked for the
// duration of the transaction. At most one submission per (index, nonce)
// pair can reach the mutation path; any other observes the rotated nonce
// and takes the no-op stale branch.
func (s *serviceImpl) gradeLocked(
	ctx context.Context,
	tx *sql.Tx,
	userID, sessionID uuid.UUID,
	req GradeRequest,
	now time.Time,
) (*GradeResult, error) {
	cards := s.cards.WithTx(tx)
	progressStore := s.progress.WithTx(tx)
	sessions := s.sessions.WithTx(tx)
	userDecks := s.userDecks.WithTx(tx)
	reviewLogs := s.reviewLogs.WithTx(tx)

	session, err := sessions.GetForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}

	if session.IsTerminal() {
		return &GradeResult{Done: true}, nil
	}

	// Replay protection: a submission must name the exact current step.
	// Anything else is a duplicate, an out-of-order retry, or a replay;
	// mutate nothing and hand back the current truth.
	if req.Index != session.Index || req.Nonce != session.CurrentNonce {
		if session.Exhausted() {
			return &GradeResult{Done: true, Stale: true}, nil
		}
		current, err := cards.GetByID(ctx, session.Queue[session.Index])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current card: %w", err)
		}
		return &GradeResult{Stale: true, Card: cardView(session, current)}, nil
	}

	if session.Exhausted() {
		return &GradeResult{Done: true}, nil
	}

	cardID := session.Queue[session.Index]
	if _, err := cards.GetByID(ctx, cardID); err != nil {
		return nil, fmt.Errorf("failed to resolve card %s: %w", cardID, err)
	}

	progress, created, err := s.getOrCreateProgress(ctx, progressStore, userID, cardID, now)
	if err != nil {
		return nil, err
	}

	updated, delta, err := s.scheduler.ApplyReview(progress, req.Quality, now)
	if err != nil {
		return nil, fmt.Errorf("failed to apply review: %w", err)
	}

	if created {
		if err := progressStore.Create(ctx, updated); err != nil {
			return nil, fmt.Errorf("failed to create progress: %w", err)
		}
	} else {
		if err := progressStore.Update(ctx, updated); err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
	}

	dueBefore := delta.DueBefore
	entry := &domain.ReviewLog{
		ID:             uuid.New(),
		SessionID:      session.ID,
		UserID:         userID,
		DeckID:         session.DeckID,
		CardID:         cardID,
		Quality:        clampQuality(req.Quality),
		ReviewedAt:     now,
		DueBefore:      &dueBefore,
		DueAfter:       delta.DueAfter,
		EaseBefore:     delta.EaseBefore,
		EaseAfter:      delta.EaseAfter,
		IntervalBefore: delta.IntervalBefore,
		IntervalAfter:  delta.IntervalAfter,
	}
	if err := reviewLogs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append review log: %w", err)
	}

	ud, err := userDecks.GetForUpdate(ctx, userID, session.DeckID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotSubscribed
		}
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	ud.BumpReviews(1, now)

	session.Index++
	if session.Exhausted() {
		session.Finish(now)
		if err := sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to finish session: %w", err)
		}

		due, newCount, total, err := cards.CountDueNewTotal(ctx, userID, session.DeckID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to recompute deck counts: %w", err)
		}
		ud.RefreshCounts(due, newCount, total, now)
		if err := userDecks.Update(ctx, ud); err != nil {
			return nil, fmt.Errorf("failed to update subscription counters: %w", err)
		}
		return &GradeResult{Done: true}, nil
	}

	if err := userDecks.Update(ctx, ud); err != nil {
		return nil, fmt.Errorf("failed to update subscription counters: %w", err)
	}

	session.RotateNonce()
	if err := sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}

	next, err := cards.GetByID(ctx, session.Queue[session.Index])
	if err != nil {
		return nil, fmt.Errorf("failed to resolve next card: %w", err)
	}
	return &GradeResult{Card: cardView(session, next)}, nil
}

// getOrCreateProgress loads the locked progress row for (user, card) or
// builds a default one due immediately. The created flag tells the caller
// whether to insert or update after the scheduler runs.
func (s *serviceImpl) getOrCreateProgress(
	ctx context.Context,
	progressStore store.ProgressStore,
	userID, cardID uuid.UUID,
	now time.Time,
) (*domain.CardProgress, bool, error) {
	progress, err := progressStore.GetForUpdate(ctx, userID, cardID)
	if err == nil {
		return progress, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load progress: %w", err)
	}

	progress, err = domain.NewCardProgress(userID, cardID, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build progress: %w", err)
	}
	return progress, true, nil
}

// cardView packages the session's current step for the caller.
func cardView(session *domain.StudySession, card *domain.Card) *CardView {
	return &CardView{
		SessionID: session.ID,
		Index:     session.Index,
		Nonce:     session.CurrentNonce,
		Card:      card,
		Remaining: len(session.Queue) - session.Index,
	}
}

// clampQuality forces a grade into the valid [0,5] range for logging.
func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}
