package study

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/domain/srs"
	"github.com/dmccdv/parrot/internal/mocks"
	"github.com/dmccdv/parrot/internal/store"
)

// testFixture bundles a service wired to mock stores. The transaction runner
// is replaced with a passthrough so the mocks see every call directly.
type testFixture struct {
	svc        *serviceImpl
	decks      *mocks.MockDeckStore
	cards      *mocks.MockCardStore
	progress   *mocks.MockProgressStore
	sessions   *mocks.MockSessionStore
	userDecks  *mocks.MockUserDeckStore
	reviewLogs *mocks.MockReviewLogStore
	now        time.Time
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		decks:      mocks.NewMockDeckStore(),
		cards:      mocks.NewMockCardStore(),
		progress:   mocks.NewMockProgressStore(),
		sessions:   mocks.NewMockSessionStore(),
		userDecks:  mocks.NewMockUserDeckStore(),
		reviewLogs: mocks.NewMockReviewLogStore(),
		now:        time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
	f.svc = &serviceImpl{
		decks:      f.decks,
		cards:      f.cards,
		progress:   f.progress,
		sessions:   f.sessions,
		userDecks:  f.userDecks,
		reviewLogs: f.reviewLogs,
		scheduler:  srs.NewDefaultService(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
		timeFunc: func() time.Time { return f.now },
	}
	return f
}

func (f *testFixture) addCard(t *testing.T, deckID uuid.UUID, word string, position int) *domain.Card {
	t.Helper()
	card, err := domain.NewCard("no", word, word+" (en)", uuid.New())
	require.NoError(t, err)
	f.cards.AddCard(deckID, card, position)
	return card
}

func (f *testFixture) addDeck(t *testing.T, deckID uuid.UUID) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck("no", "Norwegian 1k", "core vocabulary", uuid.New())
	require.NoError(t, err)
	deck.ID = deckID
	f.decks.Decks[deck.ID] = deck
	return deck
}

func (f *testFixture) subscribe(t *testing.T, userID, deckID uuid.UUID) *domain.UserDeck {
	t.Helper()
	ud, err := domain.NewUserDeck(userID, deckID, f.now)
	require.NoError(t, err)
	f.userDecks.Put(ud)
	return ud
}

func (f *testFixture) activeSession(t *testing.T, userID, deckID uuid.UUID, queue []uuid.UUID) *domain.StudySession {
	t.Helper()
	session, err := domain.NewStudySession(userID, deckID, queue, f.now)
	require.NoError(t, err)
	f.sessions.Sessions[session.ID] = session
	return session
}

func TestStartSessionNotSubscribed(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	deckID := uuid.New()
	f.addDeck(t, deckID)

	_, err := f.svc.StartSession(context.Background(), uuid.New(), deckID)
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestStartSessionUnknownDeck(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)

	_, err := f.svc.StartSession(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestStartSessionEmptyDeck(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.Nil(t, result.Card)

	// The day rollover still lands even without a session.
	ud, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	require.NotNil(t, ud.NewTodayDate)
}

func TestStartSessionBuildsQueueAndDebitsNewBudget(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	dueCard := f.addCard(t, deckID, "hund", 1)
	newCard := f.addCard(t, deckID, "katt", 2)

	f.cards.DueCardIDsFn = func(ctx context.Context, u, d uuid.UUID, now time.Time, limit int) ([]uuid.UUID, error) {
		return []uuid.UUID{dueCard.ID}, nil
	}
	f.cards.NewCardIDsFn = func(ctx context.Context, u, d uuid.UUID, limit int) ([]uuid.UUID, error) {
		return []uuid.UUID{newCard.ID}, nil
	}

	// The due card already has progress; only the other counts as new.
	dueProgress, err := domain.NewCardProgress(userID, dueCard.ID, f.now.AddDate(0, 0, -3))
	require.NoError(t, err)
	f.progress.Put(dueProgress)

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)

	require.NotNil(t, result.Card)
	assert.False(t, result.Resumed)
	assert.Equal(t, dueCard.ID, result.Card.Card.ID, "due card leads the queue")
	assert.Equal(t, 0, result.Card.Index)
	assert.Equal(t, 2, result.Card.Remaining)
	assert.NotEmpty(t, result.Card.Nonce)

	ud, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, ud.NewToday)
	assert.Equal(t, 1, ud.TotalNewSeen)

	created, err := f.sessions.GetForUpdate(context.Background(), result.Card.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dueCard.ID, newCard.ID}, created.Queue)
	assert.Equal(t, domain.SessionStatusActive, created.Status)
}

func TestStartSessionResumesActive(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	first := f.addCard(t, deckID, "hund", 1)
	second := f.addCard(t, deckID, "katt", 2)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{first.ID, second.ID})
	session.Index = 1

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)

	assert.True(t, result.Resumed)
	require.NotNil(t, result.Card)
	assert.Equal(t, session.ID, result.Card.SessionID)
	assert.Equal(t, second.ID, result.Card.Card.ID)
	assert.Equal(t, 1, result.Card.Index)
	assert.Equal(t, session.CurrentNonce, result.Card.Nonce, "resume must not rotate the nonce")
	assert.Equal(t, 1, result.Card.Remaining)
}

func TestStartSessionResumeSkipsDanglingCards(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	deleted := uuid.New() // never stored
	surviving := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{deleted, surviving.ID})

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)

	assert.True(t, result.Resumed)
	assert.Equal(t, surviving.ID, result.Card.Card.ID)
	assert.Equal(t, 1, result.Card.Index, "cursor moved past the dangling reference")
	assert.Equal(t, 1, session.Index)
	assert.GreaterOrEqual(t, f.sessions.UpdateCalls, 1, "each skip persists the cursor")
}

func TestStartSessionResumeExhaustedByDanglingCards(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	// Every queued card is gone; the resume walk must finish the session and
	// fall through to creating a fresh (here: empty) one.
	session := f.activeSession(t, userID, deckID, []uuid.UUID{uuid.New(), uuid.New()})

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)

	assert.True(t, result.Empty)
	assert.Equal(t, domain.SessionStatusFinished, session.Status)
	require.NotNil(t, session.FinishedAt)
}

func TestGradeValidation(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)

	_, err := f.svc.Grade(context.Background(), uuid.New(), uuid.New(), GradeRequest{Index: 0, Quality: 4, Nonce: ""})
	assert.ErrorIs(t, err, ErrInvalidGrade)

	_, err = f.svc.Grade(context.Background(), uuid.New(), uuid.New(), GradeRequest{Index: -1, Quality: 4, Nonce: "n"})
	assert.ErrorIs(t, err, ErrInvalidGrade)
}

func TestGradeSessionNotFound(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)

	_, err := f.svc.Grade(context.Background(), uuid.New(), uuid.New(), GradeRequest{Index: 0, Quality: 4, Nonce: "n"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGradeSessionNotOwned(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})

	_, err := f.svc.Grade(context.Background(), uuid.New(), session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: session.CurrentNonce,
	})
	assert.ErrorIs(t, err, ErrSessionNotOwned)
}

func TestGradeAdvancesAndRotatesNonce(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	first := f.addCard(t, deckID, "hund", 1)
	second := f.addCard(t, deckID, "katt", 2)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{first.ID, second.ID})
	originalNonce := session.CurrentNonce

	result, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: originalNonce,
	})
	require.NoError(t, err)

	assert.False(t, result.Done)
	assert.False(t, result.Stale)
	require.NotNil(t, result.Card)
	assert.Equal(t, second.ID, result.Card.Card.ID)
	assert.Equal(t, 1, result.Card.Index)
	assert.NotEqual(t, originalNonce, result.Card.Nonce, "successful grade rotates the nonce")

	// Progress was created lazily and scheduled by SM-2.
	progress, err := f.progress.Get(context.Background(), userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Repetitions)
	assert.Equal(t, 1, progress.IntervalDays)
	assert.Equal(t, f.now.AddDate(0, 0, 1), progress.DueAt)

	// The review landed in the log and on the subscription counters.
	require.Len(t, f.reviewLogs.Logs, 1)
	entry := f.reviewLogs.Logs[0]
	assert.Equal(t, session.ID, entry.SessionID)
	assert.Equal(t, first.ID, entry.CardID)
	assert.Equal(t, 4, entry.Quality)

	ud, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, ud.ReviewsToday)
	assert.Equal(t, 1, ud.TotalReviews)
	require.NotNil(t, ud.LastStudiedAt)
}

func TestGradeStaleSubmissionMutatesNothing(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	first := f.addCard(t, deckID, "hund", 1)
	second := f.addCard(t, deckID, "katt", 2)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{first.ID, second.ID})
	originalNonce := session.CurrentNonce

	// First submission succeeds and rotates the nonce.
	_, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: originalNonce,
	})
	require.NoError(t, err)

	// Replaying the same (index, nonce) pair is a no-op that returns the
	// current step.
	replay, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 1, Nonce: originalNonce,
	})
	require.NoError(t, err)

	assert.True(t, replay.Stale)
	assert.False(t, replay.Done)
	require.NotNil(t, replay.Card)
	assert.Equal(t, second.ID, replay.Card.Card.ID, "stale response shows the current card")
	assert.Equal(t, 1, replay.Card.Index)

	// No second review log, no counter change, no progress regression.
	assert.Len(t, f.reviewLogs.Logs, 1)
	ud, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, ud.TotalReviews)

	progress, err := f.progress.Get(context.Background(), userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Repetitions, "replayed failing grade must not reset progress")
}

func TestGradeWrongNonceIsStale(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})

	result, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: "forged",
	})
	require.NoError(t, err)

	assert.True(t, result.Stale)
	require.NotNil(t, result.Card)
	assert.Equal(t, card.ID, result.Card.Card.ID)
	assert.Empty(t, f.reviewLogs.Logs)
}

func TestGradeLastCardFinishesSession(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})

	f.cards.CountDueNewTotalFn = func(ctx context.Context, u, d uuid.UUID, now time.Time) (int, int, int, error) {
		return 2, 3, 10, nil
	}

	result, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 5, Nonce: session.CurrentNonce,
	})
	require.NoError(t, err)

	assert.True(t, result.Done)
	assert.Nil(t, result.Card)
	assert.Equal(t, domain.SessionStatusFinished, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Equal(t, f.now, *session.FinishedAt)

	// Finishing refreshes the cached deck counts.
	ud, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 2, ud.CachedDueCount)
	assert.Equal(t, 3, ud.CachedNewCount)
	assert.Equal(t, 10, ud.CachedTotalInDeck)
	require.NotNil(t, ud.CachedAt)
}

func TestGradeFinishedSessionReportsDone(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})
	session.Finish(f.now)

	result, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: session.CurrentNonce,
	})
	require.NoError(t, err)

	assert.True(t, result.Done)
	assert.Empty(t, f.reviewLogs.Logs)
}

func TestGradeFailureSchedulesRelearning(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	f.subscribe(t, userID, deckID)

	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})

	// Mature progress that is about to lapse.
	existing, err := domain.NewCardProgress(userID, card.ID, f.now.AddDate(0, 0, -30))
	require.NoError(t, err)
	existing.Repetitions = 4
	existing.IntervalDays = 30
	existing.State = domain.ProgressStateReview
	f.progress.Put(existing)

	result, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 1, Nonce: session.CurrentNonce,
	})
	require.NoError(t, err)
	assert.True(t, result.Done)

	progress, err := f.progress.Get(context.Background(), userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Repetitions)
	assert.Equal(t, 1, progress.IntervalDays)
	assert.Equal(t, 1, progress.Lapses)
	assert.Equal(t, domain.ProgressStateRelearning, progress.State)

	require.Len(t, f.reviewLogs.Logs, 1)
	entry := f.reviewLogs.Logs[0]
	assert.Equal(t, 30, entry.IntervalBefore)
	assert.Equal(t, 1, entry.IntervalAfter)
	require.NotNil(t, entry.DueBefore)
}

func TestGradeRollsReviewCountersAcrossDays(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	ud := f.subscribe(t, userID, deckID)

	// Counters stamped yesterday must reset before today's review counts.
	yesterday := f.now.AddDate(0, 0, -1)
	ud.ReviewsToday = 7
	ud.ReviewsTodayDate = &yesterday
	ud.TotalReviews = 40

	card := f.addCard(t, deckID, "hund", 1)
	session := f.activeSession(t, userID, deckID, []uuid.UUID{card.ID})

	_, err := f.svc.Grade(context.Background(), userID, session.ID, GradeRequest{
		Index: 0, Quality: 4, Nonce: session.CurrentNonce,
	})
	require.NoError(t, err)

	got, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewsToday, "yesterday's counter resets before today's bump")
	assert.Equal(t, 41, got.TotalReviews, "the total is monotonic across the rollover")
}

func TestStartSessionRollsNewBudgetAcrossDays(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	userID := uuid.New()
	deckID := uuid.New()
	ud := f.subscribe(t, userID, deckID)

	// The daily new budget was exhausted yesterday; a new day restores it.
	yesterday := f.now.AddDate(0, 0, -1)
	ud.DailyNewLimit = 2
	ud.NewToday = 2
	ud.NewTodayDate = &yesterday

	newCard := f.addCard(t, deckID, "hund", 1)
	f.cards.NewCardIDsFn = func(ctx context.Context, u, d uuid.UUID, limit int) ([]uuid.UUID, error) {
		require.Positive(t, limit, "yesterday's spent budget must not carry over")
		return []uuid.UUID{newCard.ID}, nil
	}

	result, err := f.svc.StartSession(context.Background(), userID, deckID)
	require.NoError(t, err)
	require.NotNil(t, result.Card)
	assert.Equal(t, newCard.ID, result.Card.Card.ID)

	got, err := f.userDecks.Get(context.Background(), userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NewToday)
}

func TestNewServicePanicsOnNilDependencies(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewService(nil, mocks.NewMockDeckStore(), mocks.NewMockCardStore(),
			mocks.NewMockProgressStore(), mocks.NewMockSessionStore(),
			mocks.NewMockUserDeckStore(), mocks.NewMockReviewLogStore(),
			srs.NewDefaultService(), nil)
	})

	assert.Panics(t, func() {
		NewService(&sql.DB{}, mocks.NewMockDeckStore(), nil,
			mocks.NewMockProgressStore(), mocks.NewMockSessionStore(),
			mocks.NewMockUserDeckStore(), mocks.NewMockReviewLogStore(),
			srs.NewDefaultService(), nil)
	})
}
