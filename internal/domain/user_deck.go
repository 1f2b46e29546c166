package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Default scheduling settings for a fresh subscription.
const (
	DefaultDailyNewLimit = 20
	DefaultChunkSize     = 20
	DefaultNewRatio      = 0.3
)

// Settings bounds enforced at the settings boundary, not inside the
// queue selector.
const (
	MinChunkSize     = 5
	MaxChunkSize     = 200
	MaxDailyNewLimit = 200
)

// Common validation errors for UserDeck
var (
	ErrEmptyUserDeckUserID = errors.New("user deck user ID cannot be empty")
	ErrEmptyUserDeckDeckID = errors.New("user deck deck ID cannot be empty")
	ErrInvalidChunkSize    = errors.New("chunk size must be between 5 and 200")
	ErrInvalidNewRatio     = errors.New("new ratio must be between 0 and 1")
	ErrInvalidDailyNew     = errors.New("daily new limit must be between 0 and 200")
)

// UserDeck is a user's subscription to a deck: their scheduling settings,
// cached aggregate counts, and running study counters. The per-day counters
// reset lazily whenever the stored date differs from the current date at the
// moment of an increment; there is no background rollover job.
type UserDeck struct {
	UserID   uuid.UUID `json:"user_id"`
	DeckID   uuid.UUID `json:"deck_id"`
	IsActive bool      `json:"is_active"`
	AddedAt  time.Time `json:"added_at"`

	DailyNewLimit int     `json:"daily_new_limit"`
	ChunkSize     int     `json:"chunk_size"`
	NewRatio      float64 `json:"new_ratio"`

	CachedDueCount    int        `json:"cached_due_count"`
	CachedNewCount    int        `json:"cached_new_count"`
	CachedTotalInDeck int        `json:"cached_total_in_deck"`
	CachedAt          *time.Time `json:"cached_at,omitempty"`

	LastStudiedAt    *time.Time `json:"last_studied_at,omitempty"`
	ReviewsToday     int        `json:"reviews_today"`
	ReviewsTodayDate *time.Time `json:"reviews_today_date,omitempty"`
	TotalReviews     int        `json:"total_reviews"`
	NewToday         int        `json:"new_today"`
	NewTodayDate     *time.Time `json:"new_today_date,omitempty"`
	TotalNewSeen     int        `json:"total_new_seen"`
}

// NewUserDeck creates a subscription with default scheduling settings.
func NewUserDeck(userID, deckID uuid.UUID, now time.Time) (*UserDeck, error) {
	ud := &UserDeck{
		UserID:        userID,
		DeckID:        deckID,
		IsActive:      true,
		AddedAt:       now,
		DailyNewLimit: DefaultDailyNewLimit,
		ChunkSize:     DefaultChunkSize,
		NewRatio:      DefaultNewRatio,
	}

	if err := ud.Validate(); err != nil {
		return nil, err
	}

	return ud, nil
}

// Validate checks if the UserDeck has valid data, including the settings
// bounds that the settings endpoint enforces.
func (ud *UserDeck) Validate() error {
	if ud.UserID == uuid.Nil {
		return ErrEmptyUserDeckUserID
	}

	if ud.DeckID == uuid.Nil {
		return ErrEmptyUserDeckDeckID
	}

	if ud.ChunkSize < MinChunkSize || ud.ChunkSize > MaxChunkSize {
		return ErrInvalidChunkSize
	}

	if ud.NewRatio < 0 || ud.NewRatio > 1 {
		return ErrInvalidNewRatio
	}

	if ud.DailyNewLimit < 0 || ud.DailyNewLimit > MaxDailyNewLimit {
		return ErrInvalidDailyNew
	}

	return nil
}

// BumpReviews applies the day-boundary rollover to the review counters and
// then adds n reviews. now is injected by the caller; the counters are reset
// first whenever the stored date is not now's calendar date, so the total
// counters stay monotonic across the rollover.
func (ud *UserDeck) BumpReviews(n int, now time.Time) {
	if !sameDate(ud.ReviewsTodayDate, now) {
		today := dateOf(now)
		ud.ReviewsTodayDate = &today
		ud.ReviewsToday = 0
	}
	ud.ReviewsToday += n
	ud.TotalReviews += n
	ud.LastStudiedAt = &now
}

// BumpNewToday applies the day-boundary rollover to the new-card counters and
// then adds n newly seen cards.
func (ud *UserDeck) BumpNewToday(n int, now time.Time) {
	ud.RolloverNewToday(now)
	ud.NewToday += n
	ud.TotalNewSeen += n
}

// RolloverNewToday resets the new-card day counter when the stored date is
// stale, without incrementing. Session start calls this before consulting
// new_today for the daily budget.
func (ud *UserDeck) RolloverNewToday(now time.Time) {
	if !sameDate(ud.NewTodayDate, now) {
		today := dateOf(now)
		ud.NewTodayDate = &today
		ud.NewToday = 0
	}
}

// RefreshCounts replaces the cached aggregate counts and stamps cached_at.
func (ud *UserDeck) RefreshCounts(due, newCount, total int, now time.Time) {
	ud.CachedDueCount = due
	ud.CachedNewCount = newCount
	ud.CachedTotalInDeck = total
	ud.CachedAt = &now
}

// sameDate reports whether the stored date matches now's calendar date.
// A nil stored date never matches, which forces the first rollover.
func sameDate(stored *time.Time, now time.Time) bool {
	if stored == nil {
		return false
	}
	y1, m1, d1 := stored.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// dateOf truncates a timestamp to its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
