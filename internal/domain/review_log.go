package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ReviewLog
var (
	ErrEmptyLogUserID = errors.New("review log user ID cannot be empty")
	ErrEmptyLogCardID = errors.New("review log card ID cannot be empty")
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
)

// ReviewLog is one append-only record of a graded review, with snapshots of
// the scheduling state before and after. Rows are immutable once written and
// exist for history and audit only.
type ReviewLog struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	UserID         uuid.UUID  `json:"user_id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	CardID         uuid.UUID  `json:"card_id"`
	Quality        int        `json:"quality"` // clamped to [0,5] before logging
	ReviewedAt     time.Time  `json:"reviewed_at"`
	DueBefore      *time.Time `json:"due_before,omitempty"`
	DueAfter       time.Time  `json:"due_after"`
	EaseBefore     float64    `json:"ease_before"`
	EaseAfter      float64    `json:"ease_after"`
	IntervalBefore int        `json:"interval_before"`
	IntervalAfter  int        `json:"interval_after"`
}

// Validate checks if the ReviewLog has valid data.
func (l *ReviewLog) Validate() error {
	if l.UserID == uuid.Nil {
		return ErrEmptyLogUserID
	}

	if l.CardID == uuid.Nil {
		return ErrEmptyLogCardID
	}

	if l.Quality < 0 || l.Quality > 5 {
		return ErrInvalidQuality
	}

	return nil
}
