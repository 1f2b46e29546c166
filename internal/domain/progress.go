package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProgressState tracks where a card sits in a user's learning lifecycle.
type ProgressState string

// Possible progress state values
const (
	ProgressStateNew        ProgressState = "new"
	ProgressStateLearning   ProgressState = "learning"
	ProgressStateReview     ProgressState = "review"
	ProgressStateRelearning ProgressState = "relearning"
)

// AlgorithmSM2 identifies the default scheduling algorithm.
const AlgorithmSM2 = "sm2"

// DefaultEase is the starting ease multiplier for a card never reviewed.
const DefaultEase = 2.5

// Common validation errors for CardProgress
var (
	ErrEmptyProgressUserID = errors.New("card progress user ID cannot be empty")
	ErrEmptyProgressCardID = errors.New("card progress card ID cannot be empty")
	ErrInvalidInterval     = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEase         = errors.New("ease must be at least 1.3")
	ErrInvalidState        = errors.New("invalid progress state")
)

// AlgoState carries algorithm-specific scheduling data. SM-2 keeps all of its
// state in the regular progress columns, so for it the struct holds only the
// version tag; future algorithms can add fields without a schema change.
type AlgoState struct {
	Version int `json:"version"`
}

// CardProgress tracks a user's spaced-repetition memory state for one card.
// There is exactly one record per (user, card) pair, created lazily the first
// time the card is graded. Only the scheduler mutates scheduling fields.
type CardProgress struct {
	UserID         uuid.UUID     `json:"user_id"`
	CardID         uuid.UUID     `json:"card_id"`
	DueAt          time.Time     `json:"due_at"`
	LastReviewedAt *time.Time    `json:"last_reviewed_at,omitempty"`
	Ease           float64       `json:"ease"`          // multiplier controlling interval growth, floor 1.3
	IntervalDays   int           `json:"interval_days"` // days until next due
	Repetitions    int           `json:"repetitions"`   // consecutive successful reviews
	Lapses         int           `json:"lapses"`        // failed review count
	State          ProgressState `json:"state"`
	Algorithm      string        `json:"algorithm"`
	AlgoState      AlgoState     `json:"algo_state"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewCardProgress creates progress for a user and card with default values:
// due immediately, default ease, state "new". now is injected by the caller
// so that session-level operations share a single clock reading.
func NewCardProgress(userID, cardID uuid.UUID, now time.Time) (*CardProgress, error) {
	progress := &CardProgress{
		UserID:    userID,
		CardID:    cardID,
		DueAt:     now,
		Ease:      DefaultEase,
		State:     ProgressStateNew,
		Algorithm: AlgorithmSM2,
		AlgoState: AlgoState{Version: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the CardProgress has valid data.
// Returns an error if any field fails validation.
func (p *CardProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.CardID == uuid.Nil {
		return ErrEmptyProgressCardID
	}

	if p.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if p.Ease < 1.3 {
		return ErrInvalidEase
	}

	switch p.State {
	case ProgressStateNew, ProgressStateLearning, ProgressStateReview, ProgressStateRelearning:
	default:
		return ErrInvalidState
	}

	return nil
}

// IsNew reports whether the card has never been reviewed.
func (p *CardProgress) IsNew() bool {
	return p.LastReviewedAt == nil
}
