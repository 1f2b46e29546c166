package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

// Possible session status values. Finished and abandoned are terminal.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusFinished  SessionStatus = "finished"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Common validation errors for StudySession
var (
	ErrEmptySessionID       = errors.New("session ID cannot be empty")
	ErrEmptySessionUserID   = errors.New("session user ID cannot be empty")
	ErrEmptySessionDeckID   = errors.New("session deck ID cannot be empty")
	ErrInvalidSessionCursor = errors.New("session index must be within [0, len(queue)]")
	ErrInvalidSessionStatus = errors.New("invalid session status")
)

// StudySession is one sequential walk through a fixed queue of cards.
// The cursor only moves forward, and every successful step rotates the
// nonce so that a stale or duplicated grade submission can be detected by
// simple equality checks. Sessions are never deleted; terminal rows remain
// as the audit trail.
type StudySession struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	DeckID       uuid.UUID     `json:"deck_id"`
	Status       SessionStatus `json:"status"`
	Queue        []uuid.UUID   `json:"queue"` // fixed at creation
	Index        int           `json:"index"` // 0-based cursor, monotonically increasing
	CurrentNonce string        `json:"-"`     // rotating step token, never exposed in bulk listings
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// NewStudySession creates an active session over the given queue with the
// cursor at zero and a fresh nonce.
func NewStudySession(userID, deckID uuid.UUID, queue []uuid.UUID, now time.Time) (*StudySession, error) {
	session := &StudySession{
		ID:           uuid.New(),
		UserID:       userID,
		DeckID:       deckID,
		Status:       SessionStatusActive,
		Queue:        queue,
		Index:        0,
		CurrentNonce: NewNonce(),
		StartedAt:    now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}

	if s.DeckID == uuid.Nil {
		return ErrEmptySessionDeckID
	}

	if s.Index < 0 || s.Index > len(s.Queue) {
		return ErrInvalidSessionCursor
	}

	switch s.Status {
	case SessionStatusActive, SessionStatusFinished, SessionStatusAbandoned:
	default:
		return ErrInvalidSessionStatus
	}

	return nil
}

// IsTerminal reports whether the session can no longer be graded.
func (s *StudySession) IsTerminal() bool {
	return s.Status != SessionStatusActive
}

// Exhausted reports whether the cursor has reached the end of the queue.
func (s *StudySession) Exhausted() bool {
	return s.Index >= len(s.Queue)
}

// RotateNonce replaces the current nonce with a fresh token. Called after
// every successful grading step so the previous token can never grade again.
func (s *StudySession) RotateNonce() {
	s.CurrentNonce = NewNonce()
}

// Finish marks the session finished and stamps the completion time.
func (s *StudySession) Finish(now time.Time) {
	s.Status = SessionStatusFinished
	s.FinishedAt = &now
}

// NewNonce returns a fresh single-use step token. A random UUIDv4 carries
// 122 bits of entropy, enough that a token can never be guessed or reused
// across steps.
func NewNonce() string {
	return uuid.NewString()
}
