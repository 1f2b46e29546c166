// Package study implements the study-session core: queue selection, the
// session state machine with its replay protection, and the wiring of the
// SM-2 scheduler into graded reviews.
package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
)

// CardView is one step of a session as presented to the caller: the card to
// show plus the (index, nonce) pair the caller must echo back when grading it.
type CardView struct {
	SessionID uuid.UUID    `json:"session_id"`
	Index     int          `json:"index"`
	Nonce     string       `json:"nonce"`
	Card      *domain.Card `json:"card"`
	Remaining int          `json:"remaining"` // cards left in the queue, current one included
}

// StartResult is the outcome of starting or resuming a session.
// Empty means there was nothing to study and no session was created.
type StartResult struct {
	Empty   bool      `json:"empty"`
	Resumed bool      `json:"resumed"`
	Card    *CardView `json:"card,omitempty"`
}

// GradeRequest is one grading step submission. Quality outside [0,5] is
// clamped by the scheduler; Nonce must match the session's current token.
type GradeRequest struct {
	Index   int    `json:"index"`
	Quality int    `json:"quality"`
	Nonce   string `json:"nonce"`
}

// GradeResult is the outcome of a grading step. Stale marks a submission
// whose (index, nonce) did not match the session's current step: nothing was
// mutated and the view reflects the session's current truth, letting a
// retrying client re-sync.
type GradeResult struct {
	Done  bool      `json:"done"`
	Stale bool      `json:"stale"`
	Card  *CardView `json:"card,omitempty"`
}

// Service orchestrates study sessions. All mutating operations run inside a
// single transaction holding row locks on the session and subscription rows,
// so two concurrent submissions for the same step result in exactly one
// mutation; the loser observes the post-mutation state through the nonce
// mismatch path.
type Service interface {
	// StartSession resumes the user's active session for the deck if one
	// exists, lazily finishing it when its queue is exhausted or no longer
	// resolvable, and otherwise builds a fresh queue and creates a new
	// session. Returns an Empty result when there is nothing to study.
	//
	// Returns ErrDeckNotFound or ErrNotSubscribed when the deck or the
	// user's subscription is missing.
	StartSession(ctx context.Context, userID, deckID uuid.UUID) (*StartResult, error)

	// Grade applies one graded review to the session's current card:
	// scheduler update, progress persistence, review log append and
	// subscription counter bump, all atomically. A stale or replayed
	// (index, nonce) pair mutates nothing and returns the current state.
	//
	// Returns ErrSessionNotFound, ErrSessionNotOwned or ErrInvalidGrade.
	Grade(ctx context.Context, userID, sessionID uuid.UUID, req GradeRequest) (*GradeResult, error)
}
