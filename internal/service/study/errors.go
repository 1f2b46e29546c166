package study

import "errors"

// Common study service errors
var (
	// ErrSessionNotFound indicates that the study session does not exist.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrSessionNotOwned indicates that the session belongs to another user.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by user")

	// ErrNotSubscribed indicates that the user has no subscription for the deck.
	ErrNotSubscribed = errors.New("deck not in user's library")

	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrInvalidGrade indicates a malformed grading payload.
	ErrInvalidGrade = errors.New("invalid grade payload")
)
