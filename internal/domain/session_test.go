package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewStudySession(t *testing.T) {
	userID := uuid.New()
	deckID := uuid.New()
	queue := []uuid.UUID{uuid.New(), uuid.New()}
	now := time.Now().UTC()

	session, err := NewStudySession(userID, deckID, queue, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if session.ID == uuid.Nil {
		t.Error("Expected non-nil session ID")
	}
	if session.Status != SessionStatusActive {
		t.Errorf("Expected status %q, got %q", SessionStatusActive, session.Status)
	}
	if session.Index != 0 {
		t.Errorf("Expected cursor at 0, got %d", session.Index)
	}
	if session.CurrentNonce == "" {
		t.Error("Expected a fresh nonce")
	}
	if session.FinishedAt != nil {
		t.Error("Expected nil FinishedAt on a new session")
	}

	// Invalid inputs
	if _, err := NewStudySession(uuid.Nil, deckID, queue, now); err != ErrEmptySessionUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptySessionUserID, err)
	}
	if _, err := NewStudySession(userID, uuid.Nil, queue, now); err != ErrEmptySessionDeckID {
		t.Errorf("Expected error %v, got %v", ErrEmptySessionDeckID, err)
	}
}

func TestStudySessionValidate(t *testing.T) {
	session, err := NewStudySession(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	session.Index = 2 // past the end of a one-card queue
	if err := session.Validate(); err != ErrInvalidSessionCursor {
		t.Errorf("Expected error %v, got %v", ErrInvalidSessionCursor, err)
	}

	session.Index = 1 // exactly at the end is valid
	if err := session.Validate(); err != nil {
		t.Errorf("Expected no error for exhausted cursor, got %v", err)
	}

	session.Status = "paused"
	if err := session.Validate(); err != ErrInvalidSessionStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidSessionStatus, err)
	}
}

func TestStudySessionLifecycle(t *testing.T) {
	queue := []uuid.UUID{uuid.New(), uuid.New()}
	session, err := NewStudySession(uuid.New(), uuid.New(), queue, time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if session.IsTerminal() {
		t.Error("Active session must not be terminal")
	}
	if session.Exhausted() {
		t.Error("Fresh session must not be exhausted")
	}

	session.Index = len(queue)
	if !session.Exhausted() {
		t.Error("Cursor at queue end must be exhausted")
	}

	finishedAt := time.Now().UTC()
	session.Finish(finishedAt)
	if session.Status != SessionStatusFinished {
		t.Errorf("Expected status %q, got %q", SessionStatusFinished, session.Status)
	}
	if !session.IsTerminal() {
		t.Error("Finished session must be terminal")
	}
	if session.FinishedAt == nil || !session.FinishedAt.Equal(finishedAt) {
		t.Error("Expected FinishedAt to be stamped")
	}
}

func TestRotateNonce(t *testing.T) {
	session, err := NewStudySession(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	seen := map[string]bool{session.CurrentNonce: true}
	for i := 0; i < 100; i++ {
		session.RotateNonce()
		if session.CurrentNonce == "" {
			t.Fatal("Rotated nonce must not be empty")
		}
		if seen[session.CurrentNonce] {
			t.Fatal("Rotated nonce must never repeat")
		}
		seen[session.CurrentNonce] = true
	}
}
