package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCardProgress(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	now := time.Now().UTC()

	progress, err := NewCardProgress(userID, cardID, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !progress.DueAt.Equal(now) {
		t.Error("Expected a new card to be due immediately")
	}
	if progress.Ease != DefaultEase {
		t.Errorf("Expected ease %v, got %v", DefaultEase, progress.Ease)
	}
	if progress.State != ProgressStateNew {
		t.Errorf("Expected state %q, got %q", ProgressStateNew, progress.State)
	}
	if progress.Algorithm != AlgorithmSM2 {
		t.Errorf("Expected algorithm %q, got %q", AlgorithmSM2, progress.Algorithm)
	}
	if !progress.IsNew() {
		t.Error("Expected IsNew before any review")
	}

	if _, err := NewCardProgress(uuid.Nil, cardID, now); err != ErrEmptyProgressUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyProgressUserID, err)
	}
	if _, err := NewCardProgress(userID, uuid.Nil, now); err != ErrEmptyProgressCardID {
		t.Errorf("Expected error %v, got %v", ErrEmptyProgressCardID, err)
	}
}

func TestCardProgressValidate(t *testing.T) {
	now := time.Now().UTC()
	progress, err := NewCardProgress(uuid.New(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	progress.IntervalDays = -1
	if err := progress.Validate(); err != ErrInvalidInterval {
		t.Errorf("Expected error %v, got %v", ErrInvalidInterval, err)
	}

	progress.IntervalDays = 0
	progress.Ease = 1.2
	if err := progress.Validate(); err != ErrInvalidEase {
		t.Errorf("Expected error %v, got %v", ErrInvalidEase, err)
	}

	progress.Ease = 1.3
	progress.State = "forgotten"
	if err := progress.Validate(); err != ErrInvalidState {
		t.Errorf("Expected error %v, got %v", ErrInvalidState, err)
	}

	progress.State = ProgressStateRelearning
	if err := progress.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestCardProgressIsNew(t *testing.T) {
	now := time.Now().UTC()
	progress, err := NewCardProgress(uuid.New(), uuid.New(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	progress.LastReviewedAt = &now
	if progress.IsNew() {
		t.Error("Expected IsNew to be false after a review")
	}
}
