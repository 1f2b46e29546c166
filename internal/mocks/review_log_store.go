package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

// MockReviewLogStore implements store.ReviewLogStore for testing
type MockReviewLogStore struct {
	CreateFn     func(ctx context.Context, log *domain.ReviewLog) error
	ListByUserFn func(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	Logs []*domain.ReviewLog
}

// NewMockReviewLogStore creates a new mock store with initialized defaults
func NewMockReviewLogStore() *MockReviewLogStore {
	return &MockReviewLogStore{}
}

// Create implements the ReviewLogStore interface
func (m *MockReviewLogStore) Create(ctx context.Context, log *domain.ReviewLog) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, log)
	}

	m.Logs = append(m.Logs, log)
	return nil
}

// ListByUser implements the ReviewLogStore interface
func (m *MockReviewLogStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	deckID *uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, deckID, limit)
	}

	logs := make([]*domain.ReviewLog, 0)
	for _, log := range m.Logs {
		if log.UserID != userID {
			continue
		}
		if deckID != nil && log.DeckID != *deckID {
			continue
		}
		logs = append(logs, log)
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}

// WithTx implements the ReviewLogStore interface
func (m *MockReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return m
}
