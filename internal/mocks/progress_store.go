package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

type progressKey struct {
	userID uuid.UUID
	cardID uuid.UUID
}

// MockProgressStore implements store.ProgressStore for testing
type MockProgressStore struct {
	CreateFn          func(ctx context.Context, progress *domain.CardProgress) error
	GetFn             func(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)
	GetForUpdateFn    func(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)
	UpdateFn          func(ctx context.Context, progress *domain.CardProgress) error
	ExistingCardIDsFn func(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)

	Records map[progressKey]*domain.CardProgress
}

// NewMockProgressStore creates a new mock store with initialized defaults
func NewMockProgressStore() *MockProgressStore {
	return &MockProgressStore{
		Records: make(map[progressKey]*domain.CardProgress),
	}
}

// Put stores a progress record directly, bypassing Create semantics.
func (m *MockProgressStore) Put(progress *domain.CardProgress) {
	m.Records[progressKey{progress.UserID, progress.CardID}] = progress
}

// Create implements the ProgressStore interface
func (m *MockProgressStore) Create(ctx context.Context, progress *domain.CardProgress) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, progress)
	}

	key := progressKey{progress.UserID, progress.CardID}
	if _, exists := m.Records[key]; exists {
		return store.ErrDuplicate
	}
	m.Records[key] = progress
	return nil
}

// Get implements the ProgressStore interface
func (m *MockProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, cardID)
	}
	return m.get(userID, cardID)
}

// GetForUpdate implements the ProgressStore interface
func (m *MockProgressStore) GetForUpdate(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.CardProgress, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, userID, cardID)
	}
	return m.get(userID, cardID)
}

func (m *MockProgressStore) get(userID, cardID uuid.UUID) (*domain.CardProgress, error) {
	progress, exists := m.Records[progressKey{userID, cardID}]
	if !exists {
		return nil, store.ErrProgressNotFound
	}
	return progress, nil
}

// Update implements the ProgressStore interface
func (m *MockProgressStore) Update(ctx context.Context, progress *domain.CardProgress) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, progress)
	}

	key := progressKey{progress.UserID, progress.CardID}
	if _, exists := m.Records[key]; !exists {
		return store.ErrProgressNotFound
	}
	m.Records[key] = progress
	return nil
}

// ExistingCardIDs implements the ProgressStore interface
func (m *MockProgressStore) ExistingCardIDs(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
) (map[uuid.UUID]struct{}, error) {
	if m.ExistingCardIDsFn != nil {
		return m.ExistingCardIDsFn(ctx, userID, cardIDs)
	}

	existing := make(map[uuid.UUID]struct{})
	for _, cardID := range cardIDs {
		if _, ok := m.Records[progressKey{userID, cardID}]; ok {
			existing[cardID] = struct{}{}
		}
	}
	return existing, nil
}

// WithTx implements the ProgressStore interface
func (m *MockProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return m
}
