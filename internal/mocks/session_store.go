package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/store"
)

// MockSessionStore implements store.SessionStore for testing
type MockSessionStore struct {
	CreateFn       func(ctx context.Context, session *domain.StudySession) error
	GetActiveFn    func(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)
	GetForUpdateFn func(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)
	UpdateFn       func(ctx context.Context, session *domain.StudySession) error

	Sessions map[uuid.UUID]*domain.StudySession
	// UpdateCalls counts Update invocations, including ones delegated to
	// UpdateFn.
	UpdateCalls int
}

// NewMockSessionStore creates a new mock store with initialized defaults
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[uuid.UUID]*domain.StudySession),
	}
}

// Create implements the SessionStore interface
func (m *MockSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, session)
	}

	m.Sessions[session.ID] = session
	return nil
}

// GetActive implements the SessionStore interface
func (m *MockSessionStore) GetActive(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, userID, deckID)
	}

	var latest *domain.StudySession
	for _, session := range m.Sessions {
		if session.UserID != userID || session.DeckID != deckID || session.IsTerminal() {
			continue
		}
		if latest == nil || session.StartedAt.After(latest.StartedAt) {
			latest = session
		}
	}
	if latest == nil {
		return nil, store.ErrSessionNotFound
	}
	return latest, nil
}

// GetForUpdate implements the SessionStore interface
func (m *MockSessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, id)
	}

	session, exists := m.Sessions[id]
	if !exists {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

// Update implements the SessionStore interface
func (m *MockSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	m.UpdateCalls++
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, session)
	}

	if _, exists := m.Sessions[session.ID]; !exists {
		return store.ErrSessionNotFound
	}
	m.Sessions[session.ID] = session
	return nil
}

// WithTx implements the SessionStore interface
func (m *MockSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return m
}
