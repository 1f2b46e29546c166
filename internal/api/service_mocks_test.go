package api

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/service/library"
	"github.com/dmccdv/parrot/internal/service/study"
)

// mockStudyService implements study.Service for handler tests.
type mockStudyService struct {
	StartSessionFn func(ctx context.Context, userID, deckID uuid.UUID) (*study.StartResult, error)
	GradeFn        func(ctx context.Context, userID, sessionID uuid.UUID, req study.GradeRequest) (*study.GradeResult, error)
}

func (m *mockStudyService) StartSession(ctx context.Context, userID, deckID uuid.UUID) (*study.StartResult, error) {
	if m.StartSessionFn != nil {
		return m.StartSessionFn(ctx, userID, deckID)
	}
	return &study.StartResult{Empty: true}, nil
}

func (m *mockStudyService) Grade(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	req study.GradeRequest,
) (*study.GradeResult, error) {
	if m.GradeFn != nil {
		return m.GradeFn(ctx, userID, sessionID, req)
	}
	return &study.GradeResult{Done: true}, nil
}

// mockLibraryService implements library.Service for handler tests.
type mockLibraryService struct {
	ListDecksFn      func(ctx context.Context) ([]*domain.Deck, error)
	CreateDeckFn     func(ctx context.Context, userID uuid.UUID, language, title, description string) (*domain.Deck, error)
	SubscribeFn      func(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error)
	UnsubscribeFn    func(ctx context.Context, userID, deckID uuid.UUID) error
	ListLibraryFn    func(ctx context.Context, userID uuid.UUID) ([]library.Subscription, error)
	UpdateSettingsFn func(ctx context.Context, userID, deckID uuid.UUID, settings library.Settings) (*domain.UserDeck, error)
	AddCardFn        func(ctx context.Context, userID, deckID uuid.UUID, input library.CardInput) (*domain.Card, error)
	ImportCSVFn      func(ctx context.Context, userID, deckID uuid.UUID, data []byte) (*library.ImportResult, error)
	ExportCSVFn      func(ctx context.Context, deckID uuid.UUID, w io.Writer) error
}

func (m *mockLibraryService) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	if m.ListDecksFn != nil {
		return m.ListDecksFn(ctx)
	}
	return []*domain.Deck{}, nil
}

func (m *mockLibraryService) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	language, title, description string,
) (*domain.Deck, error) {
	if m.CreateDeckFn != nil {
		return m.CreateDeckFn(ctx, userID, language, title, description)
	}
	return domain.NewDeck(language, title, description, userID)
}

func (m *mockLibraryService) Subscribe(ctx context.Context, userID, deckID uuid.UUID) (*domain.UserDeck, error) {
	if m.SubscribeFn != nil {
		return m.SubscribeFn(ctx, userID, deckID)
	}
	return nil, library.ErrDeckNotFound
}

func (m *mockLibraryService) Unsubscribe(ctx context.Context, userID, deckID uuid.UUID) error {
	if m.UnsubscribeFn != nil {
		return m.UnsubscribeFn(ctx, userID, deckID)
	}
	return library.ErrNotSubscribed
}

func (m *mockLibraryService) ListLibrary(ctx context.Context, userID uuid.UUID) ([]library.Subscription, error) {
	if m.ListLibraryFn != nil {
		return m.ListLibraryFn(ctx, userID)
	}
	return []library.Subscription{}, nil
}

func (m *mockLibraryService) UpdateSettings(
	ctx context.Context,
	userID, deckID uuid.UUID,
	settings library.Settings,
) (*domain.UserDeck, error) {
	if m.UpdateSettingsFn != nil {
		return m.UpdateSettingsFn(ctx, userID, deckID, settings)
	}
	return nil, library.ErrNotSubscribed
}

func (m *mockLibraryService) AddCard(
	ctx context.Context,
	userID, deckID uuid.UUID,
	input library.CardInput,
) (*domain.Card, error) {
	if m.AddCardFn != nil {
		return m.AddCardFn(ctx, userID, deckID, input)
	}
	return nil, library.ErrDeckNotFound
}

func (m *mockLibraryService) ImportCSV(
	ctx context.Context,
	userID, deckID uuid.UUID,
	data []byte,
) (*library.ImportResult, error) {
	if m.ImportCSVFn != nil {
		return m.ImportCSVFn(ctx, userID, deckID, data)
	}
	return &library.ImportResult{}, nil
}

func (m *mockLibraryService) ExportCSV(ctx context.Context, deckID uuid.UUID, w io.Writer) error {
	if m.ExportCSVFn != nil {
		return m.ExportCSVFn(ctx, deckID, w)
	}
	return nil
}
