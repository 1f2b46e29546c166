package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmccdv/parrot/internal/api/shared"
	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/service/study"
)

// newStudyRouter builds a router with the study routes and a stub that
// injects the given user ID the way the auth middleware would.
func newStudyRouter(handler *StudyHandler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != uuid.Nil {
				ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
				req = req.WithContext(ctx)
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/decks/{id}/study", handler.StartSession)
	r.Post("/study/sessions/{id}/grade", handler.Grade)
	return r
}

func TestStartSessionEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	deckID := uuid.New()
	card := &domain.Card{ID: uuid.New(), Language: "no", Word: "hund"}

	svc := &mockStudyService{
		StartSessionFn: func(ctx context.Context, u, d uuid.UUID) (*study.StartResult, error) {
			assert.Equal(t, userID, u)
			assert.Equal(t, deckID, d)
			return &study.StartResult{
				Card: &study.CardView{
					SessionID: uuid.New(),
					Index:     0,
					Nonce:     "step-token",
					Card:      card,
					Remaining: 10,
				},
			}, nil
		},
	}
	router := newStudyRouter(NewStudyHandler(svc, nil), userID)

	req := httptest.NewRequest(http.MethodPost, "/decks/"+deckID.String()+"/study", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result study.StartResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Card)
	assert.Equal(t, "step-token", result.Card.Nonce)
	assert.Equal(t, "hund", result.Card.Card.Word)
}

func TestStartSessionEndpointEmpty(t *testing.T) {
	t.Parallel()
	router := newStudyRouter(NewStudyHandler(&mockStudyService{}, nil), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/decks/"+uuid.NewString()+"/study", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Nothing to study is a normal outcome, not an error status.
	require.Equal(t, http.StatusOK, rec.Code)

	var result study.StartResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Empty)
	assert.Nil(t, result.Card)
}

func TestStartSessionEndpointErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown deck", func(t *testing.T) {
		t.Parallel()
		svc := &mockStudyService{
			StartSessionFn: func(ctx context.Context, u, d uuid.UUID) (*study.StartResult, error) {
				return nil, study.ErrDeckNotFound
			},
		}
		router := newStudyRouter(NewStudyHandler(svc, nil), uuid.New())

		req := httptest.NewRequest(http.MethodPost, "/decks/"+uuid.NewString()+"/study", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not subscribed", func(t *testing.T) {
		t.Parallel()
		svc := &mockStudyService{
			StartSessionFn: func(ctx context.Context, u, d uuid.UUID) (*study.StartResult, error) {
				return nil, study.ErrNotSubscribed
			},
		}
		router := newStudyRouter(NewStudyHandler(svc, nil), uuid.New())

		req := httptest.NewRequest(http.MethodPost, "/decks/"+uuid.NewString()+"/study", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing authentication", func(t *testing.T) {
		t.Parallel()
		router := newStudyRouter(NewStudyHandler(&mockStudyService{}, nil), uuid.Nil)

		req := httptest.NewRequest(http.MethodPost, "/decks/"+uuid.NewString()+"/study", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed deck id", func(t *testing.T) {
		t.Parallel()
		router := newStudyRouter(NewStudyHandler(&mockStudyService{}, nil), uuid.New())

		req := httptest.NewRequest(http.MethodPost, "/decks/not-a-uuid/study", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGradeEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("valid submission", func(t *testing.T) {
		t.Parallel()
		svc := &mockStudyService{
			GradeFn: func(ctx context.Context, u, s uuid.UUID, req study.GradeRequest) (*study.GradeResult, error) {
				assert.Equal(t, userID, u)
				assert.Equal(t, sessionID, s)
				assert.Equal(t, 2, req.Index)
				assert.Equal(t, 4, req.Quality)
				assert.Equal(t, "step-token", req.Nonce)
				return &study.GradeResult{Done: true}, nil
			},
		}
		router := newStudyRouter(NewStudyHandler(svc, nil), userID)

		body, _ := json.Marshal(GradeSubmission{Index: 2, Quality: 4, Nonce: "step-token"})
		req := httptest.NewRequest(http.MethodPost, "/study/sessions/"+sessionID.String()+"/grade", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var result study.GradeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Done)
	})

	t.Run("missing nonce fails validation", func(t *testing.T) {
		t.Parallel()
		router := newStudyRouter(NewStudyHandler(&mockStudyService{}, nil), userID)

		req := httptest.NewRequest(http.MethodPost, "/study/sessions/"+sessionID.String()+"/grade",
			bytes.NewReader([]byte(`{"index": 0, "quality": 4}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("quality out of range fails validation", func(t *testing.T) {
		t.Parallel()
		router := newStudyRouter(NewStudyHandler(&mockStudyService{}, nil), userID)

		req := httptest.NewRequest(http.MethodPost, "/study/sessions/"+sessionID.String()+"/grade",
			bytes.NewReader([]byte(`{"index": 0, "quality": 9, "nonce": "n"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign session", func(t *testing.T) {
		t.Parallel()
		svc := &mockStudyService{
			GradeFn: func(ctx context.Context, u, s uuid.UUID, req study.GradeRequest) (*study.GradeResult, error) {
				return nil, study.ErrSessionNotOwned
			},
		}
		router := newStudyRouter(NewStudyHandler(svc, nil), userID)

		body, _ := json.Marshal(GradeSubmission{Index: 0, Quality: 4, Nonce: "n"})
		req := httptest.NewRequest(http.MethodPost, "/study/sessions/"+sessionID.String()+"/grade", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		svc := &mockStudyService{
			GradeFn: func(ctx context.Context, u, s uuid.UUID, req study.GradeRequest) (*study.GradeResult, error) {
				return nil, study.ErrSessionNotFound
			},
		}
		router := newStudyRouter(NewStudyHandler(svc, nil), userID)

		body, _ := json.Marshal(GradeSubmission{Index: 0, Quality: 4, Nonce: "n"})
		req := httptest.NewRequest(http.MethodPost, "/study/sessions/"+sessionID.String()+"/grade", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
