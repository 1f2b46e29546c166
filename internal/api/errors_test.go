package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmccdv/parrot/internal/service/auth"
	"github.com/dmccdv/parrot/internal/service/library"
	"github.com/dmccdv/parrot/internal/service/study"
	"github.com/dmccdv/parrot/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"session not owned", study.ErrSessionNotOwned, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"deck not found", store.ErrDeckNotFound, http.StatusNotFound},
		{"library deck not found", library.ErrDeckNotFound, http.StatusNotFound},
		{"session not found", study.ErrSessionNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid grade", study.ErrInvalidGrade, http.StatusBadRequest},
		{"not subscribed", study.ErrNotSubscribed, http.StatusBadRequest},
		{"empty csv", library.ErrEmptyCSV, http.StatusBadRequest},
		{"unknown error", errors.New("database exploded"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("outer: %w", store.ErrCardNotFound), http.StatusNotFound},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	// Internal details must never leak into client-facing messages.
	leaky := errors.New("pq: connection to host 10.0.0.5 failed, password=hunter2")
	msg := GetSafeErrorMessage(leaky)
	assert.NotContains(t, msg, "10.0.0.5")
	assert.NotContains(t, msg, "hunter2")

	assert.Equal(t, "Invalid email or password", GetSafeErrorMessage(auth.ErrInvalidCredentials))
	assert.Equal(t, "Deck not found", GetSafeErrorMessage(store.ErrDeckNotFound))
	assert.Equal(t, "Deck not found", GetSafeErrorMessage(library.ErrDeckNotFound))
	assert.Equal(t, "Session not found", GetSafeErrorMessage(study.ErrSessionNotFound))
	assert.NotEmpty(t, GetSafeErrorMessage(nil))

	// Wrapping preserves the mapping.
	wrapped := fmt.Errorf("grading failed: %w", study.ErrSessionNotOwned)
	assert.Equal(t, "You do not own this session", GetSafeErrorMessage(wrapped))
}
