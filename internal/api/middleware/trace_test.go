package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmccdv/parrot/internal/api/shared"
	"github.com/dmccdv/parrot/internal/platform/logger"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	sentinel := slog.New(slog.NewTextHandler(io.Discard, nil))

	var traceID string
	var hadLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		// The fallback sentinel loses when a trace-scoped logger is bound.
		hadLogger = logger.FromContextOrDefault(r.Context(), sentinel) != sentinel
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	rec := httptest.NewRecorder()
	TraceMiddleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, traceID, shared.TraceIDLength*2)
	assert.True(t, hadLogger)
}

func TestTraceMiddlewareDistinctIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[shared.GetTraceID(r.Context())] = struct{}{}
	})

	handler := TraceMiddleware(next)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Len(t, seen, 5)
}
