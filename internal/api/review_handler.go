package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/store"
)

// defaultHistoryLimit bounds the review history page size.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ReviewHandler serves the append-only review history.
type ReviewHandler struct {
	reviewLogs store.ReviewLogStore
	logger     *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler with the given dependencies.
func NewReviewHandler(reviewLogs store.ReviewLogStore, log *slog.Logger) *ReviewHandler {
	if reviewLogs == nil {
		panic("reviewLogs cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewHandler{
		reviewLogs: reviewLogs,
		logger:     log.With(slog.String("component", "review_handler")),
	}
}

// ListReviews handles GET /reviews?deck_id=...&limit=...
// Returns the caller's review history, newest first.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var deckID *uuid.UUID
	if raw := r.URL.Query().Get("deck_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid deck_id")
			return
		}
		deckID = &id
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	entries, err := h.reviewLogs.ListByUser(r.Context(), userID, deckID, limit)
	if err != nil {
		log.Error("failed to list review history",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, entries)
}
