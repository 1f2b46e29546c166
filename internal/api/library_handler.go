package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/service/library"
)

// maxImportBytes caps the size of an uploaded CSV.
const maxImportBytes = 5 << 20

// LibraryHandler handles library and subscription API requests.
type LibraryHandler struct {
	libraryService library.Service
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewLibraryHandler creates a new LibraryHandler with the given dependencies.
func NewLibraryHandler(libraryService library.Service, log *slog.Logger) *LibraryHandler {
	if libraryService == nil {
		panic("libraryService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &LibraryHandler{
		libraryService: libraryService,
		validator:      validator.New(),
		logger:         log.With(slog.String("component", "library_handler")),
	}
}

// ListLibrary handles GET /library.
func (h *LibraryHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	subs, err := h.libraryService.ListLibrary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, subs)
}

// Subscribe handles POST /library/decks/{id}.
func (h *LibraryHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	ud, err := h.libraryService.Subscribe(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, ud)
}

// Unsubscribe handles DELETE /library/decks/{id}.
func (h *LibraryHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.libraryService.Unsubscribe(r.Context(), userID, deckID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateSettings handles PUT /library/decks/{id}/settings.
func (h *LibraryHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req DeckSettingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	ud, err := h.libraryService.UpdateSettings(r.Context(), userID, deckID, library.Settings{
		DailyNewLimit: req.DailyNewLimit,
		ChunkSize:     req.ChunkSize,
		NewRatio:      req.NewRatio,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, ud)
}

// ImportCSV handles POST /decks/{id}/import. The body is the raw CSV.
func (h *LibraryHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(data) > maxImportBytes {
		RespondWithError(w, r, http.StatusRequestEntityTooLarge, "CSV exceeds the size limit")
		return
	}

	result, err := h.libraryService.ImportCSV(r.Context(), userID, deckID, data)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, ImportResponse{
		Created:  result.Created,
		Attached: result.Attached,
		Skipped:  result.Skipped,
		Problems: result.Problems,
	})
}

// ExportCSV handles GET /decks/{id}/export. The response body is the CSV.
func (h *LibraryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	// Buffer the export so a failure can still produce a proper error
	// response instead of a truncated download.
	var buf bytes.Buffer
	if err := h.libraryService.ExportCSV(r.Context(), deckID, &buf); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", deckID.String()+".csv"))
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write csv export",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
	}
}
