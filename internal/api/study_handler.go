package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/service/study"
)

// StudyHandler handles study session API requests.
type StudyHandler struct {
	studyService study.Service
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler with the given dependencies.
func NewStudyHandler(studyService study.Service, log *slog.Logger) *StudyHandler {
	if studyService == nil {
		panic("studyService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &StudyHandler{
		studyService: studyService,
		validator:    validator.New(),
		logger:       log.With(slog.String("component", "study_handler")),
	}
}

// StartSession handles POST /decks/{id}/study.
// It resumes the caller's active session for the deck or creates a new one,
// and returns the first card to show.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.studyService.StartSession(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// Grade handles POST /study/sessions/{id}/grade.
// The submission names an exact (index, nonce) step; a mismatch gets the
// session's current state back with no mutation, so retries are safe.
func (h *StudyHandler) Grade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req GradeSubmission
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.studyService.Grade(r.Context(), userID, sessionID, study.GradeRequest{
		Index:   req.Index,
		Quality: req.Quality,
		Nonce:   req.Nonce,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}
