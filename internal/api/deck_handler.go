package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dmccdv/parrot/internal/platform/logger"
	"github.com/dmccdv/parrot/internal/service/library"
	"github.com/dmccdv/parrot/internal/store"
)

// DeckHandler handles deck catalog API requests.
type DeckHandler struct {
	libraryService library.Service
	cardStore      store.CardStore
	deckStore      store.DeckStore
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewDeckHandler creates a new DeckHandler with the given dependencies.
func NewDeckHandler(
	libraryService library.Service,
	deckStore store.DeckStore,
	cardStore store.CardStore,
	log *slog.Logger,
) *DeckHandler {
	if libraryService == nil {
		panic("libraryService cannot be nil")
	}
	if deckStore == nil || cardStore == nil {
		panic("stores cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &DeckHandler{
		libraryService: libraryService,
		deckStore:      deckStore,
		cardStore:      cardStore,
		validator:      validator.New(),
		logger:         log.With(slog.String("component", "deck_handler")),
	}
}

// ListDecks handles GET /decks: the public catalog.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.libraryService.ListDecks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, decks)
}

// GetDeck handles GET /decks/{id}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	deck, err := h.deckStore.GetByID(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, deck)
}

// ListDeckCards handles GET /decks/{id}/cards.
func (h *DeckHandler) ListDeckCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if _, err := h.deckStore.GetByID(r.Context(), deckID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, err := h.cardStore.ListByDeck(r.Context(), deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, cards)
}

// AddCard handles POST /decks/{id}/cards.
func (h *DeckHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AddCardRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	card, err := h.libraryService.AddCard(r.Context(), userID, deckID, library.CardInput{
		Word:        req.Word,
		Translation: req.Translation,
		Context:     req.Context,
		Notes:       req.Notes,
		Rank:        req.Rank,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, card)
}

// CreateDeck handles POST /decks.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateDeckRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	deck, err := h.libraryService.CreateDeck(r.Context(), userID, req.Language, req.Title, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, deck)
}
