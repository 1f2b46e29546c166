package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmccdv/parrot/internal/api"
	apimiddleware "github.com/dmccdv/parrot/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordHasher, app.passwordHasher)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	libraryHandler := api.NewLibraryHandler(app.libraryService, app.logger)
	deckHandler := api.NewDeckHandler(app.libraryService, app.deckStore, app.cardStore, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewLogStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Deck catalog
			r.Get("/decks", deckHandler.ListDecks)
			r.Post("/decks", deckHandler.CreateDeck)
			r.Get("/decks/{id}", deckHandler.GetDeck)
			r.Get("/decks/{id}/cards", deckHandler.ListDeckCards)
			r.Post("/decks/{id}/cards", deckHandler.AddCard)

			// Deck content transfer
			r.Post("/decks/{id}/import", libraryHandler.ImportCSV)
			r.Get("/decks/{id}/export", libraryHandler.ExportCSV)

			// Library and subscription settings
			r.Get("/library", libraryHandler.ListLibrary)
			r.Post("/library/decks/{id}", libraryHandler.Subscribe)
			r.Delete("/library/decks/{id}", libraryHandler.Unsubscribe)
			r.Put("/library/decks/{id}/settings", libraryHandler.UpdateSettings)

			// Study flow
			r.Post("/decks/{id}/study", studyHandler.StartSession)
			r.Post("/study/sessions/{id}/grade", studyHandler.Grade)

			// Review history
			r.Get("/reviews", reviewHandler.ListReviews)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
