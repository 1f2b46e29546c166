package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	ErrDeckIDEmpty       = errors.New("deck ID cannot be empty")
	ErrDeckTitleEmpty    = errors.New("deck title cannot be empty")
	ErrDeckLanguageEmpty = errors.New("deck language cannot be empty")
)

// Deck is a named collection of cards in one language. Decks are shared
// content: users subscribe to a deck through a UserDeck row, which carries
// their personal scheduling settings and counters.
type Deck struct {
	ID          uuid.UUID `json:"id"`
	Language    string    `json:"language"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	IsGenerated bool      `json:"is_generated"`
	Source      string    `json:"source"`
	Version     string    `json:"version"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDeck creates a new Deck with a generated ID and creation timestamp.
// Returns an error if validation fails.
func NewDeck(language, title, description string, createdBy uuid.UUID) (*Deck, error) {
	deck := &Deck{
		ID:          uuid.New(),
		Language:    language,
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if strings.TrimSpace(d.Title) == "" {
		return ErrDeckTitleEmpty
	}

	if d.Language == "" {
		return ErrDeckLanguageEmpty
	}

	return nil
}
