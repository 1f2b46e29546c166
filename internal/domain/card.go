package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardWordEmpty is returned when a card's word is empty.
	ErrCardWordEmpty = errors.New("card word cannot be empty")

	// ErrCardLanguageEmpty is returned when a card's language code is empty.
	ErrCardLanguageEmpty = errors.New("card language cannot be empty")

	// ErrInvalidFrequencyRank is returned when a frequency rank is zero or negative.
	ErrInvalidFrequencyRank = errors.New("frequency rank must be positive")
)

// Card represents a single flashcard: a word in a target language together
// with its translation and optional context. Cards belong to decks through
// DeckCard membership rows and carry a frequency rank used to order
// never-studied cards when building a study queue.
type Card struct {
	ID              uuid.UUID `json:"id"`
	Language        string    `json:"language"`
	Word            string    `json:"word"`
	Translation     string    `json:"translation"`
	ContextSentence string    `json:"context_sentence"`
	Notes           string    `json:"notes"`
	FrequencyRank   *int      `json:"frequency_rank,omitempty"` // nil when unranked
	Tags            []string  `json:"tags,omitempty"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCard creates a new Card with a generated ID and creation timestamp.
// Returns an error if validation fails.
func NewCard(language, word, translation string, createdBy uuid.UUID) (*Card, error) {
	card := &Card{
		ID:          uuid.New(),
		Language:    language,
		Word:        strings.TrimSpace(word),
		Translation: strings.TrimSpace(translation),
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if strings.TrimSpace(c.Word) == "" {
		return ErrCardWordEmpty
	}

	if c.Language == "" {
		return ErrCardLanguageEmpty
	}

	if c.FrequencyRank != nil && *c.FrequencyRank < 1 {
		return ErrInvalidFrequencyRank
	}

	return nil
}

// DeckCard attaches a card to a deck at a position. Position ordering is what
// CSV export and deck management listings follow; it has no effect on study
// queue ordering.
type DeckCard struct {
	DeckID   uuid.UUID `json:"deck_id"`
	CardID   uuid.UUID `json:"card_id"`
	Position int       `json:"position"`
}
