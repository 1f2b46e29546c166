package api

import (
	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GradeSubmission defines the payload for the session grading endpoint.
// Index and Nonce identify the exact step being graded; a mismatch is
// answered with the session's current state instead of an error.
type GradeSubmission struct {
	Index   int    `json:"index"   validate:"min=0"`
	Quality int    `json:"quality" validate:"min=0,max=5"`
	Nonce   string `json:"nonce"   validate:"required"`
}

// CreateDeckRequest defines the payload for the deck creation endpoint.
type CreateDeckRequest struct {
	Language    string `json:"language"    validate:"required,min=2,max=16"`
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// AddCardRequest defines the payload for the single-card creation endpoint.
type AddCardRequest struct {
	Word        string `json:"word"        validate:"required,min=1,max=200"`
	Translation string `json:"translation" validate:"max=500"`
	Context     string `json:"context"     validate:"max=2000"`
	Notes       string `json:"notes"       validate:"max=2000"`
	Rank        *int   `json:"rank,omitempty" validate:"omitempty,min=1"`
}

// DeckSettingsRequest defines the payload for the subscription settings endpoint.
type DeckSettingsRequest struct {
	DailyNewLimit int     `json:"daily_new_limit" validate:"min=0,max=200"`
	ChunkSize     int     `json:"chunk_size"      validate:"min=5,max=200"`
	NewRatio      float64 `json:"new_ratio"       validate:"min=0,max=1"`
}

// ImportResponse defines the successful response for the CSV import endpoint.
type ImportResponse struct {
	Created  int      `json:"created"`
	Attached int      `json:"attached"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}
