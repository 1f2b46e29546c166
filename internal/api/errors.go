package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/service/auth"
	"github.com/dmccdv/parrot/internal/service/library"
	"github.com/dmccdv/parrot/internal/service/study"
	"github.com/dmccdv/parrot/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, study.ErrSessionNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrUserDeckNotFound),
		errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, library.ErrDeckNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, library.ErrWordInDeck),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, study.ErrInvalidGrade),
		errors.Is(err, study.ErrNotSubscribed),
		errors.Is(err, library.ErrNotSubscribed),
		errors.Is(err, library.ErrEmptyCSV),
		errors.Is(err, domain.ErrInvalidChunkSize),
		errors.Is(err, domain.ErrInvalidNewRatio),
		errors.Is(err, domain.ErrInvalidDailyNew),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrDeckTitleEmpty),
		errors.Is(err, domain.ErrDeckLanguageEmpty),
		errors.Is(err, domain.ErrCardWordEmpty),
		errors.Is(err, domain.ErrInvalidFrequencyRank):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	// Authorization errors
	case errors.Is(err, study.ErrSessionNotOwned):
		return "You do not own this session"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, library.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, study.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrUserDeckNotFound):
		return "Deck is not in your library"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, library.ErrWordInDeck):
		return "Word is already in the deck"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	// Bad request errors
	case errors.Is(err, study.ErrInvalidGrade):
		return "Invalid grade submission"

	case errors.Is(err, study.ErrNotSubscribed),
		errors.Is(err, library.ErrNotSubscribed):
		return "Deck is not in your library"

	case errors.Is(err, library.ErrEmptyCSV):
		return "CSV contains no importable rows"

	case errors.Is(err, domain.ErrInvalidChunkSize),
		errors.Is(err, domain.ErrInvalidNewRatio),
		errors.Is(err, domain.ErrInvalidDailyNew):
		return "Invalid deck settings"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"

	case errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be between 12 and 72 characters"

	case errors.Is(err, domain.ErrCardWordEmpty),
		errors.Is(err, domain.ErrInvalidFrequencyRank):
		return "Invalid card data"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
