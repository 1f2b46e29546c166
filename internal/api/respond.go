package api

import (
	"errors"
	"net/http"

	"github.com/dmccdv/parrot/internal/api/shared"
	"github.com/dmccdv/parrot/internal/domain"
)

// Package-level aliases so handlers read without the shared qualifier.
var (
	// DecodeJSON decodes a JSON request body.
	DecodeJSON = shared.DecodeJSON

	// RespondWithJSON writes a JSON response.
	RespondWithJSON = shared.RespondWithJSON

	// RespondWithError writes a JSON error response.
	RespondWithError = shared.RespondWithError
)

// HandleAPIError maps an internal error to an HTTP status and a sanitized
// message, logs the redacted original, and writes the response. A non-empty
// overrideMessage replaces the mapped message for cases where the handler
// has a more specific phrasing.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, overrideMessage string) {
	status := MapErrorToStatusCode(err)

	// Validation sentinels map to 400 regardless of wrapping.
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidID) {
		status = http.StatusBadRequest
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		status = http.StatusUnauthorized
	}

	message := overrideMessage
	if message == "" {
		message = GetSafeErrorMessage(err)
		if status == http.StatusBadRequest && (errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidID)) {
			message = "Invalid request"
		}
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
