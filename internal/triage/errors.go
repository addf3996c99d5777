package triage

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/caduceus/internal/sessions"
)

var (
	// ErrModelCall indicates the language model call failed. No session
	// state is written when this is returned.
	ErrModelCall = errors.New("model call failed")
	// ErrSubmit indicates clinical submission failed.
	ErrSubmit = errors.New("fhir submission failed")
	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("invalid request")
)

// MapHTTPStatus maps triage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrModelCall), errors.Is(err, ErrSubmit):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
