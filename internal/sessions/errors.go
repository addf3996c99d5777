package sessions

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicate indicates a session with the given id already exists.
	ErrDuplicate = errors.New("session already exists")
	// ErrInvalidUpload indicates a malformed or unreadable upload request.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrFileTooLarge indicates the uploaded file exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps session errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
