// Package apperror holds the error taxonomy shared by services and controllers.
// Services wrap one of the sentinels with context; controllers translate the
// chain into an HTTP status and a public message via Status and Message.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyOwned     = errors.New("already owned")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrPaymentProvider  = errors.New("payment provider error")
	ErrStorageProvider  = errors.New("storage provider error")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

type mapping struct {
	err     error
	status  int
	message string
}

// Order matters only for chains that wrap more than one sentinel; the first
// match wins.
var mappings = []mapping{
	{ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
	{ErrInvalidSignature, http.StatusUnauthorized, "Invalid signature"},
	{ErrUnauthenticated, http.StatusUnauthorized, "Invalid or expired token"},
	{ErrForbidden, http.StatusForbidden, "No active entitlement for this film"},
	{ErrNotFound, http.StatusNotFound, "Film not found"},
	{ErrAlreadyOwned, http.StatusBadRequest, "You already own this film"},
	{ErrInvalidArgument, http.StatusBadRequest, "Invalid request"},
	{ErrPaymentProvider, http.StatusInternalServerError, "Failed to create checkout session"},
	{ErrStorageProvider, http.StatusInternalServerError, "Failed to generate download link"},
}

// Status returns the HTTP status for err. Anything outside the taxonomy is a 500.
func Status(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err. It never includes the
// wrapped detail.
func Message(err error) string {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "Internal server error"
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	s := Status(err)
	return s >= 400 && s < 500
}
