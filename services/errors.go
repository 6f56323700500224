package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")

	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidImage     = errors.New("invalid image")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current team")
	// ErrTeamRequired means the token names a team that no longer exists.
	ErrTeamRequired = errors.New("an existing team is required for this operation")

	ErrConflict          = errors.New("conflict")
	ErrTeamEmailConflict = errors.New("email address is already in use")
	ErrTeamNameConflict  = errors.New("a team with this name already exists in the league")
	ErrPlayerConflict    = errors.New("a player with this name and position is already registered")
)

// ValidationErrors maps a request field to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", field, v[field]))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// kindError files err under a taxonomy sentinel while keeping err's message.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func withKind(kind, err error) error {
	return &kindError{kind: kind, err: err}
}
