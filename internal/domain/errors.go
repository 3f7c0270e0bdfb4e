package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Common domain errors.
var (
	ErrUnrecognizedRemote = errors.New("unrecognized remote URL")
	ErrNetwork            = errors.New("network request failed")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrNoCredential       = errors.New("no credential available")
	ErrTimeout            = errors.New("timeout")
	ErrAlreadyWatching    = errors.New("already checking for remote commits")
	ErrNotWatching        = errors.New("periodic checking is not active")
	ErrCheckInProgress    = errors.New("a check is already in progress")
	ErrNoRemote           = errors.New("remote not found")
	ErrNoRepository       = errors.New("no git repository found")
	ErrInvalidRef         = errors.New("invalid ref")
)

// ValidateRef rejects revision arguments git would read as an option or
// split into several arguments: empty values, a leading '-', whitespace and
// control characters.
func ValidateRef(ref string) error {
	invalid := ref == "" || strings.HasPrefix(ref, "-") ||
		strings.IndexFunc(ref, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0
	if invalid {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// CommandFailure is returned when an external command exits non-zero or
// cannot be started.
type CommandFailure struct {
	Args   []string
	Dir    string
	Stderr string
	Err    error
}

// Error implements the error interface.
func (e *CommandFailure) Error() string {
	msg := fmt.Sprintf("command %q failed", strings.Join(e.Args, " "))
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CommandFailure) Unwrap() error {
	return e.Err
}
