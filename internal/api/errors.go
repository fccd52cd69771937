package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrLoginRequired means no credential is stored; the user must log in
	ErrLoginRequired = errors.New("login required")

	// ErrSessionExpired means the credential was rejected and could not be
	// refreshed; it has been cleared
	ErrSessionExpired = errors.New("session expired")
)

// StatusError is a non-2xx response from the backend
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:197] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// IsAuthFailure reports whether err ends the login: missing or expired credentials
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrLoginRequired) || errors.Is(err, ErrSessionExpired)
}

// expiredError wraps the cause of a forced logout
type expiredError struct {
	cause error
}

func (e *expiredError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSessionExpired, e.cause)
}

func (e *expiredError) Is(target error) bool {
	return target == ErrSessionExpired
}

func (e *expiredError) Unwrap() error {
	return e.cause
}
