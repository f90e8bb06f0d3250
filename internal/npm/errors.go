package npm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a package or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the registry answers 429.
	ErrRateLimited = errors.New("rate limited by registry")

	// ErrUpstreamDown is returned for 5xx answers, network failures and an
	// open circuit.
	ErrUpstreamDown = errors.New("registry unavailable")

	// ErrInvalidName is returned for names the registry cannot hold.
	ErrInvalidName = errors.New("invalid package name")
)

// HTTPError represents an unexpected HTTP response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// NotFoundError wraps ErrNotFound with the package and version.
type NotFoundError struct {
	Name    string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("npm: package %s version %s not found", e.Name, e.Version)
	}
	return fmt.Sprintf("npm: package %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
