package source

import "fmt"

// Error types for specific load failures
type (
	// NotFoundError indicates the resource does not exist
	NotFoundError struct{ Message string }
	// AuthenticationError indicates missing or rejected credentials
	AuthenticationError struct{ Message string }
	// MalformedError indicates the resource is not a readable table
	MalformedError struct{ Message string }
)

func (e NotFoundError) Error() string       { return e.Message }
func (e AuthenticationError) Error() string { return e.Message }
func (e MalformedError) Error() string      { return e.Message }

// StatusError is an unexpected HTTP status from a remote source.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// LoadError wraps the reason a locator could not be loaded.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Locator, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
