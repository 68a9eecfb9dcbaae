package carrier

import (
	"errors"
	"fmt"
)

// Sentinel errors for carrier operations.
var (
	// ErrNoCredentials indicates the REST client is missing the account
	// SID or auth token.
	ErrNoCredentials = errors.New("carrier: account SID and auth token are required")

	// ErrCallNotFound indicates a call lookup returned no record.
	ErrCallNotFound = errors.New("carrier: call not found")
)

// APIError represents an error response from the carrier REST API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carrier: API error (status %d): %s", e.StatusCode, e.Message)
}

// IsServerError returns true for 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
