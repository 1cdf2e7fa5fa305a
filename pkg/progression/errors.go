package progression

import (
	"errors"
	"fmt"
)

// Sentinel errors for the controller's local rejections. Each carries the
// fixed user-facing message surfaced by the dashboard.
var (
	ErrCycleLimitReached    = errors.New("simulation has already reached its final cycle")
	ErrAdvanceInFlight      = errors.New("a cycle advance is already in progress")
	ErrResetInFlight        = errors.New("a simulation reset is already in progress")
	ErrConfirmationRequired = errors.New("simulation reset requires explicit confirmation")
)

// APIError is a non-success response from the progression backend. The
// message is the backend's own wording, surfaced verbatim; the monitor never
// rewrites or retries it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsAPIError unwraps err into an *APIError when the failure came from the
// backend boundary.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
