package youtube

import (
	"context"
	"errors"
	"fmt"
)

// APIError is a non-2xx upstream response, carrying the status code and the
// machine-readable reason from the error envelope when one was present.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("upstream error %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("upstream error %d: %s", e.StatusCode, e.Message)
}

// IsCredentialError reports whether err is an authorization or quota failure
// that should advance the credential pool instead of being retried.
func IsCredentialError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case 401, 403:
		return true
	}
	switch apiErr.Reason {
	case "quotaExceeded", "dailyLimitExceeded", "keyInvalid", "accessNotConfigured":
		return true
	}
	return false
}

// IsTransient reports whether err is worth retrying on the same credential:
// transport failures, rate limiting and upstream 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Anything that never produced an upstream status is a transport problem.
	return true
}
