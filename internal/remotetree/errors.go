// Package remotetree implements core.TreeProvider over the server side of a
// sync pair: an HTTP/JSON API reached through *Client. No wire protocol is
// mandated by core itself (spec §6); this package defines one.
package remotetree

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification. Use errors.Is(err,
// remotetree.ErrNotFound) to check, regardless of how many retries happened
// first.
var (
	ErrBadRequest   = errors.New("remotetree: bad request")
	ErrUnauthorized = errors.New("remotetree: unauthorized")
	ErrForbidden    = errors.New("remotetree: forbidden")
	ErrNotFound     = errors.New("remotetree: not found")
	ErrConflict     = errors.New("remotetree: conflict")
	ErrThrottled    = errors.New("remotetree: throttled")
	ErrServerError  = errors.New("remotetree: server error")

	// ErrBulkImportUnsupported is returned by BulkImportFolder if called
	// despite SupportsBulkImport reporting false, or if the server's
	// advertised support turns out to be stale by the time the call lands.
	ErrBulkImportUnsupported = errors.New("remotetree: server does not support bulk import")

	// ErrBulkImportTooLarge is returned when a subtree exceeds the
	// provider-defined item count limit for a single bulk import call
	// (spec §6).
	ErrBulkImportTooLarge = errors.New("remotetree: subtree exceeds bulk import item limit")
)

// RemoteError wraps a sentinel error with the HTTP status code, the server's
// request id (if any), and the raw error body, mirroring the teacher's
// GraphError shape exactly.
type RemoteError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("remotetree: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("remotetree: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error. Returns nil
// for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
