package spotify

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/strum/internal/shared"
)

// ErrorKind classifies API failures into the taxonomy the rest of the
// application dispatches on.
type ErrorKind int

const (
	// KindUnauthorized means the session is dead: the access token was
	// rejected and the refresh attempt failed. The caller must re-authenticate.
	KindUnauthorized ErrorKind = iota

	// KindRateLimited carries a retry-after duration. The client does not
	// retry these itself; callers schedule their own backoff.
	KindRateLimited

	// KindTransient covers network failures, timeouts, and 5xx responses.
	// Retried locally a bounded number of times with exponential backoff.
	KindTransient

	// KindNotFound is non-retryable and surfaced verbatim.
	KindNotFound

	// KindInvalidRequest is non-retryable and surfaced verbatim.
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// APIError is the error type returned by every [Client] call that reaches the
// remote service. It wraps the matching sentinel from the shared package so
// callers can use [errors.Is] as well as switching on Kind.
type APIError struct {
	Kind       ErrorKind
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("spotify: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("spotify: %s (status %d)", e.Kind, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Kind {
	case KindUnauthorized:
		return shared.ErrTokenExpired
	case KindRateLimited:
		return shared.ErrRateLimited
	case KindTransient:
		return shared.ErrServiceUnavailable
	case KindNotFound:
		return shared.ErrNotFound
	default:
		return shared.ErrInvalidRequest
	}
}

// KindOf extracts the [ErrorKind] from err if it is (or wraps) an [APIError].
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// RetryAfterOf returns the retry-after hint carried by a rate-limit error, or
// zero if err is not a rate-limit error.
func RetryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited {
		return apiErr.RetryAfter
	}
	return 0
}

// classifyStatus maps an HTTP status to the error taxonomy.
func classifyStatus(status int, message string, retryAfter time.Duration) *APIError {
	apiErr := &APIError{Status: status, Message: message}

	switch {
	case status == 401:
		apiErr.Kind = KindUnauthorized
	case status == 429:
		apiErr.Kind = KindRateLimited
		apiErr.RetryAfter = retryAfter
	case status == 404:
		apiErr.Kind = KindNotFound
	case status >= 500:
		apiErr.Kind = KindTransient
	default:
		apiErr.Kind = KindInvalidRequest
	}

	return apiErr
}

// transientError wraps a network-level failure (dial error, timeout) as a
// retryable transient error.
func transientError(err error) *APIError {
	return &APIError{Kind: KindTransient, Message: err.Error()}
}

// RetryPolicy describes how a given error kind is retried: attempt count and
// backoff curve. Keeping this as a table makes the behavior testable without
// network I/O.
type RetryPolicy struct {
	Attempts int           // total attempts including the first
	Base     time.Duration // delay before the first retry
	Max      time.Duration // ceiling for the backoff curve
}

// Backoff returns the delay before the given retry (0 = first retry),
// doubling each time and capped at Max.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	d := p.Base << retry
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

var retryPolicies = map[ErrorKind]RetryPolicy{
	KindTransient:      {Attempts: 3, Base: 500 * time.Millisecond, Max: 4 * time.Second},
	KindRateLimited:    {Attempts: 1},
	KindUnauthorized:   {Attempts: 1},
	KindNotFound:       {Attempts: 1},
	KindInvalidRequest: {Attempts: 1},
}

// PolicyFor returns the retry policy for the given error kind.
func PolicyFor(kind ErrorKind) RetryPolicy {
	if p, ok := retryPolicies[kind]; ok {
		return p
	}
	return RetryPolicy{Attempts: 1}
}
