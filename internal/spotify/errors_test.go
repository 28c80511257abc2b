package spotify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/shared"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{401, KindUnauthorized},
		{429, KindRateLimited},
		{404, KindNotFound},
		{500, KindTransient},
		{502, KindTransient},
		{503, KindTransient},
		{400, KindInvalidRequest},
		{403, KindInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			apiErr := classifyStatus(tc.status, "", 0)
			if apiErr.Kind != tc.want {
				t.Errorf("expected %s, got %s", tc.want, apiErr.Kind)
			}
		})
	}

	t.Run("rate limit carries retry-after", func(t *testing.T) {
		apiErr := classifyStatus(429, "slow down", 7*time.Second)
		if apiErr.RetryAfter != 7*time.Second {
			t.Errorf("expected 7s retry-after, got %s", apiErr.RetryAfter)
		}
	})
}

func TestUnwrapSentinels(t *testing.T) {
	cases := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindUnauthorized, shared.ErrTokenExpired},
		{KindRateLimited, shared.ErrRateLimited},
		{KindTransient, shared.ErrServiceUnavailable},
		{KindNotFound, shared.ErrNotFound},
		{KindInvalidRequest, shared.ErrInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			var err error = &APIError{Kind: tc.kind}
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("expected %s to wrap %v", tc.kind, tc.sentinel)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("extracts kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("fetching devices: %w", &APIError{Kind: KindRateLimited, RetryAfter: 3 * time.Second})
		kind, ok := KindOf(err)
		if !ok || kind != KindRateLimited {
			t.Errorf("expected rate_limited, got %s (%v)", kind, ok)
		}
		if got := RetryAfterOf(err); got != 3*time.Second {
			t.Errorf("expected 3s, got %s", got)
		}
	})

	t.Run("plain errors are not classified", func(t *testing.T) {
		if _, ok := KindOf(errors.New("plain")); ok {
			t.Error("expected no kind for a plain error")
		}
		if got := RetryAfterOf(errors.New("plain")); got != 0 {
			t.Errorf("expected zero retry-after, got %s", got)
		}
	})
}

func TestRetryPolicy(t *testing.T) {
	t.Run("backoff doubles and caps", func(t *testing.T) {
		policy := RetryPolicy{Attempts: 5, Base: 500 * time.Millisecond, Max: 4 * time.Second}
		expected := []time.Duration{
			500 * time.Millisecond,
			time.Second,
			2 * time.Second,
			4 * time.Second,
			4 * time.Second, // capped
		}
		for retry, want := range expected {
			if got := policy.Backoff(retry); got != want {
				t.Errorf("retry %d: expected %s, got %s", retry, want, got)
			}
		}
	})

	t.Run("only transient errors retry", func(t *testing.T) {
		if PolicyFor(KindTransient).Attempts <= 1 {
			t.Error("expected transient policy to retry")
		}
		for _, kind := range []ErrorKind{KindUnauthorized, KindRateLimited, KindNotFound, KindInvalidRequest} {
			if PolicyFor(kind).Attempts != 1 {
				t.Errorf("expected %s to be single-attempt", kind)
			}
		}
	})

	t.Run("unknown kind is single-attempt", func(t *testing.T) {
		if PolicyFor(ErrorKind(42)).Attempts != 1 {
			t.Error("expected unknown kind to be single-attempt")
		}
	})
}
