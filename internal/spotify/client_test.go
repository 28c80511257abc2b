package spotify

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/strum/internal/shared"
)

// fakeStore is an in-memory SessionStore recording calls.
type fakeStore struct {
	mu    sync.Mutex
	sess  *Session
	saves int
}

func (s *fakeStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess, nil
}

func (s *fakeStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	s.saves++
	return nil
}

func (s *fakeStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}

// newTestClient wires a client at the given API server with a live session.
func newTestClient(t *testing.T, apiURL string, store SessionStore) *Client {
	t.Helper()
	client, err := NewClient(shared.SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}, store, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	client.baseURL = apiURL
	client.SetSession(&Session{
		AccessToken:  "live-token",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	})
	return client
}

// tokenServer serves OAuth token refreshes, counting hits.
func tokenServer(t *testing.T, accessToken string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, accessToken)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDo(t *testing.T) {
	t.Run("decodes successful responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer live-token" {
				t.Errorf("unexpected authorization header %q", got)
			}
			fmt.Fprint(w, `{"display_name":"someone","id":"user1"}`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		profile, err := client.Profile(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile.ID != "user1" {
			t.Errorf("expected user1, got %s", profile.ID)
		}
	})

	t.Run("empty 200 body means no active playback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		snap, err := client.CurrentPlayback(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Errorf("expected nil snapshot, got %+v", snap)
		}
	})

	t.Run("401 refreshes once and retries", func(t *testing.T) {
		var refreshes atomic.Int32
		tokenSrv := tokenServer(t, "fresh-token", &refreshes)

		var apiCalls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":{"status":401,"message":"The access token expired"}}`)
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Errorf("retry used stale token %q", got)
			}
			fmt.Fprint(w, `{"id":"user1"}`)
		}))
		defer srv.Close()

		store := &fakeStore{}
		client := newTestClient(t, srv.URL, store)
		client.config.Endpoint.TokenURL = tokenSrv.URL

		if _, err := client.Profile(t.Context()); err != nil {
			t.Fatalf("expected refresh-and-retry to succeed, got %v", err)
		}
		if got := apiCalls.Load(); got != 2 {
			t.Errorf("expected 2 API calls, got %d", got)
		}
		if got := refreshes.Load(); got != 1 {
			t.Errorf("expected 1 refresh, got %d", got)
		}
		if store.saves != 1 {
			t.Errorf("expected refreshed session persisted once, got %d saves", store.saves)
		}
	})

	t.Run("second 401 after refresh surfaces unauthorized", func(t *testing.T) {
		var refreshes atomic.Int32
		tokenSrv := tokenServer(t, "still-bad", &refreshes)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		client.config.Endpoint.TokenURL = tokenSrv.URL

		_, err := client.Profile(t.Context())
		kind, ok := KindOf(err)
		if !ok || kind != KindUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if got := refreshes.Load(); got != 1 {
			t.Errorf("expected exactly one refresh, got %d", got)
		}
	})

	t.Run("rate limit surfaces retry-after without retrying", func(t *testing.T) {
		var apiCalls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiCalls.Add(1)
			w.Header().Set("Retry-After", "9")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		_, err := client.Profile(t.Context())
		if kind, _ := KindOf(err); kind != KindRateLimited {
			t.Fatalf("expected rate_limited, got %v", err)
		}
		if got := RetryAfterOf(err); got != 9*time.Second {
			t.Errorf("expected 9s retry-after, got %s", got)
		}
		if got := apiCalls.Load(); got != 1 {
			t.Errorf("expected no retries for 429, got %d calls", got)
		}
	})

	t.Run("transient failures retry up to the policy limit", func(t *testing.T) {
		original := retryPolicies[KindTransient]
		retryPolicies[KindTransient] = RetryPolicy{Attempts: 3, Base: time.Millisecond, Max: 4 * time.Millisecond}
		t.Cleanup(func() { retryPolicies[KindTransient] = original })

		var apiCalls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiCalls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		_, err := client.Profile(t.Context())
		if kind, _ := KindOf(err); kind != KindTransient {
			t.Fatalf("expected transient, got %v", err)
		}
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Error("expected error to wrap the service-unavailable sentinel")
		}
		if got := apiCalls.Load(); got != 3 {
			t.Errorf("expected 3 attempts, got %d", got)
		}
	})

	t.Run("transient then success", func(t *testing.T) {
		original := retryPolicies[KindTransient]
		retryPolicies[KindTransient] = RetryPolicy{Attempts: 3, Base: time.Millisecond, Max: 4 * time.Millisecond}
		t.Cleanup(func() { retryPolicies[KindTransient] = original })

		var apiCalls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiCalls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"id":"user1"}`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		if _, err := client.Profile(t.Context()); err != nil {
			t.Fatalf("expected eventual success, got %v", err)
		}
		if got := apiCalls.Load(); got != 3 {
			t.Errorf("expected 3 attempts, got %d", got)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"No active device found"}}`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, nil)
		err := client.Pause(t.Context())
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected not-found sentinel, got %v", err)
		}
	})

	t.Run("unauthenticated client refuses calls", func(t *testing.T) {
		client := newTestClient(t, "http://unused.invalid", nil)
		client.SetSession(nil)
		_, err := client.Profile(t.Context())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected not-authenticated, got %v", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	t.Run("expired session refreshes before the call", func(t *testing.T) {
		var refreshes atomic.Int32
		tokenSrv := tokenServer(t, "fresh-token", &refreshes)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Errorf("expected refreshed token, got %q", got)
			}
			fmt.Fprint(w, `{"id":"user1"}`)
		}))
		defer srv.Close()

		store := &fakeStore{}
		client := newTestClient(t, srv.URL, store)
		client.config.Endpoint.TokenURL = tokenSrv.URL
		client.SetSession(&Session{
			AccessToken:  "stale-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(-time.Minute),
		})

		if _, err := client.Profile(t.Context()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := refreshes.Load(); got != 1 {
			t.Errorf("expected 1 refresh, got %d", got)
		}
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		var refreshes atomic.Int32
		tokenSrv := tokenServer(t, "fresh-token", &refreshes)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"user1"}`)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL, &fakeStore{})
		client.config.Endpoint.TokenURL = tokenSrv.URL
		client.SetSession(&Session{
			AccessToken:  "stale-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(-time.Minute),
		})

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := client.Profile(t.Context())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Fatalf("concurrent call failed: %v", err)
			}
		}
		if got := refreshes.Load(); got != 1 {
			t.Errorf("expected a single shared refresh, got %d", got)
		}
	})

	t.Run("missing refresh token is terminal", func(t *testing.T) {
		client := newTestClient(t, "http://unused.invalid", nil)
		client.SetSession(&Session{
			AccessToken: "stale-token",
			Expiry:      time.Now().Add(-time.Minute),
		})

		_, err := client.Profile(t.Context())
		if kind, _ := KindOf(err); kind != KindUnauthorized {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("refresh keeps old refresh token when omitted", func(t *testing.T) {
		var refreshes atomic.Int32
		tokenSrv := tokenServer(t, "fresh-token", &refreshes)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"user1"}`)
		}))
		defer srv.Close()

		store := &fakeStore{}
		client := newTestClient(t, srv.URL, store)
		client.config.Endpoint.TokenURL = tokenSrv.URL
		client.SetSession(&Session{
			AccessToken:  "stale-token",
			RefreshToken: "original-refresh",
			Expiry:       time.Now().Add(-time.Minute),
		})

		if _, err := client.Profile(t.Context()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		store.mu.Lock()
		defer store.mu.Unlock()
		if store.sess == nil || store.sess.RefreshToken != "original-refresh" {
			t.Errorf("expected original refresh token retained, got %+v", store.sess)
		}
	})
}

func TestSessionExpiry(t *testing.T) {
	t.Run("expired within slack window", func(t *testing.T) {
		now := time.Now()
		sess := &Session{Expiry: now.Add(5 * time.Second)}
		if !sess.Expired(now) {
			t.Error("expected session expiring within slack to count as expired")
		}
	})

	t.Run("valid outside slack window", func(t *testing.T) {
		now := time.Now()
		sess := &Session{Expiry: now.Add(time.Hour)}
		if sess.Expired(now) {
			t.Error("expected session to be valid")
		}
	})

	t.Run("zero expiry never expires", func(t *testing.T) {
		sess := &Session{}
		if sess.Expired(time.Now()) {
			t.Error("expected zero expiry to never expire")
		}
	})
}
