// Spotify Web API gateway.
//
// All remote calls go through [Client.do], which layers the error taxonomy,
// bounded retries, per-call timeouts, and transparent token refresh on top of
// plain HTTP requests.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/strum/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Hard upper bound for a single API call. Exceeding it surfaces as a
	// transient error, the same as a network failure.
	callTimeout = 10 * time.Second
)

// Client issues authenticated calls against the Spotify Web API. It owns the
// [Session] outright: token refresh is transparent, single-flight, and
// persisted through the [SessionStore] after every successful refresh.
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	store      SessionStore
	logger     *log.Logger
	baseURL    string
	timeout    time.Duration

	// mu guards session and refreshing. The critical section is limited
	// strictly to token state; requests run outside it.
	mu         sync.Mutex
	session    *Session
	refreshing chan struct{}
}

// NewClient creates a gateway from the given credentials. The store may be
// nil, in which case sessions are not persisted between runs.
func NewClient(cfg shared.SpotifyConfig, store SessionStore, logger *log.Logger) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-playback-state",
			"user-modify-playback-state",
			"user-read-currently-playing",
			"user-read-recently-played",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Client{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		store:      store,
		logger:     logger,
		baseURL:    spotifyBaseURL,
		timeout:    callTimeout,
	}, nil
}

// OAuthConfig exposes the OAuth2 configuration for the callback server.
func (c *Client) OAuthConfig() *oauth2.Config {
	return c.config
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (c *Client) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// SetSession installs token state, typically loaded from the store at
// startup or produced by the OAuth callback exchange.
func (c *Client) SetSession(sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

// Authenticated reports whether the client holds a session.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// SessionExpiry returns the current token expiry. The second return is false
// when no session is held. Token values are never exposed.
func (c *Client) SessionExpiry() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return time.Time{}, false
	}
	return c.session.Expiry, true
}

// Exchange trades an authorization code for a session and persists it.
func (c *Client) Exchange(ctx context.Context, code string) error {
	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return c.InstallToken(tok)
}

// InstallToken adopts a token obtained elsewhere (the OAuth callback server
// performs its own exchange) and persists it.
func (c *Client) InstallToken(tok *oauth2.Token) error {
	sess := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	return c.persist(sess)
}

// Logout destroys the session and clears the store.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Clear()
}

func (c *Client) persist(sess *Session) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// token returns a usable access token, refreshing first when the session is
// expired (or when force is set, after a 401). Only one refresh is in flight
// at a time; concurrent callers wait for it instead of issuing duplicates.
func (c *Client) token(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	for {
		if c.session == nil {
			c.mu.Unlock()
			return "", shared.ErrNotAuthenticated
		}

		if !force && !c.session.Expired(time.Now()) {
			tok := c.session.AccessToken
			c.mu.Unlock()
			return tok, nil
		}

		if c.refreshing == nil {
			done := make(chan struct{})
			c.refreshing = done
			refreshToken := c.session.RefreshToken
			c.mu.Unlock()

			fresh, err := c.refresh(ctx, refreshToken)

			c.mu.Lock()
			c.refreshing = nil
			if err == nil {
				c.session = fresh
			}
			close(done)

			if err != nil {
				c.mu.Unlock()
				return "", err
			}

			force = false
			continue
		}

		// Another caller is already refreshing: wait for it, then re-check.
		done := c.refreshing
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		force = false
		c.mu.Lock()
	}
}

// refresh exchanges the refresh token for a fresh session and persists it.
// Any failure is terminal for the session and maps to [KindUnauthorized].
func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, &APIError{Kind: KindUnauthorized, Message: shared.ErrNoRefreshToken.Error()}
	}

	src := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &APIError{Kind: KindUnauthorized, Message: fmt.Sprintf("%v: %v", shared.ErrRefreshFailed, err)}
	}

	sess := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if sess.RefreshToken == "" {
		// Spotify omits the refresh token when it is unchanged.
		sess.RefreshToken = refreshToken
	}

	if err := c.persist(sess); err != nil {
		c.logger.Warn("session persisted refresh failed", "error", err)
	}

	c.logger.Debug("refreshed access token", "expiry", sess.Expiry)
	return sess, nil
}

// do performs an authenticated request with retry semantics from the policy
// table: transient failures retry with exponential backoff, a 401 triggers
// exactly one forced refresh followed by one retry, and everything else is
// returned to the caller unchanged.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return transientError(err)
	}

	var transientRetries int
	refreshed := false

	for {
		tok, err := c.token(ctx, false)
		if err != nil {
			return err
		}

		apiErr := c.attempt(ctx, method, path, query, body, result, tok)
		if apiErr == nil {
			return nil
		}

		switch apiErr.Kind {
		case KindUnauthorized:
			if refreshed {
				return apiErr
			}
			refreshed = true
			if _, err := c.token(ctx, true); err != nil {
				return err
			}

		case KindTransient:
			policy := PolicyFor(KindTransient)
			if transientRetries >= policy.Attempts-1 {
				return apiErr
			}
			delay := policy.Backoff(transientRetries)
			transientRetries++
			c.logger.Debug("retrying transient failure", "path", path, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return transientError(ctx.Err())
			}

		default:
			return apiErr
		}
	}
}

// attempt issues a single HTTP request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, body, result any, token string) *APIError {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindInvalidRequest, Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	apiURL := c.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(actx, method, apiURL, reqBody)
	if err != nil {
		return &APIError{Kind: KindInvalidRequest, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transientError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			if errors.Is(err, io.EOF) {
				// 200 with an empty body, e.g. no active playback.
				return nil
			}
			return &APIError{Kind: KindTransient, Status: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
		return nil
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	var envelope errorBody
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		message = envelope.Error.Message
	}

	return classifyStatus(resp.StatusCode, message, retryAfter)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
