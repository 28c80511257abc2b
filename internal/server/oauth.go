package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization-code flow: a token or the
// error that ended the flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the authorization-code callback. It validates the CSRF
// state token, exchanges the code, and delivers exactly one [OAuthResult] on
// its channel; repeated callback hits after the first are rejected.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	results chan OAuthResult

	mu     sync.Mutex
	served bool
	once   sync.Once
}

// NewOAuthHandler creates a callback handler bound to the given state token.
// The token must be unguessable; it is compared against the state query
// parameter the authorization server echoes back.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the paths this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.served {
		h.mu.Unlock()
		http.Error(w, "callback already processed", http.StatusBadRequest)
		return
	}
	h.served = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, "state mismatch",
			fmt.Errorf("callback state token does not match"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, "authorization denied",
			fmt.Errorf("authorization denied: %s (%s)",
				query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "code exchange failed",
			fmt.Errorf("code exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, public string, err error) {
	h.Send(OAuthResult{err: err})
	http.Error(w, public, status)
}

// Send delivers the flow result. Only the first call has any effect; the
// channel closes after it.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel carrying the single flow outcome.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html>
<head>
  <title>strum</title>
  <style>
    body { background: #191414; color: #e8e8e8; font-family: monospace;
           display: flex; align-items: center; justify-content: center;
           height: 100vh; margin: 0; }
    main { text-align: center; }
    h1 { color: #1DB954; font-weight: normal; }
  </style>
</head>
<body>
  <main>
    <h1>strum is connected</h1>
    <p>Close this tab and head back to your terminal.</p>
  </main>
</body>
</html>
`
