package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/strum/internal/server"
	"github.com/desertthunder/strum/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the login command waits for the user to finish
// the browser flow.
const authTimeout = 5 * time.Minute

// AuthLogin runs the browser OAuth flow: start the callback server, open the
// authorization URL, wait for the exchange, persist the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, repo, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := r.openClient(config, repo)
	if err != nil {
		return err
	}

	stateToken := shared.GenerateID()
	handler := server.NewOAuthHandler(client.OAuthConfig(), stateToken)
	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := client.AuthURL(stateToken)
	r.writePlainln("Opening your browser to authorize with Spotify...")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.writePlainln("Could not open a browser. Visit this URL to authorize:\n\n  %s", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(authTimeout):
		return fmt.Errorf("%w: authorization timed out", shared.ErrAuthFailed)
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := client.InstallToken(result.Token); err != nil {
		return err
	}

	r.writePlainln("Authorized. Run 'strum tui' to start playing.")
	return nil
}

// AuthStatus reports whether a session is stored and when it expires. Token
// values are never printed.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, repo, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := r.openClient(config, repo)
	if err != nil {
		return err
	}

	if !client.Authenticated() {
		r.writePlainln("Not authenticated. Run 'strum auth login'.")
		return nil
	}

	if expiry, ok := client.SessionExpiry(); ok && !expiry.IsZero() {
		if expiry.Before(time.Now()) {
			r.writePlainln("Authenticated; access token expired at %s (it will refresh on use).", expiry.Format(time.RFC1123))
		} else {
			r.writePlainln("Authenticated; access token valid until %s.", expiry.Format(time.RFC1123))
		}
	} else {
		r.writePlainln("Authenticated.")
	}
	return nil
}

// AuthLogout destroys the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, repo, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := r.openClient(config, repo)
	if err != nil {
		return err
	}

	if err := client.Logout(); err != nil {
		return err
	}
	r.writePlainln("Logged out.")
	return nil
}
