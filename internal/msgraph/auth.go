package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/earn/internal/logging"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenFile returns the token cache path below the earn directory.
func TokenFile(dir string) string {
	return filepath.Join(dir, "auth", "msgraph_tokens.json")
}

// Authenticator obtains Microsoft Graph tokens through the OAuth2 device code
// flow and caches them in TokenPath.
type Authenticator struct {
	TenantID  string
	ClientID  string
	TokenPath string
	// Prompt receives the sign-in instructions.
	Prompt io.Writer
	Logger *slog.Logger
}

func (a *Authenticator) logger() *slog.Logger {
	return logging.WithComponent(a.Logger, logging.ComponentOutlook)
}

// oauth2Config returns the oauth2.Config for Microsoft Graph.
func (a *Authenticator) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(a.TenantID, "devicecode"),
			TokenURL:      msEndpoint(a.TenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken loads a previously saved token. A missing file yields nil.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", a.TokenPath, err)
	}
	return &tok, nil
}

// saveToken persists a token with a temp file + rename.
func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.TokenPath), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := a.TokenPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, a.TokenPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// TokenSource returns a token source for Microsoft Graph. It reuses the
// cached token, refreshes it if needed, or runs the device code flow when no
// usable token is available. Refreshed tokens are written back to the cache.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg := a.oauth2Config()
	log := a.logger()

	tok, err := a.loadToken()
	if err != nil {
		log.Warn("ignoring cached token", logging.FieldError, err)
		tok = nil
	}

	if tok != nil && !tok.Valid() && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			tok = refreshed
			if err := a.saveToken(tok); err != nil {
				log.Warn("could not save refreshed token", logging.FieldError, err)
			}
		} else {
			log.Warn("token refresh failed, re-authenticating", logging.FieldError, err)
			tok = nil
		}
	}

	if tok == nil || !tok.Valid() {
		tok, err = a.deviceLogin(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	return &savingTokenSource{ts: cfg.TokenSource(ctx, tok), last: tok.AccessToken, auth: a}, nil
}

func (a *Authenticator) deviceLogin(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	out := a.Prompt
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(out, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(out, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(out)

	tok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := a.saveToken(tok); err != nil {
		a.logger().Warn("could not save token", logging.FieldError, err)
	}
	return tok, nil
}

// savingTokenSource persists tokens whenever the wrapped source refreshes.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	last string
	auth *Authenticator
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.auth.saveToken(tok); err != nil {
			s.auth.logger().Warn("could not save refreshed token", logging.FieldError, err)
		}
	}
	return tok, nil
}
