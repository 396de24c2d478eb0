package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"learning-path/shared/logging"

	"golang.org/x/oauth2"
)

// tokenFile is the on-disk home of the OAuth token.
type tokenFile string

func (f tokenFile) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("corrupt token file %s: %w", string(f), err)
	}
	return tok, nil
}

// save replaces the file atomically so a crash never leaves half a token.
func (f tokenFile) save(tok *oauth2.Token) error {
	path := string(f)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// persistingSource hands out tokens from the refreshing source and writes
// every new access token back to the token file.
type persistingSource struct {
	base oauth2.TokenSource
	file tokenFile
	log  *logging.Logger

	mu   sync.Mutex
	last string
}

func newPersistingSource(ctx context.Context, config *oauth2.Config, tok *oauth2.Token, file tokenFile, log *logging.Logger) *persistingSource {
	return &persistingSource{
		base: config.TokenSource(ctx, tok),
		file: file,
		log:  log,
		last: tok.AccessToken,
	}
}

// Token implements oauth2.TokenSource.
func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.file.save(tok); err != nil {
			s.log.Warn("Failed to save refreshed token", "token_file", string(s.file), "error", err)
		} else {
			s.log.Info("Token refreshed", "token_file", string(s.file), "expires", tok.Expiry)
		}
	}
	return tok, nil
}

// usable reports whether a stored token can serve requests, either directly
// or through a refresh.
func usable(tok *oauth2.Token) bool {
	return tok.RefreshToken != "" || tok.Valid()
}

// authorize returns a stored token when one is usable and otherwise runs the
// device authorization flow, printing the user instructions to prompt.
func authorize(ctx context.Context, config *oauth2.Config, file tokenFile, prompt io.Writer, log *logging.Logger) (*oauth2.Token, error) {
	tok, err := file.load()
	switch {
	case err == nil && usable(tok):
		log.Info("Loaded token from file", "token_file", string(file), "expires", tok.Expiry)
		return tok, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		log.Warn("Ignoring unreadable token file", "token_file", string(file), "error", err)
	}

	log.Info("Starting device authorization")
	tok, err = deviceFlow(ctx, config, prompt)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			log.Error("Device authorization response failed",
				"status", retrieveErr.Response.Status,
				"body", strings.TrimSpace(string(retrieveErr.Body)))
		}
		return nil, fmt.Errorf("device authorization failed (the OAuth client must be of type 'TVs and Limited Input devices'): %w", err)
	}

	if err := file.save(tok); err != nil {
		log.Warn("Failed to save token", "token_file", string(file), "error", err)
	}
	return tok, nil
}

func deviceFlow(ctx context.Context, config *oauth2.Config, prompt io.Writer) (*oauth2.Token, error) {
	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(prompt, "\n%s\nYOUTUBE DEVICE AUTHORIZATION REQUIRED\n%s\n", rule, rule)
	fmt.Fprintf(prompt, "Visit %s and enter the code %s\n", resp.VerificationURI, resp.UserCode)
	fmt.Fprintf(prompt, "Waiting for authorization... (Ctrl+C to cancel)\n%s\n", strings.Repeat("-", 80))

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}
