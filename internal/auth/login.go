package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"blockopt/internal/session"
)

// Login authenticates against POST /auth/login/ and establishes the session
// atomically on success.
func Login(ctx context.Context, hc *http.Client, baseURL, username, password string, store *session.Store) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("auth: encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("auth: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("auth: login: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("auth: login returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("auth: decode login response: %w", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		return fmt.Errorf("auth: login response missing credential pair")
	}

	return store.Establish(pair.Access, pair.Refresh, username)
}
