package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"blockopt/internal/session"
)

// refreshTimeout bounds a renewal call independently of any caller context:
// a renewal keeps running for the waiters that still care even when the
// caller that started it has gone away.
const refreshTimeout = 30 * time.Second

// Refresher renews the access credential with single-flight semantics.
// Concurrent callers share one renewal call against the refresh endpoint; on
// success every waiter receives the same new token, on failure the session
// is cleared and every waiter receives ErrRefreshFailed. It never retries
// internally.
type Refresher struct {
	baseURL string
	hc      *http.Client
	store   *session.Store
	group   singleflight.Group
	log     *zap.Logger
}

// NewRefresher wires a refresher to the session store it updates.
func NewRefresher(baseURL string, hc *http.Client, store *session.Store, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{baseURL: baseURL, hc: hc, store: store, log: log}
}

// Refresh returns a freshly minted access token, joining an in-flight
// renewal if one is already underway.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	v, err, shared := r.group.Do("refresh", func() (interface{}, error) {
		return r.renew()
	})
	if err != nil {
		return "", err
	}
	if shared {
		r.log.Debug("joined in-flight credential refresh")
	}
	_ = ctx // the renewal is deliberately detached; see refreshTimeout
	return v.(string), nil
}

// renew performs one renewal call. Any failure tears the session down before
// returning, so the caller observes either a usable token or an Anonymous
// session, never a half-refreshed state.
func (r *Refresher) renew() (string, error) {
	creds := r.store.Current()
	if creds == nil {
		return "", session.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	access, err := r.call(ctx, creds.Refresh)
	if err != nil {
		r.log.Warn("credential refresh failed, clearing session", zap.Error(err))
		if clearErr := r.store.Clear(); clearErr != nil {
			r.log.Error("session teardown after failed refresh", zap.Error(clearErr))
		}
		return "", err
	}

	if err := r.store.UpdateAccess(access); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	r.log.Debug("access credential renewed")
	return access, nil
}

func (r *Refresher) call(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrRefreshFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: endpoint returned %d: %s", ErrRefreshFailed, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var renewed struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&renewed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRefreshFailed, err)
	}
	if renewed.Access == "" {
		return "", fmt.Errorf("%w: response missing access token", ErrRefreshFailed)
	}
	return renewed.Access, nil
}
