package auth

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blockopt/internal/session"
)

// Client wraps an underlying transport, attaching the current access
// credential as a bearer header on every call. When a call is rejected as
// unauthenticated it coordinates exactly one refresh and exactly one retry:
// a second rejection after a successful refresh is surfaced as-is, which
// bounds worst-case latency and rules out refresh loops.
type Client struct {
	hc        *http.Client
	store     *session.Store
	refresher *Refresher
	log       *zap.Logger
}

// NewClient builds the authenticated client every API call goes through.
func NewClient(hc *http.Client, store *session.Store, refresher *Refresher, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{hc: hc, store: store, refresher: refresher, log: log}
}

// Do executes req with bearer auth. The request body, if any, is buffered so
// the single auth retry can replay it. Transport failures are returned
// unwrapped for the caller to classify; authentication failures surface as
// *AuthError after the session has been torn down.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	op := req.Method + " " + req.URL.Path

	creds := c.store.Current()
	if creds == nil {
		return nil, &AuthError{Op: op, Err: session.ErrNotAuthenticated}
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	// One correlation ID across both attempts of a logical request.
	requestID := uuid.NewString()

	resp, err := c.send(ctx, req, body, creds.Access, requestID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.log.Debug("access credential rejected, refreshing",
		zap.String("op", op), zap.String("request_id", requestID))

	access, err := c.refresher.Refresh(ctx)
	if err != nil {
		return nil, &AuthError{Op: op, Err: err}
	}

	retry, err := c.send(ctx, req, body, access, requestID)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		// Renewed credential rejected too; no second refresh for this call.
		io.Copy(io.Discard, retry.Body)
		retry.Body.Close()
		if clearErr := c.store.Clear(); clearErr != nil {
			c.log.Error("session teardown after repeated rejection", zap.Error(clearErr))
		}
		return nil, &AuthError{Op: op, StatusCode: http.StatusUnauthorized, Err: ErrRejectedAfterRefresh}
	}
	return retry, nil
}

func (c *Client) send(ctx context.Context, req *http.Request, body []byte, access, requestID string) (*http.Response, error) {
	attempt := req.Clone(ctx)
	if body != nil {
		attempt.Body = io.NopCloser(bytes.NewReader(body))
		attempt.ContentLength = int64(len(body))
	}
	attempt.Header.Set("Authorization", "Bearer "+access)
	attempt.Header.Set("X-Request-ID", requestID)
	return c.hc.Do(attempt)
}
