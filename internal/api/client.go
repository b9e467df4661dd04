package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"blockopt/internal/auth"
	"blockopt/internal/block"
	"blockopt/internal/optimize"
)

const (
	uploadPath        = "/api/upload"
	optimizePath      = "/api/configurations/top3/"
	visualizationPath = "/api/visualizations/"
)

// ErrOptimizeInFlight means an optimization call is already outstanding.
// Only one optimization runs per session at a time; duplicate submissions
// are rejected here, at the caller of the builder, not inside it.
var ErrOptimizeInFlight = errors.New("api: an optimization is already in flight")

// Client issues the service's API calls through the authenticated transport.
type Client struct {
	baseURL string
	auth    *auth.Client
	log     *zap.Logger

	optimizing atomic.Bool
}

// NewClient builds an API client rooted at baseURL.
func NewClient(baseURL string, authClient *auth.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), auth: authClient, log: log}
}

// uploadResponse is the upload endpoint's envelope.
type uploadResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Upload submits a spreadsheet for server-side ingestion and returns the
// parsed record set. The local ingestor is the primary path; this call
// exists for operators who want the service's parser to be authoritative.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) ([]block.Block, error) {
	const op = "upload"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("api: %s: build form: %w", op, err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("api: %s: read file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("api: %s: finish form: %w", op, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return nil, fmt.Errorf("api: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope uploadResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("api: %s: decode response: %w", op, decodeErr)
	}
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Detail: envelope.Error}
	}

	records, err := block.UnmarshalRecords(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", op, err)
	}
	c.log.Debug("upload ingested records", zap.Int("count", len(records)))
	return records, nil
}

// Optimize submits a built request and returns the ranked configurations.
// At most one optimization is in flight at a time; concurrent submissions
// fail fast with ErrOptimizeInFlight.
func (c *Client) Optimize(ctx context.Context, request optimize.Request) (*optimize.Response, error) {
	const op = "optimize"

	if !c.optimizing.CompareAndSwap(false, true) {
		return nil, ErrOptimizeInFlight
	}
	defer c.optimizing.Store(false)

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("api: %s: encode request: %w", op, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+optimizePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("api: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Detail: string(bytes.TrimSpace(detail))}
	}

	var result optimize.Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("api: %s: decode response: %w", op, err)
	}
	c.log.Debug("optimization complete", zap.Int("configurations", len(result.Configurations)))
	return &result, nil
}

// FetchVisualization retrieves a visualization document by name and returns
// its HTML verbatim. A leading "visualizations/" prefix on the name is
// tolerated and stripped, matching what the optimize response carries.
func (c *Client) FetchVisualization(ctx context.Context, name string) ([]byte, error) {
	const op = "fetch-visualization"

	clean := strings.TrimPrefix(name, "visualizations/")
	if clean == "" {
		return nil, fmt.Errorf("api: %s: empty visualization name", op)
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+visualizationPath+url.PathEscape(clean), nil)
	if err != nil {
		return nil, fmt.Errorf("api: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Detail: "visualization not found: " + clean}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return doc, nil
}

// do routes a request through the authenticated client, classifying
// transport failures and passing auth failures through untouched.
func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	resp, err := c.auth.Do(ctx, req)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}
