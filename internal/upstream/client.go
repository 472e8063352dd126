package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anomalydash/internal/config"
	"anomalydash/internal/dto"
	"anomalydash/internal/model"
)

const maxBodySize = 64 << 20 // full-resolution data URIs can be large

// Client talks to the origin endpoints exposed through the tunnel.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	headerName  string
	headerValue string
}

// NewClient builds a client from configuration. The timeout bounds every request.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.OriginBaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.OriginTimeout},
		headerName:  cfg.BypassHeader,
		headerValue: cfg.BypassHeaderValue,
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the origin root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListImages fetches the anomaly metadata sequence in origin order.
func (c *Client) ListImages(ctx context.Context) ([]model.ImageMetadata, error) {
	var resp dto.ImagesResponse
	if err := c.getJSON(ctx, "/api/anomaly-images", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{Message: resp.Error}
	}
	for i, img := range resp.Images {
		if img.Filename == "" {
			return nil, fmt.Errorf("%w: image %d has no filename", ErrMalformedResponse, i)
		}
	}
	return resp.Images, nil
}

// FetchImage retrieves one image as a data URI.
func (c *Client) FetchImage(ctx context.Context, filename string) (string, error) {
	var resp dto.ImageResponse
	if err := c.getJSON(ctx, "/api/image/"+url.PathEscape(filename), &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &ServerError{Message: resp.Error}
	}
	if !strings.HasPrefix(resp.Image, "data:image/") || !strings.Contains(resp.Image, ";base64,") {
		return "", fmt.Errorf("%w: image field is not a data URI", ErrMalformedResponse)
	}
	return resp.Image, nil
}

// BlockchainData fetches the on-chain transaction log. A success:false body is
// returned alongside a *ServerError so callers can still read the message.
func (c *Client) BlockchainData(ctx context.Context) (*dto.BlockchainResponse, error) {
	var resp dto.BlockchainResponse
	if err := c.getJSON(ctx, "/api/blockchain-data", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return &resp, &ServerError{Message: resp.Error}
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.headerName != "" {
		req.Header.Set(c.headerName, c.headerValue)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed after %s: %w", path, time.Since(start).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read %s body: %w", path, err)
	}

	// The origin answers errors with JSON bodies and 4xx/5xx codes, so try the body first.
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode >= 300 {
			return &StatusError{URL: endpoint, StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
