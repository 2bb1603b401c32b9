package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// Placeholder values used when the gateway matches a fingerprint but
	// omits part of the metadata.
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"

	maxErrorBodyBytes = 2048
)

// Service identifies one audio sample. Implementations must return a nil
// match (not an error) when the sample is simply not recognized.
type Service interface {
	Identify(ctx context.Context, sample []byte) (*Match, error)
}

// Client submits audio samples to the fingerprint recognition gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a recognition client for the given gateway base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("recognition base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// recognitionResponse models the gateway's identification payload.
type recognitionResponse struct {
	Matched    bool   `json:"matched"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	URL        string `json:"url"`
	Album      string `json:"album"`
	ArtworkURL string `json:"coverart_url"`
}

// Identify submits the raw sample bytes and returns the gateway's match,
// or nil when the gateway reports no match.
func (c *Client) Identify(ctx context.Context, sample []byte) (*Match, error) {
	if len(sample) == 0 {
		return nil, errors.New("sample must not be empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(sample))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("recognition returned %d (latency=%v): %s", resp.StatusCode, latency, detail)
	}

	var payload recognitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode recognition response: %w", err)
	}
	if !payload.Matched {
		return nil, nil
	}

	match := &Match{
		Title:      strings.TrimSpace(payload.Title),
		Artist:     strings.TrimSpace(payload.Artist),
		ShazamURL:  payload.URL,
		Album:      payload.Album,
		ArtworkURL: payload.ArtworkURL,
	}
	if match.Title == "" {
		match.Title = unknownTitle
	}
	if match.Artist == "" {
		match.Artist = unknownArtist
	}
	return match, nil
}
