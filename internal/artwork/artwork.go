// Package artwork fetches cover images for identified tracks, preferring
// the recognition service's CDN URL and falling back to the iTunes Search
// API.
package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"setlist/internal/logging"
)

const (
	userAgent     = "setlist/1.0"
	maxImageBytes = 10 << 20
)

// Apple CDN artwork URLs carry their dimensions inline, e.g.
// ".../400x400bb.jpg", and serve other sizes when the dimensions change.
var cdnSizeRe = regexp.MustCompile(`\d+x\d+(bb|cc)`)

// ResizeCoverURL rewrites a CDN artwork URL to the requested square size.
// URLs without an inline dimension pass through unchanged.
func ResizeCoverURL(coverURL string, size int) string {
	return cdnSizeRe.ReplaceAllString(coverURL, fmt.Sprintf("%dx%d$1", size, size))
}

// Fetcher downloads track artwork.
type Fetcher struct {
	itunesBaseURL string
	imageSize     int
	httpClient    *http.Client
	logger        *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher creates an artwork fetcher. itunesBaseURL may be empty to
// disable the iTunes fallback; imageSize defaults to 600.
func NewFetcher(itunesBaseURL string, imageSize int, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if imageSize <= 0 {
		imageSize = 600
	}
	fetcher := &Fetcher{
		itunesBaseURL: strings.TrimRight(strings.TrimSpace(itunesBaseURL), "/"),
		imageSize:     imageSize,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logging.NewComponentLogger(logger, "artwork"),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch returns cover art bytes for a track, or nil when none could be
// found. The saved CDN URL is tried first at the requested size, then at
// its original size, then the iTunes Search API.
func (f *Fetcher) Fetch(ctx context.Context, artist, title, coverURL string) []byte {
	if coverURL != "" {
		if data := f.download(ctx, ResizeCoverURL(coverURL, f.imageSize)); data != nil {
			return data
		}
		if data := f.download(ctx, coverURL); data != nil {
			return data
		}
	}
	if itunesURL := f.searchITunes(ctx, artist, title); itunesURL != "" {
		if data := f.download(ctx, itunesURL); data != nil {
			return data
		}
	}
	return nil
}

// download fetches one image URL, returning nil on any failure. Artwork
// is decorative; failures must never fail a run.
func (f *Fetcher) download(ctx context.Context, imageURL string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug("artwork download failed", logging.String("url", imageURL), logging.Error(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("artwork download rejected",
			logging.String("url", imageURL),
			logging.Int("status", resp.StatusCode))
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

type itunesResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		ArtworkURL100 string `json:"artworkUrl100"`
	} `json:"results"`
}

// searchITunes looks up the track on the iTunes Search API and returns an
// artwork URL scaled to the fetcher's size, or "".
func (f *Fetcher) searchITunes(ctx context.Context, artist, title string) string {
	if f.itunesBaseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("term", strings.TrimSpace(artist+" "+title))
	params.Set("entity", "song")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.itunesBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug("itunes search failed",
			logging.String("artist", artist),
			logging.String("title", title),
			logging.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var payload itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	if payload.ResultCount == 0 || len(payload.Results) == 0 {
		return ""
	}
	artworkURL := payload.Results[0].ArtworkURL100
	if artworkURL == "" {
		return ""
	}
	return strings.Replace(artworkURL, "100x100bb", fmt.Sprintf("%dx%dbb", f.imageSize, f.imageSize), 1)
}
