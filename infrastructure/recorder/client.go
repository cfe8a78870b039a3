// Package recorder talks to the NVR recorder service that produces the
// camera recordings clips are cut from.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipmaker/domain/recording"
	"clipmaker/domain/video"
)

const defaultTimeout = 2 * time.Minute

// Client is an HTTP client for the recorder API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom http client (for testing)
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a client for the recorder at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid recorder url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid recorder url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Streams lists the recorder's camera streams
func (c *Client) Streams(ctx context.Context) ([]recording.Stream, error) {
	var streams []recording.Stream
	if err := c.getJSON(ctx, "/api/streams", &streams); err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	return streams, nil
}

// Recordings lists archived recordings, newest first as the recorder returns them
func (c *Client) Recordings(ctx context.Context) ([]recording.Recording, error) {
	var recs []recording.Recording
	if err := c.getJSON(ctx, "/api/recordings", &recs); err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	return recs, nil
}

// Download fetches the media a recording's Path points at
func (c *Client) Download(ctx context.Context, rec recording.Recording) ([]byte, error) {
	if rec.Path == "" {
		return nil, fmt.Errorf("%w: recording %s has no path", video.ErrInvalidArgument, rec.ID)
	}

	resp, err := c.get(ctx, rec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rec.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rec.Path, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	ref, err := url.Parse("/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	target := c.baseURL.ResolveReference(ref)
	if c.baseURL.Path != "" && c.baseURL.Path != "/" {
		target.Path = strings.TrimSuffix(c.baseURL.Path, "/") + ref.Path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", video.ErrNotFound, target.Path)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", target.Path, resp.Status)
	}
	return resp, nil
}

// Ensure Client implements recording.Source
var _ recording.Source = (*Client)(nil)
