package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the external metadata provider. Every call carries
// its own timeout and maps provider responses onto the typed error
// surface (ErrNotFound, RateLimitedError, TransientError) so callers
// never parse status codes.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	entityTimeout time.Duration
	searchTimeout time.Duration
	log           *zap.Logger
}

// NewClient creates a provider client from configuration.
func NewClient(cfg Config, log *zap.Logger) *Client {
	entityTimeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if entityTimeout <= 0 {
		entityTimeout = 10 * time.Second
	}
	searchTimeout := time.Duration(cfg.SearchTimeoutSeconds) * time.Second
	if searchTimeout <= 0 {
		searchTimeout = 30 * time.Second
	}

	return &Client{
		// Transport-level ceiling; per-call contexts are tighter.
		httpClient:    &http.Client{Timeout: searchTimeout + 5*time.Second},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.Token,
		entityTimeout: entityTimeout,
		searchTimeout: searchTimeout,
		log:           log,
	}
}

// Track fetches one track by provider ID.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	payload, err := c.getJSON(ctx, "/tracks/"+url.PathEscape(id), nil, c.entityTimeout)
	if err != nil {
		return nil, err
	}
	return decodeTrack(unwrapObject(payload, "data", "track")), nil
}

// Artist fetches one artist by provider ID.
func (c *Client) Artist(ctx context.Context, id string) (*Artist, error) {
	payload, err := c.getJSON(ctx, "/artists/"+url.PathEscape(id), nil, c.entityTimeout)
	if err != nil {
		return nil, err
	}
	return decodeArtist(unwrapObject(payload, "data", "artist")), nil
}

// Album fetches one album/release by provider ID.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	payload, err := c.getJSON(ctx, "/albums/"+url.PathEscape(id), nil, c.entityTimeout)
	if err != nil {
		return nil, err
	}
	return decodeAlbum(unwrapObject(payload, "data", "album")), nil
}

// SearchReleases lists albums matching the query, one offset/limit
// page at a time. It is the upstream paginated source drained by the
// accumulator.
func (c *Client) SearchReleases(ctx context.Context, query string, offset, limit int) ([]Album, error) {
	q := url.Values{}
	q.Set("type", "album")
	q.Set("q", query)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	payload, err := c.getJSON(ctx, "/search", q, c.searchTimeout)
	if err != nil {
		return nil, err
	}

	items := unwrapList(payload, "items", "albums", "releases", "data")
	albums := make([]Album, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		albums = append(albums, *decodeAlbum(obj))
	}
	return albums, nil
}

// getJSON performs one GET with the given timeout and decodes the
// response body. Status codes map onto the typed error surface here
// and nowhere else.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, timeout time.Duration) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient for fallback
		// purposes.
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return nil, &TransientError{Status: resp.StatusCode, Err: fmt.Errorf("GET %s", path)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("upstream: GET %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	var payload map[string]any
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("upstream: GET %s: decode: %w", path, err)
	}
	return payload, nil
}

// retryAfter parses the Retry-After header, falling back to
// DefaultBackoff when absent or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return DefaultBackoff
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return DefaultBackoff
	}
	return time.Duration(seconds) * time.Second
}
