// Package flickr queries the Flickr REST API for pages of photos.
package flickr

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/apibillme/cache"
	"golang.org/x/time/rate"

	"github.com/abelbrown/gallery/internal/photo"
)

// DefaultEndpoint is the public REST endpoint.
const DefaultEndpoint = "https://www.flickr.com/services/rest/"

// API method names for the two listing modes.
const (
	MethodRecent = "flickr.photos.getRecent"
	MethodSearch = "flickr.photos.search"
)

// cacheSize bounds the number of pages held by the response cache.
const cacheSize = 64

// ErrMalformedResponse is returned when a response body is not the JSON
// envelope the API documents.
var ErrMalformedResponse = errors.New("flickr: malformed response")

// APIError is a failure reported inside the response envelope
// ({"stat":"fail"}), which the API sends with HTTP 200.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flickr: api error %d: %s", e.Code, e.Message)
}

// Client fetches photo pages. Safe for concurrent use.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter // nil means unlimited
	pages    cache.Cache
	caching  bool
	onCached func(key string)
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at another REST endpoint (tests, proxies).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout sets the per-request HTTP timeout. It applies to a client
// passed with WithHTTPClient too, without modifying it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit limits outgoing requests to perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCacheTTL serves identical page requests from memory for ttl.
// A non-positive ttl disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.caching = false
			return
		}
		c.pages = cache.New(cacheSize, cache.WithTTL(ttl), cache.WithoutReset())
		c.caching = true
	}
}

// WithCacheHook calls fn with the request key whenever a page is served
// from the cache.
func WithCacheHook(fn func(key string)) Option {
	return func(c *Client) { c.onCached = fn }
}

// New creates a Client for apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{},
		timeout:  30 * time.Second,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 3),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.client.Timeout != c.timeout {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// Params builds the query string for one page of q.
func (c *Client) Params(q photo.Query, page, perPage int) url.Values {
	v := url.Values{}
	v.Set("api_key", c.apiKey)
	v.Set("method", MethodRecent)
	v.Set("format", "json")
	v.Set("nojsoncallback", "1")
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	if q.Mode() == photo.ModeSearch {
		v.Set("method", MethodSearch)
		v.Set("text", q.Term)
	}
	return v
}

// Query fetches one page of photos for q. It makes a single attempt and
// returns transport failures, non-200 statuses, *APIError and
// ErrMalformedResponse to the caller.
func (c *Client) Query(ctx context.Context, q photo.Query, page, perPage int) (photo.Page, error) {
	if ctx.Err() != nil {
		return photo.Page{}, ctx.Err()
	}

	params := c.Params(q, page, perPage)
	key := cacheKey(params)

	if c.caching {
		if v, ok := c.pages.Get(key); ok {
			if cached, ok := v.(photo.Page); ok {
				if c.onCached != nil {
					c.onCached(key)
				}
				return clonePage(cached), nil
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return photo.Page{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return photo.Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", "gallery/0.1 (+https://github.com/abelbrown/gallery)")

	resp, err := c.client.Do(req)
	if err != nil {
		return photo.Page{}, fmt.Errorf("failed to fetch photos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return photo.Page{}, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := decodedBody(resp)
	if err != nil {
		return photo.Page{}, err
	}
	defer body.Close()

	result, err := decodePage(body)
	if err != nil {
		return photo.Page{}, err
	}

	if c.caching {
		c.pages.Set(key, clonePage(result))
	}
	return result, nil
}

// decodedBody undoes the Content-Encoding we asked for. Setting
// Accept-Encoding ourselves turns off net/http's transparent gzip.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: bad gzip body: %v", ErrMalformedResponse, err)
		}
		return zr, nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

// cacheKey identifies a page request without the API key.
func cacheKey(v url.Values) string {
	k := url.Values{}
	for name, vals := range v {
		if name != "api_key" {
			k[name] = vals
		}
	}
	return k.Encode()
}

func clonePage(p photo.Page) photo.Page {
	photos := make([]photo.Photo, len(p.Photos))
	copy(photos, p.Photos)
	return photo.Page{Photos: photos, TotalPages: p.TotalPages}
}
