package flickr

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/gallery/internal/photo"
)

const okBody = `{
  "photos": {
    "page": 1, "pages": 5, "perpage": 30, "total": 150,
    "photo": [
      {"id": "101", "owner": "o1", "secret": "s1", "server": "65535", "farm": 66, "title": "Harbour", "ispublic": 1},
      {"id": "102", "owner": "o2", "secret": "s2", "server": "65535", "farm": 66, "title": "", "ispublic": 1}
    ]
  },
  "stat": "ok"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{WithEndpoint(server.URL), WithRateLimit(0, 0)}, opts...)
	return New("test-key", opts...)
}

func TestParamsRecent(t *testing.T) {
	c := New("k")
	v := c.Params(photo.NewQuery(""), 2, 30)

	assert.Equal(t, "k", v.Get("api_key"))
	assert.Equal(t, MethodRecent, v.Get("method"))
	assert.Equal(t, "json", v.Get("format"))
	assert.Equal(t, "1", v.Get("nojsoncallback"))
	assert.Equal(t, "30", v.Get("per_page"))
	assert.Equal(t, "2", v.Get("page"))
	assert.False(t, v.Has("text"), "recent listing must not send text")
}

func TestParamsSearch(t *testing.T) {
	c := New("k")
	v := c.Params(photo.NewQuery(" sea lions "), 1, 30)

	assert.Equal(t, MethodSearch, v.Get("method"))
	assert.Equal(t, "sea lions", v.Get("text"))
}

func TestQueryDecodesPage(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, okBody)
	})

	page, err := c.Query(context.Background(), photo.NewQuery("cats"), 1, 30)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "method=flickr.photos.search")
	assert.Contains(t, gotQuery, "text=cats")
	assert.Equal(t, 5, page.TotalPages)
	require.Len(t, page.Photos, 2)
	assert.Equal(t, photo.Photo{ID: "101", Owner: "o1", Server: "65535", Secret: "s1", Title: "Harbour"}, page.Photos[0])
	assert.Equal(t, "102", page.Photos[1].ID)
}

func TestQueryAcceptsStringCounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"photos":{"page":"1","pages":"12","perpage":"30","total":"","photo":[]},"stat":"ok"}`)
	})

	page, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalPages)
	assert.Empty(t, page.Photos)
	assert.NotNil(t, page.Photos)
}

func TestQueryAPIErrorWithStatusOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"stat":"fail","code":100,"message":"Invalid API Key (Key has invalid format)"}`)
	})

	_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T", err)
	assert.Equal(t, 100, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Invalid API Key")
}

func TestQueryHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestQueryMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":        "<html>oops</html>",
		"missing photos":  `{"stat":"ok"}`,
		"unknown stat":    `{"stat":"maybe","photos":{"pages":1,"photo":[]}}`,
		"bad pages value": `{"stat":"ok","photos":{"pages":"many","photo":[]}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})
			_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestQueryTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New("k", WithEndpoint(url), WithRateLimit(0, 0))
	_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch photos")
}

func TestQueryCancelledContext(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, okBody)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Query(ctx, photo.Query{}, 1, 30)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestQueryGzipBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte(okBody))
		zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})

	page, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.NoError(t, err)
	assert.Len(t, page.Photos, 2)
}

func TestQueryBrotliBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte(okBody))
		bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	})

	page, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalPages)
}

func TestQueryCacheCollapsesIdenticalRequests(t *testing.T) {
	var hits atomic.Int32
	var cachedKeys []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, okBody)
	}, WithCacheTTL(time.Minute), WithCacheHook(func(key string) {
		cachedKeys = append(cachedKeys, key)
	}))

	ctx := context.Background()
	first, err := c.Query(ctx, photo.Query{}, 1, 30)
	require.NoError(t, err)
	second, err := c.Query(ctx, photo.Query{}, 1, 30)
	require.NoError(t, err)
	_, err = c.Query(ctx, photo.Query{}, 2, 30)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load(), "page 1 should be served from cache the second time")
	assert.Equal(t, first, second)
	require.Len(t, cachedKeys, 1)
	assert.True(t, strings.Contains(cachedKeys[0], "page=1"))
	assert.NotContains(t, cachedKeys[0], "test-key", "cache keys must not carry the API key")

	// Callers own the returned slice.
	second.Photos[0].Title = "mutated"
	third, err := c.Query(ctx, photo.Query{}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, "Harbour", third.Photos[0].Title)
}

func TestQueryCacheEntriesExpireWhileRead(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, okBody)
	}, WithCacheTTL(200*time.Millisecond))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
	}
	// Reads must not extend an entry's lifetime.
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

func TestQueryDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"stat":"fail","code":105,"message":"Service currently unavailable"}`)
			return
		}
		fmt.Fprint(w, okBody)
	}, WithCacheTTL(time.Minute))

	_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.Error(t, err)
	page, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.NoError(t, err)
	assert.Len(t, page.Photos, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestTimeoutDoesNotModifyCallerClient(t *testing.T) {
	for _, name := range []string{"timeout first", "client first"} {
		t.Run(name, func(t *testing.T) {
			hc := &http.Client{}
			opts := []Option{WithTimeout(5 * time.Second), WithHTTPClient(hc)}
			if name == "client first" {
				opts = []Option{WithHTTPClient(hc), WithTimeout(5 * time.Second)}
			}
			c := New("k", opts...)
			assert.Zero(t, hc.Timeout)
			assert.Equal(t, 5*time.Second, c.client.Timeout)
		})
	}
}

func TestDefaultTimeout(t *testing.T) {
	c := New("k")
	assert.Equal(t, 30*time.Second, c.client.Timeout)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okBody)
	}, WithRateLimit(0.001, 1))

	_, err := c.Query(context.Background(), photo.Query{}, 1, 30)
	require.NoError(t, err, "first request uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Query(ctx, photo.Query{}, 2, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
