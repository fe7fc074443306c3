package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// fixturePages is the page count the fake service reports for every query.
const fixturePages = 3

// fakeFlickr serves the two listing methods with deterministic photos. The
// title of each photo names its query and page, e.g. "cats p2 #5".
type fakeFlickr struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string // "method text page"
	delay    map[string]time.Duration
}

func newFakeFlickr() *fakeFlickr {
	f := &fakeFlickr{delay: map[string]time.Duration{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeFlickr) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := q.Get("method")
	text := q.Get("text")
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	f.mu.Lock()
	f.requests = append(f.requests, fmt.Sprintf("%s %s %d", method, text, page))
	d := f.delay[text]
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}

	w.Header().Set("Content-Type", "application/json")
	if q.Get("api_key") == "" {
		json.NewEncoder(w).Encode(map[string]any{"stat": "fail", "code": 100, "message": "Invalid API Key"})
		return
	}

	label := text
	if method == "flickr.photos.getRecent" {
		label = "recent"
	}
	if perPage <= 0 {
		perPage = 30
	}

	photos := make([]map[string]any, 0, perPage)
	for i := 1; i <= perPage; i++ {
		photos = append(photos, map[string]any{
			"id":     fmt.Sprintf("%s-%d-%d", label, page, i),
			"owner":  "fixture@N00",
			"secret": "f1x7",
			"server": "65535",
			"farm":   66,
			"title":  fmt.Sprintf("%s p%d #%d", label, page, i),
		})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"stat": "ok",
		"photos": map[string]any{
			"page":    page,
			"pages":   strconv.Itoa(fixturePages),
			"perpage": perPage,
			"total":   fixturePages * perPage,
			"photo":   photos,
		},
	})
}

// slow makes requests for term take d.
func (f *fakeFlickr) slow(term string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay[term] = d
}

func (f *fakeFlickr) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}
