// Package gallery holds the state machine behind the photo grid: which query
// is active, which page has been loaded, and whether a fetch is outstanding.
//
// The Controller never performs I/O from its transitions. Each transition
// returns a Request; the caller runs it with Execute (typically inside a
// tea.Cmd) and feeds the Result back through Apply. Every request is stamped
// with the query generation it was issued under, so a response that arrives
// after the query changed is dropped instead of being merged.
package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/gallery/internal/logging"
	"github.com/abelbrown/gallery/internal/otel"
	"github.com/abelbrown/gallery/internal/photo"
)

// PageSize is the number of photos requested per page.
const PageSize = 30

// Querier fetches one page of photos. *flickr.Client implements it.
type Querier interface {
	Query(ctx context.Context, q photo.Query, page, perPage int) (photo.Page, error)
}

// History persists past search terms. *store.History implements it.
type History interface {
	Add(term string) error
	List() ([]string, error)
}

// Request describes a fetch the caller must run.
type Request struct {
	Generation uint64 // query generation the request belongs to
	Seq        uint64 // unique per issued request
	Query      photo.Query
	Page       int
	PerPage    int
	Scroll     bool // issued by the scroll sentinel
}

// Result is the outcome of running a Request.
type Result struct {
	Request Request
	Page    photo.Page
	Err     error
	Elapsed time.Duration
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Query       photo.Query
	Generation  uint64
	Photos      []photo.Photo
	Page        int
	TotalPages  int
	Loading     bool
	Fetching    bool
	Modal       *photo.Photo
	Err         error
	Suggestions []string
}

// Controller is the single source of truth for what the gallery shows.
// It is not safe for concurrent use; drive it from one goroutine.
type Controller struct {
	querier Querier
	history History
	events  *otel.Logger

	gen      uint64 // current query generation
	shownGen uint64 // generation the displayed photos belong to
	seq      uint64

	query      photo.Query
	page       int
	totalPages int
	photos     []photo.Photo

	pending *Request // outstanding fetch, nil when idle
	failed  *Request // last failed fetch of the current generation

	loading  bool
	fetching bool
	modal    *photo.Photo
	err      error

	suggestions []string
}

// New creates a Controller. history and events may be nil.
func New(q Querier, h History, events *otel.Logger) *Controller {
	return &Controller{
		querier:    q,
		history:    h,
		events:     events,
		page:       1,
		totalPages: 1,
	}
}

// Initialize loads the stored suggestions and returns the page-1 fetch of
// the recent listing.
func (c *Controller) Initialize() Request {
	c.reloadSuggestions()
	return c.reset(photo.Query{})
}

// Search switches to term, persists a non-empty term to the history and
// returns the page-1 fetch for it. Any outstanding request of the previous
// query becomes stale.
func (c *Controller) Search(term string) Request {
	q := photo.NewQuery(term)
	if q.Term != "" && c.history != nil {
		if err := c.history.Add(q.Term); err != nil {
			c.historyError("add", err)
		} else {
			c.reloadSuggestions()
		}
	}
	return c.reset(q)
}

func (c *Controller) reset(q photo.Query) Request {
	c.gen++
	c.query = q
	c.page = 1
	c.totalPages = 1
	c.photos = nil
	c.pending = nil
	c.failed = nil
	c.fetching = false
	c.err = nil

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSearchStart,
		Comp:    "gallery",
		QueryID: otel.QueryID(c.gen),
		Query:   q.Term,
		Msg:     q.Mode().String(),
	})
	return c.issue(1, false)
}

// RequestMore advances to the next page when more pages exist and nothing
// is in flight. The returned bool is false when no request was issued.
func (c *Controller) RequestMore() (Request, bool) {
	return c.more(false)
}

// OnScrollNearBottom is RequestMore for the scroll sentinel. Fetching stays
// set until the request completes.
func (c *Controller) OnScrollNearBottom() (Request, bool) {
	return c.more(true)
}

func (c *Controller) more(scroll bool) (Request, bool) {
	if !c.CanLoadMore() {
		return Request{}, false
	}
	c.page++
	c.failed = nil
	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindLoadMore,
		Comp:    "gallery",
		QueryID: otel.QueryID(c.gen),
		Query:   c.query.Term,
		Page:    c.page,
		Extra:   map[string]any{"scroll": scroll},
	})
	return c.issue(c.page, scroll), true
}

// Retry reissues the last failed request of the current query.
func (c *Controller) Retry() (Request, bool) {
	if c.failed == nil || c.pending != nil || c.failed.Generation != c.gen {
		return Request{}, false
	}
	failed := *c.failed
	c.failed = nil
	c.page = failed.Page
	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindRetry,
		Comp:    "gallery",
		QueryID: otel.QueryID(c.gen),
		Query:   c.query.Term,
		Page:    failed.Page,
	})
	return c.issue(failed.Page, false), true
}

// CanLoadMore reports whether RequestMore would issue a request.
func (c *Controller) CanLoadMore() bool {
	return c.pending == nil && c.page < c.totalPages
}

func (c *Controller) issue(page int, scroll bool) Request {
	c.seq++
	req := Request{
		Generation: c.gen,
		Seq:        c.seq,
		Query:      c.query,
		Page:       page,
		PerPage:    PageSize,
		Scroll:     scroll,
	}
	c.pending = &req
	c.loading = true
	c.fetching = scroll

	c.events.Emit(otel.Event{
		Level:   otel.LevelDebug,
		Kind:    otel.KindFetchStart,
		Comp:    "gallery",
		QueryID: otel.QueryID(req.Generation),
		Query:   req.Query.Term,
		Page:    req.Page,
	})
	return req
}

// Execute runs req through the Querier. It touches no controller state and
// may be called from any goroutine.
func (c *Controller) Execute(ctx context.Context, req Request) Result {
	start := time.Now()
	page, err := c.querier.Query(ctx, req.Query, req.Page, req.PerPage)
	if err != nil {
		err = fmt.Errorf("fetch %s page %d: %w", req.Query, req.Page, err)
	}
	return Result{Request: req, Page: page, Err: err, Elapsed: time.Since(start)}
}

// Apply merges a completed fetch. It returns false when the result was
// dropped because its query was replaced or it is not the outstanding
// request.
func (c *Controller) Apply(res Result) bool {
	req := res.Request
	if req.Generation != c.gen || c.pending == nil || c.pending.Seq != req.Seq {
		c.events.Emit(otel.Event{
			Level:   otel.LevelDebug,
			Kind:    otel.KindFetchStale,
			Comp:    "gallery",
			QueryID: otel.QueryID(req.Generation),
			Query:   req.Query.Term,
			Page:    req.Page,
			Extra:   map[string]any{"current_qid": otel.QueryID(c.gen)},
		})
		return false
	}

	c.pending = nil
	c.loading = false
	c.fetching = false

	if res.Err != nil {
		c.err = res.Err
		c.failed = &req
		if req.Page > 1 && c.page == req.Page {
			c.page = req.Page - 1
		}
		logging.Error("photo fetch failed", "query", req.Query.Term, "page", req.Page, "err", res.Err)
		c.events.Emit(otel.Event{
			Level:   otel.LevelError,
			Kind:    otel.KindFetchError,
			Comp:    "gallery",
			QueryID: otel.QueryID(req.Generation),
			Query:   req.Query.Term,
			Page:    req.Page,
			Dur:     res.Elapsed,
			Err:     res.Err.Error(),
		})
		return true
	}

	c.err = nil
	c.failed = nil
	if req.Generation != c.shownGen {
		c.photos = append([]photo.Photo(nil), res.Page.Photos...)
		c.shownGen = req.Generation
	} else {
		c.photos = append(c.photos, res.Page.Photos...)
	}
	c.page = req.Page
	c.totalPages = res.Page.TotalPages
	if c.totalPages < c.page {
		c.totalPages = c.page
	}

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindFetchComplete,
		Comp:    "gallery",
		QueryID: otel.QueryID(req.Generation),
		Query:   req.Query.Term,
		Page:    req.Page,
		Count:   len(res.Page.Photos),
		Dur:     res.Elapsed,
		Extra:   map[string]any{"total_pages": c.totalPages, "shown": len(c.photos)},
	})
	return true
}

// OpenPhoto shows p in the full-size overlay.
func (c *Controller) OpenPhoto(p photo.Photo) {
	c.modal = &p
}

// ClosePhoto dismisses the overlay.
func (c *Controller) ClosePhoto() {
	c.modal = nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Query:       c.query,
		Generation:  c.gen,
		Photos:      append([]photo.Photo(nil), c.photos...),
		Page:        c.page,
		TotalPages:  c.totalPages,
		Loading:     c.loading,
		Fetching:    c.fetching,
		Err:         c.err,
		Suggestions: append([]string(nil), c.suggestions...),
	}
	if c.modal != nil {
		m := *c.modal
		s.Modal = &m
	}
	return s
}

func (c *Controller) reloadSuggestions() {
	if c.history == nil {
		return
	}
	terms, err := c.history.List()
	if err != nil {
		c.historyError("list", err)
		return
	}
	c.suggestions = terms
}

func (c *Controller) historyError(op string, err error) {
	logging.Warn("search history "+op+" failed", "err", err)
	c.events.Emit(otel.Event{
		Level: otel.LevelWarn,
		Kind:  otel.KindHistoryError,
		Comp:  "gallery",
		Err:   err.Error(),
		Msg:   op,
	})
}
