// Package photo holds the gallery's data model: photos, pages of photos and
// the query that selects them.
package photo

import (
	"fmt"
	"strings"
)

// ImageHost serves the static image files referenced by a Photo.
const ImageHost = "https://live.staticflickr.com"

// Size suffixes understood by the image host.
const (
	sizeThumb = "m" // 240px on the longest side
	sizeFull  = "c" // 800px on the longest side
)

// Photo is a single result from the photo service. Only the fields needed to
// build image URLs and a caption are kept.
type Photo struct {
	ID     string
	Owner  string
	Server string
	Secret string
	Title  string
}

// ThumbURL returns the grid-sized image URL.
func (p Photo) ThumbURL() string {
	return p.imageURL(sizeThumb)
}

// FullURL returns the image URL used by the full-size overlay.
func (p Photo) FullURL() string {
	return p.imageURL(sizeFull)
}

func (p Photo) imageURL(size string) string {
	return fmt.Sprintf("%s/%s/%s_%s_%s.jpg", ImageHost, p.Server, p.ID, p.Secret, size)
}

// Page is one page of results, normalized from the service response.
type Page struct {
	Photos     []Photo
	TotalPages int
}

// Mode selects which listing the service is asked for.
type Mode int

const (
	// ModeRecent lists the most recent public photos.
	ModeRecent Mode = iota
	// ModeSearch runs a free-text search.
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	default:
		return "recent"
	}
}

// Query is the search term that defines one result set. The zero value lists
// recent photos.
type Query struct {
	Term string
}

// NewQuery trims term; a blank term yields the recent listing.
func NewQuery(term string) Query {
	return Query{Term: strings.TrimSpace(term)}
}

// Mode reports whether q is a search or the recent listing.
func (q Query) Mode() Mode {
	if q.Term == "" {
		return ModeRecent
	}
	return ModeSearch
}

func (q Query) String() string {
	if q.Term == "" {
		return "(recent)"
	}
	return fmt.Sprintf("%q", q.Term)
}
