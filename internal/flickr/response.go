package flickr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/abelbrown/gallery/internal/photo"
)

// envelope is the JSON shape of both listing methods.
type envelope struct {
	Stat    string      `json:"stat"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Photos  *photosPage `json:"photos"`
}

type photosPage struct {
	Page    flexInt      `json:"page"`
	Pages   flexInt      `json:"pages"`
	PerPage flexInt      `json:"perpage"`
	Total   flexInt      `json:"total"`
	Photo   []photoEntry `json:"photo"`
}

type photoEntry struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Secret string `json:"secret"`
	Server string `json:"server"`
	Title  string `json:"title"`
}

// flexInt accepts 12, "12" and "" (as 0). The search method has returned
// counts as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("flexInt %q: %w", s, err)
		}
		*n = flexInt(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

// decodePage parses a response body into a page, turning stat=fail into an
// *APIError.
func decodePage(r io.Reader) (photo.Page, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return photo.Page{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	switch env.Stat {
	case "ok":
	case "fail":
		return photo.Page{}, &APIError{Code: env.Code, Message: env.Message}
	default:
		return photo.Page{}, fmt.Errorf("%w: unexpected stat %q", ErrMalformedResponse, env.Stat)
	}

	if env.Photos == nil {
		return photo.Page{}, fmt.Errorf("%w: missing photos object", ErrMalformedResponse)
	}

	photos := make([]photo.Photo, 0, len(env.Photos.Photo))
	for _, p := range env.Photos.Photo {
		photos = append(photos, photo.Photo{
			ID:     p.ID,
			Owner:  p.Owner,
			Server: p.Server,
			Secret: p.Secret,
			Title:  p.Title,
		})
	}

	return photo.Page{Photos: photos, TotalPages: int(env.Photos.Pages)}, nil
}
