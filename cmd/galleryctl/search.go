package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/gallery/internal/flickr"
	"github.com/abelbrown/gallery/internal/gallery"
	"github.com/abelbrown/gallery/internal/photo"
)

// maxConcurrentPages limits parallel page requests.
const maxConcurrentPages = 3

var (
	searchPages int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Fetch pages of photos (recent photos when no term is given)",
	Long: `search fetches pages 1..N of a query concurrently and prints them in page
order. It uses the same client settings as the TUI, including the rate limit.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPages, "pages", 1, "Number of pages to fetch")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output JSON")
	rootCmd.AddCommand(searchCmd)
}

type pageOutput struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Photos     []photoOutput `json:"photos"`
}

type photoOutput struct {
	ID       string `json:"id"`
	Owner    string `json:"owner,omitempty"`
	Title    string `json:"title"`
	ThumbURL string `json:"thumb_url"`
	FullURL  string `json:"full_url"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", searchPages)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := flickr.New(cfg.API.Key,
		flickr.WithEndpoint(cfg.API.Endpoint),
		flickr.WithTimeout(cfg.Timeout()),
		flickr.WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst),
	)

	q := photo.NewQuery(strings.Join(args, " "))
	start := time.Now()
	pages, err := fetchPages(cmd.Context(), client, q, searchPages)
	if err != nil {
		return err
	}

	if searchJSON {
		return writeJSON(os.Stdout, pages)
	}
	writeText(os.Stdout, q, pages, time.Since(start))
	return nil
}

// fetchPages fetches pages 1..n of q concurrently. The first failure
// cancels the rest.
func fetchPages(ctx context.Context, querier gallery.Querier, q photo.Query, n int) ([]photo.Page, error) {
	pages := make([]photo.Page, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			page, err := querier.Query(ctx, q, i+1, gallery.PageSize)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func writeJSON(w io.Writer, pages []photo.Page) error {
	out := make([]pageOutput, len(pages))
	for i, p := range pages {
		out[i] = pageOutput{Page: i + 1, TotalPages: p.TotalPages, Photos: make([]photoOutput, len(p.Photos))}
		for j, ph := range p.Photos {
			out[i].Photos[j] = photoOutput{
				ID:       ph.ID,
				Owner:    ph.Owner,
				Title:    ph.Title,
				ThumbURL: ph.ThumbURL(),
				FullURL:  ph.FullURL(),
			}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, q photo.Query, pages []photo.Page, elapsed time.Duration) {
	total := 0
	for i, p := range pages {
		fmt.Fprintf(w, "── page %d of %d ──\n", i+1, p.TotalPages)
		for _, ph := range p.Photos {
			title := ph.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(w, "  %-12s  %-40s  %s\n", ph.ID, title, ph.ThumbURL())
		}
		total += len(p.Photos)
	}
	fmt.Fprintf(w, "\n%s %s: %d photos in %d pages (%s)\n",
		q.Mode(), q, total, len(pages), elapsed.Round(time.Millisecond))
}
