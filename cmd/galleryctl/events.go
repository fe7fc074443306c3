package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/gallery/internal/config"
)

// eventRecord mirrors otel.Event for JSON decoding.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	QueryID   string         `json:"qid"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	Page      int            `json:"page"`
	Query     string         `json:"query"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

type eventsOptions struct {
	path    string
	tail    int
	follow  bool
	kind    string
	level   string
	comp    string
	qid     string
	session string
	rawJSON bool
}

var eventsOpts eventsOptions

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log written by gallery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventsOpts.path == "" {
			eventsOpts.path = config.EventLogPath()
		}
		return runEvents(cmd.Context(), eventsOpts, os.Stdout)
	},
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsOpts.path, "file", "", "Event log path (default ~/.gallery/gallery.events.jsonl)")
	f.IntVar(&eventsOpts.tail, "tail", 50, "Number of recent lines to show")
	f.BoolVarP(&eventsOpts.follow, "follow", "f", false, "Follow mode (like tail -f)")
	f.StringVar(&eventsOpts.kind, "kind", "", "Filter by event kind prefix (e.g. 'fetch')")
	f.StringVar(&eventsOpts.level, "level", "", "Minimum level: debug, info, warn, error")
	f.StringVar(&eventsOpts.comp, "comp", "", "Filter by component name")
	f.StringVar(&eventsOpts.qid, "qid", "", "Filter by query ID (e.g. g3)")
	f.StringVar(&eventsOpts.session, "session", "", "Filter by session ID prefix")
	f.BoolVar(&eventsOpts.rawJSON, "json", false, "Output raw JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func (o eventsOptions) match(ev eventRecord) bool {
	if o.kind != "" && !strings.HasPrefix(ev.Kind, o.kind) {
		return false
	}
	if o.level != "" && levelRank(ev.Level) < levelRank(o.level) {
		return false
	}
	if o.comp != "" && ev.Comp != o.comp {
		return false
	}
	if o.qid != "" && ev.QueryID != o.qid {
		return false
	}
	if o.session != "" && !strings.HasPrefix(ev.SessionID, o.session) {
		return false
	}
	return true
}

func (o eventsOptions) format(ev eventRecord, raw []byte) string {
	if o.rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-18s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.QueryID != "" {
		parts = append(parts, ev.QueryID)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", ev.Page))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

// runEvents prints the last o.tail matching events, then keeps printing new
// ones in follow mode until ctx is done.
func runEvents(ctx context.Context, o eventsOptions, w io.Writer) error {
	f, err := os.Open(o.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("event log not found at %s; run gallery first to generate events", o.path)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	for _, l := range readTailLines(f, o.tail, o.match) {
		fmt.Fprintln(w, o.format(l.ev, l.raw))
	}
	if !o.follow {
		return nil
	}

	reader := bufio.NewReader(f)
	var partial []byte
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			partial = append(partial, line...)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(append(partial, line...))
		partial = nil
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if o.match(ev) {
			fmt.Fprintln(w, o.format(ev, line))
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
