// Command gallery is a terminal photo gallery over the Flickr REST API.
//
// Usage:
//
//	gallery                      Browse recent photos
//	gallery --keys ~/keys.sh     Read FLICKR_API_KEY from an export file
//	gallery --columns 2          Fix the grid width
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/gallery/internal/config"
	"github.com/abelbrown/gallery/internal/flickr"
	"github.com/abelbrown/gallery/internal/gallery"
	"github.com/abelbrown/gallery/internal/logging"
	"github.com/abelbrown/gallery/internal/otel"
	"github.com/abelbrown/gallery/internal/store"
	"github.com/abelbrown/gallery/internal/ui"
)

var (
	configPath string
	keysFile   string
	logLevel   string
	columns    int
	noMouse    bool
)

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse and search Flickr photos in the terminal",
	Long: `gallery shows recent public Flickr photos in an infinitely scrolling grid.
Press / to search; past searches are kept as numbered suggestions.`,
	Args:          cobra.NoArgs,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", config.ConfigPath(), "Path to config.json")
	rootCmd.Flags().StringVar(&keysFile, "keys", "", "Shell file with export FLICKR_API_KEY=... lines")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Process log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&columns, "columns", 0, "Grid columns (0 follows the terminal width)")
	rootCmd.Flags().BoolVar(&noMouse, "no-mouse", false, "Disable mouse wheel scrolling")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gallery: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.Logging.Dir, cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "warning: process log disabled: %v\n", err)
	}
	defer logging.Close()

	events, closeEvents := openEventLog()
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "gallery starting")

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	client := newClient(cfg, events)
	ctrl := gallery.New(client, store.NewHistory(st), events)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app := ui.NewApp(ui.AppConfig{
		Controller: ctrl,
		Fetch: func(req gallery.Request) tea.Cmd {
			return func() tea.Msg {
				return ui.PhotosLoaded{Result: ctrl.Execute(ctx, req)}
			}
		},
		Ring:      ring,
		Events:    events,
		AboutTerm: cfg.UI.AboutTerm,
		Columns:   cfg.UI.Columns,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	logging.Info("starting UI", "endpoint", cfg.API.Endpoint, "db", cfg.Storage.DBPath)
	_, runErr := tea.NewProgram(app, opts...).Run()
	events.Info(otel.KindShutdown, "main", "gallery exiting")
	if runErr != nil {
		events.Error(otel.KindError, "main", runErr)
		logging.Error("program exited with error", "err", runErr)
		return fmt.Errorf("run UI: %w", runErr)
	}
	return nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath)
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
	}

	if keysFile != "" {
		if err := cfg.LoadKeysFromFile(keysFile); err != nil {
			return nil, fmt.Errorf("load keys: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if columns > 0 {
		cfg.UI.Columns = columns
	}
	if noMouse {
		cfg.UI.Mouse = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds the Flickr client from cfg. Cache hits are reported as
// events so the debug overlay can count them.
func newClient(cfg *config.Config, events *otel.Logger) *flickr.Client {
	return flickr.New(cfg.API.Key,
		flickr.WithEndpoint(cfg.API.Endpoint),
		flickr.WithTimeout(cfg.Timeout()),
		flickr.WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst),
		flickr.WithCacheTTL(cfg.CacheTTL()),
		flickr.WithCacheHook(func(key string) {
			events.Emit(otel.Event{
				Level: otel.LevelDebug,
				Kind:  otel.KindFetchCached,
				Comp:  "flickr",
				Msg:   key,
			})
		}),
	)
}

// openEventLog opens the JSONL event log for appending. If the file cannot
// be opened events are discarded.
func openEventLog() (*otel.Logger, func()) {
	path := config.EventLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return otel.NewNullLogger(), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Warn("event log disabled", "path", path, "err", err)
		l := otel.NewNullLogger()
		return l, l.Close
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}
}
