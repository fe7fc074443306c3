// Command galleryctl is the maintenance and debugging CLI for gallery.
//
// Usage:
//
//	galleryctl search [term]       Fetch pages from the photo service
//	galleryctl history list        Show stored search terms
//	galleryctl history add <term>  Store a search term
//	galleryctl events              JSONL event log viewer
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abelbrown/gallery/internal/config"
	"github.com/abelbrown/gallery/internal/store"
)

var (
	configPath string
	keysFile   string
)

var rootCmd = &cobra.Command{
	Use:   "galleryctl",
	Short: "Debug and maintenance CLI for gallery",
	Long: `galleryctl queries the photo service outside the TUI, inspects the stored
search history and tails the JSONL event log written by gallery.

Environment:
  FLICKR_API_KEY     Flickr API key (required for search)
  GALLERY_ENDPOINT   REST endpoint override
  GALLERY_DB         History database path override`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath(), "Path to config.json")
	rootCmd.PersistentFlags().StringVar(&keysFile, "keys", "", "Shell file with export FLICKR_API_KEY=... lines")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "galleryctl: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and the optional keys file.
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
	return cfg, nil
}

// openStore opens the history database named by cfg.
func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
