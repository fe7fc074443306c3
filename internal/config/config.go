package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEndpoint is the Flickr REST endpoint.
const DefaultEndpoint = "https://www.flickr.com/services/rest/"

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("config: FLICKR_API_KEY is not set")

// Config is the persistent application configuration
type Config struct {
	API     APIConfig     `json:"api"`
	UI      UIConfig      `json:"ui"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

// APIConfig holds the photo service settings
type APIConfig struct {
	Key               string  `json:"key,omitempty"`
	Endpoint          string  `json:"endpoint"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	CacheTTLSeconds   int     `json:"cache_ttl_seconds"` // 0 disables the in-memory page cache
}

// UIConfig holds UI preferences
type UIConfig struct {
	Columns   int    `json:"columns"`    // 0 picks a column count from the terminal width
	AboutTerm string `json:"about_term"` // search term behind the About key
	Mouse     bool   `json:"mouse"`
}

// StorageConfig locates the search history database
type StorageConfig struct {
	DBPath string `json:"db_path"`
}

// LoggingConfig controls the process log and event log
type LoggingConfig struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// DataDir returns ~/.gallery.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gallery")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		API: APIConfig{
			Endpoint:          DefaultEndpoint,
			TimeoutSeconds:    30,
			RequestsPerSecond: 1,
			Burst:             3,
			CacheTTLSeconds:   30,
		},
		UI: UIConfig{
			AboutTerm: "about",
			Mouse:     true,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dir, "gallery.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   filepath.Join(dir, "logs"),
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// EventLogPath returns the path of the JSONL event log.
func EventLogPath() string {
	return filepath.Join(DataDir(), "gallery.events.jsonl")
}

// Load reads the config at ConfigPath, or returns defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults. A file
// that does not parse yields defaults and the parse error, so callers can
// warn and carry on. Environment overrides are applied in both cases.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal over the defaults so absent fields keep them.
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		cfg.AutoPopulateFromEnv()
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // holds the API key
}

// AutoPopulateFromEnv applies environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if key := strings.TrimSpace(os.Getenv("FLICKR_API_KEY")); key != "" {
		c.API.Key = key
	}
	if endpoint := os.Getenv("GALLERY_ENDPOINT"); endpoint != "" {
		c.API.Endpoint = endpoint
	}
	if db := os.Getenv("GALLERY_DB"); db != "" {
		c.Storage.DBPath = db
	}
}

// LoadKeysFromFile loads keys from a shell script of export KEY=value lines.
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch strings.TrimSpace(key) {
		case "FLICKR_API_KEY":
			c.API.Key = value
		case "GALLERY_ENDPOINT":
			c.API.Endpoint = value
		}
	}

	return nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return ErrMissingAPIKey
	}
	if c.API.Endpoint == "" {
		return errors.New("config: api.endpoint is empty")
	}
	if c.API.RequestsPerSecond < 0 || c.API.Burst < 0 || c.API.CacheTTLSeconds < 0 {
		return errors.New("config: api limits must not be negative")
	}
	if c.UI.Columns < 0 {
		return fmt.Errorf("config: ui.columns must not be negative, got %d", c.UI.Columns)
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long identical page requests are served from memory.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}
