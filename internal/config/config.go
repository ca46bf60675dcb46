package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"monthcal/internal/fsutil"
)

// ErrNoCalendars is returned when neither Google calendar IDs nor ICS
// sources are configured; a run has nothing to fetch.
var ErrNoCalendars = errors.New("config: no allowed-calendar-ids or ics sources configured")

const (
	defaultListen     = "127.0.0.1:8080"
	defaultTimezone   = "Local"
	defaultOutputDir  = "."
	defaultMaxResults = 250
	defaultRefresh    = "0 * * * *"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is the calendar identifier used for logging and grouping.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the optional PNG screenshot of the rendered page.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Width   int  `yaml:"width" json:"width"`
	Height  int  `yaml:"height" json:"height"`
}

// Config is the top-level application configuration. The file may be YAML
// or JSON; the key names match the legacy calendars.json.
type Config struct {
	// AllowedCalendarIDs lists the Google calendar IDs to query.
	AllowedCalendarIDs []string `yaml:"allowed-calendar-ids" json:"allowed-calendar-ids"`

	// Timezone is the IANA timezone used for grouping and display. "Local"
	// uses the host timezone.
	Timezone string `yaml:"timezone" json:"timezone" env:"MONTHCAL_TIMEZONE"`

	// OutputDir receives calendar-YYYY-MM.html (and preview.png).
	OutputDir string `yaml:"output_dir" json:"output_dir" env:"MONTHCAL_OUTPUT_DIR"`

	// MaxResults caps the events requested per calendar.
	MaxResults int64 `yaml:"max_results" json:"max_results"`

	// CredentialsFile is the OAuth client secret JSON downloaded from the
	// Google Cloud console; TokenFile holds a previously authorized token.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`

	// APIKey, if set, is used instead of OAuth (public calendars only).
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" env:"MONTHCAL_API_KEY"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// ICSCacheDir stores ETag/Last-Modified metadata and bodies.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// RefreshCron is the cron schedule used by `serve` (e.g. "0 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen is the HTTP listen address for `serve`.
	Listen string `yaml:"listen" json:"listen" env:"MONTHCAL_LISTEN"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// LogLevel and LogFormat only come from the environment; they provide
	// the defaults of the --log-level and --log-format flags.
	LogLevel  string `yaml:"-" json:"-" env:"MONTHCAL_LOG_LEVEL"`
	LogFormat string `yaml:"-" json:"-" env:"MONTHCAL_LOG_FORMAT"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		AllowedCalendarIDs: []string{"primary"},
		Timezone:           defaultTimezone,
		OutputDir:          defaultOutputDir,
		MaxResults:         defaultMaxResults,
		CredentialsFile:    "data/client_secret.json",
		TokenFile:          "data/token.json",
		ICS:                []ICSConfig{},
		ICSCacheDir:        "data/ics-cache",
		RefreshCron:        defaultRefresh,
		Listen:             defaultListen,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (such as a bare calendars.json) still work.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaultMaxResults
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "data/ics-cache"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			if c.ICS[i].Name != "" {
				c.ICS[i].ID = c.ICS[i].Name
			} else {
				c.ICS[i].ID = c.ICS[i].URL
			}
		}
	}
}

// Validate reports configuration problems that make a run impossible.
func (c *Config) Validate() error {
	if len(c.AllowedCalendarIDs) == 0 && len(c.ICS) == 0 {
		return ErrNoCalendars
	}
	for _, id := range c.AllowedCalendarIDs {
		if id == "" {
			return errors.New("config: allowed-calendar-ids contains an empty id")
		}
	}
	for _, src := range c.ICS {
		if src.URL == "" {
			return fmt.Errorf("config: ics source %q has no url", src.ID)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == defaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML (or JSON) path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the file is parsed, defaults are filled in, MONTHCAL_*
//     environment variables are applied and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			if err := applyEnv(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FromEnv returns a Config holding only the fields tagged with `env` that
// are set in the process environment.
func FromEnv() (*Config, error) {
	var over Config
	if err := env.Parse(&over); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return &over, nil
}

// applyEnv overrides fields tagged with `env` from the process environment.
// Unset variables leave the file value in place.
func applyEnv(cfg *Config) error {
	over, err := FromEnv()
	if err != nil {
		return err
	}
	cfg.LogLevel, cfg.LogFormat = over.LogLevel, over.LogFormat
	if over.Timezone != "" {
		cfg.Timezone = over.Timezone
	}
	if over.OutputDir != "" {
		cfg.OutputDir = over.OutputDir
	}
	if over.APIKey != "" {
		cfg.APIKey = over.APIKey
	}
	if over.Listen != "" {
		cfg.Listen = over.Listen
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, fsutil.PrivateFile, fsutil.PrivateDir)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
