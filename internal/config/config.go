// Package config loads the tipdash YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/tipcache"
	"github.com/unkn0wn-root/tipcache/api"
	"github.com/unkn0wn-root/tipcache/tooltip"
)

const (
	appName        = "tipdash"
	configFileName = "config.yaml"

	DefaultBackendURL     = "http://127.0.0.1:8787"
	DefaultBackendTimeout = 10 * time.Second
	DefaultServeAddr      = "127.0.0.1:8787"

	// DefaultTimeZone resolves to a fixed UTC+8 zone when tzdata is missing.
	DefaultTimeZone = "Asia/Shanghai"
)

type BackendConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Format  string        `yaml:"format,omitempty"` // json or cbor
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type CacheConfig struct {
	Capacity        int           `yaml:"capacity,omitempty"`
	TTL             time.Duration `yaml:"ttl,omitempty"`
	CleanupInterval time.Duration `yaml:"cleanup_interval,omitempty"`
}

type RequestsConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent,omitempty"`
	MergeWindow   time.Duration `yaml:"merge_window,omitempty"`
	FailureTTL    time.Duration `yaml:"failure_ttl,omitempty"`
}

type TooltipConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	AutoClose    time.Duration `yaml:"auto_close,omitempty"`
	FadeOut      time.Duration `yaml:"fade_out,omitempty"`
	ErrorDismiss time.Duration `yaml:"error_dismiss,omitempty"`
	TimeZone     string        `yaml:"time_zone,omitempty"`
	TimeLayout   string        `yaml:"time_layout,omitempty"`
}

// ServeConfig configures the development backend.
type ServeConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Fixtures string `yaml:"fixtures,omitempty"` // empty uses the bundled fixtures
}

// Config is the on-disk document. Zero fields take their defaults.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Cache    CacheConfig    `yaml:"cache"`
	Requests RequestsConfig `yaml:"requests"`
	Tooltip  TooltipConfig  `yaml:"tooltip"`
	Serve    ServeConfig    `yaml:"serve"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	lru := tipcache.DefaultLRUConfig()
	co := tipcache.DefaultCoordinatorConfig()
	tt := tooltip.DefaultConfig()
	return &Config{
		Backend: BackendConfig{
			URL:     DefaultBackendURL,
			Format:  "json",
			Timeout: DefaultBackendTimeout,
		},
		Cache: CacheConfig{
			Capacity:        lru.Capacity,
			TTL:             lru.TTL,
			CleanupInterval: lru.CleanupInterval,
		},
		Requests: RequestsConfig{
			MaxConcurrent: co.MaxConcurrent,
			MergeWindow:   co.MergeWindow,
			FailureTTL:    co.FailureTTL,
		},
		Tooltip: TooltipConfig{
			Debounce:     tt.Debounce,
			AutoClose:    tt.AutoClose,
			FadeOut:      tt.FadeOut,
			ErrorDismiss: tt.ErrorDismiss,
			TimeZone:     DefaultTimeZone,
			TimeLayout:   tt.TimeLayout,
		},
		Serve: ServeConfig{Addr: DefaultServeAddr},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/tipdash/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// Load reads path over the defaults. An empty path reads DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a YAML document over the defaults and validates it.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("backend.url", c.Backend.URL)
	}
	if _, ok := api.CodecByName[api.Envelope[api.Website]](c.Backend.Format); !ok {
		return invalid("backend.format", c.Backend.Format)
	}
	if c.Backend.Timeout < 0 {
		return invalid("backend.timeout", c.Backend.Timeout)
	}
	if tz := c.Tooltip.TimeZone; tz != "" && tz != DefaultTimeZone {
		if _, err := time.LoadLocation(tz); err != nil {
			return invalid("tooltip.time_zone", c.Tooltip.TimeZone)
		}
	}
	return c.CoordinatorConfig(nil).Validate()
}

// CoordinatorConfig maps the cache and requests sections.
func (c *Config) CoordinatorConfig(log *slog.Logger) tipcache.CoordinatorConfig {
	return tipcache.CoordinatorConfig{
		MaxConcurrent: c.Requests.MaxConcurrent,
		MergeWindow:   c.Requests.MergeWindow,
		FailureTTL:    c.Requests.FailureTTL,
		Cache: tipcache.LRUConfig{
			Capacity:        c.Cache.Capacity,
			TTL:             c.Cache.TTL,
			CleanupInterval: c.Cache.CleanupInterval,
		},
		Logger: log,
	}
}

// TooltipConfig maps the tooltip section. An unknown zone falls back to
// the controller default.
func (c *Config) TooltipConfig(log *slog.Logger) tooltip.Config {
	cfg := tooltip.Config{
		Debounce:     c.Tooltip.Debounce,
		AutoClose:    c.Tooltip.AutoClose,
		FadeOut:      c.Tooltip.FadeOut,
		ErrorDismiss: c.Tooltip.ErrorDismiss,
		TimeLayout:   c.Tooltip.TimeLayout,
		Logger:       log,
	}
	if c.Tooltip.TimeZone != "" {
		if loc, err := time.LoadLocation(c.Tooltip.TimeZone); err == nil {
			cfg.Location = loc
		}
	}
	return cfg
}

// ClientOptions builds the api client options for the backend section.
func (c *Config) ClientOptions(log *slog.Logger) []api.ClientOption {
	var opts []api.ClientOption
	if log != nil {
		opts = append(opts, api.WithLogger(log))
	}
	if codec, ok := api.CodecByName[api.Envelope[api.Website]](c.Backend.Format); ok {
		opts = append(opts, api.WithCodec(codec))
	}
	if c.Backend.Timeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: c.Backend.Timeout}))
	}
	return opts
}

func invalid(field string, value any) error {
	return fmt.Errorf("%w: %s=%v", tipcache.ErrInvalidConfig, field, value)
}
