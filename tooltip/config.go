package tooltip

import (
	"log/slog"
	"time"
)

const (
	defaultDebounce     = 250 * time.Millisecond
	defaultAutoClose    = 5 * time.Second
	defaultFadeOut      = 150 * time.Millisecond
	defaultErrorDismiss = 2 * time.Second
	defaultTimeLayout   = "2006/01/02 15:04:05"
	defaultZone         = "Asia/Shanghai"
)

// Config holds the controller timings and display settings.
type Config struct {
	Debounce     time.Duration // hover intent delay before resolving
	AutoClose    time.Duration // how long a tooltip stays without interaction
	FadeOut      time.Duration
	ErrorDismiss time.Duration // error tooltips ignore the pointer and AutoClose

	Location   *time.Location // zone for last-access timestamps
	TimeLayout string

	Logger *slog.Logger
}

// DefaultConfig returns the dashboard timings.
func DefaultConfig() Config {
	return Config{
		Debounce:     defaultDebounce,
		AutoClose:    defaultAutoClose,
		FadeOut:      defaultFadeOut,
		ErrorDismiss: defaultErrorDismiss,
		Location:     defaultLocation(),
		TimeLayout:   defaultTimeLayout,
	}
}

func (c *Config) fillDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	if c.AutoClose <= 0 {
		c.AutoClose = defaultAutoClose
	}
	if c.FadeOut <= 0 {
		c.FadeOut = defaultFadeOut
	}
	if c.ErrorDismiss <= 0 {
		c.ErrorDismiss = defaultErrorDismiss
	}
	if c.Location == nil {
		c.Location = defaultLocation()
	}
	if c.TimeLayout == "" {
		c.TimeLayout = defaultTimeLayout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// defaultLocation falls back to a fixed UTC+8 zone when tzdata is missing.
func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}
