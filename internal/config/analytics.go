package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WindowLimit is a count threshold evaluated over a trailing window.
type WindowLimit struct {
	Limit         int `mapstructure:"limit"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type RateLimits struct {
	ContactSubmit WindowLimit `mapstructure:"contact_submit"`
	LoginFailure  WindowLimit `mapstructure:"login_failure"`
}

// AnalyticsConfig holds tunables that operators may change without a restart.
type AnalyticsConfig struct {
	DefaultWindowDays int        `mapstructure:"default_window_days"`
	TopPagesLimit     int        `mapstructure:"top_pages_limit"`
	RateLimits        RateLimits `mapstructure:"rate_limits"`
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		DefaultWindowDays: 30,
		TopPagesLimit:     10,
		RateLimits: RateLimits{
			ContactSubmit: WindowLimit{Limit: 10, WindowMinutes: 60},
			LoginFailure:  WindowLimit{Limit: 5, WindowMinutes: 15},
		},
	}
}

type AnalyticsConfigHolder struct {
	current atomic.Value // holds AnalyticsConfig
}

// NewStaticAnalyticsConfigHolder returns a holder that never reloads.
func NewStaticAnalyticsConfigHolder(cfg AnalyticsConfig) *AnalyticsConfigHolder {
	holder := &AnalyticsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAnalyticsConfigHolder() (*AnalyticsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analytics")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/frontdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FRONTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAnalyticsConfig()
	v.SetDefault("analytics.default_window_days", defaults.DefaultWindowDays)
	v.SetDefault("analytics.top_pages_limit", defaults.TopPagesLimit)
	v.SetDefault("analytics.rate_limits.contact_submit.limit", defaults.RateLimits.ContactSubmit.Limit)
	v.SetDefault("analytics.rate_limits.contact_submit.window_minutes", defaults.RateLimits.ContactSubmit.WindowMinutes)
	v.SetDefault("analytics.rate_limits.login_failure.limit", defaults.RateLimits.LoginFailure.Limit)
	v.SetDefault("analytics.rate_limits.login_failure.window_minutes", defaults.RateLimits.LoginFailure.WindowMinutes)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg AnalyticsConfig
	if err := v.UnmarshalKey("analytics", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalyticsConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticAnalyticsConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnalyticsConfig
		if err := v.UnmarshalKey("analytics", &updated); err != nil {
			log.Printf("[analytics-config] reload failed: %v", err)
			return
		}
		if err := validateAnalyticsConfig(updated); err != nil {
			log.Printf("[analytics-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[analytics-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AnalyticsConfigHolder) Get() AnalyticsConfig {
	if h == nil {
		return DefaultAnalyticsConfig()
	}
	return h.current.Load().(AnalyticsConfig)
}

func validateAnalyticsConfig(cfg AnalyticsConfig) error {
	if cfg.DefaultWindowDays <= 0 {
		return errors.New("analytics.default_window_days must be positive")
	}
	if cfg.TopPagesLimit <= 0 {
		return errors.New("analytics.top_pages_limit must be positive")
	}
	for name, limit := range map[string]WindowLimit{
		"contact_submit": cfg.RateLimits.ContactSubmit,
		"login_failure":  cfg.RateLimits.LoginFailure,
	} {
		if limit.Limit <= 0 || limit.WindowMinutes <= 0 {
			return errors.New("analytics.rate_limits." + name + " must be positive")
		}
	}
	return nil
}
