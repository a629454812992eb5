// Package config resolves goaltrack settings from defaults, an optional
// config file and GOALTRACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/cache"
	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/mutation"
	"github.com/julianstephens/goaltrack/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. GOALTRACK_API_BASE_URL.
const EnvPrefix = "GOALTRACK"

// Keys
const (
	KeyAPIBaseURL          = "api_base_url"
	KeyAuthTokenURL        = "auth_token_url"
	KeyAuthClientID        = "auth_client_id"
	KeyAuthClientSecret    = "auth_client_secret"
	KeyProfile             = "profile"
	KeyTimezone            = "timezone"
	KeyRangeCompletions    = "range_completions"
	KeyHabitSuggestions    = "habit_suggestions"
	KeyPerDayFallback      = "per_day_fallback"
	KeyPerDayConcurrency   = "per_day_concurrency"
	KeyCategoriesFreshness = "categories_freshness"
	KeyGoalsFreshness      = "goals_freshness"
	KeyHTTPTimeout         = "http_timeout"
	KeyReadRetries         = "read_retries"
	KeyStore               = "store"
	KeyUnmarkPolicy        = "unmark_policy"
	KeyDebug               = "debug"
)

// Config is the resolved configuration.
type Config struct {
	APIBaseURL          string                `mapstructure:"api_base_url" json:"api_base_url" yaml:"api_base_url"`
	AuthTokenURL        string                `mapstructure:"auth_token_url" json:"auth_token_url" yaml:"auth_token_url"`
	AuthClientID        string                `mapstructure:"auth_client_id" json:"auth_client_id" yaml:"auth_client_id"`
	AuthClientSecret    string                `mapstructure:"auth_client_secret" json:"-" yaml:"-"`
	Profile             string                `mapstructure:"profile" json:"profile" yaml:"profile"`
	Timezone            string                `mapstructure:"timezone" json:"timezone" yaml:"timezone"`
	RangeCompletions    bool                  `mapstructure:"range_completions" json:"range_completions" yaml:"range_completions"`
	HabitSuggestions    bool                  `mapstructure:"habit_suggestions" json:"habit_suggestions" yaml:"habit_suggestions"`
	PerDayFallback      bool                  `mapstructure:"per_day_fallback" json:"per_day_fallback" yaml:"per_day_fallback"`
	PerDayConcurrency   int                   `mapstructure:"per_day_concurrency" json:"per_day_concurrency" yaml:"per_day_concurrency"`
	CategoriesFreshness time.Duration         `mapstructure:"categories_freshness" json:"categories_freshness" yaml:"categories_freshness"`
	GoalsFreshness      time.Duration         `mapstructure:"goals_freshness" json:"goals_freshness" yaml:"goals_freshness"`
	HTTPTimeout         time.Duration         `mapstructure:"http_timeout" json:"http_timeout" yaml:"http_timeout"`
	ReadRetries         int                   `mapstructure:"read_retries" json:"read_retries" yaml:"read_retries"`
	Store               string                `mapstructure:"store" json:"store" yaml:"store"`
	UnmarkPolicy        string                `mapstructure:"unmark_policy" json:"unmark_policy" yaml:"unmark_policy"`
	Debug               bool                  `mapstructure:"debug" json:"debug" yaml:"debug"`
	File                string                `mapstructure:"-" json:"config_file,omitempty" yaml:"config_file,omitempty"`
	location            *time.Location        `mapstructure:"-"`
	policy              mutation.UnmarkPolicy `mapstructure:"-"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBaseURL, constants.DefaultAPIBaseURL)
	v.SetDefault(KeyAuthTokenURL, "")
	v.SetDefault(KeyAuthClientID, "")
	v.SetDefault(KeyAuthClientSecret, "")
	v.SetDefault(KeyProfile, "default")
	v.SetDefault(KeyTimezone, "Local")
	v.SetDefault(KeyRangeCompletions, true)
	v.SetDefault(KeyHabitSuggestions, false)
	v.SetDefault(KeyPerDayFallback, true)
	v.SetDefault(KeyPerDayConcurrency, 4)
	v.SetDefault(KeyCategoriesFreshness, constants.CategoriesFreshness)
	v.SetDefault(KeyGoalsFreshness, constants.GoalsFreshness)
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeyReadRetries, constants.DefaultReadAttempts)
	v.SetDefault(KeyStore, constants.DefaultStorePath)
	v.SetDefault(KeyUnmarkPolicy, constants.DefaultUnmarkPolicy)
	v.SetDefault(KeyDebug, false)
}

// Load reads configuration. An empty path falls back to the default
// location, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load over a caller-supplied viper instance.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = constants.DefaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(expanded)

	file := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, apperrors.Wrap(apperrors.KindValidation, "config", fmt.Errorf("reading %s: %w", expanded, err))
		}
	} else {
		file = expanded
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, "config", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values and resolves the derived fields.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Newf(apperrors.KindValidation, "config", "%s must be an http(s) URL, got %q", KeyAPIBaseURL, c.APIBaseURL)
	}
	if c.AuthTokenURL != "" {
		if u, err := url.Parse(c.AuthTokenURL); err != nil || u.Host == "" {
			return apperrors.Newf(apperrors.KindValidation, "config", "%s must be a URL, got %q", KeyAuthTokenURL, c.AuthTokenURL)
		}
	}

	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return apperrors.Newf(apperrors.KindValidation, "config", "invalid timezone %q", c.Timezone)
	}
	c.location = loc

	policy, err := mutation.ParseUnmarkPolicy(c.UnmarkPolicy)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "config", err)
	}
	c.policy = policy

	if c.ReadRetries < 1 {
		return apperrors.Newf(apperrors.KindValidation, "config", "%s must be at least 1", KeyReadRetries)
	}
	if c.PerDayConcurrency < 1 {
		return apperrors.Newf(apperrors.KindValidation, "config", "%s must be at least 1", KeyPerDayConcurrency)
	}
	if c.HTTPTimeout <= 0 {
		return apperrors.Newf(apperrors.KindValidation, "config", "%s must be positive", KeyHTTPTimeout)
	}
	if c.CategoriesFreshness < 0 || c.GoalsFreshness < 0 {
		return apperrors.Validation("config", "freshness windows cannot be negative")
	}
	return nil
}

// Location is the time zone that defines "today".
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Unmark is the parsed unmark policy for CLI call sites.
func (c *Config) Unmark() mutation.UnmarkPolicy {
	return c.policy
}

// APIConfig builds the remote client configuration.
func (c *Config) APIConfig() api.Config {
	return api.Config{
		BaseURL: c.APIBaseURL,
		Timeout: c.HTTPTimeout,
		Retry: api.RetryOptions{
			MaxAttempts: c.ReadRetries,
		},
		Capabilities: api.Capabilities{
			RangeCompletions: c.RangeCompletions,
			HabitSuggestions: c.HabitSuggestions,
		},
	}
}

// CacheOptions builds the Entity Cache freshness windows.
func (c *Config) CacheOptions() cache.Options {
	opts := cache.DefaultOptions()
	opts.Freshness = map[cache.Kind]time.Duration{
		cache.KindCategories: c.CategoriesFreshness,
		cache.KindGoals:      c.GoalsFreshness,
	}
	return opts
}

// StorePath returns the store setting with a leading ~ expanded. Postgres
// URLs are returned unchanged.
func (c *Config) StorePath() (string, error) {
	if strings.Contains(c.Store, "://") {
		return c.Store, nil
	}
	return ExpandPath(c.Store)
}

// Dir is the directory holding the config file, logs and the default store.
func (c *Config) Dir() (string, error) {
	if c.File != "" {
		return filepath.Dir(c.File), nil
	}
	return ExpandPath(constants.DefaultConfigDir)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
