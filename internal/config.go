package internal

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // app.timezone must resolve on hosts without a zoneinfo database

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/devflow/internal/activity"
	"github.com/starford/devflow/internal/narrative"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeJWT      = "jwt"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Import    ImportConfig      `yaml:"import"`
	Analytics AnalyticsConfig   `yaml:"analytics"`
	Summary   SummaryConfig     `yaml:"summary"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return err
	}
	if err := c.Analytics.Validate(); err != nil {
		return err
	}
	return c.Summary.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Timezone is the IANA zone used for day keys and week boundaries.
	Timezone string `yaml:"timezone"`
	// UserID owns the digest when auth is disabled or token-based.
	UserID string     `yaml:"user_id"`
	HTTP   HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.UserID, validation.Required),
		validation.Field(&c.Timezone, validation.By(func(any) error {
			_, err := time.LoadLocation(c.Timezone)
			return err
		})),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Location returns the configured zone. Call after Validate.
func (c *ApplicationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Calendar returns the analytics calendar for the configured zone.
func (c *ApplicationConfig) Calendar() activity.Calendar {
	return activity.NewCalendar(c.Location())
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//   - "jwt": HS256 Bearer JWTs signed with JWTSecret; the sub claim is the user.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken, AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	if c.Mode == AuthModeJWT && c.JWTSecret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", AuthModeJWT)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode != AuthModeDisabled
}

// ImportConfig holds the bundle directory settings.
type ImportConfig struct {
	// Path is the directory scanned for YAML record bundles. Empty disables import.
	Path string `yaml:"path"`
	// Watch keeps the store in step with the directory while serving.
	Watch bool `yaml:"watch"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("import: watch is enabled but path is empty")
	}
	return nil
}

// Enabled reports whether a bundle directory is configured.
func (c *ImportConfig) Enabled() bool {
	return c.Path != ""
}

// AnalyticsConfig holds analytics defaults.
type AnalyticsConfig struct {
	TimelineDays int `yaml:"timeline_days"`
}

// Validate validates the analytics configuration.
func (c *AnalyticsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimelineDays, validation.Min(0), validation.Max(366)),
	)
}

// SummaryConfig configures the weekly digest generator.
type SummaryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Referer     string        `yaml:"referer"`
}

// Validate validates the summary configuration. A missing api_key is not an
// error here; generation reports it per request.
func (c *SummaryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Timezone: "UTC",
			UserID:   "local",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./devflow.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Import: ImportConfig{
			Path:  "./bundles",
			Watch: true,
		},
		Analytics: AnalyticsConfig{
			TimelineDays: activity.DefaultTimelineDays,
		},
		Summary: SummaryConfig{
			Enabled:     true,
			BaseURL:     narrative.DefaultEndpoint,
			Model:       narrative.DefaultModel,
			MaxTokens:   narrative.DefaultMaxTokens,
			Temperature: narrative.DefaultTemperature,
			Timeout:     30 * time.Second,
		},
	}
}
