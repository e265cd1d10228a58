package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docfill/internal/extract"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Extractor modes.
const (
	ExtractorModeDisabled = "disabled"
	ExtractorModeOllama   = "ollama"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Templates TemplatesConfig   `yaml:"templates"`
	Exports   ExportsConfig     `yaml:"exports"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Extractor ExtractorConfig   `yaml:"extractor"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Templates.Validate(); err != nil {
		return err
	}
	if err := c.Exports.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Extractor.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
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

// TemplatesConfig holds the path to the template directory.
type TemplatesConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the templates configuration.
func (c *TemplatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExportsConfig holds the directory exported documents are written to.
type ExportsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the exports configuration.
func (c *ExportsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
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
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ExtractorConfig selects the AI analyzer used for uploaded documents.
//
// With mode "disabled" uploads still have their text extracted, and the
// analysis reports error kind "disabled".
type ExtractorConfig struct {
	Mode    string        `yaml:"mode"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the extractor configuration.
func (c *ExtractorConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = ExtractorModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ExtractorModeDisabled, ExtractorModeOllama)),
		validation.Field(&c.BaseURL, validation.When(c.Mode == ExtractorModeOllama, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Analyzer builds the analyzer for the configured mode.
func (c *ExtractorConfig) Analyzer() extract.Analyzer {
	if c.Mode == ExtractorModeOllama {
		return extract.NewOllamaAnalyzer(c.BaseURL, c.Model, c.Timeout)
	}
	return extract.Disabled{}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Templates: TemplatesConfig{
			Path: "./templates",
		},
		Exports: ExportsConfig{
			Path: "./exports",
		},
		SQLite: SQLiteConfig{
			Path: "./docfill.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Extractor: ExtractorConfig{
			Mode:    ExtractorModeDisabled,
			BaseURL: extract.DefaultOllamaURL,
			Model:   extract.DefaultOllamaModel,
			Timeout: 2 * time.Minute,
		},
	}
}
