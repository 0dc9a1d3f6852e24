package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Storage   StorageConfig     `yaml:"storage"`
	Auth      AuthConfig        `yaml:"auth"`
	Thumbnail ThumbnailConfig   `yaml:"thumbnail"`
	Document  DocumentConfig    `yaml:"document"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Thumbnail.Validate(); err != nil {
		return err
	}
	return c.Document.Validate()
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

// StorageConfig holds the scanned image directory and the page database.
type StorageConfig struct {
	ImageDir string `yaml:"image_dir"`
	StateDB  string `yaml:"state_db"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ImageDir, validation.Required),
		validation.Field(&c.StateDB, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
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

// ThumbnailConfig controls page thumbnail rendering.
type ThumbnailConfig struct {
	Width    int           `yaml:"width"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Validate validates the thumbnail configuration.
func (c *ThumbnailConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(16), validation.Max(4096)),
		validation.Field(&c.CacheTTL, validation.Required, validation.Min(time.Second)),
	)
}

// DocumentConfig holds document-wide settings reported with every page.
type DocumentConfig struct {
	// DefaultLanguage is the BCP 47 tag of the document's main language.
	DefaultLanguage string `yaml:"default_language"`
}

// Validate validates the document configuration.
func (c *DocumentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLanguage, validation.By(func(v any) error {
			s, _ := v.(string)
			if s == "" {
				return nil
			}
			if _, err := language.Parse(s); err != nil {
				return errors.New("must be a BCP 47 language tag")
			}
			return nil
		})),
	)
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
		Storage: StorageConfig{
			ImageDir: "./pages",
			StateDB:  "./pdfmcr.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Thumbnail: ThumbnailConfig{
			Width:    200,
			CacheTTL: 10 * time.Minute,
		},
	}
}
