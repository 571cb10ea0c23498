package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendDocuments = "documents"
	BackendSQLite    = "sqlite"
)

// Image persistence modes.
const (
	PersistDisabled   = "disabled"
	PersistBestEffort = "best_effort"
	PersistRequired   = "required"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Store     StoreConfig       `yaml:"store"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Providers ProvidersConfig   `yaml:"providers"`
	Images    ImagesConfig      `yaml:"images"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Store.Backend == BackendSQLite {
		if err := c.SQLite.Validate(); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Providers.Validate(); err != nil {
		return err
	}
	if err := c.Images.Validate(); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	return nil
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

// StoreConfig selects where projects, assets and milestones live.
//
//   - "memory": process-local documents, lost on exit.
//   - "documents": one JSON document per collection under DocumentsPath,
//     reloaded when edited on disk.
//   - "sqlite": the record storage contract on a SQLite file (see SQLite).
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	DocumentsPath string `yaml:"documents_path"`
	Seed          bool   `yaml:"seed"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(BackendMemory, BackendDocuments, BackendSQLite)),
		validation.Field(&c.DocumentsPath, validation.When(c.Backend == BackendDocuments, validation.Required)),
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
	// Normalise empty mode to "disabled" for backward compatibility.
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

// ProvidersConfig holds the upstream AI providers.
type ProvidersConfig struct {
	OpenAI   ProviderConfig `yaml:"openai"`
	Clipdrop ProviderConfig `yaml:"clipdrop"`
}

// Validate validates both providers.
func (c *ProvidersConfig) Validate() error {
	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("providers.openai: %w", err)
	}
	if err := c.Clipdrop.Validate(); err != nil {
		return fmt.Errorf("providers.clipdrop: %w", err)
	}
	return nil
}

// ProviderConfig describes one upstream provider. An empty APIKey falls
// back to the provider's environment variable at request time.
type ProviderConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// ImagesConfig controls generated and streamed image handling.
type ImagesConfig struct {
	Persist           string        `yaml:"persist"`
	UploadsPath       string        `yaml:"uploads_path"`
	MaxBytes          int64         `yaml:"max_bytes"`
	AllowPrivateHosts bool          `yaml:"allow_private_hosts"`
	StreamTimeout     time.Duration `yaml:"stream_timeout"`
}

// Validate validates the images configuration.
func (c *ImagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Persist, validation.Required, validation.In(PersistDisabled, PersistBestEffort, PersistRequired)),
		validation.Field(&c.UploadsPath, validation.Required),
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.StreamTimeout, validation.Required, validation.Min(time.Second)),
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
		Store: StoreConfig{
			Backend:       BackendMemory,
			DocumentsPath: "./data",
			Seed:          true,
		},
		SQLite: SQLiteConfig{
			Path: "./vfxhub.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com/v1",
				Timeout: 60 * time.Second,
			},
			Clipdrop: ProviderConfig{
				BaseURL: "https://clipdrop-api.co",
				Timeout: 60 * time.Second,
			},
		},
		Images: ImagesConfig{
			Persist:       PersistBestEffort,
			UploadsPath:   "./uploads",
			MaxBytes:      100 << 20,
			StreamTimeout: 5 * time.Minute,
		},
	}
}
