package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Blobs  BlobsConfig       `yaml:"blobs"`
	Auth   AuthConfig        `yaml:"auth"`
	Index  IndexConfig       `yaml:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Blobs.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Index.Validate()
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

// BlobsConfig holds the path to the attachment blob directory.
type BlobsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the blobs configuration.
func (c *BlobsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TokenOwner maps one bearer token to an owner id.
type TokenOwner struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how owner identity is resolved:
//   - "disabled" (default): every request runs as Owner; suitable for a
//     single-user local install.
//   - "token": Bearer token authentication; each token in Tokens maps to an
//     owner id.
type AuthConfig struct {
	Mode   string       `yaml:"mode"`
	Owner  string       `yaml:"owner"`
	Tokens []TokenOwner `yaml:"tokens"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if c.Owner == "" {
		c.Owner = "local"
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken {
		if len(c.Tokens) == 0 {
			return fmt.Errorf("auth: mode is %q but no tokens are configured", AuthModeToken)
		}
		for _, to := range c.Tokens {
			if to.Token == "" || to.Owner == "" {
				return fmt.Errorf("auth: every token entry needs both token and owner")
			}
		}
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TokenOwners returns the token-to-owner lookup map.
func (c *AuthConfig) TokenOwners() map[string]string {
	m := make(map[string]string, len(c.Tokens))
	for _, to := range c.Tokens {
		m[to.Token] = to.Owner
	}
	return m
}

// IndexConfig holds background indexing configuration.
type IndexConfig struct {
	QueueSize    int `yaml:"queue_size"`
	MaxTreeDepth int `yaml:"max_tree_depth"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.QueueSize, validation.Min(0)),
		validation.Field(&c.MaxTreeDepth, validation.Min(0)),
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
		SQLite: SQLiteConfig{
			Path: "./foliant.db",
		},
		Blobs: BlobsConfig{
			Path: "./blobs",
		},
		Auth: AuthConfig{
			Mode:  AuthModeDisabled,
			Owner: "local",
		},
		Index: IndexConfig{
			QueueSize:    256,
			MaxTreeDepth: 100,
		},
	}
}
