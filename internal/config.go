package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Uploads UploadsConfig     `yaml:"uploads"`
	Auth    AuthConfig        `yaml:"auth"`
	Crypto  CryptoConfig      `yaml:"crypto"`
	AI      AIConfig          `yaml:"ai"`
	Enrich  EnrichConfig      `yaml:"enrich"`
	MCP     MCPConfig         `yaml:"mcp"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.App, &c.SQLite, &c.Uploads, &c.Auth, &c.Crypto, &c.AI, &c.Enrich,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
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

// UploadsConfig holds the uploads directory settings.
//
// Watch enables the filesystem watcher that re-enriches documents whose
// stored files are rewritten outside the app.
type UploadsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.JWTSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.TokenTTLHours, validation.Min(0)),
	)
}

// TokenTTL returns the configured token lifetime, zero meaning the default.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// CryptoConfig holds the note content encryption secret. Changing it makes
// existing note bodies unreadable; reads then return empty bodies.
type CryptoConfig struct {
	Secret string `yaml:"secret"`
}

// Validate validates the crypto configuration.
func (c *CryptoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.Required, validation.Length(16, 0)),
	)
}

// AIConfig holds the chat completion backend settings. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type AIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKeyEnv, validation.Required),
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
	)
}

// Timeout returns the configured request timeout, zero meaning the default.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EnrichConfig holds the enrichment worker pool settings.
type EnrichConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the enrichment configuration.
func (c *EnrichConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(32)),
	)
}

// MCPConfig selects the account the MCP stdio server operates as.
type MCPConfig struct {
	OwnerEmail string `yaml:"owner_email"`
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
			Path: "./vaultkeep.db",
		},
		Uploads: UploadsConfig{
			Dir:   "./uploads",
			Watch: true,
		},
		Auth: AuthConfig{
			TokenTTLHours: 168,
		},
		AI: AIConfig{
			APIKeyEnv:      "GROQ_API_KEY",
			TimeoutSeconds: 30,
		},
		Enrich: EnrichConfig{
			Workers: 2,
		},
	}
}

// LoadConfig reads a YAML config file, expands ${ENV} references, overlays
// it on the defaults in target, and validates the result.
func LoadConfig(filename string, target *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := target.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
