// Package config provides the configuration structure for the voiceforge API
// service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"
)

// ErrSigningSecretEmpty indicates that no signed-URL secret was provided.
var ErrSigningSecretEmpty = errors.New("signing secret cannot be empty")

// HTTPConfig holds the configuration for the HTTP surface.
type HTTPConfig struct {
	ListenAddr            string `toml:"listen_addr"`
	PublicBaseURL         string `toml:"public_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// NATSConfig holds the configuration for NATS-backed storage and events.
type NATSConfig struct {
	URL                      string `toml:"url"`
	VoicesBucket             string `toml:"voices_bucket"`
	GenerationsBucket        string `toml:"generations_bucket"`
	ProfilesBucket           string `toml:"profiles_bucket"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
	GenerationCreatedSubject string `toml:"generation_created_subject"`
}

// QwenConfig holds the configuration for the speech synthesis provider.
type QwenConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AuthConfig holds the configuration for the identity provider.
type AuthConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig holds signed-URL issuance settings.
type StorageConfig struct {
	SignedURLTTLSeconds int `toml:"signed_url_ttl_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Secrets carries credentials taken from the process environment so they
// never live in the TOML file.
type Secrets struct {
	QwenAPIURL    string `env:"QWEN_API_URL"`
	QwenAPIKey    string `env:"QWEN_API_KEY"`
	AuthBaseURL   string `env:"AUTH_BASE_URL"`
	SigningSecret string `env:"VOICEFORGE_SIGNING_SECRET"`
}

// Config is the root configuration structure.
type Config struct {
	HTTP    HTTPConfig    `toml:"http"`
	NATS    NATSConfig    `toml:"nats"`
	Qwen    QwenConfig    `toml:"qwen"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	Paths   PathsConfig   `toml:"paths"`

	Secrets Secrets `toml:"-"`
}

// Defaults applied when the TOML file leaves a field unset.
const (
	defaultListenAddr          = ":8787"
	defaultRequestTimeout      = 120
	defaultQwenTimeout         = 120
	defaultAuthTimeout         = 10
	defaultSignedURLTTLSeconds = 3600
)

// Load loads the configuration for the voiceforge API service and overlays
// environment-provided secrets on top of it.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = env.Parse(&cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment secrets: %w", err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults. Environment secrets
// win over TOML values for the provider and identity endpoints.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = defaultListenAddr
	}

	if c.HTTP.RequestTimeoutSeconds <= 0 {
		c.HTTP.RequestTimeoutSeconds = defaultRequestTimeout
	}

	if c.Qwen.TimeoutSeconds <= 0 {
		c.Qwen.TimeoutSeconds = defaultQwenTimeout
	}

	if c.Auth.TimeoutSeconds <= 0 {
		c.Auth.TimeoutSeconds = defaultAuthTimeout
	}

	if c.Storage.SignedURLTTLSeconds <= 0 {
		c.Storage.SignedURLTTLSeconds = defaultSignedURLTTLSeconds
	}

	if c.Secrets.QwenAPIURL != "" {
		c.Qwen.BaseURL = c.Secrets.QwenAPIURL
	}

	if c.Secrets.AuthBaseURL != "" {
		c.Auth.BaseURL = c.Secrets.AuthBaseURL
	}
}

// Validate checks invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Secrets.SigningSecret == "" {
		return ErrSigningSecretEmpty
	}

	return nil
}
