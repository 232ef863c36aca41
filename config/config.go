// Package config holds the immutable agent configuration loaded from the
// process environment. Configuration is resolved once at construction and
// shared read-only afterwards; a missing credential or endpoint is a fatal
// construction error, never a runtime surprise.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names understood by FromEnv.
const (
	EnvModelName      = "AI_MODEL_NAME"
	EnvGatewayBaseURL = "AI_GATEWAY_BASE_URL"
	EnvGatewayAPIKey  = "AI_GATEWAY_API_KEY"
	EnvToolServerURL  = "MCP_SERVER_URL"
	EnvToolServerAuth = "MCP_AUTH_TOKEN"
	EnvCallTimeout    = "CALL_TIMEOUT"
	EnvMaxRounds      = "MAX_ROUNDS"
	EnvTrustedOrigins = "TRUSTED_ARTIFACT_ORIGINS"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultModelName   = "gemini-2.5-pro"
	DefaultCallTimeout = 30 * time.Second
	DefaultMaxRounds   = 8
)

// DefaultTrustedOrigins is the baseline allow-list for artifact validation.
// Generated images are stored in Google Cloud Storage by the default tool
// server, so its public hostname is trusted out of the box.
var DefaultTrustedOrigins = []string{"storage.googleapis.com"}

// Validation errors raised at construction.
var (
	ErrMissingGatewayAPIKey = errors.New("config: " + EnvGatewayAPIKey + " is required")
	ErrMissingGatewayURL    = errors.New("config: " + EnvGatewayBaseURL + " is required")
	ErrInvalidCallTimeout   = errors.New("config: " + EnvCallTimeout + " must be a positive duration")
	ErrInvalidMaxRounds     = errors.New("config: " + EnvMaxRounds + " must be a positive integer")
)

// Config is the immutable per-agent configuration. It is created once, never
// mutated, and safely shared by all components of an agent instance.
type Config struct {
	// ModelName identifies the model requested from the gateway.
	ModelName string
	// GatewayBaseURL is the OpenAI-compatible completions endpoint.
	GatewayBaseURL string
	// GatewayAPIKey is the bearer credential for the model gateway.
	GatewayAPIKey string
	// ToolServerURL is the MCP endpoint exposing callable tools. Empty
	// disables tool support entirely.
	ToolServerURL string
	// ToolServerToken is the bearer credential for the tool server.
	ToolServerToken string
	// CallTimeout bounds every individual network call (model or tool).
	CallTimeout time.Duration
	// MaxRounds caps the number of model rounds per execution.
	MaxRounds int
	// TrustedOrigins is the exact-match artifact origin allow-list.
	TrustedOrigins []string
}

// Load reads an optional .env file then resolves configuration from the
// environment. The .env file is a development convenience; a missing file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv resolves configuration from the current process environment and
// validates it. Optional values fall back to documented defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ModelName:       getenv(EnvModelName, DefaultModelName),
		GatewayBaseURL:  os.Getenv(EnvGatewayBaseURL),
		GatewayAPIKey:   os.Getenv(EnvGatewayAPIKey),
		ToolServerURL:   os.Getenv(EnvToolServerURL),
		ToolServerToken: os.Getenv(EnvToolServerAuth),
		CallTimeout:     DefaultCallTimeout,
		MaxRounds:       DefaultMaxRounds,
		TrustedOrigins:  append([]string(nil), DefaultTrustedOrigins...),
	}

	if raw := os.Getenv(EnvCallTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCallTimeout, raw)
		}
		cfg.CallTimeout = d
	}

	if raw := os.Getenv(EnvMaxRounds); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMaxRounds, raw)
		}
		cfg.MaxRounds = n
	}

	if raw := os.Getenv(EnvTrustedOrigins); raw != "" {
		cfg.TrustedOrigins = splitOrigins(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required credentials and endpoints are present.
func (c *Config) Validate() error {
	if c.GatewayAPIKey == "" {
		return ErrMissingGatewayAPIKey
	}
	if c.GatewayBaseURL == "" {
		return ErrMissingGatewayURL
	}
	if c.CallTimeout <= 0 {
		return ErrInvalidCallTimeout
	}
	if c.MaxRounds <= 0 {
		return ErrInvalidMaxRounds
	}
	return nil
}

// ToolsConfigured reports whether a tool server endpoint was provided.
func (c *Config) ToolsConfigured() bool { return c.ToolServerURL != "" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, strings.ToLower(trimmed))
		}
	}
	return origins
}
