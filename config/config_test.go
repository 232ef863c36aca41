package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvGatewayAPIKey, "test-key")
	t.Setenv(EnvGatewayBaseURL, "https://gateway.example.com/v1")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultModelName, cfg.ModelName)
	assert.Equal(t, DefaultCallTimeout, cfg.CallTimeout)
	assert.Equal(t, DefaultMaxRounds, cfg.MaxRounds)
	assert.Equal(t, DefaultTrustedOrigins, cfg.TrustedOrigins)
	assert.False(t, cfg.ToolsConfigured())
}

func TestFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv(EnvGatewayAPIKey, "")
	t.Setenv(EnvGatewayBaseURL, "https://gateway.example.com/v1")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingGatewayAPIKey)
}

func TestFromEnv_MissingGatewayURL(t *testing.T) {
	t.Setenv(EnvGatewayAPIKey, "test-key")
	t.Setenv(EnvGatewayBaseURL, "")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingGatewayURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvModelName, "gpt-4o-mini")
	t.Setenv(EnvToolServerURL, "https://tools.example.com/mcp")
	t.Setenv(EnvToolServerAuth, "tool-token")
	t.Setenv(EnvCallTimeout, "5s")
	t.Setenv(EnvMaxRounds, "3")
	t.Setenv(EnvTrustedOrigins, "storage.googleapis.com, CDN.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
	assert.True(t, cfg.ToolsConfigured())
	assert.Equal(t, "tool-token", cfg.ToolServerToken)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, 3, cfg.MaxRounds)
	assert.Equal(t, []string{"storage.googleapis.com", "cdn.example.com"}, cfg.TrustedOrigins)
}

func TestFromEnv_InvalidDurations(t *testing.T) {
	setRequired(t)

	t.Setenv(EnvCallTimeout, "soon")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidCallTimeout)

	t.Setenv(EnvCallTimeout, "10s")
	t.Setenv(EnvMaxRounds, "-2")
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrInvalidMaxRounds)
}
