package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "secret", cfg.JWTSigningKey)
	assert.Equal(t, 5*time.Second, cfg.RelayTimeout)
	assert.Equal(t, time.Duration(0), cfg.ProbeGrace)
	assert.Equal(t, 10*time.Second, cfg.ProxyTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"9000\"\njwt_signing_key: from-file\nrelay_timeout: 2s\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "environment overrides the file")
	assert.Equal(t, "from-file", cfg.JWTSigningKey)
	assert.Equal(t, 2*time.Second, cfg.RelayTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoad_RequiresSigningKey(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "jwt_signing_key")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Port:          "8080",
		JWTSigningKey: "k",
		RelayTimeout:  time.Second,
		ProxyTimeout:  time.Second,
		LogLevel:      "info",
	}
	require.NoError(t, base.Validate())

	port := base
	port.Port = ""
	assert.Error(t, port.Validate())

	grace := base
	grace.ProbeGrace = -time.Second
	assert.Error(t, grace.Validate())

	level := base
	level.LogLevel = "loud"
	assert.Error(t, level.Validate())
}
