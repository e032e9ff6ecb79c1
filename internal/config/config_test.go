package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range baseURLEnvVars {
		t.Setenv(name, "")
	}
}

func TestLoadAndValidateDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = 8080

[remote]
base_url = "http://10.0.0.5:8081/"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://10.0.0.5:8081", cfg.Remote.BaseURL)
	assert.Equal(t, VesselSourceAll, cfg.Remote.VesselSource)
	assert.Equal(t, 5, cfg.Remote.FetchIntervalSecs)
	assert.Equal(t, 10, cfg.Remote.TimeoutSecs)
	assert.Equal(t, 10, cfg.Dashboard.RowsPerPage)
	assert.Equal(t, 37.566, cfg.Dashboard.DefaultCenterLat)
	assert.Equal(t, 126.978, cfg.Dashboard.DefaultCenterLon)
	assert.Equal(t, PredictionShapeRoute, cfg.Prediction.Shape)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestEnvOverridesBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REACT_APP_SERVER_IP", "http://192.168.0.20:8080")
	path := writeConfig(t, `
[remote]
base_url = "http://localhost:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.0.20:8080", cfg.Remote.BaseURL)

	t.Setenv("AIS_SERVER_IP", "http://ais.example.com")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://ais.example.com", cfg.Remote.BaseURL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing base url", func(c *Config) { c.Remote.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Remote.BaseURL = "/api" }},
		{"unknown vessel source", func(c *Config) { c.Remote.VesselSource = "some" }},
		{"negative interval", func(c *Config) { c.Remote.FetchIntervalSecs = -1 }},
		{"negative rows", func(c *Config) { c.Dashboard.RowsPerPage = -5 }},
		{"bad latitude", func(c *Config) { c.Dashboard.DefaultCenterLat = 91 }},
		{"unknown prediction shape", func(c *Config) { c.Prediction.Shape = "polygon" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Remote: RemoteConfig{BaseURL: "http://localhost:8081"}}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8080, AdditionalPorts: []int{8080}, StaticFilesDir: t.TempDir()}}
	assert.Error(t, cfg.ValidateServer(), "duplicate port")

	cfg.Server.AdditionalPorts = []int{9090}
	assert.NoError(t, cfg.ValidateServer())

	cfg.Server.StaticFilesDir = filepath.Join(t.TempDir(), "missing")
	assert.Error(t, cfg.ValidateServer())

	cfg.Server.Port = 0
	assert.Error(t, cfg.ValidateServer())
}

func TestLoadWithFallbackMissing(t *testing.T) {
	_, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
