package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "pp_session", cfg.Auth.SessionCookieName)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL())
	assert.Equal(t, []string{"/admin"}, cfg.Auth.AdminPrefixes())
	assert.Equal(t, "simple", cfg.Checkout.OrderNumberScheme)
	assert.Equal(t, 5432, cfg.Database.Port)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ADMIN_ROUTE_PREFIXES", "/admin, /api/admin ,")
	t.Setenv("ORDER_NUMBER_SCHEME", "random")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"/admin", "/api/admin"}, cfg.Auth.AdminPrefixes())
	assert.Equal(t, "random", cfg.Checkout.OrderNumberScheme)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("REDIS_URL")

	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
REDIS_URL=redis://staging:6379/0
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("REDIS_URL")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

func TestLoad_InvalidOrderScheme(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ORDER_NUMBER_SCHEME", "sequential")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDevBypassRole(t *testing.T) {
	tests := []struct {
		name string
		env  string
		role string
		want string
	}{
		{name: "development honours role", env: "development", role: "Admin", want: "admin"},
		{name: "production ignores role", env: "production", role: "admin", want: ""},
		{name: "staging ignores role", env: "staging", role: "technician", want: ""},
		{name: "development without role", env: "development", role: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{Environment: tt.env, Auth: AuthConfig{DevRole: tt.role}}
			assert.Equal(t, tt.want, cfg.DevBypassRole())
		})
	}
}
