package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	ttl, err := cfg.TokenTTL()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, ttl)

	window, err := cfg.RateLimitWindow()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, window)
	assert.Equal(t, int64(100), cfg.RateLimit.Max)

	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "admin@example.com", cfg.Admin.Email)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, "debug", cfg.GinMode())
	assert.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr())
	assert.Empty(t, cfg.HTTP.TrustedProxies, "forwarded headers are ignored unless proxies are configured")
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxBodyBytes)
}

func TestLoad_HTTPFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")
	t.Setenv("HTTP_CORS_ORIGINS", "https://app.example.com")
	t.Setenv("HTTP_MAX_BODY_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.HTTP.TrustedProxies)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, int64(1024), cfg.HTTP.MaxBodyBytes)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
env = "prod"
port = 9000

[auth]
jwt_secret = "from-file"
jwt_expires_in = "1h"

[database]
driver = "postgres"

[postgres]
host = "db.internal"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("RATE_LIMIT_MAX", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, int64(5), cfg.RateLimit.Max)
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, "release", cfg.GinMode())
	assert.Equal(t, "host=db.internal port=5432 user=postgres password= dbname=authgate sslmode=disable", cfg.PostgresDSN())

	ttl, err := cfg.TokenTTL()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MYSQL_DB=from_dotenv\nMYSQL_USER=dotenv_user\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("MYSQL_DB")
		_ = os.Unsetenv("MYSQL_USER")
	})
	t.Setenv("MYSQL_USER", "process_user")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.MySQL.DB)
	assert.Equal(t, "process_user", cfg.MySQL.User, "process environment wins over .env")
	assert.Equal(t, "process_user:@tcp(127.0.0.1:3306)/from_dotenv?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport = "), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config file failed")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty secret", mutate: func(c *Config) { c.Auth.JWTSecret = "  " }, wantErr: "auth.jwt_secret must not be empty"},
		{name: "bad ttl", mutate: func(c *Config) { c.Auth.JWTExpiresIn = "3 days" }, wantErr: `auth.jwt_expires_in "3 days" is not a duration`},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.JWTExpiresIn = "0s" }, wantErr: "auth.jwt_expires_in must be positive"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: `database.driver "sqlite" is not supported`},
		{name: "bad trusted proxy", mutate: func(c *Config) { c.HTTP.TrustedProxies = []string{"lb.internal"} }, wantErr: `http.trusted_proxies entry "lb.internal" is not an IP or CIDR`},
		{name: "body limit", mutate: func(c *Config) { c.HTTP.MaxBodyBytes = 0 }, wantErr: "http.max_body_bytes must be positive"},
		{name: "rate limit max", mutate: func(c *Config) { c.RateLimit.Max = 0 }, wantErr: "rate_limit.max must be positive"},
		{name: "rate limit window", mutate: func(c *Config) { c.RateLimit.Window = "soon" }, wantErr: "rate_limit.window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("disabled rate limit skips its checks", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.Window = ""
		assert.NoError(t, cfg.Validate())
	})
}
