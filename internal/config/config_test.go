package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray config.* or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/tasks.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 10, cfg.RateLimit.Login.Rate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Error(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	chdir(t)
	secret := strings.Repeat("s", 40)
	t.Setenv("TASKS_AUTH_JWTSECRET", secret)
	t.Setenv("TASKS_DATABASE_PATH", "/tmp/x.db")
	t.Setenv("TASKS_REDIS_ADDR", "localhost:6379")
	t.Setenv("TASKS_SERVER_TRUSTEDPROXIES", "10.0.0.1,10.0.0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdir(t)
	fromFile := strings.Repeat("f", 40)
	fromEnv := strings.Repeat("e", 40)
	content := "TASKS_AUTH_JWTSECRET=" + fromFile + "\nTASKS_SERVER_ADDR=127.0.0.1:9999\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Setenv("TASKS_AUTH_JWTSECRET", fromEnv)
	t.Cleanup(func() { os.Unsetenv("TASKS_SERVER_ADDR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, fromEnv, cfg.Auth.JWTSecret)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Auth.JWTSecret = strings.Repeat("k", 32)
		cfg.Auth.TokenTTLMinutes = 30
		cfg.Database.Path = "data/tasks.db"
		cfg.RateLimit.Login.Rate = 5
		cfg.RateLimit.Login.WindowSeconds = 60
		return cfg
	}

	assert.NoError(t, valid().Validate())

	short := valid()
	short.Auth.JWTSecret = "short"
	assert.Error(t, short.Validate())

	noTTL := valid()
	noTTL.Auth.TokenTTLMinutes = 0
	assert.Error(t, noTTL.Validate())

	noDB := valid()
	noDB.Database.Path = " "
	assert.Error(t, noDB.Validate())

	noLimit := valid()
	noLimit.RateLimit.Login.Rate = 0
	assert.Error(t, noLimit.Validate())
}
