package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points Load at a temp directory and clears IEX_ overrides.
func isolate(t *testing.T) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	for _, key := range []string{"LOGLEVEL", "CACHEDB", "CACHEDRIVER", "BASE_URL", "TOKEN", "LISTEN", "RATELIMIT", "RETRIES", "TIMEOUT"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	return dir, filepath.Join(dir, "iex", FileName)
}

func TestLoad_CreatesFileWithDefaults(t *testing.T) {
	dir, file := isolate(t)

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.True(t, cfg.Created)
	assert.Equal(t, file, cfg.File)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "iex", CacheFileName), cfg.CacheDB)
	assert.Equal(t, DefaultCacheDriver, cfg.CacheDriver)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimit)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Token)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, map[string]any{
		"loglevel": DefaultLogLevel,
		"cachedb":  filepath.Join(dir, "iex", CacheFileName),
	}, saved)
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	dir, file := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(`{
		"loglevel": "debug",
		"cachedb": "$IEX_TEST_ROOT/cache.db",
		"token": "pk_file",
		"ratelimit": 5,
		"timeout": "3s"
	}`), 0o600))
	t.Setenv("IEX_TEST_ROOT", dir)

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.False(t, cfg.Created)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CacheDB)
	assert.Equal(t, "pk_file", cfg.Token)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultListen, cfg.Listen)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir, file := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(`{"loglevel": "debug", "listen": "127.0.0.1:9000"}`), 0o600))

	t.Setenv("IEX_LOGLEVEL", "warn")
	t.Setenv("IEX_BASE_URL", "http://localhost:1234")
	t.Setenv("IEX_RETRIES", "2")

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://localhost:1234", cfg.BaseURL)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir, file := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("IEX_TOKEN=pk_dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("IEX_TOKEN") })

	cfg, err := Load(Options{File: file, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "pk_dotenv", cfg.Token)
}

func TestLoad_FlagsTakePrecedence(t *testing.T) {
	dir, file := isolate(t)
	t.Setenv("IEX_LISTEN", "127.0.0.1:7000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--listen", "127.0.0.1:9999", "--cachedriver", "sqlite"}))

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(dir, "missing.env"), Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
	assert.Equal(t, "sqlite", cfg.CacheDriver)
	// Unset flags do not mask the defaults.
	assert.Equal(t, filepath.Join(dir, "iex", CacheFileName), cfg.CacheDB)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir, file := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(`{not json`), 0o600))

	_, err := Load(Options{File: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "base_url is empty"},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, "ratelimit must be positive"},
		{"negative retries", func(c *Config) { c.Retries = -1 }, "retries must not be negative"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{BaseURL: DefaultBaseURL, RateLimit: 1, Timeout: time.Second}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultFile(t *testing.T) {
	assert.Equal(t, FileName, filepath.Base(DefaultFile()))
	assert.Equal(t, "iex", filepath.Base(DefaultDir()))
}
