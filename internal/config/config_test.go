package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/some/path"},
		Server:  ServerConfig{Port: "8080"},
		Auth: AuthConfig{
			AccessTokenDuration: time.Hour,
			RateLimitPerMinute:  20,
			RateLimitBurst:      10,
		},
	}
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "SERVER_NAME", "SERVER_PORT",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"CORS_ALLOWED_ORIGINS", "ACCESS_TOKEN_DURATION", "AUTH_RATE_LIMIT",
		"AUTH_RATE_BURST", "STRICT_OWNERSHIP", "SEARCH_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"INFO", true},   // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }, "data path cannot be empty"},
		{"non-numeric port", func(c *Config) { c.Server.Port = "http" }, "invalid server port"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "invalid server port"},
		{"zero token duration", func(c *Config) { c.Auth.AccessTokenDuration = 0 }, "access token duration"},
		{"zero rate limit", func(c *Config) { c.Auth.RateLimitPerMinute = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "RecipesServer", "data"), cfg.Storage.DataPath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataPath: "~/my-data"}}

	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Storage.DataPath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataPath: "relative/path"}}

	require.NoError(t, cfg.expandDataPath())

	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
	assert.Contains(t, cfg.Storage.DataPath, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestGetBoolConfigValue(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"false", true, false},
		{"nope", true, false},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL_KEY", tt.raw)
		assert.Equal(t, tt.want, getBoolConfigValue("", "TEST_BOOL_KEY", tt.def), "raw=%q", tt.raw)
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, splitList(" http://a.test, ,http://b.test "))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(dataDir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, dataDir, cfg.Storage.DataPath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 20, cfg.Auth.RateLimitPerMinute)
	assert.Equal(t, 10, cfg.Auth.RateLimitBurst)
	assert.True(t, cfg.Recipes.StrictOwnership)
	assert.True(t, cfg.Search.Enabled)
	assert.Empty(t, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_FlagsOverrideEnvOverrideDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "LOG_LEVEL=debug\nSERVER_PORT=9000\nSTRICT_OWNERSHIP=false\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	// Cleared keys are empty strings, which godotenv treats as already set,
	// so unset the ones the .env file must supply.
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("STRICT_OWNERSHIP"))
	require.NoError(t, os.Unsetenv("SERVER_PORT"))
	t.Cleanup(func() {
		_ = os.Unsetenv("LOG_LEVEL")
		_ = os.Unsetenv("STRICT_OWNERSHIP")
		_ = os.Unsetenv("SERVER_PORT")
	})
	t.Setenv("DATA_PATH", dir)
	t.Setenv("ACCESS_TOKEN_DURATION", "1h")

	cfg, err := Load([]string{"-env-file", envFile, "-port", "9100"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level, "from .env")
	assert.False(t, cfg.Recipes.StrictOwnership, "from .env")
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenDuration, "from env")
	assert.Equal(t, "9100", cfg.Server.Port, "flag wins over .env")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("ACCESS_TOKEN_DURATION", "forever")

	_, err := Load([]string{"-env-file", filepath.Join(dir, "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_DURATION")
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	_, err := Load([]string{"-env-file", filepath.Join(dir, "missing.env"), "-env", "test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}
