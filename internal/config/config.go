// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Auth    AuthConfig
	Recipes RecipesConfig
	Search  SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataPath holds the sqlite database, session registry, search index,
	// auth key and uploaded media.
	DataPath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// CORSAllowedOrigins enables CORS when non-empty.
	CORSAllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes), set by auth.LoadOrGenerateKey at startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// Requests per minute allowed per client IP on the public auth routes.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// RecipesConfig holds recipe write policy.
type RecipesConfig struct {
	// StrictOwnership rejects tag/ingredient IDs owned by another user
	// when linking them to a recipe.
	StrictOwnership bool
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("recipes-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, index and media storage")
	serverName := fs.String("server-name", "", "Name for the server")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated list of allowed CORS origins")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 720h)")
	authRateLimit := fs.String("auth-rate-limit", "", "Auth requests per minute per client (default: 20)")
	authRateBurst := fs.String("auth-rate-burst", "", "Auth request burst per client (default: 10)")
	strictOwnership := fs.String("strict-ownership", "", "Reject linking another user's tags/ingredients (default: true)")
	searchEnabled := fs.String("search-enabled", "", "Enable recipe full-text search (default: true)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win over it.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:               getConfigValue(*serverName, "SERVER_NAME", "Recipes Server"),
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "")),
		},
		Auth: AuthConfig{
			RateLimitPerMinute: getIntConfigValue(*authRateLimit, "AUTH_RATE_LIMIT", 20),
			RateLimitBurst:     getIntConfigValue(*authRateBurst, "AUTH_RATE_BURST", 10),
		},
		Recipes: RecipesConfig{
			StrictOwnership: getBoolConfigValue(*strictOwnership, "STRICT_OWNERSHIP", true),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dest      *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "720h", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if c.Auth.RateLimitPerMinute < 1 || c.Auth.RateLimitBurst < 1 {
		return errors.New("auth rate limit and burst must be at least 1")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "RecipesServer", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
