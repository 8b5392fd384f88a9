// Package config loads server configuration from command-line flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minTokenSecretLength guards against trivially guessable signing secrets.
const minTokenSecretLength = 32

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Search   SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig holds document store configuration.
type DatabaseConfig struct {
	// Path is the badger directory. Required.
	Path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        // default: 4000
	ReadTimeout    time.Duration // default: 15s
	WriteTimeout   time.Duration // default: 15s
	IdleTimeout    time.Duration // default: 60s
	AllowedOrigins []string      // CORS origins for the browser client (default: *)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenSecret is the secret the token signing key is derived from. Required.
	TokenSecret   string
	TokenDuration time.Duration // default: 1h
	// DefaultPassword is assigned to users created without one.
	DefaultPassword string
	// LoginAttemptsPerMinute limits login attempts per email address.
	LoginAttemptsPerMinute int
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	// IndexPath is where the bleve index lives. Empty keeps it in memory.
	IndexPath string
}

// Load parses args (normally os.Args[1:]) and builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("librarian", flag.ContinueOnError)

	env := flags.String("env", "", "Environment (development, staging, production)")
	logLevel := flags.String("log-level", "", "Log level (debug, info, warn, error)")
	dbPath := flags.String("db-path", "", "Path to the document store directory")
	tokenSecret := flags.String("token-secret", "", "Secret used to derive the token signing key")
	tokenDuration := flags.String("token-duration", "", "Access token lifetime (default: 1h)")
	defaultPassword := flags.String("default-password", "", "Password for users created without one")
	loginRate := flags.String("login-rate", "", "Login attempts per minute per email (default: 10)")
	port := flags.String("port", "", "Server port (default: 4000)")
	readTimeout := flags.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flags.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flags.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := flags.String("allowed-origins", "", "Comma separated CORS origins (default: *)")
	searchPath := flags.String("search-index-path", "", "Path for the search index (default: in-memory)")
	envFile := flags.String("env-file", ".env", "Path to .env file")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// Variables already present in the environment win over the file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "PORT", "4000"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			TokenSecret:     getConfigValue(*tokenSecret, "TOKEN_SECRET", ""),
			DefaultPassword: getConfigValue(*defaultPassword, "DEFAULT_USER_PASSWORD", "secret"),
		},
		Search: SearchConfig{
			IndexPath: getConfigValue(*searchPath, "SEARCH_INDEX_PATH", ""),
		},
	}

	var err error
	if cfg.Auth.TokenDuration, err = parseDuration(*tokenDuration, "TOKEN_DURATION", "1h"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Auth.LoginAttemptsPerMinute, err = parseInt(*loginRate, "LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	if cfg.Database.Path, err = expandPath(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if cfg.Search.IndexPath, err = expandPath(cfg.Search.IndexPath); err != nil {
		return nil, fmt.Errorf("invalid search index path: %w", err)
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
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("DATABASE_PATH is required")
	}

	if c.Auth.TokenSecret == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	if len(c.Auth.TokenSecret) < minTokenSecretLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d characters", minTokenSecretLength)
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.New("token duration must be positive")
	}
	if c.Auth.DefaultPassword == "" {
		return errors.New("default user password cannot be empty")
	}
	if c.Auth.LoginAttemptsPerMinute <= 0 {
		return errors.New("login rate limit must be positive")
	}

	p, err := strconv.Atoi(c.Server.Port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

func parseInt(flagValue, envKey string, defaultValue int) (int, error) {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
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
