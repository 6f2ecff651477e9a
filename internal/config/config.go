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
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Realtime RealtimeConfig
	Limits   LimitsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// Timezone of comment timestamps and export dates (default: Asia/Tokyo).
	Timezone string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// DataPath is the Badger directory. "memory" keeps everything in RAM.
	DataPath string
	// LegacyDataDir holds instances.json, comments.json and settings.json
	// from the JSON-file layout; imported once into an empty database.
	LegacyDataDir string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8880)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string
}

// RealtimeConfig holds WebSocket/SSE fan-out configuration.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration // default: 30s
	ClientBuffer      int           // queued events per client before it is dropped (default: 256)
}

// LimitsConfig holds per-client write limits. A zero rate disables limiting.
type LimitsConfig struct {
	CommentsPerMinute int
	CommentBurst      int
}

// MemoryDataPath selects the in-memory store.
const MemoryDataPath = "memory"

// DefaultAllowedOrigins are the browser origins accepted when CORS_ALLOWED_ORIGINS is unset.
const DefaultAllowedOrigins = "http://localhost:3000,http://127.0.0.1:3000,https://easy-comment.clite.jp"

// LoadConfig loads configuration from the process arguments. See Load.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("easycomment", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Badger data directory, or \"memory\"")
	legacyDir := fs.String("legacy-data-dir", "", "Directory of legacy JSON data to import")
	timezone := fs.String("timezone", "", "Timezone for timestamps (default: Asia/Tokyo)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8880)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	origins := fs.String("cors-allowed-origins", "", "Comma-separated allowed browser origins")

	// Realtime flags
	heartbeat := fs.String("heartbeat-interval", "", "Realtime heartbeat interval (default: 30s)")
	clientBuffer := fs.String("client-buffer", "", "Queued events per realtime client (default: 256)")

	commentRate := fs.String("comment-rate-limit", "", "Comments per minute per client, 0 disables (default: 60)")
	commentBurst := fs.String("comment-rate-burst", "", "Comment burst per client (default: 20)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists. godotenv never overrides variables
	// already present in the environment.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Timezone:    getConfigValue(*timezone, "TIMEZONE", "Asia/Tokyo"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			LegacyDataDir: getConfigValue(*legacyDir, "LEGACY_DATA_DIR", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8880"),
			AllowedOrigins: splitList(getConfigValue(*origins, "CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		},
		Realtime: RealtimeConfig{
			ClientBuffer: getIntConfigValue(*clientBuffer, "CLIENT_BUFFER", 256),
		},
		Limits: LimitsConfig{
			CommentsPerMinute: getIntConfigValue(*commentRate, "COMMENT_RATE_LIMIT", 60),
			CommentBurst:      getIntConfigValue(*commentBurst, "COMMENT_RATE_BURST", 20),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Realtime.HeartbeatInterval, *heartbeat, "HEARTBEAT_INTERVAL", "30s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if cfg.Storage.LegacyDataDir != "" {
		expanded, err := expandPath(cfg.Storage.LegacyDataDir, "")
		if err != nil {
			return nil, fmt.Errorf("invalid legacy data dir: %w", err)
		}
		cfg.Storage.LegacyDataDir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
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

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Realtime.HeartbeatInterval <= 0 || c.Realtime.HeartbeatInterval >= time.Minute {
		return fmt.Errorf("heartbeat interval must be between 0 and 1m, got %s", c.Realtime.HeartbeatInterval)
	}
	if c.Realtime.ClientBuffer < 1 {
		return fmt.Errorf("client buffer must be positive, got %d", c.Realtime.ClientBuffer)
	}
	if c.Limits.CommentsPerMinute < 0 || c.Limits.CommentBurst < 0 {
		return errors.New("comment rate limits cannot be negative")
	}

	return nil
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// InMemory reports whether the store should stay in RAM.
func (c *Config) InMemory() bool {
	return c.Storage.DataPath == MemoryDataPath
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
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

// expandDataPath expands ~ and makes the path absolute, leaving the
// in-memory marker untouched.
func (c *Config) expandDataPath() error {
	if c.Storage.DataPath == MemoryDataPath {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "EasyComment", "data")

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

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
