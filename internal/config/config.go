// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultProviderEndpoint is the YandexGPT foundation-models completion URL.
const DefaultProviderEndpoint = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ProviderAPIKey   string
	ProviderFolderID string
	ProviderModel    string
	ProviderEndpoint string
	ProviderTimeout  time.Duration

	GitHubToken string

	ListenAddr string
	StagingDir string
	LogLevel   slog.Level

	MaxUploadBytes    int64
	MaxArchiveEntries int
	MaxExtractBytes   int64
}

// HasProviderCredentials returns true when both the provider API key and the
// folder identifier are non-blank. The review orchestrator uses this per
// request to select between online and offline generation.
func (c *Config) HasProviderCredentials() bool {
	return strings.TrimSpace(c.ProviderAPIKey) != "" && strings.TrimSpace(c.ProviderFolderID) != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Provider credentials (YANDEX_API_KEY, YANDEX_FOLDER_ID) are
// optional; if either is absent, every request is reviewed offline.
// Optional variables with defaults: YANDEX_GPT_MODEL (yandexgpt-lite),
// AUTOREVIEW_PROVIDER_TIMEOUT (60s), AUTOREVIEW_LISTEN_ADDR (127.0.0.1:8080),
// AUTOREVIEW_STAGING_DIR (os.TempDir()), AUTOREVIEW_MAX_UPLOAD_BYTES (32MiB),
// AUTOREVIEW_MAX_ARCHIVE_ENTRIES (2000), AUTOREVIEW_MAX_EXTRACT_BYTES (128MiB),
// LOG_LEVEL (info).
func Load() (*Config, error) {
	cfg := &Config{
		ProviderAPIKey:    cleanEnv(os.Getenv("YANDEX_API_KEY")),
		ProviderFolderID:  cleanEnv(os.Getenv("YANDEX_FOLDER_ID")),
		ProviderModel:     "yandexgpt-lite",
		ProviderEndpoint:  DefaultProviderEndpoint,
		ProviderTimeout:   60 * time.Second,
		GitHubToken:       cleanEnv(os.Getenv("AUTOREVIEW_GITHUB_TOKEN")),
		ListenAddr:        "127.0.0.1:8080",
		StagingDir:        os.TempDir(),
		LogLevel:          slog.LevelInfo,
		MaxUploadBytes:    32 << 20,
		MaxArchiveEntries: 2000,
		MaxExtractBytes:   128 << 20,
	}

	if v, ok := os.LookupEnv("YANDEX_GPT_MODEL"); ok && cleanEnv(v) != "" {
		cfg.ProviderModel = cleanEnv(v)
	}
	if v, ok := os.LookupEnv("YANDEX_GPT_ENDPOINT"); ok && cleanEnv(v) != "" {
		cfg.ProviderEndpoint = cleanEnv(v)
	}

	if v, ok := os.LookupEnv("AUTOREVIEW_PROVIDER_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("AUTOREVIEW_PROVIDER_TIMEOUT has invalid duration %q", v)
		}
		cfg.ProviderTimeout = parsed
	}

	if v, ok := os.LookupEnv("AUTOREVIEW_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("AUTOREVIEW_STAGING_DIR"); ok && v != "" {
		cfg.StagingDir = v
	}

	var err error
	if cfg.MaxUploadBytes, err = int64Env("AUTOREVIEW_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes); err != nil {
		return nil, err
	}
	if cfg.MaxExtractBytes, err = int64Env("AUTOREVIEW_MAX_EXTRACT_BYTES", cfg.MaxExtractBytes); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("AUTOREVIEW_MAX_ARCHIVE_ENTRIES"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("AUTOREVIEW_MAX_ARCHIVE_ENTRIES has invalid value %q", v)
		}
		cfg.MaxArchiveEntries = parsed
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// cleanEnv trims whitespace and strips a single layer of surrounding quotes,
// which .env tooling sometimes leaves in place.
func cleanEnv(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}

func int64Env(key string, def int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s has invalid value %q", key, v)
	}
	return parsed, nil
}

func parseLogLevel(v string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("LOG_LEVEL has invalid value %q", v)
}
