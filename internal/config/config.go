// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// シェルの1画面読み込みに許すタイムアウトの範囲。
const (
	MinRequestTimeout     = 10 * time.Second
	MaxRequestTimeout     = 30 * time.Second
	DefaultRequestTimeout = 15 * time.Second
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration
	BcryptCost             int

	// Server
	ServerPort string
	BaseURL    string

	// Worker
	WorkerMetricsPort string // 空の場合ワーカーは/metricsを公開しない

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel slog.Level

	// Shell
	APIURL         string
	RequestTimeout time.Duration
}

// Load はサーバー・ワーカー・マイグレーション用の設定を読み込む。
// DATABASE_URL が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := load()

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	return cfg, nil
}

// LoadClient はシェル用の設定を読み込む。DATABASE_URL は不要。
func LoadClient() *Config {
	return load()
}

func load() *Config {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", strings.HasPrefix(cfg.BaseURL, "https://"))
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")
	cfg.LogLevel = parseLogLevel(os.Getenv("LOG_LEVEL"))
	cfg.APIURL = strings.TrimRight(getEnvString("DIARYBOOK_API_URL", cfg.BaseURL), "/")
	cfg.RequestTimeout = ClampRequestTimeout(getEnvDuration("DIARYBOOK_REQUEST_TIMEOUT", DefaultRequestTimeout))

	return cfg
}

// ClampRequestTimeout はタイムアウトを許容範囲に丸める。
func ClampRequestTimeout(d time.Duration) time.Duration {
	switch {
	case d < MinRequestTimeout:
		return MinRequestTimeout
	case d > MaxRequestTimeout:
		return MaxRequestTimeout
	default:
		return d
	}
}

// parseLogLevel はdebug, info, warn, errorを解釈する。不明な値はinfo。
func parseLogLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
