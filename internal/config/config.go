package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// セッションストアのバックエンド種別。
const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Session store
	SessionStorePath    string
	SessionStoreBackend string

	// Outbound rate limit
	RequestRate  float64 // req/sec
	RequestBurst int

	// Notification
	NotificationTTL   time.Duration
	NotificationSweep time.Duration

	// Watch mode
	WatchInterval time.Duration
	StatusAddr    string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = os.Getenv("TASKDECK_API_BASE_URL")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "TASKDECK_API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.HTTPTimeout = getEnvDuration("TASKDECK_HTTP_TIMEOUT", 10*time.Second)
	cfg.SessionStorePath = getEnvString("TASKDECK_SESSION_PATH", defaultSessionPath())
	cfg.SessionStoreBackend = getEnvString("TASKDECK_SESSION_BACKEND", SessionBackendFile)
	cfg.RequestRate = getEnvFloat("TASKDECK_REQUEST_RATE", 5.0)
	cfg.RequestBurst = getEnvInt("TASKDECK_REQUEST_BURST", 10)
	cfg.NotificationTTL = getEnvDuration("TASKDECK_NOTIFICATION_TTL", 3*time.Second)
	cfg.NotificationSweep = getEnvDuration("TASKDECK_NOTIFICATION_SWEEP", 1*time.Second)
	cfg.WatchInterval = getEnvDuration("TASKDECK_WATCH_INTERVAL", 30*time.Second)
	cfg.StatusAddr = getEnvString("TASKDECK_STATUS_ADDR", ":9184")

	if cfg.SessionStoreBackend != SessionBackendFile && cfg.SessionStoreBackend != SessionBackendSQLite {
		return nil, fmt.Errorf("invalid TASKDECK_SESSION_BACKEND: %q (must be %q or %q)",
			cfg.SessionStoreBackend, SessionBackendFile, SessionBackendSQLite)
	}

	return cfg, nil
}

// defaultSessionPath はセッションレコードのデフォルト保存先を返す。
// ユーザー設定ディレクトリが解決できない場合はカレントディレクトリを使用する。
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "taskdeck-session.json"
	}
	return filepath.Join(dir, "taskdeck", "session.json")
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

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
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
