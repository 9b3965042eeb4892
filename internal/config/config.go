package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// 本番環境で許可するbcryptコストの範囲。
const (
	productionMinBcryptCost = 10
	productionMaxBcryptCost = 12
)

// 実行環境
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Environment
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL      string
	AutoMigrate      bool
	DBConnectRetries int // 起動時のDB疎通確認の再試行回数

	// JWT
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	BcryptCost       int

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitAuth    int

	// Booking
	BookingCancelMode    string
	BookingRetentionDays int

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.AppEnv = strings.ToLower(getEnvString("APP_ENV", EnvDevelopment))

	// Required fields
	var missing []string

	cfg.JWTAccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	if cfg.JWTAccessSecret == "" {
		cfg.JWTAccessSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTAccessSecret == "" {
		missing = append(missing, "JWT_ACCESS_SECRET")
	}

	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	if cfg.JWTRefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts(cfg.IsProduction())
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.IsProduction() && cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ in production")
	}

	// Optional fields with defaults
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", !cfg.IsProduction())
	cfg.DBConnectRetries = getEnvInt("DB_CONNECT_RETRIES", 5)
	cfg.JWTAccessTTL = getEnvDuration("JWT_EXPIRES_IN", time.Hour)
	cfg.JWTRefreshTTL = getEnvDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.BookingCancelMode = strings.ToLower(getEnvString("BOOKING_CANCEL_MODE", "soft"))
	cfg.BookingRetentionDays = getEnvInt("BOOKING_RETENTION_DAYS", 180)
	cfg.ServerPort = getEnvString("PORT", "5000")
	cfg.CookieSecure = cfg.IsProduction()
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.BookingCancelMode != "soft" && cfg.BookingCancelMode != "hard" {
		return nil, fmt.Errorf("BOOKING_CANCEL_MODE must be soft or hard, got %q", cfg.BookingCancelMode)
	}
	if cfg.DBConnectRetries < 0 {
		cfg.DBConnectRetries = 0
	}
	minCost, maxCost := bcrypt.MinCost, bcrypt.MaxCost
	if cfg.IsProduction() {
		minCost, maxCost = productionMinBcryptCost, productionMaxBcryptCost
	}
	if cfg.BcryptCost < minCost || cfg.BcryptCost > maxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d in %s, got %d", minCost, maxCost, cfg.AppEnv, cfg.BcryptCost)
	}
	if cfg.RateLimitGeneral <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_GENERAL must be positive, got %d", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitAuth <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_AUTH must be positive, got %d", cfg.RateLimitAuth)
	}

	return cfg, nil
}

// databaseURLFromParts はDB_HOST等の個別の環境変数から接続URLを組み立てる。
// DB_HOSTが未設定の場合は空文字を返す。本番ではsslmode=requireとする。
func databaseURLFromParts(production bool) string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	sslmode := "disable"
	if production {
		sslmode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnvString("DB_USER", "postgres"), os.Getenv("DB_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnvString("DB_PORT", "5432")),
		Path:     "/" + getEnvString("DB_NAME", "gymman"),
		RawQuery: "sslmode=" + sslmode,
	}
	return u.String()
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

// getEnvDuration はtime.ParseDuration形式に加え、"7d"のような日数指定も受け付ける。
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return defaultVal
		}
		return time.Duration(n) * 24 * time.Hour
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
