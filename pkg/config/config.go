package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// HTTP
	HTTPTimeout time.Duration

	// External APIs
	FinMind  FinMindConfig
	Telegram TelegramConfig

	// Scan
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// FinMindConfig holds FinMind (台股 데이터) API configuration
type FinMindConfig struct {
	Token   string // 비어 있으면 비인증 모드
	BaseURL string

	// 초당 요청 수 상한 (시간당 쿼터와 별개의 페이싱)
	RequestsPerSecond float64
}

// Authenticated reports whether a FinMind token is configured
func (f FinMindConfig) Authenticated() bool {
	return f.Token != ""
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	Token   string
	ChatID  string
	BaseURL string
}

// Enabled reports whether both the bot token and the destination chat are set
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != ""
}

// ScanConfig holds scan runtime options
type ScanConfig struct {
	Market     string // twse, tpex, all
	Schedule   string // cron expression (with seconds)
	Timezone   string
	RunOnStart bool // schedule 모드에서 시작 직후 1회 실행
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		HTTPTimeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		FinMind: FinMindConfig{
			Token:             getEnv("FINMIND_TOKEN", ""),
			BaseURL:           getEnv("FINMIND_BASE_URL", "https://api.finmindtrade.com/api/v4"),
			RequestsPerSecond: getEnvAsFloat("FINMIND_MAX_RPS", 2),
		},

		Telegram: TelegramConfig{
			Token:   getEnv("TELEGRAM_TOKEN", ""),
			ChatID:  getEnv("CHAT_ID", ""),
			BaseURL: getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		Scan: ScanConfig{
			Market:     getEnv("SCAN_MARKET", "twse"),
			Schedule:   getEnv("SCAN_SCHEDULE", "0 30 14 * * 1-5"), // 장 마감 후 평일 14:30
			Timezone:   getEnv("SCAN_TIMEZONE", "Asia/Taipei"),
			RunOnStart: getEnvAsBool("SCAN_RUN_ON_START", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
// Credentials are optional: missing ones degrade the run instead of failing it.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Scan.Market {
	case "twse", "tpex", "all":
	default:
		return fmt.Errorf("SCAN_MARKET must be one of: twse, tpex, all")
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}

	if c.FinMind.RequestsPerSecond < 0 {
		return fmt.Errorf("FINMIND_MAX_RPS must not be negative")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
