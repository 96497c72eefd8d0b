package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	Cluster      string
	TickInterval time.Duration
	ServerPort   int

	PlatformBaseURL  string
	PlatformAPIToken string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// R2Configured reports whether every credential needed for the standings
// archive is present; without them the archive is simply skipped.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	platformURL := os.Getenv("PLATFORM_BASE_URL")
	if platformURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL environment variable is not set")
	}

	cluster := os.Getenv("LADDER_CLUSTER")
	if cluster == "" {
		cluster = "main"
	}

	intervalStr := os.Getenv("TICK_INTERVAL_SECONDS")
	if intervalStr == "" {
		intervalStr = "30"
	}
	intervalSec, err := strconv.Atoi(intervalStr)
	if err != nil || intervalSec <= 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL_SECONDS environment variable: %q", intervalStr)
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	return &Config{
		DatabaseURL:  dbURL,
		Cluster:      cluster,
		TickInterval: time.Duration(intervalSec) * time.Second,
		ServerPort:   port,

		PlatformBaseURL:  platformURL,
		PlatformAPIToken: os.Getenv("PLATFORM_API_TOKEN"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}
