package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	PagouSecretKey    string
	PagouBaseURL      string
	RedisAddr         string
	KafkaBrokers      []string
	PollInterval      time.Duration
	CountdownInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		Port:              os.Getenv("PORT"),
		PagouSecretKey:    os.Getenv("PAGOU_SECRET_KEY"),
		PagouBaseURL:      os.Getenv("PAGOU_BASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      []string{os.Getenv("KAFKA_BROKER")},
		PollInterval:      5 * time.Second,
		CountdownInterval: time.Second,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.PagouBaseURL == "" {
		cfg.PagouBaseURL = "https://api.pagou.ai"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if len(cfg.KafkaBrokers) == 1 && cfg.KafkaBrokers[0] == "" {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}

	// PAGOU_SECRET_KEY deliberately has no default and is not checked here:
	// a missing credential fails the affected request with 500, not the
	// whole process at startup.
	slog.Info("config loaded",
		"port", cfg.Port,
		"pagou_base_url", cfg.PagouBaseURL,
		"pagou_key_set", cfg.PagouSecretKey != "",
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers)
	return cfg
}
