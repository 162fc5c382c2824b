package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	commonconfig "chatter-server/packages/go-common/config"
)

// Config holds all configuration for the chat-api service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"chat-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CHAT_API_PORT" envDefault:"8002"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database
	Postgres commonconfig.PostgresConfig

	// Auth service (upstream identity oracle)
	AuthServiceURL string        `env:"AUTH_SERVICE_URL" envDefault:"http://localhost:8001"`
	ServiceKey     string        `env:"MICROSERVICE_SECRET_KEY"`
	AuthTimeout    time.Duration `env:"AUTH_SERVICE_TIMEOUT" envDefault:"5s"`

	// WebSocket
	WSReadLimit    int64         `env:"WS_READ_LIMIT_BYTES" envDefault:"65536"`
	WSWriteTimeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPongTimeout  time.Duration `env:"WS_PONG_TIMEOUT" envDefault:"60s"`

	// Message history
	MessagePageSize int `env:"MESSAGE_PAGE_SIZE" envDefault:"50"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.AuthServiceURL) == "" {
		return nil, fmt.Errorf("AUTH_SERVICE_URL is required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, fmt.Errorf("MICROSERVICE_SECRET_KEY is required")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
