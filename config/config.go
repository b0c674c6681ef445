package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the relay process settings.
type Server struct {
	Port            string        `env:"PORT"             envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS"  envDefault:"*"   envSeparator:","`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	SendBuffer      int           `env:"SEND_BUFFER"      envDefault:"256"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" envDefault:"4096"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Ghost holds the headless client settings.
type Ghost struct {
	URL      string        `env:"RELAY_URL"      envDefault:"ws://localhost:3000/ws"`
	LogLevel string        `env:"LOG_LEVEL"      envDefault:"info"`
	SendRate float64       `env:"SEND_RATE"      envDefault:"10"`
	Radius   float64       `env:"GHOST_RADIUS"   envDefault:"5"`
	Period   time.Duration `env:"GHOST_PERIOD"   envDefault:"8s"`
	Dial     time.Duration `env:"DIAL_TIMEOUT"   envDefault:"5s"`
}

// Parse loads environment variables into target.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := Parse(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.SendBuffer <= 0 {
		return Server{}, fmt.Errorf("SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.IdleTimeout <= 0 {
		return Server{}, fmt.Errorf("IDLE_TIMEOUT must be positive, got %s", cfg.IdleTimeout)
	}
	return cfg, nil
}

func LoadGhost() (Ghost, error) {
	var cfg Ghost
	if err := Parse(&cfg); err != nil {
		return Ghost{}, err
	}
	if cfg.SendRate <= 0 {
		return Ghost{}, fmt.Errorf("SEND_RATE must be positive, got %v", cfg.SendRate)
	}
	return cfg, nil
}

// Level maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func Level(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
