package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is everything the server reads from its environment.
type Config struct {
	Port    string `env:"PORT"    envDefault:"8080"`
	DBURL   string `env:"DB_URL"  envDefault:"chat.db"`
	Migrate bool   `env:"MIGRATE" envDefault:"true"`

	ClientBuffer int           `env:"CLIENT_BUFFER" envDefault:"64"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"30s"`

	PersistTimeout  time.Duration `env:"PERSIST_TIMEOUT"  envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file from the working directory and then
// parses the environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file: %+v", err)
	}
	return Parse()
}

// Parse reads Config from the environment alone.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("internal/config: parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Port == "":
		return errors.New("internal/config: PORT is empty")
	case c.DBURL == "":
		return errors.New("internal/config: DB_URL is empty")
	case c.ClientBuffer < 1:
		return fmt.Errorf("internal/config: CLIENT_BUFFER must be positive, got %d", c.ClientBuffer)
	case c.WriteTimeout <= 0, c.PingInterval <= 0, c.PersistTimeout <= 0, c.ShutdownTimeout <= 0:
		return errors.New("internal/config: timeouts and intervals must be positive")
	}
	return nil
}
