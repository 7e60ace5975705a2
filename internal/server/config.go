// Package server provides configuration helpers that define runtime defaults,
// environment loading, and validation for the relay.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// DefaultPort is the TCP port the relay listens on unless told otherwise.
const DefaultPort = 13

var validate = validator.New()

// Config holds the relay configuration. Every field can be set from the
// environment; the command line may override the port afterwards.
type Config struct {
	Host           string        `env:"RELAY_HOST"`
	Port           int           `env:"RELAY_PORT,default=13"`
	WebSocketAddr  string        `env:"RELAY_WS_ADDR"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxFrameSize   int           `env:"WS_MAX_FRAME_SIZE,default=65536" validate:"gt=0"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	DefaultMessage bool          `env:"RELAY_DEFAULT_MESSAGE"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port:           DefaultPort,
		AllowedOrigins: "http://localhost:8080",
		MaxFrameSize:   64 * 1024,
		WriteTimeout:   10 * time.Second,
		LogLevel:       "INFO",
	}
}

// LoadConfig reads the configuration from the environment, falling back to
// defaults for unset variables, and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Address returns the host:port the TCP relay listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins returns the configured WebSocket origins, split and trimmed.
func (c Config) Origins() []string {
	return parseOrigins(c.AllowedOrigins)
}

// RoomOptions translates the configuration into room options.
func (c Config) RoomOptions() []RoomOption {
	if !c.DefaultMessage {
		return nil
	}
	return []RoomOption{WithDefaultMessage()}
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
