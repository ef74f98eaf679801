package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for the client and the backend server.
const (
	DefaultEndpoint       = "https://aitranscribe.replit.app/transcribe"
	DefaultHTTPHost       = "0.0.0.0"
	DefaultHTTPPort       = "5000"
	DefaultMaxUploadMB    = 100
	DefaultRateLimitRPS   = 2
	DefaultRateLimitBurst = 5
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// DefaultAllowedOrigins are the browser origins allowed to call the backend.
var DefaultAllowedOrigins = []string{
	"https://transcribe.emmetts.dev",
	"https://*.emmetts.dev",
}

// ClientConfig configures the upload command.
type ClientConfig struct {
	Endpoint  string        `yaml:"endpoint" validate:"required,url"`
	OutputDir string        `yaml:"output_dir"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`

	// MetricsFile receives upload metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file"`
}

// ServerConfig configures the transcription backend.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port" validate:"required,numeric"`
	Environment    string        `yaml:"environment" validate:"oneof=development production"`
	AllowedOrigins []string      `yaml:"allowed_origins" validate:"dive,required"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int           `yaml:"rate_limit_burst" validate:"gte=0"`
	MaxUploadMB    int64         `yaml:"max_upload_mb" validate:"gt=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gte=0"`
	GeminiModel    string        `yaml:"gemini_model"`
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// MaxUploadBytes returns the multipart size limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Config is everything the binary can be told.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint: DefaultEndpoint,
		},
		Server: ServerConfig{
			Host:           DefaultHTTPHost,
			Port:           DefaultHTTPPort,
			Environment:    "development",
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
			RateLimitRPS:   DefaultRateLimitRPS,
			RateLimitBurst: DefaultRateLimitBurst,
			MaxUploadMB:    DefaultMaxUploadMB,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   10 * time.Minute,
			GeminiModel:    DefaultGeminiModel,
		},
	}
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() error {
	if err := c.applyClientEnv(); err != nil {
		return err
	}
	return c.applyServerEnv()
}

func (c *Config) applyClientEnv() error {
	c.Client.Endpoint = getEnvOrDefault("AITRANSCRIBE_ENDPOINT", c.Client.Endpoint)
	c.Client.OutputDir = getEnvOrDefault("AITRANSCRIBE_OUTPUT_DIR", c.Client.OutputDir)
	if v := os.Getenv("AITRANSCRIBE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AITRANSCRIBE_TIMEOUT %q: %w", v, err)
		}
		c.Client.Timeout = d
	}
	c.Client.MetricsFile = getEnvOrDefault("AITRANSCRIBE_METRICS_FILE", c.Client.MetricsFile)
	return nil
}

func (c *Config) applyServerEnv() error {
	c.Server.Host = getEnvOrDefault("HOST", c.Server.Host)
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.Environment = getEnvOrDefault("ENVIRONMENT", c.Server.Environment)
	c.Server.GeminiModel = getEnvOrDefault("GEMINI_MODEL", c.Server.GeminiModel)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.Server.RateLimitRPS = rps
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		c.Server.MaxUploadMB = mb
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
