package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultBackendURL is used when neither the config file nor the environment names a backend.
const DefaultBackendURL = "http://localhost:5000"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// BackendConfig describes the media backend that resolves and downloads songs.
type BackendConfig struct {
	URL      string        `toml:"url"`
	Info     RequestConfig `toml:"info"`
	Download RequestConfig `toml:"download"`
}

// RequestConfig holds the per-attempt timeout and retry budget for one backend operation.
type RequestConfig struct {
	TimeoutMS int `toml:"timeout_ms"`
	Retries   int `toml:"retries"`
}

// Timeout returns the per-attempt deadline as a [time.Duration].
func (r RequestConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// ServerConfig contains HTTP server settings for the web front-end.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	RateLimitPerSecond float64  `toml:"rate_limit_per_second"`
	RateLimitBurst     int      `toml:"rate_limit_burst"`
	AllowedOrigins     []string `toml:"allowed_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// EnvOverrides are the values read from the process environment.
type EnvOverrides struct {
	BackendURL string `envconfig:"MUSICONE_API_URL"`
	LogLevel   string `envconfig:"MUSICONE_LOG_LEVEL"`
	Port       int    `envconfig:"PORT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads a .env file when present and reads the environment overrides.
//
// A missing .env file is not an error.
func LoadEnv(files ...string) (EnvOverrides, error) {
	var env EnvOverrides
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return env, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return env, nil
}

// Apply merges non-empty overrides into c and fills in the backend default.
func (e EnvOverrides) Apply(c *Config) {
	if v := strings.TrimSpace(e.BackendURL); v != "" {
		c.Backend.URL = v
	}
	if e.LogLevel != "" {
		c.Log.Level = e.LogLevel
	}
	if e.Port > 0 {
		c.Server.Port = e.Port
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		c.Backend.URL = DefaultBackendURL
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
}

// Validate checks the values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.Backend.Info.TimeoutMS <= 0 || c.Backend.Download.TimeoutMS <= 0 {
		return fmt.Errorf("%w: backend timeouts must be positive", ErrInvalidConfig)
	}
	if c.Backend.Info.Retries < 0 || c.Backend.Download.Retries < 0 {
		return fmt.Errorf("%w: backend retries cannot be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
