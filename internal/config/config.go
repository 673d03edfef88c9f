// Package config loads mcpagent settings from a .env file, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/client"
)

// Defaults applied before the YAML file and environment.
const (
	DefaultProvider    = ai.ProviderOpenAI
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
	DefaultMaxSteps    = 5
	DefaultLogsDir     = "~/.ai-agent-cli/logs"
	DefaultHTTPAddr    = ":8000"
	DefaultLogLevel    = "warn"
)

// Config holds the CLI and server configuration.
type Config struct {
	Provider    ai.Provider `yaml:"provider"`
	Model       string      `yaml:"model"`
	BaseURL     string      `yaml:"base_url"`
	Temperature float64     `yaml:"temperature"`
	MaxTokens   int         `yaml:"max_tokens"`

	// RequestsPerMinute caps model calls; zero disables the limit.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	Retry RetryConfig `yaml:"retry"`

	MaxSteps     int           `yaml:"max_steps"`
	ModelTimeout time.Duration `yaml:"model_timeout"`
	ToolTimeout  time.Duration `yaml:"tool_timeout"`

	// SystemPrompt replaces the default base system prompt when set.
	SystemPrompt string `yaml:"system_prompt"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Server  ServerConfig  `yaml:"server"`
	Logs    LogsConfig    `yaml:"logs"`
	HTTP    HTTPConfig    `yaml:"http"`
	Vertex  VertexConfig  `yaml:"vertex"`
	Tracing TracingConfig `yaml:"tracing"`

	// API keys are read from the environment only.
	AnthropicKey string `yaml:"-"`
	OpenAIKey    string `yaml:"-"`
	GoogleKey    string `yaml:"-"`
}

// ServerConfig locates the MCP tool server. Exactly one of Command and URL
// must be set.
type ServerConfig struct {
	// Command is launched as a subprocess speaking MCP over stdio.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`

	// URL is the base URL of an MCP server speaking SSE.
	URL string `yaml:"url"`
}

// LogsConfig selects where transcripts are saved.
type LogsConfig struct {
	Dir string `yaml:"dir"`

	// RedisAddr, when set, saves transcripts to Redis instead of Dir.
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// RetryConfig controls retries of transient model failures.
type RetryConfig struct {
	// Attempts counts every call; 1 disables retries.
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// VertexConfig locates a Vertex AI deployment (uses ADC for auth).
type VertexConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
}

// TracingConfig configures OTLP trace export. Empty Endpoint disables it.
type TracingConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Protocol    string            `yaml:"protocol"` // grpc (default) or http
	Insecure    bool              `yaml:"insecure"`
	ServiceName string            `yaml:"service_name"`
	Headers     map[string]string `yaml:"headers"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	retry := client.DefaultRetry()
	return &Config{
		Provider:    DefaultProvider,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxSteps:    DefaultMaxSteps,
		Retry:       RetryConfig{Attempts: retry.Attempts, Backoff: retry.Backoff, MaxBackoff: retry.MaxBackoff},
		LogLevel:    DefaultLogLevel,
		Logs:        LogsConfig{Dir: DefaultLogsDir},
		HTTP:        HTTPConfig{Addr: DefaultHTTPAddr},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded if present. path names an optional YAML file; a missing file is an
// error only when path is non-empty. Load does not validate; callers that
// run the agent call Validate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MCPAGENT_PROVIDER"); v != "" {
		c.Provider = ai.Provider(v)
	}
	c.Model = getEnvOrDefault("MCPAGENT_MODEL", c.Model)
	c.BaseURL = getEnvOrDefault("MCPAGENT_BASE_URL", c.BaseURL)
	c.LogLevel = getEnvOrDefault("MCPAGENT_LOG_LEVEL", c.LogLevel)
	c.Server.Command = getEnvOrDefault("MCPAGENT_SERVER_COMMAND", c.Server.Command)
	c.Server.URL = getEnvOrDefault("MCPAGENT_SERVER_URL", c.Server.URL)
	c.Logs.Dir = getEnvOrDefault("MCPAGENT_LOGS_DIR", c.Logs.Dir)
	c.Logs.RedisAddr = getEnvOrDefault("MCPAGENT_REDIS_ADDR", c.Logs.RedisAddr)
	c.HTTP.Addr = getEnvOrDefault("MCPAGENT_HTTP_ADDR", c.HTTP.Addr)
	c.Tracing.Endpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Vertex.Project = getEnvOrDefault("VERTEX_PROJECT", c.Vertex.Project)
	c.Vertex.Location = getEnvOrDefault("VERTEX_LOCATION", c.Vertex.Location)

	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.GoogleKey = os.Getenv("GOOGLE_API_KEY")

	var errs []error
	var err error
	if c.Temperature, err = getEnvFloat("MCPAGENT_TEMPERATURE", c.Temperature); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTokens, err = getEnvInt("MCPAGENT_MAX_TOKENS", c.MaxTokens); err != nil {
		errs = append(errs, err)
	}
	if c.MaxSteps, err = getEnvInt("MCPAGENT_MAX_STEPS", c.MaxSteps); err != nil {
		errs = append(errs, err)
	}
	if c.RequestsPerMinute, err = getEnvInt("MCPAGENT_REQUESTS_PER_MINUTE", c.RequestsPerMinute); err != nil {
		errs = append(errs, err)
	}
	if c.Retry.Attempts, err = getEnvInt("MCPAGENT_RETRY_ATTEMPTS", c.Retry.Attempts); err != nil {
		errs = append(errs, err)
	}
	if c.ModelTimeout, err = getEnvDuration("MCPAGENT_MODEL_TIMEOUT", c.ModelTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.ToolTimeout, err = getEnvDuration("MCPAGENT_TOOL_TIMEOUT", c.ToolTimeout); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks that the provider, its credentials and the tool server
// are configured.
func (c *Config) Validate() error {
	if _, err := ai.ParseProvider(string(c.Provider)); err != nil {
		return err
	}

	switch c.Provider {
	case ai.ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic provider")
		}
	case ai.ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	case ai.ProviderGoogle:
		if c.GoogleKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for google provider")
		}
	case ai.ProviderVertex:
		if c.Vertex.Project == "" || c.Vertex.Location == "" {
			return fmt.Errorf("VERTEX_PROJECT and VERTEX_LOCATION are required for vertex provider")
		}
	}

	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}

	switch {
	case c.Server.Command == "" && c.Server.URL == "":
		return errors.New("a tool server is required (server.command or server.url)")
	case c.Server.Command != "" && c.Server.URL != "":
		return errors.New("server.command and server.url are mutually exclusive")
	}
	return nil
}

// Client returns the model client configuration.
func (c *Config) Client(logger *slog.Logger) client.Config {
	temperature := c.Temperature
	return client.Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKeys: client.APIKeys{
			Anthropic: c.AnthropicKey,
			OpenAI:    c.OpenAIKey,
			Google:    c.GoogleKey,
		},
		Vertex: client.Vertex{
			Project:  c.Vertex.Project,
			Location: c.Vertex.Location,
		},
		BaseURL:           c.BaseURL,
		Temperature:       &temperature,
		MaxTokens:         c.MaxTokens,
		JSONMode:          true,
		RequestsPerMinute: c.RequestsPerMinute,
		Retry:             &client.Retry{Attempts: c.Retry.Attempts, Backoff: c.Retry.Backoff, MaxBackoff: c.Retry.MaxBackoff},
		Logger:            logger,
	}
}

// Level returns the slog level named by LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
