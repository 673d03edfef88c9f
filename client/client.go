package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/internal/provider/anthropic"
	"github.com/spetersoncode/mcpagent/internal/provider/google"
	"github.com/spetersoncode/mcpagent/internal/provider/openai"
	"github.com/spetersoncode/mcpagent/internal/retry"
	"golang.org/x/time/rate"
)

// APIKeys holds API keys for different providers.
// Only the key for the selected provider is required.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Vertex locates a Vertex AI deployment.
type Vertex struct {
	Project  string
	Location string
}

// Config holds configuration for creating a model client.
type Config struct {
	// Provider selects the backend. Defaults to ai.ProviderOpenAI.
	Provider ai.Provider

	// Model is the provider-specific model identifier.
	// Empty uses the provider's default.
	Model string

	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// Vertex is required when Provider is ai.ProviderVertex.
	Vertex Vertex

	// BaseURL overrides the provider endpoint (proxies, compatible servers).
	BaseURL string

	// Temperature, MaxTokens and JSONMode are applied to every request.
	Temperature *float64
	MaxTokens   int
	JSONMode    bool

	// Retry controls retries of transient failures. Nil uses DefaultRetry.
	Retry *Retry

	// RequestsPerMinute caps the request rate with a token bucket.
	// Zero or negative disables rate limiting.
	RequestsPerMinute int

	// Burst is the token bucket size (default: 1).
	Burst int

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Logger receives retry and failure logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Retry controls how transient model failures are retried. Waits double
// from Backoff up to MaxBackoff; a longer Retry-After hint from the
// provider wins.
type Retry struct {
	// Attempts counts every call, the first one included. Values below 1
	// mean a single call.
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetry returns the retry policy used when Config.Retry is nil.
func DefaultRetry() Retry {
	return Retry{
		Attempts:   retry.DefaultMaxAttempts,
		Backoff:    retry.DefaultInitialDelay,
		MaxBackoff: retry.DefaultMaxDelay,
	}
}

// NoRetry returns a policy that makes a single call.
func NoRetry() Retry {
	return Retry{Attempts: 1}
}

func (r Retry) config() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = max(r.Attempts, 1)
	if r.Backoff > 0 {
		cfg.InitialDelay = r.Backoff
	}
	if r.MaxBackoff > 0 {
		cfg.MaxDelay = r.MaxBackoff
	}
	cfg.MaxDelay = max(cfg.MaxDelay, cfg.InitialDelay)
	return cfg
}

// ErrMissingAPIKey is returned when the selected provider has no API key.
type ErrMissingAPIKey struct {
	Provider ai.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// Client is an ai.Model that adds retries, rate limiting and events on top of
// a provider implementation.
type Client struct {
	provider    ai.Provider
	model       string
	backend     ai.Model
	retryConfig retry.Config
	limiter     *rate.Limiter
	events      chan<- Event
	logger      *slog.Logger
}

// New creates a client for the configured provider.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = ai.ProviderOpenAI
	}

	var opts []ai.Option
	if cfg.Model != "" {
		opts = append(opts, ai.WithModel(cfg.Model))
	}
	if cfg.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, ai.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.JSONMode {
		opts = append(opts, ai.WithJSONMode(true))
	}

	var (
		backend ai.Model
		model   string
	)
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		if cfg.APIKeys.OpenAI == "" {
			return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
		}
		clientOpts := []openai.ClientOption{openai.WithOptions(opts...)}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
		}
		c := openai.New(cfg.APIKeys.OpenAI, clientOpts...)
		backend, model = c, c.Model()
	case ai.ProviderAnthropic:
		if cfg.APIKeys.Anthropic == "" {
			return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
		}
		clientOpts := []anthropic.ClientOption{anthropic.WithOptions(opts...)}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		c := anthropic.New(cfg.APIKeys.Anthropic, clientOpts...)
		backend, model = c, c.Model()
	case ai.ProviderGoogle, ai.ProviderVertex:
		clientOpts := []google.ClientOption{google.WithOptions(opts...)}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, google.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Provider == ai.ProviderVertex {
			if cfg.Vertex.Project == "" {
				return nil, fmt.Errorf("vertex provider requires a project")
			}
			clientOpts = append(clientOpts, google.WithVertex(cfg.Vertex.Project, cfg.Vertex.Location))
		} else if cfg.APIKeys.Google == "" {
			return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
		}
		c, err := google.New(ctx, cfg.APIKeys.Google, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.Provider, err)
		}
		backend, model = c, c.Model()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	return wrap(cfg.Provider, model, backend, cfg), nil
}

// wrap decorates backend with the retry, rate limit and event settings of cfg.
func wrap(provider ai.Provider, model string, backend ai.Model, cfg Config) *Client {
	policy := DefaultRetry()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		provider:    provider,
		model:       model,
		backend:     backend,
		retryConfig: policy.config(),
		events:      cfg.Events,
		logger:      logger.With("provider", string(provider), "model", model),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), max(cfg.Burst, 1))
	}
	return c
}

// Provider returns the backend provider.
func (c *Client) Provider() ai.Provider { return c.provider }

// Model returns the model identifier sent to the provider.
func (c *Client) Model() string { return c.model }

// Generate sends the conversation to the provider and returns the reply.
// Transient failures are retried according to the client's retry policy.
// Logs and events carry the agent step found in ctx, if any.
func (c *Client) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	base := Event{Provider: c.provider, Model: c.model}
	log := c.logger
	if info, ok := ai.StepInfoFrom(ctx); ok {
		base.RunID, base.Step = info.RunID, info.Step
		log = log.With("run_id", info.RunID, "step", info.Step)
	}
	event := func(typ EventType, fill func(*Event)) {
		ev := base
		ev.Type = typ
		if fill != nil {
			fill(&ev)
		}
		send(c.events, ev)
	}

	start := time.Now()
	event(EventRequestStart, nil)

	out, err := retry.DoNotify(ctx, c.retryConfig, func(f retry.Failure) {
		if f.Final() {
			log.Debug("model request attempt failed", "attempt", f.Attempt, "retryable", f.Retryable, "error", f.Err)
			return
		}
		log.Warn("retrying model request",
			"attempt", f.Attempt,
			"max_attempts", f.Attempts,
			"wait", f.Wait,
			"error", f.Err,
		)
		event(EventRetry, func(ev *Event) {
			ev.Attempt, ev.Wait, ev.Error = f.Attempt, f.Wait, f.Err
		})
	}, func() (string, error) {
		return c.backend.Generate(ctx, messages)
	})

	elapsed := time.Since(start)
	if err != nil {
		log.Error("model request failed", "duration", elapsed, "error", err)
		event(EventRequestError, func(ev *Event) {
			ev.Duration, ev.Error = elapsed, err
		})
		return "", err
	}

	event(EventRequestComplete, func(ev *Event) { ev.Duration = elapsed })
	return out, nil
}

var _ ai.Model = (*Client)(nil)
