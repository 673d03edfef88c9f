package agent

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/prompt"
)

// DefaultMaxSteps is the step budget used when none is configured.
const DefaultMaxSteps = 20

// Options contains configuration for an Agent.
type Options struct {
	// MaxSteps limits the number of steps per run. Default is 20.
	// Zero runs no steps.
	MaxSteps int

	// SystemPrompt is the base instructions; the tool catalogue is appended
	// to it on every run. Default is prompt.DefaultInstructions.
	SystemPrompt string

	// ModelTimeout bounds each model call. Zero means no limit.
	ModelTimeout time.Duration

	// ToolTimeout bounds each tool call. Zero means no limit.
	ToolTimeout time.Duration

	// Observer receives run events. May be nil.
	Observer Observer

	// Logger receives run logs. Default is slog.Default().
	Logger *slog.Logger

	// TracerProvider creates the run and step spans.
	// Default is the global provider.
	TracerProvider trace.TracerProvider

	// History seeds the conversation, e.g. from a saved transcript.
	// Runs started with WithReset(false) continue it.
	History []ai.Message
}

// Option is a functional option for configuring an Agent.
type Option func(*Options)

// WithMaxSteps sets the per-run step budget.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithSystemPrompt sets the base system instructions.
func WithSystemPrompt(s string) Option {
	return func(o *Options) {
		o.SystemPrompt = s
	}
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ModelTimeout = d
	}
}

// WithToolTimeout bounds each tool call.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ToolTimeout = d
	}
}

// WithObserver sets the event observer. Use MultiObserver to attach several.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

// WithHistory seeds the conversation with msgs. Only the last system
// message is kept.
func WithHistory(msgs []ai.Message) Option {
	return func(o *Options) {
		o.History = msgs
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:     DefaultMaxSteps,
		SystemPrompt: prompt.DefaultInstructions,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	if o.MaxSteps < 0 {
		o.MaxSteps = 0
	}
	return o
}

// RunOptions configures a single run.
type RunOptions struct {
	// MaxSteps overrides the agent's step budget when non-nil.
	MaxSteps *int

	// Reset clears the conversation before the run. Default is true.
	// When false, prior messages are kept and only the system message is
	// replaced.
	Reset bool
}

// RunOption is a functional option for a single run.
type RunOption func(*RunOptions)

// WithRunMaxSteps overrides the step budget for one run.
func WithRunMaxSteps(n int) RunOption {
	return func(o *RunOptions) {
		o.MaxSteps = &n
	}
}

// WithReset controls whether the conversation is cleared before the run.
func WithReset(reset bool) RunOption {
	return func(o *RunOptions) {
		o.Reset = reset
	}
}

func applyRunOptions(opts ...RunOption) *RunOptions {
	o := &RunOptions{Reset: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
