package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/agent"
	"github.com/spetersoncode/mcpagent/client"
	"github.com/spetersoncode/mcpagent/internal/config"
	"github.com/spetersoncode/mcpagent/internal/tracing"
	"github.com/spetersoncode/mcpagent/mcp"
	"github.com/spetersoncode/mcpagent/transcript"
)

// basePrompt is the CLI's system prompt; %s is the working directory.
const basePrompt = `You are an expert AI agent.
You are given a task and you need to complete it using the tools available.
You are currently working in the directory: %s`

// app carries state shared by the subcommands. The model and connector
// constructors are fields so tests can swap them.
type app struct {
	configPath string
	verbose    bool
	logsDir    string

	cfg    *config.Config
	logger *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newModel     func(ctx context.Context, cfg client.Config) (ai.Model, error)
	newConnector func(cfg config.ServerConfig) (ai.Connector, error)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		newModel: func(ctx context.Context, cfg client.Config) (ai.Model, error) {
			return client.New(ctx, cfg)
		},
		newConnector: connectorFor,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mcpagent",
		Short:        "Run a tool-using agent against an MCP server",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	cmd.PersistentFlags().StringVarP(&a.logsDir, "logs-dir", "l", "", "directory to store transcripts (default ~/.ai-agent-cli/logs)")

	cmd.AddCommand(runCmd(a))
	cmd.AddCommand(logsCmd(a))
	cmd.AddCommand(serveCmd(a))
	return cmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logsDir != "" {
		cfg.Logs.Dir = a.logsDir
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

// store opens the configured transcript store. The returned func releases it.
func (a *app) store() (transcript.Store, func(), error) {
	if addr := a.cfg.Logs.RedisAddr; addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return transcript.NewRedis(rdb, a.cfg.Logs.RedisPrefix), func() {
			if err := rdb.Close(); err != nil {
				a.logger.Warn("failed to close redis client", "error", err)
			}
		}, nil
	}
	if a.cfg.Logs.Dir == "" {
		return nil, nil, fmt.Errorf("no logs directory configured")
	}
	return transcript.NewDir(a.cfg.Logs.Dir), func() {}, nil
}

// tracerProvider returns the OTLP provider when tracing is configured and a
// no-op provider otherwise. The returned func flushes pending spans.
func (a *app) tracerProvider(ctx context.Context) (trace.TracerProvider, func(), error) {
	tc := a.cfg.Tracing
	if tc.Endpoint == "" {
		return noop.NewTracerProvider(), func() {}, nil
	}
	tp, err := tracing.New(ctx, tracing.Config{
		Endpoint:    tc.Endpoint,
		Protocol:    tc.Protocol,
		Insecure:    tc.Insecure,
		ServiceName: tc.ServiceName,
		Headers:     tc.Headers,
	}, version)
	if err != nil {
		return nil, nil, err
	}
	return tp, func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}, nil
}

// agentOptions returns the agent options derived from the configuration.
func (a *app) agentOptions(tp trace.TracerProvider) []agent.Option {
	return []agent.Option{
		agent.WithMaxSteps(a.cfg.MaxSteps),
		agent.WithSystemPrompt(a.systemPrompt()),
		agent.WithModelTimeout(a.cfg.ModelTimeout),
		agent.WithToolTimeout(a.cfg.ToolTimeout),
		agent.WithLogger(a.logger),
		agent.WithTracerProvider(tp),
	}
}

func (a *app) systemPrompt() string {
	if a.cfg.SystemPrompt != "" {
		return a.cfg.SystemPrompt
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return fmt.Sprintf(basePrompt, cwd)
}

// defaultServerCommand is the weatherserver binary installed next to mcpagent.
func defaultServerCommand() string {
	exe, err := os.Executable()
	if err != nil {
		return "weatherserver"
	}
	return filepath.Join(filepath.Dir(exe), "weatherserver")
}

// connectorFor returns a connector for the configured server. A stdio
// command must exist before the agent starts.
func connectorFor(cfg config.ServerConfig) (ai.Connector, error) {
	if cfg.URL != "" {
		return mcp.NewSSEConnector(cfg.URL), nil
	}

	command := cfg.Command
	if strings.ContainsRune(command, filepath.Separator) {
		if _, err := os.Stat(command); err != nil {
			return nil, fmt.Errorf("server not found at %s", command)
		}
	} else if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("server not found: %s", command)
	}

	env := append(os.Environ(), cfg.Env...)
	return mcp.NewStdioConnector(command, env, cfg.Args...), nil
}
