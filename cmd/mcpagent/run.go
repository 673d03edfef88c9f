package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/mcpagent/agent"
	"github.com/spetersoncode/mcpagent/internal/config"
)

func runCmd(a *app) *cobra.Command {
	var server, serverURL, resume string
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Run the agent on a query and save the transcript",
		Long: `Run the agent on a query and save the transcript.

Without a query, the query is read from standard input. With --resume, the
named transcript is loaded and the query continues that conversation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case server != "":
				a.cfg.Server = config.ServerConfig{Command: server}
			case serverURL != "":
				a.cfg.Server.Command = ""
				a.cfg.Server.URL = serverURL
			case a.cfg.Server.Command == "" && a.cfg.Server.URL == "":
				a.cfg.Server.Command = defaultServerCommand()
			}
			if cmd.Flags().Changed("max-steps") {
				a.cfg.MaxSteps = maxSteps
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				var err error
				if query, err = a.prompt("Enter your query: "); err != nil {
					return err
				}
			}
			return a.run(cmd.Context(), query, resume)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "command of a stdio MCP server (default: weatherserver next to this binary)")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "base URL of an SSE MCP server")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "maximum number of steps (default from config)")
	cmd.Flags().StringVar(&resume, "resume", "", "continue the conversation of a saved transcript")
	cmd.MarkFlagsMutuallyExclusive("server", "server-url")
	return cmd
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.stdout, label)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("no query provided: %w", err)
		}
		return "", errors.New("no query provided")
	}
	return line, nil
}

// run executes one agent run, saves its transcript and prints the answer.
// A non-empty resume names the transcript the run continues.
func (a *app) run(ctx context.Context, query, resume string) error {
	opts, runOpts, err := a.resumeOptions(ctx, resume)
	if err != nil {
		return err
	}

	tp, flush, err := a.tracerProvider(ctx)
	if err != nil {
		return err
	}
	defer flush()

	model, err := a.newModel(ctx, a.cfg.Client(a.logger))
	if err != nil {
		return err
	}
	connector, err := a.newConnector(a.cfg.Server)
	if err != nil {
		return err
	}

	ag := agent.New(model, connector, append(a.agentOptions(tp), opts...)...)
	result, runErr := ag.Run(ctx, query, runOpts...)

	if result != nil && len(result.Messages) > 0 {
		a.saveTranscript(context.WithoutCancel(ctx), result)
	}
	if runErr != nil {
		return fmt.Errorf("error running agent: %w", runErr)
	}

	fmt.Fprintln(a.stdout, "\033[94mAgent Result:\033[0m")
	fmt.Fprintln(a.stdout, result.Answer)
	return nil
}

// resumeOptions loads the named transcript as the agent's history.
func (a *app) resumeOptions(ctx context.Context, name string) ([]agent.Option, []agent.RunOption, error) {
	if name == "" {
		return nil, nil, nil
	}
	store, release, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	history, err := store.Load(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resume %s: %w", name, err)
	}
	a.logger.Info("resuming transcript", "name", name, "messages", len(history))
	return []agent.Option{agent.WithHistory(history)}, []agent.RunOption{agent.WithReset(false)}, nil
}

// saveTranscript persists the run's messages. Failures are logged, never
// returned: the answer is still worth printing.
func (a *app) saveTranscript(ctx context.Context, result *agent.Result) {
	store, release, err := a.store()
	if err != nil {
		a.logger.Warn("failed to save logs", "error", err)
		return
	}
	defer release()

	name, err := store.Save(ctx, result.Messages)
	if err != nil {
		a.logger.Warn("failed to save logs", "error", err)
		return
	}
	a.logger.Info("logs saved", "run_id", result.RunID, "name", name)
}
