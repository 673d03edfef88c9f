package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/mcpagent/transcript"
	"github.com/spetersoncode/mcpagent/transcript/httpapi"
)

func logsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View and manage saved transcripts",
	}
	cmd.AddCommand(logsListCmd(a))
	cmd.AddCommand(logsShowCmd(a))
	cmd.AddCommand(logsDeleteCmd(a))
	cmd.AddCommand(logsServeCmd(a))
	return cmd
}

func logsListCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transcripts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := a.store()
			if err != nil {
				return err
			}
			defer release()

			names, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(a, map[string][]string{"logs": names})
			}
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "No transcripts found.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func logsShowCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.store()
			if err != nil {
				return err
			}
			defer release()

			messages, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return transcript.Encode(a.stdout, messages)
			}
			for i, m := range messages {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				fmt.Fprintf(a.stdout, "[%s]\n%s\n", strings.ToUpper(string(m.Role)), m.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSONL")
	return cmd
}

func logsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.store()
			if err != nil {
				return err
			}
			defer release()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Deleted transcript: %s\n", args[0])
			return nil
		},
	}
}

func logsServeCmd(a *app) *cobra.Command {
	var addr string
	var dirs map[string]string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transcript viewer API",
		Long: `Serve the transcript viewer API.

The configured store is served as directory "logs". Extra directories of
JSONL files can be added with --dir name=path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler, release, err := a.transcriptHandler(dirs)
			if err != nil {
				return err
			}
			defer release()

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			return a.serveHTTP(cmd.Context(), addr, httpapi.NewRouter(handler))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	cmd.Flags().StringToStringVar(&dirs, "dir", nil, "extra transcript directory as name=path (repeatable)")
	return cmd
}

// transcriptHandler builds the viewer API over the configured store plus
// the extra named directories.
func (a *app) transcriptHandler(dirs map[string]string) (*httpapi.Handler, func(), error) {
	store, release, err := a.store()
	if err != nil {
		return nil, nil, err
	}

	stores := map[string]transcript.Store{httpapi.DefaultDirectory: store}
	for name, path := range dirs {
		if err := transcript.ValidateName(name); err != nil {
			release()
			return nil, nil, fmt.Errorf("invalid directory name %q: %w", name, err)
		}
		stores[name] = transcript.NewDir(path)
	}
	return httpapi.New(stores, httpapi.WithLogger(a.logger)), release, nil
}

func printJSON(a *app, v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
