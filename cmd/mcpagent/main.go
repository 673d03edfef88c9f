// Command mcpagent runs a tool-using agent against an MCP server and manages
// the transcripts it saves.
//
// Usage:
//
//	mcpagent run "What's the weather in Paris?" --server ./weatherserver
//	mcpagent logs list
//	mcpagent logs serve --addr :8000
//	mcpagent serve
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr)).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
