// Command weatherserver is a reference MCP tool server speaking stdio.
//
// It serves fetch_weather(city), backed by wttr.in, and finish_task().
package main

import (
	"log/slog"
	"os"

	"github.com/spetersoncode/mcpagent/internal/weather"
	"github.com/spetersoncode/mcpagent/mcp"
)

func main() {
	// stdout carries the protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var opts []weather.Option
	if u := os.Getenv("WEATHER_BASE_URL"); u != "" {
		opts = append(opts, weather.WithBaseURL(u))
	}

	if err := mcp.ServeStdio(weather.New(opts...).Tools(), mcp.WithName("weather"), mcp.WithVersion("1.0.0")); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
