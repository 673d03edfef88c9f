// Package weather provides the reference tools served by cmd/weatherserver.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/mcp"
)

// DefaultBaseURL is the wttr.in endpoint queried by fetch_weather.
const DefaultBaseURL = "https://wttr.in"

// FinishMessage is the result of finish_task.
const FinishMessage = "Task completed successfully."

// maxBody caps the response read from the weather service.
const maxBody = 64 << 10

// Service fetches one-line weather reports.
type Service struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the HTTP client (default: 15s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// WithBaseURL overrides the weather service endpoint.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// New returns a Service.
func New(opts ...Option) *Service {
	s := &Service{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the weather report for city in wttr.in's format 4, e.g.
// "Paris: ☀️ +20°C ↗11km/h". The body is returned as served.
func (s *Service) Fetch(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", errors.New("city is required")
	}

	endpoint := fmt.Sprintf("%s/%s?format=4", s.baseURL, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// Tools returns fetch_weather and finish_task, in that order.
func (s *Service) Tools() []mcp.ServerTool {
	return []mcp.ServerTool{
		{
			Tool: ai.Tool{
				Name:        "fetch_weather",
				Description: "Fetch the current weather for a city.",
				Parameters:  `{"type":"object","properties":{"city":{"type":"string","description":"City name, e.g. Paris"}},"required":["city"]}`,
			},
			Handler: func(ctx context.Context, args map[string]any) (*ai.ToolResult, error) {
				city, _ := args["city"].(string)
				report, err := s.Fetch(ctx, city)
				if err != nil {
					return nil, err
				}
				return ai.NewTextResult(report), nil
			},
		},
		{
			Tool: ai.Tool{
				Name:        "finish_task",
				Description: "Signal that the task is complete.",
				Parameters:  `{"type":"object","properties":{}}`,
			},
			Handler: func(context.Context, map[string]any) (*ai.ToolResult, error) {
				return ai.NewTextResult(FinishMessage), nil
			},
		},
	}
}
