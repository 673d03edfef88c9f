package google

import (
	"context"
	"strings"

	ai "github.com/spetersoncode/mcpagent"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement ai.Model.
type Client struct {
	client   *genai.Client
	options  ai.Options
	baseURL  string
	project  string
	location string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithVertex routes requests through Vertex AI in the given project and
// location. Authentication uses Application Default Credentials and the API
// key is ignored.
func WithVertex(project, location string) ClientOption {
	return func(c *Client) {
		c.project = project
		c.location = location
	}
}

// WithOptions sets the generation options applied to every request.
func WithOptions(opts ...ai.Option) ClientOption {
	return func(c *Client) {
		for _, opt := range opts {
			opt(&c.options)
		}
	}
}

// New creates a new Google GenAI client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.options.Model == "" {
		c.options.Model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.project != "" {
		cfg = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  c.project,
			Location: c.location,
		}
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// Model returns the model identifier used for requests.
func (c *Client) Model() string { return c.options.Model }

// Generate sends the conversation and returns the text parts of the first
// candidate.
func (c *Client) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	contents, system := convertMessages(messages)

	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if c.options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(c.options.MaxTokens)
	}
	if c.options.Temperature != nil {
		temp := float32(*c.options.Temperature)
		config.Temperature = &temp
	}
	if c.options.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.options.Model, contents, config)
	if err != nil {
		return "", wrapError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String(), nil
}

var _ ai.Model = (*Client)(nil)
