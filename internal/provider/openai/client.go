// Package openai implements [mcpagent.Model] on top of the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/mcpagent"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

var errNoChoices = errors.New("openai: response contained no choices")

// Client wraps the OpenAI SDK to implement ai.Model.
type Client struct {
	client  openai.Client
	options ai.Options
	baseURL string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
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

// New creates a new OpenAI client with the given API key.
// SDK-level retries are disabled; callers retry through internal/retry.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.options.Model == "" {
		c.options.Model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = openai.NewClient(reqOpts...)
	return c
}

// Model returns the model identifier used for requests.
func (c *Client) Model() string { return c.options.Model }

// Generate sends the conversation and returns the assistant's reply text.
func (c *Client) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.options.Model,
		Messages: convertMessages(messages),
	}
	if c.options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.options.MaxTokens))
	}
	if c.options.Temperature != nil {
		params.Temperature = openai.Float(*c.options.Temperature)
	}
	if c.options.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

var _ ai.Model = (*Client)(nil)
