package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/mcpagent"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTokens is sent when no limit is configured; the API requires one.
	DefaultMaxTokens = 4096
)

// Client wraps the Anthropic SDK to implement ai.Model.
type Client struct {
	client  anthropic.Client
	options ai.Options
	baseURL string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
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

// New creates a new Anthropic client with the given API key.
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
	c.client = anthropic.NewClient(reqOpts...)
	return c
}

// Model returns the model identifier used for requests.
func (c *Client) Model() string { return c.options.Model }

// Generate sends the conversation and returns the concatenated text blocks
// of the reply.
func (c *Client) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	maxTokens := int64(DefaultMaxTokens)
	if c.options.MaxTokens > 0 {
		maxTokens = int64(c.options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.options.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if c.options.Temperature != nil {
		params.Temperature = anthropic.Float(*c.options.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// wrapError categorizes an Anthropic SDK error by status code and carries
// the server's Retry-After hint for the retry layer.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError(apiErr.StatusCode, ai.ParseRetryAfter(apiErr.Response), err)
}

var _ ai.Model = (*Client)(nil)
