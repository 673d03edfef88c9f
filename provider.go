package mcpagent

import "fmt"

// Provider identifies a model provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	// ProviderVertex serves Gemini models through Vertex AI.
	ProviderVertex Provider = "vertex"
)

// ParseProvider converts a provider identifier into a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderVertex:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider: %q (must be anthropic, openai, google or vertex)", s)
	}
}
