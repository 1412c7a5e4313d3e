package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
)

const defaultHTTPTimeout = 90 * time.Second

// ErrNotConfigured is returned by Unconfigured clients on every call.
var ErrNotConfigured = errors.New("llm provider not configured")

type options struct {
	model       string
	baseURL     string
	temperature float32
	httpClient  *http.Client
}

// Option customizes a provider client.
type Option func(*options)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint (proxies, tests).
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithTemperature sets the sampling temperature where the provider supports it.
func WithTemperature(t float32) Option {
	return func(o *options) { o.temperature = t }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func applyOptions(opts []Option, model, baseURL string) options {
	o := options{
		model:       model,
		baseURL:     baseURL,
		temperature: 0.3,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates an LLM client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string, opts ...Option) (domain.LLMClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey, opts...), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey, opts...), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey, opts...), nil

	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey, opts...), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, gemini, cerebras, mock)", provider)
	}
}

// Unconfigured is a client that fails every call with the configuration
// error that prevented a real client from being built, so a missing key
// surfaces at first use instead of degrading silently.
type Unconfigured struct {
	Cause error
}

func (u Unconfigured) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	return "", fmt.Errorf("%w: %v", ErrNotConfigured, u.Cause)
}

// KeyFunc returns the API key for a provider.
type KeyFunc func(provider string) string

// Providers hands out clients per (provider, model) pair, building each
// once. Construction failures are cached as Unconfigured clients.
type Providers struct {
	defaultProvider string
	keys            KeyFunc

	mu      sync.Mutex
	clients map[string]domain.LLMClient
}

func NewProviders(defaultProvider string, keys KeyFunc) *Providers {
	return &Providers{
		defaultProvider: defaultProvider,
		keys:            keys,
		clients:         make(map[string]domain.LLMClient),
	}
}

// Default returns the client for the default provider and model.
func (p *Providers) Default() domain.LLMClient {
	return p.For("", "")
}

// For returns the client for provider and model. Empty values fall back to
// the default provider and the provider's default model.
func (p *Providers) For(provider, model string) domain.LLMClient {
	if provider == "" {
		provider = p.defaultProvider
	}
	key := provider + "/" + model

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c
	}
	c, err := NewClient(provider, p.keys(provider), WithModel(model))
	if err != nil {
		c = Unconfigured{Cause: err}
	}
	p.clients[key] = c
	return c
}

// Register installs a prebuilt client for provider and model.
func (p *Providers) Register(provider, model string, c domain.LLMClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[provider+"/"+model] = c
}
