package llm

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/mindforge/internal/domain"
)

const (
	cerebrasAPIURL = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel  = "llama-3.3-70b"
)

// CerebrasClient talks to Cerebras, which uses the OpenAI-compatible format.
type CerebrasClient struct {
	apiKey      string
	model       string
	url         string
	temperature float32
	httpClient  *http.Client
}

func NewCerebrasClient(apiKey string, opts ...Option) *CerebrasClient {
	o := applyOptions(opts, cerebrasModel, cerebrasAPIURL)
	return &CerebrasClient{
		apiKey:      apiKey,
		model:       o.model,
		url:         o.baseURL,
		temperature: o.temperature,
		httpClient:  o.httpClient,
	}
}

func (c *CerebrasClient) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	return completeChat(ctx, c.httpClient, "cerebras", c.url, c.apiKey, chatRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: c.temperature,
	})
}
