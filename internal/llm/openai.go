package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/buildconfig"
	"github.com/Harshitk-cp/mindforge/internal/domain"
)

const (
	openAIChatURL   = "https://api.openai.com/v1/chat/completions"
	openAIChatModel = "gpt-4o-mini"
)

type OpenAIClient struct {
	apiKey      string
	model       string
	url         string
	temperature float32
	httpClient  *http.Client
}

func NewOpenAIClient(apiKey string, opts ...Option) *OpenAIClient {
	o := applyOptions(opts, openAIChatModel, openAIChatURL)
	return &OpenAIClient{
		apiKey:      apiKey,
		model:       o.model,
		url:         o.baseURL,
		temperature: o.temperature,
		httpClient:  o.httpClient,
	}
}

// chat types for the OpenAI-compatible chat completions API
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	return completeChat(ctx, c.httpClient, "openai", c.url, c.apiKey, chatRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: c.temperature,
	})
}

// completeChat posts an OpenAI-compatible chat request. Cerebras shares it.
func completeChat(ctx context.Context, httpClient *http.Client, name, url, apiKey string, chatReq chatRequest) (string, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildconfig.UserAgent())
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API returned status %d: %s", name, resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal %s response: %w", name, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("%s API error: %s", name, result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%s API returned no choices", name)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
