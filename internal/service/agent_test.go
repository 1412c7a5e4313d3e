package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/Harshitk-cp/mindforge/internal/reasoning"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"go.uber.org/zap"
)

func newTestAgentService(model domain.LLMClient) *AgentService {
	return NewAgentService(store.NewAgentStore(store.NewMemoryKV()), model, "openai", "gpt-4o-mini", zap.NewNop())
}

func TestAgentService_Deploy(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())
	ctx := context.Background()

	a, err := s.Deploy(ctx, domain.AgentConfig{Name: "Crypto Guide", Description: "Explains crypto"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected agent ID to be set")
	}
	if a.Config.Provider != "openai" || a.Config.Model != "gpt-4o-mini" {
		t.Errorf("expected default provider/model, got %s/%s", a.Config.Provider, a.Config.Model)
	}
	if a.Config.SystemPrompt == "" {
		t.Error("expected a default system prompt")
	}

	got, err := s.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Config.Name != "Crypto Guide" {
		t.Errorf("expected name Crypto Guide, got %s", got.Config.Name)
	}
}

func TestAgentService_DeployKeepsExplicitProvider(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())

	a, err := s.Deploy(context.Background(), domain.AgentConfig{Name: "Poet", Provider: "anthropic"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Config.Provider != "anthropic" || a.Config.Model != "" {
		t.Errorf("expected anthropic with its default model, got %s/%s", a.Config.Provider, a.Config.Model)
	}
}

func TestAgentService_DeployRequiresName(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())

	_, err := s.Deploy(context.Background(), domain.AgentConfig{Name: "  "})
	if !errors.Is(err, ErrInvalidAgentConfig) {
		t.Fatalf("expected ErrInvalidAgentConfig, got %v", err)
	}
}

func TestAgentService_GetNotFound(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())

	_, err := s.GetByID(context.Background(), "nope")
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestAgentService_SampleIsProtected(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())
	ctx := context.Background()

	if err := s.EnsureSample(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Idempotent.
	if err := s.EnsureSample(ctx); err != nil {
		t.Fatalf("expected no error on second call, got %v", err)
	}

	if err := s.Delete(ctx, domain.SampleAgentID); !errors.Is(err, ErrAgentProtected) {
		t.Fatalf("expected ErrAgentProtected, got %v", err)
	}

	agents, err := s.List(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
}

func TestAgentService_Delete(t *testing.T) {
	s := newTestAgentService(llm.NewMockClient())
	ctx := context.Background()

	a, err := s.Deploy(ctx, domain.AgentConfig{Name: "Temp"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestAgentService_DeployFromDescription(t *testing.T) {
	model := llm.NewScriptedClient("Here you go:\n" +
		`{"name":"Fitness Coach","description":"","skills":["running"," ",""],"system_prompt":"You coach runners."}`)
	s := newTestAgentService(model)

	a, err := s.DeployFromDescription(context.Background(), "a coach for beginner runners")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Config.Name != "Fitness Coach" {
		t.Errorf("expected Fitness Coach, got %s", a.Config.Name)
	}
	if a.Config.Description != "a coach for beginner runners" {
		t.Errorf("expected description from input, got %q", a.Config.Description)
	}
	if len(a.Config.Skills) != 1 {
		t.Errorf("expected blank skills dropped, got %v", a.Config.Skills)
	}
}

func TestAgentService_SynthesizeFailures(t *testing.T) {
	ctx := context.Background()

	s := newTestAgentService(llm.NewScriptedClient("I cannot help with that."))
	if _, err := s.Synthesize(ctx, "anything"); !errors.Is(err, ErrSynthesisFailed) {
		t.Errorf("expected ErrSynthesisFailed for unparsable output, got %v", err)
	}

	failing := llm.NewMockClient()
	failing.Err = errors.New("timeout")
	s = newTestAgentService(failing)
	if _, err := s.Synthesize(ctx, "anything"); !errors.Is(err, ErrSynthesisFailed) {
		t.Errorf("expected ErrSynthesisFailed for model error, got %v", err)
	}

	if _, err := s.Synthesize(ctx, ""); !errors.Is(err, ErrInvalidAgentConfig) {
		t.Errorf("expected ErrInvalidAgentConfig for empty description, got %v", err)
	}
}

func TestParseAgentConfig(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status reasoning.ParseStatus
	}{
		{"clean", `{"name":"A"}`, reasoning.ParseOK},
		{"wrapped", "```json\n{\"name\":\"A\"}\n```", reasoning.ParseFallback},
		{"no object", "nothing", reasoning.ParseFailed},
		{"no name", `{"description":"x"}`, reasoning.ParseFailed},
		{"broken json", `{"name": "A",}`, reasoning.ParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAgentConfig(tt.raw)
			if got.Status != tt.status {
				t.Errorf("ParseAgentConfig(%q) status = %v, want %v", tt.raw, got.Status, tt.status)
			}
		})
	}
}
