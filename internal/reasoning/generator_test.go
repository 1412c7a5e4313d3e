package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerator_GenerateCandidates(t *testing.T) {
	mock := llm.NewScriptedClient(`["Solana uses proof of history.", "Solana targets 400ms slots."]`)
	g := NewGenerator(mock, zap.NewNop(), WithDomain("crypto networks"))

	m := NewMemory("Solana is a layer 1 blockchain.")
	got := g.GenerateCandidates(context.Background(), m.Context(), "solana", "user: tell me about solana")

	assert.Equal(t, []string{"Solana uses proof of history.", "Solana targets 400ms slots."}, got)

	prompt := mock.LastPrompt()
	assert.Contains(t, prompt, "Topic: solana")
	assert.Contains(t, prompt, "Domain: crypto networks")
	assert.Contains(t, prompt, "1. Solana is a layer 1 blockchain.")
	assert.Contains(t, prompt, "path-1 (confidence 1.00)")
	assert.Contains(t, prompt, "user: tell me about solana")
}

func TestGenerator_EmptyFactsPlaceholder(t *testing.T) {
	mock := llm.NewScriptedClient(`[]`)
	g := NewGenerator(mock, zap.NewNop())

	got := g.GenerateCandidates(context.Background(), NewMemory("").Context(), "rust", "")
	assert.Empty(t, got)
	assert.Contains(t, mock.LastPrompt(), noFactsPlaceholder)
	assert.NotContains(t, mock.LastPrompt(), "Recent conversation")
}

func TestGenerator_FailuresYieldNoCandidates(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Err = errors.New("provider down")
	g := NewGenerator(mock, zap.NewNop())
	assert.Empty(t, g.GenerateCandidates(context.Background(), Context{}, "rust", ""))

	mock.Reset()
	mock.DefaultResponse = "no array here"
	assert.Empty(t, g.GenerateCandidates(context.Background(), Context{}, "rust", ""))
}

func TestGenerator_GenerateInitialProposition(t *testing.T) {
	mock := llm.NewScriptedClient(`"A blockchain is an append-only distributed ledger."`)
	g := NewGenerator(mock, zap.NewNop())

	got := g.GenerateInitialProposition(context.Background(), "blockchain", "user: what is a blockchain?")
	assert.Equal(t, "A blockchain is an append-only distributed ledger.", got)
}

func TestGenerator_InitialPropositionFallback(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Err = errors.New("timeout")
	g := NewGenerator(mock, zap.NewNop())

	got := g.GenerateInitialProposition(context.Background(), "machine_learning", "user: hi")
	assert.Equal(t, "The conversation concerns machine learning.", got)

	mock.Reset()
	mock.DefaultResponse = "   "
	got = g.GenerateInitialProposition(context.Background(), "rust", "user: hi")
	require.NotEmpty(t, got)
	assert.Contains(t, got, "rust")
}
