package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestVerifier_Verify(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantValid bool
		wantConf  float64
	}{
		{"valid above threshold", "VERDICT: VALID\nCONFIDENCE: 0.85\nREASON: consistent", true, 0.85},
		{"valid at threshold", "VERDICT: VALID\nCONFIDENCE: 0.7\nREASON: ok", true, 0.7},
		{"valid below threshold", "VERDICT: VALID\nCONFIDENCE: 0.5\nREASON: unsure", false, 0.5},
		{"invalid", "VERDICT: INVALID\nCONFIDENCE: 0.95\nREASON: contradicts fact 1", false, 0.95},
		{"garbage", "I think so?", false, DefaultVerdictConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(llm.NewScriptedClient(tt.response), zap.NewNop())
			got := v.Verify(context.Background(), NewMemory("Water boils at 100C at sea level.").Context(), "Ice melts at 0C.")
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestVerifier_ModelErrorRejects(t *testing.T) {
	mock := llm.NewMockClient()
	mock.Err = errors.New("timeout")
	v := NewVerifier(mock, zap.NewNop())

	got := v.Verify(context.Background(), NewMemory("").Context(), "anything")
	assert.False(t, got.Valid)
	assert.Zero(t, got.Confidence)
	assert.Equal(t, "verification failed", got.Reason)
}

func TestVerifier_PromptCarriesFacts(t *testing.T) {
	mock := llm.NewScriptedClient("VERDICT: VALID\nCONFIDENCE: 0.8\nREASON: adds detail")
	v := NewVerifier(mock, zap.NewNop())

	got := v.Verify(context.Background(), NewMemory("Go has goroutines.").Context(), "Go has channels.")
	assert.True(t, got.Valid)
	assert.Equal(t, "adds detail", got.Reason)
	assert.Contains(t, mock.LastPrompt(), "1. Go has goroutines.")
	assert.Contains(t, mock.LastPrompt(), "Go has channels.")
}

func TestVerifier_EmptyContext(t *testing.T) {
	v := NewVerifier(llm.NewScriptedClient("looks fine to me"), zap.NewNop())

	got := v.Verify(context.Background(), Context{}, "anything")
	assert.False(t, got.Valid)
	assert.Equal(t, DefaultVerdictConfidence, got.Confidence)
}
