package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTurn(text string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: text}}
}

func TestUpdateMemory_ColdStart(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()

	res, err := f.evolution.UpdateMemory(ctx, "agent-1", UpdateRequest{
		History:  userTurn("what is a blockchain?"),
		Username: "alice",
	})
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, "blockchain", res.Intent)
	assert.Equal(t, "alice", res.Username)
	assert.True(t, res.ThinkingChanged)
	assert.True(t, res.CaringChanged)
	assert.Equal(t, []string{
		"A blockchain is a distributed ledger.",
		"Blocks in a blockchain are linked by cryptographic hashes.",
	}, res.ThinkingFacts)

	a, err := f.agents.GetByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Thinking.Count("blockchain"))
	assert.Equal(t, 2, a.Caring.Count("alice"))
	assert.Equal(t, "blockchain", f.evolution.LastIntent("agent-1"))
}

func TestUpdateMemory_SecondCallWithinIntervalIsSkipped(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()
	req := UpdateRequest{History: userTurn("what is a blockchain?"), Intent: "blockchain", Username: "alice"}

	_, err := f.evolution.UpdateMemory(ctx, "agent-1", req)
	require.NoError(t, err)

	writes, calls := f.kv.Writes(), f.model.CallCount()
	f.clock.Advance(10 * time.Second)

	res, err := f.evolution.UpdateMemory(ctx, "agent-1", req)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 50, res.RetryAfterSeconds)
	assert.Equal(t, writes, f.kv.Writes(), "skip must not write")
	assert.Equal(t, calls, f.model.CallCount(), "skip must not call the model")

	f.clock.Advance(51 * time.Second)
	res, err = f.evolution.UpdateMemory(ctx, "agent-1", req)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestUpdateMemory_NoChangeDoesNotWrite(t *testing.T) {
	script := defaultScript()
	script.verdict = "VERDICT: INVALID\nCONFIDENCE: 0.95\nREASON: contradicts fact 1"
	f := newFixture(t, script)
	ctx := context.Background()

	_, err := f.agents.Update(ctx, "agent-1", func(a *domain.AgentRecord) error {
		a.Thinking["crypto"] = "Bitcoin launched in 2009."
		a.Caring["alice"] = "Alice prefers short answers."
		return nil
	})
	require.NoError(t, err)
	writes := f.kv.Writes()

	res, err := f.evolution.UpdateMemory(ctx, "agent-1", UpdateRequest{
		History:  userTurn("tell me more about bitcoin"),
		Intent:   "crypto",
		Username: "alice",
	})
	require.NoError(t, err)

	assert.False(t, res.ThinkingChanged)
	assert.False(t, res.CaringChanged)
	assert.Equal(t, []string{"Bitcoin launched in 2009."}, res.ThinkingFacts)
	assert.Equal(t, writes, f.kv.Writes())
}

func TestUpdateMemory_UsernameDefaultsToContextID(t *testing.T) {
	f := newFixture(t, defaultScript())

	res, err := f.evolution.UpdateMemory(context.Background(), "agent-1", UpdateRequest{
		History:   userTurn("hi"),
		Intent:    "greeting",
		ContextID: "ctx-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "ctx-42", res.Username)
}

func TestUpdateMemory_UnknownAgent(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()

	_, err := f.evolution.UpdateMemory(ctx, "ghost", UpdateRequest{History: userTurn("hi")})
	assert.ErrorIs(t, err, ErrAgentNotFound)

	// A not-found call does not consume the interval.
	_, err = f.evolution.UpdateMemory(ctx, "ghost", UpdateRequest{History: userTurn("hi")})
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.Equal(t, 0, f.model.CallCount())
}

func TestEvolve_Manual(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()

	res, err := f.evolution.Evolve(ctx, "agent-1", "Bitcoin", "", 3)
	require.NoError(t, err)

	// The second round proposes the same fact again and admits nothing.
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.CyclesRun)
	assert.True(t, res.StoppedEarly)

	st, err := f.evolution.Status(ctx, "agent-1", "bitcoin", "")
	require.NoError(t, err)
	assert.Equal(t, 1, st.ThinkingCount)
	assert.Equal(t, []IntentSummary{{Intent: "bitcoin", FactCount: 1}}, st.Intents)

	_, err = f.evolution.Evolve(ctx, "agent-1", "  ", "", 1)
	assert.ErrorIs(t, err, ErrIntentRequired)

	_, err = f.evolution.Evolve(ctx, "ghost", "bitcoin", "", 1)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()

	_, err := f.agents.Update(ctx, "agent-1", func(a *domain.AgentRecord) error {
		a.Thinking["tesla"] = "Tesla makes cars.\nTesla is based in Austin."
		a.Thinking["bitcoin"] = domain.EmptyFacts
		a.Caring["bob"] = "Bob is an engineer."
		return nil
	})
	require.NoError(t, err)

	st, err := f.evolution.Status(ctx, "agent-1", "Tesla", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, st.ThinkingCount)
	assert.Equal(t, []string{"Bob is an engineer."}, st.CaringFacts)
	assert.Equal(t, []IntentSummary{
		{Intent: "bitcoin", FactCount: 0},
		{Intent: "tesla", FactCount: 2},
	}, st.Intents)

	_, err = f.evolution.Status(ctx, "ghost", "", "")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestRenderTranscript(t *testing.T) {
	got := RenderTranscript([]domain.Message{
		{Role: domain.RoleUser, Content: "hi\nthere"},
		{Role: domain.RoleAssistant, Content: " hello "},
	})
	assert.Equal(t, "user: hi there\nassistant: hello", got)
}
