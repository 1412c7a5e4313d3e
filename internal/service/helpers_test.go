package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"go.uber.org/zap"
)

// countingKV counts value writes so tests can assert that nothing was persisted.
type countingKV struct {
	*store.MemoryKV

	mu      sync.Mutex
	writes  int
	failErr error
}

func newCountingKV() *countingKV {
	return &countingKV{MemoryKV: store.NewMemoryKV()}
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes++
	err := c.failErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.MemoryKV.Set(ctx, key, value)
}

// FailWrites makes every later Set return err.
func (c *countingKV) FailWrites(err error) {
	c.mu.Lock()
	c.failErr = err
	c.mu.Unlock()
}

func (c *countingKV) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type modelScript struct {
	initial    string
	candidates string
	verdict    string
	intent     string
	reply      string
}

func defaultScript() modelScript {
	return modelScript{
		initial:    "A blockchain is a distributed ledger.",
		candidates: `["Blocks in a blockchain are linked by cryptographic hashes."]`,
		verdict:    "VERDICT: VALID\nCONFIDENCE: 0.9\nREASON: consistent and new",
		intent:     "INTENT: blockchain\nKEYWORDS: blockchain, ledger, cadena de bloques",
		reply:      "A blockchain is a shared ledger.",
	}
}

// scriptedModel answers each prompt kind with a fixed response.
func scriptedModel(s modelScript) *llm.MockClient {
	m := llm.NewMockClient()
	m.Handler = func(msgs []domain.Message) (string, error) {
		prompt := msgs[len(msgs)-1].Content
		if len(msgs) > 0 && msgs[0].Role == domain.RoleSystem {
			switch msgs[0].Content {
			case classifySystemPrompt:
				return s.intent, nil
			}
		}
		switch {
		case strings.Contains(prompt, "foundational fact"):
			return s.initial, nil
		case strings.Contains(prompt, "Propose 2-3 NEW"):
			return s.candidates, nil
		case strings.Contains(prompt, "VERDICT:"):
			return s.verdict, nil
		}
		return s.reply, nil
	}
	return m
}

type fixture struct {
	kv         *countingKV
	agents     *store.AgentStore
	model      *llm.MockClient
	clock      *fakeClock
	classifier *IntentClassifier
	evolution  *EvolutionService
}

func newFixture(t *testing.T, script modelScript) *fixture {
	t.Helper()
	kv := newCountingKV()
	agents := store.NewAgentStore(kv)
	model := scriptedModel(script)
	clock := newFakeClock()
	logger := zap.NewNop()

	classifier := NewIntentClassifier(agents, model, logger)
	evolution := NewEvolutionService(agents, classifier, model, NewIntervalGate(time.Minute, clock.Now), logger)

	if err := agents.Create(context.Background(), &domain.AgentRecord{
		ID:     "agent-1",
		Config: domain.AgentConfig{Name: "Guide", SystemPrompt: "You are Guide."},
	}); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		kv:         kv,
		agents:     agents,
		model:      model,
		clock:      clock,
		classifier: classifier,
		evolution:  evolution,
	}
}
