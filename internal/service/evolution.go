package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/metrics"
	"github.com/Harshitk-cp/mindforge/internal/reasoning"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"go.uber.org/zap"
)

const (
	defaultManualCycles = 3
	maxManualCycles     = 10
	anonymousUser       = "anonymous"
)

var ErrIntentRequired = errors.New("intent is required")

// UpdateRequest carries the recent turns of one conversation.
type UpdateRequest struct {
	History   []domain.Message
	Intent    string
	Username  string
	ContextID string
}

type UpdateResult struct {
	Skipped           bool     `json:"skipped"`
	RetryAfterSeconds int      `json:"retry_after_seconds,omitempty"`
	Intent            string   `json:"intent,omitempty"`
	Username          string   `json:"username,omitempty"`
	ThinkingChanged   bool     `json:"thinking_changed"`
	CaringChanged     bool     `json:"caring_changed"`
	ThinkingFacts     []string `json:"thinking_facts"`
	CaringFacts       []string `json:"caring_facts"`
}

type IntentSummary struct {
	Intent    string `json:"intent"`
	FactCount int    `json:"fact_count"`
}

type KnowledgeStatus struct {
	Intent        string          `json:"intent,omitempty"`
	ThinkingFacts []string        `json:"thinking_facts,omitempty"`
	ThinkingCount int             `json:"thinking_count"`
	Username      string          `json:"username,omitempty"`
	CaringFacts   []string        `json:"caring_facts,omitempty"`
	CaringCount   int             `json:"caring_count"`
	Intents       []IntentSummary `json:"intents"`
}

// EvolutionService grows an agent's topic ("thinking") and user ("caring")
// knowledge from conversations by running the reasoning engine and
// persisting whatever it admits.
type EvolutionService struct {
	agents     domain.AgentStore
	classifier *IntentClassifier
	llm        domain.LLMClient
	gate       *IntervalGate
	logger     *zap.Logger

	mu         sync.Mutex
	lastIntent map[string]string
}

// NewEvolutionService creates the coordinator. llm should be the
// low-priority background client; gate enforces the per-agent minimum
// update interval.
func NewEvolutionService(agents domain.AgentStore, classifier *IntentClassifier, llm domain.LLMClient, gate *IntervalGate, logger *zap.Logger) *EvolutionService {
	return &EvolutionService{
		agents:     agents,
		classifier: classifier,
		llm:        llm,
		gate:       gate,
		logger:     logger,
		lastIntent: make(map[string]string),
	}
}

// UpdateMemory runs one topic and one user evolution for a conversation.
// Calls arriving within the minimum interval of the previous one for the
// same agent are skipped before any storage or model access.
func (s *EvolutionService) UpdateMemory(ctx context.Context, agentID string, req UpdateRequest) (*UpdateResult, error) {
	if ok, wait := s.gate.Allow(agentID); !ok {
		metrics.EvolutionRunsTotal.WithLabelValues("update", "skipped").Inc()
		return &UpdateResult{Skipped: true, RetryAfterSeconds: ceilSeconds(wait)}, nil
	}

	a, err := s.getAgent(ctx, agentID)
	if err != nil {
		s.gate.Reset(agentID)
		return nil, err
	}

	conversation := RenderTranscript(req.History)

	intent := NormalizeIntent(req.Intent)
	if intent == "" {
		intent = s.classifier.Classify(ctx, agentID, conversation, s.LastIntent(agentID)).Intent
	}
	s.setLastIntent(agentID, intent)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.TrimSpace(req.ContextID)
	}
	if username == "" {
		username = anonymousUser
	}

	topic := s.evolveTopic(ctx, a.Thinking[intent], intent, 1, conversation)
	user := s.evolveUser(ctx, a.Caring[username], username, conversation)

	res := &UpdateResult{
		Intent:          intent,
		Username:        username,
		ThinkingChanged: topic.Changed(),
		CaringChanged:   user.Changed(),
		ThinkingFacts:   domain.SplitFacts(topic.Facts),
		CaringFacts:     domain.SplitFacts(user.Facts),
	}

	if !res.ThinkingChanged && !res.CaringChanged {
		return res, nil
	}

	_, err = s.agents.Update(ctx, agentID, func(a *domain.AgentRecord) error {
		if res.ThinkingChanged {
			a.Thinking[intent] = domain.JoinFacts(res.ThinkingFacts)
		}
		if res.CaringChanged {
			a.Caring[username] = domain.JoinFacts(res.CaringFacts)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist knowledge: %w", err)
	}

	s.logger.Info("agent knowledge updated",
		zap.String("agent_id", agentID),
		zap.String("intent", intent),
		zap.String("username", username),
		zap.Int("topic_facts_added", topic.Added),
		zap.Int("user_facts_added", user.Added),
	)
	return res, nil
}

// Evolve runs the engine for an explicit intent, bypassing the interval
// gate. cycles defaults to 3 and is capped at 10.
func (s *EvolutionService) Evolve(ctx context.Context, agentID, intent, conversation string, cycles int) (*reasoning.EvolveResult, error) {
	intent = NormalizeIntent(intent)
	if intent == "" {
		return nil, ErrIntentRequired
	}
	if cycles <= 0 {
		cycles = defaultManualCycles
	}
	cycles = min(cycles, maxManualCycles)

	a, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	res := s.evolveTopic(ctx, a.Thinking[intent], intent, cycles, conversation)
	if res.Changed() {
		_, err := s.agents.Update(ctx, agentID, func(a *domain.AgentRecord) error {
			a.Thinking[intent] = domain.JoinFacts(domain.SplitFacts(res.Facts))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("persist knowledge: %w", err)
		}
	}
	return &res, nil
}

// Status reports stored knowledge. intent and username are optional; the
// intent index is always included.
func (s *EvolutionService) Status(ctx context.Context, agentID, intent, username string) (*KnowledgeStatus, error) {
	a, err := s.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	st := &KnowledgeStatus{Intents: make([]IntentSummary, 0, len(a.Thinking))}
	if intent = NormalizeIntent(intent); intent != "" {
		st.Intent = intent
		st.ThinkingFacts = a.Thinking.Facts(intent)
		st.ThinkingCount = len(st.ThinkingFacts)
	}
	if username = strings.TrimSpace(username); username != "" {
		st.Username = username
		st.CaringFacts = a.Caring.Facts(username)
		st.CaringCount = len(st.CaringFacts)
	}
	for _, key := range a.Thinking.Keys() {
		st.Intents = append(st.Intents, IntentSummary{Intent: key, FactCount: a.Thinking.Count(key)})
	}
	return st, nil
}

// LastIntent returns the most recent intent resolved for agentID.
func (s *EvolutionService) LastIntent(agentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIntent[agentID]
}

func (s *EvolutionService) setLastIntent(agentID, intent string) {
	s.mu.Lock()
	s.lastIntent[agentID] = intent
	s.mu.Unlock()
}

func (s *EvolutionService) evolveTopic(ctx context.Context, seed, intent string, cycles int, conversation string) reasoning.EvolveResult {
	engine := reasoning.NewEngine(
		reasoning.NewMemory(seed),
		reasoning.NewGenerator(s.llm, s.logger),
		reasoning.NewVerifier(s.llm, s.logger),
		s.logger,
	)
	res := engine.Evolve(ctx, intent, cycles, conversation)
	recordEvolution("topic", res)
	return res
}

func (s *EvolutionService) evolveUser(ctx context.Context, seed, username, conversation string) reasoning.EvolveResult {
	engine := reasoning.NewEngine(
		reasoning.NewMemory(seed),
		reasoning.NewGenerator(s.llm, s.logger,
			reasoning.WithDomain(fmt.Sprintf("understanding how user %s thinks", username))),
		reasoning.NewVerifier(s.llm, s.logger),
		s.logger,
	)
	res := engine.Evolve(ctx, "user_"+NormalizeIntent(username), 1, conversation)
	recordEvolution("user", res)
	return res
}

func (s *EvolutionService) getAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	a, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func recordEvolution(scope string, res reasoning.EvolveResult) {
	outcome := "unchanged"
	if res.Changed() {
		outcome = "changed"
		metrics.FactsAdmittedTotal.WithLabelValues(scope).Add(float64(res.Added))
	}
	metrics.EvolutionRunsTotal.WithLabelValues(scope, outcome).Inc()
}

// RenderTranscript formats turns as "role: content" lines.
func RenderTranscript(turns []domain.Message) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(t.Content), "\n", " "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
