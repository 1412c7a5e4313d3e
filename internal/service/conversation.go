package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTrackedTurns       = 20
	autoEvolveMinTurns    = 3
	autoEvolveWindow      = 6
	defaultEvolveTimeout  = 5 * time.Minute
	conversationKeyJoiner = "\x00"
)

var ErrEmptyMessage = errors.New("message is required")

// ClientResolver returns the model client for an agent's provider and model.
// *llm.Providers implements it.
type ClientResolver interface {
	For(provider, model string) domain.LLMClient
}

type ConverseRequest struct {
	Message   string
	ContextID string
	Username  string
}

type ConverseResult struct {
	Reply     string `json:"reply"`
	ContextID string `json:"context_id"`
	Intent    string `json:"intent"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// conversation is runtime-only state for one (agent, context) pair.
type conversation struct {
	turns      []domain.Message
	userTurns  int
	lastIntent string
	lastActive time.Time
}

// ConversationService answers conversation turns using an agent's stored
// knowledge and hands finished turns to the evolution coordinator in the
// background.
type ConversationService struct {
	agents     domain.AgentStore
	clients    ClientResolver
	classifier *IntentClassifier
	evolution  *EvolutionService
	autoGate   *IntervalGate
	logger     *zap.Logger

	evolveTimeout time.Duration
	now           func() time.Time

	mu    sync.Mutex
	convs map[string]*conversation
	wg    sync.WaitGroup
}

// NewConversationService wires the converse path. autoGate rate-limits the
// background trigger per agent and intent.
func NewConversationService(agents domain.AgentStore, clients ClientResolver, classifier *IntentClassifier, evolution *EvolutionService, autoGate *IntervalGate, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		agents:        agents,
		clients:       clients,
		classifier:    classifier,
		evolution:     evolution,
		autoGate:      autoGate,
		logger:        logger,
		evolveTimeout: defaultEvolveTimeout,
		now:           time.Now,
		convs:         make(map[string]*conversation),
	}
}

// Converse answers one user message. Model failures produce a degraded
// apology reply rather than an error; only a missing agent or an empty
// message is reported as one.
func (s *ConversationService) Converse(ctx context.Context, agentID string, req ConverseRequest) (*ConverseResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	a, err := s.evolution.getAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	contextID := strings.TrimSpace(req.ContextID)
	if contextID == "" {
		contextID = uuid.NewString()
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = contextID
	}

	history, prevIntent := s.appendTurn(agentID, contextID, domain.Message{Role: domain.RoleUser, Content: msg})

	cls := s.classifier.Classify(ctx, agentID, RenderTranscript(lastN(history, autoEvolveWindow)), prevIntent)
	s.setIntent(agentID, contextID, cls.Intent)

	messages := make([]domain.Message, 0, len(history)+1)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(a, cls.Intent, username),
	})
	messages = append(messages, history...)

	res := &ConverseResult{ContextID: contextID, Intent: cls.Intent}
	reply, err := s.clients.For(a.Config.Provider, a.Config.Model).Generate(ctx, messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		s.logger.Error("reply generation failed",
			zap.String("agent_id", agentID),
			zap.String("context_id", contextID),
			zap.Error(err),
		)
		metrics.ConversationTurnsTotal.WithLabelValues("degraded").Inc()
		res.Reply = degradedReply
		res.Degraded = true
		return res, nil
	}

	metrics.ConversationTurnsTotal.WithLabelValues("ok").Inc()
	res.Reply = strings.TrimSpace(reply)
	turns, _ := s.appendTurn(agentID, contextID, domain.Message{Role: domain.RoleAssistant, Content: res.Reply})

	s.maybeEvolve(agentID, contextID, username, cls.Intent, turns)
	return res, nil
}

// maybeEvolve starts a background memory update once the conversation has
// enough user turns to be more than a greeting.
func (s *ConversationService) maybeEvolve(agentID, contextID, username, intent string, turns []domain.Message) {
	if s.userTurns(agentID, contextID) < autoEvolveMinTurns {
		return
	}
	if ok, _ := s.autoGate.Allow(agentID + "/" + intent); !ok {
		return
	}

	req := UpdateRequest{
		History:   lastN(turns, autoEvolveWindow),
		Intent:    intent,
		Username:  username,
		ContextID: contextID,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background evolution panicked", zap.String("agent_id", agentID), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.evolveTimeout)
		defer cancel()

		res, err := s.evolution.UpdateMemory(ctx, agentID, req)
		if err != nil {
			s.logger.Warn("background evolution failed",
				zap.String("agent_id", agentID),
				zap.String("intent", intent),
				zap.Error(err),
			)
			return
		}
		if res.Skipped {
			s.logger.Debug("background evolution skipped",
				zap.String("agent_id", agentID),
				zap.Int("retry_after_seconds", res.RetryAfterSeconds),
			)
		}
	}()
}

// Wait blocks until background evolutions finish.
func (s *ConversationService) Wait() {
	s.wg.Wait()
}

// History returns a copy of the tracked turns of a conversation.
func (s *ConversationService) History(agentID, contextID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[convKey(agentID, contextID)]
	if !ok {
		return nil
	}
	return append([]domain.Message(nil), c.turns...)
}

func (s *ConversationService) appendTurn(agentID, contextID string, m domain.Message) ([]domain.Message, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := convKey(agentID, contextID)
	c, ok := s.convs[key]
	if !ok {
		c = &conversation{}
		s.convs[key] = c
	}
	c.turns = append(c.turns, m)
	c.lastActive = s.now()
	if len(c.turns) > maxTrackedTurns {
		c.turns = c.turns[len(c.turns)-maxTrackedTurns:]
	}
	if m.Role == domain.RoleUser {
		c.userTurns++
	}
	return append([]domain.Message(nil), c.turns...), c.lastIntent
}

// Prune forgets conversations idle for longer than maxIdle and returns how
// many were removed.
func (s *ConversationService) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for key, c := range s.convs {
		if c.lastActive.Before(cutoff) {
			delete(s.convs, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked conversations.
func (s *ConversationService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *ConversationService) setIntent(agentID, contextID, intent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[convKey(agentID, contextID)]; ok {
		c.lastIntent = intent
	}
}

func (s *ConversationService) userTurns(agentID, contextID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[convKey(agentID, contextID)]; ok {
		return c.userTurns
	}
	return 0
}

func convKey(agentID, contextID string) string {
	return agentID + conversationKeyJoiner + contextID
}

func lastN(turns []domain.Message, n int) []domain.Message {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// buildSystemPrompt folds topic and user knowledge into the agent's base prompt.
func buildSystemPrompt(a *domain.AgentRecord, intent, username string) string {
	var sb strings.Builder
	sb.WriteString(a.Config.SystemPrompt)
	if facts := a.Thinking.Facts(intent); len(facts) > 0 {
		fmt.Fprintf(&sb, replyKnowledgeSection, strings.ReplaceAll(intent, "_", " "), bulletList(facts))
	}
	if facts := a.Caring.Facts(username); len(facts) > 0 {
		fmt.Fprintf(&sb, replyUserSection, username, bulletList(facts))
	}
	return sb.String()
}

func bulletList(items []string) string {
	return "- " + strings.Join(items, "\n- ")
}
