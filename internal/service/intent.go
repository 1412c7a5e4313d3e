package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/metrics"
	"github.com/Harshitk-cp/mindforge/internal/reasoning"
	"go.uber.org/zap"
)

// ClassificationSource records which tier resolved an intent.
type ClassificationSource string

const (
	SourcePattern  ClassificationSource = "pattern"
	SourceModel    ClassificationSource = "model"
	SourceFallback ClassificationSource = "fallback"
)

type Classification struct {
	Intent   string               `json:"intent"`
	Source   ClassificationSource `json:"source"`
	Keywords []string             `json:"keywords,omitempty"`
}

// IntentClassifier maps conversation text to a topic label. Cached keyword
// patterns are tried first; otherwise a model names the topic and supplies
// keywords that are merged into the agent's pattern table.
type IntentClassifier struct {
	patterns domain.IntentPatternStore
	llm      domain.LLMClient
	logger   *zap.Logger
}

func NewIntentClassifier(patterns domain.IntentPatternStore, llm domain.LLMClient, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{patterns: patterns, llm: llm, logger: logger}
}

// Classify never fails; the worst outcome is FallbackIntent.
func (c *IntentClassifier) Classify(ctx context.Context, agentID, conversation, previousIntent string) Classification {
	res := c.classify(ctx, agentID, conversation, previousIntent)
	metrics.IntentClassificationsTotal.WithLabelValues(string(res.Source)).Inc()
	return res
}

func (c *IntentClassifier) classify(ctx context.Context, agentID, conversation, previousIntent string) Classification {
	table, err := c.patterns.IntentPatterns(ctx, agentID)
	if err != nil {
		c.logger.Warn("intent patterns unavailable", zap.String("agent_id", agentID), zap.Error(err))
	} else if intent, ok := table.Match(strings.ToLower(lastUserLine(conversation))); ok {
		return Classification{Intent: intent, Source: SourcePattern}
	}

	prev := previousIntent
	if prev == "" {
		prev = "(none)"
	}
	raw, err := c.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: classifySystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(classifyIntentPrompt, conversation, prev)},
	})
	if err != nil {
		c.logger.Warn("intent classification failed", zap.String("agent_id", agentID), zap.Error(err))
		return Classification{Intent: FallbackIntent, Source: SourceFallback}
	}

	parsed := ParseIntentResponse(raw)
	if parsed.Status == reasoning.ParseFailed {
		c.logger.Debug("intent response unparsable", zap.String("agent_id", agentID))
		return Classification{Intent: FallbackIntent, Source: SourceFallback}
	}

	if len(parsed.Keywords) > 0 {
		if err := c.patterns.MergeIntentKeywords(ctx, agentID, parsed.Intent, parsed.Keywords); err != nil {
			c.logger.Warn("failed to store intent keywords",
				zap.String("agent_id", agentID),
				zap.String("intent", parsed.Intent),
				zap.Error(err),
			)
		}
	}

	return Classification{Intent: parsed.Intent, Source: SourceModel, Keywords: parsed.Keywords}
}

// lastUserLine returns the content of the latest "user:" line, or the whole
// text when there is none.
func lastUserLine(conversation string) string {
	lines := strings.Split(conversation, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if len(line) >= 5 && strings.EqualFold(line[:5], "user:") {
			return strings.TrimSpace(line[5:])
		}
	}
	return conversation
}
