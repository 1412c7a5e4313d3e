package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"go.uber.org/zap"
)

// Generator asks a model for candidate propositions.
type Generator struct {
	llm    domain.LLMClient
	domain string
	logger *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithDomain adds a framing line such as "understanding how user X thinks".
func WithDomain(d string) GeneratorOption {
	return func(g *Generator) { g.domain = strings.TrimSpace(d) }
}

func NewGenerator(llm domain.LLMClient, logger *zap.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{llm: llm, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateCandidates returns new propositions for intent. Model failures
// and unparsable output both yield an empty list.
func (g *Generator) GenerateCandidates(ctx context.Context, rc Context, intent, conversation string) []string {
	prompt := fmt.Sprintf(candidatePrompt,
		intent,
		g.domainLine(),
		renderFacts(rc.SharedFacts),
		renderPaths(rc.Paths),
		renderConversation(conversation),
	)

	raw, err := g.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: generatorSystemPrompt},
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		g.logger.Warn("candidate generation failed", zap.String("intent", intent), zap.Error(err))
		return nil
	}

	parsed := ParseCandidates(raw)
	if parsed.Status != ParseOK {
		g.logger.Debug("candidate response not clean JSON",
			zap.String("intent", intent),
			zap.Stringer("status", parsed.Status),
			zap.Int("recovered", len(parsed.Items)),
		)
	}
	return parsed.Items
}

// GenerateInitialProposition asks for one foundational fact to bootstrap an
// empty memory. It always returns a usable sentence.
func (g *Generator) GenerateInitialProposition(ctx context.Context, intent, conversation string) string {
	raw, err := g.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: generatorSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(initialPropositionPrompt, intent, conversation)},
	})
	if err != nil {
		g.logger.Warn("initial proposition failed", zap.String("intent", intent), zap.Error(err))
		return fallbackProposition(intent)
	}

	prop := strings.Trim(strings.Join(strings.Fields(raw), " "), `"'`)
	if prop == "" {
		return fallbackProposition(intent)
	}
	return prop
}

func fallbackProposition(intent string) string {
	return fmt.Sprintf("The conversation concerns %s.", strings.ReplaceAll(intent, "_", " "))
}

func (g *Generator) domainLine() string {
	if g.domain == "" {
		return ""
	}
	return "Domain: " + g.domain + "\n"
}

func renderFacts(facts []string) string {
	if len(facts) == 0 {
		return noFactsPlaceholder
	}
	var sb strings.Builder
	for i, f := range facts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderPaths(paths []Path) string {
	if len(paths) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "- %s (confidence %.2f): ", p.ID, p.Confidence)
		if len(p.Propositions) == 0 {
			sb.WriteString("(empty)\n")
			continue
		}
		sb.WriteString(strings.Join(p.Propositions, " -> "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderConversation(conversation string) string {
	conversation = strings.TrimSpace(conversation)
	if conversation == "" {
		return ""
	}
	return "\nRecent conversation:\n" + conversation + "\n"
}
