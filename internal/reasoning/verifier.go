package reasoning

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"go.uber.org/zap"
)

// AdmissionThreshold is the minimum confidence for a VALID verdict to admit a fact.
const AdmissionThreshold = 0.7

// Verification is the verifier's decision on one candidate.
type Verification struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Admit applies the admission rule to a parsed verdict.
func Admit(vp VerdictParse) Verification {
	return Verification{
		Valid:      vp.Verdict == VerdictValid && vp.Confidence >= AdmissionThreshold,
		Confidence: vp.Confidence,
		Reason:     vp.Reason,
	}
}

// Verifier checks candidates for consistency, novelty and specificity.
type Verifier struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewVerifier(llm domain.LLMClient, logger *zap.Logger) *Verifier {
	return &Verifier{llm: llm, logger: logger}
}

// Verify judges candidate against the facts in rc. A failed model call is
// always a rejection.
func (v *Verifier) Verify(ctx context.Context, rc Context, candidate string) Verification {
	raw, err := v.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: verifierSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(verifyPrompt, renderFacts(rc.SharedFacts), candidate)},
	})
	if err != nil {
		v.logger.Warn("verification failed", zap.String("candidate", candidate), zap.Error(err))
		return Verification{Valid: false, Confidence: 0, Reason: "verification failed"}
	}

	vp := ParseVerdict(raw)
	if vp.Status != ParseOK {
		v.logger.Debug("verdict response incomplete", zap.Stringer("status", vp.Status))
	}
	return Admit(vp)
}
