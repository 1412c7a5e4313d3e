package service

import (
	"regexp"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/reasoning"
)

// FallbackIntent is used whenever no topic can be determined.
const FallbackIntent = "general"

var (
	intentLine   = regexp.MustCompile(`(?im)^[ \t]*\**INTENT\**[ \t]*:[ \t]*([^\n]+)$`)
	keywordsLine = regexp.MustCompile(`(?im)^[ \t]*\**KEYWORDS\**[ \t]*:[ \t]*([^\n]+)$`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// IntentParse is the result of reading an INTENT/KEYWORDS response.
type IntentParse struct {
	Intent   string
	Keywords []string
	Status   reasoning.ParseStatus
}

// ParseIntentResponse reads the two fixed-format lines. A missing or empty
// INTENT line yields FallbackIntent with ParseFailed; a present intent
// without keywords is ParseFallback.
func ParseIntentResponse(raw string) IntentParse {
	m := intentLine.FindStringSubmatch(raw)
	if m == nil {
		return IntentParse{Intent: FallbackIntent, Status: reasoning.ParseFailed}
	}
	intent := NormalizeIntent(m[1])
	if intent == "" {
		return IntentParse{Intent: FallbackIntent, Status: reasoning.ParseFailed}
	}

	res := IntentParse{Intent: intent, Status: reasoning.ParseOK}
	if km := keywordsLine.FindStringSubmatch(raw); km != nil {
		for _, kw := range strings.Split(km[1], ",") {
			kw = strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(kw), "\"'`*.")))
			if kw != "" {
				res.Keywords = append(res.Keywords, kw)
			}
		}
	}
	if len(res.Keywords) == 0 {
		res.Status = reasoning.ParseFallback
	}
	return res
}

// NormalizeIntent lower-cases a label and collapses whitespace runs to a
// single underscore.
func NormalizeIntent(s string) string {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), "\"'`*."))
	return whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
}
