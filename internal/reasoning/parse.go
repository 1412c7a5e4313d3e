package reasoning

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ParseStatus tells callers how a model response was interpreted.
type ParseStatus int

const (
	// ParseOK means the response matched the requested format.
	ParseOK ParseStatus = iota
	// ParseFallback means a best-effort recovery produced the value.
	ParseFallback
	// ParseFailed means nothing usable was found; defaults apply.
	ParseFailed
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParseFallback:
		return "fallback"
	default:
		return "failed"
	}
}

const maxCandidates = 5

// CandidateParse is the result of reading a JSON array of propositions.
type CandidateParse struct {
	Items  []string
	Status ParseStatus
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	quotedString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// ParseCandidates extracts propositions from a response expected to hold a
// JSON array of strings. A missing array yields ParseFailed with no items.
func ParseCandidates(raw string) CandidateParse {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return CandidateParse{Status: ParseFailed}
	}
	body := controlChars.ReplaceAllString(raw[start:end+1], "")

	var items []string
	if err := json.Unmarshal([]byte(body), &items); err == nil {
		return CandidateParse{Items: cleanCandidates(items), Status: ParseOK}
	}

	escaped := escapeNewlinesInStrings(body)
	if err := json.Unmarshal([]byte(escaped), &items); err == nil {
		return CandidateParse{Items: cleanCandidates(items), Status: ParseOK}
	}

	for _, m := range quotedString.FindAllStringSubmatch(body, -1) {
		s, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			s = m[1]
		}
		items = append(items, s)
	}
	items = cleanCandidates(items)
	if len(items) == 0 {
		return CandidateParse{Status: ParseFailed}
	}
	return CandidateParse{Items: items, Status: ParseFallback}
}

// escapeNewlinesInStrings escapes raw CR/LF inside JSON string literals and
// leaves the whitespace between elements alone.
func escapeNewlinesInStrings(body string) string {
	var sb strings.Builder
	sb.Grow(len(body))
	inString, escaped := false, false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c == '\n':
			sb.WriteString(`\n`)
			continue
		case inString && c == '\r':
			sb.WriteString(`\r`)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func cleanCandidates(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.Join(strings.Fields(it), " ")
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

// Verdict is the verifier's judgement on a candidate.
type Verdict string

const (
	VerdictValid     Verdict = "VALID"
	VerdictInvalid   Verdict = "INVALID"
	VerdictUncertain Verdict = "UNCERTAIN"
)

const (
	DefaultVerdictConfidence = 0.5
	DefaultVerdictReason     = "unable to determine"
)

// VerdictParse is the result of reading the verifier's three-line format.
type VerdictParse struct {
	Verdict    Verdict
	Confidence float64
	Reason     string
	Status     ParseStatus
}

var (
	verdictLine    = regexp.MustCompile(`(?im)^[\s*#>-]*VERDICT\s*[:=]?\s*\**\s*(VALID|INVALID|UNCERTAIN)\b`)
	confidenceLine = regexp.MustCompile(`(?im)^[\s*#>-]*CONFIDENCE\s*[:=]?\s*\**\s*([0-9]*\.?[0-9]+)`)
	reasonLine     = regexp.MustCompile(`(?is)^[\s*#>-]*REASON\s*[:=]?\s*\**\s*(.+)$`)
	reasonMarker   = regexp.MustCompile(`(?im)^[\s*#>-]*REASON\b`)
)

// ParseVerdict reads VERDICT, CONFIDENCE and REASON lines independently.
// Each missing field takes its default; the function never fails.
func ParseVerdict(raw string) VerdictParse {
	vp := VerdictParse{
		Verdict:    VerdictUncertain,
		Confidence: DefaultVerdictConfidence,
		Reason:     DefaultVerdictReason,
	}
	found := 0

	if m := verdictLine.FindStringSubmatch(raw); m != nil {
		vp.Verdict = Verdict(strings.ToUpper(m[1]))
		found++
	}
	if m := confidenceLine.FindStringSubmatch(raw); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			vp.Confidence = clamp01(c)
			found++
		}
	}
	if loc := reasonMarker.FindStringIndex(raw); loc != nil {
		if m := reasonLine.FindStringSubmatch(raw[loc[0]:]); m != nil {
			if reason := strings.TrimSpace(m[1]); reason != "" {
				vp.Reason = reason
				found++
			}
		}
	}

	switch found {
	case 3:
		vp.Status = ParseOK
	case 0:
		vp.Status = ParseFailed
	default:
		vp.Status = ParseFallback
	}
	return vp
}
