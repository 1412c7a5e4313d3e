package domain

import (
	"slices"
	"strings"
)

// EmptyFacts is stored in place of fact text when nothing is known yet.
const EmptyFacts = "(empty)"

// Knowledge maps a partition key (an intent label for thinking, a username
// for caring) to newline-joined fact text.
type Knowledge map[string]string

// Facts returns the facts stored under key, in insertion order.
func (k Knowledge) Facts(key string) []string {
	return SplitFacts(k[key])
}

// Count returns the number of facts stored under key.
func (k Knowledge) Count(key string) int {
	return len(k.Facts(key))
}

// Keys returns all partition keys in sorted order.
func (k Knowledge) Keys() []string {
	keys := make([]string, 0, len(k))
	for key := range k {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// SplitFacts parses serialized fact text into its non-blank lines.
func SplitFacts(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" || text == EmptyFacts {
		return nil
	}
	var facts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			facts = append(facts, line)
		}
	}
	return facts
}

// JoinFacts serializes facts, writing EmptyFacts for an empty list.
func JoinFacts(facts []string) string {
	if len(facts) == 0 {
		return EmptyFacts
	}
	return strings.Join(facts, "\n")
}

// IntentPattern is the keyword set that routes conversation text to an intent.
type IntentPattern struct {
	Intent   string   `json:"intent"`
	Keywords []string `json:"keywords"`
}

// IntentPatterns is kept as a list so lookup order is insertion order, also
// after a JSON round trip.
type IntentPatterns []IntentPattern

// Match returns the first intent with a keyword contained in text. text is
// expected to be lower-cased already.
func (p IntentPatterns) Match(text string) (string, bool) {
	for _, pattern := range p {
		for _, kw := range pattern.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return pattern.Intent, true
			}
		}
	}
	return "", false
}

// Merge adds keywords to intent, lower-cased and de-duplicated. Existing
// keywords are never removed. It reports whether anything was added.
func (p *IntentPatterns) Merge(intent string, keywords []string) bool {
	idx := -1
	for i, pattern := range *p {
		if pattern.Intent == intent {
			idx = i
			break
		}
	}
	if idx < 0 {
		*p = append(*p, IntentPattern{Intent: intent})
		idx = len(*p) - 1
	}

	pattern := &(*p)[idx]
	added := false
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || slices.Contains(pattern.Keywords, kw) {
			continue
		}
		pattern.Keywords = append(pattern.Keywords, kw)
		added = true
	}
	return added
}

// Keywords returns the keywords registered for intent.
func (p IntentPatterns) Keywords(intent string) []string {
	for _, pattern := range p {
		if pattern.Intent == intent {
			return pattern.Keywords
		}
	}
	return nil
}
