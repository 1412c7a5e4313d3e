// Package reasoning grows a fact base from conversation text with a
// generate-then-verify loop over a small multi-path working memory.
package reasoning

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Harshitk-cp/mindforge/internal/domain"
)

const (
	DefaultMaxPaths       = 3
	NewPathConfidence     = 0.5
	SeededPathConfidence  = 1.0
	DefaultFactConfidence = 1.0
)

// Path is one line of exploration through the fact base.
type Path struct {
	ID           string   `json:"id"`
	Propositions []string `json:"propositions"`
	Confidence   float64  `json:"confidence"`
}

// Context is a read-only snapshot of a Memory handed to the generator and
// verifier. It shares no slices with the memory it came from.
type Context struct {
	SharedFacts []string `json:"shared_facts"`
	Paths       []Path   `json:"paths"`
}

// Memory holds the verified facts of one topic plus up to maxPaths
// exploration paths. Every admitted fact is propagated into every path.
type Memory struct {
	mu       sync.Mutex
	facts    []string
	factSet  map[string]struct{}
	paths    []*Path
	maxPaths int
	nextID   int
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithMaxPaths bounds the number of paths. Values below 1 are ignored.
func WithMaxPaths(n int) MemoryOption {
	return func(m *Memory) {
		if n >= 1 {
			m.maxPaths = n
		}
	}
}

// NewMemory builds a memory seeded from exported fact text. Blank lines are
// skipped and the domain.EmptyFacts sentinel counts as no facts. The memory
// starts with one path, at full confidence when seeded.
func NewMemory(seed string, opts ...MemoryOption) *Memory {
	m := &Memory{
		factSet:  make(map[string]struct{}),
		maxPaths: DefaultMaxPaths,
	}
	for _, opt := range opts {
		opt(m)
	}

	facts := domain.SplitFacts(seed)
	confidence := NewPathConfidence
	if len(facts) > 0 {
		confidence = SeededPathConfidence
	}
	m.paths = append(m.paths, m.newPath(nil, confidence))

	for _, f := range facts {
		m.addFactLocked(f)
	}
	return m
}

func (m *Memory) newPath(base []string, confidence float64) *Path {
	m.nextID++
	p := &Path{
		ID:         fmt.Sprintf("path-%d", m.nextID),
		Confidence: confidence,
	}
	for _, prop := range base {
		prop = strings.TrimSpace(prop)
		if prop != "" && !slices.Contains(p.Propositions, prop) {
			p.Propositions = append(p.Propositions, prop)
		}
	}
	return p
}

// Context returns a deep copy of the current state.
func (m *Memory) Context() Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	rc := Context{
		SharedFacts: slices.Clone(m.facts),
		Paths:       make([]Path, 0, len(m.paths)),
	}
	for _, p := range m.paths {
		rc.Paths = append(rc.Paths, Path{
			ID:           p.ID,
			Propositions: slices.Clone(p.Propositions),
			Confidence:   p.Confidence,
		})
	}
	return rc
}

// AddVerifiedFact admits text into the shared set and every path. It
// reports whether the fact was new. Confidence is not stored per fact.
func (m *Memory) AddVerifiedFact(text string, confidence float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addFactLocked(text)
}

func (m *Memory) addFactLocked(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if _, ok := m.factSet[text]; ok {
		return false
	}
	m.factSet[text] = struct{}{}
	m.facts = append(m.facts, text)
	for _, p := range m.paths {
		if !slices.Contains(p.Propositions, text) {
			p.Propositions = append(p.Propositions, text)
		}
	}
	return true
}

// HasFact reports whether text is already in the shared set.
func (m *Memory) HasFact(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.factSet[strings.TrimSpace(text)]
	return ok
}

// AddPropositionToPath appends text to a single path. Missing paths and
// duplicates are ignored.
func (m *Memory) AddPropositionToPath(pathID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.findPath(pathID); p != nil && !slices.Contains(p.Propositions, text) {
		p.Propositions = append(p.Propositions, text)
	}
}

// CreatePath opens a new path seeded with base. At capacity, the path with
// the lowest confidence is evicted first; ties go to the earliest path.
func (m *Memory) CreatePath(base []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.paths) >= m.maxPaths {
		lowest := 0
		for i, p := range m.paths {
			if p.Confidence < m.paths[lowest].Confidence {
				lowest = i
			}
		}
		m.paths = slices.Delete(m.paths, lowest, lowest+1)
	}

	p := m.newPath(base, NewPathConfidence)
	m.paths = append(m.paths, p)
	return p.ID
}

// SetPathConfidence updates a path's confidence, clamped to [0, 1].
func (m *Memory) SetPathConfidence(pathID string, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.findPath(pathID); p != nil {
		p.Confidence = clamp01(confidence)
	}
}

func (m *Memory) findPath(id string) *Path {
	for _, p := range m.paths {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FactCount returns the size of the shared fact set.
func (m *Memory) FactCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.facts)
}

// PathCount returns the number of live paths.
func (m *Memory) PathCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

// ExportFacts returns the shared facts newline-joined in insertion order.
func (m *Memory) ExportFacts() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.facts, "\n")
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
