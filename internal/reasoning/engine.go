package reasoning

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// CandidateGenerator proposes new facts. *Generator implements it.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, rc Context, intent, conversation string) []string
	GenerateInitialProposition(ctx context.Context, intent, conversation string) string
}

// FactVerifier judges candidates. *Verifier implements it.
type FactVerifier interface {
	Verify(ctx context.Context, rc Context, candidate string) Verification
}

// State is the engine's lifecycle position.
type State string

const (
	StateIdle         State = "idle"
	StateCycling      State = "cycling"
	StateStoppedEarly State = "stopped_early"
)

// EvolveResult summarizes one Evolve call.
type EvolveResult struct {
	Facts        string `json:"facts"`
	Added        int    `json:"added"`
	CyclesRun    int    `json:"cycles_run"`
	StoppedEarly bool   `json:"stopped_early"`
}

// Changed reports whether the call admitted at least one fact.
func (r EvolveResult) Changed() bool {
	return r.Added > 0
}

// Engine runs bounded generate-then-verify cycles over a Memory.
type Engine struct {
	memory   *Memory
	gen      CandidateGenerator
	verifier FactVerifier
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

func NewEngine(memory *Memory, gen CandidateGenerator, verifier FactVerifier, logger *zap.Logger) *Engine {
	return &Engine{
		memory:   memory,
		gen:      gen,
		verifier: verifier,
		logger:   logger,
		state:    StateIdle,
	}
}

// Memory returns the engine's working memory.
func (e *Engine) Memory() *Memory {
	return e.memory
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Evolve runs up to cycles rounds for intent. An empty memory with
// conversation text is first bootstrapped with one unverified initial
// proposition. Candidates in a round are all checked against the snapshot
// taken before that round, and the first round that admits nothing ends
// the run.
func (e *Engine) Evolve(ctx context.Context, intent string, cycles int, conversation string) EvolveResult {
	if cycles < 1 {
		cycles = 1
	}
	e.setState(StateCycling)

	var res EvolveResult
	if e.memory.FactCount() == 0 && conversation != "" {
		seed := e.gen.GenerateInitialProposition(ctx, intent, conversation)
		if e.memory.AddVerifiedFact(seed, DefaultFactConfidence) {
			res.Added++
		}
	}

	for i := 0; i < cycles; i++ {
		res.CyclesRun++
		admitted := e.runCycle(ctx, intent, conversation)
		res.Added += admitted

		if admitted == 0 {
			if i < cycles-1 {
				res.StoppedEarly = true
			}
			break
		}
	}

	if res.StoppedEarly {
		e.setState(StateStoppedEarly)
	} else {
		e.setState(StateIdle)
	}

	res.Facts = e.memory.ExportFacts()
	e.logger.Debug("evolution finished",
		zap.String("intent", intent),
		zap.Int("facts_added", res.Added),
		zap.Int("cycles_run", res.CyclesRun),
		zap.Bool("stopped_early", res.StoppedEarly),
	)
	return res
}

func (e *Engine) runCycle(ctx context.Context, intent, conversation string) int {
	snapshot := e.memory.Context()

	candidates := e.gen.GenerateCandidates(ctx, snapshot, intent, conversation)
	if len(candidates) == 0 {
		return 0
	}

	admitted := 0
	for _, c := range candidates {
		if e.memory.HasFact(c) {
			continue
		}
		v := e.verifier.Verify(ctx, snapshot, c)
		if !v.Valid {
			e.logger.Debug("candidate rejected",
				zap.String("intent", intent),
				zap.Float64("confidence", v.Confidence),
				zap.String("reason", v.Reason),
			)
			continue
		}
		if e.memory.AddVerifiedFact(c, v.Confidence) {
			admitted++
		}
	}
	return admitted
}
