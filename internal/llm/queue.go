package llm

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/metrics"
	"go.uber.org/zap"
)

// Priority orders calls in the background queue.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

const (
	DefaultQueueMaxCalls = 3
	DefaultQueueWindow   = 60 * time.Second
)

// QueueConfig bounds low-priority calls to MaxCalls per rolling Window.
type QueueConfig struct {
	MaxCalls int
	Window   time.Duration
}

type queuedCall struct {
	ctx      context.Context
	messages []domain.Message
	done     chan callResult
}

type callResult struct {
	text string
	err  error
}

// Queue serializes background model calls. High-priority calls go out
// immediately and ahead of low-priority ones; low-priority calls are capped
// by a sliding window. When the cap is reached the queue stops draining and
// schedules itself to resume once the oldest call leaves the window. The
// queue itself is unbounded.
type Queue struct {
	client   domain.LLMClient
	maxCalls int
	window   time.Duration
	logger   *zap.Logger

	now      func() time.Time
	schedule func(d time.Duration, f func())

	mu        sync.Mutex
	high      []*queuedCall
	low       []*queuedCall
	sent      []time.Time
	resumeSet bool
}

func NewQueue(client domain.LLMClient, cfg QueueConfig, logger *zap.Logger) *Queue {
	if cfg.MaxCalls <= 0 {
		cfg.MaxCalls = DefaultQueueMaxCalls
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultQueueWindow
	}
	return &Queue{
		client:   client,
		maxCalls: cfg.MaxCalls,
		window:   cfg.Window,
		logger:   logger,
		now:      time.Now,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Generate submits messages at low priority, so a Queue can stand in for
// any LLMClient used off the request path.
func (q *Queue) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	return q.Submit(ctx, PriorityLow, messages)
}

// Client returns an LLMClient that submits every call at priority p.
func (q *Queue) Client(p Priority) domain.LLMClient {
	return boundClient{q: q, priority: p}
}

// Submit enqueues a call and waits for its result. If ctx ends first the
// caller stops waiting and the entry is dropped when it reaches the head.
func (q *Queue) Submit(ctx context.Context, p Priority, messages []domain.Message) (string, error) {
	call := &queuedCall{ctx: ctx, messages: messages, done: make(chan callResult, 1)}

	q.mu.Lock()
	if p == PriorityHigh {
		q.high = append(q.high, call)
	} else {
		q.low = append(q.low, call)
	}
	q.mu.Unlock()

	q.drain()

	select {
	case r := <-call.done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len returns the number of calls still waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.low)
}

func (q *Queue) drain() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.high) > 0 {
		call := q.high[0]
		q.high = q.high[1:]
		if call.ctx.Err() == nil {
			q.dispatch(call, PriorityHigh)
		}
	}

	for len(q.low) > 0 {
		call := q.low[0]
		if call.ctx.Err() != nil {
			q.low = q.low[1:]
			continue
		}

		now := q.now()
		q.pruneWindow(now)
		if len(q.sent) >= q.maxCalls {
			wait := q.sent[0].Add(q.window).Sub(now)
			if !q.resumeSet {
				q.resumeSet = true
				q.schedule(wait, q.resume)
				q.logger.Debug("background llm queue paused",
					zap.Duration("wait", wait),
					zap.Int("pending", len(q.low)),
				)
			}
			break
		}

		q.low = q.low[1:]
		q.sent = append(q.sent, now)
		q.dispatch(call, PriorityLow)
	}

	metrics.LLMQueueDepth.Set(float64(len(q.high) + len(q.low)))
}

func (q *Queue) resume() {
	q.mu.Lock()
	q.resumeSet = false
	q.mu.Unlock()
	q.drain()
}

// pruneWindow drops dispatch times older than the window. Caller holds mu.
func (q *Queue) pruneWindow(now time.Time) {
	cutoff := now.Add(-q.window)
	i := 0
	for i < len(q.sent) && !q.sent[i].After(cutoff) {
		i++
	}
	q.sent = q.sent[i:]
}

func (q *Queue) dispatch(call *queuedCall, p Priority) {
	go func() {
		text, err := q.client.Generate(call.ctx, call.messages)
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.LLMCallsTotal.WithLabelValues(p.String(), status).Inc()
		call.done <- callResult{text: text, err: err}
	}()
}

type boundClient struct {
	q        *Queue
	priority Priority
}

func (b boundClient) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	return b.q.Submit(ctx, b.priority, messages)
}
