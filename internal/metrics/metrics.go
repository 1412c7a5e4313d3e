// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	LLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_llm_calls_total",
		Help: "Model calls dispatched by the background queue",
	}, []string{"priority", "status"})

	LLMQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mindforge_llm_queue_depth",
		Help: "Model calls waiting in the background queue",
	})

	EvolutionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_evolution_runs_total",
		Help: "Knowledge evolution runs by scope and outcome",
	}, []string{"scope", "outcome"})

	FactsAdmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_facts_admitted_total",
		Help: "Verified facts admitted into knowledge bases",
	}, []string{"scope"})

	IntentClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_intent_classifications_total",
		Help: "Intent classifications by resolution tier",
	}, []string{"source"})

	ConversationTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindforge_conversation_turns_total",
		Help: "Conversation turns answered, by reply outcome",
	}, []string{"outcome"})
)
