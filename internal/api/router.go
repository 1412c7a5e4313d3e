package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/api/handlers"
	mw "github.com/Harshitk-cp/mindforge/internal/api/middleware"
	"github.com/Harshitk-cp/mindforge/internal/buildconfig"
	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/Harshitk-cp/mindforge/internal/service"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options carries the settings NewApp needs beyond its collaborators.
type Options struct {
	DefaultProvider   string
	DefaultModel      string
	APIKey            string
	RateLimitRPS      float64
	RateLimitBurst    int
	EvolutionInterval time.Duration
	Queue             llm.QueueConfig
}

// App holds the router and the services whose lifecycle main manages.
type App struct {
	Router        *chi.Mux
	Agents        *service.AgentService
	Conversations *service.ConversationService
	Evolution     *service.EvolutionService
	Expirer       *service.ExpirerService
	Queue         *llm.Queue
}

// NewApp wires stores, model clients, services and routes. providers
// resolves per-agent reply clients; its default client also backs the
// background queue used for classification and evolution.
func NewApp(kv domain.KVStore, providers *llm.Providers, opts Options, logger *zap.Logger) *App {
	agentStore := store.NewAgentStore(kv)

	queue := llm.NewQueue(providers.Default(), opts.Queue, logger)
	interactive := queue.Client(llm.PriorityHigh)
	background := queue.Client(llm.PriorityLow)

	// Services
	agentSvc := service.NewAgentService(agentStore, interactive, opts.DefaultProvider, opts.DefaultModel, logger)
	classifier := service.NewIntentClassifier(agentStore, interactive, logger)

	// Explicit memory requests run at high priority; turns evolved in the
	// background go through the rate-limited low-priority lane. Both share
	// one per-agent interval gate.
	evolutionGate := service.NewIntervalGate(opts.EvolutionInterval, nil)
	evolutionSvc := service.NewEvolutionService(agentStore, classifier, interactive, evolutionGate, logger)
	backgroundEvolution := service.NewEvolutionService(
		agentStore,
		service.NewIntentClassifier(agentStore, background, logger),
		background,
		evolutionGate,
		logger,
	)
	conversationSvc := service.NewConversationService(
		agentStore,
		providers,
		classifier,
		backgroundEvolution,
		service.NewIntervalGate(opts.EvolutionInterval, nil),
		logger,
	)

	// Handlers
	agentHandler := handlers.NewAgentHandler(agentSvc)
	conversationHandler := handlers.NewConversationHandler(conversationSvc)
	knowledgeHandler := handlers.NewKnowledgeHandler(evolutionSvc)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(kv))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))

		r.Route("/agents", func(r chi.Router) {
			r.Post("/synthesize", agentHandler.Synthesize)
			r.Post("/", agentHandler.Create)
			r.Get("/", agentHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", agentHandler.GetByID)
				r.Delete("/", agentHandler.Delete)
				r.Post("/converse", conversationHandler.Converse)
				r.Post("/memory", knowledgeHandler.UpdateMemory)
				r.Post("/evolve", knowledgeHandler.Evolve)
				r.Get("/knowledge", knowledgeHandler.Status)
			})
		})
	})

	return &App{
		Router:        r,
		Agents:        agentSvc,
		Conversations: conversationSvc,
		Evolution:     evolutionSvc,
		Expirer:       service.NewExpirerService(conversationSvc, logger),
		Queue:         queue,
	}
}

func healthHandler(kv domain.KVStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := kv.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		resp := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.KVStore    = (*store.MemoryKV)(nil)
	_ domain.KVStore    = (*store.RedisKV)(nil)
	_ domain.KVStore    = (*store.PostgresKV)(nil)
	_ domain.AgentStore = (*store.AgentStore)(nil)
	_ domain.LLMClient  = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient  = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient  = (*llm.GeminiClient)(nil)
	_ domain.LLMClient  = (*llm.CerebrasClient)(nil)
	_ domain.LLMClient  = (*llm.MockClient)(nil)
	_ domain.LLMClient  = (*llm.Queue)(nil)
)
