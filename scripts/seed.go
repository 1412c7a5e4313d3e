// Seed script for creating a demo agent with prior knowledge in MindForge.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/config"
	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"github.com/google/uuid"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var kv domain.KVStore
	switch config.StoreBackend() {
	case "redis":
		r, err := store.OpenRedis(ctx, config.RedisURL())
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer r.Close()
		kv = r
	case "postgres":
		p, pool, err := store.OpenPostgres(ctx, config.DatabaseURL())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		kv = p
	default:
		log.Fatal("Seeding needs a persistent store: set STORE_BACKEND=redis or postgres")
	}
	fmt.Printf("Connected to %s store\n", config.StoreBackend())

	agents := store.NewAgentStore(kv)

	agentID := uuid.NewString()
	agent := &domain.AgentRecord{
		ID: agentID,
		Config: domain.AgentConfig{
			Name:         "Crypto Tutor",
			Description:  "Explains cryptocurrencies to beginners",
			Skills:       []string{"bitcoin", "ethereum", "wallets"},
			SystemPrompt: "You are Crypto Tutor. Explain concepts simply and avoid financial advice.",
			Provider:     config.LLMProvider(),
			Model:        config.LLMModel(),
		},
		Thinking: domain.Knowledge{
			"bitcoin": strings.Join([]string{
				"Bitcoin was launched in 2009 by Satoshi Nakamoto.",
				"Bitcoin's supply is capped at 21 million coins.",
				"Bitcoin block rewards halve roughly every four years.",
			}, "\n"),
			"ethereum": strings.Join([]string{
				"Ethereum supports smart contracts.",
				"Ethereum moved to proof of stake in 2022.",
			}, "\n"),
		},
		Caring: domain.Knowledge{
			"demo-user": "demo-user is new to cryptocurrency.",
		},
	}
	agent.IntentPatterns.Merge("bitcoin", []string{"bitcoin", "btc", "satoshi"})
	agent.IntentPatterns.Merge("ethereum", []string{"ethereum", "eth", "vitalik"})

	if err := agents.Create(ctx, agent); err != nil && !errors.Is(err, store.ErrConflict) {
		log.Fatalf("Failed to create agent: %v", err)
	}
	fmt.Printf("Created agent: %s (%s)\n", agentID, agent.Config.Name)
	for _, intent := range agent.Thinking.Keys() {
		fmt.Printf("  %-10s %d facts\n", intent, agent.Thinking.Count(intent))
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nTo talk to the agent, use:")
	fmt.Printf("curl -X POST http://localhost:8080/v1/agents/%s/converse -d '{\"message\":\"What is a BTC halving?\",\"username\":\"demo-user\"}'\n", agentID)
	fmt.Println("\nTo inspect its knowledge:")
	fmt.Printf("curl 'http://localhost:8080/v1/agents/%s/knowledge?intent=bitcoin&username=demo-user'\n", agentID)
}
