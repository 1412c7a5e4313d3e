package domain

import "time"

// SampleAgentID identifies the built-in demo agent. It cannot be deleted.
const SampleAgentID = "sample"

// AgentConfig is the identity and model configuration of an agent, either
// supplied directly or synthesized from a natural-language description.
type AgentConfig struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Skills       []string `json:"skills"`
	SystemPrompt string   `json:"system_prompt"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
}

// AgentRecord is the persisted state of a deployed agent. It holds only
// serializable data; conversation state and rate-limit timestamps are kept
// by the services that own them.
type AgentRecord struct {
	ID             string         `json:"id"`
	Config         AgentConfig    `json:"config"`
	Thinking       Knowledge      `json:"thinking"`
	Caring         Knowledge      `json:"caring"`
	IntentPatterns IntentPatterns `json:"intent_patterns"`
	Protected      bool           `json:"protected,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EnsureMaps initializes nil maps left behind by older or hand-written records.
func (a *AgentRecord) EnsureMaps() {
	if a.Thinking == nil {
		a.Thinking = Knowledge{}
	}
	if a.Caring == nil {
		a.Caring = Knowledge{}
	}
}
