package domain

import "context"

// Message is one role-tagged turn sent to or received from a language model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMClient generates text from an ordered list of messages.
type LLMClient interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// KVStore is the key-value capability agent records are persisted in.
// Get returns store.ErrNotFound for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	AddToSet(ctx context.Context, setKey string, members ...string) error
	ListSet(ctx context.Context, setKey string) ([]string, error)
	RemoveFromSet(ctx context.Context, setKey string, members ...string) error
	Ping(ctx context.Context) error
}

// IntentPatternStore reads and grows an agent's intent pattern table.
type IntentPatternStore interface {
	IntentPatterns(ctx context.Context, agentID string) (IntentPatterns, error)
	MergeIntentKeywords(ctx context.Context, agentID, intent string, keywords []string) error
}

type AgentStore interface {
	IntentPatternStore
	Create(ctx context.Context, a *AgentRecord) error
	GetByID(ctx context.Context, id string) (*AgentRecord, error)
	List(ctx context.Context) ([]AgentRecord, error)
	Delete(ctx context.Context, id string) error
	// Update re-reads the record, applies fn and writes it back. Without
	// transactions this is last-write-wins for the whole record.
	Update(ctx context.Context, id string, fn func(a *AgentRecord) error) (*AgentRecord, error)
}
