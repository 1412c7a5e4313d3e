package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/reasoning"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentConflict      = errors.New("agent with this id already exists")
	ErrAgentProtected     = errors.New("agent is protected and cannot be deleted")
	ErrInvalidAgentConfig = errors.New("invalid agent config")
	ErrSynthesisFailed    = errors.New("agent synthesis failed")
)

// AgentService synthesizes, deploys and manages agent records.
type AgentService struct {
	store           domain.AgentStore
	llm             domain.LLMClient
	defaultProvider string
	defaultModel    string
	logger          *zap.Logger
}

func NewAgentService(s domain.AgentStore, llm domain.LLMClient, defaultProvider, defaultModel string, logger *zap.Logger) *AgentService {
	return &AgentService{
		store:           s,
		llm:             llm,
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
		logger:          logger,
	}
}

// Synthesize asks the model to turn a natural-language description into an
// agent configuration.
func (s *AgentService) Synthesize(ctx context.Context, description string) (*domain.AgentConfig, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidAgentConfig)
	}

	raw, err := s.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: fmt.Sprintf(synthesizeAgentPrompt, description)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	parsed := ParseAgentConfig(raw)
	if parsed.Status == reasoning.ParseFailed {
		s.logger.Warn("agent synthesis response unparsable", zap.String("response", raw))
		return nil, fmt.Errorf("%w: model returned no configuration", ErrSynthesisFailed)
	}

	cfg := parsed.Config
	if cfg.Description == "" {
		cfg.Description = description
	}
	return &cfg, nil
}

// Deploy validates cfg, fills defaults and stores a new agent record.
func (s *AgentService) Deploy(ctx context.Context, cfg domain.AgentConfig) (*domain.AgentRecord, error) {
	return s.deploy(ctx, uuid.NewString(), cfg, false)
}

// DeployFromDescription synthesizes a configuration and deploys it.
func (s *AgentService) DeployFromDescription(ctx context.Context, description string) (*domain.AgentRecord, error) {
	cfg, err := s.Synthesize(ctx, description)
	if err != nil {
		return nil, err
	}
	return s.Deploy(ctx, *cfg)
}

func (s *AgentService) deploy(ctx context.Context, id string, cfg domain.AgentConfig, protected bool) (*domain.AgentRecord, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidAgentConfig)
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = fmt.Sprintf("You are %s. %s", cfg.Name, cfg.Description)
	}
	if cfg.Provider == "" {
		cfg.Provider = s.defaultProvider
		if cfg.Model == "" {
			cfg.Model = s.defaultModel
		}
	}

	a := &domain.AgentRecord{
		ID:        id,
		Config:    cfg,
		Protected: protected,
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAgentConflict
		}
		return nil, err
	}

	s.logger.Info("agent deployed", zap.String("agent_id", a.ID), zap.String("name", cfg.Name))
	return a, nil
}

func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.AgentRecord, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentService) List(ctx context.Context) ([]domain.AgentRecord, error) {
	return s.store.List(ctx)
}

// Delete removes an agent. The sample agent and any protected record
// cannot be deleted.
func (s *AgentService) Delete(ctx context.Context, id string) error {
	if id == domain.SampleAgentID {
		return ErrAgentProtected
	}
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Protected {
		return ErrAgentProtected
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return err
	}
	s.logger.Info("agent deleted", zap.String("agent_id", id))
	return nil
}

// EnsureSample deploys the protected sample agent if it does not exist.
func (s *AgentService) EnsureSample(ctx context.Context) error {
	_, err := s.deploy(ctx, domain.SampleAgentID, domain.AgentConfig{
		Name:         "Sample Assistant",
		Description:  "A general-purpose assistant that learns about topics and users as it talks.",
		Skills:       []string{"conversation", "explanation"},
		SystemPrompt: "You are Sample Assistant, a friendly and concise helper. Answer clearly and ask a follow-up question when the request is ambiguous.",
	}, true)
	if err != nil && !errors.Is(err, ErrAgentConflict) {
		return err
	}
	return nil
}

// AgentConfigParse is the result of reading a synthesized configuration.
type AgentConfigParse struct {
	Config domain.AgentConfig
	Status reasoning.ParseStatus
}

// ParseAgentConfig extracts the first JSON object from raw. A response
// without a usable object or without a name is ParseFailed.
func ParseAgentConfig(raw string) AgentConfigParse {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return AgentConfigParse{Status: reasoning.ParseFailed}
	}

	status := reasoning.ParseOK
	if strings.TrimSpace(raw[:start]) != "" || strings.TrimSpace(raw[end+1:]) != "" {
		status = reasoning.ParseFallback
	}

	var cfg domain.AgentConfig
	if err := json.Unmarshal([]byte(raw[start:end+1]), &cfg); err != nil {
		return AgentConfigParse{Status: reasoning.ParseFailed}
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return AgentConfigParse{Status: reasoning.ParseFailed}
	}

	skills := cfg.Skills[:0]
	for _, sk := range cfg.Skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			skills = append(skills, sk)
		}
	}
	cfg.Skills = skills
	return AgentConfigParse{Config: cfg, Status: status}
}
