package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/domain"
)

const agentIndexKey = "agents"

func agentKey(id string) string {
	return "agent:" + id
}

// AgentStore persists agent records as JSON documents in a KVStore, with
// the set of all agent IDs kept under a separate key.
type AgentStore struct {
	kv domain.KVStore

	// mu serializes read-modify-write cycles inside this process only.
	mu sync.Mutex
}

func NewAgentStore(kv domain.KVStore) *AgentStore {
	return &AgentStore{kv: kv}
}

func (s *AgentStore) Create(ctx context.Context, a *domain.AgentRecord) error {
	exists, err := s.kv.Exists(ctx, agentKey(a.ID))
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.EnsureMaps()

	if err := s.put(ctx, a); err != nil {
		return err
	}
	return s.kv.AddToSet(ctx, agentIndexKey, a.ID)
}

func (s *AgentStore) GetByID(ctx context.Context, id string) (*domain.AgentRecord, error) {
	raw, err := s.kv.Get(ctx, agentKey(id))
	if err != nil {
		return nil, err
	}
	a := &domain.AgentRecord{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("decode agent %s: %w", id, err)
	}
	a.EnsureMaps()
	return a, nil
}

// List returns all agents ordered by creation time. IDs in the index whose
// record has disappeared are skipped.
func (s *AgentStore) List(ctx context.Context) ([]domain.AgentRecord, error) {
	ids, err := s.kv.ListSet(ctx, agentIndexKey)
	if err != nil {
		return nil, err
	}

	agents := make([]domain.AgentRecord, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		agents = append(agents, *a)
	}

	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	return agents, nil
}

func (s *AgentStore) Delete(ctx context.Context, id string) error {
	exists, err := s.kv.Exists(ctx, agentKey(id))
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.kv.Delete(ctx, agentKey(id)); err != nil {
		return err
	}
	return s.kv.RemoveFromSet(ctx, agentIndexKey, id)
}

func (s *AgentStore) Update(ctx context.Context, id string, fn func(a *domain.AgentRecord) error) (*domain.AgentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()
	if err := s.put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AgentStore) IntentPatterns(ctx context.Context, agentID string) (domain.IntentPatterns, error) {
	a, err := s.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return a.IntentPatterns, nil
}

func (s *AgentStore) MergeIntentKeywords(ctx context.Context, agentID, intent string, keywords []string) error {
	_, err := s.Update(ctx, agentID, func(a *domain.AgentRecord) error {
		a.IntentPatterns.Merge(intent, keywords)
		return nil
	})
	return err
}

func (s *AgentStore) put(ctx context.Context, a *domain.AgentRecord) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode agent %s: %w", a.ID, err)
	}
	return s.kv.Set(ctx, agentKey(a.ID), raw)
}
