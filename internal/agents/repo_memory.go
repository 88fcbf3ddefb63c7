package agents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and early development.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{agents: map[string]Agent{}}
}

func (r *MemoryRepo) FindByAssignedNumber(ctx context.Context, number string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := make([]Agent, 0, 1)
	for _, a := range r.agents {
		if a.AssignedPhoneNumber == number && a.Status == AgentStatusActive {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return Agent{}, ErrNotFound
	}
	// Oldest wins, matching the Postgres repo's ORDER BY created_at.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (r *MemoryRepo) Create(ctx context.Context, a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = a
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.agents[a.ID]
	if !ok || existing.OwningUserID != a.OwningUserID {
		return ErrNotFound
	}
	r.agents[a.ID] = a
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, owningUserID, id string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok || a.OwningUserID != owningUserID {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, owningUserID string) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Agent, 0)
	for _, a := range r.agents {
		if a.OwningUserID == owningUserID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, owningUserID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok || a.OwningUserID != owningUserID {
		return ErrNotFound
	}
	delete(r.agents, id)
	return nil
}
