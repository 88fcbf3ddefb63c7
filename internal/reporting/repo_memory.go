package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"callagent-platform/internal/calls"
	"callagent-platform/internal/leads"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early development.
// It enforces agent isolation on reads.

type MemoryRepo struct {
	mu sync.Mutex

	Calls []calls.CallRecord
	Leads []leads.Lead
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(ctx context.Context, agentID string, from, to time.Time) ([]calls.CallRecord, error) {
	if agentID == "" {
		return nil, errors.New("agent_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.CallRecord, 0)
	for _, c := range r.Calls {
		if c.AgentID != agentID {
			continue
		}
		if !c.CreatedAt.IsZero() {
			if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListLeads(ctx context.Context, agentID string, from, to time.Time) ([]leads.Lead, error) {
	if agentID == "" {
		return nil, errors.New("agent_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]leads.Lead, 0)
	for _, l := range r.Leads {
		if l.AgentID != agentID {
			continue
		}
		if !l.CreatedAt.IsZero() {
			if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, l)
	}
	return out, nil
}
