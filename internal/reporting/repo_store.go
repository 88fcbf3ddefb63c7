package reporting

import (
	"context"
	"time"

	"callagent-platform/internal/calls"
	"callagent-platform/internal/leads"
)

// StoreRepo serves reports directly from the live call store and lead
// repository. Aggregation volumes are small enough that a dedicated
// reporting schema is not worth it yet.
type StoreRepo struct {
	callStore calls.Store
	leadRepo  leads.Repository
}

func NewStoreRepo(callStore calls.Store, leadRepo leads.Repository) *StoreRepo {
	return &StoreRepo{callStore: callStore, leadRepo: leadRepo}
}

func (r *StoreRepo) ListCalls(ctx context.Context, agentID string, from, to time.Time) ([]calls.CallRecord, error) {
	return r.callStore.ListByAgent(ctx, agentID, from, to)
}

func (r *StoreRepo) ListLeads(ctx context.Context, agentID string, from, to time.Time) ([]leads.Lead, error) {
	rows, err := r.leadRepo.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	out := make([]leads.Lead, 0, len(rows))
	for _, l := range rows {
		if !l.CreatedAt.IsZero() {
			if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, l)
	}
	return out, nil
}
