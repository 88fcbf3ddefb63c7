package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
// Semantics mirror PostgresStore, including the transition table checks.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]CallRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]CallRecord{}}
}

func (s *MemoryStore) UpsertLive(ctx context.Context, up LiveUpsert) (CallRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := up.OccurredAt.UTC()

	existing, ok := s.records[up.CallID]
	if !ok {
		rec := CallRecord{
			CallID:     up.CallID,
			AgentID:    up.AgentID,
			FromNumber: up.FromNumber,
			ToNumber:   up.ToNumber,
			Status:     up.Status,
			StartedAt:  now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.records[up.CallID] = rec
		return rec, true, nil
	}

	if !CanTransition(existing.Status, up.Status) || existing.Status == up.Status {
		return existing, false, nil
	}

	existing.Status = up.Status
	existing.UpdatedAt = now
	s.records[up.CallID] = existing
	return existing, false, nil
}

func (s *MemoryStore) ApplyFinal(ctx context.Context, fin Finalize) (CallRecord, FinalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[fin.CallID]
	if !ok {
		return CallRecord{}, FinalMissing, nil
	}

	if !CanTransition(existing.Status, fin.Status) || existing.Status == fin.Status {
		return existing, FinalDuplicate, nil
	}

	now := fin.OccurredAt.UTC()
	existing.Status = fin.Status
	existing.EndedAt = &now
	existing.DurationSeconds = fin.DurationSeconds
	if fin.RecordingURL != "" {
		existing.RecordingURL = fin.RecordingURL
	}
	existing.UpdatedAt = now
	s.records[fin.CallID] = existing
	return existing, FinalApplied, nil
}

func (s *MemoryStore) AttachRecording(ctx context.Context, callID, recordingURL string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[callID]
	if !ok {
		return false, nil
	}
	existing.RecordingURL = recordingURL
	existing.UpdatedAt = now.UTC()
	s.records[callID] = existing
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CallRecord, 0)
	for _, rec := range s.records {
		if rec.AgentID != agentID {
			continue
		}
		if rec.StartedAt.Before(from) || !rec.StartedAt.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len reports the number of stored records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
