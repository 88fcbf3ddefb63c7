package calls

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testUpsert(callID string, status CallStatus) LiveUpsert {
	return LiveUpsert{
		CallID:     callID,
		AgentID:    "agent-1",
		FromNumber: "+15551234567",
		ToNumber:   "+15557654321",
		Status:     status,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestHandleLive_RingingTwiceIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	out1, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInitiated))
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if !out1.First {
		t.Fatalf("expected first event to create the record")
	}

	out2, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInitiated))
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if out2.First {
		t.Fatalf("duplicate ringing must not count as first")
	}
	if store.Len() != 1 {
		t.Fatalf("expected exactly one record, got %d", store.Len())
	}
	if out2.Record.Status != CallStatusInitiated {
		t.Fatalf("expected initiated, got %q", out2.Record.Status)
	}
}

func TestHandleLive_ConcurrentFirstDeliveries(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	// Provider retries can deliver the first ringing event twice in parallel.
	// Both deliveries must succeed and exactly one may create the record.
	const n = 8
	results := make([]LiveOutcome, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInitiated))
		}(i)
	}
	wg.Wait()

	var firsts int
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("delivery %d failed: %v", i, errs[i])
		}
		if results[i].First {
			firsts++
		}
	}
	if firsts != 1 {
		t.Fatalf("expected exactly one creating delivery, got %d", firsts)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestHandleLive_InProgressMergesIntoSameRecord(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	if _, err := tr.HandleLive(context.Background(), testUpsert("CA123", CallStatusInitiated)); err != nil {
		t.Fatalf("ringing: %v", err)
	}
	out, err := tr.HandleLive(context.Background(), testUpsert("CA123", CallStatusInProgress))
	if err != nil {
		t.Fatalf("in-progress: %v", err)
	}
	if out.First {
		t.Fatalf("in-progress after ringing is not first")
	}
	if out.Record.Status != CallStatusInProgress {
		t.Fatalf("expected in_progress, got %q", out.Record.Status)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestHandleTerminal_PatchesRecordingAndEndedAt(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	if _, err := tr.HandleLive(context.Background(), testUpsert("CA123", CallStatusInitiated)); err != nil {
		t.Fatalf("ringing: %v", err)
	}

	rec, res, err := tr.HandleTerminal(context.Background(), Finalize{
		CallID:          "CA123",
		Status:          CallStatusCompleted,
		RecordingURL:    "https://x/y.mp3",
		DurationSeconds: 42,
		OccurredAt:      time.Unix(1700000100, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("terminal: %v", err)
	}
	if res != FinalApplied {
		t.Fatalf("expected applied, got %q", res)
	}
	if rec.Status != CallStatusCompleted {
		t.Fatalf("expected completed, got %q", rec.Status)
	}
	if rec.EndedAt == nil || rec.EndedAt.IsZero() {
		t.Fatalf("expected ended_at set")
	}
	if rec.RecordingURL != "https://x/y.mp3" {
		t.Fatalf("expected recording url, got %q", rec.RecordingURL)
	}
	if rec.DurationSeconds != 42 {
		t.Fatalf("expected duration 42, got %d", rec.DurationSeconds)
	}
}

func TestHandleTerminal_UnknownCallIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	_, res, err := tr.HandleTerminal(context.Background(), Finalize{
		CallID: "CA-unknown",
		Status: CallStatusCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res != FinalMissing {
		t.Fatalf("expected missing, got %q", res)
	}
	if store.Len() != 0 {
		t.Fatalf("no record must be created for unknown call, got %d", store.Len())
	}
}

func TestHandleLive_IgnoredAfterTerminal(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	if _, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInitiated)); err != nil {
		t.Fatalf("ringing: %v", err)
	}
	if _, _, err := tr.HandleTerminal(context.Background(), Finalize{CallID: "CA1", Status: CallStatusFailed}); err != nil {
		t.Fatalf("terminal: %v", err)
	}

	// Late in-progress retry must not resurrect the call.
	out, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInProgress))
	if err != nil {
		t.Fatalf("late live: %v", err)
	}
	if out.First {
		t.Fatalf("late live event must not be first")
	}
	if out.Record.Status != CallStatusFailed {
		t.Fatalf("terminal status must not regress, got %q", out.Record.Status)
	}
}

func TestHandleTerminal_DuplicateTerminalIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	tr := NewTracker(store, nil, nil)

	if _, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInProgress)); err != nil {
		t.Fatalf("live: %v", err)
	}
	if _, _, err := tr.HandleTerminal(context.Background(), Finalize{CallID: "CA1", Status: CallStatusCompleted}); err != nil {
		t.Fatalf("first terminal: %v", err)
	}
	_, res, err := tr.HandleTerminal(context.Background(), Finalize{CallID: "CA1", Status: CallStatusCompleted})
	if err != nil {
		t.Fatalf("second terminal: %v", err)
	}
	if res != FinalDuplicate {
		t.Fatalf("expected duplicate, got %q", res)
	}
}

// fakeLimiter counts acquisitions per agent with a fixed limit.
type fakeLimiter struct {
	mu     sync.Mutex
	limit  int
	active map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, active: map[string]int{}}
}

func (l *fakeLimiter) Acquire(ctx context.Context, agentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[agentID] >= l.limit {
		return false, nil
	}
	l.active[agentID]++
	return true, nil
}

func (l *fakeLimiter) Release(ctx context.Context, agentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[agentID] > 0 {
		l.active[agentID]--
	}
	return nil
}

func TestHandleLive_ConcurrencyCap(t *testing.T) {
	store := NewMemoryStore()
	limiter := newFakeLimiter(1)
	tr := NewTracker(store, limiter, nil)

	out, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInitiated))
	if err != nil || out.Rejected {
		t.Fatalf("first call should be admitted: %v %+v", err, out)
	}

	up2 := testUpsert("CA2", CallStatusInitiated)
	out2, err := tr.HandleLive(context.Background(), up2)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !out2.Rejected {
		t.Fatalf("second concurrent call should be rejected")
	}
	if store.Len() != 1 {
		t.Fatalf("rejected call must not be stored")
	}

	// Duplicate delivery for the admitted call must not consume a slot.
	if out, err := tr.HandleLive(context.Background(), testUpsert("CA1", CallStatusInProgress)); err != nil || out.Rejected {
		t.Fatalf("retry of admitted call must pass: %v %+v", err, out)
	}

	// Finishing the call frees the slot.
	if _, _, err := tr.HandleTerminal(context.Background(), Finalize{CallID: "CA1", Status: CallStatusCompleted}); err != nil {
		t.Fatalf("terminal: %v", err)
	}
	out3, err := tr.HandleLive(context.Background(), testUpsert("CA3", CallStatusInitiated))
	if err != nil || out3.Rejected {
		t.Fatalf("slot should be free again: %v %+v", err, out3)
	}
}

func TestHandleLive_RejectsInvalidInput(t *testing.T) {
	tr := NewTracker(NewMemoryStore(), nil, nil)

	if _, err := tr.HandleLive(context.Background(), LiveUpsert{AgentID: "a", Status: CallStatusInitiated}); err == nil {
		t.Fatalf("expected error for missing call_id")
	}
	if _, err := tr.HandleLive(context.Background(), LiveUpsert{CallID: "CA1", AgentID: "a", Status: CallStatusCompleted}); err == nil {
		t.Fatalf("expected error for terminal status on live path")
	}
}
