package calls

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callagent-platform/internal/audit"
)

var ErrInvalidEvent = errors.New("calls: invalid event")

// ConcurrencyLimiter caps the number of simultaneously live calls per agent.
// A nil limiter means unlimited.
type ConcurrencyLimiter interface {
	Acquire(ctx context.Context, agentID string) (bool, error)
	Release(ctx context.Context, agentID string) error
}

// LiveOutcome is the result of applying a live (ringing / in-progress) event.
type LiveOutcome struct {
	Record CallRecord

	// First reports that this event created the record, i.e. it is the first
	// live event for this call and the caller should answer with a voice
	// response document instead of an empty acknowledgment.
	First bool

	// Rejected reports that the per-agent concurrency cap was hit; no record
	// was written and the caller should tell the provider to reject the call.
	Rejected bool
}

// Tracker drives call lifecycle transitions from provider webhook events.
//
// Each webhook delivery is handled independently; there is no shared
// in-process state. All mutations are single-row upserts/patches keyed by
// call_id, guarded by the transition table in the store, so duplicate and
// reordered deliveries are safe to apply.
type Tracker struct {
	store   Store
	limiter ConcurrencyLimiter
	audit   *audit.Service
	clock   func() time.Time
}

func NewTracker(store Store, limiter ConcurrencyLimiter, auditSvc *audit.Service) *Tracker {
	return &Tracker{store: store, limiter: limiter, audit: auditSvc, clock: time.Now}
}

// HandleLive applies a ringing or in-progress event. The owning agent must
// already be resolved by the caller (the webhook handler); the tracker never
// looks up agents itself.
func (t *Tracker) HandleLive(ctx context.Context, up LiveUpsert) (LiveOutcome, error) {
	if up.CallID == "" || up.AgentID == "" {
		return LiveOutcome{}, ErrInvalidEvent
	}
	if up.Status != CallStatusInitiated && up.Status != CallStatusInProgress {
		return LiveOutcome{}, ErrInvalidEvent
	}
	if up.OccurredAt.IsZero() {
		up.OccurredAt = t.clock()
	}

	// The cap only applies to calls we have not seen yet; a retry of a known
	// call must not consume a second slot. The check-then-upsert window is
	// acceptable because the cap is advisory and TTL-protected.
	if t.limiter != nil {
		if _, err := t.store.Get(ctx, up.CallID); errors.Is(err, ErrNotFound) {
			ok, err := t.limiter.Acquire(ctx, up.AgentID)
			if err != nil {
				return LiveOutcome{}, err
			}
			if !ok {
				return LiveOutcome{Rejected: true}, nil
			}
		} else if err != nil {
			return LiveOutcome{}, err
		}
	}

	rec, created, err := t.store.UpsertLive(ctx, up)
	if err != nil {
		return LiveOutcome{}, err
	}

	if created {
		t.logTransition(ctx, rec, "new")
	}

	return LiveOutcome{Record: rec, First: created}, nil
}

// HandleTerminal applies a completed / failed / busy / no-answer event.
// Busy and no-answer map to failed before this is called.
//
// A terminal event for an unknown call_id is acknowledged without creating a
// record; whether the provider should ever do that is its own business.
func (t *Tracker) HandleTerminal(ctx context.Context, fin Finalize) (CallRecord, FinalResult, error) {
	if fin.CallID == "" {
		return CallRecord{}, FinalMissing, ErrInvalidEvent
	}
	if !fin.Status.IsTerminal() {
		return CallRecord{}, FinalMissing, ErrInvalidEvent
	}
	if fin.OccurredAt.IsZero() {
		fin.OccurredAt = t.clock()
	}

	rec, res, err := t.store.ApplyFinal(ctx, fin)
	if err != nil {
		return CallRecord{}, res, err
	}

	if res == FinalApplied {
		if t.limiter != nil {
			if err := t.limiter.Release(ctx, rec.AgentID); err != nil {
				slog.Default().Warn("call cap release failed", "agent_id", rec.AgentID, "err", err)
			}
		}
		t.logTransition(ctx, rec, "live")
	}
	return rec, res, nil
}

// AttachRecording stores the recording URL delivered by the provider's
// recording callback. Missing records are tolerated.
func (t *Tracker) AttachRecording(ctx context.Context, callID, recordingURL string) (bool, error) {
	if callID == "" || recordingURL == "" {
		return false, ErrInvalidEvent
	}
	return t.store.AttachRecording(ctx, callID, recordingURL, t.clock())
}

// Get returns the record for a call_id.
func (t *Tracker) Get(ctx context.Context, callID string) (CallRecord, error) {
	return t.store.Get(ctx, callID)
}

func (t *Tracker) logTransition(ctx context.Context, rec CallRecord, from string) {
	if t.audit == nil {
		return
	}
	if err := t.audit.LogCallTransition(ctx, rec.AgentID, rec.CallID, from, string(rec.Status)); err != nil {
		slog.Default().Warn("audit append failed", "call_id", rec.CallID, "err", err)
	}
}
