package calls

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("calls: record not found")

// LiveUpsert is the input for create-or-merge of a live (non-terminal) event.
type LiveUpsert struct {
	CallID     string
	AgentID    string
	FromNumber string
	ToNumber   string
	Status     CallStatus // initiated or in_progress
	OccurredAt time.Time
}

// Finalize is the input for a terminal patch.
type Finalize struct {
	CallID          string
	Status          CallStatus // completed or failed
	RecordingURL    string
	DurationSeconds int
	OccurredAt      time.Time
}

// FinalResult describes what a terminal patch actually did.
type FinalResult string

const (
	// FinalApplied: the record moved to the terminal status.
	FinalApplied FinalResult = "applied"
	// FinalDuplicate: the record was already terminal (or the transition is
	// forbidden); nothing changed.
	FinalDuplicate FinalResult = "duplicate"
	// FinalMissing: no record exists for this call_id; nothing was created.
	FinalMissing FinalResult = "missing"
)

// Store persists call records with upsert-on-call_id semantics.
//
// Contract:
//   - UpsertLive creates the record on the first live event and merges later
//     live events into the same row; created reports whether this call was
//     first seen by this event. Transitions that the lifecycle table forbids
//     (e.g. ringing after completed) leave the row untouched.
//   - ApplyFinal patches an existing record to a terminal status. A missing
//     record is not an error: FinalMissing lets the caller acknowledge the
//     event without inventing a row (provider retries may outlive retention).
//   - AttachRecording sets recording_url on an existing record.
type Store interface {
	UpsertLive(ctx context.Context, up LiveUpsert) (rec CallRecord, created bool, err error)
	ApplyFinal(ctx context.Context, fin Finalize) (rec CallRecord, res FinalResult, err error)
	AttachRecording(ctx context.Context, callID, recordingURL string, now time.Time) (found bool, err error)

	Get(ctx context.Context, callID string) (CallRecord, error)
	ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]CallRecord, error)
}
