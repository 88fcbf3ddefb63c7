package calls

import "time"

// CallRecord is the persisted view of a single telephony call's lifecycle.
//
// call_id is the provider-assigned call identifier (e.g. a Twilio CallSid).
// It is unique and immutable; every webhook event for the same call carries it,
// so create-or-merge on call_id collapses retried and reordered deliveries
// into one row.
//
// agent_id, from_number and to_number are set when the record is created and
// never change afterwards. Records are never deleted here; retention is an
// external concern.

type CallRecord struct {
	CallID  string `json:"call_id" db:"call_id"`
	AgentID string `json:"agent_id" db:"agent_id"`

	FromNumber string `json:"from_number" db:"from_number"`
	ToNumber   string `json:"to_number" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	// DurationSeconds is reported by the provider on terminal events.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// IsTerminal reports whether s is a final lifecycle status.
func (s CallStatus) IsTerminal() bool {
	return s == CallStatusCompleted || s == CallStatusFailed
}

// validPredecessors encodes the lifecycle transition table. Providers may
// deliver events out of order or more than once, so the table is what keeps a
// late "ringing" from regressing a call that already completed.
//
//	initiated   -> in_progress, completed, failed
//	in_progress -> completed, failed
//	completed   -> (none)
//	failed      -> (none)
var validPredecessors = map[CallStatus]map[CallStatus]bool{
	CallStatusInitiated:  {},
	CallStatusInProgress: {CallStatusInitiated: true},
	CallStatusCompleted:  {CallStatusInitiated: true, CallStatusInProgress: true},
	CallStatusFailed:     {CallStatusInitiated: true, CallStatusInProgress: true},
}

// CanTransition reports whether a record in status from may move to status to.
// Re-applying the current status is allowed and treated as a no-op by stores,
// which makes duplicate webhook deliveries commutative.
func CanTransition(from, to CallStatus) bool {
	if from == to {
		return true
	}
	preds, ok := validPredecessors[to]
	if !ok {
		return false
	}
	return preds[from]
}
