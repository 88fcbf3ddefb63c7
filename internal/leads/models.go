package leads

import "time"

// Lead is a best-effort structured extraction from a call transcript,
// keyed to the originating call record.
//
// Extraction quality is whatever the text model produces; fields may be
// empty, and InterestScore is clamped to [0, 100].

type Lead struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	// AgentID is denormalized from the call record for owner-scoped listing.
	AgentID string `json:"agent_id" db:"agent_id"`

	Name    string `json:"name,omitempty" db:"name"`
	Email   string `json:"email,omitempty" db:"email"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Company string `json:"company,omitempty" db:"company"`

	InterestScore int    `json:"interest_score" db:"interest_score"`
	Summary       string `json:"summary,omitempty" db:"summary"`
	Sentiment     string `json:"sentiment,omitempty" db:"sentiment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
