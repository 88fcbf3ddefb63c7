package agents

import "time"

// Agent is a configured voice persona a customer deploys to answer calls on
// their behalf.
//
// Invariant: assigned_phone_number is unique across active agents. Exactly one
// agent should resolve per dialed number; multiple rows sharing a number are a
// provisioning bug upstream (enforce with a partial unique index), not a
// runtime case to design around.
//
// tavus_persona_id and tavus_replica_id are opaque vendor identifiers for
// video conversations; nothing in this service interprets them.

type Agent struct {
	ID           string `json:"id" db:"id"`
	OwningUserID string `json:"owning_user_id" db:"owning_user_id"`

	Name string `json:"name" db:"name"`

	GreetingMessage     string `json:"greeting_message" db:"greeting_message"`
	AssignedPhoneNumber string `json:"assigned_phone_number" db:"assigned_phone_number"`

	VoiceID      string `json:"voice_id,omitempty" db:"voice_id"`
	SystemPrompt string `json:"system_prompt,omitempty" db:"system_prompt"`

	TavusPersonaID string `json:"tavus_persona_id,omitempty" db:"tavus_persona_id"`
	TavusReplicaID string `json:"tavus_replica_id,omitempty" db:"tavus_replica_id"`

	Status AgentStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusDisabled AgentStatus = "disabled"
)
