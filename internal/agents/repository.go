package agents

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("agents: not found")

// Repository is the persistence contract for agent configurations.
//
// FindByAssignedNumber is the webhook read path and must be an exact string
// match on the dialed number. All other methods are scoped by owning user for
// the admin API.
type Repository interface {
	FindByAssignedNumber(ctx context.Context, number string) (Agent, error)

	Create(ctx context.Context, a Agent) error
	Update(ctx context.Context, a Agent) error
	GetByID(ctx context.Context, owningUserID, id string) (Agent, error)
	ListByOwner(ctx context.Context, owningUserID string) ([]Agent, error)
	Delete(ctx context.Context, owningUserID, id string) error
}

// PostgresRepo persists agents in the agents table.
//
// NOTE: Assumes the following table exists:
//
//	CREATE TABLE agents (
//	  id                    TEXT PRIMARY KEY,
//	  owning_user_id        TEXT NOT NULL,
//	  name                  TEXT NOT NULL,
//	  greeting_message      TEXT NOT NULL DEFAULT '',
//	  assigned_phone_number TEXT NOT NULL,
//	  voice_id              TEXT NOT NULL DEFAULT '',
//	  system_prompt         TEXT NOT NULL DEFAULT '',
//	  tavus_persona_id      TEXT NOT NULL DEFAULT '',
//	  tavus_replica_id      TEXT NOT NULL DEFAULT '',
//	  status                TEXT NOT NULL,
//	  created_at            TIMESTAMPTZ NOT NULL,
//	  updated_at            TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX agents_number_active
//	  ON agents (assigned_phone_number) WHERE status = 'active';
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const agentColumns = `
id, owning_user_id, name, greeting_message, assigned_phone_number,
voice_id, system_prompt, tavus_persona_id, tavus_replica_id, status,
created_at, updated_at
`

func (r *PostgresRepo) FindByAssignedNumber(ctx context.Context, number string) (Agent, error) {
	// ORDER BY created_at guards against duplicate-number provisioning bugs:
	// the oldest agent wins deterministically.
	const q = `
SELECT ` + agentColumns + `
FROM agents
WHERE assigned_phone_number = $1 AND status = 'active'
ORDER BY created_at
LIMIT 1
`
	return scanAgent(r.db.QueryRowContext(ctx, q, number))
}

func (r *PostgresRepo) Create(ctx context.Context, a Agent) error {
	const q = `
INSERT INTO agents (
  id, owning_user_id, name, greeting_message, assigned_phone_number,
  voice_id, system_prompt, tavus_persona_id, tavus_replica_id, status,
  created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.OwningUserID,
		a.Name,
		a.GreetingMessage,
		a.AssignedPhoneNumber,
		a.VoiceID,
		a.SystemPrompt,
		a.TavusPersonaID,
		a.TavusReplicaID,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, a Agent) error {
	const q = `
UPDATE agents
SET name = $3, greeting_message = $4, assigned_phone_number = $5,
    voice_id = $6, system_prompt = $7, tavus_persona_id = $8,
    tavus_replica_id = $9, status = $10, updated_at = $11
WHERE owning_user_id = $1 AND id = $2
`
	res, err := r.db.ExecContext(ctx, q,
		a.OwningUserID,
		a.ID,
		a.Name,
		a.GreetingMessage,
		a.AssignedPhoneNumber,
		a.VoiceID,
		a.SystemPrompt,
		a.TavusPersonaID,
		a.TavusReplicaID,
		a.Status,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, owningUserID, id string) (Agent, error) {
	const q = `
SELECT ` + agentColumns + `
FROM agents
WHERE owning_user_id = $1 AND id = $2
`
	return scanAgent(r.db.QueryRowContext(ctx, q, owningUserID, id))
}

func (r *PostgresRepo) ListByOwner(ctx context.Context, owningUserID string) ([]Agent, error) {
	const q = `
SELECT ` + agentColumns + `
FROM agents
WHERE owning_user_id = $1
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, owningUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, owningUserID, id string) error {
	const q = `DELETE FROM agents WHERE owning_user_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, q, owningUserID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (Agent, error) {
	var a Agent
	if err := row.Scan(
		&a.ID,
		&a.OwningUserID,
		&a.Name,
		&a.GreetingMessage,
		&a.AssignedPhoneNumber,
		&a.VoiceID,
		&a.SystemPrompt,
		&a.TavusPersonaID,
		&a.TavusReplicaID,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}
