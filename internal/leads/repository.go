package leads

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("leads: not found")

// Repository persists extracted leads.
type Repository interface {
	Insert(ctx context.Context, l Lead) error
	GetByCallID(ctx context.Context, callID string) (Lead, error)
	ListByAgent(ctx context.Context, agentID string) ([]Lead, error)
}

// PostgresRepo stores leads in the leads table.
//
// NOTE: Assumes the following table exists:
//
//	CREATE TABLE leads (
//	  id             TEXT PRIMARY KEY,
//	  call_id        TEXT NOT NULL REFERENCES calls (call_id),
//	  agent_id       TEXT NOT NULL,
//	  name           TEXT NOT NULL DEFAULT '',
//	  email          TEXT NOT NULL DEFAULT '',
//	  phone          TEXT NOT NULL DEFAULT '',
//	  company        TEXT NOT NULL DEFAULT '',
//	  interest_score INT NOT NULL DEFAULT 0,
//	  summary        TEXT NOT NULL DEFAULT '',
//	  sentiment      TEXT NOT NULL DEFAULT '',
//	  created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Insert(ctx context.Context, l Lead) error {
	const q = `
INSERT INTO leads (
  id, call_id, agent_id, name, email, phone, company, interest_score,
  summary, sentiment, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID,
		l.CallID,
		l.AgentID,
		l.Name,
		l.Email,
		l.Phone,
		l.Company,
		l.InterestScore,
		l.Summary,
		l.Sentiment,
		l.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) GetByCallID(ctx context.Context, callID string) (Lead, error) {
	const q = `
SELECT id, call_id, agent_id, name, email, phone, company, interest_score,
       summary, sentiment, created_at
FROM leads
WHERE call_id = $1
`
	var l Lead
	if err := r.db.QueryRowContext(ctx, q, callID).Scan(
		&l.ID,
		&l.CallID,
		&l.AgentID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Company,
		&l.InterestScore,
		&l.Summary,
		&l.Sentiment,
		&l.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return l, nil
}

func (r *PostgresRepo) ListByAgent(ctx context.Context, agentID string) ([]Lead, error) {
	const q = `
SELECT id, call_id, agent_id, name, email, phone, company, interest_score,
       summary, sentiment, created_at
FROM leads
WHERE agent_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Lead, 0)
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID,
			&l.CallID,
			&l.AgentID,
			&l.Name,
			&l.Email,
			&l.Phone,
			&l.Company,
			&l.InterestScore,
			&l.Summary,
			&l.Sentiment,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	leads []Lead
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(ctx context.Context, l Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, l)
	return nil
}

func (r *MemoryRepo) GetByCallID(ctx context.Context, callID string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.CallID == callID {
			return l, nil
		}
	}
	return Lead{}, ErrNotFound
}

func (r *MemoryRepo) ListByAgent(ctx context.Context, agentID string) ([]Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range r.leads {
		if l.AgentID == agentID {
			out = append(out, l)
		}
	}
	return out, nil
}
