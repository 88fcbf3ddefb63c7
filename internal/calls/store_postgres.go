package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callagent-platform/pkg/utils"
)

// PostgresStore persists call records in the calls table.
//
// NOTE: Assumes the following table exists:
//
//	CREATE TABLE calls (
//	  call_id          TEXT PRIMARY KEY,
//	  agent_id         TEXT NOT NULL,
//	  from_number      TEXT NOT NULL,
//	  to_number        TEXT NOT NULL,
//	  status           TEXT NOT NULL,
//	  started_at       TIMESTAMPTZ NOT NULL,
//	  ended_at         TIMESTAMPTZ,
//	  duration_seconds INT NOT NULL DEFAULT 0,
//	  recording_url    TEXT NOT NULL DEFAULT '',
//	  created_at       TIMESTAMPTZ NOT NULL,
//	  updated_at       TIMESTAMPTZ NOT NULL
//	);
//
// All mutations lock the row (SELECT ... FOR UPDATE) and consult the
// transition table before writing, so concurrent or reordered webhook
// deliveries cannot regress a terminal status. First inserts go through
// ON CONFLICT DO NOTHING instead, since there is no row to lock yet.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) UpsertLive(ctx context.Context, up LiveUpsert) (CallRecord, bool, error) {
	var (
		out     CallRecord
		created bool
	)
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		existing, found, err := getForUpdate(ctx, tx, up.CallID)
		if err != nil {
			return err
		}

		now := up.OccurredAt.UTC()

		if !found {
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
			// FOR UPDATE cannot lock a row that does not exist yet, so two
			// concurrent first deliveries can both reach this insert. ON
			// CONFLICT makes the loser fall through to the duplicate path
			// instead of surfacing a unique-key violation.
			inserted, err := insertIfAbsent(ctx, tx, rec)
			if err != nil {
				return err
			}
			if inserted {
				out = rec
				created = true
				return nil
			}
			existing, found, err = getForUpdate(ctx, tx, up.CallID)
			if err != nil {
				return err
			}
			if !found {
				return errors.New("calls: record missing after conflicting insert")
			}
		}

		if !CanTransition(existing.Status, up.Status) || existing.Status == up.Status {
			// Duplicate or late live event; keep the row as is.
			out = existing
			return nil
		}

		const q = `
UPDATE calls SET status = $2, updated_at = $3
WHERE call_id = $1
`
		if _, err := tx.ExecContext(ctx, q, up.CallID, up.Status, now); err != nil {
			return err
		}
		existing.Status = up.Status
		existing.UpdatedAt = now
		out = existing
		return nil
	})
	if err != nil {
		return CallRecord{}, false, err
	}
	return out, created, nil
}

func (s *PostgresStore) ApplyFinal(ctx context.Context, fin Finalize) (CallRecord, FinalResult, error) {
	var (
		out CallRecord
		res = FinalMissing
	)
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		existing, ok, err := getForUpdate(ctx, tx, fin.CallID)
		if err != nil {
			return err
		}
		if !ok {
			// A terminal event for a call we never saw: acknowledge without
			// creating a row in a meaningless state.
			return nil
		}

		if !CanTransition(existing.Status, fin.Status) || existing.Status == fin.Status {
			out = existing
			res = FinalDuplicate
			return nil
		}

		now := fin.OccurredAt.UTC()
		recordingURL := existing.RecordingURL
		if fin.RecordingURL != "" {
			recordingURL = fin.RecordingURL
		}

		const q = `
UPDATE calls
SET status = $2, ended_at = $3, duration_seconds = $4, recording_url = $5, updated_at = $3
WHERE call_id = $1
`
		if _, err := tx.ExecContext(ctx, q, fin.CallID, fin.Status, now, fin.DurationSeconds, recordingURL); err != nil {
			return err
		}
		existing.Status = fin.Status
		existing.EndedAt = &now
		existing.DurationSeconds = fin.DurationSeconds
		existing.RecordingURL = recordingURL
		existing.UpdatedAt = now
		out = existing
		res = FinalApplied
		return nil
	})
	if err != nil {
		return CallRecord{}, FinalMissing, err
	}
	return out, res, nil
}

func (s *PostgresStore) AttachRecording(ctx context.Context, callID, recordingURL string, now time.Time) (bool, error) {
	const q = `
UPDATE calls SET recording_url = $2, updated_at = $3
WHERE call_id = $1
`
	res, err := s.db.ExecContext(ctx, q, callID, recordingURL, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	const q = `
SELECT call_id, agent_id, from_number, to_number, status, started_at, ended_at,
       duration_seconds, recording_url, created_at, updated_at
FROM calls
WHERE call_id = $1
`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]CallRecord, error) {
	const q = `
SELECT call_id, agent_id, from_number, to_number, status, started_at, ended_at,
       duration_seconds, recording_url, created_at, updated_at
FROM calls
WHERE agent_id = $1 AND started_at >= $2 AND started_at < $3
ORDER BY started_at DESC
`
	rows, err := s.db.QueryContext(ctx, q, agentID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func getForUpdate(ctx context.Context, tx *sql.Tx, callID string) (CallRecord, bool, error) {
	const q = `
SELECT call_id, agent_id, from_number, to_number, status, started_at, ended_at,
       duration_seconds, recording_url, created_at, updated_at
FROM calls
WHERE call_id = $1
FOR UPDATE
`
	rec, err := scanRecord(tx.QueryRowContext(ctx, q, callID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, false, nil
		}
		return CallRecord{}, false, err
	}
	return rec, true, nil
}

// insertIfAbsent inserts the record unless another transaction won the race
// for this call_id. Returns false when the row already existed.
func insertIfAbsent(ctx context.Context, tx *sql.Tx, r CallRecord) (bool, error) {
	const q = `
INSERT INTO calls (
  call_id, agent_id, from_number, to_number, status, started_at, ended_at,
  duration_seconds, recording_url, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (call_id) DO NOTHING
`
	res, err := tx.ExecContext(ctx, q,
		r.CallID,
		r.AgentID,
		r.FromNumber,
		r.ToNumber,
		r.Status,
		r.StartedAt,
		r.EndedAt,
		r.DurationSeconds,
		r.RecordingURL,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (CallRecord, error) {
	var (
		rec   CallRecord
		ended sql.NullTime
	)
	if err := row.Scan(
		&rec.CallID,
		&rec.AgentID,
		&rec.FromNumber,
		&rec.ToNumber,
		&rec.Status,
		&rec.StartedAt,
		&ended,
		&rec.DurationSeconds,
		&rec.RecordingURL,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return CallRecord{}, err
	}
	if ended.Valid {
		t := ended.Time
		rec.EndedAt = &t
	}
	return rec, nil
}
