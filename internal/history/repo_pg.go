package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores a new submission record.
func (r *PGRepo) Insert(ctx context.Context, sub Submission) error {
	const query = `
INSERT INTO submissions (id, session_id, segmento, analysis_type, status, error, summary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	summary, err := marshalJSONB(sub.Summary)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		sub.ID, sub.SessionID, sub.Segmento, sub.AnalysisType, sub.Status, sub.Error, summary, sub.CreatedAt,
	)
	return err
}

// Finish marks a submission as settled.
func (r *PGRepo) Finish(ctx context.Context, id, status, errMsg string, summary []byte, at time.Time) error {
	const query = `
UPDATE submissions
SET status = $2, error = $3, summary = COALESCE($4, summary), completed_at = $5
WHERE id = $1`
	jsonSummary, err := marshalJSONB(summary)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, id, status, errMsg, jsonSummary, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySession returns the session's submissions, newest first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Submission, error) {
	const query = `
SELECT id, session_id, segmento, analysis_type, status, error, summary, created_at, completed_at
FROM submissions
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var summary []byte
		var completedAt sql.NullTime
		if err := rows.Scan(
			&sub.ID, &sub.SessionID, &sub.Segmento, &sub.AnalysisType,
			&sub.Status, &sub.Error, &summary, &sub.CreatedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		if len(summary) > 0 {
			sub.Summary = json.RawMessage(summary)
		}
		if completedAt.Valid {
			t := completedAt.Time
			sub.CompletedAt = &t
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func marshalJSONB(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		encoded, err := json.Marshal(string(raw))
		if err != nil {
			return nil, err
		}
		return encoded, nil
	}
	return raw, nil
}
