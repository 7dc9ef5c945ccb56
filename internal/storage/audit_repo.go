package storage

import (
	"context"
	"fmt"

	"tabrev/internal/models"
)

// AuditRepo is insert-only. Nothing in the system updates or deletes audit
// rows.
type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, e models.AuditEntry) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO audit_entries (entry_id, record_id, from_state, to_state, actor, note, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)`,
		e.EntryID, e.RecordID, e.FromState, e.ToState, e.Actor, e.Note, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListByRecord(ctx context.Context, recordID string) ([]models.AuditEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT entry_id::text, record_id::text, from_state, to_state, actor, COALESCE(note,''), created_at
FROM audit_entries
WHERE record_id=$1
ORDER BY created_at ASC`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditEntry, 0)
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.EntryID, &e.RecordID, &e.FromState, &e.ToState, &e.Actor, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
