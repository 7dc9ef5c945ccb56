package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tabrev/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("record version conflict")
)

type RecordRepo struct {
	db *DB
}

func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// UpsertForPair writes the machine outcome for a (document, field) pair.
// Re-extraction replaces the previous machine outcome and resets review
// fields; the audit trail keeps what happened before.
func (r *RecordRepo) UpsertForPair(ctx context.Context, rec models.ExtractionRecord) error {
	cChunk, cStart, cEnd := citationCols(rec.Citation)
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO extraction_records
  (record_id, document_id, field_id, value, machine_value, confidence, citation_chunk, citation_start, citation_end, source, state, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''), $11, $12)
ON CONFLICT (document_id, field_id)
DO UPDATE SET
  value = EXCLUDED.value,
  machine_value = EXCLUDED.machine_value,
  confidence = EXCLUDED.confidence,
  citation_chunk = EXCLUDED.citation_chunk,
  citation_start = EXCLUDED.citation_start,
  citation_end = EXCLUDED.citation_end,
  source = EXCLUDED.source,
  state = EXCLUDED.state,
  reviewer_note = NULL,
  reviewed_by = NULL,
  version = extraction_records.version + 1,
  updated_at = NOW()`,
		rec.RecordID, rec.DocumentID, rec.FieldID, rec.Value, rec.MachineValue, rec.Confidence,
		cChunk, cStart, cEnd, string(rec.Source), rec.State, rec.Version)
	if err != nil {
		return fmt.Errorf("upsert extraction record: %w", err)
	}
	return nil
}

// UpdateReview persists a review transition. The version check makes
// concurrent reviewers fail loudly instead of silently overwriting each
// other.
func (r *RecordRepo) UpdateReview(ctx context.Context, rec models.ExtractionRecord, expectedVersion int) error {
	cChunk, cStart, cEnd := citationCols(rec.Citation)
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE extraction_records SET
  value = $2,
  machine_value = $3,
  confidence = $4,
  citation_chunk = $5,
  citation_start = $6,
  citation_end = $7,
  source = NULLIF($8,''),
  state = $9,
  reviewer_note = NULLIF($10,''),
  reviewed_by = NULLIF($11,''),
  version = $12,
  updated_at = NOW()
WHERE record_id=$1 AND version=$13`,
		rec.RecordID, rec.Value, rec.MachineValue, rec.Confidence, cChunk, cStart, cEnd,
		string(rec.Source), rec.State, rec.ReviewerNote, rec.ReviewedBy, rec.Version, expectedVersion)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *RecordRepo) GetByID(ctx context.Context, recordID string) (models.ExtractionRecord, error) {
	row := r.db.Pool.QueryRow(ctx, recordSelect+` WHERE record_id=$1`, recordID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExtractionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ExtractionRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *RecordRepo) GetByPair(ctx context.Context, documentID, fieldID string) (models.ExtractionRecord, error) {
	row := r.db.Pool.QueryRow(ctx, recordSelect+` WHERE document_id=$1 AND field_id=$2`, documentID, fieldID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExtractionRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ExtractionRecord{}, fmt.Errorf("get record by pair: %w", err)
	}
	return rec, nil
}

// ListByProject returns records for the project's current documents only.
func (r *RecordRepo) ListByProject(ctx context.Context, projectID string) ([]models.ExtractionRecord, error) {
	rows, err := r.db.Pool.Query(ctx, recordSelect+`
WHERE document_id IN (SELECT document_id FROM documents WHERE project_id=$1 AND superseded=FALSE)
ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExtractionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// ListByDocuments returns records for a set of documents, superseded or not.
func (r *RecordRepo) ListByDocuments(ctx context.Context, documentIDs []string) ([]models.ExtractionRecord, error) {
	if len(documentIDs) == 0 {
		return []models.ExtractionRecord{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, recordSelect+` WHERE document_id = ANY($1)`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list records by documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExtractionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record by document: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const recordSelect = `
SELECT record_id::text, document_id::text, field_id::text, value, machine_value, confidence,
       citation_chunk, citation_start, citation_end, COALESCE(source,''), state,
       COALESCE(reviewer_note,''), COALESCE(reviewed_by,''), version, created_at, updated_at
FROM extraction_records`

func scanRecord(row pgx.Row) (models.ExtractionRecord, error) {
	var rec models.ExtractionRecord
	var source string
	var cChunk, cStart, cEnd *int
	err := row.Scan(&rec.RecordID, &rec.DocumentID, &rec.FieldID, &rec.Value, &rec.MachineValue, &rec.Confidence,
		&cChunk, &cStart, &cEnd, &source, &rec.State,
		&rec.ReviewerNote, &rec.ReviewedBy, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return models.ExtractionRecord{}, err
	}
	rec.Source = models.Source(source)
	if cChunk != nil && cStart != nil && cEnd != nil {
		rec.Citation = &models.Citation{ChunkIndex: *cChunk, Start: *cStart, End: *cEnd}
	}
	return rec, nil
}

func citationCols(c *models.Citation) (*int, *int, *int) {
	if c == nil {
		return nil, nil, nil
	}
	return &c.ChunkIndex, &c.Start, &c.End
}
