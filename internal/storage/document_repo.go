package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tabrev/internal/models"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Insert stores a new document row. Version is assigned by NextVersion; the
// caller marks earlier versions superseded in the same flow.
func (r *DocumentRepo) Insert(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, project_id, filename, format, byte_size, sha256, version, status, fail_reason, superseded)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), $10)`,
		d.DocumentID, d.ProjectID, d.Filename, d.Format, d.ByteSize, d.SHA256, d.Version, d.Status, d.FailReason, d.Superseded)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// NextVersion returns 1 + the highest version stored for this filename in
// the project, so re-uploads become new versions instead of duplicates.
func (r *DocumentRepo) NextVersion(ctx context.Context, projectID, filename string) (int, error) {
	var v int
	err := r.db.Pool.QueryRow(ctx, `
SELECT COALESCE(MAX(version), 0) + 1
FROM documents
WHERE project_id=$1 AND filename=$2`, projectID, filename).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next document version: %w", err)
	}
	return v, nil
}

// MarkSuperseded flags every older version of the filename. It returns the
// document IDs it touched so their records can be reset.
func (r *DocumentRepo) MarkSuperseded(ctx context.Context, projectID, filename string, keepVersion int) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
UPDATE documents
SET superseded=TRUE, updated_at=NOW()
WHERE project_id=$1 AND filename=$2 AND version < $3 AND superseded=FALSE
RETURNING document_id::text`, projectID, filename, keepVersion)
	if err != nil {
		return nil, fmt.Errorf("mark superseded: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan superseded id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MarkVersionSuperseded flags one specific version, used when a failed
// re-parse must not displace the prior good version as current.
func (r *DocumentRepo) MarkVersionSuperseded(ctx context.Context, documentID string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET superseded=TRUE, updated_at=NOW()
WHERE document_id=$1`, documentID)
	if err != nil {
		return fmt.Errorf("mark version superseded: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID string, status models.ParseStatus, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW()
WHERE document_id=$1`, documentID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, documentID string) (models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, documentSelect+` WHERE document_id=$1`, documentID).
		Scan(docFields(&d)...)
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// ListCurrentByProject lists the latest, non-superseded version of each
// document in the project.
func (r *DocumentRepo) ListCurrentByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, documentSelect+`
WHERE project_id=$1 AND superseded=FALSE
ORDER BY filename ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(docFields(&d)...); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// GetLatestByFilename returns the newest version of a filename regardless
// of parse status. ErrNotFound when the project never saw that filename.
func (r *DocumentRepo) GetLatestByFilename(ctx context.Context, projectID, filename string) (models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, documentSelect+`
WHERE project_id=$1 AND filename=$2
ORDER BY version DESC
LIMIT 1`, projectID, filename).Scan(docFields(&d)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get latest document: %w", err)
	}
	return d, nil
}

const documentSelect = `
SELECT document_id::text, project_id::text, filename, format, byte_size, COALESCE(sha256,''), version, status, COALESCE(fail_reason,''), superseded, created_at, updated_at
FROM documents`

func docFields(d *models.Document) []any {
	return []any{&d.DocumentID, &d.ProjectID, &d.Filename, &d.Format, &d.ByteSize, &d.SHA256, &d.Version, &d.Status, &d.FailReason, &d.Superseded, &d.CreatedAt, &d.UpdatedAt}
}
