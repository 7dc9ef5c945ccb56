package storage

import (
	"context"
	"fmt"

	"tabrev/internal/models"
)

type FieldDefRepo struct {
	db *DB
}

func NewFieldDefRepo(db *DB) *FieldDefRepo {
	return &FieldDefRepo{db: db}
}

func (r *FieldDefRepo) Create(ctx context.Context, f models.FieldDefinition) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO field_definitions (field_id, project_id, name, type, hint, enum_values, required)
VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7)`,
		f.FieldID, f.ProjectID, f.Name, f.Type, f.Hint, f.EnumValues, f.Required)
	if err != nil {
		return fmt.Errorf("create field definition: %w", err)
	}
	return nil
}

func (r *FieldDefRepo) Get(ctx context.Context, fieldID string) (models.FieldDefinition, error) {
	var f models.FieldDefinition
	err := r.db.Pool.QueryRow(ctx, `
SELECT field_id::text, project_id::text, name, type, COALESCE(hint,''), COALESCE(enum_values,'{}'), required, created_at
FROM field_definitions
WHERE field_id=$1`, fieldID).
		Scan(&f.FieldID, &f.ProjectID, &f.Name, &f.Type, &f.Hint, &f.EnumValues, &f.Required, &f.CreatedAt)
	if err != nil {
		return models.FieldDefinition{}, fmt.Errorf("get field definition: %w", err)
	}
	return f, nil
}

func (r *FieldDefRepo) ListByProject(ctx context.Context, projectID string) ([]models.FieldDefinition, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT field_id::text, project_id::text, name, type, COALESCE(hint,''), COALESCE(enum_values,'{}'), required, created_at
FROM field_definitions
WHERE project_id=$1
ORDER BY name ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}
	defer rows.Close()

	out := make([]models.FieldDefinition, 0)
	for rows.Next() {
		var f models.FieldDefinition
		if err := rows.Scan(&f.FieldID, &f.ProjectID, &f.Name, &f.Type, &f.Hint, &f.EnumValues, &f.Required, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan field definition: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field definitions: %w", err)
	}
	return out, nil
}
