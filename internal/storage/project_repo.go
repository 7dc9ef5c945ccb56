package storage

import (
	"context"
	"fmt"

	"tabrev/internal/models"
)

type ProjectRepo struct {
	db *DB
}

func NewProjectRepo(db *DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p models.Project) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO projects (project_id, name, description)
VALUES ($1, $2, NULLIF($3,''))`,
		p.ProjectID, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, projectID string) (models.Project, error) {
	var p models.Project
	err := r.db.Pool.QueryRow(ctx, `
SELECT project_id::text, name, COALESCE(description,''), created_at, updated_at
FROM projects
WHERE project_id=$1`, projectID).
		Scan(&p.ProjectID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT project_id::text, name, COALESCE(description,''), created_at, updated_at
FROM projects
ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}
