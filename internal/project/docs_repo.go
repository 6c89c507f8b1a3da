package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DocsRepo handles the per-step document records. It mirrors the two
// RPC-style operations the wizard needs: one aggregate read for all
// five slots, and an upsert keyed on (project id, step).
type DocsRepo struct {
	db *sql.DB
}

func NewDocsRepo(db *sql.DB) *DocsRepo {
	return &DocsRepo{db: db}
}

// FetchProjectState loads every step document for the project in a
// single round trip. Steps without a document are absent from the map.
func (r *DocsRepo) FetchProjectState(ctx context.Context, projectID string) (map[string]json.RawMessage, error) {
	const q = `
		SELECT step, content
		FROM documents
		WHERE project_id = $1
	`

	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project state: %w", err)
	}
	defer rows.Close()

	docs := make(map[string]json.RawMessage, len(Steps))
	for rows.Next() {
		var step string
		var content []byte
		if err := rows.Scan(&step, &content); err != nil {
			return nil, fmt.Errorf("fetch project state: %w", err)
		}
		docs[step] = json.RawMessage(content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch project state: %w", err)
	}
	return docs, nil
}

// SaveDoc upserts one step's content and returns the document id.
func (r *DocsRepo) SaveDoc(ctx context.Context, projectID string, step string, content []byte) (string, error) {
	const q = `
		INSERT INTO documents (id, project_id, step, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, step) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = NOW()
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, q, uuid.New().String(), projectID, step, content).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save doc: %w", err)
	}
	return id, nil
}
