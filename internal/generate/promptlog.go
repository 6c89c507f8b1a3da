package generate

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PromptLogRepo records every generation request and completion.
type PromptLogRepo struct {
	db *pgxpool.Pool
}

func NewPromptLogRepo(db *pgxpool.Pool) *PromptLogRepo {
	return &PromptLogRepo{db: db}
}

type PromptLogEntry struct {
	ProjectID  string
	Step       string
	Prompt     string
	Completion string
	Model      string
	TokenCost  int
}

// Insert writes one log row. Callers treat failures as best-effort;
// a lost log line never fails a generation.
func (r *PromptLogRepo) Insert(ctx context.Context, e PromptLogEntry) (string, error) {
	const q = `
insert into prompt_log (project_id, step, prompt, completion, model, token_cost)
values ($1, $2, $3, $4, $5, $6)
returning id::text;
`
	var id string
	err := r.db.QueryRow(ctx, q, e.ProjectID, e.Step, e.Prompt, e.Completion, e.Model, e.TokenCost).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
