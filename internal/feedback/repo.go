// Package feedback stores user-submitted feedback messages.
package feedback

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Feedback struct {
	Message   string
	UserID    *string // nil for guests
	UserEmail string
	UserAgent string
}

func (r *Repo) Insert(ctx context.Context, f Feedback) (string, error) {
	if f.Message == "" {
		return "", fmt.Errorf("message required")
	}

	const q = `
insert into feedback (message, user_id, user_email, user_agent)
values ($1, $2, nullif($3,''), nullif($4,''))
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, f.Message, f.UserID, f.UserEmail, f.UserAgent).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
