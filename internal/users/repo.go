package users

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

type UpsertUser struct {
	AuthUID string
	Email   string
}

// EnsureUser upserts the user row for an authenticated principal and
// returns its id. Called on the first authenticated request of a
// session so project ownership always references an existing user.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.AuthUID == "" {
		return "", fmt.Errorf("auth_uid required")
	}

	const q = `
insert into users (auth_uid, email, updated_at)
values ($1, nullif($2,''), now())
on conflict (auth_uid) do update
set
  email = coalesce(excluded.email, users.email),
  updated_at = now()
returning auth_uid;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.AuthUID, u.Email).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
