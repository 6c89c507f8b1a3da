package project

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the remote project store. Only durable principals ever reach
// it; guests stay entirely in the local store.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// LatestByOwner returns the most recently updated project owned by the
// principal, or ErrNotFound.
func (r *Repo) LatestByOwner(ctx context.Context, ownerID string) (*Project, error) {
	const q = `
select id::text, owner_id, name, created_at, updated_at
from projects
where owner_id = $1
order by updated_at desc
limit 1;
`
	var p Project
	err := r.db.QueryRow(ctx, q, ownerID).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert creates a project record with a caller-minted id.
func (r *Repo) Insert(ctx context.Context, id, ownerID, name string) (*Project, error) {
	if name == "" {
		name = DefaultName
	}

	const q = `
insert into projects (id, owner_id, name)
values ($1::uuid, $2, $3)
on conflict (id) do nothing
returning id::text, owner_id, name, created_at, updated_at;
`
	var p Project
	err := r.db.QueryRow(ctx, q, id, ownerID, name).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row already existed; the insert is idempotent for retries
		// from the best-effort sync path.
		return r.Get(ctx, id, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get fetches one project owned by the principal.
func (r *Repo) Get(ctx context.Context, id, ownerID string) (*Project, error) {
	const q = `
select id::text, owner_id, name, created_at, updated_at
from projects
where id = $1::uuid and owner_id = $2;
`
	var p Project
	err := r.db.QueryRow(ctx, q, id, ownerID).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Exists reports whether the project record is present for this owner.
func (r *Repo) Exists(ctx context.Context, id, ownerID string) (bool, error) {
	const q = `select exists(select 1 from projects where id = $1::uuid and owner_id = $2);`

	var exists bool
	if err := r.db.QueryRow(ctx, q, id, ownerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByOwner returns all projects for the principal, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	const q = `
select id::text, owner_id, name, created_at, updated_at
from projects
where owner_id = $1
order by updated_at desc;
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 8)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
