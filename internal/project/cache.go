package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
)

// Cache reads and writes project state in the session's local store:
// the current project id and one serialized document-set snapshot per
// project id. For guests this is the only durable storage; for
// authenticated users it is the offline-resilience mirror.
type Cache struct {
	store localstore.Store
}

func NewCache(store localstore.Store) *Cache {
	return &Cache{store: store}
}

// ProjectID returns the locally stored current project id, or "" when
// none is set.
func (c *Cache) ProjectID(ctx context.Context) (string, error) {
	id, err := c.store.Get(ctx, localstore.KeyProjectID)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetProjectID records id as the current project.
func (c *Cache) SetProjectID(ctx context.Context, id string) error {
	return c.store.Set(ctx, localstore.KeyProjectID, id)
}

// ClearMalformed drops a stored project id that fails the UUID check,
// along with its orphaned snapshot. Corrupt ids are discarded, never
// repaired.
func (c *Cache) ClearMalformed(ctx context.Context) {
	id, err := c.ProjectID(ctx)
	if err != nil || id == "" || IsValidUUID(id) {
		return
	}

	log.Printf("[warn] operation=clear_malformed message=discarding corrupt project id id=%q", id)
	if err := c.store.Delete(ctx, localstore.KeyProjectID, localstore.ProjectDataKey(id)); err != nil {
		log.Printf("[warn] operation=clear_malformed error=%v", err)
	}
}

// Snapshot loads the cached document set for a project. The second
// return is false when no snapshot exists.
func (c *Cache) Snapshot(ctx context.Context, projectID string) (DocumentSet, bool, error) {
	raw, err := c.store.Get(ctx, localstore.ProjectDataKey(projectID))
	if errors.Is(err, localstore.ErrNotFound) {
		return DocumentSet{}, false, nil
	}
	if err != nil {
		return DocumentSet{}, false, err
	}

	var d DocumentSet
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		// A snapshot that no longer decodes is as good as absent.
		log.Printf("[warn] operation=snapshot message=undecodable snapshot project_id=%s error=%v", projectID, err)
		return DocumentSet{}, false, nil
	}
	return d, true, nil
}

// WriteSnapshot persists the full document set keyed by project id.
// This is the durability guarantee; its error must reach the caller.
func (c *Cache) WriteSnapshot(ctx context.Context, projectID string, d DocumentSet) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.store.Set(ctx, localstore.ProjectDataKey(projectID), string(raw))
}
