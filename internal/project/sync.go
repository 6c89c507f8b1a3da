package project

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
)

// State tracks where the synchronizer is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateCreating
	StateReady
)

// ProjectStore is the remote project record store.
type ProjectStore interface {
	LatestByOwner(ctx context.Context, ownerID string) (*Project, error)
	Insert(ctx context.Context, id, ownerID, name string) (*Project, error)
	Exists(ctx context.Context, id, ownerID string) (bool, error)
}

// DocumentStore is the remote per-step document store.
type DocumentStore interface {
	FetchProjectState(ctx context.Context, projectID string) (map[string]json.RawMessage, error)
	SaveDoc(ctx context.Context, projectID string, step string, content []byte) (string, error)
}

// Result reports the outcome of a synchronizer operation. OK means the
// local side holds the expected state; RemoteSynced means the remote
// store does too. Remote failures degrade RemoteSynced, never OK.
type Result struct {
	OK           bool `json:"ok"`
	RemoteSynced bool `json:"remote_synced"`
}

// Synchronizer keeps exactly one current project and its document set
// consistent between the session-local cache and the remote store.
// Local writes are immediate and authoritative; remote writes are
// best-effort and never fail the operation. The only error any method
// returns is a local-store failure.
type Synchronizer struct {
	principal *identity.Principal
	cache     *Cache
	projects  ProjectStore
	docs      DocumentStore

	state     State
	projectID string
	data      DocumentSet
}

// NewSynchronizer wires a synchronizer for one resolved principal.
// The remote stores may be nil when the server runs without a database;
// that degrades every principal to local-only semantics.
func NewSynchronizer(principal *identity.Principal, cache *Cache, projects ProjectStore, docs DocumentStore) *Synchronizer {
	return &Synchronizer{
		principal: principal,
		cache:     cache,
		projects:  projects,
		docs:      docs,
	}
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State { return s.state }

// ProjectID returns the current project id, "" before load.
func (s *Synchronizer) ProjectID() string { return s.projectID }

// Data returns the in-memory document set.
func (s *Synchronizer) Data() DocumentSet { return s.data }

// LoadOrCreate establishes the current project: the most recent remote
// project for a durable principal, the locally cached one for a guest,
// or a freshly minted one when nothing usable exists. Remote failures
// fall back to local-only; only local-store errors surface.
func (s *Synchronizer) LoadOrCreate(ctx context.Context) (Result, error) {
	s.state = StateLoading
	s.cache.ClearMalformed(ctx)

	if !s.remoteCapable() {
		if err := s.loadLocal(ctx); err != nil {
			return Result{}, err
		}
		return Result{OK: true}, nil
	}

	p, err := s.projects.LatestByOwner(ctx, s.principal.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.createNew(ctx)
	case err != nil:
		log.Printf("[warn] operation=load_or_create message=remote lookup failed, using local-only error=%v", err)
		if lerr := s.loadLocal(ctx); lerr != nil {
			return Result{}, lerr
		}
		return Result{OK: true}, nil
	}

	if !IsValidUUID(p.ID) {
		// Corrupt remote id: discard, never repair.
		log.Printf("[warn] operation=load_or_create message=remote project id malformed id=%q", p.ID)
		return s.createNew(ctx)
	}

	s.projectID = p.ID
	if err := s.cache.SetProjectID(ctx, p.ID); err != nil {
		return Result{}, err
	}

	docs, err := s.docs.FetchProjectState(ctx, p.ID)
	if err != nil {
		log.Printf("[warn] operation=load_or_create message=remote fetch failed, using cached snapshot error=%v", err)
		snap, _, lerr := s.cache.Snapshot(ctx, p.ID)
		if lerr != nil {
			return Result{}, lerr
		}
		s.data = snap
		s.state = StateReady
		return Result{OK: true}, nil
	}

	s.data = FromRemote(docs)
	// The cache is a mirror of the remote snapshot from here on.
	if err := s.cache.WriteSnapshot(ctx, p.ID, s.data); err != nil {
		return Result{}, err
	}

	s.state = StateReady
	return Result{OK: true, RemoteSynced: true}, nil
}

// CreateNewProject supersedes the current project with a fresh one.
// The old project is abandoned, not deleted.
func (s *Synchronizer) CreateNewProject(ctx context.Context) (Result, error) {
	return s.createNew(ctx)
}

func (s *Synchronizer) createNew(ctx context.Context) (Result, error) {
	s.state = StateCreating

	id := MintProjectID()
	remoteSynced := false

	if s.remoteCapable() {
		if _, err := s.projects.Insert(ctx, id, s.principal.ID, DefaultName); err != nil {
			// Non-fatal: the id is still adopted locally and the
			// record is re-created on the next sync attempt.
			log.Printf("[warn] operation=create_new_project message=remote insert failed error=%v", err)
		} else {
			remoteSynced = true
		}
	}

	if err := s.cache.SetProjectID(ctx, id); err != nil {
		return Result{}, err
	}

	s.data = DocumentSet{}
	if err := s.cache.WriteSnapshot(ctx, id, s.data); err != nil {
		return Result{}, err
	}

	s.projectID = id
	s.state = StateReady
	return Result{OK: true, RemoteSynced: remoteSynced}, nil
}

// UpdateStep replaces one slot's value: merge in memory, persist the
// full snapshot locally (unconditional), then best-effort sync the
// changed slot to the remote store. After return the local cache holds
// the new value; the remote store holds it only eventually.
func (s *Synchronizer) UpdateStep(ctx context.Context, step Step, content StepContent) (Result, error) {
	if !step.Valid() {
		return Result{}, ErrInvalidStep
	}

	if s.state != StateReady || s.projectID == "" {
		if _, err := s.LoadOrCreate(ctx); err != nil {
			return Result{}, err
		}
	}

	if err := s.data.Apply(step, content); err != nil {
		return Result{}, err
	}

	// Durability guarantee: never skipped, never silent.
	if err := s.cache.WriteSnapshot(ctx, s.projectID, s.data); err != nil {
		return Result{}, err
	}

	if !s.remoteCapable() {
		return Result{OK: true}, nil
	}

	// Marshal now so the request carries the value as of this call.
	payload, err := content.MarshalRemote(step)
	if err != nil {
		return Result{}, err
	}

	return Result{OK: true, RemoteSynced: s.syncRemote(ctx, step, payload)}, nil
}

// syncRemote ensures the project record exists, then upserts the slot.
// Every failure is caught and logged; nothing rolls back.
func (s *Synchronizer) syncRemote(ctx context.Context, step Step, payload []byte) bool {
	exists, err := s.projects.Exists(ctx, s.projectID, s.principal.ID)
	if err != nil {
		log.Printf("[warn] operation=update_step message=remote existence check failed step=%s error=%v", step, err)
		return false
	}
	if !exists {
		if _, err := s.projects.Insert(ctx, s.projectID, s.principal.ID, DefaultName); err != nil {
			log.Printf("[warn] operation=update_step message=remote insert failed step=%s error=%v", step, err)
			return false
		}
	}

	if _, err := s.docs.SaveDoc(ctx, s.projectID, string(step), payload); err != nil {
		log.Printf("[warn] operation=update_step message=remote upsert failed step=%s error=%v", step, err)
		return false
	}
	return true
}

// loadLocal is the guest-style path: adopt the cached project id when
// valid, mint one otherwise, and load whatever snapshot exists.
func (s *Synchronizer) loadLocal(ctx context.Context) error {
	id, err := s.cache.ProjectID(ctx)
	if err != nil {
		return err
	}

	if id == "" || !IsValidUUID(id) {
		id = MintProjectID()
		if err := s.cache.SetProjectID(ctx, id); err != nil {
			return err
		}
	}

	snap, ok, err := s.cache.Snapshot(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		snap = DocumentSet{}
	}

	s.projectID = id
	s.data = snap
	s.state = StateReady
	return nil
}

// remoteCapable reports whether this session may touch the remote
// store: a durable principal and wired repositories.
func (s *Synchronizer) remoteCapable() bool {
	return s.principal.Durable() && s.projects != nil && s.docs != nil
}
