package project

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
)

type fakeProjectStore struct {
	latest      *Project
	failAll     bool
	insertCalls int
	lookupCalls int
	inserted    map[string]string // id -> owner
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{inserted: make(map[string]string)}
}

var errRemoteDown = errors.New("remote store unavailable")

func (f *fakeProjectStore) LatestByOwner(_ context.Context, ownerID string) (*Project, error) {
	f.lookupCalls++
	if f.failAll {
		return nil, errRemoteDown
	}
	if f.latest == nil {
		return nil, ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeProjectStore) Insert(_ context.Context, id, ownerID, name string) (*Project, error) {
	f.insertCalls++
	if f.failAll {
		return nil, errRemoteDown
	}
	f.inserted[id] = ownerID
	return &Project{ID: id, OwnerID: ownerID, Name: name}, nil
}

func (f *fakeProjectStore) Exists(_ context.Context, id, ownerID string) (bool, error) {
	if f.failAll {
		return false, errRemoteDown
	}
	if f.latest != nil && f.latest.ID == id {
		return true, nil
	}
	_, ok := f.inserted[id]
	return ok, nil
}

type fakeDocStore struct {
	failAll    bool
	docs       map[string]json.RawMessage
	saved      map[string]string // step -> content
	fetchCalls int
	saveCalls  int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{saved: make(map[string]string)}
}

func (f *fakeDocStore) FetchProjectState(_ context.Context, projectID string) (map[string]json.RawMessage, error) {
	f.fetchCalls++
	if f.failAll {
		return nil, errRemoteDown
	}
	return f.docs, nil
}

func (f *fakeDocStore) SaveDoc(_ context.Context, projectID string, step string, content []byte) (string, error) {
	f.saveCalls++
	if f.failAll {
		return "", errRemoteDown
	}
	f.saved[step] = string(content)
	return "doc-" + step, nil
}

func guest() *identity.Principal {
	return &identity.Principal{ID: identity.GuestUserID, IsGuest: true}
}

func authed() *identity.Principal {
	return &identity.Principal{ID: "u1", Email: "u1@example.com"}
}

func TestLoadOrCreate_Guest(t *testing.T) {
	ctx := context.Background()

	t.Run("mints an id and never touches the remote store", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		s := NewSynchronizer(guest(), NewCache(store), projects, docs)
		res, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.False(t, res.RemoteSynced)
		assert.True(t, IsValidUUID(s.ProjectID()))
		assert.Equal(t, StateReady, s.State())

		assert.Zero(t, projects.lookupCalls)
		assert.Zero(t, projects.insertCalls)
		assert.Zero(t, docs.fetchCalls)
	})

	t.Run("discards a corrupt stored id and keys writes to the new one", func(t *testing.T) {
		store := localstore.NewMemory()
		require.NoError(t, store.Set(ctx, localstore.KeyProjectID, "abc123"))

		s := NewSynchronizer(guest(), NewCache(store), nil, nil)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)

		newID := s.ProjectID()
		assert.True(t, IsValidUUID(newID))
		assert.NotEqual(t, "abc123", newID)

		_, err = s.UpdateStep(ctx, StepRequirements, Text("hello"))
		require.NoError(t, err)

		raw, err := store.Get(ctx, localstore.ProjectDataKey(newID))
		require.NoError(t, err)
		assert.Contains(t, raw, "hello")

		_, err = store.Get(ctx, localstore.ProjectDataKey("abc123"))
		assert.ErrorIs(t, err, localstore.ErrNotFound)
	})

	t.Run("reuses an existing valid local snapshot", func(t *testing.T) {
		store := localstore.NewMemory()
		id := MintProjectID()
		require.NoError(t, store.Set(ctx, localstore.KeyProjectID, id))
		snap, _ := json.Marshal(DocumentSet{Requirements: "cached reqs"})
		require.NoError(t, store.Set(ctx, localstore.ProjectDataKey(id), string(snap)))

		s := NewSynchronizer(guest(), NewCache(store), nil, nil)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, s.ProjectID())
		assert.Equal(t, "cached reqs", s.Data().Requirements)
	})
}

func TestLoadOrCreate_Authenticated(t *testing.T) {
	ctx := context.Background()

	t.Run("empty remote store creates a project once", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		res, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.True(t, res.RemoteSynced)
		assert.Equal(t, StateReady, s.State())

		assert.Equal(t, 1, projects.insertCalls)
		assert.True(t, IsValidUUID(s.ProjectID()))
		assert.Equal(t, "u1", projects.inserted[s.ProjectID()])
		assert.Equal(t, DocumentSet{}, s.Data())
	})

	t.Run("returning user loads the existing project without an insert", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		existing := MintProjectID()
		projects.latest = &Project{ID: existing, OwnerID: "u1", Name: "My CRM"}
		docs := newFakeDocStore()
		docs.docs = map[string]json.RawMessage{
			"requirements": json.RawMessage(`"Build a CRM"`),
		}

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		res, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, res.RemoteSynced)
		assert.Equal(t, existing, s.ProjectID())
		assert.Zero(t, projects.insertCalls)
		assert.Equal(t, "Build a CRM", s.Data().Requirements)
		assert.Empty(t, s.Data().PRD)

		// Local cache now mirrors the remote snapshot.
		raw, err := store.Get(ctx, localstore.ProjectDataKey(existing))
		require.NoError(t, err)
		assert.Contains(t, raw, "Build a CRM")
	})

	t.Run("is idempotent for an existing valid remote project", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		existing := MintProjectID()
		projects.latest = &Project{ID: existing, OwnerID: "u1"}
		docs := newFakeDocStore()

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		first := s.ProjectID()

		_, err = s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, s.ProjectID())
		assert.Zero(t, projects.insertCalls)
	})

	t.Run("corrupt remote id is discarded and a fresh project created", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		projects.latest = &Project{ID: "not-a-uuid", OwnerID: "u1"}
		docs := newFakeDocStore()

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, IsValidUUID(s.ProjectID()))
		assert.NotEqual(t, "not-a-uuid", s.ProjectID())
		assert.Equal(t, 1, projects.insertCalls)
		assert.Zero(t, docs.fetchCalls, "corrupt ids never reach the document store")
	})

	t.Run("remote lookup failure falls back to local-only", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		projects.failAll = true
		docs := newFakeDocStore()
		docs.failAll = true

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		res, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.False(t, res.RemoteSynced)
		assert.Equal(t, StateReady, s.State())
		assert.True(t, IsValidUUID(s.ProjectID()))
	})
}

func TestUpdateStep(t *testing.T) {
	ctx := context.Background()

	t.Run("last write wins per slot", func(t *testing.T) {
		store := localstore.NewMemory()
		s := NewSynchronizer(guest(), NewCache(store), nil, nil)

		_, err := s.UpdateStep(ctx, StepRequirements, Text("A"))
		require.NoError(t, err)
		_, err = s.UpdateStep(ctx, StepRequirements, Text("B"))
		require.NoError(t, err)

		assert.Equal(t, "B", s.Data().Requirements)

		raw, err := store.Get(ctx, localstore.ProjectDataKey(s.ProjectID()))
		require.NoError(t, err)
		var snap DocumentSet
		require.NoError(t, json.Unmarshal([]byte(raw), &snap))
		assert.Equal(t, "B", snap.Requirements)
	})

	t.Run("local cache holds the value even when every remote call fails", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)

		projects.failAll = true
		docs.failAll = true

		res, err := s.UpdateStep(ctx, StepPRD, Text("some text"))
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.False(t, res.RemoteSynced)

		raw, err := store.Get(ctx, localstore.ProjectDataKey(s.ProjectID()))
		require.NoError(t, err)
		assert.Contains(t, raw, "some text")
	})

	t.Run("syncs the changed slot remotely for durable principals", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)

		res, err := s.UpdateStep(ctx, StepResearch, Text("findings"))
		require.NoError(t, err)
		assert.True(t, res.RemoteSynced)
		assert.Equal(t, `"findings"`, docs.saved["research"])
	})

	t.Run("recreates a missing remote record before the upsert", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		// Insert fails during creation, succeeds later.
		projects.failAll = true
		s := NewSynchronizer(authed(), NewCache(store), projects, docs)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)

		projects.failAll = false
		docs.failAll = false

		res, err := s.UpdateStep(ctx, StepEpics, Text("plan"))
		require.NoError(t, err)
		assert.True(t, res.RemoteSynced)
		assert.Contains(t, projects.inserted, s.ProjectID())
	})

	t.Run("guest updates never call the remote store", func(t *testing.T) {
		store := localstore.NewMemory()
		projects := newFakeProjectStore()
		docs := newFakeDocStore()

		s := NewSynchronizer(guest(), NewCache(store), projects, docs)
		_, err := s.UpdateStep(ctx, StepRequirements, Text("guest text"))
		require.NoError(t, err)

		assert.Zero(t, projects.insertCalls)
		assert.Zero(t, projects.lookupCalls)
		assert.Zero(t, docs.saveCalls)
	})

	t.Run("rejects unknown steps", func(t *testing.T) {
		s := NewSynchronizer(guest(), NewCache(localstore.NewMemory()), nil, nil)
		_, err := s.UpdateStep(ctx, Step("notes"), Text("x"))
		assert.ErrorIs(t, err, ErrInvalidStep)
	})

	t.Run("local store failure surfaces", func(t *testing.T) {
		store := localstore.NewMemory()
		s := NewSynchronizer(guest(), NewCache(store), nil, nil)
		_, err := s.LoadOrCreate(ctx)
		require.NoError(t, err)

		store.FailWrites = errors.New("quota exceeded")
		_, err = s.UpdateStep(ctx, StepPRD, Text("lost?"))
		assert.ErrorContains(t, err, "quota exceeded")
	})
}

func TestCreateNewProject_SupersedesCurrent(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	projects := newFakeProjectStore()
	docs := newFakeDocStore()

	s := NewSynchronizer(authed(), NewCache(store), projects, docs)
	_, err := s.LoadOrCreate(ctx)
	require.NoError(t, err)
	first := s.ProjectID()

	_, err = s.UpdateStep(ctx, StepRequirements, Text("old work"))
	require.NoError(t, err)

	_, err = s.CreateNewProject(ctx)
	require.NoError(t, err)
	second := s.ProjectID()

	assert.NotEqual(t, first, second)
	assert.Equal(t, DocumentSet{}, s.Data())
	assert.Equal(t, StateReady, s.State())

	// The old snapshot is abandoned, not deleted.
	raw, err := store.Get(ctx, localstore.ProjectDataKey(first))
	require.NoError(t, err)
	assert.Contains(t, raw, "old work")
}
