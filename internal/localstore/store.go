// Package localstore is the server-side analog of the browser's
// localStorage: a string-valued key-value store scoped to one client
// session. Guests have no other durable storage, so a failing write
// here is the one storage error the rest of the system must surface.
package localstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("localstore: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Keys used within a session scope. Names carried over from the web
// client so existing snapshots stay readable.
const (
	KeyGuestMode       = "promptflow_guest_mode"
	KeyGuestExpiry     = "promptflow_guest_expiry"
	KeyHasVisited      = "promptflow-has-visited"
	KeyOnboardingDone  = "promptflow-onboarding-completed"
	KeyProjectID       = "promptflow_project_id"
	projectDataPrefix  = "promptflow_data_"
)

// ProjectDataKey returns the key holding the serialized document-set
// snapshot for a project.
func ProjectDataKey(projectID string) string {
	return projectDataPrefix + projectID
}

// SessionPrefix returns the Redis key prefix for a session scope.
// Shared with the cleanup sweeper, which scans whole scopes.
func SessionPrefix(scope string) string {
	return fmt.Sprintf("pf:sess:%s:", scope)
}
