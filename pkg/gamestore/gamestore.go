// Package gamestore persists session snapshots keyed by session UUID.
package gamestore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/generativefiction/fortuna-engine/pkg/world"
)

// Store is the session persistence contract.
type Store interface {
	// Load returns the snapshot for a session, or (nil, nil) when the
	// session has no saved state.
	Load(ctx context.Context, id uuid.UUID) (*world.Snapshot, error)

	// Upsert writes the session's snapshot, replacing any prior one.
	Upsert(ctx context.Context, id uuid.UUID, snap *world.Snapshot) error

	// Delete removes the session's snapshot. Deleting an absent
	// session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
	Close() error
}

// Mock is an in-memory Store for tests.
type Mock struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]*world.Snapshot

	LoadCalls   int
	UpsertCalls int
}

var _ Store = (*Mock)(nil)

// NewMock returns an empty in-memory store.
func NewMock() *Mock {
	return &Mock{snaps: make(map[uuid.UUID]*world.Snapshot)}
}

func (m *Mock) Load(ctx context.Context, id uuid.UUID) (*world.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	snap, ok := m.snaps[id]
	if !ok {
		return nil, nil
	}
	return snap, nil
}

func (m *Mock) Upsert(ctx context.Context, id uuid.UUID, snap *world.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	m.snaps[id] = snap
	return nil
}

func (m *Mock) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}

func (m *Mock) Ping(ctx context.Context) error { return nil }
func (m *Mock) Close() error                   { return nil }
