package dialogue

import (
	"context"
	"errors"
	"sync"
)

// ErrNoAnswer is returned by Put when the record carries no answer.
var ErrNoAnswer = errors.New("dialogue: record has no answer")

// Cache is the dialogue cache contract. Backends may be local (SQLite,
// in-memory) or shared (Redis, remote HTTP); callers are agnostic.
//
// The at-most-one-computation guarantee is advisory: two sessions may
// race on the same fingerprint and both compute. Writes are idempotent
// last-write-wins on an immutable key, so a race wastes one model call
// and nothing else.
type Cache interface {
	// Get returns the cached answer for the record's fingerprint.
	// The second return is false on a miss. A backend failure is an
	// error, never a silent miss.
	Get(ctx context.Context, d *Dialogue) (string, bool, error)

	// Put stores the record's answer under its fingerprint.
	// d.Answer must be non-nil.
	Put(ctx context.Context, d *Dialogue) error
}

// MemoryCache is an in-process Cache, used in tests and as a fallback
// when no backend is configured.
type MemoryCache struct {
	mu      sync.Mutex
	answers map[string]string

	// Call counters for tests.
	GetCalls int
	PutCalls int
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{answers: make(map[string]string)}
}

func (c *MemoryCache) Get(ctx context.Context, d *Dialogue) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	answer, ok := c.answers[d.Fingerprint()]
	return answer, ok, nil
}

func (c *MemoryCache) Put(ctx context.Context, d *Dialogue) error {
	if d.Answer == nil {
		return ErrNoAnswer
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PutCalls++
	c.answers[d.Fingerprint()] = *d.Answer
	return nil
}

// Len reports the number of cached answers.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.answers)
}
