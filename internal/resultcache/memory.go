// File: internal/resultcache/memory.go
package resultcache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// key addresses one cached result: at most one entry exists per
// (issue number, operation kind) pair.
type key struct {
	issue int
	kind  schemas.OperationKind
}

// MemoryStore is a fast, ephemeral in-memory result store. It backs tests
// and demo mode, and anything where persistence across runs isn't needed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[key]schemas.CacheEntry
	log     *zap.Logger
}

// Ensures MemoryStore implements the ResultStore interface at compile time.
var _ schemas.ResultStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new, empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entries: make(map[key]schemas.CacheEntry),
		log:     logger.Named("MemoryStore"),
	}
}

// Get returns the entry for the key, or ok=false when absent.
func (s *MemoryStore) Get(ctx context.Context, issueNumber int, kind schemas.OperationKind) (schemas.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key{issueNumber, kind}]
	return entry, ok, nil
}

// Put stores the entry, replacing any prior entry for the same key.
// Concurrent writers race benignly; last writer wins.
func (s *MemoryStore) Put(ctx context.Context, entry schemas.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key{entry.IssueNumber, entry.Kind}] = entry
	s.log.Debug("Result cached",
		zap.Int("issue", entry.IssueNumber),
		zap.String("kind", string(entry.Kind)),
		zap.Bool("placeholder", entry.Placeholder))
	return nil
}

// Delete removes the entry for the key, if present.
func (s *MemoryStore) Delete(ctx context.Context, issueNumber int, kind schemas.OperationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key{issueNumber, kind})
	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[key]schemas.CacheEntry)
	return nil
}
