// File: internal/resultcache/file.go
package resultcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/json-iterator/go"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// FileStore persists results as a single JSON document on disk. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated cache behind.
type FileStore struct {
	path string
	mu   sync.Mutex
	// entries is the in-memory working copy, loaded lazily on first use.
	entries map[string]schemas.CacheEntry
	loaded  bool
	log     *zap.Logger
}

var _ schemas.ResultStore = (*FileStore)(nil)

// DefaultCachePath resolves the standard cache file location under the
// user's home directory.
func DefaultCachePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".triage", "cache.json"), nil
}

// NewFileStore creates a store backed by the JSON document at path. An
// empty path selects DefaultCachePath.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		var err error
		if path, err = DefaultCachePath(); err != nil {
			return nil, err
		}
	}
	return &FileStore{
		path: path,
		log:  logger.Named("FileStore"),
	}, nil
}

// fileKey is the document key for one entry, e.g. "42:scope".
func fileKey(issueNumber int, kind schemas.OperationKind) string {
	return fmt.Sprintf("%d:%s", issueNumber, kind)
}

// load reads the document from disk once. A missing file is an empty
// cache, not an error. Caller holds s.mu.
func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.entries = make(map[string]schemas.CacheEntry)
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		// A corrupt cache file is not worth failing an orchestration
		// over; start fresh and let the next Put overwrite it.
		s.log.Warn("Cache file is corrupt, starting with an empty cache",
			zap.String("path", s.path), zap.Error(err))
		s.entries = make(map[string]schemas.CacheEntry)
	}
	return nil
}

// save writes the full document atomically. Caller holds s.mu.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, issueNumber int, kind schemas.OperationKind) (schemas.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return schemas.CacheEntry{}, false, err
	}
	entry, ok := s.entries[fileKey(issueNumber, kind)]
	return entry, ok, nil
}

func (s *FileStore) Put(ctx context.Context, entry schemas.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.entries[fileKey(entry.IssueNumber, entry.Kind)] = entry
	return s.save()
}

func (s *FileStore) Delete(ctx context.Context, issueNumber int, kind schemas.OperationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	k := fileKey(issueNumber, kind)
	if _, ok := s.entries[k]; !ok {
		return nil
	}
	delete(s.entries, k)
	return s.save()
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]schemas.CacheEntry)
	s.loaded = true
	return s.save()
}
