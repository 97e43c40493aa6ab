// File: internal/resultcache/postgres.go
package resultcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// PgxConn is the slice of the pgx pool API the store needs. Both
// pgxpool.Pool and a pgxmock pool satisfy it, which keeps the store
// testable without a live database.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the persistent result store for shared deployments
// where multiple operators triage the same repository.
type PostgresStore struct {
	db PgxConn
}

var _ schemas.ResultStore = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db PgxConn) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the results table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS triage_results (
			issue_number INTEGER NOT NULL,
			kind TEXT NOT NULL,
			placeholder BOOLEAN NOT NULL DEFAULT FALSE,
			entry JSONB NOT NULL,
			cached_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (issue_number, kind)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure triage_results schema: %w", err)
	}
	return nil
}

// Put upserts the entry; ON CONFLICT guarantees at most one row per
// (issue, kind) key with last writer winning.
func (s *PostgresStore) Put(ctx context.Context, entry schemas.CacheEntry) error {
	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO triage_results (issue_number, kind, placeholder, entry, cached_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (issue_number, kind) DO UPDATE SET
			placeholder = EXCLUDED.placeholder,
			entry = EXCLUDED.entry,
			cached_at = EXCLUDED.cached_at;
	`, entry.IssueNumber, string(entry.Kind), entry.Placeholder, doc, entry.CachedAt)
	return err
}

// Get retrieves the entry for the key.
func (s *PostgresStore) Get(ctx context.Context, issueNumber int, kind schemas.OperationKind) (schemas.CacheEntry, bool, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `
		SELECT entry FROM triage_results WHERE issue_number = $1 AND kind = $2;
	`, issueNumber, string(kind)).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schemas.CacheEntry{}, false, nil
		}
		return schemas.CacheEntry{}, false, err
	}

	var entry schemas.CacheEntry
	if err := json.Unmarshal(doc, &entry); err != nil {
		return schemas.CacheEntry{}, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return entry, true, nil
}

// Delete removes the entry for the key, if present.
func (s *PostgresStore) Delete(ctx context.Context, issueNumber int, kind schemas.OperationKind) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM triage_results WHERE issue_number = $1 AND kind = $2;
	`, issueNumber, string(kind))
	return err
}

// Clear removes every entry.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM triage_results;`)
	return err
}
