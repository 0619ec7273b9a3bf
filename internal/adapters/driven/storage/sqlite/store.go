// Package sqlite provides a SQLite-backed artifact store.
// A single table holds one row per (identity, kind); each row carries a
// SHA-256 checksum verified on read. Row replacement is transactional, so
// a reader never observes a half-written payload.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gridwise-labs/regtrack/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Store is a SQLite implementation of driven.ArtifactStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite artifact store at the specified data
// directory. If dataDir is empty, defaults to ~/.regtrack/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".regtrack", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "artifacts.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a payload row is present for the key.
func (s *Store) Exists(ctx context.Context, identity string, kind domain.ArtifactKind) bool {
	if identity == "" || !kind.Valid() {
		return false
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE identity = ? AND kind = ?`,
		identity, string(kind)).Scan(&one)
	return err == nil
}

// Write persists the payload, replacing any prior payload for the key.
func (s *Store) Write(ctx context.Context, identity string, kind domain.ArtifactKind, payload []byte) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", domain.ErrInvalidInput)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}

	sum := sha256.Sum256(payload)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (identity, kind, payload, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity, kind) DO UPDATE SET
			payload = excluded.payload,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
	`, identity, string(kind), payload, hex.EncodeToString(sum[:]), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving %s for %q: %w", kind, identity, err)
	}
	return nil
}

// Read returns the payload for the key, verifying its checksum.
func (s *Store) Read(ctx context.Context, identity string, kind domain.ArtifactKind) ([]byte, error) {
	if identity == "" || !kind.Valid() {
		return nil, fmt.Errorf("%w: bad key %q/%q", domain.ErrInvalidInput, identity, kind)
	}

	var payload []byte
	var checksum string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, checksum FROM artifacts WHERE identity = ? AND kind = ?`,
		identity, string(kind)).Scan(&payload, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s for %q: %w", kind, identity, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s for %q: %w", kind, identity, err)
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != checksum {
		return nil, fmt.Errorf("%s for %q: %w: checksum mismatch", kind, identity, domain.ErrCorrupted)
	}
	return payload, nil
}

// Delete removes the payload. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, identity string, kind domain.ArtifactKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE identity = ? AND kind = ?`,
		identity, string(kind))
	if err != nil {
		return fmt.Errorf("deleting %s for %q: %w", kind, identity, err)
	}
	return nil
}

// ListIdentities returns the identities known to the store, derived from
// the chunks namespace only.
func (s *Store) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity FROM artifacts WHERE kind = ?`, string(domain.KindChunks))
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scanning identity: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	return identities, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
