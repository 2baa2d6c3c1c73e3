package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/swiftvisa/visarag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Store is a SQLite-backed build history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.visarag/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".visarag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
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

// BuildStore returns a BuildStore interface backed by this store.
func (s *Store) BuildStore() driven.BuildStore {
	return &buildStore{store: s}
}

// migrate runs all pending migrations, each in its own transaction.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_builds.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Build Store ====================

// buildStore implements driven.BuildStore.
type buildStore struct {
	store *Store
}

var _ driven.BuildStore = (*buildStore)(nil)

// Save records a build and its skipped documents. Saving an existing id
// replaces the record.
func (s *buildStore) Save(ctx context.Context, record domain.BuildRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: build record has no id", domain.ErrInvalidInput)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, strategy, exact, dimension, chunks, documents, model, created_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			strategy = excluded.strategy,
			exact = excluded.exact,
			dimension = excluded.dimension,
			chunks = excluded.chunks,
			documents = excluded.documents,
			model = excluded.model,
			created_at = excluded.created_at,
			duration_ms = excluded.duration_ms
	`, record.ID, string(record.Strategy), record.Exact, record.Dimension, record.Chunks,
		record.Documents, record.Model, record.CreatedAt.UTC(), record.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("saving build: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM skipped_documents WHERE build_id = ?", record.ID); err != nil {
		return fmt.Errorf("clearing skipped documents: %w", err)
	}
	for i, skipped := range record.Skipped {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skipped_documents (build_id, position, source, reason) VALUES (?, ?, ?, ?)
		`, record.ID, i, skipped.Source, skipped.Reason)
		if err != nil {
			return fmt.Errorf("saving skipped document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing build: %w", err)
	}
	return nil
}

// Get retrieves a build by id.
func (s *buildStore) Get(ctx context.Context, id string) (*domain.BuildRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, strategy, exact, dimension, chunks, documents, model, created_at, duration_ms
		FROM builds WHERE id = ?
	`, id)

	record, err := scanBuild(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := s.loadSkipped(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// List returns the most recent builds, newest first. A non-positive limit
// returns all builds.
func (s *buildStore) List(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, strategy, exact, dimension, chunks, documents, model, created_at, duration_ms
		FROM builds ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var records []domain.BuildRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating builds: %w", err)
	}

	for i := range records {
		if err := s.loadSkipped(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *buildStore) loadSkipped(ctx context.Context, record *domain.BuildRecord) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source, reason FROM skipped_documents WHERE build_id = ? ORDER BY position
	`, record.ID)
	if err != nil {
		return fmt.Errorf("querying skipped documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skipped domain.SkippedDocument
		if err := rows.Scan(&skipped.Source, &skipped.Reason); err != nil {
			return fmt.Errorf("scanning skipped document: %w", err)
		}
		record.Skipped = append(record.Skipped, skipped)
	}
	return rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*domain.BuildRecord, error) {
	var record domain.BuildRecord
	var strategy string
	var createdAt sql.NullTime
	var durationMS int64
	if err := row.Scan(&record.ID, &strategy, &record.Exact, &record.Dimension, &record.Chunks,
		&record.Documents, &record.Model, &createdAt, &durationMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning build: %w", err)
	}

	record.Strategy = domain.IndexStrategy(strategy)
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}
	record.Duration = time.Duration(durationMS) * time.Millisecond
	return &record, nil
}
