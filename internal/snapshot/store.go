package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// recordVersion tags the persisted encoding so future minor versions can
// read old rows.
const recordVersion = 1

// ErrSnapshotNotFound is returned when no snapshot exists for a root.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists codebase snapshots keyed by canonical root path. SQLite
// gives us atomic replacement of a root's snapshot without a file-rename
// dance.
type Store struct {
	db *sql.DB
}

// record is the versioned on-disk payload.
type record struct {
	Version  int                     `json:"version"`
	Captured time.Time               `json:"captured_at"`
	Files    map[string]types.FileSnapshot `json:"files"`
}

// NewStore opens (creating if needed) the snapshot database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		root_key    TEXT PRIMARY KEY,
		version     INTEGER NOT NULL,
		captured_at TIMESTAMP NOT NULL,
		payload     BLOB NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewMemoryStore opens an in-memory store, used by tests and the local
// profile.
func NewMemoryStore() (*Store, error) {
	return NewStore(":memory:")
}

// Load returns the last committed snapshot for a root key, or
// ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, rootKey string) (*types.CodebaseSnapshot, error) {
	var payload []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE root_key = ?`, rootKey)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode snapshot record: %w", err)
	}

	return &types.CodebaseSnapshot{
		RootPath:   rootKey,
		CapturedAt: rec.Captured,
		Files:      rec.Files,
	}, nil
}

// Save replaces the snapshot for a root key atomically.
func (s *Store) Save(ctx context.Context, rootKey string, snap *types.CodebaseSnapshot) error {
	payload, err := json.Marshal(record{
		Version:  recordVersion,
		Captured: snap.CapturedAt,
		Files:    snap.Files,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (root_key, version, captured_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(root_key) DO UPDATE SET
			version = excluded.version,
			captured_at = excluded.captured_at,
			payload = excluded.payload`,
		rootKey, recordVersion, snap.CapturedAt, payload)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a root key. Deleting a missing key is not
// an error.
func (s *Store) Delete(ctx context.Context, rootKey string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE root_key = ?`, rootKey); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Keys lists every root key with a committed snapshot.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT root_key FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
