// Package snapshot captures and diffs filesystem state so the indexer only
// re-processes files that changed since the last successful sync.
//
// A snapshot records size, modification time, and (optionally) a SHA-256
// content digest for every recognized source file under a root. Snapshots
// are persisted in a small SQLite store keyed by canonical root path and are
// rotated only when an indexing run completes, so files that failed mid-run
// still diff as changed on the next sync.
package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// skipDirs are never descended into during a walk. Any directory whose name
// begins with "." is also skipped.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// binaryProbeSize is how many leading bytes are inspected for NUL when
// deciding whether a file is binary.
const binaryProbeSize = 8192

// Manager produces snapshots and change sets for codebase roots.
type Manager struct {
	store       *Store
	hashContent bool
}

// NewManager creates a snapshot manager. When hashContent is true each
// file's SHA-256 digest is recorded, making diffs precise at the cost of
// reading every file; otherwise size and mtime decide.
func NewManager(store *Store, hashContent bool) *Manager {
	return &Manager{store: store, hashContent: hashContent}
}

// Snapshot walks root and captures the current state of every recognized
// source file. Unreadable entries are retried once, then skipped with a log
// entry. Symlinked directories are followed at most once each.
func (m *Manager) Snapshot(ctx context.Context, root string) (*types.CodebaseSnapshot, error) {
	snap := &types.CodebaseSnapshot{
		RootPath:   root,
		CapturedAt: time.Now(),
		Files:      make(map[string]types.FileSnapshot),
	}

	visited := make(map[string]bool) // resolved dir paths, guards symlink cycles

	err := m.walk(ctx, root, root, visited, snap)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (m *Manager) walk(ctx context.Context, root, dir string, visited map[string]bool, snap *types.CodebaseSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if visited[resolved] {
		return nil
	}
	visited[resolved] = true

	entries, err := readDirRetry(dir)
	if err != nil {
		if dir == root {
			return types.WrapError(types.KindIO, err, "scan %s", root)
		}
		log.Printf("[SNAPSHOT] skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() || isSymlinkDir(entry, path) {
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				continue
			}
			if err := m.walk(ctx, root, path, visited, snap); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(name, ".") || !types.IsSupportedSourceFile(name) {
			continue
		}

		fileSnap, err := m.snapshotFile(root, path)
		if err != nil {
			log.Printf("[SNAPSHOT] skipping %s: %v", path, err)
			continue
		}
		snap.Files[fileSnap.Path] = fileSnap
	}

	return nil
}

func (m *Manager) snapshotFile(root, path string) (types.FileSnapshot, error) {
	info, err := statRetry(path)
	if err != nil {
		return types.FileSnapshot{}, err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return types.FileSnapshot{}, err
	}
	rel = filepath.ToSlash(rel)

	fileSnap := types.FileSnapshot{
		Path:    rel,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if m.hashContent {
		digest, err := hashFile(path)
		if err != nil {
			return types.FileSnapshot{}, err
		}
		fileSnap.ContentHash = digest
	}

	return fileSnap, nil
}

// ChangedFiles diffs the last committed snapshot against the current state
// of root. A first-ever scan reports every file as added.
func (m *Manager) ChangedFiles(ctx context.Context, rootKey, root string) (types.SnapshotChanges, *types.CodebaseSnapshot, error) {
	current, err := m.Snapshot(ctx, root)
	if err != nil {
		return types.SnapshotChanges{}, nil, err
	}

	previous, err := m.store.Load(ctx, rootKey)
	if err != nil && err != ErrSnapshotNotFound {
		// A broken persisted snapshot is non-fatal: rescan produces a
		// superset of the real change set.
		log.Printf("[SNAPSHOT] load failed for %s, treating as first scan: %v", rootKey, err)
		previous = nil
	}

	return types.DiffSnapshots(previous, current), current, nil
}

// Commit rotates the persisted snapshot for a root. Called only after an
// indexing run completes so failed files keep diffing as changed.
func (m *Manager) Commit(ctx context.Context, rootKey string, snap *types.CodebaseSnapshot) error {
	if err := m.store.Save(ctx, rootKey, snap); err != nil {
		// Non-fatal per contract: the next sync rescans.
		log.Printf("[SNAPSHOT] commit failed for %s: %v", rootKey, err)
		return nil
	}
	return nil
}

// Forget drops the persisted snapshot for a root.
func (m *Manager) Forget(ctx context.Context, rootKey string) error {
	return m.store.Delete(ctx, rootKey)
}

// ReadSourceFile reads a file for indexing, rejecting binaries at the I/O
// boundary before content reaches the chunker.
func ReadSourceFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.KindIO, err, "read %s", path)
	}
	probe := content
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return nil, types.NewError(types.KindInvalidArgument, "binary file %s", path)
	}
	return content, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashContent digests in-memory content, matching hashFile's encoding.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// readDirRetry reads a directory, retrying once on failure per the scan
// contract.
func readDirRetry(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err == nil {
		return entries, nil
	}
	return os.ReadDir(dir)
}

func statRetry(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info, nil
	}
	return os.Stat(path)
}

func isSymlinkDir(entry os.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path) // follows the link
	return err == nil && info.IsDir()
}

// CanonicalKey converts a codebase root into the canonical absolute path
// string used to key coordinator and snapshot state.
func CanonicalKey(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
