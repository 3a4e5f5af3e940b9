package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx/codectx-mcp/pkg/types"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, true)
}

func TestSnapshotCapturesSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "pkg/util.rs", "fn util() {}\n")
	writeFile(t, dir, "README.md", "# readme\n")

	m := newTestManager(t)
	snap, err := m.Snapshot(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, snap.Files, 2)
	assert.Contains(t, snap.Files, "main.go")
	assert.Contains(t, snap.Files, "pkg/util.rs")
	assert.NotContains(t, snap.Files, "README.md")

	f := snap.Files["main.go"]
	assert.Equal(t, "main.go", f.Path)
	assert.Equal(t, int64(len("package main\n")), f.Size)
	assert.NotEmpty(t, f.ContentHash)
}

func TestSnapshotSkipRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kept.go", "package kept\n")
	writeFile(t, dir, ".git/objects/blob.go", "package hidden\n")
	writeFile(t, dir, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, dir, "target/debug/build.rs", "fn main() {}\n")
	writeFile(t, dir, ".hidden/inner.go", "package inner\n")
	writeFile(t, dir, ".dotfile.go", "package dot\n")

	m := newTestManager(t)
	snap, err := m.Snapshot(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, snap.Files, 1)
	assert.Contains(t, snap.Files, "kept.go")
}

func TestFirstScanReportsAllAdded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "b.go", "package b\n")

	m := newTestManager(t)
	changes, snap, err := m.ChangedFiles(context.Background(), dir, dir)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.ElementsMatch(t, []string{"a.go", "b.go"}, changes.Added)
	assert.Empty(t, changes.Modified)
	assert.Empty(t, changes.Removed)
}

func TestCommitRotatesSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	m := newTestManager(t)
	ctx := context.Background()

	changes, snap, err := m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	require.Len(t, changes.Added, 1)
	require.NoError(t, m.Commit(ctx, dir, snap))

	// Unchanged tree diffs empty against the committed snapshot.
	changes, _, err = m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	assert.True(t, changes.Empty())

	// New file shows up as added, existing file rewritten as modified.
	writeFile(t, dir, "b.go", "package b\n")
	writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")

	changes, snap, err = m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go"}, changes.Added)
	assert.Equal(t, []string{"a.go"}, changes.Modified)

	require.NoError(t, m.Commit(ctx, dir, snap))
	changes, _, err = m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	assert.True(t, changes.Empty())
}

func TestForgetDropsSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	m := newTestManager(t)
	ctx := context.Background()

	_, snap, err := m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	require.NoError(t, m.Commit(ctx, dir, snap))
	require.NoError(t, m.Forget(ctx, dir))

	changes, _, err := m.ChangedFiles(ctx, dir, dir)
	require.NoError(t, err)
	assert.Len(t, changes.Added, 1, "forgotten root diffs as first scan")
}

func TestReadSourceFileRejectsBinary(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "ok.go", "package ok\n")
	bin := filepath.Join(dir, "blob.go")
	require.NoError(t, os.WriteFile(bin, []byte{'p', 0x00, 'k', 'g'}, 0644))

	content, err := ReadSourceFile(text)
	require.NoError(t, err)
	assert.Equal(t, "package ok\n", string(content))

	_, err = ReadSourceFile(bin)
	require.Error(t, err)
	assert.True(t, types.IsInvalidArgument(err))

	_, err = ReadSourceFile(filepath.Join(dir, "missing.go"))
	require.Error(t, err)
	assert.Equal(t, types.KindIO, types.KindOf(err))
}

func TestSnapshotMissingRoot(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Snapshot(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, types.KindIO, types.KindOf(err))
}

func TestCanonicalKeyStable(t *testing.T) {
	dir := t.TempDir()
	k1, err := CanonicalKey(dir)
	require.NoError(t, err)
	k2, err := CanonicalKey(dir + string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.True(t, filepath.IsAbs(k1))
}
