package types

import "time"

// FileSnapshot records the observed state of one file at capture time.
// ContentHash is optional; when empty, diffs fall back to modification time.
type FileSnapshot struct {
	Path        string    `json:"path"` // relative to the codebase root
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// CodebaseSnapshot is a point-in-time capture of every recognized source
// file under a root, keyed by relative path.
type CodebaseSnapshot struct {
	RootPath   string                  `json:"root_path"`
	CapturedAt time.Time               `json:"captured_at"`
	Files      map[string]FileSnapshot `json:"files"`
}

// SnapshotChanges is the diff between two snapshots of the same root.
// Removed paths carry no metadata.
type SnapshotChanges struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Empty reports whether the diff contains no changes.
func (c *SnapshotChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Count returns the total number of changed paths.
func (c *SnapshotChanges) Count() int {
	return len(c.Added) + len(c.Modified) + len(c.Removed)
}

// ChangedFiles returns added ∪ modified, the set the indexer re-processes.
func (c *SnapshotChanges) ChangedFiles() []string {
	files := make([]string, 0, len(c.Added)+len(c.Modified))
	files = append(files, c.Added...)
	files = append(files, c.Modified...)
	return files
}

// DiffSnapshots compares two snapshots. A file is modified when its content
// hash differs; when either side lacks a hash the modification time decides.
// A nil previous snapshot treats every current file as added.
func DiffSnapshots(previous, current *CodebaseSnapshot) SnapshotChanges {
	var changes SnapshotChanges

	if previous == nil {
		for path := range current.Files {
			changes.Added = append(changes.Added, path)
		}
		return changes
	}

	for path, curr := range current.Files {
		prev, ok := previous.Files[path]
		if !ok {
			changes.Added = append(changes.Added, path)
			continue
		}
		if fileChanged(prev, curr) {
			changes.Modified = append(changes.Modified, path)
		}
	}

	for path := range previous.Files {
		if _, ok := current.Files[path]; !ok {
			changes.Removed = append(changes.Removed, path)
		}
	}

	return changes
}

func fileChanged(prev, curr FileSnapshot) bool {
	if prev.ContentHash != "" && curr.ContentHash != "" {
		return prev.ContentHash != curr.ContentHash
	}
	return !prev.ModTime.Equal(curr.ModTime) || prev.Size != curr.Size
}
