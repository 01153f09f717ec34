package depgraph

import "sync"

// FileID is an interned, stable integer identifying a resolved source file
// by its canonical absolute path. Created on first resolution; immutable
// for the lifetime of an analysis run.
type FileID int32

// Interner canonicalizes absolute file paths into FileIDs, deduplicating so
// that two specifiers resolving to the same file always collapse to the
// same node.
type Interner struct {
	mu     sync.Mutex
	byPath map[string]FileID
	byID   []string
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{byPath: make(map[string]FileID)}
}

// Intern returns the FileID for path, allocating a new one if path has not
// been seen before.
func (in *Interner) Intern(path string) FileID {
	in.mu.Lock()
	defer in.mu.Unlock()

	if id, ok := in.byPath[path]; ok {
		return id
	}
	id := FileID(len(in.byID))
	in.byID = append(in.byID, path)
	in.byPath[path] = id
	return id
}

// Lookup returns the FileID already assigned to path, if any, without
// allocating one.
func (in *Interner) Lookup(path string) (FileID, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	id, ok := in.byPath[path]
	return id, ok
}

// Path returns the canonical path for a FileID.
func (in *Interner) Path(id FileID) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(id) < 0 || int(id) >= len(in.byID) {
		return ""
	}
	return in.byID[id]
}

// Len returns the number of interned files.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.byID)
}
