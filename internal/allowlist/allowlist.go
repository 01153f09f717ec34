// Package allowlist implements the boundary predicate that subtracts
// tolerated cycles from the reported set before exit-code evaluation.
package allowlist

import (
	"tscircular/internal/core/config"
	"tscircular/internal/depgraph"
)

// Filter is the pure predicate func(Cycle) bool of spec.md §4.5, built from
// a config's allowed_cycles entries.
type Filter struct {
	sets []map[string]bool
}

// New builds a Filter from the configuration's allowed_cycles entries.
func New(entries []config.AllowedCycle) *Filter {
	f := &Filter{sets: make([]map[string]bool, 0, len(entries))}
	for _, entry := range entries {
		set := make(map[string]bool, len(entry.Files))
		for _, file := range entry.Files {
			set[file] = true
		}
		f.sets = append(f.sets, set)
	}
	return f
}

// IsAllowed reports whether cycle's relative path set equals the declared
// file set of any allowlist entry.
func (f *Filter) IsAllowed(relPaths []string) bool {
	for _, set := range f.sets {
		if sameSet(set, relPaths) {
			return true
		}
	}
	return false
}

func sameSet(set map[string]bool, paths []string) bool {
	if len(set) != len(paths) {
		return false
	}
	for _, p := range paths {
		if !set[p] {
			return false
		}
	}
	return true
}

// RelPaths extracts the relative-path set a Cycle's nodes represent, for
// matching against the allowlist.
func RelPaths(cycle depgraph.Cycle, relPath func(depgraph.FileID) string) []string {
	paths := make([]string, len(cycle.Nodes))
	for i, id := range cycle.Nodes {
		paths[i] = relPath(id)
	}
	return paths
}
