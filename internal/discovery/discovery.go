// Package discovery implements the file discovery stage of the pipeline:
// it walks a root directory and yields the stable working set of JS/TS
// source files.
package discovery

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"tscircular/internal/shared/observability"
	"tscircular/internal/shared/util"
)

// Extensions are the source file extensions admitted into the working set.
var Extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

var extensionSet = func() map[string]bool {
	m := make(map[string]bool, len(Extensions))
	for _, ext := range Extensions {
		m[ext] = true
	}
	return m
}()

// Options configures a single Discovery run.
type Options struct {
	Root    string
	Exclude []string
}

type visitKey struct {
	dev uint64
	ino uint64
}

// Discover walks Root depth-first and returns a lexicographically sorted
// list of absolute canonical paths to admitted source files. Unreadable
// directories are logged and skipped; the walk is never aborted by a single
// I/O error.
func Discover(opts Options) ([]string, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}

	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, g)
	}

	visited := make(map[visitKey]bool)
	var results []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("discovery: skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && isHidden(d.Name()) {
			return skipEntry(d)
		}

		if isExcluded(path, root, excludes) && path != root {
			return skipEntry(d)
		}

		if d.IsDir() {
			if recursed, err := guardSymlinkedDir(path, visited); err != nil {
				slog.Debug("discovery: stat failed", "path", path, "error", err)
			} else if !recursed {
				return filepath.SkipDir
			}
			return nil
		}

		if !extensionSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(results)
	observability.FilesDiscoveredTotal.Add(float64(len(results)))
	return results, nil
}

func skipEntry(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func isExcluded(path, root string, excludes []glob.Glob) bool {
	if len(excludes) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	normalized := util.NormalizePatternPath(rel)
	var segments []string
	if normalized != "" {
		segments = strings.Split(normalized, "/")
	}
	base := filepath.Base(path)
	for _, g := range excludes {
		if g.Match(base) {
			return true
		}
		for _, seg := range segments {
			if g.Match(seg) {
				return true
			}
		}
	}
	return false
}

// guardSymlinkedDir records the device+inode pair of path and reports
// whether the walk should recurse into it (false means it was already
// visited through another path and must be skipped to avoid infinite
// symlink loops).
func guardSymlinkedDir(path string, visited map[visitKey]bool) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return true, err
	}
	key, ok := statKey(info)
	if !ok {
		return true, nil
	}
	if visited[key] {
		return false, nil
	}
	visited[key] = true
	return true, nil
}
