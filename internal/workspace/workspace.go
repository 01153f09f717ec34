// Package workspace discovers monorepo packages reachable from a root
// directory, via npm/yarn's package.json "workspaces" field or pnpm's
// pnpm-workspace.yaml, and builds the PackageRecord index the resolver
// consults for bare-specifier resolution.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// ExportValue is one leaf of an ExportsTree: either a literal target path or
// a condition map keyed by {default, import, require} (and any others,
// passed through).
type ExportValue struct {
	Target     string
	Conditions map[string]string
}

func (v ExportValue) isConditional() bool { return v.Conditions != nil }

// ExportsTree preserves the package.json "exports" field's subpath patterns
// in declaration order, literal and wildcard alike.
type ExportsTree struct {
	// Root holds the value for "." when exports is a bare string.
	Root *ExportValue
	// Entries is ordered exactly as declared in package.json.
	Entries []ExportsEntry
}

// ExportsEntry is one key/value pair of an object-form exports field.
type ExportsEntry struct {
	Pattern string
	Value   ExportValue
}

// Package is a single workspace package's read-only record.
type Package struct {
	Name    string
	RootDir string
	Main    string
	Module  string
	Exports *ExportsTree
}

// Index is the name-indexed set of packages discovered under a workspace
// root.
type Index struct {
	Root     string
	Packages map[string]*Package
}

type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Module     string          `json:"module"`
	Exports    json.RawMessage `json:"exports"`
	Workspaces json.RawMessage `json:"workspaces"`
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// Detect walks upward from startDir looking for a workspace declaration —
// a package.json with a "workspaces" field, or a pnpm-workspace.yaml — and
// builds the package Index if one is found. Returns nil, nil when no
// workspace declaration exists anywhere above startDir.
func Detect(startDir string) (*Index, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}

	for {
		if idx, err := tryPackageJSONWorkspaces(dir); err != nil {
			return nil, err
		} else if idx != nil {
			return idx, nil
		}
		if idx, err := tryPnpmWorkspace(dir); err != nil {
			return nil, err
		} else if idx != nil {
			return idx, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func tryPackageJSONWorkspaces(dir string) (*Index, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, nil
	}
	if len(pj.Workspaces) == 0 {
		return nil, nil
	}

	patterns, err := parseWorkspacesField(pj.Workspaces)
	if err != nil || len(patterns) == 0 {
		return nil, nil
	}

	return buildIndex(dir, patterns)
}

func parseWorkspacesField(raw json.RawMessage) ([]string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages, nil
	}
	return nil, nil
}

func tryPnpmWorkspace(dir string) (*Index, error) {
	path := filepath.Join(dir, "pnpm-workspace.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var pw pnpmWorkspace
	if err := yaml.Unmarshal(data, &pw); err != nil {
		return nil, nil
	}
	if len(pw.Packages) == 0 {
		return nil, nil
	}
	return buildIndex(dir, pw.Packages)
}

// buildIndex expands each workspace glob pattern against root, probing each
// matched directory for a package.json.
func buildIndex(root string, patterns []string) (*Index, error) {
	idx := &Index{Root: root, Packages: make(map[string]*Package)}

	for _, pattern := range patterns {
		dirs, err := expandPattern(root, pattern)
		if err != nil {
			continue
		}
		for _, dir := range dirs {
			pkg, err := loadPackage(dir)
			if err != nil || pkg == nil {
				continue
			}
			idx.Packages[pkg.Name] = pkg
		}
	}

	return idx, nil
}

// expandPattern expands a workspace glob (e.g. "packages/*") to candidate
// package directories under root.
func expandPattern(root, pattern string) ([]string, error) {
	pattern = strings.TrimSuffix(pattern, "/")
	full := filepath.Join(root, pattern)

	if !strings.ContainsAny(pattern, "*?[]{}") {
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			return []string{full}, nil
		}
		return nil, nil
	}

	base, rest := splitAtFirstWildcard(root, pattern)
	g, err := glob.Compile(rest, '/')
	if err != nil {
		return nil, err
	}

	var matches []string
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if g.Match(e.Name()) {
			matches = append(matches, filepath.Join(base, e.Name()))
		}
	}
	return matches, nil
}

func splitAtFirstWildcard(root, pattern string) (base, rest string) {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[]{}") {
			return filepath.Join(root, filepath.Join(segments[:i]...)), strings.Join(segments[i:], "/")
		}
	}
	return filepath.Join(root, pattern), "*"
}

func loadPackage(dir string) (*Package, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, nil
	}
	if pj.Name == "" {
		return nil, nil
	}

	pkg := &Package{
		Name:    pj.Name,
		RootDir: dir,
		Main:    pj.Main,
		Module:  pj.Module,
	}
	if len(pj.Exports) > 0 {
		pkg.Exports = parseExports(pj.Exports)
	}
	return pkg, nil
}

func parseExports(raw json.RawMessage) *ExportsTree {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return &ExportsTree{Root: &ExportValue{Target: asString}}
	}

	var ordered orderedObject
	if err := ordered.UnmarshalJSON(raw); err != nil {
		return nil
	}

	tree := &ExportsTree{}
	for _, kv := range ordered.pairs {
		value := parseExportValue(kv.value)
		if value == nil {
			continue
		}
		tree.Entries = append(tree.Entries, ExportsEntry{Pattern: kv.key, Value: *value})
	}
	return tree
}

func parseExportValue(raw json.RawMessage) *ExportValue {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return &ExportValue{Target: asString}
	}
	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return &ExportValue{Conditions: asMap}
	}
	return nil
}
