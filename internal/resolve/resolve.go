// Package resolve implements resolve(from_file, specifier) → optional file,
// the single function that captures all non-trivial module resolution:
// relative paths, tsconfig path aliases, tsconfig baseUrl, workspace package
// exports/main/module, and an optional Node-style node_modules walk.
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"tscircular/internal/shared/util"
	"tscircular/internal/tsconfig"
	"tscircular/internal/workspace"
)

// extensionProbeOrder is the exact order spec.md §4.2 pins for
// extension-and-index probing.
var extensionProbeOrder = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
var indexProbeOrder = []string{".ts", ".tsx", ".js", ".jsx"}

// Context carries the reaching-edge information that affects exports
// condition preference (§4.2's require vs. import rule).
type Context struct {
	// FromFile is the absolute path of the importing file.
	FromFile string
	// ViaRequire is true when this specifier was reached through a
	// require(...) call rather than import/export-from.
	ViaRequire bool
}

// Resolver holds the resolution index (tsconfig chain + workspace package
// set) built once per analysis run, plus a probe cache shared across all
// resolve() calls.
type Resolver struct {
	Tsconfig         *tsconfig.Node
	Workspace        *workspace.Index
	AllowNodeModules bool

	probeCache *lru.Cache[string, probeResult]
}

type probeResult struct {
	path string
	ok   bool
}

// New builds a Resolver over an already-loaded tsconfig node and workspace
// index, either of which may be nil.
func New(tscfg *tsconfig.Node, ws *workspace.Index, allowNodeModules bool) *Resolver {
	cache, _ := lru.New[string, probeResult](4096)
	return &Resolver{
		Tsconfig:         tscfg,
		Workspace:        ws,
		AllowNodeModules: allowNodeModules,
		probeCache:       cache,
	}
}

// Resolve maps specifier, as imported from ctx.FromFile, to an absolute file
// path. Returns ok=false when no file on disk matches the specifier (e.g.
// an external package with node_modules walking disabled). Resolve checks
// only the filesystem; it does not know which files are in the working set.
func (r *Resolver) Resolve(ctx Context, specifier string) (string, bool) {
	if isRelativeOrAbsolute(specifier) {
		importerDir := filepath.Dir(ctx.FromFile)
		base := specifier
		if !filepath.IsAbs(specifier) {
			base = filepath.Join(importerDir, specifier)
		}
		return r.probe(base)
	}

	if r.Tsconfig != nil {
		if path, ok := r.resolveTsconfigPaths(specifier); ok {
			return path, true
		}
		if r.Tsconfig.BaseURL != "" {
			if path, ok := r.probe(filepath.Join(r.Tsconfig.BaseURL, specifier)); ok {
				return path, true
			}
		}
	}

	if r.Workspace != nil {
		if path, ok := r.resolveWorkspace(ctx, specifier); ok {
			return path, true
		}
	}

	if r.AllowNodeModules {
		if path, ok := r.resolveNodeModules(ctx.FromFile, specifier); ok {
			return path, true
		}
	}

	return "", false
}

func isRelativeOrAbsolute(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "/")
}

// resolveTsconfigPaths walks (pattern, targets) in declaration order; first
// hit wins.
func (r *Resolver) resolveTsconfigPaths(specifier string) (string, bool) {
	for _, mapping := range r.Tsconfig.Paths {
		capture, matched := matchPattern(mapping.Pattern, specifier)
		if !matched {
			continue
		}
		for _, target := range mapping.Targets {
			substituted := strings.Replace(target, "*", capture, 1)
			base := r.Tsconfig.BaseURL
			if base == "" {
				base = r.Tsconfig.BaseDir
			}
			if path, ok := r.probe(filepath.Join(base, substituted)); ok {
				return path, true
			}
		}
	}
	return "", false
}

// matchPattern reports whether specifier matches pattern (literal equality,
// or prefix*suffix wildcard capture), returning the captured segment.
func matchPattern(pattern, specifier string) (string, bool) {
	if !strings.Contains(pattern, "*") {
		return "", pattern == specifier
	}
	idx := strings.IndexByte(pattern, '*')
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	capture := specifier[len(prefix) : len(specifier)-len(suffix)]
	return capture, true
}

// resolveWorkspace splits specifier into package name + optional subpath and
// resolves against the workspace's PackageRecord set.
func (r *Resolver) resolveWorkspace(ctx Context, specifier string) (string, bool) {
	name, subpath := splitPackageSpecifier(specifier)
	pkg, ok := r.Workspace.Packages[name]
	if !ok {
		return "", false
	}
	return r.resolvePackageSubpath(ctx, pkg, subpath)
}

// splitPackageSpecifier splits "name/sub/path" or "@scope/name/sub/path"
// into (packageName, subpath), where subpath is "." for the package root.
func splitPackageSpecifier(specifier string) (name, subpath string) {
	segments := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(segments) >= 2 {
		name = segments[0] + "/" + segments[1]
		segments = segments[2:]
	} else {
		name = segments[0]
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return name, "."
	}
	return name, strings.Join(segments, "/")
}

func (r *Resolver) resolvePackageSubpath(ctx Context, pkg *workspace.Package, subpath string) (string, bool) {
	if pkg.Exports != nil {
		if path, ok := r.resolveExports(ctx, pkg, subpath); ok {
			return path, true
		}
	}

	if subpath == "." {
		if pkg.Module != "" {
			if path, ok := r.probeWithinRoot(pkg, pkg.Module); ok {
				return path, true
			}
		}
		if pkg.Main != "" {
			if path, ok := r.probeWithinRoot(pkg, pkg.Main); ok {
				return path, true
			}
		}
		for _, conventional := range []string{"src/index", "index"} {
			if path, ok := r.probeWithinRoot(pkg, conventional); ok {
				return path, true
			}
		}
		return "", false
	}

	return r.probeWithinRoot(pkg, subpath)
}

// probeWithinRoot joins target onto pkg.RootDir and probes it, rejecting any
// result that resolves outside the package root — a package.json field with
// a "../" escape must not reach into a sibling package.
func (r *Resolver) probeWithinRoot(pkg *workspace.Package, target string) (string, bool) {
	path, ok := r.probe(filepath.Join(pkg.RootDir, target))
	if !ok {
		return "", false
	}
	if !util.HasPathPrefix(filepath.ToSlash(path), filepath.ToSlash(pkg.RootDir)) {
		return "", false
	}
	return path, true
}

// resolveExports evaluates the package's ExportsTree against subpath
// (spec.md §4.2's exports-field resolution).
func (r *Resolver) resolveExports(ctx Context, pkg *workspace.Package, subpath string) (string, bool) {
	tree := pkg.Exports

	if tree.Root != nil {
		if subpath != "." {
			return "", false
		}
		return r.resolveExportValue(ctx, pkg, *tree.Root)
	}

	key := subpath
	if key != "." {
		key = "./" + strings.TrimPrefix(subpath, "./")
	}

	// Literal match wins over wildcard.
	for _, entry := range tree.Entries {
		if !strings.Contains(entry.Pattern, "*") && entry.Pattern == key {
			return r.resolveExportValue(ctx, pkg, entry.Value)
		}
	}

	// Among wildcards, the longest literal prefix wins.
	bestPrefixLen := -1
	var bestValue workspace.ExportValue
	var bestSuffix string
	found := false
	for _, entry := range tree.Entries {
		if !strings.Contains(entry.Pattern, "*") {
			continue
		}
		idx := strings.IndexByte(entry.Pattern, '*')
		prefix, suffix := entry.Pattern[:idx], entry.Pattern[idx+1:]
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		if len(prefix) > bestPrefixLen {
			bestPrefixLen = len(prefix)
			bestValue = entry.Value
			bestSuffix = key[len(prefix) : len(key)-len(suffix)]
			found = true
		}
	}
	if found {
		return r.resolveExportValue(ctx, pkg, substituteWildcard(bestValue, bestSuffix))
	}

	return "", false
}

func substituteWildcard(value workspace.ExportValue, capture string) workspace.ExportValue {
	if value.Conditions != nil {
		substituted := make(map[string]string, len(value.Conditions))
		for k, v := range value.Conditions {
			substituted[k] = strings.Replace(v, "*", capture, 1)
		}
		return workspace.ExportValue{Conditions: substituted}
	}
	return workspace.ExportValue{Target: strings.Replace(value.Target, "*", capture, 1)}
}

// resolveExportValue resolves a literal target or evaluates a condition map
// under the active condition set {default, import, require}, preferring
// require when the reaching edge is a require() call or the importer is a
// .cjs file.
func (r *Resolver) resolveExportValue(ctx Context, pkg *workspace.Package, value workspace.ExportValue) (string, bool) {
	target := value.Target
	if value.Conditions != nil {
		preferRequire := ctx.ViaRequire || strings.HasSuffix(ctx.FromFile, ".cjs")
		order := []string{"import", "require", "default"}
		if preferRequire {
			order = []string{"require", "import", "default"}
		}
		target = ""
		for _, cond := range order {
			if v, ok := value.Conditions[cond]; ok {
				target = v
				break
			}
		}
		if target == "" {
			return "", false
		}
	}
	if target == "" {
		return "", false
	}
	return r.probeWithinRoot(pkg, strings.TrimPrefix(target, "./"))
}

// resolveNodeModules probes node_modules/<specifier> walking upward from
// the importer's directory. Disabled by default (spec.md §4.2 step 5).
func (r *Resolver) resolveNodeModules(fromFile, specifier string) (string, bool) {
	dir := filepath.Dir(fromFile)
	for {
		candidate := filepath.Join(dir, "node_modules", specifier)
		if path, ok := r.probe(candidate); ok {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// probe implements the extension-and-index probing algorithm of §4.2,
// cached by absolute base path since the same base is frequently probed
// from multiple importers.
func (r *Resolver) probe(base string) (string, bool) {
	if r.probeCache != nil {
		if cached, ok := r.probeCache.Get(base); ok {
			return cached.path, cached.ok
		}
	}
	path, ok := r.probeUncached(base)
	if r.probeCache != nil {
		r.probeCache.Add(base, probeResult{path: path, ok: ok})
	}
	return path, ok
}

func (r *Resolver) probeUncached(base string) (string, bool) {
	if isFile(base) {
		return base, true
	}
	for _, ext := range extensionProbeOrder {
		candidate := base + ext
		if isFile(candidate) {
			return candidate, true
		}
	}
	// A declared main/module/exports target may name a compiled-output
	// extension (e.g. "./dist/index.js") that was never built in an
	// in-repo TypeScript monorepo; try the source sibling by replacing
	// the declared extension rather than only ever appending one.
	if declaredExt := filepath.Ext(base); declaredExt != "" {
		stripped := strings.TrimSuffix(base, declaredExt)
		for _, ext := range extensionProbeOrder {
			candidate := stripped + ext
			if candidate == base {
				continue
			}
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	for _, ext := range indexProbeOrder {
		candidate := filepath.Join(base, "index"+ext)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
