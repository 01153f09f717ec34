package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tscircular/internal/tsconfig"
	"tscircular/internal/workspace"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveRelative(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.ts"), "")
	write(t, filepath.Join(root, "b.ts"), "")

	r := New(nil, nil, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "a.ts")}, "./b")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "b.ts"), path)
}

func TestResolveExtensionProbeOrder(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.ts"), "")
	write(t, filepath.Join(root, "target.js"), "")
	write(t, filepath.Join(root, "target.ts"), "")

	r := New(nil, nil, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "a.ts")}, "./target")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "target.ts"), path)
}

func TestResolveDirectoryIndex(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.ts"), "")
	write(t, filepath.Join(root, "util", "index.tsx"), "")

	r := New(nil, nil, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "a.ts")}, "./util")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "util", "index.tsx"), path)
}

func TestResolveTsconfigPaths(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "src", "components", "Button.ts"), "")
	write(t, filepath.Join(root, "src", "app.ts"), "")

	node := &tsconfig.Node{
		BaseDir: root,
		BaseURL: filepath.Join(root, "src"),
		Paths: []tsconfig.PathMapping{
			{Pattern: "@/*", Targets: []string{"*"}},
		},
	}

	r := New(node, nil, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "src", "app.ts")}, "@/components/Button")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "components", "Button.ts"), path)
}

func TestResolveWorkspaceConventionalEntry(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "packages", "core", "src", "index.ts"), "")

	idx := &workspace.Index{
		Root: root,
		Packages: map[string]*workspace.Package{
			"@acme/core": {Name: "@acme/core", RootDir: filepath.Join(root, "packages", "core")},
		},
	}

	r := New(nil, idx, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "packages", "ui", "src", "index.ts")}, "@acme/core")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages", "core", "src", "index.ts"), path)
}

func TestResolveExportsLiteralOverWildcard(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "dist", "button.js"), "")
	write(t, filepath.Join(root, "dist", "wild.js"), "")

	pkg := &workspace.Package{
		Name:    "@acme/ui",
		RootDir: root,
		Exports: &workspace.ExportsTree{
			Entries: []workspace.ExportsEntry{
				{Pattern: "./*", Value: workspace.ExportValue{Target: "./dist/wild.js"}},
				{Pattern: "./button", Value: workspace.ExportValue{Target: "./dist/button.js"}},
			},
		},
	}
	idx := &workspace.Index{Root: root, Packages: map[string]*workspace.Package{"@acme/ui": pkg}}

	r := New(nil, idx, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "app.ts")}, "@acme/ui/button")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "dist", "button.js"), path)
}

func TestResolveExportsConditionPreferenceRequire(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "src", "index.ts"), "")
	write(t, filepath.Join(root, "dist", "index.cjs"), "")

	pkg := &workspace.Package{
		Name:    "@test/utils",
		RootDir: root,
		Exports: &workspace.ExportsTree{
			Entries: []workspace.ExportsEntry{
				{Pattern: ".", Value: workspace.ExportValue{Conditions: map[string]string{
					"import":  "./src/index.ts",
					"require": "./dist/index.cjs",
				}}},
			},
		},
	}
	idx := &workspace.Index{Root: root, Packages: map[string]*workspace.Package{"@test/utils": pkg}}
	r := New(nil, idx, false)

	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "consumer.cjs"), ViaRequire: true}, "@test/utils")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "dist", "index.cjs"), path)

	path, ok = r.Resolve(Context{FromFile: filepath.Join(root, "consumer.ts")}, "@test/utils")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "index.ts"), path)
}

func TestResolveMainMapsDeclaredJSExtensionToTSSibling(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "dist", "index.ts"), "")

	pkg := &workspace.Package{
		Name:    "@acme/core",
		RootDir: root,
		Main:    "./dist/index.js",
	}
	idx := &workspace.Index{Root: root, Packages: map[string]*workspace.Package{"@acme/core": pkg}}

	r := New(nil, idx, false)
	path, ok := r.Resolve(Context{FromFile: filepath.Join(root, "consumer.ts")}, "@acme/core")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "dist", "index.ts"), path)
}

func TestResolveUnresolvedExternalPackage(t *testing.T) {
	r := New(nil, nil, false)
	_, ok := r.Resolve(Context{FromFile: "/project/a.ts"}, "lodash")
	assert.False(t, ok)
}

func TestResolveIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.ts"), "")
	write(t, filepath.Join(root, "b.ts"), "")

	r := New(nil, nil, false)
	p1, ok1 := r.Resolve(Context{FromFile: filepath.Join(root, "a.ts")}, "./b")
	p2, ok2 := r.Resolve(Context{FromFile: filepath.Join(root, "a.ts")}, "./b")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, p1, p2)
}
