package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func buildTestWorkspace(t *testing.T) string {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{
		"name": "test-monorepo",
		"workspaces": ["packages/*"]
	}`)
	write(t, filepath.Join(root, "packages", "ui", "package.json"), `{
		"name": "@test/ui",
		"main": "dist/index.js",
		"module": "dist/index.mjs"
	}`)
	write(t, filepath.Join(root, "packages", "ui", "src", "index.ts"), "export const ui = true;")
	write(t, filepath.Join(root, "packages", "utils", "package.json"), `{
		"name": "@test/utils",
		"exports": {
			".": { "import": "./src/index.ts", "require": "./dist/index.cjs" },
			"./helpers": "./src/helpers.ts"
		}
	}`)
	write(t, filepath.Join(root, "packages", "utils", "src", "index.ts"), "export const utils = true;")
	write(t, filepath.Join(root, "packages", "utils", "src", "helpers.ts"), "export const helpers = true;")
	return root
}

func TestDetectNpmWorkspaces(t *testing.T) {
	root := buildTestWorkspace(t)

	idx, err := Detect(root)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Len(t, idx.Packages, 2)
	assert.Contains(t, idx.Packages, "@test/ui")
	assert.Contains(t, idx.Packages, "@test/utils")
}

func TestDetectPreservesExportsDeclarationOrder(t *testing.T) {
	root := buildTestWorkspace(t)
	idx, err := Detect(root)
	require.NoError(t, err)

	utils := idx.Packages["@test/utils"]
	require.NotNil(t, utils.Exports)
	require.Len(t, utils.Exports.Entries, 2)
	assert.Equal(t, ".", utils.Exports.Entries[0].Pattern)
	assert.Equal(t, "./helpers", utils.Exports.Entries[1].Pattern)
}

func TestDetectPnpmWorkspace(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "pnpm-workspace.yaml"), "packages:\n  - 'packages/*'\n")
	write(t, filepath.Join(root, "packages", "core", "package.json"), `{"name": "@acme/core"}`)

	idx, err := Detect(root)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Contains(t, idx.Packages, "@acme/core")
}

func TestDetectNoWorkspace(t *testing.T) {
	root := t.TempDir()
	idx, err := Detect(root)
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestDetectWalksUpward(t *testing.T) {
	root := buildTestWorkspace(t)
	nested := filepath.Join(root, "packages", "ui", "src")

	idx, err := Detect(nested)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, root, idx.Root)
}
