package tsconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cderrors "tscircular/internal/core/errors"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSimple(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "tsconfig.json"), `{
		"compilerOptions": {
			"baseUrl": "./src",
			"paths": { "@/*": ["*"] }
		}
	}`)

	node, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, filepath.Join(dir, "src"), node.BaseURL)
	require.Len(t, node.Paths, 1)
	assert.Equal(t, "@/*", node.Paths[0].Pattern)
}

func TestLoadTolerantOfCommentsAndTrailingCommas(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "tsconfig.json"), `{
		// line comment
		"compilerOptions": {
			/* block comment */
			"baseUrl": "./src",
			"paths": { "@/*": ["*"], },
		},
	}`)

	node, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, filepath.Join(dir, "src"), node.BaseURL)
}

func TestExtendsChainPathsFullyReplaces(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "base.json"), `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "@old/*": ["legacy/*"] }
		}
	}`)
	write(t, filepath.Join(dir, "tsconfig.json"), `{
		"extends": "./base.json",
		"compilerOptions": {
			"paths": { "@new/*": ["src/*"] }
		}
	}`)

	node, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, node.Paths, 1)
	assert.Equal(t, "@new/*", node.Paths[0].Pattern)
}

func TestExtendsArrayAppliedLeftToRight(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.json"), `{"compilerOptions": {"baseUrl": "./a"}}`)
	write(t, filepath.Join(dir, "b.json"), `{"compilerOptions": {"baseUrl": "./b"}}`)
	write(t, filepath.Join(dir, "tsconfig.json"), `{"extends": ["./a.json", "./b.json"]}`)

	node, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b"), node.BaseURL)
}

func TestExtendsCycleIsFatal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.json"), `{"extends": "./b.json"}`)
	write(t, filepath.Join(dir, "b.json"), `{"extends": "./a.json"}`)

	_, err := Load(filepath.Join(dir, "a.json"))
	require.Error(t, err)
	assert.True(t, cderrors.IsCode(err, cderrors.CodeExtendsCycle))
}

func TestLoadMissingReturnsNilNil(t *testing.T) {
	dir := t.TempDir()
	node, err := Load(dir)
	require.NoError(t, err)
	assert.Nil(t, node)
}
