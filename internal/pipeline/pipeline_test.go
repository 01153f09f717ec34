package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func cycleRelPaths(t *testing.T, result *Result, idx int) []string {
	t.Helper()
	paths := make([]string, len(result.Cycles[idx].Nodes))
	for i, id := range result.Cycles[idx].Nodes {
		paths[i] = result.RelPath(id)
	}
	return paths
}

func TestRunDetectsTwoWayCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", `import { b } from "./b";`)
	writeFile(t, root, "b.ts", `import { a } from "./a";`)

	result, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalFiles)
	require.Len(t, result.Cycles, 1)
	require.ElementsMatch(t, []string{"a.ts", "b.ts"}, cycleRelPaths(t, result, 0))
}

func TestRunDetectsThreeWayComponentCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", `import { b } from "./b";`)
	writeFile(t, root, "b.ts", `import { c } from "./c";`)
	writeFile(t, root, "c.ts", `import { a } from "./a";`)

	result, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	require.ElementsMatch(t, []string{"a.ts", "b.ts", "c.ts"}, cycleRelPaths(t, result, 0))
}

func TestRunIgnoreTypeImportsBreaksTypeOnlyCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", `import type { B } from "./b";`)
	writeFile(t, root, "b.ts", `import { a } from "./a";`)

	withoutIgnore, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, withoutIgnore.Cycles, 1, "type-only edge still closes the cycle by default")

	withIgnore, err := Run(context.Background(), Options{Root: root, IgnoreTypeImports: true})
	require.NoError(t, err)
	require.Empty(t, withIgnore.Cycles, "type-only edges are erased before cycle detection")
}

func TestRunDetectsCrossPackageWorkspaceCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name":"root","workspaces":["packages/*"]}`)
	writeFile(t, root, "packages/pkg-a/package.json", `{"name":"pkg-a","main":"index.ts"}`)
	writeFile(t, root, "packages/pkg-a/index.ts", `import { b } from "pkg-b";`)
	writeFile(t, root, "packages/pkg-b/package.json", `{"name":"pkg-b","main":"index.ts"}`)
	writeFile(t, root, "packages/pkg-b/index.ts", `import { a } from "pkg-a";`)

	result, err := Run(context.Background(), Options{Root: root, UseWorkspace: true})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	require.ElementsMatch(t,
		[]string{"packages/pkg-a/index.ts", "packages/pkg-b/index.ts"},
		cycleRelPaths(t, result, 0))
}

func TestRunDetectsCommonJSCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cjs", `const { b } = require("./b");`)
	writeFile(t, root, "b.cjs", `const { a } = require("./a");`)

	result, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	require.ElementsMatch(t, []string{"a.cjs", "b.cjs"}, cycleRelPaths(t, result, 0))
}

func TestRunExcludesMatchingPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", `import { b } from "./vendor/b";`)
	writeFile(t, root, "vendor/b.ts", `import { a } from "../a";`)

	result, err := Run(context.Background(), Options{Root: root, Exclude: []string{"vendor"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalFiles)
	require.Empty(t, result.Cycles)
}

func TestRunNoCyclesInAcyclicGraph(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", `import { b } from "./b";`)
	writeFile(t, root, "b.ts", `export const b = 1;`)

	result, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Empty(t, result.Cycles)
}
