package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relPathFor(interner *Interner, root map[FileID]string) func(FileID) string {
	return func(id FileID) string { return root[id] }
}

func TestTwoWayCycle(t *testing.T) {
	in := NewInterner()
	a := in.Intern("a.ts")
	b := in.Intern("b.ts")

	g := NewGraph()
	g.AddEdge(Edge{From: a, To: b, Line: 1, ImportText: `import "./b"`})
	g.AddEdge(Edge{From: b, To: a, Line: 1, ImportText: `import "./a"`})

	names := map[FileID]string{a: "a.ts", b: "b.ts"}
	cycles := FindCycles(g, relPathFor(in, names))

	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0].Nodes, 2)
	assert.Len(t, cycles[0].Hash, 12)
}

func TestThreeWayComponentIsSingleCycleNotThreeTwoCycles(t *testing.T) {
	in := NewInterner()
	button := in.Intern("Button.tsx")
	modal := in.Intern("Modal.tsx")
	form := in.Intern("Form.tsx")

	g := NewGraph()
	g.AddEdge(Edge{From: button, To: modal, Line: 1})
	g.AddEdge(Edge{From: modal, To: form, Line: 1})
	g.AddEdge(Edge{From: form, To: button, Line: 1})

	names := map[FileID]string{button: "Button.tsx", modal: "Modal.tsx", form: "Form.tsx"}
	cycles := FindCycles(g, relPathFor(in, names))

	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0].Nodes, 3)
}

func TestSelfLoopIsReported(t *testing.T) {
	in := NewInterner()
	a := in.Intern("a.ts")

	g := NewGraph()
	g.AddEdge(Edge{From: a, To: a, Line: 1})

	cycles := FindCycles(g, relPathFor(in, map[FileID]string{a: "a.ts"}))
	require.Len(t, cycles, 1)
	assert.Equal(t, []FileID{a}, cycles[0].Nodes)
}

func TestNoCyclesInAcyclicGraph(t *testing.T) {
	in := NewInterner()
	a := in.Intern("a.ts")
	b := in.Intern("b.ts")
	c := in.Intern("c.ts")

	g := NewGraph()
	g.AddEdge(Edge{From: a, To: b, Line: 1})
	g.AddEdge(Edge{From: b, To: c, Line: 1})

	cycles := FindCycles(g, relPathFor(in, map[FileID]string{a: "a.ts", b: "b.ts", c: "c.ts"}))
	assert.Empty(t, cycles)
}

func TestHashInvariantUnderRotation(t *testing.T) {
	a := hashCycle([]string{"a.ts", "b.ts", "c.ts"})
	b := hashCycle([]string{"b.ts", "c.ts", "a.ts"})
	c := hashCycle([]string{"c.ts", "a.ts", "b.ts"})

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestMultipleEdgesCollapseToSingleAdjacency(t *testing.T) {
	in := NewInterner()
	a := in.Intern("a.ts")
	b := in.Intern("b.ts")

	g := NewGraph()
	g.AddEdge(Edge{From: a, To: b, Line: 1, ImportText: "first"})
	g.AddEdge(Edge{From: a, To: b, Line: 5, ImportText: "second"})

	assert.Equal(t, 1, g.EdgeCount())
	e, ok := g.Edge(a, b)
	require.True(t, ok)
	assert.Equal(t, "first", e.ImportText)
}

func TestCombinedHashSortInvariant(t *testing.T) {
	cycles1 := []Cycle{{Hash: "aaaaaaaaaaaa"}, {Hash: "bbbbbbbbbbbb"}}
	cycles2 := []Cycle{{Hash: "bbbbbbbbbbbb"}, {Hash: "aaaaaaaaaaaa"}}

	assert.Equal(t, CombinedHash(cycles1), CombinedHash(cycles2))
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	id1 := in.Intern("/abs/a.ts")
	id2 := in.Intern("/abs/a.ts")
	assert.Equal(t, id1, id2)
	assert.Equal(t, "/abs/a.ts", in.Path(id1))
}
