package depgraph

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Cycle is a non-empty ordered sequence of FileIds visiting each node once,
// whose last node closes back to the first via a direct edge.
type Cycle struct {
	Nodes []FileID
	Edges []Edge
	Hash  string
}

// FindCycles decomposes g into strongly connected components and produces
// one comprehensive cycle per component of size ≥2, or size 1 with a
// self-edge, per spec.md §4.4. relPath maps a FileID to the relative path
// used for hashing and rendering.
func FindCycles(g *Graph, relPath func(FileID) string) []Cycle {
	components := stronglyConnectedComponents(g)

	var cycles []Cycle
	for _, component := range components {
		if len(component) == 1 {
			id := component[0]
			if !g.HasEdge(id, id) {
				continue
			}
			cycles = append(cycles, buildCycle(g, []FileID{id}, relPath))
			continue
		}
		if len(component) < 2 {
			continue
		}
		path := longestSimpleCycle(g, component)
		if len(path) == 0 {
			continue
		}
		cycles = append(cycles, buildCycle(g, path, relPath))
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i].Hash < cycles[j].Hash })
	return cycles
}

// longestSimpleCycle performs a DFS restricted to the SCC's node set,
// starting at the lowest-id node, seeking the longest simple path that
// returns to the start via a direct edge. Ties are broken deterministically
// by preferring the lowest-FileId neighbor at each step.
func longestSimpleCycle(g *Graph, component []FileID) []FileID {
	inSCC := make(map[FileID]bool, len(component))
	for _, id := range component {
		inSCC[id] = true
	}

	start := component[0]
	for _, id := range component {
		if id < start {
			start = id
		}
	}

	visited := map[FileID]bool{start: true}
	best := []FileID{}

	var walk func(path []FileID)
	walk = func(path []FileID) {
		current := path[len(path)-1]
		if g.HasEdge(current, start) && len(path) > len(best) {
			best = append([]FileID(nil), path...)
		}

		for _, next := range g.Neighbors(current) {
			if !inSCC[next] || visited[next] {
				continue
			}
			visited[next] = true
			walk(append(path, next))
			visited[next] = false
		}
	}
	walk([]FileID{start})

	return best
}

func buildCycle(g *Graph, nodes []FileID, relPath func(FileID) string) Cycle {
	edges := make([]Edge, 0, len(nodes))
	for i, from := range nodes {
		to := nodes[(i+1)%len(nodes)]
		if e, ok := g.Edge(from, to); ok {
			edges = append(edges, e)
		} else {
			edges = append(edges, Edge{From: from, To: to})
		}
	}

	paths := make([]string, len(nodes))
	for i, id := range nodes {
		paths[i] = relPath(id)
	}

	return Cycle{
		Nodes: nodes,
		Edges: edges,
		Hash:  hashCycle(paths),
	}
}

// hashCycle computes the rotation-normalized 12-hex-char cycle hash of
// spec.md §4.4: among all rotations of the path sequence, pick the
// lexicographically smallest concatenation, then hash it with xxhash and
// take the leading 12 hex chars.
func hashCycle(paths []string) string {
	best := smallestRotation(paths)
	joined := strings.Join(best, "\x00")
	sum := xxhash.Sum64String(joined)
	return hex.EncodeToString(encodeUint64(sum))[:12]
}

func smallestRotation(paths []string) []string {
	n := len(paths)
	if n == 0 {
		return paths
	}
	best := paths
	bestJoined := strings.Join(paths, "\x00")
	for i := 1; i < n; i++ {
		rotated := append(append([]string(nil), paths[i:]...), paths[:i]...)
		joined := strings.Join(rotated, "\x00")
		if joined < bestJoined {
			best = rotated
			bestJoined = joined
		}
	}
	return best
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// CombinedHash computes the sort-invariant combination of every reported
// cycle's hash (spec.md §4.4's overall result hash): XOR of each cycle
// hash's numeric value.
func CombinedHash(cycles []Cycle) string {
	var acc uint64
	for _, c := range cycles {
		raw, err := hex.DecodeString(c.Hash)
		if err != nil || len(raw) == 0 {
			continue
		}
		padded := make([]byte, 8)
		copy(padded[8-len(raw):], raw)
		acc ^= decodeUint64(padded)
	}
	return hex.EncodeToString(encodeUint64(acc))[:12]
}

func decodeUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
