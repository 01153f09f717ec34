// Package report renders the Cycle Engine's output in the pinned JSON
// schema of spec.md §6, plus two additive formats: a colorized
// human-readable summary and a SARIF 2.1.0 document for CI annotations.
package report

import (
	"encoding/json"

	"tscircular/internal/depgraph"
)

// JSONOutput is the pinned schema of spec.md §6. Every field beyond the
// ones named there is additive and does not change the documented shape.
type JSONOutput struct {
	TotalFiles  int         `json:"total_files"`
	TotalCycles int         `json:"total_cycles"`
	CyclesHash  string      `json:"cycles_hash"`
	Cycles      []JSONCycle `json:"cycles"`
}

type JSONCycle struct {
	Hash    string     `json:"hash"`
	Edges   []JSONEdge `json:"edges"`
	Allowed bool       `json:"allowed"`
}

type JSONEdge struct {
	FromFile   string `json:"from_file"`
	ToFile     string `json:"to_file"`
	Line       int    `json:"line"`
	ImportText string `json:"import_text"`
}

// BuildJSONOutput assembles the pinned-schema output. relPath maps a FileId
// to the path used in the report; allowed reports whether a given cycle
// was matched by the allowlist and therefore
// excluded from the exit-code cycle count while still being included here.
func BuildJSONOutput(totalFiles int, cycles []depgraph.Cycle, relPath func(depgraph.FileID) string, allowed func(depgraph.Cycle) bool) JSONOutput {
	out := JSONOutput{
		TotalFiles:  totalFiles,
		TotalCycles: len(cycles),
		CyclesHash:  depgraph.CombinedHash(cycles),
		Cycles:      make([]JSONCycle, 0, len(cycles)),
	}

	for _, cycle := range cycles {
		edges := make([]JSONEdge, 0, len(cycle.Edges))
		for _, e := range cycle.Edges {
			edges = append(edges, JSONEdge{
				FromFile:   relPath(e.From),
				ToFile:     relPath(e.To),
				Line:       e.Line,
				ImportText: e.ImportText,
			})
		}
		out.Cycles = append(out.Cycles, JSONCycle{
			Hash:    cycle.Hash,
			Edges:   edges,
			Allowed: allowed != nil && allowed(cycle),
		})
	}

	return out
}

// Marshal renders out as indented JSON, matching the pinned schema's
// multi-line presentation.
func Marshal(out JSONOutput) ([]byte, error) {
	return json.MarshalIndent(out, "", "  ")
}

// JSONError is the error-path counterpart of JSONOutput, used when analysis
// aborts before a report can be built.
type JSONError struct {
	Error string `json:"error"`
}

func MarshalError(message string) []byte {
	data, err := json.MarshalIndent(JSONError{Error: message}, "", "  ")
	if err != nil {
		return []byte(`{"error":"failed to serialize error"}`)
	}
	return data
}
