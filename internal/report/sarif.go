package report

import (
	"encoding/json"
	"fmt"
)

// SARIF v2.1.0 schema - https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	toolName = "tscircular"

	ruleIDCycle = "TSC001"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document, one result per reported
// cycle, anchored at the cycle's first edge.
func GenerateSARIF(toolVersion string, out JSONOutput) ([]byte, error) {
	results := make([]sarifResult, 0, len(out.Cycles))

	for _, cycle := range out.Cycles {
		nodes := make([]string, 0, len(cycle.Edges)+1)
		for _, e := range cycle.Edges {
			nodes = append(nodes, e.FromFile)
		}
		if len(cycle.Edges) > 0 {
			nodes = append(nodes, cycle.Edges[0].FromFile)
		}

		level := "error"
		if cycle.Allowed {
			level = "note"
		}

		result := sarifResult{
			RuleID:  ruleIDCycle,
			Level:   level,
			Message: sarifMessage{Text: fmt.Sprintf("Circular dependency: %s", joinArrow(nodes))},
		}
		if len(cycle.Edges) > 0 {
			result.Locations = []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       cycle.Edges[0].FromFile,
						URIBaseID: "%SRCROOT%",
					},
					Region: &sarifRegion{StartLine: cycle.Edges[0].Line},
				},
			}}
		}
		results = append(results, result)
	}

	rules := []sarifRule{}
	if len(results) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDCycle,
			Name:             "CircularDependency",
			ShortDescription: sarifMessage{Text: "Circular import dependency detected between files."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    toolName,
					Version: toolVersion,
					Rules:   rules,
				},
			},
			Results: results,
		}},
	}

	return json.MarshalIndent(doc, "", "  ")
}

func joinArrow(nodes []string) string {
	out := ""
	for i, n := range nodes {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}
