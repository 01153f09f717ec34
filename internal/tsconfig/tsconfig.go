// Package tsconfig loads a tsconfig.json chain and flattens it into the
// Node used by the resolver for path-alias resolution.
package tsconfig

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	cderrors "tscircular/internal/core/errors"
)

// PathMapping is one entry of compilerOptions.paths, pattern plus its
// ordered target list. A pattern containing "*" is split into prefix/suffix.
type PathMapping struct {
	Pattern string
	Targets []string
}

// Prefix and Suffix return the literal portions surrounding a wildcard "*"
// in Pattern; Wildcard reports whether one is present.
func (m PathMapping) Wildcard() bool { return strings.Contains(m.Pattern, "*") }

func (m PathMapping) Prefix() string {
	if i := strings.IndexByte(m.Pattern, '*'); i >= 0 {
		return m.Pattern[:i]
	}
	return m.Pattern
}

func (m PathMapping) Suffix() string {
	if i := strings.IndexByte(m.Pattern, '*'); i >= 0 {
		return m.Pattern[i+1:]
	}
	return ""
}

// Node is a single configuration file's effective, flattened state after
// processing its extends chain.
type Node struct {
	BaseDir string
	BaseURL string // absolute; empty if unset
	Paths   []PathMapping
}

type rawTsconfig struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// Load finds and parses the tsconfig chain starting at startPath, which may
// be a directory (in which case "tsconfig.json" is appended) or an explicit
// file. Returns nil, nil if no tsconfig exists at startPath.
func Load(startPath string) (*Node, error) {
	configPath := startPath
	if info, err := os.Stat(startPath); err == nil && info.IsDir() {
		configPath = filepath.Join(startPath, "tsconfig.json")
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, nil
	}
	return loadChain(configPath, map[string]bool{})
}

func loadChain(configPath string, ancestors map[string]bool) (*Node, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	if ancestors[abs] {
		return nil, cderrors.AddContext(
			cderrors.New(cderrors.CodeExtendsCycle, "tsconfig extends cycle detected"),
			cderrors.CtxConfigFile, abs,
		)
	}
	ancestors[abs] = true

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var raw rawTsconfig
	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return nil, cderrors.AddContext(
			cderrors.Wrap(err, cderrors.CodeConfigMalformed, "malformed tsconfig.json"),
			cderrors.CtxConfigFile, abs,
		)
	}

	configDir := filepath.Dir(configPath)

	node := &Node{BaseDir: configDir}

	extendsList, err := parseExtends(raw.Extends)
	if err != nil {
		return nil, err
	}
	for _, ext := range extendsList {
		parentPath, err := resolveExtends(ext, configDir)
		if err != nil {
			return nil, err
		}
		if parentPath == "" {
			continue
		}
		parent, err := loadChain(parentPath, ancestors)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			node.BaseURL = parent.BaseURL
			node.Paths = parent.Paths
		}
	}

	if raw.CompilerOptions.BaseURL != "" {
		node.BaseURL = filepath.Join(configDir, raw.CompilerOptions.BaseURL)
	}
	if raw.CompilerOptions.Paths != nil {
		// paths fully replaces the parent's, never merges.
		mappings := make([]PathMapping, 0, len(raw.CompilerOptions.Paths))
		for pattern, targets := range raw.CompilerOptions.Paths {
			mappings = append(mappings, PathMapping{Pattern: pattern, Targets: targets})
		}
		node.Paths = mappings
	}

	return node, nil
}

// parseExtends accepts either a single string or an array of strings, per
// spec.md's "relative path / bare package name / array of the above".
func parseExtends(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	return nil, cderrors.New(cderrors.CodeConfigMalformed, "tsconfig extends must be a string or array of strings")
}

// resolveExtends turns one extends entry into an absolute tsconfig path,
// either a relative path or a bare package name resolved by a node_modules
// upward lookup. Returns "" if it cannot be resolved (non-fatal, per
// original_source/tsconfig.rs's tolerant behavior).
func resolveExtends(extends, configDir string) (string, error) {
	if strings.HasPrefix(extends, ".") || strings.HasPrefix(extends, "/") {
		candidate := filepath.Join(configDir, extends)
		if !strings.HasSuffix(candidate, ".json") {
			withExt := candidate + ".json"
			if fileExists(withExt) {
				return withExt, nil
			}
			asDir := filepath.Join(candidate, "tsconfig.json")
			if fileExists(asDir) {
				return asDir, nil
			}
		}
		if fileExists(candidate) {
			return candidate, nil
		}
		return "", nil
	}

	dir := configDir
	for {
		pkgTsconfig := filepath.Join(dir, "node_modules", extends)
		if !strings.HasSuffix(pkgTsconfig, ".json") {
			withTsconfigJSON := filepath.Join(pkgTsconfig, "tsconfig.json")
			if fileExists(withTsconfigJSON) {
				return withTsconfigJSON, nil
			}
			withExt := pkgTsconfig + ".json"
			if fileExists(withExt) {
				return withExt, nil
			}
		} else if fileExists(pkgTsconfig) {
			return pkgTsconfig, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// stripJSONC removes // and /* */ comments and trailing commas so that
// encoding/json can parse a tsconfig.json written with the JSONC dialect TS
// tooling conventionally permits. No library in the retrieved pack carries
// a JSON5/JSONC decoder, so this small stdlib preprocessor is an explicit
// exception to the "never fall back to stdlib" rule.
func stripJSONC(data []byte) []byte {
	var out bytes.Buffer
	inString := false
	inLineComment := false
	inBlockComment := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		var next byte
		if i+1 < len(data) {
			next = data[i+1]
		}

		if inLineComment {
			if c == '\n' {
				inLineComment = false
				out.WriteByte(c)
			}
			continue
		}
		if inBlockComment {
			if c == '*' && next == '/' {
				inBlockComment = false
				i++
			}
			continue
		}
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '/' && next == '/':
			inLineComment = true
			i++
		case c == '/' && next == '*':
			inBlockComment = true
			i++
		default:
			out.WriteByte(c)
		}
	}

	return stripTrailingCommas(out.Bytes())
}

func stripTrailingCommas(data []byte) []byte {
	var out bytes.Buffer
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(data) && isJSONWhitespace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}

func isJSONWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
