package extract

import (
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammar identifies which tree-sitter grammar a file extension maps to.
type grammar string

const (
	grammarJavaScript grammar = "javascript"
	grammarTypeScript grammar = "typescript"
	grammarTSX        grammar = "tsx"
)

var extensionGrammar = map[string]grammar{
	".js":  grammarJavaScript,
	".jsx": grammarJavaScript,
	".mjs": grammarJavaScript,
	".cjs": grammarJavaScript,
	".ts":  grammarTypeScript,
	".tsx": grammarTSX,
}

var (
	poolsOnce sync.Once
	pools     map[grammar]*ParserPool
)

func poolFor(g grammar) *ParserPool {
	poolsOnce.Do(func() {
		pools = map[grammar]*ParserPool{
			grammarJavaScript: NewParserPool(sitter.NewLanguage(tree_sitter_javascript.Language())),
			grammarTypeScript: NewParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())),
			grammarTSX:        NewParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())),
		}
	})
	return pools[g]
}

// grammarForPath maps a file path's extension to its grammar, reporting
// false for extensions Extract does not support.
func grammarForPath(path string) (grammar, bool) {
	ext := strings.ToLower(path)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i:]
	} else {
		return "", false
	}
	g, ok := extensionGrammar[ext]
	return g, ok
}
