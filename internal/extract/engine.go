package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ImportKind classifies how a specifier was referenced.
type ImportKind string

const (
	KindStatic   ImportKind = "static"
	KindReexport ImportKind = "reexport"
	KindDynamic  ImportKind = "dynamic"
	KindRequire  ImportKind = "require"
)

// ImportRecord is one edge-in-waiting: a specifier string observed in a
// source file, plus enough context for the resolver and the report stage.
type ImportRecord struct {
	Specifier  string
	Line       int
	ImportText string
	Kind       ImportKind
	IsTypeOnly bool
}

// NodeHandler processes a node during the walk. Returns true if the handler
// has fully processed this node (including any children it cares about) and
// the walker should not descend into this node's children itself.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state used by all node handlers for a
// single file's walk.
type ExtractionContext struct {
	Source            []byte
	Path              string
	Records           []ImportRecord
	ProcessedChildren bool
}

func (c *ExtractionContext) resetProcessedChildren() {
	c.ProcessedChildren = false
}

// Text returns the source slice a node spans.
func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based source line a node starts on.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// ChildOfKind returns the first direct child of node whose kind matches.
func (c *ExtractionContext) ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// HasChildOfKind reports whether node has a direct child of the given kind.
// Used to detect leading keyword tokens such as "type" in
// `import type {X} from "y"`.
func (c *ExtractionContext) HasChildOfKind(node *sitter.Node, kind string) bool {
	return c.ChildOfKind(node, kind) != nil
}

// ExtractorEngine walks a syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.resetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.Walk(ctx, node.Child(i))
		}
	}
}
