package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// stringValue extracts the decoded contents of a tree-sitter "string" node,
// preferring its string_fragment children (which exclude the quote
// delimiters) and falling back to stripping the outer quote characters from
// the raw text when no fragment child is present (empty string literals).
func stringValue(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	var b strings.Builder
	found := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "string_fragment" {
			b.WriteString(ctx.Text(child))
			found = true
		}
	}
	if found {
		return b.String(), true
	}
	text := ctx.Text(node)
	if len(text) >= 2 {
		return text[1 : len(text)-1], true
	}
	return "", false
}

// firstStringChild finds the first direct child of node with kind "string".
func firstStringChild(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "string" {
			return child
		}
	}
	return nil
}

// handleImportStatement processes `import ... from "x"` and the side-effect
// form `import "x"`, classifying type-only imports per the rule that any
// value binding in the clause makes the whole statement a value import.
func handleImportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	source := firstStringChild(node)
	if source == nil {
		return true
	}
	specifier, ok := stringValue(ctx, source)
	if !ok {
		return true
	}

	typeOnly := ctx.HasChildOfKind(node, "type")
	if clause := ctx.ChildOfKind(node, "import_clause"); clause != nil && !typeOnly {
		typeOnly = !clauseHasValueBinding(clause)
	}

	ctx.Records = append(ctx.Records, ImportRecord{
		Specifier:  specifier,
		Line:       ctx.Line(node),
		ImportText: ctx.Text(node),
		Kind:       KindStatic,
		IsTypeOnly: typeOnly,
	})
	return true
}

// clauseHasValueBinding reports whether an import_clause binds at least one
// value (a default import, a namespace import, or a named import specifier
// not itself marked `type`).
func clauseHasValueBinding(clause *sitter.Node) bool {
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			return true
		case "namespace_import":
			return true
		case "named_imports":
			if namedImportsHaveValueBinding(child) {
				return true
			}
		}
	}
	return false
}

func namedImportsHaveValueBinding(namedImports *sitter.Node) bool {
	for i := uint(0); i < namedImports.ChildCount(); i++ {
		spec := namedImports.Child(i)
		if spec == nil || spec.Kind() != "import_specifier" {
			continue
		}
		hasType := false
		for j := uint(0); j < spec.ChildCount(); j++ {
			if c := spec.Child(j); c != nil && c.Kind() == "type" {
				hasType = true
				break
			}
		}
		if !hasType {
			return true
		}
	}
	return false
}

// handleExportStatement processes re-export forms: `export ... from "x"`,
// `export * from "x"`, and `export * as ns from "x"`. Exports without a
// `from` clause bind no specifier and are left for the walker to descend
// into (they may contain nested expressions worth visiting, e.g. a
// `require()` call in a default export).
func handleExportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	source := firstStringChild(node)
	if source == nil {
		return false
	}
	specifier, ok := stringValue(ctx, source)
	if !ok {
		return false
	}

	ctx.Records = append(ctx.Records, ImportRecord{
		Specifier:  specifier,
		Line:       ctx.Line(node),
		ImportText: ctx.Text(node),
		Kind:       KindReexport,
		IsTypeOnly: ctx.HasChildOfKind(node, "type"),
	})
	return true
}

// handleCallExpression processes the dynamic `import("x")` expression and
// CommonJS `require("x")` calls. Only string-literal arguments are resolved
// statically; calls with a computed argument are left unrecorded.
func handleCallExpression(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return false
	}

	var kind ImportKind
	switch {
	case fn.Kind() == "import":
		kind = KindDynamic
	case fn.Kind() == "identifier" && ctx.Text(fn) == "require":
		kind = KindRequire
	default:
		return false
	}

	source := firstStringChild(args)
	if source == nil {
		return false
	}
	specifier, ok := stringValue(ctx, source)
	if !ok {
		return false
	}

	ctx.Records = append(ctx.Records, ImportRecord{
		Specifier:  specifier,
		Line:       ctx.Line(node),
		ImportText: ctx.Text(node),
		Kind:       kind,
		IsTypeOnly: false,
	})
	return true
}

func defaultHandlers() map[string]NodeHandler {
	return map[string]NodeHandler{
		"import_statement": handleImportStatement,
		"export_statement": handleExportStatement,
		"call_expression":  handleCallExpression,
	}
}
