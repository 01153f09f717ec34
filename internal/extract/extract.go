package extract

import (
	"log/slog"
	"time"

	"tscircular/internal/core/errors"
	"tscircular/internal/shared/observability"
)

// Extract parses a single file's source and returns the import records found
// in it. A parse failure or an unsupported extension is never fatal: it
// yields zero records and a warning-level error the caller may log, per the
// pipeline's "one bad file never aborts the run" requirement.
func Extract(path string, source []byte) ([]ImportRecord, error) {
	g, ok := grammarForPath(path)
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, "unsupported file extension: "+path)
	}

	start := time.Now()
	defer func() {
		observability.ExtractDuration.WithLabelValues(string(g)).Observe(time.Since(start).Seconds())
	}()

	pool := poolFor(g)
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed: "+path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, errors.New(errors.CodeInternal, "empty parse tree: "+path)
	}

	ctx := &ExtractionContext{Source: source, Path: path}
	engine := NewExtractorEngine(defaultHandlers())
	engine.Walk(ctx, root)

	if root.HasError() {
		slog.Warn("syntax errors in file, extraction may be incomplete", "path", path)
	}

	observability.EdgesExtractedTotal.Add(float64(len(ctx.Records)))
	return ctx.Records, nil
}
