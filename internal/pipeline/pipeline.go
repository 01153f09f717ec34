// Package pipeline wires the five stages — Discovery, Workspace & Alias
// Index, Import Extractor, Specifier Resolver, Cycle Engine — into one
// analysis run.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	cderrors "tscircular/internal/core/errors"
	"tscircular/internal/depgraph"
	"tscircular/internal/discovery"
	"tscircular/internal/extract"
	"tscircular/internal/resolve"
	"tscircular/internal/shared/observability"
	"tscircular/internal/shared/tracing"
	"tscircular/internal/shared/util"
	"tscircular/internal/tsconfig"
	"tscircular/internal/workspace"
)

// Options configures a single analysis run.
type Options struct {
	Root              string
	Exclude           []string
	IgnoreTypeImports bool
	UseTsconfig       bool
	TsconfigPath      string
	UseWorkspace      bool
	AllowNodeModules  bool
}

// Result is everything downstream reporting needs.
type Result struct {
	TotalFiles int
	Cycles     []depgraph.Cycle
	RelPath    func(depgraph.FileID) string
	Warnings   []string
}

// fileResult is the output of one worker's Extract call, destined for the
// single-consumer merge goroutine.
type fileResult struct {
	path    string
	records []extract.ImportRecord
	err     error
}

// Run executes the full pipeline against opts.Root. It never returns an
// error for per-file problems (those are logged and skipped per spec.md
// §7); it returns an error only for fatal configuration problems or
// cancellation.
func Run(ctx context.Context, opts Options) (*Result, error) {
	tr := tracing.Tracer()
	ctx, rootSpan := tr.Start(ctx, "analysis")
	defer rootSpan.End()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, cderrors.Wrap(err, cderrors.CodeIONotFound, "resolve root")
	}

	_, discSpan := tr.Start(ctx, "discovery")
	discStart := time.Now()
	files, err := discovery.Discover(discovery.Options{Root: root, Exclude: opts.Exclude})
	discSpan.End()
	observability.AnalysisDuration.WithLabelValues("discovery").Observe(time.Since(discStart).Seconds())
	if err != nil {
		return nil, cderrors.Wrap(err, cderrors.CodeIONotFound, "file discovery")
	}

	select {
	case <-ctx.Done():
		return nil, cderrors.Wrap(ctx.Err(), cderrors.CodeCanceled, "analysis canceled")
	default:
	}

	_, idxSpan := tr.Start(ctx, "index")
	idxStart := time.Now()
	var tscfg *tsconfig.Node
	if opts.UseTsconfig {
		start := opts.TsconfigPath
		if start == "" {
			start = root
		}
		tscfg, err = tsconfig.Load(start)
		if err != nil {
			idxSpan.End()
			return nil, err
		}
	}

	var ws *workspace.Index
	if opts.UseWorkspace {
		ws, err = workspace.Detect(root)
		if err != nil {
			slog.Debug("workspace detection failed, continuing without it", "error", err)
		} else if ws != nil {
			slog.Debug("workspace detected", "packages", util.SortedStringKeys(ws.Packages))
		}
	}
	idxSpan.End()
	observability.AnalysisDuration.WithLabelValues("index").Observe(time.Since(idxStart).Seconds())

	resolver := resolve.New(tscfg, ws, opts.AllowNodeModules)

	interner := depgraph.NewInterner()
	graph := depgraph.NewGraph()
	for _, f := range files {
		interner.Intern(f)
	}

	extractCtx, extractSpan := tr.Start(ctx, "extract")
	results := runExtractWorkers(extractCtx, files)
	extractSpan.End()

	var warnings []string
	resolveCtx, resolveSpan := tr.Start(ctx, "resolve")
	resolveStart := time.Now()
	for res := range results {
		if res.err != nil {
			slog.Debug("skipping unreadable file", "path", res.path, "error", res.err)
			warnings = append(warnings, res.err.Error())
			continue
		}
		from := interner.Intern(res.path)
		for _, rec := range res.records {
			if opts.IgnoreTypeImports && rec.IsTypeOnly {
				continue
			}
			target, ok := resolver.Resolve(resolve.Context{
				FromFile:   res.path,
				ViaRequire: rec.Kind == extract.KindRequire || strings.HasSuffix(res.path, ".cjs"),
			}, rec.Specifier)
			if !ok {
				observability.UnresolvedSpecifiersTotal.Inc()
				continue
			}
			// Every working-set file was interned above; a target that is
			// not already known (excluded, hidden, unsupported) is dropped.
			to, known := interner.Lookup(target)
			if !known {
				observability.UnresolvedSpecifiersTotal.Inc()
				continue
			}
			graph.AddEdge(depgraph.Edge{
				From:       from,
				To:         to,
				Line:       rec.Line,
				ImportText: rec.ImportText,
				IsTypeOnly: rec.IsTypeOnly,
			})
		}
	}
	resolveSpan.End()
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(resolveStart).Seconds())

	select {
	case <-ctx.Done():
		return nil, cderrors.Wrap(ctx.Err(), cderrors.CodeCanceled, "analysis canceled")
	default:
	}

	observability.GraphNodes.Set(float64(len(graph.Nodes())))
	observability.GraphEdges.Set(float64(graph.EdgeCount()))

	relPath := func(id depgraph.FileID) string {
		p := interner.Path(id)
		if rel, err := filepath.Rel(root, p); err == nil {
			return filepath.ToSlash(rel)
		}
		return p
	}

	_, cycleSpan := tr.Start(resolveCtx, "cycle_detect")
	cycleStart := time.Now()
	cycles := depgraph.FindCycles(graph, relPath)
	cycleSpan.End()
	observability.AnalysisDuration.WithLabelValues("cycle_detect").Observe(time.Since(cycleStart).Seconds())
	observability.CyclesFoundTotal.Set(float64(len(cycles)))

	return &Result{
		TotalFiles: len(files),
		Cycles:     cycles,
		RelPath:    relPath,
		Warnings:   warnings,
	}, nil
}

// runExtractWorkers fans Extract calls out across runtime.NumCPU() workers
// reading from an unbounded work channel, and returns a results channel the
// caller drains as the single consumer that merges into the interner and
// graph.
func runExtractWorkers(ctx context.Context, files []string) <-chan fileResult {
	work := make(chan string, len(files))
	for _, f := range files {
		work <- f
	}
	close(work)

	out := make(chan fileResult, len(files))

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				source, err := os.ReadFile(path)
				if err != nil {
					out <- fileResult{path: path, err: cderrors.AddContext(
						cderrors.Wrap(err, cderrors.CodeIONotFound, "read file"), cderrors.CtxPath, path)}
					continue
				}

				records, err := extract.Extract(path, source)
				if err != nil {
					slog.Debug("extraction failed", "path", path, "error", err)
					out <- fileResult{path: path}
					continue
				}
				out <- fileResult{path: path, records: records}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
