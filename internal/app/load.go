package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/inmemorygraph"
	"github.com/specialistvlad/burstgraph/internal/partition"
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/strategy"
	"github.com/specialistvlad/burstgraph/internal/structure"
)

// buildGraph fills a fresh in-memory graph with the vertices and edges of
// the model.
func (a *App) buildGraph(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	g := inmemorygraph.New()

	var result *multierror.Error
	for _, v := range a.model.Vertices {
		err := g.AddVertex(ctx, &structure.Vertex{ID: v.ID, Label: v.Label, Properties: v.Properties})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", v.Range, err))
		}
	}
	for _, e := range a.model.Edges {
		err := g.AddEdge(ctx, &structure.Edge{ID: e.ID, Label: e.Label, OutV: e.Out, InV: e.In, Properties: e.Properties})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", e.Range, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	vertices, edges := g.Len()
	logger.Info("Graph loaded.", "vertices", vertices, "edges", edges)
	a.graph = g
	return nil
}

// compileTraversals compiles every traversal definition into a template
// with its strategies applied. Definitions asking for partitions are checked
// for partitionability here, so a bad workspace fails at load time.
func (a *App) compileTraversals(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	src := process.NewSource(a.graph, strategy.Defaults(a.config.AdjacencyCacheSize)...)

	a.templates = make(map[string]*process.Traversal, len(a.model.Traversals))
	var result *multierror.Error
	for _, name := range a.model.TraversalNames() {
		def := a.model.Traversals[name]
		t, err := a.registry.Compile(ctx, def, src)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		// Templates are only ever cloned after this point, so every
		// mutation of the step sequence and requirement cache happens here.
		if err := t.ApplyStrategies(); err != nil {
			result = multierror.Append(result, fmt.Errorf("traversal %q: %w", name, err))
			continue
		}
		t.Requirements()
		if def.Partitions > 1 {
			if err := partition.Check(t); err != nil {
				result = multierror.Append(result, fmt.Errorf("traversal %q: %w", name, err))
				continue
			}
		}
		a.templates[name] = t
		logger.Debug("Traversal compiled.", "traversal", name, "steps", t.Len(), "partitions", def.Partitions)
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("failed to compile traversals: %w", err)
	}
	logger.Info("Traversals compiled.", "count", len(a.templates))
	return nil
}
