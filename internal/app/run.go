package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/message"
	"github.com/specialistvlad/burstgraph/internal/partition"
)

// Execute runs the named traversal on a copy of its template. A positive
// partitions overrides both the configured and the defined partition count.
// The configured evaluation timeout interrupts the run.
func (a *App) Execute(ctx context.Context, name string, partitions int) ([]any, error) {
	tmpl, ok := a.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTraversal, name)
	}
	if partitions <= 0 {
		partitions = a.config.Partitions
	}
	if partitions <= 0 {
		partitions = a.model.Traversals[name].Partitions
	}
	if a.config.EvaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.EvaluationTimeout)
		defer cancel()
	}
	logger, ok := ctxlog.Lookup(ctx)
	if !ok {
		logger = a.logger
	}
	logger = logger.With("traversal", name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if partitions > 1 {
		logger.Debug("Running partitioned traversal.", "partitions", partitions)
		res, err := partition.Run(ctx, tmpl, partitions)
		if err != nil {
			return nil, err
		}
		return res.Values(), nil
	}

	t, err := tmpl.Clone()
	if err != nil {
		return nil, err
	}
	logger.Debug("Running traversal.")
	return t.ToList(ctx)
}

// resultLine is one line of Run's output.
type resultLine struct {
	Traversal string `json:"traversal"`
	Result    any    `json:"result"`
}

// Run executes the configured traversal, or every traversal in name order,
// and writes each result as a JSON line.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	names := a.Traversals()
	if a.config.Traversal != "" {
		names = []string{a.config.Traversal}
	}
	if len(names) == 0 {
		a.logger.Warn("No traversals defined, execution not required.")
		return nil
	}

	for _, name := range names {
		start := time.Now()
		values, err := a.Execute(ctx, name, 0)
		if err != nil {
			return fmt.Errorf("traversal %q failed: %w", name, err)
		}
		if err := a.print(name, values); err != nil {
			return err
		}
		a.logger.Info("Traversal finished.", "traversal", name, "results", len(values), "duration", time.Since(start))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) print(name string, values []any) error {
	enc := json.NewEncoder(a.outW)
	for _, v := range values {
		rendered, err := message.Render(v)
		if err != nil {
			return fmt.Errorf("traversal %q: %w", name, err)
		}
		if err := enc.Encode(resultLine{Traversal: name, Result: rendered}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
