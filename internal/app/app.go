package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zishang520/socket.io/v2/socket"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/inmemorygraph"
	"github.com/specialistvlad/burstgraph/internal/message"
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/registry"
)

// ErrUnknownTraversal is returned when a traversal name is not defined in
// the workspace.
var ErrUnknownTraversal = errors.New("unknown traversal")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	model      *config.Model
	graph      *inmemorygraph.Store
	templates  map[string]*process.Traversal
	serializer message.Serializer

	httpServer *http.Server
	sio        *socket.Server
}

// NewApp is the constructor for the main application. It loads the graph
// workspace with loader, builds the in-memory graph and compiles every
// traversal into a template. Results are written to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, conv config.Converter) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New(conv)
	if err := reg.ValidateRegistry(ctx); err != nil {
		// A kind declared wrongly in code, not a user error.
		panic(err)
	}
	logger.Debug("Registry validation passed.", "kinds", len(reg.Kinds()))

	a := &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		registry:   reg,
		model:      model,
		serializer: message.JSONSerializer{},
	}
	if err := a.buildGraph(ctx); err != nil {
		return nil, err
	}
	if err := a.compileTraversals(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Traversals returns the names of the compiled traversals in sorted order.
func (a *App) Traversals() []string {
	return a.model.TraversalNames()
}
