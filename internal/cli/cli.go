package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/burstgraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Mode selects what the application does with a loaded workspace.
type Mode int

const (
	// ModeRun executes traversals once and prints their results.
	ModeRun Mode = iota
	// ModeServe answers requests over HTTP and socket.io until interrupted.
	ModeServe
)

func (m Mode) String() string {
	if m == ModeServe {
		return "serve"
	}
	return "run"
}

// Invocation is a parsed command line.
type Invocation struct {
	Mode   Mode
	Config *app.Config
}

const (
	DefaultServerPort        = 8182
	DefaultEvaluationTimeout = 30 * time.Second
	DefaultAdjacencyCache    = 1024
)

type globalFlags struct {
	logLevel  string
	logFormat string
}

type workspaceFlags struct {
	graph      string
	partitions int
	cacheSize  int
	timeout    time.Duration
}

func (w *workspaceFlags) register(cmd *cobra.Command, defaultTimeout time.Duration) {
	cmd.Flags().StringVarP(&w.graph, "graph", "g", "", "Path to the graph workspace file or directory.")
	cmd.Flags().IntVarP(&w.partitions, "partitions", "p", 0, "Number of partitions to run each traversal with. 0 uses the definitions.")
	cmd.Flags().IntVar(&w.cacheSize, "adjacency-cache", DefaultAdjacencyCache, "Entries of the per-local-step neighbourhood cache. 0 disables it.")
	cmd.Flags().DurationVar(&w.timeout, "timeout", defaultTimeout, "Evaluation timeout per traversal. 0 disables it.")
}

// path returns the workspace path from --graph or the first argument.
func (w *workspaceFlags) path(args []string) string {
	if w.graph != "" {
		return w.graph
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// Parse processes command-line arguments. It returns the parsed invocation,
// a boolean indicating if the program should exit cleanly (help was
// printed), or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		global globalFlags
		inv    *Invocation
	)

	invoke := func(mode Mode, w *workspaceFlags, args []string, cfg app.Config) error {
		level, err := app.ParseLogLevel(global.logLevel)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		format, err := app.ParseLogFormat(global.logFormat)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.GraphPath = w.path(args)
		cfg.LogLevel = level.String()
		cfg.LogFormat = format
		cfg.Partitions = w.partitions
		cfg.AdjacencyCacheSize = w.cacheSize
		cfg.EvaluationTimeout = w.timeout

		config, err := app.NewConfig(cfg)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		slog.Debug("Graph path determined.", "path", config.GraphPath)
		inv = &Invocation{Mode: mode, Config: config}
		return nil
	}

	rootCmd := &cobra.Command{
		Use:   "burstgraph",
		Short: "A pull-based graph traversal engine.",
		Long: `burstgraph loads a graph and its traversals from HCL files and evaluates
the traversals lazily, one traverser at a time. Traversals run once from the
command line or on demand behind an HTTP and socket.io server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	rootCmd.PersistentFlags().StringVar(&global.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	var runFlags workspaceFlags
	var traversal string
	runCmd := &cobra.Command{
		Use:   "run [GRAPH_PATH]",
		Short: "Run traversals once and print their results as JSON lines.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(ModeRun, &runFlags, args, app.Config{Traversal: traversal})
		},
	}
	runFlags.register(runCmd, 0)
	runCmd.Flags().StringVarP(&traversal, "traversal", "t", "", "Name of the traversal to run. Empty runs all of them.")

	var serveFlags workspaceFlags
	var port int
	serveCmd := &cobra.Command{
		Use:   "serve [GRAPH_PATH]",
		Short: "Serve traversals over HTTP and socket.io.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(ModeServe, &serveFlags, args, app.Config{ServerPort: port})
		},
	}
	serveFlags.register(serveCmd, DefaultEvaluationTimeout)
	serveCmd.Flags().IntVar(&port, "port", DefaultServerPort, "Port of the HTTP and socket.io server.")

	rootCmd.AddCommand(runCmd, serveCmd)
	if args == nil {
		// cobra reads os.Args for a nil slice.
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(output)
	rootCmd.SetErr(output)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		slog.Debug("No command selected, help printed.")
		return nil, true, nil
	}
	slog.Debug("CLI parser finished successfully.", "mode", inv.Mode, "config", inv.Config)
	return inv, false, nil
}
