package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type cliOptions struct {
	configPath  string
	targets     string
	dryRun      bool
	listTargets bool
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "vaporz [path]",
		Short: "Find and remove build artifacts below a directory",
		Long: `vaporz walks a directory tree, recognizes projects by their marker files
(Cargo.toml, package.json, *.csproj, ...) and lists the build artifact
directories inside them with their size and age. Selected artifacts are
removed in the background while the list stays interactive.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return run(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "C", "", "config file (default is $XDG_CONFIG_HOME/vaporz/config.toml)")
	cmd.Flags().StringVar(&opts.targets, "targets", "", "comma-separated target names to scan for (default all)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report removals without deleting anything")
	cmd.Flags().BoolVar(&opts.listTargets, "list-targets", false, "print the effective targets and exit")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

func run(cmd *cobra.Command, root string, opts cliOptions) error {
	absRoot, err := resolveRootArg(root)
	if err != nil {
		return err
	}

	cfg, targets, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	if opts.listTargets {
		printTargets(cmd.OutOrStdout(), targets)
		return nil
	}

	logger, closer := newLogger(cfg.Log)
	if closer != nil {
		defer closer.Close() //nolint:errcheck
	}
	logger.Info("starting", "root", absRoot, "targets", len(targets), "dry_run", cfg.DryRun)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return runUI(ctx, absRoot, cfg, targets, logger)
}

// resolveRootArg turns the path argument into an absolute directory with
// every symlink resolved, so scanned paths and the removal guard agree.
func resolveRootArg(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", root)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", errors.Wrap(err, "open root")
	}
	if !info.IsDir() {
		return "", errors.Newf("%s is not a directory", absRoot)
	}
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", absRoot)
	}
	return resolved, nil
}

// resolveConfig loads the config file and applies command-line overrides.
func resolveConfig(opts cliOptions) (Config, []TargetSpec, error) {
	path, _ := resolveConfigPath(opts.configPath)
	cfg, err := loadConfig(path)
	if err != nil {
		return Config{}, nil, err
	}
	if opts.dryRun {
		cfg.DryRun = true
	}
	if opts.logLevel != "" {
		if !validLevel(opts.logLevel) {
			return Config{}, nil, errors.Newf("invalid log level %q: must be one of: debug, info, warn, error", opts.logLevel)
		}
		cfg.Log.Level = opts.logLevel
	}
	targets, err := cfg.EffectiveTargets(parseTargetList(opts.targets))
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, targets, nil
}

func printTargets(w io.Writer, targets []TargetSpec) {
	for _, target := range targets {
		fmt.Fprintf(w, "%-12s markers: %s  artifacts: %s\n",
			target.Name, strings.Join(target.Markers, ", "), strings.Join(target.Artifacts, ", "))
	}
}

func runUI(ctx context.Context, root string, cfg Config, targets []TargetSpec, logger *slog.Logger) error {
	fsys := afero.NewOsFs()

	pool, err := newWorkerPool(cfg.Workers, logger.With("component", "pool"))
	if err != nil {
		return err
	}
	defer pool.Release()

	input := newActionQueue()
	program := tea.NewProgram(newModel(input, root, len(targets)), tea.WithAltScreen(), tea.WithContext(ctx))
	engine := NewEngine(EngineOptions{
		Root:      root,
		Targets:   targets,
		Fs:        fsys,
		Pool:      pool,
		Populator: NewPopulator(fsys, cfg.MeasureConcurrency, logger.With("component", "metadata")),
		Renderer:  programRenderer{program: program},
		Logger:    logger,
		DryRun:    cfg.DryRun,
	})

	engineCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- engine.Run(engineCtx, input.Out()) }()

	_, runErr := program.Run()
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine stopped", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return errors.Wrap(runErr, "run program")
	}
	logger.Info("exiting")
	return nil
}
