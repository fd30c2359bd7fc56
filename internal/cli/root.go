// Package cli implements the vocabdrill command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vocabdrill/internal/config"
	"github.com/example/vocabdrill/internal/database"
	"github.com/example/vocabdrill/internal/session"
)

// Options holds the process dependencies of the command line
type Options struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	EnvFile string           // dotenv file, ".env" when empty
	Now     func() time.Time // review clock, time.Now when nil
}

type app struct {
	opts Options

	cfgFile string
	verbose bool
	noStore bool

	cfg    *config.Config
	logger *slog.Logger
	store  *database.Store
	svc    *session.Service
}

// Execute runs the command line with the process arguments and exits on error.
// This is called by main.main().
func Execute() {
	if err := Run(context.Background(), os.Args[1:], Options{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Run executes one command line invocation and releases the store afterwards
func Run(ctx context.Context, args []string, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &app{opts: opts}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vocabdrill",
		Short: "Spaced repetition drills for vocabulary",
		Long: `vocabdrill schedules vocabulary reviews with the SM-2 algorithm.
Grades from 0 to 5 move each word's next review further out or back to tomorrow,
and results are kept in a local SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().BoolVar(&a.noStore, "no-store", false, "Run without persistence")

	root.AddCommand(
		a.initCommand(),
		a.gradeCommand(),
		a.dueCommand(),
		a.listCommand(),
		a.statsCommand(),
		a.reviewCommand(),
		a.importCommand(),
		a.settingCommand(),
		a.serveCommand(),
	)
	return root
}

// setup loads the configuration, builds the logger and opens the store.
// An unavailable store is logged and the service runs without persistence.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{File: a.cfgFile, EnvFile: a.opts.EnvFile})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	level, _ := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	algo, err := cfg.Algorithm()
	if err != nil {
		return err
	}

	var store session.Store
	if !a.noStore && !cfg.Database.Disabled {
		st, err := database.Open(cmd.Context(), cfg.StoreConfig(a.logger))
		switch {
		case err == nil:
			a.store = st
			store = st
		case errors.Is(err, database.ErrStoreUnavailable):
			a.logger.Warn("store unavailable, running without persistence", "error", err)
		default:
			return err
		}
	}

	a.svc = session.NewService(store,
		session.WithAlgorithm(algo),
		session.WithClock(a.opts.Now),
		session.WithLogger(a.logger),
	)
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil && a.logger != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}
