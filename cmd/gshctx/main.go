package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinylittleshell/gshctx/internal/config"
	gshctx "github.com/atinylittleshell/gshctx/internal/context"
	"github.com/atinylittleshell/gshctx/internal/core"
	"github.com/atinylittleshell/gshctx/internal/history"
	"github.com/atinylittleshell/gshctx/internal/metrics"
	"github.com/atinylittleshell/gshctx/internal/shell"
	"github.com/atinylittleshell/gshctx/internal/styles"
	"github.com/atinylittleshell/gshctx/internal/tokens"
)

var BUILD_VERSION = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cleanup := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(1)
	}
}

// app holds the services shared by the subcommands. They are built on first
// use so that `version` and `--help` touch nothing on disk.
type app struct {
	configPath string

	cfg      *config.Config
	logger   *zap.Logger
	history  *history.HistoryManager
	metrics  *metrics.Metrics
	session  *shell.Session
	terminal *gshctx.TerminalProvider
	context  *gshctx.Provider
}

// newRootCmd builds the command tree. The returned cleanup releases the
// services a command started and must run after Execute.
func newRootCmd(in io.Reader, out, errOut io.Writer) (*cobra.Command, func()) {
	a := &app{}

	root := &cobra.Command{
		Use:   "gshctx",
		Short: "Run shell commands and turn their output into LLM context",
		Long: `gshctx runs shell commands in a persistent shell session and wraps their
output as context items for LLM prompts.

Commands run one at a time in the same shell, so the working directory and
exported variables carry over between them. Destructive commands such as rm
and sudo are always refused.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.gshctx/config.yaml)")

	root.AddCommand(
		newRunCmd(a),
		newReplCmd(a),
		newHistoryCmd(a),
		newContextCmd(a),
		newVersionCmd(),
	)
	return root, a.close
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
		},
	}
}

// setup loads config and builds every service. It is safe to call more than
// once.
func (a *app) setup(errOut io.Writer) error {
	if a.terminal != nil {
		return nil
	}

	loader := config.NewLoader(nil)
	var (
		result *config.LoadResult
		err    error
	)
	if a.configPath != "" {
		result, err = loader.LoadFromFile(a.configPath)
	} else {
		result, err = loader.LoadDefaultConfigPath()
	}
	if err != nil {
		return err
	}
	for _, cfgErr := range result.Errors {
		fmt.Fprintln(errOut, styles.ERROR("config: "+cfgErr.Error()))
	}
	a.cfg = result.Config

	a.logger, err = initializeLogger(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger.Info("-------- new gshctx session --------", zap.Any("args", os.Args))

	a.history, err = history.NewHistoryManager(core.HistoryFile())
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	a.metrics = metrics.New()
	a.session = newSession(a.cfg, a.logger, a.metrics)

	a.terminal = gshctx.NewTerminalProvider(a.session, gshctx.TerminalOptions{
		Disabled:  a.cfg.Disabled,
		Directory: a.cfg.WorkingDir,
		History:   a.history,
		Counter:   initializeCounter(a.logger),
		Logger:    a.logger,
	})

	a.context = gshctx.NewProvider(a.logger,
		gshctx.NewWorkingDirectoryRetriever(a.session),
		gshctx.NewSystemInfoRetriever(),
		gshctx.NewGitStatusRetriever(a.session, a.logger),
		gshctx.NewTerminalHistoryRetriever(a.history, a.cfg.HistoryLimit),
	)
	return nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.history != nil {
		a.history.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevelAt(cfg.Level())
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}
	// Use `tail -f ~/.gshctx/gshctx.log` to monitor logs in real-time

	return loggerConfig.Build()
}

func initializeCounter(logger *zap.Logger) tokens.Counter {
	counter, err := tokens.NewTiktokenCounter(tokens.DefaultEncoding)
	if err != nil {
		logger.Warn("token counting unavailable, sizes will be estimated", zap.Error(err))
		return tokens.CounterFunc(func(text string) (int, error) {
			return (len(text) + 3) / 4, nil
		})
	}
	return counter
}

func newSession(cfg *config.Config, logger *zap.Logger, observer shell.Observer) *shell.Session {
	opts := shell.Options{
		Shell:    cfg.Shell,
		Args:     cfg.ShellArgs,
		Dir:      cfg.WorkingDir,
		Timeout:  cfg.Timeout,
		Disabled: cfg.Disabled,
		Denylist: cfg.BuildDenylist(),
		Logger:   logger,
		Observer: observer,
	}
	if cfg.Shell != "" {
		opts.Dialect = shell.DialectFor(cfg.Shell)
	}
	return shell.New(opts)
}
