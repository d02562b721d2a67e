package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"expensetracker/internal/backend"
	"expensetracker/internal/buildinfo"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	cfg      *config.Config
	dbPath   string
	backend  string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{cfg: config.Load()}

	rootCmd := &cobra.Command{
		Use:     "expensetracker",
		Short:   "Track personal income and expenses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.dbPath, "db", a.cfg.SQLiteDBPath, "SQLite database path")
	flags.StringVar(&a.backend, "backend", a.cfg.DataBackend, "storage backend (sqlite or memory)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newEditCommand(a),
		newDeleteCommand(a),
		newShareCommand(a),
		newSummaryCommand(a),
		newExportCommand(a),
		newWatchCommand(a),
	)

	return rootCmd
}

// withService opens the configured backend for the duration of fn.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *services.TransactionService) error) error {
	level, err := config.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	applog.SetDefault(logger)

	cfg := backend.Config{
		Type:         backend.BackendType(a.backend),
		SQLiteDBPath: a.dbPath,
		AMQPURL:      a.cfg.AMQPURL,
		AMQPExchange: a.cfg.AMQPExchange,
		AMQPQueue:    a.cfg.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := applog.WithLogger(cmd.Context(), logger)
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}()

	return fn(ctx, res.Service)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", arg)
	}
	return id, nil
}

func filterFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "filter", core.FilterOverall, "Overall, Income or Expense")
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
