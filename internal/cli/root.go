package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aryankumar/batchexec/internal/config"
	"github.com/aryankumar/batchexec/internal/executor"
)

// app carries state shared by subcommands once the root pre-run has loaded
// configuration
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	// logOut receives log records, stderr unless a test overrides it
	logOut io.Writer
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	a := &app{logOut: os.Stderr}

	rootCmd := &cobra.Command{
		Use:   "batchexec",
		Short: "batchexec - bounded-concurrency task executor",
		Long: `batchexec runs batches of independent tasks on dedicated bounded pools
with a wall-clock timeout, in fail-fast or fail-soft mode, and serves a small
HTTP shell that fans requests out through a shared executor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	// Define persistent flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.batchexec.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Duration("timeout", executor.DefaultTimeout, "batch timeout")
	rootCmd.PersistentFlags().IntP("parallel", "p", 0, "dedicated pool size per batch (0 means 2x CPU)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", completeOutputFormat)

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newServeCmd(a))

	return rootCmd
}

// initConfig loads configuration, applies flag overrides and sets up logging
func (a *app) initConfig(cmd *cobra.Command) error {
	mgr := config.NewManager(a.cfgFile)

	// Flags win over file and environment, but only when set explicitly
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		mgr.Set("batch.timeout", d)
	}
	if flags.Changed("parallel") {
		n, _ := flags.GetInt("parallel")
		mgr.Set("batch.poolSize", n)
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		mgr.Set("log.level", "debug")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		mgr.Set("log.format", "json")
	}

	cfg, err := mgr.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = setupLogging(a.logOut, cfg.Log)
	a.logger.Debug("loaded configuration",
		"batch_timeout", cfg.Batch.Timeout,
		"batch_pool_size", cfg.Batch.PoolSize,
		"shared_workers", cfg.Shared.Workers)

	return nil
}

// setupLogging configures structured logging with slog and makes it the default
func setupLogging(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
