package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/cardgate/internal/core/config"
	"github.com/vietddude/cardgate/internal/infra/gateway"
	"github.com/vietddude/stylelog"
)

// rootOptions is the state shared by every subcommand.
type rootOptions struct {
	cfgPath string
	isDebug bool

	cfg *config.AppConfig
	app *app
	out io.Writer
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:           "cardgate",
		Short:         "Card API gateway client",
		Long:          `cardgate calls the card API gateway with retries, per-call timeouts and classified errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.isDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newHealthCmd(opts),
		newCardCmd(opts),
		newImportCmd(opts),
		newAdminCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd, opts
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd, opts := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_ = opts.close()
		logFailure(err)
		os.Exit(1)
	}
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	_ = godotenv.Load()
	o.out = cmd.OutOrStdout()

	cfg, err := config.LoadOrDefault(o.cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return fmt.Errorf("failed to load config: %w", err)
	}
	o.cfg = cfg

	slogLevel := slog.LevelInfo
	if o.isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	initLogging(slogLevel, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

// initLogging installs the default logger. "json" selects machine-readable
// output; anything else uses the colored text handler.
func initLogging(level slog.Level, format string, w io.Writer) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

// application builds the gateway client and job store on first use.
func (o *rootOptions) application() (*app, error) {
	if o.app != nil {
		return o.app, nil
	}
	a, err := newApp(o.cfg)
	if err != nil {
		return nil, err
	}
	o.app = a
	return a, nil
}

func (o *rootOptions) close() error {
	if o.app == nil {
		return nil
	}
	return o.app.Close()
}

func logFailure(err error) {
	if gwErr, ok := gateway.AsError(err); ok {
		slog.Error("Gateway call failed",
			"kind", gwErr.Kind,
			"status", gwErr.Status,
			"request_id", gwErr.RequestID,
			"error", gwErr.Message,
		)
		return
	}
	slog.Error("Command failed", "error", err)
}
