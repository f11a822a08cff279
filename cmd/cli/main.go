package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/taxease/internal/app"
	"github.com/dvloznov/taxease/internal/config"
	"github.com/dvloznov/taxease/internal/logger"
)

var (
	envFile  string
	logLevel string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "taxease",
	Short:         "TaxEase command line tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		cfg = c
		log = logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Console: true})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newParseCmd(), newIngestCmd(), newIndexCmd(), newAskCmd(), newExportedCmd(), newInitDBCmd())
}

// openApp wires the full component set for commands that need storage or
// the knowledge index.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorf("Error: %v\n", err)
		os.Exit(1)
	}
}

func errorf(format string, args ...any) {
	errColor.Fprintf(os.Stderr, format, args...)
}
