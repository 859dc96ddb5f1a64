package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/career-counselor/internal/config"
	"github.com/suPer8Hu/career-counselor/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// loadConfig reads .env (if present) and the environment, then applies flag overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "counselor",
		Short:         "Career counselor chat core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "log format (console or json)")

	root.AddCommand(newServeCmd(opts), newDemoCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("counselor failed")
		os.Exit(1)
	}
}
