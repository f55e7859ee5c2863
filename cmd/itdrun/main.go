package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"itd/internal/cli"
	"itd/internal/cli/commands"
	"itd/internal/config"
	"itd/internal/logging"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Create initial config with defaults; replaced once --config is parsed
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// The level is applied globally after the config is loaded
	logger := logging.NewWithComponent(logging.Config{
		Level:  "trace",
		Pretty: true,
		Output: os.Stderr,
	}, "itdrun")

	rootCmd := &cobra.Command{
		Use:     "itdrun",
		Short:   "Parallel orchestrator for index based test dispatchers",
		Long:    `Lists the tests an itd dispatcher exposes and runs each index in its own process, in parallel, keeping the failures for later inspection.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flags.ConfigFile)
			if err != nil {
				return err
			}
			*cfg = *loaded

			level := cfg.LogLevel
			if flags.LogLevel != "" {
				level = flags.LogLevel
			}
			zerolog.SetGlobalLevel(logging.ParseLevel(level))
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to the YAML config file (default <project>/itd.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")

	// Create commands with dependencies and register them
	cmds := commands.NewCommands(cfg, logger)
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, commands.ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
