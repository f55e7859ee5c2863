package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"itd/internal/config"
	"itd/internal/discovery"
	"itd/internal/dispatch"
	"itd/internal/harness"
	"itd/internal/logging"
	"itd/internal/suites"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code; it is the only place dispatch results become a status.
func run(args []string) int {
	cfg, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.NewWithComponent(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	}, "itd")

	registry := discovery.Discover(suites.Declaration())
	dispatcher := dispatch.New(registry, harness.NewRunner(logger), os.Stdout, logger)

	code := 1
	rootCmd := &cobra.Command{
		Use:   "itd [index]",
		Short: "Index based test dispatcher",
		Long: `Lists the registered tests, or runs the test at the given index.

Without arguments (or with more than one) every test is printed and the exit
status is the number of tests. With a single integer argument only that test
runs and the exit status is its failure count.`,
		Args: cobra.ArbitraryArgs,
		// Every argument is positional: "-1" is an index, not a flag.
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		Run: func(cmd *cobra.Command, args []string) {
			code = dispatcher.Main(cmd.Context(), args)
		},
	}
	rootCmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Debug().Err(err).Msg("command failed")
		return 1
	}
	return code
}
