package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"itd/internal/cli"
	"itd/internal/config"
	"itd/internal/discovery"
	"itd/internal/execution"
	"itd/internal/parser"
	"itd/internal/provision"
	"itd/internal/storage"
	"itd/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Run       *RunCommand
	List      *ListCommand
	Provision *ProvisionCommand
	Failures  *FailuresCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config, logger zerolog.Logger) *Commands {
	runner := execution.NewRunner(cfg, logger)
	return newCommands(cfg, runner, provision.NewDatabaseManager(cfg, logger), ui.NewFormatter(cfg), logger)
}

func newCommands(cfg *config.Config, dispatcher Dispatcher, provisioner Provisioner, formatter *ui.Formatter, logger zerolog.Logger) *Commands {
	dispatchParser := parser.NewDispatchParser()
	source := &testSource{dispatcher: dispatcher, parser: dispatchParser, log: logger}
	filter := discovery.NewFilter()
	scheduler := execution.NewRoundRobinScheduler()
	executor := execution.NewWorkerPool(cfg, dispatcher, scheduler, dispatchParser, logger)
	jsonStorage := storage.NewJSONStorage(cfg)
	errorViewer := ui.NewErrorViewer(jsonStorage, &dispatchRerunner{source: source})
	provisionCmd := NewProvisionCommand(cfg, provisioner)

	return &Commands{
		Run:       NewRunCommand(cfg, source, filter, executor, dispatchParser, jsonStorage, formatter, provisionCmd, errorViewer, logger),
		List:      NewListCommand(cfg, source, filter, formatter, jsonStorage),
		Provision: provisionCmd,
		Failures:  NewFailuresCommand(cfg, jsonStorage, errorViewer),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	applyFlags := func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing
		cfg.ApplyFlags(flags.ToConfigFlags())
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:     "run",
		Short:   "Dispatch tests in parallel",
		Long:    "List the dispatcher's tests and run each index in its own dispatcher process using parallel workers",
		Args:    cobra.NoArgs,
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors to use (default from config)")
	runCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Filter tests by key pattern (supports wildcards, e.g., '*Text_*' or 'suites.Arithmetic_*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first test failure")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Timeout for a single test (default from config)")
	runCmd.Flags().BoolVar(&flags.ProvisionDB, "provision-db", false, "Create worker databases before executing tests")
	runCmd.Flags().BoolVar(&flags.NoFresh, "no-fresh", false, "Keep existing worker databases when provisioning")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only tests that failed in the last run (from storage/itd-results.json)")
	runCmd.Flags().BoolVar(&flags.RerunFailures, "rerun-failures", false, "After running all tests, rerun only failed ones once and save that result")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List dispatchable tests",
		Long:    "Ask the dispatcher for its tests and print them grouped by class without executing them",
		Args:    cobra.NoArgs,
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Filter tests by key pattern (supports wildcards, e.g., '*Text_*' or 'suites.Arithmetic_*')")
	listCmd.Flags().BoolVarP(&flags.ShowDescriptions, "descriptions", "c", false, "Show test descriptions")
	rootCmd.AddCommand(listCmd)

	// Provision command
	provisionCmd := &cobra.Command{
		Use:     "provision",
		Short:   "Create the test databases for all workers",
		Long:    "Create one MySQL database per worker, dropping existing ones unless --no-fresh is set",
		Args:    cobra.NoArgs,
		RunE:    c.Provision.Execute,
		PreRunE: applyFlags,
	}
	provisionCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors/workers to use (default from config)")
	provisionCmd.Flags().BoolVar(&flags.NoFresh, "no-fresh", false, "Keep existing worker databases")
	rootCmd.AddCommand(provisionCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "View test failures interactively",
		Long:    "Display test failures from the last test run in an interactive viewer",
		Args:    cobra.NoArgs,
		RunE:    c.Failures.Execute,
		PreRunE: applyFlags,
	}
	rootCmd.AddCommand(failuresCmd)
}
