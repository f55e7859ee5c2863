package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"itd/internal/config"
	"itd/internal/discovery"
	"itd/internal/storage"
	"itd/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	source    *testSource
	filter    *discovery.Filter
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	source *testSource,
	filter *discovery.Filter,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		source:    source,
		filter:    filter,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	tests, err := lc.source.list(cmd.Context())
	if err != nil {
		return err
	}

	tests = lc.filter.FilterByKey(tests, lc.config.Flags.Filter)

	if len(tests) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	// Mark tests that failed in the last run; no stored results is fine
	var failedKeys map[string]struct{}
	if output, err := lc.storage.Load(); err == nil {
		failedKeys = storage.FailedKeys(output)
	}

	return lc.formatter.PrintTestList(tests, lc.config.Flags.ShowDescriptions, failedKeys)
}
