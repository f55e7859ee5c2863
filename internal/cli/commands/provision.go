package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"itd/internal/config"
)

// Provisioner prepares one database per worker
type Provisioner interface {
	CheckAndCreateDatabases(ctx context.Context, workerCount int, fresh bool) ([]string, error)
}

// ProvisionCommand handles the provision command
type ProvisionCommand struct {
	config      *config.Config
	provisioner Provisioner
}

// NewProvisionCommand creates a new ProvisionCommand
func NewProvisionCommand(cfg *config.Config, provisioner Provisioner) *ProvisionCommand {
	return &ProvisionCommand{
		config:      cfg,
		provisioner: provisioner,
	}
}

// Execute runs the command
func (pc *ProvisionCommand) Execute(cmd *cobra.Command, args []string) error {
	return pc.provision(cmd.Context())
}

func (pc *ProvisionCommand) provision(ctx context.Context) error {
	workerCount := pc.config.Processors
	created, err := pc.provisioner.CheckAndCreateDatabases(ctx, workerCount, !pc.config.Flags.NoFresh)
	if err != nil {
		return fmt.Errorf("provision databases: %w", err)
	}

	color.Green("✓ %d worker database(s) ready (%d created)", workerCount, len(created))
	return nil
}
