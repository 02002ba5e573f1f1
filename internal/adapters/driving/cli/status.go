package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the status of a sync run",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	run, err := ingestionService.GetSyncStatus(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status for run %s: %w", args[0], err)
	}

	printRun(cmd, run)
	return nil
}
