package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsrca/rcafinder/internal/adapters/driven/config/file"
	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driving"
)

var (
	syncIncremental bool
	syncSpaces      []string
	syncTags        []string
	syncLimit       int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Crawl Confluence spaces and index postmortems",
	Long: `Starts a sync run against the configured Confluence spaces and polls
its progress until it completes. With --incremental, only pages modified
since the previous completed run are re-ingested. Spaces and tags default
to the values in the config file.`,
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().BoolVar(&syncIncremental, "incremental", false, "only ingest pages modified since the last run")
	syncCmd.Flags().StringArrayVar(&syncSpaces, "space", nil, "space key to crawl (repeatable, defaults to config)")
	syncCmd.Flags().StringArrayVar(&syncTags, "tag", nil, "only ingest pages carrying this label (repeatable)")
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "cap pages fetched per space, 0 for no cap")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	spaces := syncSpaces
	tags := syncTags
	if len(spaces) == 0 && configStore != nil {
		spaces = configStore.GetStringSlice(file.KeySpaces)
	}
	if len(tags) == 0 && configStore != nil {
		tags = configStore.GetStringSlice(file.KeyTags)
	}
	if len(spaces) == 0 {
		return errors.New("no spaces configured: pass --space or set confluence.spaces")
	}

	syncType := domain.SyncTypeFull
	if syncIncremental {
		syncType = domain.SyncTypeIncremental
	}

	ctx := context.Background()
	run, err := ingestionService.StartSync(ctx, driving.SyncOptions{
		Spaces:   spaces,
		SyncType: syncType,
		Tags:     tags,
		Limit:    syncLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to start sync: %w", err)
	}

	cmd.Printf("Started %s sync %s over %d space(s).\n", run.SyncType, run.ID, len(run.Spaces))

	final, err := pollRun(ctx, cmd, run.ID)
	if err != nil {
		return err
	}

	printRun(cmd, final)
	if final.Status == domain.SyncRunFailed {
		return fmt.Errorf("sync %s failed: %s", final.ID, final.ErrorMessage)
	}
	return nil
}

// pollRun polls a run's status every 500ms until it reaches a terminal
// state, printing fetch progress along the way.
func pollRun(ctx context.Context, cmd *cobra.Command, runID string) (*domain.SyncRun, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastFetched := 0
	for {
		run, err := ingestionService.GetSyncStatus(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll sync %s: %w", runID, err)
		}
		if run.Terminal() {
			if lastFetched > 0 {
				cmd.Println()
			}
			return run, nil
		}
		if run.PagesFetched > lastFetched {
			cmd.Printf("\rFetched %d pages, processed %d", run.PagesFetched, run.PagesProcessed)
			lastFetched = run.PagesFetched
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// printRun writes a run snapshot in the format shared by sync and status.
func printRun(cmd *cobra.Command, run *domain.SyncRun) {
	cmd.Printf("Run:       %s\n", run.ID)
	cmd.Printf("Type:      %s\n", run.SyncType)
	cmd.Printf("Spaces:    %v\n", run.Spaces)
	cmd.Printf("Status:    %s\n", run.Status)
	cmd.Printf("Fetched:   %d\n", run.PagesFetched)
	cmd.Printf("Processed: %d\n", run.PagesProcessed)
	cmd.Printf("Failed:    %d\n", run.PagesFailed)
	cmd.Printf("Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.CompletedAt.IsZero() {
		cmd.Printf("Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	if run.ErrorMessage != "" {
		cmd.Printf("Error:     %s\n", run.ErrorMessage)
	}
}
