package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestReprocess bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [page-id]",
	Short: "Ingest a single Confluence page",
	Long: `Fetches one page by ID and runs the full parse, chunk and embed
pipeline on it. With --reprocess the page must already be tracked; it is
re-fetched and its parsed sections and chunks are regenerated.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestCmd,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReprocess, "reprocess", false, "re-run the pipeline on an already-tracked page")
	rootCmd.AddCommand(ingestCmd)
}

func runIngestCmd(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	pageID := args[0]
	ctx := context.Background()

	if ingestReprocess {
		if err := ingestionService.ProcessPage(ctx, pageID); err != nil {
			return fmt.Errorf("failed to reprocess page %s: %w", pageID, err)
		}
		cmd.Printf("Page %s reprocessed.\n", pageID)
		return nil
	}

	if err := ingestionService.IngestPage(ctx, pageID); err != nil {
		return fmt.Errorf("failed to ingest page %s: %w", pageID, err)
	}
	cmd.Printf("Page %s ingested.\n", pageID)
	return nil
}
