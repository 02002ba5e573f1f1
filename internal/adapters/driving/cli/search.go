package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsrca/rcafinder/internal/adapters/driven/config/file"
	"github.com/opsrca/rcafinder/internal/core/domain"
)

var (
	searchMode    string
	searchTopK    int
	searchSummary bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search postmortems for a symptom or error",
	Long: `Embeds the query and retrieves the closest postmortem passages.

Available modes:
  semantic   - rank purely by vector similarity (default)
  symptoms   - match against symptom passages only
  rootcause  - match against root-cause passages only
  hybrid     - vector similarity blended with a keyword boost`,
	Args: cobra.ExactArgs(1),
	RunE: runSearchCmd,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(domain.SearchModeSemantic), "retrieval mode")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results, 0 for the configured default")
	searchCmd.Flags().BoolVar(&searchSummary, "summary", false, "generate a suggested root cause from the results")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := args[0]
	topK := searchTopK
	if topK == 0 && configStore != nil {
		topK = configStore.GetInt(file.KeyTopK)
	}

	ctx := context.Background()
	results, err := searchService.Search(ctx, query, topK, domain.SearchMode(searchMode))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No matching postmortems found.")
		return nil
	}

	printResults(cmd, results)
	cmd.Printf("Confidence: %s\n", domain.ClassifyConfidence(results))

	if searchSummary {
		return printSummary(ctx, cmd, query, results)
	}
	return nil
}

func printResults(cmd *cobra.Command, results []domain.RankedResult) {
	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.Page.Title
		if title == "" {
			title = r.Page.PageID
		}
		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, title, r.Score, r.Chunk.ChunkType)
		if r.RCA != nil && r.RCA.RootCause != "" {
			cmd.Printf("      Root cause: %s\n", r.RCA.RootCause)
		}
		if r.RCA != nil && r.RCA.Resolution != "" {
			cmd.Printf("      Resolution: %s\n", r.RCA.Resolution)
		}
		if r.Page.URL != "" {
			cmd.Printf("      %s\n", r.Page.URL)
		}
		cmd.Println()
	}
}

func printSummary(ctx context.Context, cmd *cobra.Command, query string, results []domain.RankedResult) error {
	if generationProvider == nil {
		return errors.New("generation provider not configured")
	}

	passages := make([]string, 0, len(results))
	for i := range results {
		passages = append(passages, results[i].Chunk.Content)
	}

	summary, err := generationProvider.Summarize(ctx, query, passages)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	cmd.Printf("Suggested root cause (%s):\n", generationProvider.ModelName())
	cmd.Println(strings.TrimSpace(summary))
	return nil
}
