// Package cli implements the cobra command tree that drives the core
// services. Services are injected by main via Configure; every command
// nil-checks what it needs so `help` and `version` still work when
// wiring fails.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/core/ports/driving"
	"github.com/opsrca/rcafinder/internal/logger"
)

// Injected by main at startup.
var (
	ingestionService   driving.IngestionService
	searchService      driving.SearchService
	generationProvider driven.GenerationProvider
	configStore        driven.ConfigStore
)

// version is set from main via Configure (ldflags at build time).
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "rcafinder",
	Short: "Search incident postmortems by symptom",
	Long: `rcafinder ingests incident postmortem pages from Confluence, extracts
their symptoms, root cause and resolution sections, embeds them, and
answers natural-language queries against the indexed corpus.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Configure injects the wired services. Call before Execute.
func Configure(
	ingest driving.IngestionService,
	search driving.SearchService,
	gen driven.GenerationProvider,
	cfg driven.ConfigStore,
	ver string,
) {
	ingestionService = ingest
	searchService = search
	generationProvider = gen
	configStore = cfg
	if ver != "" {
		version = ver
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
