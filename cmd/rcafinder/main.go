package main

import (
	"fmt"
	"os"

	"github.com/opsrca/rcafinder/internal/adapters/driven/config/file"
	"github.com/opsrca/rcafinder/internal/adapters/driven/embedding/gemini"
	"github.com/opsrca/rcafinder/internal/adapters/driven/embedding/ollama"
	geminigen "github.com/opsrca/rcafinder/internal/adapters/driven/llm/gemini"
	"github.com/opsrca/rcafinder/internal/adapters/driven/storage/sqlite"
	"github.com/opsrca/rcafinder/internal/adapters/driving/cli"
	"github.com/opsrca/rcafinder/internal/connectors/confluence"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/core/services"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString(file.KeyDataDir))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close() //nolint:errcheck // best-effort close on exit

	source := confluence.NewClient(
		cfg.GetString(file.KeyConfluenceBaseURL),
		cfg.GetString(file.KeyConfluenceToken),
	)
	embedder := buildEmbedder(cfg)
	generator := geminigen.NewProvider(geminigen.Config{
		APIKey: cfg.GetString(file.KeyGeminiAPIKey),
		Model:  cfg.GetString(file.KeyGenerationModel),
	})

	var trackerOpts []services.TrackerOption
	if size := cfg.GetInt(file.KeyChunkSize); size > 0 {
		trackerOpts = append(trackerOpts, services.WithChunking(size, cfg.GetInt(file.KeyChunkOverlap)))
	}
	tracker := services.NewPageTracker(
		source,
		embedder,
		store.PageStore(),
		store.ParsedRCAStore(),
		store.ChunkStore(),
		trackerOpts...,
	)
	orchestrator := services.NewSyncOrchestrator(tracker, store.SyncRunStore())

	var retrievalOpts []services.RetrievalOption
	if min := cfg.GetFloat(file.KeyMinSimilarity); min > 0 {
		retrievalOpts = append(retrievalOpts, services.WithMinSimilarity(min))
	}
	retrieval := services.NewRetrievalService(
		embedder,
		store.ChunkStore(),
		store.PageStore(),
		store.ParsedRCAStore(),
		retrievalOpts...,
	)

	cli.Configure(orchestrator, retrieval, generator, cfg, version)
	return cli.Execute()
}

// buildEmbedder selects the embedding provider from config. Gemini is
// the default; "ollama" switches to a local Ollama instance.
func buildEmbedder(cfg driven.ConfigStore) driven.EmbeddingProvider {
	switch cfg.GetString(file.KeyEmbeddingProvider) {
	case "ollama":
		return ollama.NewProvider(ollama.Config{
			BaseURL: cfg.GetString(file.KeyEmbeddingBaseURL),
			Model:   cfg.GetString(file.KeyEmbeddingModel),
		})
	default:
		return gemini.NewProvider(gemini.Config{
			APIKey: cfg.GetString(file.KeyGeminiAPIKey),
			Model:  cfg.GetString(file.KeyEmbeddingModel),
		})
	}
}
