// Command regtrack indexes and queries electricity regulatory commission
// orders. It wires the storage, extraction, embedding, and LLM adapters
// into the core services and hands them to the CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	configfile "github.com/gridwise-labs/regtrack/internal/adapters/driven/config/file"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/embedding/ollama"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/extract/pdftotext"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/index/summary"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/index/vector"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/gridwise-labs/regtrack/internal/adapters/driven/llm/ollama"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/scrape"
	storagefile "github.com/gridwise-labs/regtrack/internal/adapters/driven/storage/file"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/storage/sqlite"
	"github.com/gridwise-labs/regtrack/internal/adapters/driven/watch"
	"github.com/gridwise-labs/regtrack/internal/adapters/driving/cli"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/services"
	"github.com/gridwise-labs/regtrack/internal/logger"
	"github.com/gridwise-labs/regtrack/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	store, err := newArtifactStore(config)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}
	defer store.Close()

	cache := services.NewCache(store)
	admin := services.NewAdmin(store, cache)

	embedder := ollama.NewEmbeddingService(ollama.Config{
		BaseURL: config.GetString(configfile.KeyEmbeddingURL),
		Model:   config.GetString(configfile.KeyEmbeddingModel),
	})
	vectorBuilder := vector.NewBuilder(embedder)

	llm, err := newLLMService(config)
	if err != nil {
		return err
	}
	summaryBuilder := summary.NewBuilder(llm)

	if err := pdftotext.CheckAvailable(); err != nil {
		logger.Warn("%v\n%s", err, pdftotext.InstallInstructions())
	}
	extractor := pdftotext.New()

	var chunkOpts []chunker.Option
	if size := config.GetInt(configfile.KeyChunkSize); size > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(size))
	}
	if overlap := config.GetInt(configfile.KeyChunkOverlap); overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(overlap))
	}
	chunk := chunker.New(chunkOpts...)

	downloadsDir, err := resolveDownloadsDir(config)
	if err != nil {
		return err
	}

	// The fetcher is optional: without a listing URL, sync only walks
	// the downloads directory.
	var fetcher driven.OrderFetcher
	if listingURL := config.GetString(configfile.KeyScrapeURL); listingURL != "" {
		f, err := scrape.NewFetcher(scrape.Config{
			ListingURL:   listingURL,
			DownloadsDir: downloadsDir,
		})
		if err != nil {
			return fmt.Errorf("failed to create order fetcher: %w", err)
		}
		fetcher = f
	}

	pipeline := services.NewPipeline(cache, extractor, chunk, vectorBuilder, summaryBuilder, fetcher, downloadsDir)

	var queryOpts []services.QueryOption
	if topK := config.GetInt(configfile.KeyQueryTopK); topK > 0 {
		queryOpts = append(queryOpts, services.WithTopK(topK))
	}
	query := services.NewQuery(cache, vectorBuilder, summaryBuilder, llm, queryOpts...)

	watcher, err := watch.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create directory watcher: %w", err)
	}
	defer watcher.Stop()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Pipeline:     pipeline,
		Query:        query,
		Admin:        admin,
		Config:       config,
		Watcher:      watcher,
		DownloadsDir: downloadsDir,
	})

	return cli.Execute()
}

// newArtifactStore opens the configured storage backend, defaulting to the
// file store under ~/.regtrack/store.
func newArtifactStore(config driven.ConfigStore) (driven.ArtifactStore, error) {
	dir := config.GetString(configfile.KeyStorageDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".regtrack", "store")
	}

	backend := config.GetString(configfile.KeyStorageBackend)
	switch backend {
	case "sqlite":
		store, err := sqlite.NewStore(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "file":
		store, err := storagefile.NewStore(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file or sqlite)", backend)
	}
}

// newLLMService builds the configured LLM provider. The LLM is optional:
// with neither a Gemini key nor an explicit provider, answers fall back to
// raw retrieved context and summaries to pre-built abstracts.
func newLLMService(config driven.ConfigStore) (driven.LLMService, error) {
	provider := config.GetString(configfile.KeyLLMProvider)
	model := config.GetString(configfile.KeyLLMModel)

	switch provider {
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{Model: model}), nil
	case "", "gemini":
		key := config.GetString(configfile.KeyLLMAPIKey)
		if key == "" {
			if provider == "gemini" {
				return nil, fmt.Errorf("llm.provider is gemini but llm.api_key is not set")
			}
			return nil, nil
		}
		svc, err := gemini.NewLLMService(gemini.Config{APIKey: key, Model: model})
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM service: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want gemini or ollama)", provider)
	}
}

func resolveDownloadsDir(config driven.ConfigStore) (string, error) {
	if dir := config.GetString(configfile.KeyDownloadsDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".regtrack", "downloads"), nil
}
