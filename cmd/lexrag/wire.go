package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/custodia-labs/lexrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/core/services"
	"github.com/custodia-labs/lexrag/internal/loaders"
	"github.com/custodia-labs/lexrag/internal/loaders/docx"
	"github.com/custodia-labs/lexrag/internal/loaders/html"
	"github.com/custodia-labs/lexrag/internal/loaders/pdf"
	"github.com/custodia-labs/lexrag/internal/loaders/plaintext"
	"github.com/custodia-labs/lexrag/internal/postprocessors/chunker"
)

// homeEnv overrides the data directory (config, index and library).
const homeEnv = "LEXRAG_HOME"

func run(ctx context.Context) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settings := services.NewSettingsService(store, ai.NewConfigValidator(), dir)
	registry := newLoaderRegistry()

	cli.SetVersion(version)
	cli.SetDependencies(cli.Dependencies{
		Settings: settings,
		OpenRAG:  newRAGOpener(settings, registry, sqlite.NewIndexStore()),
		Supports: registry.Supports,
	})

	return cli.Execute(ctx)
}

func dataDir() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return dir, nil
}

func newLoaderRegistry() *loaders.Registry {
	return loaders.NewRegistry(pdf.New(), docx.New(), html.New(), plaintext.New())
}

// newRAGOpener returns a cli.RAGOpener that builds a fresh service from the
// settings current at call time, so edits made by the settings commands apply.
func newRAGOpener(
	settings driving.SettingsService,
	registry driven.LoaderRegistry,
	store driven.IndexStore,
) cli.RAGOpener {
	return func(ctx context.Context, need cli.Need) (driving.RAGService, func(), error) {
		cfg, err := settings.Get()
		if err != nil {
			return nil, nil, fmt.Errorf("loading settings: %w", err)
		}
		if err := cfg.RAG.Validate(); err != nil {
			return nil, nil, err
		}

		chunk, err := chunker.New(
			chunker.WithChunkSize(cfg.RAG.ChunkSize),
			chunker.WithOverlap(cfg.RAG.ChunkOverlap),
		)
		if err != nil {
			return nil, nil, err
		}

		providers := &ai.Services{}
		if need >= cli.NeedEmbedding {
			providers, err = ai.Init(ctx, cfg, need >= cli.NeedGeneration)
			if err != nil {
				return nil, nil, err
			}
		}

		rag := services.NewRAGService(
			registry,
			chunk,
			providers.Embedding,
			vectormem.New(),
			services.RAGConfigFromSettings(cfg),
		)
		rag.SetIndexStore(store)
		if providers.LLM != nil {
			rag.SetLLMService(providers.LLM)
		}

		return rag, providers.Close, nil
	}
}
