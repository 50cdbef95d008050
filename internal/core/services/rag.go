package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// RAGConfig holds the runtime knobs of a RAGService.
type RAGConfig struct {
	// TopK is the number of chunks Ask retrieves.
	TopK int

	// IndexPath is where the index is persisted. Empty keeps it in memory only.
	IndexPath string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// RequestsPerSecond caps embedding calls during ingest.
	RequestsPerSecond float64

	// Concurrency is the number of embedding calls in flight during ingest.
	Concurrency int
}

// RAGConfigFromSettings derives the service configuration from app settings.
func RAGConfigFromSettings(s *domain.AppSettings) RAGConfig {
	return RAGConfig{
		TopK:              s.RAG.TopK,
		IndexPath:         s.Index.Path,
		Timeout:           s.Runtime.Timeout,
		RequestsPerSecond: s.Runtime.RequestsPerSecond,
		Concurrency:       s.Runtime.Concurrency,
	}
}

// RAGService wires loading, chunking, indexing, retrieval and answer synthesis.
// Builds are serialised; searches run lock-free against the current snapshot.
type RAGService struct {
	loaders   driven.LoaderRegistry
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	store     driven.IndexStore
	indexer   *Indexer
	retriever *Retriever
	synth     *Synthesizer
	cfg       RAGConfig

	mu     sync.Mutex
	loaded atomic.Bool
}

// NewRAGService creates a RAG service. embedder may be nil for commands that
// only inspect or clear the index.
func NewRAGService(
	loaders driven.LoaderRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg RAGConfig,
) *RAGService {
	s := &RAGService{
		loaders:  loaders,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
	if embedder != nil {
		s.indexer = NewIndexer(embedder,
			WithConcurrency(cfg.Concurrency),
			WithRateLimit(cfg.RequestsPerSecond),
			WithCallTimeout(cfg.Timeout),
		)
		s.retriever = NewRetriever(embedder, index, cfg.Timeout)
	}
	return s
}

// SetLLMService enables Ask.
func (s *RAGService) SetLLMService(llm driven.LLMService) {
	if llm == nil {
		s.synth = nil
		return
	}
	s.synth = NewSynthesizer(llm, s.cfg.Timeout)
}

// SetIndexStore enables persistence at cfg.IndexPath.
func (s *RAGService) SetIndexStore(store driven.IndexStore) {
	s.store = store
}

// Ingest loads, chunks and embeds sources, then installs a snapshot holding
// the previous entries plus the new ones. Re-ingesting a document replaces
// its earlier entries.
func (s *RAGService) Ingest(ctx context.Context, sources []string) (*domain.IngestResult, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrInvalidConfiguration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Ingest")
	logger.Debug("Sources: %d", len(sources))

	if err := s.ensureLoadedLocked(ctx); err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		return nil, err
	}

	result := &domain.IngestResult{}
	var chunks []domain.Chunk
	seen := make(map[string]struct{})

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.load(ctx, src)
		if err != nil {
			if errors.Is(err, domain.ErrSourceUnreadable) || errors.Is(err, domain.ErrUnsupportedType) {
				logger.Warn("Skipping %s: %v", src, err)
				result.Failed = append(result.Failed, domain.IngestFailure{Source: src, Err: err})
				continue
			}
			return nil, err
		}
		if _, dup := seen[doc.ID]; dup {
			logger.Debug("Skipping duplicate source %s", src)
			continue
		}
		seen[doc.ID] = struct{}{}

		docChunks, err := s.chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunking %s: %w", src, err)
		}
		logger.Debug("%s: %d pages, %d chunks", src, len(doc.Pages), len(docChunks))

		result.DocumentCount++
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		if s.index.Len() == 0 {
			return result, domain.ErrEmptyCorpus
		}
		logger.Info("No new chunks to index")
		return result, nil
	}

	entries, err := s.indexer.Build(ctx, chunks)
	if err != nil {
		return nil, err
	}

	merged, err := s.merge(entries, seen)
	if err != nil {
		return nil, err
	}

	meta := domain.IndexMetadata{
		Dimension:      len(entries[0].Vector),
		EmbeddingModel: s.embedder.ModelName(),
		BuiltAt:        time.Now(),
	}
	if err := s.persistLocked(ctx, &domain.IndexSnapshot{Metadata: meta, Entries: merged}); err != nil {
		return result, err
	}
	if err := s.index.Replace(ctx, merged, meta); err != nil {
		logger.Warn("Index at %s was saved but not loaded into memory: %v", s.cfg.IndexPath, err)
		return nil, err
	}
	result.ChunkCount = len(entries)

	logger.Info("Indexed %d documents, %d chunks (%d entries total)",
		result.DocumentCount, result.ChunkCount, len(merged))
	return result, nil
}

// load resolves the loader for src and reads it.
func (s *RAGService) load(ctx context.Context, src string) (*domain.Document, error) {
	loader, err := s.loaders.For(src)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, src)
}

// merge combines the current snapshot with fresh entries, dropping previous
// entries of re-ingested documents.
func (s *RAGService) merge(fresh []domain.IndexEntry, replaced map[string]struct{}) ([]domain.IndexEntry, error) {
	prev := s.index.Snapshot()
	if prev == nil || len(prev.Entries) == 0 {
		return fresh, nil
	}

	if prev.Metadata.EmbeddingModel != s.embedder.ModelName() || prev.Metadata.Dimension != len(fresh[0].Vector) {
		return nil, fmt.Errorf("%w: index holds %s vectors (dimension %d), new entries are %s (dimension %d); clear the index first",
			domain.ErrIndexMismatch, prev.Metadata.EmbeddingModel, prev.Metadata.Dimension,
			s.embedder.ModelName(), len(fresh[0].Vector))
	}

	merged := make([]domain.IndexEntry, 0, len(prev.Entries)+len(fresh))
	for _, e := range prev.Entries {
		if _, ok := replaced[e.Chunk.DocumentID]; ok {
			continue
		}
		merged = append(merged, e)
	}
	return append(merged, fresh...), nil
}

// Ask retrieves context for query and asks the generation provider for an answer.
func (s *RAGService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	if s.synth == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrInvalidConfiguration)
	}

	logger.Section("Ask")
	logger.Debug("Query: %q", query)

	retrieved, err := s.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return nil, err
	}

	answer, err := s.synth.Synthesize(ctx, retrieved, query)
	if err != nil {
		logger.Warn("Answer synthesis failed: %v", err)
		return nil, err
	}

	logger.Info("Answered with %s from %d chunks", answer.Model, len(answer.Sources))
	return answer, nil
}

// Retrieve returns the k chunks most relevant to query.
// A persisted index is restored on first use.
func (s *RAGService) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if s.retriever == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	if !s.loaded.Load() {
		s.mu.Lock()
		err := s.ensureLoadedLocked(ctx)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	return s.retriever.Retrieve(ctx, query, k)
}

// Restore loads the persisted index into memory, replacing what is held.
// Returns domain.ErrIndexMismatch if the index was built with a different
// embedding model than the one configured.
func (s *RAGService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked(ctx)
}

// ensureLoadedLocked restores the persisted index once. Callers hold s.mu.
func (s *RAGService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}
	err := s.restoreLocked(ctx)
	if errors.Is(err, domain.ErrIndexNotFound) {
		// Nothing to restore yet; an ingest creates the file.
		s.loaded.Store(true)
	}
	return err
}

func (s *RAGService) restoreLocked(ctx context.Context) error {
	if !s.persistent() {
		s.loaded.Store(true)
		return nil
	}

	snap, err := s.store.Load(ctx, s.cfg.IndexPath)
	if err != nil {
		return err
	}

	if s.embedder != nil {
		if snap.Metadata.EmbeddingModel != s.embedder.ModelName() {
			return fmt.Errorf("%w: index at %s was built with %q, configured embedding model is %q",
				domain.ErrIndexMismatch, s.cfg.IndexPath, snap.Metadata.EmbeddingModel, s.embedder.ModelName())
		}
		if dim := s.embedder.Dimensions(); dim > 0 && dim != snap.Metadata.Dimension {
			return fmt.Errorf("%w: index dimension %d, embedding model dimension %d",
				domain.ErrIndexMismatch, snap.Metadata.Dimension, dim)
		}
	}

	if err := s.index.Replace(ctx, snap.Entries, snap.Metadata); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCorruptIndex, err)
	}
	s.loaded.Store(true)

	logger.Debug("Restored %d entries from %s", len(snap.Entries), s.cfg.IndexPath)
	return nil
}

// persistLocked writes snap to the index file. It runs before the snapshot
// is installed in memory so a failed save leaves both sides unchanged.
func (s *RAGService) persistLocked(ctx context.Context, snap *domain.IndexSnapshot) error {
	if !s.persistent() {
		return nil
	}
	if err := s.store.Save(ctx, s.cfg.IndexPath, snap); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	logger.Debug("Persisted index to %s", s.cfg.IndexPath)
	return nil
}

func (s *RAGService) persistent() bool {
	return s.store != nil && s.cfg.IndexPath != ""
}

// Info summarises the in-memory index.
func (s *RAGService) Info() domain.IndexInfo {
	info := domain.IndexInfo{Path: s.cfg.IndexPath}
	snap := s.index.Snapshot()
	if snap == nil {
		return info
	}
	info.Entries = len(snap.Entries)
	info.Documents = snap.DocumentCount()
	info.Metadata = snap.Metadata
	return info
}

// Clear drops the in-memory index and removes the persisted copy.
func (s *RAGService) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Reset()
	s.loaded.Store(true)

	if !s.persistent() {
		return nil
	}
	if err := s.store.Remove(s.cfg.IndexPath); err != nil {
		return fmt.Errorf("removing index: %w", err)
	}
	logger.Info("Removed index at %s", s.cfg.IndexPath)
	return nil
}
