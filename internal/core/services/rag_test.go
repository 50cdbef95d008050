package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/loaders"
	"github.com/custodia-labs/lexrag/internal/loaders/plaintext"
	"github.com/custodia-labs/lexrag/internal/postprocessors/chunker"
)

const udhrExcerpt = "Article 1 All human beings are born free and equal in dignity and rights. " +
	"They are endowed with reason and conscience.\n" +
	"Article 2 Everyone is entitled to all the rights and freedoms set forth in this Declaration, " +
	"without distinction of any kind."

type ragFixture struct {
	svc      *RAGService
	embedder *fakeEmbedder
	llm      *fakeLLM
	index    *memory.Index
	store    *fakeIndexStore
	cfg      RAGConfig
}

func newRAGFixture(t *testing.T, cfg RAGConfig) *ragFixture {
	t.Helper()
	f := &ragFixture{
		embedder: newFakeEmbedder(),
		llm:      &fakeLLM{reply: "Article 1 says all human beings are born free and equal."},
		index:    memory.New(),
		store:    newFakeIndexStore(),
		cfg:      cfg,
	}
	f.svc = f.newService(t, f.embedder)
	return f
}

// newService builds another service over the fixture's store, as a fresh process would.
func (f *ragFixture) newService(t *testing.T, embedder *fakeEmbedder) *RAGService {
	t.Helper()
	c, err := chunker.New(chunker.WithChunkSize(50), chunker.WithOverlap(10))
	require.NoError(t, err)

	idx := f.index
	if f.svc != nil {
		idx = memory.New()
	}
	svc := NewRAGService(loaders.NewRegistry(plaintext.New()), c, embedder, idx, f.cfg)
	svc.SetLLMService(f.llm)
	svc.SetIndexStore(f.store)
	return svc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func defaultRAGConfig(t *testing.T) RAGConfig {
	return RAGConfig{
		TopK:      4,
		IndexPath: filepath.Join(t.TempDir(), "index.db"),
	}
}

func TestRAGService_ArticleOneEndToEnd(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	path := writeFile(t, t.TempDir(), "udhr.txt", udhrExcerpt)
	ctx := context.Background()

	result, err := f.svc.Ingest(ctx, []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Greater(t, result.ChunkCount, 1)
	assert.Empty(t, result.Failed)

	retrieved, err := f.svc.Retrieve(ctx, "What does Article 1 say about human beings being born free?", 1)
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Contains(t, retrieved[0].Chunk.Content, "Article 1")
	assert.Equal(t, path, retrieved[0].Chunk.Source())

	answer, err := f.svc.Ask(ctx, "What does Article 1 say about human beings being born free?")
	require.NoError(t, err)
	assert.Equal(t, "Article 1 says all human beings are born free and equal.", answer.Text)
	assert.Len(t, answer.Sources, 4)
	assert.Contains(t, f.llm.LastPrompt(), retrieved[0].Chunk.Content)
}

func TestRAGService_Ask_UnrelatedQuestion(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	f.llm.reply = "I don't know."
	path := writeFile(t, t.TempDir(), "udhr.txt", udhrExcerpt)

	_, err := f.svc.Ingest(context.Background(), []string{path})
	require.NoError(t, err)

	answer, err := f.svc.Ask(context.Background(), "Who won the 1998 World Cup?")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "don't know")
	assert.Contains(t, f.llm.LastPrompt(), "Question: Who won the 1998 World Cup?")
}

func TestRAGService_Ingest_SkipsUnreadableSources(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	dir := t.TempDir()
	good := writeFile(t, dir, "udhr.txt", udhrExcerpt)
	unsupported := writeFile(t, dir, "brief.docx", "binary")
	missing := filepath.Join(dir, "missing.txt")

	result, err := f.svc.Ingest(context.Background(), []string{missing, good, unsupported})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentCount)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, missing, result.Failed[0].Source)
	assert.ErrorIs(t, result.Failed[0].Err, domain.ErrSourceUnreadable)
	assert.Equal(t, unsupported, result.Failed[1].Source)
	assert.ErrorIs(t, result.Failed[1].Err, domain.ErrUnsupportedType)
	assert.Error(t, result.Err())
}

func TestRAGService_Ingest_EmptyCorpus(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	dir := t.TempDir()
	blank := writeFile(t, dir, "blank.txt", "   \n\t")

	result, err := f.svc.Ingest(context.Background(), []string{blank, filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, 0, f.index.Len())
}

func TestRAGService_Ingest_AppendsAndReplaces(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	dir := t.TempDir()
	ctx := context.Background()

	a := writeFile(t, dir, "a.txt", "Article 3 Everyone has the right to life.")
	b := writeFile(t, dir, "b.txt", "Article 5 No one shall be subjected to torture.")

	_, err := f.svc.Ingest(ctx, []string{a})
	require.NoError(t, err)
	_, err = f.svc.Ingest(ctx, []string{b})
	require.NoError(t, err)
	assert.Equal(t, 2, f.svc.Info().Documents)
	assert.Equal(t, 2, f.svc.Info().Entries)

	// Re-ingesting a document replaces its entries.
	require.NoError(t, os.WriteFile(a, []byte("Article 3 Everyone has the right to life, liberty and security of person."), 0o600))
	result, err := f.svc.Ingest(ctx, []string{a})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)

	info := f.svc.Info()
	assert.Equal(t, 2, info.Documents)
	assert.Equal(t, 3, info.Entries)

	// Existing entries come first, replaced document last.
	snap := f.index.Snapshot()
	assert.Equal(t, loaders.DocumentID(b), snap.Entries[0].Chunk.DocumentID)
	assert.Equal(t, loaders.DocumentID(a), snap.Entries[2].Chunk.DocumentID)
}

func TestRAGService_Ingest_DuplicateSourceInBatch(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	a := writeFile(t, t.TempDir(), "a.txt", "Article 3 Everyone has the right to life.")

	result, err := f.svc.Ingest(context.Background(), []string{a, a})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentCount)
	assert.Equal(t, 1, f.index.Len())
}

func TestRAGService_Ingest_EmbeddingFailureKeepsPreviousIndex(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	dir := t.TempDir()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, []string{writeFile(t, dir, "a.txt", "Article 3 Everyone has the right to life.")})
	require.NoError(t, err)
	before := f.index.Snapshot()

	f.embedder.err = domain.ErrEmbeddingUnavailable
	_, err = f.svc.Ingest(ctx, []string{writeFile(t, dir, "b.txt", "Article 5 No torture.")})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, before, f.index.Snapshot())
}

func TestRAGService_Ingest_SaveFailureKeepsPreviousIndex(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	dir := t.TempDir()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, []string{writeFile(t, dir, "a.txt", "Article 3 Everyone has the right to life.")})
	require.NoError(t, err)
	before := f.index.Snapshot()

	f.store.saveErr = os.ErrPermission
	_, err = f.svc.Ingest(ctx, []string{writeFile(t, dir, "b.txt", "Article 5 No torture.")})
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, before, f.index.Snapshot())
	assert.Equal(t, 1, f.svc.Info().Documents)

	// A fresh process sees the same index as the one still in memory.
	f.store.saveErr = nil
	restarted := f.newService(t, newFakeEmbedder())
	_, err = restarted.Retrieve(ctx, "right to life", 1)
	require.NoError(t, err)
	assert.Equal(t, f.svc.Info().Entries, restarted.Info().Entries)
}

func TestRAGService_PersistAndRestore(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	path := writeFile(t, t.TempDir(), "udhr.txt", udhrExcerpt)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.saves)

	restarted := f.newService(t, newFakeEmbedder())
	assert.Equal(t, 0, restarted.Info().Entries)

	retrieved, err := restarted.Retrieve(ctx, "Article 1 human beings born free", 1)
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Contains(t, retrieved[0].Chunk.Content, "Article 1")
	assert.Equal(t, f.svc.Info().Entries, restarted.Info().Entries)
}

func TestRAGService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted", func(t *testing.T) {
		f := newRAGFixture(t, defaultRAGConfig(t))
		assert.ErrorIs(t, f.svc.Restore(ctx), domain.ErrIndexNotFound)

		_, err := f.svc.Retrieve(ctx, "query", 1)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)

		_, err = f.svc.Retrieve(ctx, "query", 1)
		assert.ErrorIs(t, err, domain.ErrIndexEmpty, "a missing file is only reported once")
	})

	t.Run("model mismatch", func(t *testing.T) {
		f := newRAGFixture(t, defaultRAGConfig(t))
		_, err := f.svc.Ingest(ctx, []string{writeFile(t, t.TempDir(), "a.txt", udhrExcerpt)})
		require.NoError(t, err)

		other := newFakeEmbedder()
		other.model = "another-model"
		restarted := f.newService(t, other)

		assert.ErrorIs(t, restarted.Restore(ctx), domain.ErrIndexMismatch)
		_, err = restarted.Retrieve(ctx, "Article 1", 1)
		assert.ErrorIs(t, err, domain.ErrIndexMismatch)
	})

	t.Run("without embedder", func(t *testing.T) {
		f := newRAGFixture(t, defaultRAGConfig(t))
		_, err := f.svc.Ingest(ctx, []string{writeFile(t, t.TempDir(), "a.txt", udhrExcerpt)})
		require.NoError(t, err)

		inspector := NewRAGService(nil, nil, nil, memory.New(), f.cfg)
		inspector.SetIndexStore(f.store)
		require.NoError(t, inspector.Restore(ctx))

		info := inspector.Info()
		assert.Equal(t, f.svc.Info().Entries, info.Entries)
		assert.Equal(t, 1, info.Documents)
		assert.Equal(t, "fake-embed", info.Metadata.EmbeddingModel)
		assert.Equal(t, fakeDimension, info.Metadata.Dimension)
		assert.Equal(t, f.cfg.IndexPath, info.Path)
	})
}

func TestRAGService_InMemoryOnly(t *testing.T) {
	f := newRAGFixture(t, RAGConfig{TopK: 2})
	ctx := context.Background()

	_, err := f.svc.Retrieve(ctx, "anything", 1)
	assert.ErrorIs(t, err, domain.ErrIndexEmpty)

	_, err = f.svc.Ingest(ctx, []string{writeFile(t, t.TempDir(), "a.txt", udhrExcerpt)})
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.saves)

	answer, err := f.svc.Ask(ctx, "Article 2")
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 2)
}

func TestRAGService_Clear(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, []string{writeFile(t, t.TempDir(), "a.txt", udhrExcerpt)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx))
	assert.Equal(t, 0, f.svc.Info().Entries)

	_, err = f.store.Load(ctx, f.cfg.IndexPath)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)

	_, err = f.svc.Retrieve(ctx, "Article 1", 1)
	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
}

func TestRAGService_MissingProviders(t *testing.T) {
	ctx := context.Background()
	cfg := defaultRAGConfig(t)

	svc := NewRAGService(loaders.NewRegistry(plaintext.New()), nil, nil, memory.New(), cfg)

	_, err := svc.Ingest(ctx, []string{"a.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = svc.Retrieve(ctx, "q", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = svc.Ask(ctx, "q")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestRAGService_Retrieve_EmptyQuery(t *testing.T) {
	f := newRAGFixture(t, defaultRAGConfig(t))

	_, err := f.svc.Retrieve(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRAGService_ConcurrentAskDuringIngest(t *testing.T) {
	f := newRAGFixture(t, RAGConfig{TopK: 3})
	dir := t.TempDir()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, []string{writeFile(t, dir, "a.txt", udhrExcerpt)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answer, err := f.svc.Ask(ctx, "Article 1")
			assert.NoError(t, err)
			assert.NotEmpty(t, answer.Sources)
		}()
	}

	_, err = f.svc.Ingest(ctx, []string{writeFile(t, dir, "b.txt", "Article 5 No one shall be subjected to torture.")})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, 2, f.svc.Info().Documents)
}
