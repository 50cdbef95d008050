package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// --- Test doubles shared by the RAG service tests ---

const fakeDimension = 256

// fakeEmbedder embeds text as a hashed bag of words, so texts sharing
// words score higher under cosine similarity. It is deterministic.
type fakeEmbedder struct {
	mu     sync.Mutex
	model  string
	calls  int
	err    error
	failOn string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{model: "fake-embed"}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return bagOfWords(text), nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbedder) Dimensions() int              { return fakeDimension }
func (f *fakeEmbedder) ModelName() string            { return f.model }
func (f *fakeEmbedder) Ping(_ context.Context) error { return f.err }
func (f *fakeEmbedder) Close() error                 { return nil }

func bagOfWords(text string) []float32 {
	vec := make([]float32, fakeDimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDimension]++
	}
	return vec
}

// fakeLLM records the messages it receives and replies with reply, or with
// a refusal when the prompt carries no context.
type fakeLLM struct {
	mu       sync.Mutex
	messages []driven.ChatMessage
	reply    string
	err      error
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	f.mu.Lock()
	f.messages = messages
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	if strings.Contains(messages[len(messages)-1].Content, "Context: \n\nAnswer:") {
		return "I don't know based on the provided context.", nil
	}
	return f.reply, nil
}

func (f *fakeLLM) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1].Content
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return f.err }
func (f *fakeLLM) Close() error                 { return nil }

// fakeIndexStore keeps saved snapshots in memory, keyed by path.
type fakeIndexStore struct {
	mu        sync.Mutex
	snapshots map[string]*domain.IndexSnapshot
	saveErr   error
	saves     int
}

func newFakeIndexStore() *fakeIndexStore {
	return &fakeIndexStore{snapshots: make(map[string]*domain.IndexSnapshot)}
}

func (f *fakeIndexStore) Save(_ context.Context, path string, snap *domain.IndexSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *snap
	cp.Entries = append([]domain.IndexEntry(nil), snap.Entries...)
	f.snapshots[path] = &cp
	f.saves++
	return nil
}

func (f *fakeIndexStore) Load(_ context.Context, path string) (*domain.IndexSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[path]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	return snap, nil
}

func (f *fakeIndexStore) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, path)
	return nil
}

// chunksOf builds chunks with the given contents for a single document.
func chunksOf(docID string, contents ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:         docID + "-" + string(rune('a'+i)),
			DocumentID: docID,
			Content:    c,
		}
	}
	return chunks
}
