package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// groundingPrompt is the fixed answer template. Only the question and
// context slots vary between calls.
const groundingPrompt = "Use the pieces of information provided in the context to answer the user's question " +
	"about human rights law. If you don't know the answer based on the provided context, just say that you " +
	"don't know - don't try to make up an answer. Only provide information that can be found in the given " +
	"context.\n\nQuestion: {question}\nContext: {context}\n\nAnswer:"

// contextSeparator joins retrieved chunk texts.
const contextSeparator = "\n\n"

// thinkBlock matches reasoning traces emitted by reasoning models.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Synthesizer builds the grounding prompt from retrieved chunks and asks the
// generation provider for an answer.
type Synthesizer struct {
	llm     driven.LLMService
	timeout time.Duration
}

// NewSynthesizer creates a synthesizer. timeout bounds the generation call;
// zero means no limit beyond ctx.
func NewSynthesizer(llm driven.LLMService, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		llm:     llm,
		timeout: timeout,
	}
}

// BuildContext joins the chunk texts in rank order, separated by a blank line.
func BuildContext(retrieved domain.RetrievalResult) string {
	return strings.Join(retrieved.Texts(), contextSeparator)
}

// BuildPrompt fills the grounding template. Values are substituted in a
// single pass, so a query containing "{context}" is left as typed.
func BuildPrompt(query string, retrieved domain.RetrievalResult) string {
	return strings.NewReplacer(
		"{question}", query,
		"{context}", BuildContext(retrieved),
	).Replace(groundingPrompt)
}

// Synthesize asks the generation provider to answer query from retrieved.
// An empty retrieval still produces a call with an empty context; the
// template instructs the model to say it does not know.
func (s *Synthesizer) Synthesize(
	ctx context.Context, retrieved domain.RetrievalResult, query string,
) (*domain.Answer, error) {
	prompt := BuildPrompt(query, retrieved)
	logger.Debug("Prompt: %d chars, %d context chunks", len(prompt), len(retrieved))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	return &domain.Answer{
		Query:   query,
		Text:    CleanAnswer(reply),
		Sources: retrieved,
		Model:   s.llm.ModelName(),
	}, nil
}

// CleanAnswer removes <think> reasoning blocks and surrounding whitespace.
func CleanAnswer(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}
