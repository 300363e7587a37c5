package nlp

import (
	"context"
	"fmt"
	"strings"
)

const (
	truncateChars = 200
	// MinSummaryWords is the input size at or below which summaries always
	// use truncation.
	MinSummaryWords = 30
)

// Truncate returns the first 200 characters of text, with an ellipsis when
// anything was cut.
func Truncate(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= truncateChars {
		return string(runes)
	}
	return string(runes[:truncateChars]) + "..."
}

// Completer is the subset of an LLM client needed for summarization.
type Completer interface {
	Summarize(ctx context.Context, instructions, text string, maxTokens int) (string, error)
}

// LLMSummarizer delegates summarization to a language model.
type LLMSummarizer struct {
	llm Completer
}

func NewLLMSummarizer(llm Completer) *LLMSummarizer {
	return &LLMSummarizer{llm: llm}
}

const summaryInstructions = `Summarize the following team chat activity for a project mentor in plain prose.
Use between %d and %d words. Mention concrete work items, blockers and who did what.
Return only the summary text.`

func (s *LLMSummarizer) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	out, err := s.llm.Summarize(ctx, fmt.Sprintf(summaryInstructions, minLen, maxLen), text, maxLen*2)
	if err != nil {
		return "", fmt.Errorf("llm summarize: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("llm summarize: empty summary")
	}
	return out, nil
}
