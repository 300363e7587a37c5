package nlp

import (
	"context"
	"log/slog"
	"strings"
)

// Suite bundles the language collaborators and applies the local fallbacks
// when one is missing or fails. Suite methods never return errors.
type Suite struct {
	Sentiment  Sentimenter
	Tokenizer  Tokenizer
	Phrases    PhraseExtractor
	Summarizer Summarizer
	Logger     *slog.Logger
}

// Builtin returns a Suite backed entirely by in-process implementations.
// It has no summarizer, so summaries are always truncations.
func Builtin(logger *slog.Logger) *Suite {
	return &Suite{
		Sentiment: LexicalSentiment{},
		Tokenizer: SimpleTokenizer{},
		Phrases:   PhraseChunker{},
		Logger:    logger,
	}
}

// NewSuite returns the builtin suite, switched to the NLP sidecar at
// remoteURL when one is given. A non-nil summarizer replaces the sidecar's.
func NewSuite(remoteURL string, summarizer Summarizer, logger *slog.Logger) *Suite {
	s := Builtin(logger)
	if remoteURL != "" {
		remote := NewRemote(remoteURL)
		s.Sentiment = remote
		s.Tokenizer = remote
		s.Phrases = remote
		s.Summarizer = remote
	}
	if summarizer != nil {
		s.Summarizer = summarizer
	}
	return s
}

// SentimentOf returns the polarity of text, or 0 when unavailable.
func (s *Suite) SentimentOf(ctx context.Context, text string) float64 {
	if s.Sentiment == nil || strings.TrimSpace(text) == "" {
		return 0
	}
	v, err := s.Sentiment.Sentiment(ctx, text)
	if err != nil {
		s.warn("sentiment unavailable, using neutral", err)
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Tokens returns the tokens of text, or nil when unavailable.
func (s *Suite) Tokens(ctx context.Context, text string) []Token {
	if s.Tokenizer == nil {
		return nil
	}
	toks, err := s.Tokenizer.Tokenize(ctx, text)
	if err != nil {
		s.warn("tokenizer unavailable, skipping keywords", err)
		return nil
	}
	return toks
}

// NounPhrases returns the noun phrases of text, or nil when unavailable.
func (s *Suite) NounPhrases(ctx context.Context, text string) []string {
	if s.Phrases == nil {
		return nil
	}
	phrases, err := s.Phrases.NounPhrases(ctx, text)
	if err != nil {
		s.warn("phrase extraction unavailable, skipping topics", err)
		return nil
	}
	return phrases
}

// Summary summarizes text, falling back to truncation for short input or
// when the summarizer fails.
func (s *Suite) Summary(ctx context.Context, text string, maxLen, minLen int) string {
	if out, ok := s.ModelSummary(ctx, text, maxLen, minLen); ok {
		return out
	}
	return Truncate(text)
}

// ModelSummary returns the summarizer's output and true, or false when the
// input is short or the summarizer is missing or failed.
func (s *Suite) ModelSummary(ctx context.Context, text string, maxLen, minLen int) (string, bool) {
	if s.Summarizer == nil || len(strings.Fields(text)) <= MinSummaryWords {
		return "", false
	}
	out, err := s.Summarizer.Summarize(ctx, text, maxLen, minLen)
	if err != nil || strings.TrimSpace(out) == "" {
		s.warn("summarizer unavailable, truncating", err)
		return "", false
	}
	return out, true
}

func (s *Suite) warn(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, "error", err)
	}
}
