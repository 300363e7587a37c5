// Package nlp defines the language collaborators the analysis engine
// consumes (sentiment, tokenization, noun phrases, summarization) together
// with built-in and remote implementations.
package nlp

import "context"

// Token is a single lemmatized token.
type Token struct {
	Lemma   string `json:"lemma"`
	IsStop  bool   `json:"is_stopword"`
	IsPunct bool   `json:"is_punctuation"`
	IsAlpha bool   `json:"is_alphabetic"`
}

// Keyword reports whether the token counts toward keyword statistics.
func (t Token) Keyword() bool {
	return t.IsAlpha && !t.IsStop && !t.IsPunct
}

// Sentimenter scores text polarity in [-1, 1].
type Sentimenter interface {
	Sentiment(ctx context.Context, text string) (float64, error)
}

// Tokenizer splits text into lemmatized tokens.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
}

// PhraseExtractor returns the noun phrases found in text.
type PhraseExtractor interface {
	NounPhrases(ctx context.Context, text string) ([]string, error)
}

// Summarizer condenses text to roughly between minLen and maxLen tokens.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}
