package nlp

import (
	"context"
	"strings"
)

// PhraseChunker approximates noun phrases as maximal runs of alphabetic,
// non-stopword tokens.
type PhraseChunker struct{}

func (PhraseChunker) NounPhrases(_ context.Context, text string) ([]string, error) {
	var phrases []string
	var run []string

	flush := func() {
		if len(run) > 0 {
			phrases = append(phrases, strings.Join(run, " "))
			run = run[:0]
		}
	}

	for _, tok := range tokenize(text) {
		if !tok.Keyword() {
			flush()
			continue
		}
		run = append(run, tok.Lemma)
	}
	flush()
	return phrases, nil
}
