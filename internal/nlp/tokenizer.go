package nlp

import (
	"context"
	"strings"
	"unicode"
)

var stopwords = toSet(`a about above after again against all am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how i if in into is it its
itself just me more most my myself no nor not now of off on once only or other our ours ourselves
out over own same she should so some such than that the their theirs them themselves then there
these they this those through to too under until up very was we were what when where which while
who whom why will with would you your yours yourself yourselves also get got let lets ok okay
yeah yes hey hi hello im ive ill dont thats its`)

// SimpleTokenizer is a dependency-free tokenizer. Lemmas are lower-cased
// words with common inflection suffixes stripped.
type SimpleTokenizer struct{}

func (SimpleTokenizer) Tokenize(_ context.Context, text string) ([]Token, error) {
	return tokenize(text), nil
}

func tokenize(text string) []Token {
	var tokens []Token
	var word []rune

	flush := func() {
		if len(word) == 0 {
			return
		}
		w := strings.ToLower(string(word))
		alpha := true
		for _, r := range w {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		_, stop := stopwords[strings.ReplaceAll(w, "'", "")]
		lemma := w
		if alpha {
			lemma = lemmatize(w)
		}
		tokens = append(tokens, Token{Lemma: lemma, IsStop: stop, IsAlpha: alpha})
		word = word[:0]
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			word = append(word, r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, Token{Lemma: string(r), IsPunct: true})
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// lemmatize strips a small set of English inflections. Words of four
// letters or fewer are left alone.
func lemmatize(w string) string {
	if len(w) <= 4 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

// IsStopword reports whether w is in the built-in stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}
