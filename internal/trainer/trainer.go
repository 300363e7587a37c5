// Package trainer builds Model snapshots from a historical chat corpus.
// Training extracts literal example messages per learned axis and frequency
// tables; nothing is statistically fitted.
package trainer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/lexicon"
	"github.com/MikeSquared-Agency/mentor/internal/nlp"
)

const (
	DefaultFrequencySample = 1000
	DefaultExampleSample   = 500

	maxExamples = 50
	topLemmas   = 30
	topUsers    = 20
	prefixWords = 3
)

// Options bounds the corpus prefixes used for training.
type Options struct {
	// FrequencySample is the number of leading messages used for lemma and
	// user frequencies and the average message length.
	FrequencySample int
	// ExampleSample is the number of leading messages scanned for axis
	// examples.
	ExampleSample int
}

func DefaultOptions() Options {
	return Options{
		FrequencySample: DefaultFrequencySample,
		ExampleSample:   DefaultExampleSample,
	}
}

// Train builds a new model from corpus. It never fails: an empty corpus
// yields an empty model and a missing or failing tokenizer yields an empty
// lemma table.
func Train(ctx context.Context, corpus []chat.Message, tok nlp.Tokenizer, opts Options) *Model {
	if len(corpus) == 0 {
		return Empty()
	}
	if opts.FrequencySample <= 0 {
		opts.FrequencySample = DefaultFrequencySample
	}
	if opts.ExampleSample <= 0 {
		opts.ExampleSample = DefaultExampleSample
	}

	freqSample := head(corpus, opts.FrequencySample)
	exampleSample := head(corpus, opts.ExampleSample)

	return build(
		uuid.New(),
		time.Now().UTC(),
		extractExamples(exampleSample),
		lemmaFrequency(ctx, freqSample, tok),
		userFrequency(freqSample),
		len(corpus),
		avgWords(freqSample),
	)
}

func build(id uuid.UUID, at time.Time, examples map[lexicon.DynamicAxis][]string, lemmas, users []Count, size int, avg float64) *Model {
	m := &Model{
		ID:               id,
		TrainedAt:        at,
		Examples:         examples,
		LemmaFrequency:   lemmas,
		UserFrequency:    users,
		CorpusSize:       size,
		AvgMessageLength: avg,
		prefixes:         make(map[lexicon.DynamicAxis][]string, len(lexicon.DynamicAxes)),
	}
	for _, axis := range lexicon.DynamicAxes {
		if m.Examples[axis] == nil {
			m.Examples[axis] = []string{}
		}
		m.prefixes[axis] = examplePrefixes(m.Examples[axis])
	}
	return m
}

// extractExamples keeps, per axis, the first 50 messages whose lowered text
// contains one of the axis triggers.
func extractExamples(sample []chat.Message) map[lexicon.DynamicAxis][]string {
	examples := make(map[lexicon.DynamicAxis][]string, len(lexicon.DynamicAxes))
	for _, msg := range sample {
		lowered := strings.ToLower(msg.Text)
		for _, axis := range lexicon.DynamicAxes {
			if len(examples[axis]) >= maxExamples {
				continue
			}
			if lexicon.TriggeredBy(axis, lowered) {
				examples[axis] = append(examples[axis], msg.Text)
			}
		}
	}
	return examples
}

// examplePrefixes collects the first three whitespace-delimited words of
// each example, lower-cased, in first-seen order without duplicates.
func examplePrefixes(examples []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ex := range examples {
		words := strings.Fields(strings.ToLower(ex))
		if len(words) > prefixWords {
			words = words[:prefixWords]
		}
		for _, w := range words {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}

func lemmaFrequency(ctx context.Context, sample []chat.Message, tok nlp.Tokenizer) []Count {
	if tok == nil {
		return nil
	}
	tokens, err := tok.Tokenize(ctx, chat.JoinText(sample))
	if err != nil {
		return nil
	}
	var lemmas []string
	for _, t := range tokens {
		if t.Keyword() {
			lemmas = append(lemmas, strings.ToLower(t.Lemma))
		}
	}
	return topN(lemmas, topLemmas)
}

func userFrequency(sample []chat.Message) []Count {
	authors := make([]string, len(sample))
	for i, m := range sample {
		authors[i] = m.Author
	}
	return topN(authors, topUsers)
}

func avgWords(sample []chat.Message) float64 {
	if len(sample) == 0 {
		return 0
	}
	var total int
	for _, m := range sample {
		total += m.WordCount()
	}
	return float64(total) / float64(len(sample))
}

// topN counts keys and returns the n most frequent, ties in first-seen order.
func topN(keys []string, n int) []Count {
	idx := make(map[string]int)
	var counts []Count
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			counts[i].Count++
			continue
		}
		idx[k] = len(counts)
		counts = append(counts, Count{Key: k, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func head(msgs []chat.Message, n int) []chat.Message {
	if len(msgs) > n {
		return msgs[:n]
	}
	return msgs
}
