package trainer

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mentor/internal/lexicon"
)

// Count is a key with its frequency.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Model is an immutable snapshot of corpus-derived examples and frequency
// tables. A Model is never modified after Train returns it.
type Model struct {
	ID               uuid.UUID                        `json:"id"`
	TrainedAt        time.Time                        `json:"trained_at"`
	Examples         map[lexicon.DynamicAxis][]string `json:"examples"`
	LemmaFrequency   []Count                          `json:"lemma_frequency"`
	UserFrequency    []Count                          `json:"user_frequency"`
	CorpusSize       int                              `json:"corpus_size"`
	AvgMessageLength float64                          `json:"avg_message_length"`

	// prefixes holds the first three lower-cased words of every example,
	// per axis, deduplicated.
	prefixes map[lexicon.DynamicAxis][]string
}

// Empty returns a model trained on nothing.
func Empty() *Model {
	return build(uuid.Nil, time.Time{}, make(map[lexicon.DynamicAxis][]string), nil, nil, 0, 0)
}

// Trained reports whether the model saw any corpus.
func (m *Model) Trained() bool {
	return m != nil && m.CorpusSize > 0
}

// Prefixes returns the example prefix words for an axis. The returned slice
// must not be modified.
func (m *Model) Prefixes(axis lexicon.DynamicAxis) []string {
	if m == nil {
		return nil
	}
	return m.prefixes[axis]
}

// Stats is the training statistics view of a model.
type Stats struct {
	ModelID               uuid.UUID                   `json:"model_id"`
	Trained               bool                        `json:"trained"`
	TrainedAt             *time.Time                  `json:"trained_at,omitempty"`
	TotalTrainingMessages int                         `json:"total_training_messages"`
	AvgMessageLength      float64                     `json:"avg_message_length"`
	PatternsLearned       map[lexicon.DynamicAxis]int `json:"patterns_learned"`
	TopKeywords           []string                    `json:"top_keywords"`
	ActiveUsersInTraining int                         `json:"active_users_in_training"`
}

func (m *Model) Stats() Stats {
	if m == nil {
		m = Empty()
	}
	s := Stats{
		ModelID:               m.ID,
		Trained:               m.Trained(),
		TotalTrainingMessages: m.CorpusSize,
		AvgMessageLength:      m.AvgMessageLength,
		PatternsLearned:       make(map[lexicon.DynamicAxis]int, len(lexicon.DynamicAxes)),
		TopKeywords:           make([]string, 0, len(m.LemmaFrequency)),
		ActiveUsersInTraining: len(m.UserFrequency),
	}
	if !m.TrainedAt.IsZero() {
		at := m.TrainedAt
		s.TrainedAt = &at
	}
	for _, axis := range lexicon.DynamicAxes {
		s.PatternsLearned[axis] = len(m.Examples[axis])
	}
	for _, c := range m.LemmaFrequency {
		s.TopKeywords = append(s.TopKeywords, c.Key)
	}
	return s
}

// Holder publishes the current model. Readers call Load once per request and
// keep using that snapshot; writers replace it wholesale with Store.
type Holder struct {
	current atomic.Pointer[Model]
}

func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(Empty())
	return h
}

// Load returns the current snapshot. It never returns nil.
func (h *Holder) Load() *Model {
	return h.current.Load()
}

// Store atomically replaces the current snapshot. A nil model is ignored.
func (h *Holder) Store(m *Model) {
	if m == nil {
		return
	}
	h.current.Store(m)
}
