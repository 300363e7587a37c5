// Package classifier tags chat messages on the static lexicon axes and on
// the axes learned by the trainer.
package classifier

import (
	"strings"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/lexicon"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

// Result holds the per-axis flags for one message. Axes are independent:
// any combination may be true.
type Result struct {
	IsTechnical       bool     `json:"is_technical"`
	IsProblemSolving  bool     `json:"is_problem_solving"`
	IsHelping         bool     `json:"is_helping"`
	IsQuestion        bool     `json:"is_question"`
	TaskCompleted     bool     `json:"task_completed"`
	HasBlocker        bool     `json:"has_blocker"`
	ProgressUpdate    bool     `json:"progress_update"`
	Collaboration     bool     `json:"collaboration"`
	TechnicalKeywords []string `json:"technical_keywords"`
}

// Classify tags msg against the lexicon and model. It is pure: the same
// message and model always yield the same result. A nil model behaves as an
// untrained one.
func Classify(msg chat.Message, model *trainer.Model) Result {
	if strings.TrimSpace(msg.Text) == "" {
		return Result{TechnicalKeywords: []string{}}
	}
	lowered := strings.ToLower(msg.Text)

	keywords := lexicon.Matches(lexicon.Technical, lowered)
	if keywords == nil {
		keywords = []string{}
	}

	return Result{
		IsTechnical:       lexicon.Contains(lexicon.Technical, lowered),
		IsProblemSolving:  lexicon.Contains(lexicon.ProblemSolving, lowered),
		IsHelping:         lexicon.Contains(lexicon.Helping, lowered),
		IsQuestion:        lexicon.IsQuestion(msg.Text),
		TaskCompleted:     PrefixOverlap(model.Prefixes(lexicon.TaskCompletion), lowered),
		HasBlocker:        PrefixOverlap(model.Prefixes(lexicon.Blocker), lowered),
		ProgressUpdate:    PrefixOverlap(model.Prefixes(lexicon.Progress), lowered),
		Collaboration:     PrefixOverlap(model.Prefixes(lexicon.Collaboration), lowered),
		TechnicalKeywords: keywords,
	}
}

// PrefixOverlap is the first-three-words overlap test: it reports whether
// any of the example prefix words occurs as a substring of lowered.
//
// The test is deliberately loose. Prefix words are often stopwords such as
// "the" or "i", so a trained axis fires on most ordinary sentences.
func PrefixOverlap(prefixes []string, lowered string) bool {
	for _, w := range prefixes {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
