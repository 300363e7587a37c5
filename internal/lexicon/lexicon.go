// Package lexicon holds the static trigger-word sets used to classify chat
// messages. The sets are fixed at build time and never mutated.
package lexicon

import "strings"

// Axis identifies a lexicon-driven classification dimension.
type Axis string

const (
	Technical      Axis = "technical"
	ProblemSolving Axis = "problem_solving"
	Helping        Axis = "helping"
	Question       Axis = "question"
)

// DynamicAxis identifies a classification dimension whose examples are
// learned from a training corpus.
type DynamicAxis string

const (
	TaskCompletion DynamicAxis = "task_completion"
	Blocker        DynamicAxis = "blocker"
	Progress       DynamicAxis = "progress"
	Collaboration  DynamicAxis = "collaboration"
)

// DynamicAxes lists the learned axes in a fixed order.
var DynamicAxes = []DynamicAxis{TaskCompletion, Blocker, Progress, Collaboration}

var base = map[Axis][]string{
	Technical: {
		"code", "function", "class", "method", "api", "endpoint", "database",
		"query", "bug", "fix", "implement", "deploy", "test", "error", "debug",
		"pull request", "commit", "merge", "branch", "review", "algorithm",
		"optimize", "refactor", "module", "component", "feature", "schema",
		"migration", "authentication", "authorization", "frontend", "backend",
		"server", "client", "framework", "library", "package", "dependency",
		"build", "compile", "run", "execute", "configuration", "setup",
	},
	ProblemSolving: {
		"issue", "problem", "solution", "fix", "resolve", "debug", "error",
		"crash", "fail", "work", "broken", "stuck", "help", "solve",
	},
	Helping: {
		"i'll help", "let me", "i can", "sure", "i'll review", "i'll check",
		"i'll fix", "i'll do", "i've done", "completed", "finished", "ready",
	},
	Question: {
		"how", "what", "why", "when", "where", "which", "can", "should", "could",
	},
}

var triggers = map[DynamicAxis][]string{
	TaskCompletion: {"completed", "finished", "done", "merged", "deployed", "ready"},
	Blocker:        {"blocked", "stuck", "issue", "problem", "error", "crash", "fail"},
	Progress:       {"working on", "started", "in progress", "update", "pushed"},
	Collaboration:  {"help", "review", "check", "thanks", "lgtm", "looks good"},
}

// Lookup returns a copy of the word set for an axis. Unknown axes yield an
// empty set.
func Lookup(axis Axis) []string {
	return clone(base[axis])
}

// Triggers returns a copy of the trigger words for a learned axis.
func Triggers(axis DynamicAxis) []string {
	return clone(triggers[axis])
}

// Contains reports whether lowered contains any entry of the axis set.
// The question axis uses lead-word prefix matching instead; see IsQuestion.
func Contains(axis Axis, lowered string) bool {
	return containsAny(lowered, base[axis])
}

// TriggeredBy reports whether lowered contains any trigger of a learned axis.
func TriggeredBy(axis DynamicAxis, lowered string) bool {
	return containsAny(lowered, triggers[axis])
}

// Matches returns the entries of the axis set present in lowered, in
// lexicon order.
func Matches(axis Axis, lowered string) []string {
	var out []string
	for _, w := range base[axis] {
		if strings.Contains(lowered, w) {
			out = append(out, w)
		}
	}
	return out
}

// IsQuestion reports whether text ends with a question mark or starts with
// a question-lead word.
func IsQuestion(text string) bool {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return true
	}
	lowered := strings.ToLower(text)
	for _, w := range base[Question] {
		if strings.HasPrefix(lowered, w) {
			return true
		}
	}
	return false
}

func containsAny(lowered string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}

func clone(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}
