// Package contribution aggregates per-message classifications into per-user
// contribution statistics and scores.
package contribution

import (
	"math"
	"sort"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/classifier"
)

const maxKeywords = 10

// Classified pairs a classification result with the author of the message
// it was computed from.
type Classified struct {
	Author string
	Result classifier.Result
}

// UserContribution is the aggregate for one author. The zero value is a user
// with no messages: every count, ratio and score is zero, Quality is unset
// and IsActive is false.
type UserContribution struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`

	MessageCount        int `json:"message_count"`
	TotalWords          int `json:"total_words"`
	TechnicalCount      int `json:"technical_count"`
	ProblemSolvingCount int `json:"problem_solving_count"`
	HelpGivenCount      int `json:"help_given_count"`
	QuestionCount       int `json:"question_count"`
	TasksCompleted      int `json:"tasks_completed"`
	BlockersReported    int `json:"blockers_reported"`
	ProgressUpdates     int `json:"progress_updates"`
	CollaborationCount  int `json:"collaboration_count"`

	TechnicalRatio      float64  `json:"technical_ratio"`
	ProblemSolvingRatio float64  `json:"problem_solving_ratio"`
	HelpRatio           float64  `json:"help_ratio"`
	CompletionRatio     float64  `json:"completion_ratio"`
	AvgMessageLength    float64  `json:"avg_message_length"`
	TechnicalKeywords   []string `json:"technical_keywords"`

	Score    float64 `json:"contribution_score"`
	Quality  Quality `json:"contribution_quality"`
	IsActive bool    `json:"is_active"`
}

// Aggregate groups classified messages by author and derives each user's
// ratios, score, tier and activity. classified must be index-aligned with
// messages, which supply the word counts. The result is ranked by score.
func Aggregate(classified []Classified, messages []chat.Message) []UserContribution {
	var users []UserContribution
	index := make(map[string]int)

	for i, c := range classified {
		pos, ok := index[c.Author]
		if !ok {
			pos = len(users)
			index[c.Author] = pos
			users = append(users, UserContribution{Username: c.Author, TechnicalKeywords: []string{}})
		}
		u := &users[pos]
		if i < len(messages) {
			u.TotalWords += messages[i].WordCount()
		}
		u.add(c.Result)
	}

	for i := range users {
		users[i].finalize()
	}
	Rank(users)
	return users
}

func (u *UserContribution) add(r classifier.Result) {
	u.MessageCount++
	if r.IsTechnical {
		u.TechnicalCount++
	}
	if r.IsProblemSolving {
		u.ProblemSolvingCount++
	}
	if r.IsHelping {
		u.HelpGivenCount++
	}
	if r.IsQuestion {
		u.QuestionCount++
	}
	if r.TaskCompleted {
		u.TasksCompleted++
	}
	if r.HasBlocker {
		u.BlockersReported++
	}
	if r.ProgressUpdate {
		u.ProgressUpdates++
	}
	if r.Collaboration {
		u.CollaborationCount++
	}
	for _, kw := range r.TechnicalKeywords {
		if len(u.TechnicalKeywords) >= maxKeywords {
			break
		}
		if !contains(u.TechnicalKeywords, kw) {
			u.TechnicalKeywords = append(u.TechnicalKeywords, kw)
		}
	}
}

// finalize computes the derived fields. The tier is taken from the
// unrounded score; only the presented score is rounded.
func (u *UserContribution) finalize() {
	u.TechnicalRatio = ratio(u.TechnicalCount, u.MessageCount)
	u.ProblemSolvingRatio = ratio(u.ProblemSolvingCount, u.MessageCount)
	u.HelpRatio = ratio(u.HelpGivenCount, u.MessageCount)
	u.CompletionRatio = ratio(u.TasksCompleted, u.MessageCount)
	u.AvgMessageLength = math.Round(ratio(u.TotalWords, u.MessageCount)*10) / 10

	score := Score(u.TechnicalRatio, u.ProblemSolvingRatio, u.HelpRatio, u.CompletionRatio)
	u.Quality = QualityFor(score)
	u.Score = Round2(score)
	u.IsActive = IsActive(u.MessageCount, u.TechnicalCount, u.TasksCompleted)
}

// Rank orders contributions by descending score and assigns 1-based ranks.
// Equal scores keep their existing relative order.
func Rank(contribs []UserContribution) {
	sort.SliceStable(contribs, func(i, j int) bool {
		return contribs[i].Score > contribs[j].Score
	})
	for i := range contribs {
		contribs[i].Rank = i + 1
	}
}

// Index returns a lookup by username into contribs. The pointers alias the
// slice elements.
func Index(contribs []UserContribution) map[string]*UserContribution {
	idx := make(map[string]*UserContribution, len(contribs))
	for i := range contribs {
		idx[contribs[i].Username] = &contribs[i]
	}
	return idx
}

// Active returns the active contributions in rank order.
func Active(contribs []UserContribution) []UserContribution {
	var out []UserContribution
	for _, c := range contribs {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// Totals sums the per-user counters across a team.
type Totals struct {
	Messages       int
	Words          int
	Technical      int
	TasksCompleted int
	Blockers       int
	Progress       int
	Collaboration  int
	ActiveUsers    int
}

func Sum(contribs []UserContribution) Totals {
	var t Totals
	for _, c := range contribs {
		t.Messages += c.MessageCount
		t.Words += c.TotalWords
		t.Technical += c.TechnicalCount
		t.TasksCompleted += c.TasksCompleted
		t.Blockers += c.BlockersReported
		t.Progress += c.ProgressUpdates
		t.Collaboration += c.CollaborationCount
		if c.IsActive {
			t.ActiveUsers++
		}
	}
	return t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
