package contribution

import (
	"context"
	"math"
	"testing"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/classifier"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name                            string
		technical, problem, help, compl float64
		want                            float64
	}{
		{"zero", 0, 0, 0, 0, 0},
		{"all ones", 1, 1, 1, 1, 100},
		{"technical only", 1, 0, 0, 0, 40},
		{"problem only", 0, 1, 0, 0, 25},
		{"help only", 0, 0, 1, 0, 15},
		{"completion only", 0, 0, 0, 1, 20},
		{"mixed", 0.5, 0.2, 0.1, 0.25, 20 + 5 + 1.5 + 5},
		{"clamped above", 2, 2, 2, 2, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.technical, tt.problem, tt.help, tt.compl)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	base := []float64{0.2, 0.3, 0.1, 0.4}
	before := Score(base[0], base[1], base[2], base[3])
	for i := range base {
		bumped := append([]float64(nil), base...)
		bumped[i] += 0.1
		after := Score(bumped[0], bumped[1], bumped[2], bumped[3])
		if after < before {
			t.Errorf("raising ratio %d lowered score: %f -> %f", i, before, after)
		}
	}
}

func TestQualityFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Quality
	}{
		{0, Low},
		{39.99, Low},
		{40, Medium},
		{69.99, Medium},
		{70, High},
		{100, High},
	}
	for _, tt := range tests {
		if got := QualityFor(tt.score); got != tt.want {
			t.Errorf("QualityFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name                      string
		messages, technical, done int
		want                      bool
	}{
		{"task completed", 10, 0, 1, true},
		{"two technical", 10, 2, 0, true},
		{"ratio with volume", 3, 1, 0, true},
		{"ratio without volume", 2, 1, 0, false},
		{"idle", 10, 0, 0, false},
		{"low ratio", 4, 1, 0, false},
		{"no messages", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsActive(tt.messages, tt.technical, tt.done); got != tt.want {
				t.Errorf("IsActive(%d, %d, %d) = %v, want %v", tt.messages, tt.technical, tt.done, got, tt.want)
			}
		})
	}
}

func classify(model *trainer.Model, msgs []chat.Message) []Classified {
	out := make([]Classified, len(msgs))
	for i, m := range msgs {
		out[i] = Classified{Author: m.Author, Result: classifier.Classify(m, model)}
	}
	return out
}

func TestAggregate_GroupingIsExhaustive(t *testing.T) {
	msgs := []chat.Message{
		{Author: "alice", Text: "pushed the schema migration"},
		{Author: "bob", Text: "morning"},
		{Author: "alice", Text: "fixed the api bug"},
		{Author: "carol", Text: "how does the build work?"},
		{Author: "bob", Text: "coffee"},
		{Author: "dave", Text: ""},
	}
	contribs := Aggregate(classify(trainer.Empty(), msgs), msgs)

	if len(contribs) != 4 {
		t.Fatalf("expected 4 users, got %d", len(contribs))
	}
	seen := make(map[string]int)
	var total int
	for _, c := range contribs {
		seen[c.Username]++
		total += c.MessageCount
		for _, n := range []int{c.TechnicalCount, c.ProblemSolvingCount, c.HelpGivenCount, c.QuestionCount, c.TasksCompleted} {
			if n < 0 || n > c.MessageCount {
				t.Errorf("%s: axis count %d outside [0, %d]", c.Username, n, c.MessageCount)
			}
		}
	}
	if total != len(msgs) {
		t.Errorf("sum of message counts = %d, want %d", total, len(msgs))
	}
	for user, n := range seen {
		if n != 1 {
			t.Errorf("user %s appears %d times", user, n)
		}
	}

	alice := Index(contribs)["alice"]
	if alice == nil || alice.TechnicalCount != 2 || alice.TotalWords != 8 || alice.AvgMessageLength != 4 {
		t.Errorf("unexpected alice aggregate: %+v", alice)
	}
}

func TestAggregate_SingleUserCompletions(t *testing.T) {
	model := trainer.Train(context.Background(), []chat.Message{
		{Author: "lead", Text: "completed the release notes"},
		{Author: "lead", Text: "fixed and completed"},
	}, nil, trainer.DefaultOptions())

	msgs := []chat.Message{
		{Author: "alice", Text: "login flow completed"},
		{Author: "alice", Text: "fixed the flaky test, completed"},
		{Author: "alice", Text: "completed onboarding docs"},
		{Author: "alice", Text: "lunch?"},
		{Author: "alice", Text: "back in 5"},
	}
	contribs := Aggregate(classify(model, msgs), msgs)

	if len(contribs) != 1 {
		t.Fatalf("expected one user, got %d", len(contribs))
	}
	c := contribs[0]
	if c.TasksCompleted < 2 {
		t.Errorf("expected at least 2 completed tasks, got %d", c.TasksCompleted)
	}
	if !c.IsActive {
		t.Error("expected active contributor")
	}
	if c.Rank != 1 {
		t.Errorf("expected rank 1, got %d", c.Rank)
	}
}

func TestAggregate_KeywordsCapped(t *testing.T) {
	msgs := []chat.Message{
		{Author: "alice", Text: "code function class method api endpoint"},
		{Author: "alice", Text: "database query bug fix implement deploy test"},
	}
	c := Aggregate(classify(trainer.Empty(), msgs), msgs)[0]

	if len(c.TechnicalKeywords) != 10 {
		t.Fatalf("expected 10 keywords, got %d: %v", len(c.TechnicalKeywords), c.TechnicalKeywords)
	}
	if c.TechnicalKeywords[0] != "code" || c.TechnicalKeywords[9] != "fix" {
		t.Errorf("expected first-observed order, got %v", c.TechnicalKeywords)
	}
}

func TestFinalize_Tiers(t *testing.T) {
	msgs := []chat.Message{{Author: "a", Text: "x"}}
	contribs := Aggregate([]Classified{{Author: "a", Result: classifier.Result{}}}, msgs)
	if contribs[0].Quality != Low || contribs[0].Score != 0 {
		t.Errorf("unexpected idle user: %+v", contribs[0])
	}

	u := UserContribution{MessageCount: 3, TechnicalCount: 3, ProblemSolvingCount: 3, HelpGivenCount: 0, TasksCompleted: 0}
	u.finalize()
	// 40 + 25 = 65
	if u.Quality != Medium || u.Score != 65 {
		t.Errorf("expected Medium 65, got %s %f", u.Quality, u.Score)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	contribs := []UserContribution{
		{Username: "first", Score: 50},
		{Username: "top", Score: 80},
		{Username: "second", Score: 50},
		{Username: "third", Score: 50},
	}
	Rank(contribs)

	want := []string{"top", "first", "second", "third"}
	for i, name := range want {
		if contribs[i].Username != name || contribs[i].Rank != i+1 {
			t.Errorf("position %d = %s (rank %d), want %s", i, contribs[i].Username, contribs[i].Rank, name)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil, nil); len(got) != 0 {
		t.Errorf("expected no users, got %v", got)
	}
	if got := Sum(nil); got != (Totals{}) {
		t.Errorf("expected zero totals, got %+v", got)
	}
}

func TestSum(t *testing.T) {
	contribs := []UserContribution{
		{MessageCount: 3, TotalWords: 10, TechnicalCount: 2, TasksCompleted: 1, BlockersReported: 1, IsActive: true},
		{MessageCount: 2, TotalWords: 4, ProgressUpdates: 1, CollaborationCount: 2},
	}
	want := Totals{Messages: 5, Words: 14, Technical: 2, TasksCompleted: 1, Blockers: 1, Progress: 1, Collaboration: 2, ActiveUsers: 1}
	if got := Sum(contribs); got != want {
		t.Errorf("Sum = %+v, want %+v", got, want)
	}
}
