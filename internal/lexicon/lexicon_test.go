package lexicon

import (
	"reflect"
	"testing"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name    string
		axis    Axis
		lowered string
		want    bool
	}{
		{"technical substring", Technical, "pushed a fix to the api", true},
		{"technical phrase", Technical, "opened a pull request", true},
		{"technical absent", Technical, "good morning all", false},
		{"problem solving", ProblemSolving, "the build is broken", true},
		{"helping phrase", Helping, "i'll review it tonight", true},
		{"helping absent", Helping, "lunch?", false},
		{"unknown axis", Axis("banana"), "code", false},
		{"empty text", Technical, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.axis, tt.lowered); got != tt.want {
				t.Errorf("Contains(%q, %q) = %v, want %v", tt.axis, tt.lowered, got, tt.want)
			}
		})
	}
}

func TestIsQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"is this ready?", true},
		{"is this ready?   ", true},
		{"How do I run the tests", true},
		{"Should we merge now", true},
		{"merged the branch", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsQuestion(tt.text); got != tt.want {
				t.Errorf("IsQuestion(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatches_LexiconOrder(t *testing.T) {
	got := Matches(Technical, "fix the bug in the database query")
	want := []string{"database", "query", "bug", "fix"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Matches = %v, want %v", got, want)
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	words := Lookup(Technical)
	words[0] = "mutated"

	if Lookup(Technical)[0] != "code" {
		t.Error("Lookup must not expose the underlying set")
	}
}

func TestTriggeredBy(t *testing.T) {
	tests := []struct {
		axis    DynamicAxis
		lowered string
		want    bool
	}{
		{TaskCompletion, "merged the login pr", true},
		{Blocker, "i'm blocked on review", true},
		{Progress, "still working on the schema", true},
		{Collaboration, "lgtm", true},
		{Collaboration, "see you tomorrow", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.axis)+"/"+tt.lowered, func(t *testing.T) {
			if got := TriggeredBy(tt.axis, tt.lowered); got != tt.want {
				t.Errorf("TriggeredBy(%q, %q) = %v, want %v", tt.axis, tt.lowered, got, tt.want)
			}
		})
	}
}

func TestDynamicAxesHaveTriggers(t *testing.T) {
	for _, axis := range DynamicAxes {
		if len(Triggers(axis)) == 0 {
			t.Errorf("axis %q has no triggers", axis)
		}
	}
}
