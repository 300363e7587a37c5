package report

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/mentor/internal/contribution"
)

const (
	blockerThreshold      = 3
	lowCollaboration      = 30.0
	goodCollaboration     = 60.0
	negativeSentiment     = -0.1
	positiveSentiment     = 0.3
	lowVolume             = 20
	lowProgressRatio      = 0.1
	minTopics             = 3
	maxNamedInactiveUsers = 3
)

// DefaultRecommendation is returned when no rule fires.
const DefaultRecommendation = "Team is performing well. Continue current practices."

// Signals are the aggregate figures the recommendation rules read.
type Signals struct {
	Contributions      []contribution.UserContribution
	TotalMessages      int
	TotalWords         int
	TasksCompleted     int
	Blockers           int
	ProgressUpdates    int
	CollaborationScore float64
	Sentiment          float64
	Baseline           float64
	Topics             int
}

type rule func(Signals) (string, bool)

// rules run in this order; each contributes at most one line.
var rules = []rule{
	taskCompletionRule,
	blockerRule,
	collaborationRule,
	inactiveUsersRule,
	sentimentRule,
	volumeRule,
	progressRule,
	topicDiversityRule,
}

// Recommend evaluates every rule in order and collects what fires.
func Recommend(s Signals) []string {
	var out []string
	for _, r := range rules {
		if rec, ok := r(s); ok {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultRecommendation)
	}
	return out
}

func taskCompletionRule(s Signals) (string, bool) {
	if s.TasksCompleted == 0 {
		return "No completed tasks reported this week. Check whether work is being finished or tracked elsewhere.", true
	}
	return "", false
}

func blockerRule(s Signals) (string, bool) {
	if s.Blockers >= blockerThreshold {
		return fmt.Sprintf("%d blockers reported. Schedule time to unblock the team.", s.Blockers), true
	}
	return "", false
}

func collaborationRule(s Signals) (string, bool) {
	switch {
	case s.CollaborationScore < lowCollaboration:
		return "Limited peer support observed. Encourage more team collaboration.", true
	case s.CollaborationScore >= goodCollaboration:
		return "Good collaboration! Team members are actively helping each other.", true
	}
	return "", false
}

func inactiveUsersRule(s Signals) (string, bool) {
	var names []string
	for _, c := range s.Contributions {
		if !c.IsActive && c.TechnicalCount == 0 {
			names = append(names, c.Username)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	if len(names) > maxNamedInactiveUsers {
		names = names[:maxNamedInactiveUsers]
	}
	return fmt.Sprintf("Users with minimal technical contribution: %s. Consider checking their progress.", strings.Join(names, ", ")), true
}

func sentimentRule(s Signals) (string, bool) {
	switch {
	case s.Sentiment < negativeSentiment:
		return "Team sentiment is somewhat negative. May indicate frustration or blockers.", true
	case s.Sentiment > positiveSentiment:
		return "Positive team sentiment detected! Team morale seems high.", true
	}
	return "", false
}

// volumeRule compares this week's traffic with the training baseline. Low
// message count wins over short messages.
func volumeRule(s Signals) (string, bool) {
	if s.TotalMessages < lowVolume {
		return "Communication volume is low. Encourage more status updates and discussions.", true
	}
	if s.Baseline > 0 {
		mean := float64(s.TotalWords) / float64(s.TotalMessages)
		if mean < s.Baseline/2 {
			return "Messages are much shorter than usual. Encourage more detailed status updates.", true
		}
	}
	return "", false
}

func progressRule(s Signals) (string, bool) {
	if s.TotalMessages == 0 {
		return "", false
	}
	if float64(s.ProgressUpdates)/float64(s.TotalMessages) < lowProgressRatio {
		return "Few progress updates shared. Ask for regular updates on ongoing work.", true
	}
	return "", false
}

func topicDiversityRule(s Signals) (string, bool) {
	if s.Topics < minTopics {
		return "Discussion is narrowly focused. Check whether other parts of the project need attention.", true
	}
	return "", false
}
