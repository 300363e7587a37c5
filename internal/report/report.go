// Package report turns ranked contributions into a weekly team report.
// Every function here is pure; collaborator calls (sentiment, noun
// phrases, summaries) happen before Synthesize and arrive as Input.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/contribution"
)

const topContributors = 5

// Momentum is the coarse team progress state.
type Momentum string

const (
	Strong   Momentum = "Strong"
	Moderate Momentum = "Moderate"
	Weak     Momentum = "Weak"
)

// TeamReport is the weekly mentor report. It is never modified after
// Synthesize returns it.
type TeamReport struct {
	ReportPeriod       string                          `json:"report_period"`
	GeneratedAt        time.Time                       `json:"generated_at"`
	TotalMessages      int                             `json:"total_messages"`
	TotalParticipants  int                             `json:"total_participants"`
	OverallSentiment   float64                         `json:"overall_sentiment"`
	ProjectMomentum    Momentum                        `json:"project_momentum"`
	TasksCompleted     int                             `json:"tasks_completed"`
	BlockersReported   int                             `json:"blockers_reported"`
	ProgressUpdates    int                             `json:"progress_updates"`
	CollaborationScore float64                         `json:"collaboration_score"`
	TopContributors    []contribution.UserContribution `json:"top_contributors"`
	KeyDiscussions     []string                        `json:"key_discussions"`
	TechnicalTopics    []string                        `json:"technical_topics"`
	Recommendations    []string                        `json:"recommendations"`
	ActivitySummary    string                          `json:"activity_summary"`
}

// Input carries everything Synthesize needs.
type Input struct {
	// Contributions must already be ranked.
	Contributions []contribution.UserContribution
	Messages      []chat.Message
	Sentiment     float64
	Topics        []string
	// Baseline is the mean words per message seen in training; zero when
	// the model is untrained.
	Baseline float64
	// Summary, when set, replaces the templated narrative.
	Summary string
	Now     time.Time
}

// Synthesize builds the team report. An empty message list yields the
// default "No data" report.
func Synthesize(in Input) TeamReport {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if len(in.Messages) == 0 {
		return TeamReport{
			ReportPeriod:    "No data",
			GeneratedAt:     now,
			ProjectMomentum: Weak,
			TopContributors: []contribution.UserContribution{},
			KeyDiscussions:  []string{},
			TechnicalTopics: []string{},
			Recommendations: []string{"No activity to analyze"},
			ActivitySummary: "No messages received this week.",
		}
	}

	totals := contribution.Sum(in.Contributions)
	total := len(in.Messages)
	techRatio := float64(totals.Technical) / float64(total)
	momentum := MomentumFor(techRatio, totals.ActiveUsers, totals.TasksCompleted)
	collab := CollaborationScore(totals.Collaboration, total)

	topics := in.Topics
	if topics == nil {
		topics = []string{}
	}

	summary := in.Summary
	if strings.TrimSpace(summary) == "" {
		summary = Narrative(total, len(in.Contributions), techRatio, contribution.Active(in.Contributions), momentum, in.Sentiment)
	}

	top := in.Contributions
	if len(top) > topContributors {
		top = top[:topContributors]
	}

	return TeamReport{
		ReportPeriod:       "Week of " + now.Format("January 02, 2006"),
		GeneratedAt:        now,
		TotalMessages:      total,
		TotalParticipants:  len(in.Contributions),
		OverallSentiment:   math.Round(in.Sentiment*1000) / 1000,
		ProjectMomentum:    momentum,
		TasksCompleted:     totals.TasksCompleted,
		BlockersReported:   totals.Blockers,
		ProgressUpdates:    totals.Progress,
		CollaborationScore: contribution.Round2(collab),
		TopContributors:    append([]contribution.UserContribution{}, top...),
		KeyDiscussions:     KeyDiscussions(in.Messages),
		TechnicalTopics:    topics,
		Recommendations: Recommend(Signals{
			Contributions:      in.Contributions,
			TotalMessages:      total,
			TotalWords:         wordCount(in.Messages),
			TasksCompleted:     totals.TasksCompleted,
			Blockers:           totals.Blockers,
			ProgressUpdates:    totals.Progress,
			CollaborationScore: collab,
			Sentiment:          in.Sentiment,
			Baseline:           in.Baseline,
			Topics:             len(topics),
		}),
		ActivitySummary: summary,
	}
}

// MomentumFor classifies team momentum from the technical message ratio,
// the number of active contributors and the completed task count.
func MomentumFor(technicalRatio float64, active, tasks int) Momentum {
	switch {
	case technicalRatio >= 0.5 && active >= 3 && tasks >= 5:
		return Strong
	case (technicalRatio >= 0.3 || active >= 2) && tasks >= 2:
		return Moderate
	default:
		return Weak
	}
}

// CollaborationScore is min(100, 200*signals/total), or 0 without messages.
func CollaborationScore(signals, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Min(100, 200*float64(signals)/float64(total))
}

// Narrative renders the templated activity summary.
func Narrative(total, participants int, technicalRatio float64, active []contribution.UserContribution, momentum Momentum, sentiment float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This week, the team exchanged %d messages with %d participants. ", total, participants)
	fmt.Fprintf(&b, "Technical discussions accounted for %d%% of conversations. ", int(technicalRatio*100))

	if len(active) > 0 {
		n := min(3, len(active))
		names := make([]string, n)
		for i := range names {
			names[i] = active[i].Username
		}
		fmt.Fprintf(&b, "Top contributors: %s. ", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "Project momentum is %s with %s team sentiment.", strings.ToLower(string(momentum)), sentimentWord(sentiment))
	return b.String()
}

func sentimentWord(s float64) string {
	switch {
	case s > 0.1:
		return "positive"
	case s > -0.1:
		return "neutral"
	default:
		return "concerning"
	}
}

func wordCount(msgs []chat.Message) int {
	var n int
	for _, m := range msgs {
		n += m.WordCount()
	}
	return n
}
