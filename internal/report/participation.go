package report

import (
	"math"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
)

// UserActivity is one row of the participation ranking.
type UserActivity struct {
	Rank               int     `json:"rank"`
	Username           string  `json:"username"`
	MessageCount       int     `json:"message_count"`
	WordCount          int     `json:"word_count"`
	AvgSentiment       float64 `json:"avg_sentiment"`
	ParticipationScore float64 `json:"participation_score"`
}

// ParticipationReport ranks users by raw participation, independent of
// what they talked about.
type ParticipationReport struct {
	TotalMessages   int            `json:"total_messages"`
	TotalUsers      int            `json:"total_users"`
	UserRankings    []UserActivity `json:"user_rankings"`
	MostActiveUser  string         `json:"most_active_user"`
	TopContributors []string       `json:"top_contributors"`
}

// ParticipationScore is msgs*10 + words*0.5 plus up to 20 points for
// positive sentiment.
func ParticipationScore(messages, words int, sentiment float64) float64 {
	return float64(messages)*10 + float64(words)*0.5 + math.Max(0, sentiment*20)
}

// Participation groups messages by author and ranks them. sentiment is
// called once per user with that user's messages joined by spaces.
func Participation(msgs []chat.Message, sentiment func(text string) float64) ParticipationReport {
	if len(msgs) == 0 {
		return ParticipationReport{
			UserRankings:    []UserActivity{},
			MostActiveUser:  "None",
			TopContributors: []string{},
		}
	}

	idx := make(map[string]int)
	var users []UserActivity
	var texts [][]string
	for _, m := range msgs {
		i, ok := idx[m.Author]
		if !ok {
			i = len(users)
			idx[m.Author] = i
			users = append(users, UserActivity{Username: m.Author})
			texts = append(texts, nil)
		}
		users[i].MessageCount++
		users[i].WordCount += m.WordCount()
		texts[i] = append(texts[i], m.Text)
	}

	for i := range users {
		var s float64
		if sentiment != nil {
			s = sentiment(strings.Join(texts[i], " "))
		}
		users[i].AvgSentiment = math.Round(s*1000) / 1000
		users[i].ParticipationScore = math.Round(ParticipationScore(users[i].MessageCount, users[i].WordCount, s)*100) / 100
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].ParticipationScore > users[j].ParticipationScore
	})

	top := make([]string, 0, 3)
	for i := range users {
		users[i].Rank = i + 1
		if i < 3 {
			top = append(top, users[i].Username)
		}
	}

	return ParticipationReport{
		TotalMessages:   len(msgs),
		TotalUsers:      len(users),
		UserRankings:    users,
		MostActiveUser:  users[0].Username,
		TopContributors: top,
	}
}

// Overview is the quick whole-conversation analysis.
type Overview struct {
	OverallSentiment float64  `json:"overall_sentiment"`
	TopKeywords      []string `json:"top_keywords"`
	AISummary        string   `json:"ai_summary"`
}

// EmptyOverview is returned when there is no text to analyze.
func EmptyOverview() Overview {
	return Overview{TopKeywords: []string{}, AISummary: "No messages to analyze."}
}

// TopKeywords returns the n most frequent lemmas, ties in first-seen order.
func TopKeywords(lemmas []string, n int) []string {
	idx := make(map[string]int)
	var keys []string
	var counts []int
	for _, l := range lemmas {
		if i, ok := idx[l]; ok {
			counts[i]++
			continue
		}
		idx[l] = len(keys)
		keys = append(keys, l)
		counts = append(counts, 1)
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	out := []string{}
	for _, i := range order {
		if len(out) == n {
			break
		}
		out = append(out, keys[i])
	}
	return out
}
