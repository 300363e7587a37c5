package report

import (
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
)

const (
	maxDiscussions      = 5
	minDiscussionLength = 30
	discussionBudget    = 100

	maxTopicWords   = 3
	topicCandidates = 10
	minTopicCount   = 2
	maxTopics       = 8
)

var importantKeywords = []string{
	"complete", "finish", "implement", "deploy", "ready", "done", "issue", "problem", "solution",
}

var genericTopics = map[string]bool{"team": true, "everyone": true, "anyone": true}

// KeyDiscussions picks the first messages that mention an important keyword
// and are longer than 30 characters, rendered as "author: text".
func KeyDiscussions(msgs []chat.Message) []string {
	out := []string{}
	for _, m := range msgs {
		if len(out) == maxDiscussions {
			break
		}
		runes := []rune(m.Text)
		if len(runes) <= minDiscussionLength || !mentionsImportant(strings.ToLower(m.Text)) {
			continue
		}
		text := m.Text
		if len(runes) > discussionBudget {
			text = string(runes[:discussionBudget]) + "..."
		}
		out = append(out, m.Author+": "+text)
	}
	return out
}

func mentionsImportant(lowered string) bool {
	for _, kw := range importantKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Topics filters raw noun phrases into report topics: phrases of at most
// three words, excluding generic team words, that occur at least twice
// among the ten most frequent. At most eight are kept.
func Topics(phrases []string) []string {
	type counted struct {
		phrase string
		n      int
	}
	idx := make(map[string]int)
	var all []counted
	for _, p := range phrases {
		if len(strings.Fields(p)) > maxTopicWords || genericTopics[strings.ToLower(p)] {
			continue
		}
		if i, ok := idx[p]; ok {
			all[i].n++
			continue
		}
		idx[p] = len(all)
		all = append(all, counted{phrase: p, n: 1})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].n > all[j].n })
	if len(all) > topicCandidates {
		all = all[:topicCandidates]
	}

	topics := []string{}
	for _, c := range all {
		if c.n >= minTopicCount && len(topics) < maxTopics {
			topics = append(topics, c.phrase)
		}
	}
	return topics
}
