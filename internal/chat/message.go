package chat

import (
	"strings"
	"time"
)

// Message is a single chat message from a team workspace. The analysis
// pipeline treats it as read-only.
type Message struct {
	Author    string     `json:"username"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// WordCount returns the number of whitespace-delimited words in the text.
func (m Message) WordCount() int {
	return len(strings.Fields(m.Text))
}

// JoinText concatenates all message texts with single spaces.
func JoinText(msgs []Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Text
	}
	return strings.Join(parts, " ")
}
