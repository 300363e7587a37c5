package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/report"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostReport posts the weekly digest and threads the recommendations under
// it. A failed thread reply is logged, not returned.
func (p *Poster) PostReport(ctx context.Context, r report.TeamReport) error {
	text := formatReport(r)
	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{"type": "plain_text", "text": "Weekly mentor report: " + r.ReportPeriod},
			},
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{"type": "mrkdwn", "text": fmt.Sprintf("Generated %s", r.GeneratedAt.UTC().Format(time.RFC1123))},
				},
			},
		},
	})
	if err != nil {
		return err
	}
	p.logger.Info("posted report to slack", "ts", ts, "period", r.ReportPeriod)

	if len(r.Recommendations) > 0 {
		if err := p.PostThread(ctx, ts, formatRecommendations(r.Recommendations)); err != nil {
			p.logger.Warn("failed to post recommendations thread", "ts", ts, "error", err)
		}
	}
	return nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatReport(r report.TeamReport) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Momentum:* %s | *Messages:* %d | *Participants:* %d\n",
		r.ProjectMomentum, r.TotalMessages, r.TotalParticipants)
	fmt.Fprintf(&sb, "*Tasks completed:* %d | *Blockers:* %d | *Progress updates:* %d\n",
		r.TasksCompleted, r.BlockersReported, r.ProgressUpdates)
	fmt.Fprintf(&sb, "*Collaboration:* %.0f/100 | *Sentiment:* %+.2f\n\n", r.CollaborationScore, r.OverallSentiment)

	sb.WriteString(r.ActivitySummary)
	sb.WriteString("\n")

	if len(r.TopContributors) > 0 {
		sb.WriteString("\n*Top contributors*\n")
		for _, c := range r.TopContributors {
			fmt.Fprintf(&sb, "%d. %s (%.1f, %s)\n", c.Rank, c.Username, c.Score, c.Quality)
		}
	}

	if len(r.TechnicalTopics) > 0 {
		fmt.Fprintf(&sb, "\n*Topics:* %s\n", strings.Join(r.TechnicalTopics, ", "))
	}

	if len(r.KeyDiscussions) > 0 {
		sb.WriteString("\n*Key discussions*\n")
		for _, d := range r.KeyDiscussions {
			fmt.Fprintf(&sb, "> %s\n", d)
		}
	}

	return sb.String()
}

func formatRecommendations(recs []string) string {
	var sb strings.Builder
	sb.WriteString("*Recommendations*\n")
	for _, rec := range recs {
		fmt.Fprintf(&sb, "• %s\n", rec)
	}
	return sb.String()
}
