package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/report"
)

// Subjects consumed and emitted by the mentor service.
const (
	SubjectRetrainRequested = "mentor.retrain.requested"
	SubjectReportRequested  = "mentor.report.requested"
	SubjectModelTrained     = "mentor.model.trained"
	SubjectReportGenerated  = "mentor.report.generated"
	SubjectRegistered       = "swarm.agent.mentor.registered"
)

// RetrainRequested asks the service to rebuild its model from the corpus.
type RetrainRequested struct {
	RequestedBy string `json:"requested_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ReportRequested carries a week of messages to analyze.
type ReportRequested struct {
	RequestID   string         `json:"request_id,omitempty"`
	Messages    []chat.Message `json:"messages"`
	PostToSlack bool           `json:"post_to_slack,omitempty"`
}

// ModelTrained is published after every successful retrain.
type ModelTrained struct {
	ModelID          string         `json:"model_id"`
	CorpusSize       int            `json:"corpus_size"`
	AvgMessageLength float64        `json:"avg_message_length"`
	PatternsLearned  map[string]int `json:"patterns_learned"`
	TrainedAt        time.Time      `json:"trained_at"`
}

// ReportGenerated is published once a weekly report has been built.
type ReportGenerated struct {
	RequestID string            `json:"request_id,omitempty"`
	ReportID  string            `json:"report_id,omitempty"`
	Report    report.TeamReport `json:"report"`
}
