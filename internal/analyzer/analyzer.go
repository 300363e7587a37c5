// Package analyzer wires the classification engine to its collaborators and
// to the service's storage, bus and Slack outputs.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/classifier"
	"github.com/MikeSquared-Agency/mentor/internal/contribution"
	"github.com/MikeSquared-Agency/mentor/internal/hermes"
	"github.com/MikeSquared-Agency/mentor/internal/nlp"
	"github.com/MikeSquared-Agency/mentor/internal/report"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

const (
	summaryMaxLen = 100
	summaryMinLen = 25
	overviewTop   = 5
)

// ErrNoCorpus is returned by Retrain when no corpus source is configured.
var ErrNoCorpus = errors.New("no training corpus configured")

// CorpusSource loads historical messages for training.
type CorpusSource interface {
	LoadCorpus(ctx context.Context, limit int) ([]chat.Message, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r *report.TeamReport) (uuid.UUID, error)
}

// Publisher emits events on the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// ReportPoster delivers a report to humans.
type ReportPoster interface {
	PostReport(ctx context.Context, r report.TeamReport) error
}

// Deps are the optional collaborators of an Analyzer. Nil fields disable
// the corresponding feature.
type Deps struct {
	NLP     *nlp.Suite
	Corpus  CorpusSource
	Reports ReportStore
	Bus     Publisher
	Poster  ReportPoster
}

// Options tune training and reporting.
type Options struct {
	Training    trainer.Options
	CorpusLimit int
	// SummaryWordThreshold is the word count above which the weekly
	// narrative is written by the summarizer instead of the template.
	SummaryWordThreshold int
}

// Analyzer owns the current model and runs every analysis against one
// snapshot of it.
type Analyzer struct {
	models  *trainer.Holder
	nlp     *nlp.Suite
	corpus  CorpusSource
	reports ReportStore
	bus     Publisher
	poster  ReportPoster
	opts    Options
	logger  *slog.Logger

	// trainMu guards trainGen and the swap into models. It is never held
	// while a model is being built; readers never take it.
	trainMu  sync.Mutex
	trainGen uint64
}

func New(deps Deps, opts Options, logger *slog.Logger) *Analyzer {
	suite := deps.NLP
	if suite == nil {
		suite = nlp.Builtin(logger)
	}
	return &Analyzer{
		models:  trainer.NewHolder(),
		nlp:     suite,
		corpus:  deps.Corpus,
		reports: deps.Reports,
		bus:     deps.Bus,
		poster:  deps.Poster,
		opts:    opts,
		logger:  logger,
	}
}

// Model returns the current model snapshot.
func (a *Analyzer) Model() *trainer.Model {
	return a.models.Load()
}

// Train builds a model from corpus and publishes it as the current one.
// When trainings overlap the most recently started one wins; a superseded
// build is discarded and Train returns the current model instead.
func (a *Analyzer) Train(ctx context.Context, corpus []chat.Message) *trainer.Model {
	a.trainMu.Lock()
	a.trainGen++
	gen := a.trainGen
	a.trainMu.Unlock()

	start := time.Now()
	model := trainer.Train(ctx, corpus, suiteTokenizer{a.nlp}, a.opts.Training)

	a.trainMu.Lock()
	if gen != a.trainGen {
		a.trainMu.Unlock()
		a.logger.Info("training superseded, discarding model",
			"model_id", model.ID,
			"duration", time.Since(start),
		)
		return a.models.Load()
	}
	a.models.Store(model)
	a.trainMu.Unlock()

	stats := model.Stats()
	a.logger.Info("model trained",
		"model_id", model.ID,
		"corpus_size", model.CorpusSize,
		"avg_message_length", model.AvgMessageLength,
		"duration", time.Since(start),
	)

	if a.bus != nil && model.Trained() {
		patterns := make(map[string]int, len(stats.PatternsLearned))
		for axis, n := range stats.PatternsLearned {
			patterns[string(axis)] = n
		}
		if err := a.bus.Publish(hermes.SubjectModelTrained, hermes.ModelTrained{
			ModelID:          model.ID.String(),
			CorpusSize:       model.CorpusSize,
			AvgMessageLength: model.AvgMessageLength,
			PatternsLearned:  patterns,
			TrainedAt:        model.TrainedAt,
		}); err != nil {
			a.logger.Error("failed to publish model trained", "error", err)
		}
	}
	return model
}

// Retrain loads the corpus from the configured source and trains on it.
func (a *Analyzer) Retrain(ctx context.Context) (*trainer.Model, error) {
	if a.corpus == nil {
		return nil, ErrNoCorpus
	}
	corpus, err := a.corpus.LoadCorpus(ctx, a.opts.CorpusLimit)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return a.Train(ctx, corpus), nil
}

// Classify tags every message against the current model.
func (a *Analyzer) Classify(msgs []chat.Message) []contribution.Classified {
	return classify(a.Model(), msgs)
}

func classify(model *trainer.Model, msgs []chat.Message) []contribution.Classified {
	out := make([]contribution.Classified, len(msgs))
	for i, m := range msgs {
		out[i] = contribution.Classified{Author: m.Author, Result: classifier.Classify(m, model)}
	}
	return out
}

// Contributions returns the ranked per-user aggregates for msgs.
func (a *Analyzer) Contributions(msgs []chat.Message) []contribution.UserContribution {
	return contribution.Aggregate(a.Classify(msgs), msgs)
}

// WeeklyReport builds the team report for msgs. Collaborator failures
// degrade the report; they never fail it.
func (a *Analyzer) WeeklyReport(ctx context.Context, msgs []chat.Message) report.TeamReport {
	if len(msgs) == 0 {
		return report.Synthesize(report.Input{})
	}

	model := a.Model()
	contribs := contribution.Aggregate(classify(model, msgs), msgs)
	text := chat.JoinText(msgs)

	in := report.Input{
		Contributions: contribs,
		Messages:      msgs,
		Sentiment:     a.nlp.SentimentOf(ctx, text),
		Topics:        report.Topics(a.nlp.NounPhrases(ctx, text)),
		Baseline:      model.AvgMessageLength,
	}
	if a.opts.SummaryWordThreshold > 0 && len(strings.Fields(text)) > a.opts.SummaryWordThreshold {
		if summary, ok := a.nlp.ModelSummary(ctx, text, summaryMaxLen, summaryMinLen); ok {
			in.Summary = summary
		}
	}

	r := report.Synthesize(in)
	a.logger.Info("weekly report generated",
		"messages", r.TotalMessages,
		"participants", r.TotalParticipants,
		"momentum", r.ProjectMomentum,
		"model_id", model.ID,
	)
	return r
}

// Deliver persists, publishes and posts a report to whichever outputs are
// configured. Only a storage failure is returned; bus and Slack failures
// are logged.
func (a *Analyzer) Deliver(ctx context.Context, requestID string, r report.TeamReport, post bool) (uuid.UUID, error) {
	var id uuid.UUID
	if a.reports != nil {
		saved, err := a.reports.SaveReport(ctx, &r)
		if err != nil {
			return uuid.Nil, fmt.Errorf("save report: %w", err)
		}
		id = saved
	}

	if a.bus != nil {
		evt := hermes.ReportGenerated{RequestID: requestID, Report: r}
		if id != uuid.Nil {
			evt.ReportID = id.String()
		}
		if err := a.bus.Publish(hermes.SubjectReportGenerated, evt); err != nil {
			a.logger.Error("failed to publish report generated", "error", err)
		}
	}

	if post && a.poster != nil {
		if err := a.poster.PostReport(ctx, r); err != nil {
			a.logger.Error("failed to post report to slack", "error", err)
		}
	}
	return id, nil
}

// Overview returns sentiment, top keywords and a summary of the whole
// conversation.
func (a *Analyzer) Overview(ctx context.Context, msgs []chat.Message) report.Overview {
	text := chat.JoinText(msgs)
	if strings.TrimSpace(text) == "" {
		return report.EmptyOverview()
	}

	var lemmas []string
	for _, tok := range a.nlp.Tokens(ctx, text) {
		if tok.Keyword() {
			lemmas = append(lemmas, strings.ToLower(tok.Lemma))
		}
	}

	return report.Overview{
		OverallSentiment: a.nlp.SentimentOf(ctx, text),
		TopKeywords:      report.TopKeywords(lemmas, overviewTop),
		AISummary:        a.nlp.Summary(ctx, text, summaryMaxLen, summaryMinLen),
	}
}

// Participation ranks users by message volume and tone.
func (a *Analyzer) Participation(ctx context.Context, msgs []chat.Message) report.ParticipationReport {
	return report.Participation(msgs, func(text string) float64 {
		return a.nlp.SentimentOf(ctx, text)
	})
}

// HandleRetrainRequested is the NATS handler for mentor.retrain.requested.
func (a *Analyzer) HandleRetrainRequested(evt hermes.RetrainRequested) {
	a.logger.Info("retrain requested", "requested_by", evt.RequestedBy, "reason", evt.Reason)
	if _, err := a.Retrain(context.Background()); err != nil {
		a.logger.Error("retrain failed", "error", err)
	}
}

// HandleReportRequested is the NATS handler for mentor.report.requested.
func (a *Analyzer) HandleReportRequested(evt hermes.ReportRequested) {
	ctx := context.Background()
	r := a.WeeklyReport(ctx, evt.Messages)
	if _, err := a.Deliver(ctx, evt.RequestID, r, evt.PostToSlack); err != nil {
		a.logger.Error("report delivery failed", "request_id", evt.RequestID, "error", err)
	}
}

// suiteTokenizer routes training through the suite so tokenizer failures
// are logged before the trainer degrades.
type suiteTokenizer struct {
	suite *nlp.Suite
}

func (t suiteTokenizer) Tokenize(ctx context.Context, text string) ([]nlp.Token, error) {
	return t.suite.Tokens(ctx, text), nil
}
