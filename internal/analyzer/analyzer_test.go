package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/hermes"
	"github.com/MikeSquared-Agency/mentor/internal/nlp"
	"github.com/MikeSquared-Agency/mentor/internal/report"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func msg(author, text string) chat.Message {
	return chat.Message{Author: author, Text: text}
}

type published struct {
	subject string
	data    any
}

type fakeBus struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (b *fakeBus) Publish(subject string, data any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, published{subject, data})
	return b.err
}

type fakeCorpus struct {
	msgs      []chat.Message
	err       error
	lastLimit int
}

func (c *fakeCorpus) LoadCorpus(_ context.Context, limit int) ([]chat.Message, error) {
	c.lastLimit = limit
	return c.msgs, c.err
}

type fakeStore struct {
	id    uuid.UUID
	err   error
	saved []*report.TeamReport
}

func (s *fakeStore) SaveReport(_ context.Context, r *report.TeamReport) (uuid.UUID, error) {
	s.saved = append(s.saved, r)
	return s.id, s.err
}

type fakePoster struct {
	posted []report.TeamReport
	err    error
}

func (p *fakePoster) PostReport(_ context.Context, r report.TeamReport) error {
	p.posted = append(p.posted, r)
	return p.err
}

type fixedSummarizer struct {
	out   string
	calls int
}

func (s *fixedSummarizer) Summarize(context.Context, string, int, int) (string, error) {
	s.calls++
	return s.out, nil
}

var trainingCorpus = []chat.Message{
	msg("alice", "Deployed the fix, task completed"),
	msg("bob", "I'm stuck on the migration error"),
	msg("alice", "Working on the api update"),
	msg("carol", "thanks for the review"),
}

func longWeek() []chat.Message {
	var msgs []chat.Message
	for i := 0; i < 6; i++ {
		msgs = append(msgs, msg("alice", "working on the payment service refactor and the database migration today"))
	}
	return msgs
}

func TestAnalyzer_StartsUntrained(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())

	if a.Model() == nil {
		t.Fatal("expected a non-nil model before training")
	}
	if a.Model().Trained() {
		t.Error("expected untrained model")
	}
}

func TestAnalyzer_TrainPublishesModel(t *testing.T) {
	bus := &fakeBus{}
	a := New(Deps{Bus: bus}, Options{}, testLogger())

	model := a.Train(context.Background(), trainingCorpus)

	if a.Model() != model {
		t.Error("expected trained model to become current")
	}
	if len(bus.sent) != 1 || bus.sent[0].subject != hermes.SubjectModelTrained {
		t.Fatalf("expected one model trained event, got %+v", bus.sent)
	}
	evt := bus.sent[0].data.(hermes.ModelTrained)
	if evt.ModelID != model.ID.String() || evt.CorpusSize != 4 {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.PatternsLearned["task_completion"] != 1 {
		t.Errorf("expected 1 task completion pattern, got %v", evt.PatternsLearned)
	}
}

func TestAnalyzer_TrainEmptyCorpusIsQuiet(t *testing.T) {
	bus := &fakeBus{}
	a := New(Deps{Bus: bus}, Options{}, testLogger())

	a.Train(context.Background(), nil)

	if len(bus.sent) != 0 {
		t.Errorf("expected no event for empty corpus, got %d", len(bus.sent))
	}
}

func TestAnalyzer_TrainSurvivesPublishFailure(t *testing.T) {
	bus := &fakeBus{err: errors.New("nats down")}
	a := New(Deps{Bus: bus}, Options{}, testLogger())

	if m := a.Train(context.Background(), trainingCorpus); !m.Trained() {
		t.Error("expected model despite publish failure")
	}
}

// gatedTokenizer blocks its first call until release is closed.
type gatedTokenizer struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTokenizer) Tokenize(context.Context, string) ([]nlp.Token, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
	return nil, nil
}

func TestAnalyzer_TrainDoesNotBlockOnSlowBuild(t *testing.T) {
	gate := &gatedTokenizer{entered: make(chan struct{}), release: make(chan struct{})}
	bus := &fakeBus{}
	suite := &nlp.Suite{Tokenizer: gate, Logger: testLogger()}
	a := New(Deps{NLP: suite, Bus: bus}, Options{}, testLogger())

	slow := make(chan *trainer.Model, 1)
	go func() { slow <- a.Train(context.Background(), trainingCorpus) }()
	<-gate.entered

	fast := make(chan *trainer.Model, 1)
	go func() { fast <- a.Train(context.Background(), trainingCorpus[:2]) }()

	var current *trainer.Model
	select {
	case current = <-fast:
	case <-time.After(2 * time.Second):
		close(gate.release)
		t.Fatal("second training waited for the first one's build")
	}
	if a.Model() != current || current.CorpusSize != 2 {
		t.Fatalf("expected the second model to be current, got size %d", a.Model().CorpusSize)
	}

	close(gate.release)
	stale := <-slow

	if stale != current || a.Model() != current {
		t.Error("superseded training should not replace the newer model")
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.sent) != 1 {
		t.Errorf("expected only the winning model to be announced, got %d events", len(bus.sent))
	}
}

func TestAnalyzer_Retrain(t *testing.T) {
	t.Run("no corpus source", func(t *testing.T) {
		a := New(Deps{}, Options{}, testLogger())
		if _, err := a.Retrain(context.Background()); !errors.Is(err, ErrNoCorpus) {
			t.Errorf("expected ErrNoCorpus, got %v", err)
		}
	})

	t.Run("load failure keeps previous model", func(t *testing.T) {
		src := &fakeCorpus{err: errors.New("connection refused")}
		a := New(Deps{Corpus: src}, Options{}, testLogger())
		prev := a.Train(context.Background(), trainingCorpus)

		_, err := a.Retrain(context.Background())
		if err == nil || !strings.Contains(err.Error(), "load corpus") {
			t.Fatalf("expected wrapped load error, got %v", err)
		}
		if a.Model() != prev {
			t.Error("expected previous model to stay current")
		}
	})

	t.Run("passes corpus limit", func(t *testing.T) {
		src := &fakeCorpus{msgs: trainingCorpus}
		a := New(Deps{Corpus: src}, Options{CorpusLimit: 500}, testLogger())

		m, err := a.Retrain(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if src.lastLimit != 500 {
			t.Errorf("expected limit 500, got %d", src.lastLimit)
		}
		if m.CorpusSize != 4 {
			t.Errorf("expected corpus size 4, got %d", m.CorpusSize)
		}
	})
}

func TestAnalyzer_ClassifyUsesCurrentModel(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())
	week := []chat.Message{msg("dave", "the build is green")}

	if a.Classify(week)[0].Result.TaskCompleted {
		t.Error("expected no completion before training")
	}

	a.Train(context.Background(), trainingCorpus)

	got := a.Classify(week)
	if got[0].Author != "dave" {
		t.Errorf("expected author dave, got %q", got[0].Author)
	}
	if !got[0].Result.TaskCompleted {
		t.Error("expected completion once prefix words are learned")
	}
}

func TestAnalyzer_Contributions(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())
	week := []chat.Message{
		msg("alice", "fixed the api bug"),
		msg("bob", "lunch?"),
		msg("alice", "deploy the backend"),
	}

	got := a.Contributions(week)
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	if got[0].Username != "alice" || got[0].Rank != 1 {
		t.Errorf("expected alice ranked first, got %+v", got[0])
	}
}

func TestAnalyzer_WeeklyReportEmpty(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())

	r := a.WeeklyReport(context.Background(), nil)
	if r.ReportPeriod != "No data" {
		t.Errorf("expected default report, got period %q", r.ReportPeriod)
	}
}

func TestAnalyzer_WeeklyReportSummary(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		wantModel bool
	}{
		{"above threshold", 10, true},
		{"below threshold", 1000, false},
		{"disabled", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := &fixedSummarizer{out: "Alice carried the refactor."}
			suite := nlp.Builtin(testLogger())
			suite.Summarizer = sum
			a := New(Deps{NLP: suite}, Options{SummaryWordThreshold: tt.threshold}, testLogger())

			r := a.WeeklyReport(context.Background(), longWeek())

			gotModel := r.ActivitySummary == sum.out
			if gotModel != tt.wantModel {
				t.Errorf("model summary used = %v, want %v (summary %q)", gotModel, tt.wantModel, r.ActivitySummary)
			}
			if r.TotalMessages != 6 {
				t.Errorf("expected 6 messages, got %d", r.TotalMessages)
			}
		})
	}
}

func TestAnalyzer_WeeklyReportUsesBaseline(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())
	var corpus []chat.Message
	for i := 0; i < 5; i++ {
		corpus = append(corpus, msg("alice", "a long and detailed status update about the ongoing database migration work"))
	}
	a.Train(context.Background(), corpus)

	var week []chat.Message
	for i := 0; i < 25; i++ {
		week = append(week, msg("bob", "ok"))
	}
	r := a.WeeklyReport(context.Background(), week)

	found := false
	for _, rec := range r.Recommendations {
		if strings.HasPrefix(rec, "Messages are much shorter than usual") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected short-message recommendation, got %v", r.Recommendations)
	}
}

func TestAnalyzer_Deliver(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{id: id}
	bus := &fakeBus{}
	poster := &fakePoster{err: errors.New("slack 500")}
	a := New(Deps{Reports: store, Bus: bus, Poster: poster}, Options{}, testLogger())
	r := a.WeeklyReport(context.Background(), longWeek())

	got, err := a.Deliver(context.Background(), "req-1", r, true)
	if err != nil {
		t.Fatalf("expected poster failure to be swallowed, got %v", err)
	}
	if got != id {
		t.Errorf("expected id %s, got %s", id, got)
	}
	if len(store.saved) != 1 || len(poster.posted) != 1 {
		t.Errorf("expected one save and one post, got %d and %d", len(store.saved), len(poster.posted))
	}
	if len(bus.sent) != 1 || bus.sent[0].subject != hermes.SubjectReportGenerated {
		t.Fatalf("expected one report generated event, got %+v", bus.sent)
	}
	evt := bus.sent[0].data.(hermes.ReportGenerated)
	if evt.RequestID != "req-1" || evt.ReportID != id.String() {
		t.Errorf("unexpected event ids: %+v", evt)
	}
}

func TestAnalyzer_DeliverStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	bus := &fakeBus{}
	a := New(Deps{Reports: store, Bus: bus}, Options{}, testLogger())

	_, err := a.Deliver(context.Background(), "", report.Synthesize(report.Input{}), false)
	if err == nil || !strings.Contains(err.Error(), "save report") {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if len(bus.sent) != 0 {
		t.Error("expected nothing published after store failure")
	}
}

func TestAnalyzer_DeliverWithoutPostFlag(t *testing.T) {
	poster := &fakePoster{}
	a := New(Deps{Poster: poster}, Options{}, testLogger())

	if _, err := a.Deliver(context.Background(), "", report.Synthesize(report.Input{}), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(poster.posted) != 0 {
		t.Error("expected no slack post without the flag")
	}
}

func TestAnalyzer_HandleReportRequested(t *testing.T) {
	bus := &fakeBus{}
	poster := &fakePoster{}
	a := New(Deps{Bus: bus, Poster: poster}, Options{}, testLogger())

	payload, err := json.Marshal(hermes.ReportRequested{
		RequestID:   "req-9",
		Messages:    longWeek(),
		PostToSlack: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	hermes.Handle(testLogger(), a.HandleReportRequested)(hermes.SubjectReportRequested, payload)

	if len(bus.sent) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.sent))
	}
	evt := bus.sent[0].data.(hermes.ReportGenerated)
	if evt.RequestID != "req-9" || evt.Report.TotalMessages != 6 {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.ReportID != "" {
		t.Errorf("expected no report id without a store, got %q", evt.ReportID)
	}
	if len(poster.posted) != 1 {
		t.Error("expected report posted to slack")
	}
}

func TestAnalyzer_HandleRetrainRequested(t *testing.T) {
	src := &fakeCorpus{msgs: trainingCorpus}
	a := New(Deps{Corpus: src}, Options{}, testLogger())

	a.HandleRetrainRequested(hermes.RetrainRequested{RequestedBy: "ops", Reason: "new channel"})

	if !a.Model().Trained() {
		t.Error("expected model trained after retrain request")
	}
}

func TestAnalyzer_Overview(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())

	empty := a.Overview(context.Background(), nil)
	if empty.AISummary != "No messages to analyze." || len(empty.TopKeywords) != 0 {
		t.Errorf("unexpected empty overview: %+v", empty)
	}

	got := a.Overview(context.Background(), []chat.Message{
		msg("alice", "deploy the server"),
		msg("bob", "the server is great"),
	})
	if len(got.TopKeywords) == 0 || got.TopKeywords[0] != "server" {
		t.Errorf("expected server as top keyword, got %v", got.TopKeywords)
	}
	if got.AISummary != "deploy the server the server is great" {
		t.Errorf("expected truncation summary, got %q", got.AISummary)
	}
}

func TestAnalyzer_Participation(t *testing.T) {
	a := New(Deps{}, Options{}, testLogger())

	got := a.Participation(context.Background(), []chat.Message{
		msg("alice", "one two three"),
		msg("bob", "one"),
		msg("alice", "four"),
	})
	if got.MostActiveUser != "alice" || got.TotalUsers != 2 {
		t.Errorf("unexpected participation: %+v", got)
	}
}
