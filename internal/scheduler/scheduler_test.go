package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedule_ValidSpecs(t *testing.T) {
	tests := []string{"@daily", "@every 6h", "0 3 * * *", "*/15 * * * *"}
	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			s := New(nil, testLogger())
			if err := s.Schedule(spec, func() {}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(s.cron.Entries()) != 1 {
				t.Errorf("expected 1 entry, got %d", len(s.cron.Entries()))
			}
		})
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s := New(nil, testLogger())
	if err := s.Schedule("every tuesday", func() {}); err == nil {
		t.Error("expected error for invalid spec")
	}
	if len(s.cron.Entries()) != 0 {
		t.Error("expected no entries after failed schedule")
	}
}

func TestSchedule_ReplacesJob(t *testing.T) {
	s := New(nil, testLogger())
	if err := s.Schedule("@daily", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := s.Schedule("@hourly", func() {}); err != nil {
		t.Fatal(err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("expected replacement to keep 1 entry, got %d", len(s.cron.Entries()))
	}
}

func TestNext_AfterStart(t *testing.T) {
	loc, err := time.LoadLocation("UTC")
	if err != nil {
		t.Fatal(err)
	}
	s := New(loc, testLogger())
	if !s.Next().IsZero() {
		t.Error("expected zero next time with nothing scheduled")
	}
	if err := s.Schedule("@daily", func() {}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()

	next := s.Next()
	if next.IsZero() || !next.After(time.Now()) {
		t.Errorf("expected a future run time, got %v", next)
	}
}

func TestStartStop_Idempotent(t *testing.T) {
	s := New(nil, testLogger())
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestGuard_RecoversPanic(t *testing.T) {
	s := New(nil, testLogger())
	var ran atomic.Bool
	job := s.guard("@daily", func() {
		ran.Store(true)
		panic("boom")
	})

	job()

	if !ran.Load() {
		t.Error("expected job to run")
	}
}
