package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/analyzer"
	"github.com/MikeSquared-Agency/mentor/internal/anthropic"
	"github.com/MikeSquared-Agency/mentor/internal/api"
	"github.com/MikeSquared-Agency/mentor/internal/config"
	"github.com/MikeSquared-Agency/mentor/internal/corpus"
	"github.com/MikeSquared-Agency/mentor/internal/hermes"
	"github.com/MikeSquared-Agency/mentor/internal/nlp"
	"github.com/MikeSquared-Agency/mentor/internal/scheduler"
	"github.com/MikeSquared-Agency/mentor/internal/slack"
	"github.com/MikeSquared-Agency/mentor/internal/store"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

const retrainTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("mentor starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deps analyzer.Deps
	var reports api.ReportReader

	// Database (optional: without it reports are not persisted)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
		deps.Corpus = db
		deps.Reports = db
		reports = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, reports will not be persisted")
	}

	if cfg.CorpusPath != "" {
		deps.Corpus = corpus.File{Path: cfg.CorpusPath}
		slog.Info("training from corpus file", "path", cfg.CorpusPath)
	}

	// Language collaborators
	var summarizer nlp.Summarizer
	if cfg.AnthropicAPIKey != "" {
		summarizer = nlp.NewLLMSummarizer(anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel))
		slog.Info("anthropic summarizer ready", "model", cfg.AnthropicModel)
	}
	deps.NLP = nlp.NewSuite(cfg.NLPServiceURL, summarizer, slog.Default())
	if cfg.NLPServiceURL != "" {
		slog.Info("using nlp service", "url", cfg.NLPServiceURL)
	}

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	deps.Bus = hermesClient
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack poster (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		deps.Poster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, reports will not be posted")
	}

	mentor := analyzer.New(deps, analyzer.Options{
		Training: trainer.Options{
			FrequencySample: cfg.FrequencySample,
			ExampleSample:   cfg.ExampleSample,
		},
		CorpusLimit:          cfg.CorpusLimit,
		SummaryWordThreshold: cfg.SummaryWordThreshold,
	}, slog.Default())

	if err := hermes.Subscribe(hermesClient, hermes.SubjectRetrainRequested, mentor.HandleRetrainRequested); err != nil {
		slog.Error("failed to subscribe to retrain requests", "error", err)
		os.Exit(1)
	}
	if err := hermes.Subscribe(hermesClient, hermes.SubjectReportRequested, mentor.HandleReportRequested); err != nil {
		slog.Error("failed to subscribe to report requests", "error", err)
		os.Exit(1)
	}

	retrain := func() {
		rctx, rcancel := context.WithTimeout(ctx, retrainTimeout)
		defer rcancel()
		if _, err := mentor.Retrain(rctx); err != nil {
			slog.Error("retrain failed", "error", err)
		}
	}

	sched := scheduler.New(time.UTC, slog.Default())
	if deps.Corpus != nil {
		if cfg.RetrainOnStart {
			go retrain()
		}
		if cfg.RetrainSchedule != "" {
			if err := sched.Schedule(cfg.RetrainSchedule, retrain); err != nil {
				slog.Error("invalid retrain schedule", "error", err)
				os.Exit(1)
			}
			sched.Start()
		}
	} else {
		slog.Warn("no training corpus configured, running untrained")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, mentor, reports, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("mentor ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	slog.Info("mentor stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
