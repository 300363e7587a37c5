// Command mentorctl runs the mentor analyses against chat exports on disk.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/mentor/internal/analyzer"
	"github.com/MikeSquared-Agency/mentor/internal/anthropic"
	"github.com/MikeSquared-Agency/mentor/internal/backfill"
	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/corpus"
	"github.com/MikeSquared-Agency/mentor/internal/nlp"
	"github.com/MikeSquared-Agency/mentor/internal/store"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

type options struct {
	corpusPath    string
	nlpURL        string
	logLevel      string
	summaryWords  int
	exampleSample int
	anthropicKey  string
	model         string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "mentorctl",
		Short: "Analyze team chat exports offline",
		Long: `mentorctl trains the mentor model on a chat history export and runs
classification, contribution ranking and weekly reports on another export.

Exports may be CSV (sender_username,text,timestamp), JSON arrays or JSONL.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.corpusPath, "corpus", os.Getenv("MENTOR_CORPUS_PATH"), "training corpus file")
	flags.StringVar(&opts.nlpURL, "nlp-url", os.Getenv("NLP_SERVICE_URL"), "NLP sidecar base URL (builtin models when empty)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.IntVar(&opts.summaryWords, "summary-words", 200, "word count above which the report narrative is model-written")
	flags.IntVar(&opts.exampleSample, "example-sample", trainer.DefaultExampleSample, "messages scanned for learned examples")
	opts.anthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	opts.model = envOr("MENTOR_MODEL", "claude-sonnet-4-20250514")

	root.AddCommand(
		newTrainCmd(opts),
		newClassifyCmd(opts),
		newReportCmd(opts),
		newUsersCmd(opts),
		newAnalyzeCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func newTrainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train on --corpus and print the training statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.corpusPath == "" {
				return fmt.Errorf("--corpus is required")
			}
			a, err := opts.analyzer(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.Model().Stats())
		},
	}
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <messages-file>",
		Short: "Classify every message in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, msgs, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, c := range a.Classify(msgs) {
				if err := enc.Encode(map[string]any{
					"username":       c.Author,
					"text":           msgs[i].Text,
					"classification": c.Result,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	var contributionsOnly bool
	cmd := &cobra.Command{
		Use:   "report <messages-file>",
		Short: "Build the weekly team report for a file of messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, msgs, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			if contributionsOnly {
				return writeJSON(cmd.OutOrStdout(), a.Contributions(msgs))
			}
			return writeJSON(cmd.OutOrStdout(), a.WeeklyReport(ctxOf(cmd), msgs))
		},
	}
	cmd.Flags().BoolVar(&contributionsOnly, "contributions", false, "print only the ranked per-user contributions")
	return cmd
}

func newUsersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users <messages-file>",
		Short: "Rank users by participation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, msgs, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.Participation(ctxOf(cmd), msgs))
		},
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <messages-file>",
		Short: "Print sentiment, top keywords and a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, msgs, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.Overview(ctxOf(cmd), msgs))
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var (
		cfg         backfill.Config
		databaseURL string
		since       string
		until       string
	)
	cmd := &cobra.Command{
		Use:   "import <export>...",
		Short: "Load chat exports into the corpus table",
		Long: `import copies messages from export files, or directories of them, into
the chat_messages table the service trains on. Imported files are recorded in
--state and skipped on later runs. Messages repeated across overlapping exports
are imported once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg.Since, err = parseDate(since); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if cfg.Until, err = parseDate(until); err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			cfg.Paths = args
			logger := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			ctx := ctxOf(cmd)

			var sink backfill.Sink
			if !cfg.DryRun {
				if databaseURL == "" {
					return fmt.Errorf("--database-url or DATABASE_URL is required")
				}
				db, err := store.New(ctx, databaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.EnsureSchema(ctx); err != nil {
					return err
				}
				sink = db
			}

			sum, err := backfill.NewRunner(cfg, sink, logger).Run(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
	f := cmd.Flags()
	f.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	f.StringVar(&cfg.StatePath, "state", backfill.DefaultStatePath, "resume state file")
	f.StringVar(&since, "since", "", "skip messages before this date (YYYY-MM-DD)")
	f.StringVar(&until, "until", "", "skip messages on or after this date (YYYY-MM-DD)")
	f.IntVar(&cfg.BatchSize, "batch-size", 500, "messages per insert")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "parse and count without writing")
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// analyzer builds an analyzer and trains it on --corpus when one is given.
func (o *options) analyzer(cmd *cobra.Command) (*analyzer.Analyzer, error) {
	logger := newLogger(cmd.ErrOrStderr(), o.logLevel)

	var summarizer nlp.Summarizer
	if o.anthropicKey != "" {
		summarizer = nlp.NewLLMSummarizer(anthropic.NewClient(o.anthropicKey, o.model))
	}

	deps := analyzer.Deps{NLP: nlp.NewSuite(o.nlpURL, summarizer, logger)}
	if o.corpusPath != "" {
		deps.Corpus = corpus.File{Path: o.corpusPath}
	}
	a := analyzer.New(deps, analyzer.Options{
		Training:             trainer.Options{ExampleSample: o.exampleSample},
		SummaryWordThreshold: o.summaryWords,
	}, logger)

	if deps.Corpus != nil {
		if _, err := a.Retrain(ctxOf(cmd)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (o *options) load(cmd *cobra.Command, path string) (*analyzer.Analyzer, []chat.Message, error) {
	msgs, err := corpus.Load(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := o.analyzer(cmd)
	if err != nil {
		return nil, nil, err
	}
	return a, msgs, nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
