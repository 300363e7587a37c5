// Package backfill imports chat exports into the training corpus table.
// Runs are resumable: files already imported are recorded in a state file
// and skipped on the next run.
package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/corpus"
)

const defaultBatchSize = 500

// Config holds the import configuration.
type Config struct {
	Paths     []string // export files or directories to walk
	Since     time.Time
	Until     time.Time
	DryRun    bool
	BatchSize int
	StatePath string
}

// Sink receives imported messages.
type Sink interface {
	InsertMessages(ctx context.Context, msgs []chat.Message) (int64, error)
}

// Summary reports what a run did.
type Summary struct {
	FilesImported int   `json:"files_imported"`
	FilesSkipped  int   `json:"files_skipped"`
	FilesFailed   int   `json:"files_failed"`
	Messages      int64 `json:"messages"`
	OutOfRange    int   `json:"out_of_range"`
	Duplicates    int   `json:"duplicates"`
}

// Runner orchestrates an import.
type Runner struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger
}

// NewRunner creates an import runner. sink may be nil for dry runs.
func NewRunner(cfg Config, sink Sink, logger *slog.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Runner{cfg: cfg, sink: sink, logger: logger}
}

// Run executes the import.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if r.sink == nil && !r.cfg.DryRun {
		return sum, fmt.Errorf("no message sink configured")
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return sum, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return sum, fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "count", len(files))

	seen := newSeenSet(state.Fingerprints)
	remaining := 0
	for _, path := range files {
		if !state.IsProcessed(path) {
			remaining++
		}
	}
	state.FilesRemaining = remaining

	for _, path := range files {
		select {
		case <-ctx.Done():
			r.logger.Info("import interrupted, saving state")
			r.saveState(state)
			return sum, ctx.Err()
		default:
		}

		if state.IsProcessed(path) {
			sum.FilesSkipped++
			continue
		}

		msgs, err := corpus.Load(path)
		if err != nil {
			r.logger.Warn("failed to parse export", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			sum.FilesFailed++
			continue
		}

		inRange := r.inDateRange(msgs)
		sum.OutOfRange += len(msgs) - len(inRange)
		unique, dups := seen.filter(inRange)
		sum.Duplicates += dups
		state.DuplicatesSkipped += dups

		imported, err := r.insert(ctx, unique)
		sum.Messages += imported
		state.MessagesImported += imported
		if err != nil {
			r.logger.Error("failed to import export", "path", path, "error", err)
			state.AddError(fmt.Sprintf("insert %s: %v", path, err))
			r.saveState(state)
			return sum, fmt.Errorf("import %s: %w", path, err)
		}
		state.Remember(unique)

		r.logger.Info("export imported",
			"path", path,
			"messages", imported,
			"duplicates", dups,
			"dry_run", r.cfg.DryRun,
		)
		sum.FilesImported++
		if !r.cfg.DryRun {
			state.MarkProcessed(path)
			state.FilesRemaining--
		}
		r.saveState(state)
	}

	r.logger.Info("import complete",
		"files", sum.FilesImported,
		"skipped", sum.FilesSkipped,
		"messages", sum.Messages,
		"duplicates", sum.Duplicates,
	)
	return sum, nil
}

func (r *Runner) insert(ctx context.Context, msgs []chat.Message) (int64, error) {
	if r.cfg.DryRun {
		return int64(len(msgs)), nil
	}
	var total int64
	for _, batch := range batches(msgs, r.cfg.BatchSize) {
		n, err := r.sink.InsertMessages(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Runner) saveState(state *State) {
	if r.cfg.DryRun {
		return
	}
	if err := state.Save(); err != nil {
		r.logger.Warn("failed to save import state", "error", err)
	}
}

// discoverFiles expands directories into the supported export files they
// contain, sorted by path.
func (r *Runner) discoverFiles() ([]string, error) {
	var files []string
	for _, root := range r.cfg.Paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ferr := corpus.FormatOf(path); ferr == nil {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// inDateRange keeps messages inside [Since, Until). With a window set,
// messages without a timestamp are dropped.
func (r *Runner) inDateRange(msgs []chat.Message) []chat.Message {
	if r.cfg.Since.IsZero() && r.cfg.Until.IsZero() {
		return msgs
	}
	var out []chat.Message
	for _, m := range msgs {
		if m.Timestamp == nil {
			continue
		}
		if !r.cfg.Since.IsZero() && m.Timestamp.Before(r.cfg.Since) {
			continue
		}
		if !r.cfg.Until.IsZero() && !m.Timestamp.Before(r.cfg.Until) {
			continue
		}
		out = append(out, m)
	}
	return out
}
