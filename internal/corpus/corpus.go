// Package corpus reads chat history exports from disk for training and for
// the command-line tools.
package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
)

// Format is an on-disk corpus encoding.
type Format string

const (
	CSV   Format = "csv"
	JSON  Format = "json"
	JSONL Format = "jsonl"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".jsonl", ".ndjson":
		return JSONL, nil
	}
	return "", fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
}

// Load reads every message in the file at path.
func Load(path string) ([]chat.Message, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	msgs, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return msgs, nil
}

// Read decodes messages from r. Rows with blank text are skipped and
// unparseable timestamps are dropped.
func Read(r io.Reader, format Format) ([]chat.Message, error) {
	switch format {
	case CSV:
		return readCSV(r)
	case JSON:
		return readJSON(r)
	case JSONL:
		return readJSONL(r)
	}
	return nil, fmt.Errorf("unsupported corpus format %q", format)
}

// File is a CorpusSource backed by a file on disk. The file is re-read on
// every load so retrains pick up new exports.
type File struct {
	Path string
}

// LoadCorpus returns the newest limit messages of the file, or all of them
// when limit is not positive.
func (f File) LoadCorpus(_ context.Context, limit int) ([]chat.Message, error) {
	msgs, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// csvAuthorColumns are accepted author headers, in preference order.
var csvAuthorColumns = []string{"sender_username", "username", "user", "author"}

func readCSV(r io.Reader) ([]chat.Message, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	textCol, ok := cols["text"]
	if !ok {
		return nil, errors.New("csv header has no text column")
	}
	authorCol := -1
	for _, name := range csvAuthorColumns {
		if i, ok := cols[name]; ok {
			authorCol = i
			break
		}
	}
	if authorCol < 0 {
		return nil, errors.New("csv header has no username column")
	}
	tsCol, hasTS := cols["timestamp"]

	var msgs []chat.Message
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		text := field(rec, textCol)
		if strings.TrimSpace(text) == "" {
			continue
		}
		m := chat.Message{Author: field(rec, authorCol), Text: text}
		if hasTS {
			m.Timestamp = parseTime(field(rec, tsCol))
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// record mirrors chat.Message with a lenient timestamp.
type record struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func (rec record) message() (chat.Message, bool) {
	if strings.TrimSpace(rec.Text) == "" {
		return chat.Message{}, false
	}
	return chat.Message{Author: rec.Username, Text: rec.Text, Timestamp: parseTime(rec.Timestamp)}, true
}

func readJSON(r io.Reader) ([]chat.Message, error) {
	var recs []record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	msgs := make([]chat.Message, 0, len(recs))
	for _, rec := range recs {
		if m, ok := rec.message(); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

func readJSONL(r io.Reader) ([]chat.Message, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var msgs []chat.Message
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		if m, ok := rec.message(); ok {
			msgs = append(msgs, m)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return msgs, nil
}
