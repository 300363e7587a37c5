package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/mentor/internal/chat"
)

// LoadCorpus returns the newest limit chat messages in chronological order.
// A non-positive limit loads the whole table.
func (s *Store) LoadCorpus(ctx context.Context, limit int) ([]chat.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT username, text, sent_at FROM (
				SELECT id, username, text, sent_at FROM chat_messages
				ORDER BY sent_at DESC NULLS LAST, id DESC
				LIMIT $1
			) recent
			ORDER BY sent_at ASC NULLS FIRST, id ASC`, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT username, text, sent_at FROM chat_messages
			ORDER BY sent_at ASC NULLS FIRST, id ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		var sentAt *time.Time
		if err := rows.Scan(&m.Author, &m.Text, &sentAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Timestamp = sentAt
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return msgs, nil
}

// InsertMessages appends messages to the corpus table in one batch.
func (s *Store) InsertMessages(ctx context.Context, msgs []chat.Message) (int64, error) {
	rows := make([][]any, len(msgs))
	for i, m := range msgs {
		rows[i] = []any{m.Author, m.Text, m.Timestamp}
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"chat_messages"},
		[]string{"username", "text", "sent_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy chat messages: %w", err)
	}
	return n, nil
}
