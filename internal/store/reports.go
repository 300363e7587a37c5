package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/mentor/internal/report"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SaveReport persists a weekly report and returns its ID.
func (s *Store) SaveReport(ctx context.Context, r *report.TeamReport) (uuid.UUID, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal report: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO mentor_reports (id, report_period, project_momentum, total_messages, report, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, r.ReportPeriod, string(r.ProjectMomentum), r.TotalMessages, payload, r.GeneratedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// GetReport fetches a stored report by ID.
func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*report.TeamReport, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM mentor_reports WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var r report.TeamReport
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// ReportSummary is a row of the report index.
type ReportSummary struct {
	ID              uuid.UUID       `json:"id"`
	ReportPeriod    string          `json:"report_period"`
	ProjectMomentum report.Momentum `json:"project_momentum"`
	TotalMessages   int             `json:"total_messages"`
}

// ListReports returns the newest reports first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, report_period, project_momentum, total_messages
		FROM mentor_reports
		ORDER BY generated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := []ReportSummary{}
	for rows.Next() {
		var r ReportSummary
		var momentum string
		if err := rows.Scan(&r.ID, &r.ReportPeriod, &momentum, &r.TotalMessages); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.ProjectMomentum = report.Momentum(momentum)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}
