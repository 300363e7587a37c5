package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/mentor/internal/analyzer"
	"github.com/MikeSquared-Agency/mentor/internal/chat"
	"github.com/MikeSquared-Agency/mentor/internal/classifier"
	"github.com/MikeSquared-Agency/mentor/internal/contribution"
	"github.com/MikeSquared-Agency/mentor/internal/report"
	"github.com/MikeSquared-Agency/mentor/internal/store"
	"github.com/MikeSquared-Agency/mentor/internal/trainer"
)

const maxBodyBytes = 32 << 20

// Engine is the analysis surface the API exposes.
type Engine interface {
	Model() *trainer.Model
	Retrain(ctx context.Context) (*trainer.Model, error)
	Classify(msgs []chat.Message) []contribution.Classified
	WeeklyReport(ctx context.Context, msgs []chat.Message) report.TeamReport
	Deliver(ctx context.Context, requestID string, r report.TeamReport, post bool) (uuid.UUID, error)
	Overview(ctx context.Context, msgs []chat.Message) report.Overview
	Participation(ctx context.Context, msgs []chat.Message) report.ParticipationReport
}

// ReportReader serves stored reports. It is optional.
type ReportReader interface {
	GetReport(ctx context.Context, id uuid.UUID) (*report.TeamReport, error)
	ListReports(ctx context.Context, limit int) ([]store.ReportSummary, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	engine  Engine
	reports ReportReader
	logger  *slog.Logger
	http    *http.Server
}

func NewServer(port int, apiToken string, engine Engine, reports ReportReader, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		engine:  engine,
		reports: reports,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/mentor/status", s.status)
		r.Get("/training/stats", s.trainingStats)
		r.With(BearerAuthMiddleware(apiToken)).Post("/training/retrain", s.retrain)

		r.Post("/classify", s.classify)
		r.Post("/analyze", s.analyze)
		r.Post("/analyze/users", s.analyzeUsers)
		r.Post("/reports/weekly", s.weeklyReport)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Get("/reports", s.listReports)
			r.Get("/reports/{id}", s.getReport)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type messagesRequest struct {
	Messages    []chat.Message `json:"messages"`
	PostToSlack bool           `json:"post_to_slack,omitempty"`
}

type classifiedMessage struct {
	Username string            `json:"username"`
	Text     string            `json:"text"`
	Result   classifier.Result `json:"classification"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	model := s.engine.Model()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"trained":           model.Trained(),
		"training_messages": model.CorpusSize,
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	model := s.engine.Model()
	body := map[string]any{
		"agent":   "mentor",
		"model":   model.ID.String(),
		"trained": model.Trained(),
	}
	if model.Trained() {
		body["trained_at"] = model.TrainedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) trainingStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Model().Stats())
}

func (s *Server) retrain(w http.ResponseWriter, r *http.Request) {
	model, err := s.engine.Retrain(r.Context())
	if err != nil {
		s.logger.Error("retrain failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, analyzer.ErrNoCorpus) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.Stats())
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessages(w, r)
	if !ok {
		return
	}
	results := s.engine.Classify(req.Messages)
	out := make([]classifiedMessage, len(results))
	for i, c := range results {
		out[i] = classifiedMessage{Username: c.Author, Text: req.Messages[i].Text, Result: c.Result}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessages(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Overview(r.Context(), req.Messages))
}

func (s *Server) analyzeUsers(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessages(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Participation(r.Context(), req.Messages))
}

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMessages(w, r)
	if !ok {
		return
	}
	rep := s.engine.WeeklyReport(r.Context(), req.Messages)

	requestID := middleware.GetReqID(r.Context())
	id, err := s.engine.Deliver(r.Context(), requestID, rep, req.PostToSlack)
	if err != nil {
		s.logger.Warn("report not persisted", "request_id", requestID, "error", err)
	}
	if id != uuid.Nil {
		w.Header().Set("X-Report-ID", id.String())
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}
	list, err := s.reports.ListReports(r.Context(), 50)
	if err != nil {
		s.logger.Error("list reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list reports failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": list, "count": len(list)})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	rep, err := s.reports.GetReport(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("get report failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get report failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) decodeMessages(w http.ResponseWriter, r *http.Request) (messagesRequest, bool) {
	var req messagesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
