// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/okian/millcert/internal/adapters/mq/queue"
	"github.com/okian/millcert/internal/adapters/repository"
	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/dedupe"
	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/okian/millcert/internal/domain/types"
	"github.com/okian/millcert/pkg/logger"
)

const (
	defaultMaxLeaderboardLimit = 100
	defaultLeaderboardLimit    = 10
	maxBodyBytes               = 1 << 20
)

// Submitter accepts audits for asynchronous scoring.
type Submitter interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async processing. queue.ErrFull
	// signals backpressure.
	Enqueue(ctx context.Context, s model.Submission) error
}

// Results exposes stored audits and mill standings.
type Results interface {
	Get(ctx context.Context, auditID string) (model.Record, error)
	Rank(ctx context.Context, millID string) (types.Standing, error)
	TopN(ctx context.Context, n int) ([]types.Standing, error)
}

// Templates resolves checklist templates by id.
type Templates interface {
	Get(id string) (checklist.Template, bool)
	List() []checklist.Template
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Deps bundles what the handlers need. Every field is required.
type Deps struct {
	Submitter Submitter
	Scorer    scoring.Scorer
	Results   Results
	Templates Templates
	Stats     StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Deps
	maxLimit int
	now      func() time.Time
	logger   logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Deps, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		maxLimit: defaultMaxLeaderboardLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	return s
}

// Routes builds the router serving every endpoint. Each extra function may
// register additional routes, such as API docs.
func (s *Server) Routes(extra ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())
	r.Get("/stats", s.handleStats)

	r.Route("/audits", func(r chi.Router) {
		r.Post("/", s.handleSubmitAudit)
		r.Post("/score", s.handleScoreAudit)
		r.Post("/what-if", s.handleWhatIf)
		r.Get("/{auditID}", s.handleGetAudit)
	})
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/mills/{millID}/rank", s.handleMillRank)
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Get("/{templateID}", s.handleGetTemplate)
	})
	for _, register := range extra {
		register(r)
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, r, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps upstream errors to a status and error code.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, r, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, model.ErrMissingMill),
		errors.Is(err, model.ErrMissingTemplate):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrTemplateNotFound):
		return http.StatusNotFound, "template_not_found"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrMillNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
