// Package worker scores queued audit submissions and saves the results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/okian/millcert/pkg/logger"
	"github.com/okian/millcert/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// ErrTemplateMissing is returned when a submission names a template the
// registry no longer serves.
var ErrTemplateMissing = errors.New("template missing")

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue() <-chan model.Submission
}

// Templates resolves checklist templates by id.
type Templates interface {
	Get(id string) (checklist.Template, bool)
}

// Saver persists scored audits.
type Saver interface {
	Save(ctx context.Context, rec model.Record) error
}

// Worker scores submissions read from a queue.
type Worker struct {
	queue     Queue
	templates Templates
	scorer    scoring.Scorer
	saver     Saver
	name      string
	now       func() time.Time
	onScored  func(model.Record)
	onFailed  func()

	done   chan struct{}
	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, templates Templates, scorer scoring.Scorer, saver Saver, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		templates: templates,
		scorer:    scorer,
		saver:     saver,
		name:      "worker",
		now:       time.Now,
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run processes submissions until the queue is closed and drained or ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-items:
			if !ok {
				return
			}
			if _, err := w.Process(ctx, sub); err != nil {
				if w.onFailed != nil {
					w.onFailed()
				}
				w.logger.Error(ctx, "error processing audit",
					logger.String("audit_id", sub.AuditID),
					logger.String("mill_id", sub.MillID),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Process scores one submission and saves the record.
func (w *Worker) Process(ctx context.Context, sub model.Submission) (model.Record, error) { //nolint:gocritic // hugeParam: submissions travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	tmpl, ok := w.templates.Get(sub.TemplateID)
	if !ok {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "template_missing")
		return model.Record{}, fmt.Errorf("%w: %q", ErrTemplateMissing, sub.TemplateID)
	}

	scoreStart := time.Now()
	result, err := w.scorer.Score(ctx, tmpl, sub.Responses)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		return model.Record{}, fmt.Errorf("failed to score audit %s: %w", sub.AuditID, err)
	}

	rec := model.Record{
		AuditID:    sub.AuditID,
		MillID:     sub.MillID,
		TemplateID: sub.TemplateID,
		Result:     result,
		ScoredAt:   w.now().UTC(),
	}
	if err := w.saver.Save(ctx, rec); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return model.Record{}, fmt.Errorf("failed to save audit %s: %w", sub.AuditID, err)
	}

	metrics.RecordAuditScored(string(result.Category), flagsByCriticality(result.RedFlags))
	w.logger.Debug(ctx, "audit scored",
		logger.String("audit_id", rec.AuditID),
		logger.String("mill_id", rec.MillID),
		logger.Float64("percentage", result.OverallPercentage),
		logger.String("category", string(result.Category)),
		logger.Bool("passed", result.Passed),
	)
	if w.onScored != nil {
		w.onScored(rec)
	}
	return rec, nil
}

func flagsByCriticality(flags []scoring.RedFlag) map[string]int {
	out := make(map[string]int, 3)
	for _, f := range flags {
		out[string(f.Criticality)]++
	}
	return out
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers   []*Worker
	processed atomic.Int64
	failed    atomic.Int64
	started   sync.Once
	logger    logger.Logger
}

// NewPool creates a worker pool. A workerCount below one selects a default
// based on the number of CPUs.
func NewPool(workerCount int, q Queue, templates Templates, scorer scoring.Scorer, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		workerOpts = append(workerOpts, withCounters(&p.processed, &p.failed))
		p.workers[i] = NewWorker(q, templates, scorer, saver, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.started.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
	})
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of audits scored and saved.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns the number of submissions that could not be processed.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Wait blocks until every worker has returned or ctx expires. Workers return
// once their queue is closed and drained, so callers close the queue first.
func (p *Pool) Wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
