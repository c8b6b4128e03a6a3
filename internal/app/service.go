// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/millcert/internal/adapters/mq/queue"
	"github.com/okian/millcert/internal/adapters/mq/worker"
	"github.com/okian/millcert/internal/adapters/repository"
	"github.com/okian/millcert/internal/adapters/templates"
	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/dedupe"
	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/okian/millcert/internal/domain/types"
	"github.com/okian/millcert/pkg/logger"
	"github.com/okian/millcert/pkg/metrics"
)

// Store drivers accepted by WithStore.
const (
	StoreMemory   = "memory"
	StoreSQLite   = repository.DriverSQLite
	StorePostgres = repository.DriverPostgres
)

// ErrNotStarted is returned by operations that need a running service. It
// matches queue.ErrClosed so callers treat it as closed intake.
var ErrNotStarted = fmt.Errorf("service not started: %w", queue.ErrClosed)

// Service implements the API dependencies for the certification system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	scorer    *scoring.Engine
	registry  *templates.Registry
	pool      *worker.Pool
	runCancel context.CancelFunc

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	rules          scoring.Rules
	templateDir    string
	watchTemplates bool
	seedTemplates  []checklist.Template
	storeDriver    string
	storeDSN       string

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:   10000,
		dedupeSize:  100000,
		rules:       scoring.DefaultRules(),
		storeDriver: StoreMemory,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads templates, opens the store and starts the worker pool. Workers
// run on a context detached from ctx so that Stop can drain the queue after
// ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting certification service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	registry, err := s.openRegistry(runCtx)
	if err != nil {
		cancel()
		return err
	}

	store, err := s.openStore(runCtx)
	if err != nil {
		cancel()
		return err
	}

	s.registry = registry
	s.store = store
	s.runCancel = cancel
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.scorer = scoring.NewEngine(scoring.WithRules(s.rules))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.registry, s.scorer, s.store)
	s.pool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "certification service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("templates", s.registry.Len()),
		logger.String("store", s.storeDriver),
	)

	return nil
}

func (s *Service) openRegistry(ctx context.Context) (*templates.Registry, error) {
	reg := templates.NewRegistry(s.templateDir)
	if len(s.seedTemplates) > 0 {
		if err := reg.Set(s.seedTemplates...); err != nil {
			return nil, fmt.Errorf("invalid seed templates: %w", err)
		}
		return reg, nil
	}
	if err := reg.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	if s.watchTemplates {
		if err := reg.Watch(ctx); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.storeDriver {
	case StoreMemory, "":
		s.logger.Info(ctx, "using treap store")
		return repository.NewTreapStore(ctx), nil
	default:
		st, err := repository.OpenSQLStore(ctx, s.storeDriver, s.storeDSN)
		if err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "using sql store", logger.String("driver", s.storeDriver))
		return st, nil
	}
}

// Stop closes intake, lets the workers drain the queue and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping certification service...")

	_ = s.queue.Close()
	waitErr := s.pool.Wait(ctx)
	s.runCancel()
	s.registry.Wait()
	closeErr := s.store.Close()

	s.started = false
	s.logger.Info(ctx, "certification service stopped",
		logger.Int("scored", int(s.pool.Processed())),
		logger.Int("failed", int(s.pool.Failed())),
	)
	return errors.Join(waitErr, closeErr)
}

// SeenAndRecord atomically checks if an audit id was seen and records it if not.
// Returns true if the audit was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an audit id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an audit for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) error { //nolint:gocritic // hugeParam: submissions travel by value
	if !s.isStarted() {
		return ErrNotStarted
	}
	s.logger.Debug(ctx, "enqueueing audit",
		logger.String("audit_id", sub.AuditID),
		logger.String("mill_id", sub.MillID),
		logger.String("template_id", sub.TemplateID),
		logger.Int("responses", len(sub.Responses)),
	)
	return s.queue.Enqueue(ctx, sub)
}

// Get returns a stored audit.
func (s *Service) Get(ctx context.Context, auditID string) (model.Record, error) {
	return s.store.Get(ctx, auditID)
}

// Rank returns the standing of a mill.
func (s *Service) Rank(ctx context.Context, millID string) (types.Standing, error) {
	return s.store.Rank(ctx, millID)
}

// TopN returns the best n mills.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Standing, error) {
	return s.store.TopN(ctx, n)
}

// Scorer returns the scoring engine.
func (s *Service) Scorer() scoring.Scorer { return s.scorer }

// Templates returns the template registry.
func (s *Service) Templates() *templates.Registry { return s.registry }

// Processed returns the number of audits scored and saved so far.
func (s *Service) Processed() int64 {
	if s.pool == nil {
		return 0
	}
	return s.pool.Processed()
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"storeDriver": s.storeDriver,
	}

	if s.started {
		ctx := context.Background()
		queueLen := s.queue.Len()
		mills := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["templates"] = s.registry.Len()
		stats["mills"] = mills
		stats["scored"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
