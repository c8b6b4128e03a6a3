package worker

import (
	"sync/atomic"
	"time"

	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp scored audits.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithOnScored registers a callback invoked after each audit is saved.
func WithOnScored(fn func(model.Record)) Option {
	return func(w *Worker) {
		prev := w.onScored
		w.onScored = func(rec model.Record) {
			if prev != nil {
				prev(rec)
			}
			if fn != nil {
				fn(rec)
			}
		}
	}
}

func withCounters(processed, failed *atomic.Int64) Option {
	return func(w *Worker) {
		WithOnScored(func(model.Record) { processed.Add(1) })(w)
		w.onFailed = func() { failed.Add(1) }
	}
}
