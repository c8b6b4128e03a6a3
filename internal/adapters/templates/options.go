package templates

import (
	"time"

	"github.com/okian/millcert/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithDebounce sets how long Watch waits for file events to settle.
func WithDebounce(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the registry.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOnReload registers a callback run after every reload attempt.
func WithOnReload(fn func(count int, err error)) Option {
	return func(r *Registry) {
		r.onReload = fn
	}
}
