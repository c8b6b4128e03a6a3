package service

import (
	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/okian/millcert/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero keeps every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRules sets the scoring policy.
func WithRules(rules scoring.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithTemplateDir loads templates from dir, reloading on change when watch is set.
func WithTemplateDir(dir string, watch bool) Option {
	return func(s *Service) {
		s.templateDir = dir
		s.watchTemplates = watch
	}
}

// WithTemplates serves the given templates instead of reading a directory.
func WithTemplates(tmpls ...checklist.Template) Option {
	return func(s *Service) {
		s.seedTemplates = tmpls
	}
}

// WithStore selects the result store: memory, sqlite or postgres.
func WithStore(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
		s.storeDSN = dsn
	}
}
