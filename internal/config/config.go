// Package config defines service configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/millcert/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the number of remembered audit ids. Zero disables eviction.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// TemplateDir holds the checklist template YAML files.
	TemplateDir string `koanf:"template_dir"`

	// WatchTemplates reloads templates when files in TemplateDir change.
	WatchTemplates bool `koanf:"watch_templates"`

	// StoreDriver is memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the data source name for the sqlite and postgres drivers.
	StoreDSN string `koanf:"store_dsn"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Scoring policy.
	CriticalWeight            float64 `koanf:"critical_weight"`
	MajorWeight               float64 `koanf:"major_weight"`
	MinorWeight               float64 `koanf:"minor_weight"`
	PassingThreshold          float64 `koanf:"passing_threshold"`
	ExcellentThreshold        float64 `koanf:"excellent_threshold"`
	GoodThreshold             float64 `koanf:"good_threshold"`
	NeedsImprovementThreshold float64 `koanf:"needs_improvement_threshold"`
	AutoFailOnCritical        bool    `koanf:"auto_fail_on_critical"`
}

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// New creates a Config holding the defaults.
func New() *Config {
	rules := scoring.DefaultRules()
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		QueueSize:                 10_000,
		WorkerCount:               runtime.NumCPU() * 2,
		DedupeSize:                100_000,
		MaxLeaderboardLimit:       100,
		TemplateDir:               "templates",
		WatchTemplates:            true,
		StoreDriver:               StoreMemory,
		ShutdownTimeout:           30 * time.Second,
		CriticalWeight:            rules.CriticalWeight,
		MajorWeight:               rules.MajorWeight,
		MinorWeight:               rules.MinorWeight,
		PassingThreshold:          rules.PassingThreshold,
		ExcellentThreshold:        rules.ExcellentThreshold,
		GoodThreshold:             rules.GoodThreshold,
		NeedsImprovementThreshold: rules.NeedsImprovementThreshold,
		AutoFailOnCritical:        rules.AutoFailOnCritical,
	}
}

// ScoringRules returns the scoring policy described by the config.
func (c *Config) ScoringRules() scoring.Rules {
	return scoring.Rules{
		CriticalWeight:            c.CriticalWeight,
		MajorWeight:               c.MajorWeight,
		MinorWeight:               c.MinorWeight,
		PassingThreshold:          c.PassingThreshold,
		ExcellentThreshold:        c.ExcellentThreshold,
		GoodThreshold:             c.GoodThreshold,
		NeedsImprovementThreshold: c.NeedsImprovementThreshold,
		AutoFailOnCritical:        c.AutoFailOnCritical,
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.MaxLeaderboardLimit < 1 {
		errs = append(errs, fmt.Errorf("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit))
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if strings.TrimSpace(c.StoreDSN) == "" {
			errs = append(errs, fmt.Errorf("store_dsn is required for the %s driver", c.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store_driver %q", c.StoreDriver))
	}
	for name, w := range map[string]float64{
		"critical_weight": c.CriticalWeight,
		"major_weight":    c.MajorWeight,
		"minor_weight":    c.MinorWeight,
	} {
		if w < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %g", name, w))
		}
	}
	for name, th := range map[string]float64{
		"passing_threshold":           c.PassingThreshold,
		"excellent_threshold":         c.ExcellentThreshold,
		"good_threshold":              c.GoodThreshold,
		"needs_improvement_threshold": c.NeedsImprovementThreshold,
	} {
		if th < 0 || th > 100 {
			errs = append(errs, fmt.Errorf("%s must be within 0..100, got %g", name, th))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
