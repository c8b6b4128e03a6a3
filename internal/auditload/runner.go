package auditload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/pkg/logger"
)

// ErrInvalidConfig reports an unusable load configuration.
var ErrInvalidConfig = errors.New("invalid load config")

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.TemplateID == "":
		return fmt.Errorf("%w: template id is required", ErrInvalidConfig)
	case c.Audits < 1 || c.Mills < 1 || c.Workers < 1 || c.TopN < 1:
		return fmt.Errorf("%w: audits, mills, workers and top must be positive", ErrInvalidConfig)
	case c.Duplicates < 0 || c.Duplicates > c.Audits:
		return fmt.Errorf("%w: duplicates must be between 0 and audits", ErrInvalidConfig)
	}
	return nil
}

// Run executes a complete load run: health check, template fetch, audit
// generation, submission, duplicate replay, settle and leaderboard checks.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("auditload")
	stats := &Stats{StartTime: time.Now()}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(stats.StartTime.UnixNano())
	}

	log.Info(ctx, "starting audit load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("template", cfg.TemplateID),
		logger.Int("audits", cfg.Audits),
		logger.Int("mills", cfg.Mills),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	var health map[string]any
	if err := c.getJSON(ctx, "/healthz", &health); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch the template the audits answer
	var tmpl checklist.Template
	if err := c.getJSON(ctx, "/templates/"+cfg.TemplateID, &tmpl); err != nil {
		return stats, fmt.Errorf("template fetch failed: %w", err)
	}

	// Step 3: Generate and submit audits
	audits := newGenerator(tmpl, cfg.Mills, seed).audits(cfg.Audits)
	stats.AuditsGenerated = len(audits)
	submitAudits(ctx, cfg, c, audits, stats)

	// Step 4: Replay some audits; every replay must come back as a duplicate
	if cfg.Duplicates > 0 {
		submitAudits(ctx, cfg, c, audits[:cfg.Duplicates], stats)
	}

	// Step 5: Wait for scoring, then verify the leaderboard
	runErr := waitScored(ctx, cfg, c, stats.AuditsAccepted, stats)
	if runErr == nil {
		runErr = verifyLeaderboard(ctx, cfg, c, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "audit load run finished", logger.Duration("duration", stats.Duration), logger.Error(runErr))
	return stats, runErr
}

// Summary renders stats for humans.
func (s *Stats) Summary() string {
	var perSecond float64
	if s.Duration > 0 {
		perSecond = float64(s.AuditsSubmitted) / s.Duration.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Audits generated:   %s\n", humanize.Comma(int64(s.AuditsGenerated)))
	fmt.Fprintf(&b, "Audits submitted:   %s (%s/s)\n", humanize.Comma(int64(s.AuditsSubmitted)), humanize.CommafWithDigits(perSecond, 1))
	fmt.Fprintf(&b, "  accepted:         %s\n", humanize.Comma(int64(s.AuditsAccepted)))
	fmt.Fprintf(&b, "  duplicate:        %s\n", humanize.Comma(int64(s.AuditsDuplicate)))
	fmt.Fprintf(&b, "  backpressure:     %s\n", humanize.Comma(int64(s.AuditsRejected)))
	fmt.Fprintf(&b, "  failed:           %s\n", humanize.Comma(int64(s.AuditsFailed)))
	fmt.Fprintf(&b, "Audits scored:      %s\n", humanize.Comma(int64(s.AuditsScored)))
	fmt.Fprintf(&b, "Mills verified:     %s\n", humanize.Comma(int64(s.MillsRanked)))
	fmt.Fprintf(&b, "Ordering errors:    %d\n", s.LeaderboardErrors)
	fmt.Fprintf(&b, "Rank mismatches:    %d\n", s.RankMismatches)
	fmt.Fprintf(&b, "Started:            %s\n", humanize.Time(s.StartTime))
	fmt.Fprintf(&b, "Duration:           %s\n", s.Duration.Round(time.Millisecond))
	return b.String()
}
