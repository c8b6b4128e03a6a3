package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/millcert/internal/auditload"
	"github.com/okian/millcert/pkg/logger"
)

// Default configuration constants.
const (
	defaultAudits      = 5000
	defaultMills       = 200
	defaultDuplicates  = 100
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettleLimit = 2 * time.Minute
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		templateID = flag.String("template", "maize-flour-v1", "Template id the audits answer")
		audits     = flag.Int("audits", defaultAudits, "Number of audits to generate and submit")
		mills      = flag.Int("mills", defaultMills, "Number of distinct mills")
		duplicates = flag.Int("duplicates", defaultDuplicates, "Number of audits to resubmit")
		topN       = flag.Int("top", defaultTopN, "Number of leaderboard entries to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettleLimit, "How long to wait for scoring to finish")
		seed       = flag.Uint64("seed", 0, "Seed for reproducible audits (0 picks one)")
		logFormat  = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log failed requests")
	)
	flag.Usage = func() {
		os.Stderr.WriteString("audit-load submits generated mill audits to a running service and verifies the leaderboard.\n\nUsage:\n  audit-load [options]\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &auditload.Config{
		BaseURL:     *baseURL,
		TemplateID:  *templateID,
		Audits:      *audits,
		Mills:       *mills,
		Duplicates:  *duplicates,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		SettleLimit: *settle,
		Seed:        *seed,
		Verbose:     *verbose,
	}

	stats, err := auditload.Run(ctx, cfg)
	if stats != nil {
		os.Stdout.WriteString(stats.Summary())
	}
	if err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
