package auditload

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/millcert/pkg/logger"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeFailed
)

// submitAudits posts audits concurrently using a worker pool.
func submitAudits(ctx context.Context, cfg *Config, c *client, audits []auditRequest, stats *Stats) {
	log := logger.Named("auditload")
	log.Info(ctx, "submitting audits", logger.Int("audits", len(audits)), logger.Int("workers", cfg.Workers))

	var counts [4]atomic.Int64
	auditChan := make(chan auditRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range auditChan {
				o := submitOne(ctx, c, a)
				counts[o].Add(1)
				if o == outcomeFailed && cfg.Verbose {
					log.Warn(ctx, "audit submission failed", logger.String("audit_id", a.AuditID))
				}
			}
		}()
	}

	// Send audits to workers
	go func() {
		defer close(auditChan)
		for _, a := range audits {
			select {
			case <-ctx.Done():
				return
			case auditChan <- a:
			}
		}
	}()

	wg.Wait()

	stats.AuditsAccepted += int(counts[outcomeAccepted].Load())
	stats.AuditsDuplicate += int(counts[outcomeDuplicate].Load())
	stats.AuditsRejected += int(counts[outcomeRejected].Load())
	stats.AuditsFailed += int(counts[outcomeFailed].Load())
	stats.AuditsSubmitted = stats.AuditsAccepted + stats.AuditsDuplicate + stats.AuditsRejected + stats.AuditsFailed
}

func submitOne(ctx context.Context, c *client, a auditRequest) outcome {
	status, _, err := c.postJSON(ctx, "/audits", a)
	if err != nil {
		return outcomeFailed
	}
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
