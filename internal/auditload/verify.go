package auditload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/millcert/internal/domain/types"
	"github.com/okian/millcert/pkg/logger"
)

const settlePollInterval = 100 * time.Millisecond

// ErrNotSettled is returned when the service did not score every accepted
// audit within the settle limit.
var ErrNotSettled = errors.New("service did not finish scoring")

// waitScored polls /stats until the service reports at least want audits
// scored.
func waitScored(ctx context.Context, cfg *Config, c *client, want int, stats *Stats) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleLimit)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		var s map[string]any
		if err := c.getJSON(ctx, "/stats", &s); err == nil {
			if scored, ok := s["scored"].(float64); ok {
				stats.AuditsScored = int(scored)
				if stats.AuditsScored >= want {
					return nil
				}
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d scored", ErrNotSettled, stats.AuditsScored, want)
		case <-ticker.C:
		}
	}
}

// verifyLeaderboard checks the leaderboard ordering and that each listed
// mill's rank endpoint agrees with it.
func verifyLeaderboard(ctx context.Context, cfg *Config, c *client, stats *Stats) error {
	log := logger.Named("auditload")

	var top []types.Standing
	if err := c.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", cfg.TopN), &top); err != nil {
		return err
	}
	stats.MillsRanked = len(top)

	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		switch {
		case cur.Percentage > prev.Percentage:
			stats.LeaderboardErrors++
			log.Warn(ctx, "leaderboard out of order",
				logger.String("mill_id", cur.MillID), logger.Int("position", i+1))
		case cur.Percentage == prev.Percentage && cur.Rank != prev.Rank:
			stats.LeaderboardErrors++
		case cur.Percentage < prev.Percentage && cur.Rank != prev.Rank+1:
			stats.LeaderboardErrors++
		}
	}

	for _, want := range top {
		var got types.Standing
		if err := c.getJSON(ctx, "/mills/"+want.MillID+"/rank", &got); err != nil {
			stats.RankMismatches++
			continue
		}
		// Later audits may have landed between the two reads.
		if got.AuditID == want.AuditID && got.Rank != want.Rank {
			stats.RankMismatches++
			if cfg.Verbose {
				log.Warn(ctx, "rank mismatch",
					logger.String("mill_id", want.MillID),
					logger.Int("leaderboard_rank", want.Rank),
					logger.Int("rank", got.Rank))
			}
		}
	}

	if stats.LeaderboardErrors > 0 || stats.RankMismatches > 0 {
		return fmt.Errorf("leaderboard inconsistent: %d ordering errors, %d rank mismatches",
			stats.LeaderboardErrors, stats.RankMismatches)
	}
	return nil
}
