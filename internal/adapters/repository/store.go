// Package repository stores scored audits and ranks mills by their latest
// compliance percentage.
package repository

import (
	"context"

	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/types"
)

// Store provides read/write access to scored audits and mill standings.
type Store interface {
	// Save stores a scored audit. Saving an audit id again replaces the record.
	// The mill's standing follows its most recently scored audit.
	Save(ctx context.Context, rec model.Record) error

	// Get returns a stored audit. Returns ErrNotFound if the audit is unknown.
	Get(ctx context.Context, auditID string) (model.Record, error)

	// Rank returns a mill's current standing.
	// Returns ErrMillNotFound if the mill has no scored audits.
	Rank(ctx context.Context, millID string) (types.Standing, error)

	// TopN returns the first n standings, highest percentage first.
	TopN(ctx context.Context, n int) ([]types.Standing, error)

	// Count returns the number of ranked mills.
	Count(ctx context.Context) int

	// Close releases background goroutines and connections.
	Close() error
}

// assignDenseRanks sets ranks on standings already in leaderboard order.
// Equal percentages share a rank and the next distinct percentage takes the
// following rank.
func assignDenseRanks(standings []types.Standing) {
	rank := 0
	for i := range standings {
		if i == 0 || standings[i].Percentage != standings[i-1].Percentage {
			rank++
		}
		standings[i].Rank = rank
	}
}
