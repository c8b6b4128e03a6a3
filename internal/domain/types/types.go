// Package types contains common types used across the application
package types

// Standing is a mill's position in the compliance leaderboard, taken from
// its most recently scored audit.
type Standing struct {
	Rank       int     `json:"rank"`
	MillID     string  `json:"mill_id"`
	Percentage float64 `json:"percentage"`
	Category   string  `json:"category"`
	AuditID    string  `json:"audit_id"`
}
