// Package auditload drives a running certification service with generated
// audits and checks that the leaderboard it builds is consistent.
package auditload

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	TemplateID  string        // Template the generated audits answer
	Audits      int           // Number of audits to generate
	Mills       int           // Number of distinct mills audited
	Duplicates  int           // Audits re-sent to exercise idempotency
	TopN        int           // Leaderboard entries to fetch and verify
	Workers     int           // Concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	SettleLimit time.Duration // How long to wait for the service to score everything
	Seed        uint64        // Seed for reproducible audits; zero picks one
	Verbose     bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	AuditsGenerated   int
	AuditsSubmitted   int
	AuditsAccepted    int
	AuditsDuplicate   int
	AuditsRejected    int // 429 backpressure
	AuditsFailed      int
	AuditsScored      int
	MillsRanked       int
	RankMismatches    int
	LeaderboardErrors int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
