package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/okian/millcert/internal/domain/types"
	"github.com/okian/millcert/pkg/metrics"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultMaxOpenConns = 8
	defaultQueryTimeout = 5 * time.Second
)

// schema is valid for both SQLite and PostgreSQL. Timestamps are unix
// nanoseconds so both drivers round-trip them identically.
const schema = `
CREATE TABLE IF NOT EXISTS audit_result (
    audit_id TEXT PRIMARY KEY,
    mill_id TEXT NOT NULL,
    template_id TEXT NOT NULL,
    percentage DOUBLE PRECISION NOT NULL,
    category TEXT NOT NULL,
    result_json TEXT NOT NULL,
    scored_at BIGINT NOT NULL,
    saved_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_result_mill ON audit_result(mill_id);

CREATE TABLE IF NOT EXISTS mill_standing (
    mill_id TEXT PRIMARY KEY,
    audit_id TEXT NOT NULL,
    percentage DOUBLE PRECISION NOT NULL,
    category TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_mill_standing_percentage ON mill_standing(percentage);
`

// SQLStore persists audits in SQLite or PostgreSQL through database/sql.
type SQLStore struct {
	db           *sql.DB
	maxOpenConns int
	queryTimeout time.Duration
}

// OpenSQLStore opens the database, applies the schema and returns a store.
func OpenSQLStore(ctx context.Context, driver, dsn string, opts ...SQLOption) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	s := &SQLStore{
		maxOpenConns: defaultMaxOpenConns,
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if driver == DriverSQLite {
		// One writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
		s.maxOpenConns = 1
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, rec model.Record) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("save", float64(time.Since(start).Microseconds())/1000)
	}()

	if rec.AuditID == "" || rec.MillID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return fmt.Errorf("%w: audit and mill ids are required", ErrInvalidRecord)
	}

	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prevMill string
	err = tx.QueryRowContext(ctx, `SELECT mill_id FROM audit_result WHERE audit_id = $1`, rec.AuditID).Scan(&prevMill)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up audit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_result (audit_id, mill_id, template_id, percentage, category, result_json, scored_at, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (audit_id) DO UPDATE SET
			mill_id = excluded.mill_id,
			template_id = excluded.template_id,
			percentage = excluded.percentage,
			category = excluded.category,
			result_json = excluded.result_json,
			scored_at = excluded.scored_at,
			saved_at = excluded.saved_at`,
		rec.AuditID, rec.MillID, rec.TemplateID, rec.Result.OverallPercentage,
		string(rec.Result.Category), string(payload), rec.ScoredAt.UnixNano(), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	if prevMill != "" && prevMill != rec.MillID {
		if err = restand(ctx, tx, prevMill); err != nil {
			return err
		}
	}
	if err = restand(ctx, tx, rec.MillID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit: %w", err)
	}
	return nil
}

// restand points a mill's standing at its latest audit, or removes it when
// the mill has none left.
func restand(ctx context.Context, tx *sql.Tx, millID string) error {
	var (
		auditID  string
		pct      float64
		category string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT audit_id, percentage, category FROM audit_result
		WHERE mill_id = $1
		ORDER BY scored_at DESC, saved_at DESC
		LIMIT 1`, millID).Scan(&auditID, &pct, &category)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mill_standing WHERE mill_id = $1`, millID); err != nil {
			return fmt.Errorf("failed to drop standing: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find latest audit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mill_standing (mill_id, audit_id, percentage, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mill_id) DO UPDATE SET
			audit_id = excluded.audit_id,
			percentage = excluded.percentage,
			category = excluded.category`,
		millID, auditID, pct, category)
	if err != nil {
		return fmt.Errorf("failed to update standing: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, auditID string) (model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("get", float64(time.Since(start).Microseconds())/1000)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		rec      model.Record
		payload  string
		scoredAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT audit_id, mill_id, template_id, result_json, scored_at
		FROM audit_result WHERE audit_id = $1`, auditID).
		Scan(&rec.AuditID, &rec.MillID, &rec.TemplateID, &payload, &scoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("failed to load audit: %w", err)
	}

	var result scoring.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return model.Record{}, fmt.Errorf("failed to decode result: %w", err)
	}
	rec.Result = result
	rec.ScoredAt = time.Unix(0, scoredAt).UTC()
	return rec, nil
}

// Rank implements Store.
func (s *SQLStore) Rank(ctx context.Context, millID string) (types.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("rank", float64(time.Since(start).Microseconds())/1000)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var out types.Standing
	err := s.db.QueryRowContext(ctx, `
		SELECT s.mill_id, s.audit_id, s.percentage, s.category,
			(SELECT COUNT(DISTINCT o.percentage) FROM mill_standing o WHERE o.percentage > s.percentage) + 1
		FROM mill_standing s WHERE s.mill_id = $1`, millID).
		Scan(&out.MillID, &out.AuditID, &out.Percentage, &out.Category, &out.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Standing{}, ErrMillNotFound
	}
	if err != nil {
		return types.Standing{}, fmt.Errorf("failed to rank mill: %w", err)
	}
	return out, nil
}

// TopN implements Store.
func (s *SQLStore) TopN(ctx context.Context, n int) ([]types.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("top", float64(time.Since(start).Microseconds())/1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT mill_id, audit_id, percentage, category FROM mill_standing
		ORDER BY percentage DESC, mill_id ASC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]types.Standing, 0, n)
	for rows.Next() {
		var st types.Standing
		if err := rows.Scan(&st.MillID, &st.AuditID, &st.Percentage, &st.Category); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	assignDenseRanks(out)
	return out, nil
}

// Count implements Store. Query failures are reported as zero mills.
func (s *SQLStore) Count(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mill_standing`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count")
		return 0
	}
	return n
}
