// Package audit records publish runs in Postgres so downstream
// reconciliation can compare what was attempted against what landed in
// the claim streams. The registry is optional: it is wired in only when
// an audit DSN is configured.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PublishRun is one recorded batch publish.
type PublishRun struct {
	RunID             string
	BatchID           string
	BatchNumber       string
	SourceSystem      string
	TotalClaims       int
	Successful        int
	Failed            int
	TotalBilledAmount decimal.Decimal
	StartedAt         time.Time
	FinishedAt        time.Time
}

// Registry stores publish runs.
type Registry struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects to the audit database, verifies the connection, and
// applies the schema migrations.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Registry, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse audit dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create audit pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	if err := applyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	return &Registry{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (r *Registry) Close() {
	r.pool.Close()
}

// RecordRun inserts one publish run and returns its id. A missing run
// id is generated.
func (r *Registry) RecordRun(ctx context.Context, run PublishRun) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit.publish_runs (
			run_id, batch_id, batch_number, source_system,
			total_claims, successful_claims, failed_claims,
			total_billed_amount, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.RunID, run.BatchID, run.BatchNumber, run.SourceSystem,
		run.TotalClaims, run.Successful, run.Failed,
		run.TotalBilledAmount, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert publish run: %w", err)
	}

	r.log.Info().
		Str("run_id", run.RunID).
		Str("batch_id", run.BatchID).
		Int("successful", run.Successful).
		Int("failed", run.Failed).
		Msg("publish run recorded")
	return run.RunID, nil
}

// RunsForBatch returns every recorded run for a batch, newest first.
func (r *Registry) RunsForBatch(ctx context.Context, batchID string) ([]PublishRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run_id, batch_id, batch_number, source_system,
		       total_claims, successful_claims, failed_claims,
		       total_billed_amount, started_at, finished_at
		FROM audit.publish_runs
		WHERE batch_id = $1
		ORDER BY recorded_at DESC`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	defer rows.Close()

	var runs []PublishRun
	for rows.Next() {
		var run PublishRun
		if err := rows.Scan(
			&run.RunID, &run.BatchID, &run.BatchNumber, &run.SourceSystem,
			&run.TotalClaims, &run.Successful, &run.Failed,
			&run.TotalBilledAmount, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publish runs: %w", err)
	}
	return runs, nil
}
