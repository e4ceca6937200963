/**
 * PostgreSQL processing ledger
 *
 * One row per upload request with status, sizes and stage durations.
 * The schema is created on startup if it does not exist.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const ledgerSchema = `
	CREATE TABLE IF NOT EXISTS upload_ledger (
		request_id          TEXT PRIMARY KEY,
		filename            TEXT NOT NULL DEFAULT '',
		content_type        TEXT NOT NULL DEFAULT '',
		size_bytes          BIGINT NOT NULL DEFAULT 0,
		image_format        TEXT,
		status              TEXT NOT NULL,
		error_code          TEXT,
		text_length         INTEGER NOT NULL DEFAULT 0,
		summary_generated   BOOLEAN NOT NULL DEFAULT FALSE,
		ocr_ms              BIGINT NOT NULL DEFAULT 0,
		summary_ms          BIGINT NOT NULL DEFAULT 0,
		total_ms            BIGINT NOT NULL DEFAULT 0,
		completed_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const insertOutcome = `
	INSERT INTO upload_ledger (
		request_id, filename, content_type, size_bytes, image_format,
		status, error_code, text_length, summary_generated,
		ocr_ms, summary_ms, total_ms, completed_at
	) VALUES (
		$1, $2, $3, $4, NULLIF($5, ''),
		$6, NULLIF($7, ''), $8, $9,
		$10, $11, $12, $13
	)
	ON CONFLICT (request_id) DO UPDATE SET
		status = EXCLUDED.status,
		error_code = EXCLUDED.error_code,
		text_length = EXCLUDED.text_length,
		summary_generated = EXCLUDED.summary_generated,
		ocr_ms = EXCLUDED.ocr_ms,
		summary_ms = EXCLUDED.summary_ms,
		total_ms = EXCLUDED.total_ms,
		completed_at = EXCLUDED.completed_at
`

// PostgresLedger records upload outcomes in PostgreSQL
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger connects, configures the pool and ensures the schema
func NewPostgresLedger(databaseURL string) (*PostgresLedger, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	// Connect to database
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", describePQError(err))
	}

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create upload_ledger: %w", describePQError(err))
	}

	return &PostgresLedger{db: db}, nil
}

// Name identifies the sink
func (p *PostgresLedger) Name() string {
	return "postgres"
}

// RecordOutcome upserts the outcome row
func (p *PostgresLedger) RecordOutcome(ctx context.Context, outcome *UploadOutcome) error {
	if outcome.RequestID == "" {
		return fmt.Errorf("request ID is required")
	}

	if _, err := p.db.ExecContext(ctx, insertOutcome, ledgerArgs(outcome)...); err != nil {
		return fmt.Errorf("failed to record outcome (request=%s, status=%s): %w",
			outcome.RequestID, outcome.Status, describePQError(err))
	}
	return nil
}

// ledgerArgs maps an outcome to insertOutcome's positional parameters
func ledgerArgs(o *UploadOutcome) []interface{} {
	completedAt := o.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	return []interface{}{
		o.RequestID,                      // $1
		o.Filename,                       // $2
		o.ContentType,                    // $3
		o.SizeBytes,                      // $4
		o.ImageFormat,                    // $5
		o.Status,                         // $6
		o.ErrorCode,                      // $7
		o.TextLength,                     // $8
		o.SummaryGenerated,               // $9
		o.OCRDuration.Milliseconds(),     // $10
		o.SummaryDuration.Milliseconds(), // $11
		o.TotalDuration.Milliseconds(),   // $12
		completedAt,                      // $13
	}
}

// describePQError adds the SQLSTATE to server-side errors
func describePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate=%s)", err, pqErr.Code)
	}
	return err
}

// Ping checks database connectivity
func (p *PostgresLedger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresLedger) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
