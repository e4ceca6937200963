/**
 * Storage Manager for the RxMind backend
 *
 * Fans each upload outcome out to the optional sinks: the PostgreSQL
 * processing ledger and the Redis event channel. Outcomes hold metadata only
 * (sizes, statuses, durations); image bytes, extracted text and summaries are
 * never written anywhere.
 *
 * Sink failures are reported to the caller but must not change the HTTP
 * response for the upload.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rxmind/rxmind-backend/internal/logging"
)

// UploadOutcome summarizes one processed upload
type UploadOutcome struct {
	RequestID        string
	Filename         string
	ContentType      string
	SizeBytes        int64
	ImageFormat      string
	Status           string // "ok", "partial" or "failed"
	ErrorCode        string
	TextLength       int
	SummaryGenerated bool
	OCRDuration      time.Duration
	SummaryDuration  time.Duration
	TotalDuration    time.Duration
	CompletedAt      time.Time
}

// outcomeSink is one destination for outcomes
type outcomeSink interface {
	Name() string
	RecordOutcome(ctx context.Context, outcome *UploadOutcome) error
	Ping(ctx context.Context) error
	Close() error
}

// StorageManager coordinates the configured outcome sinks
type StorageManager struct {
	sinks  []outcomeSink
	logger *logging.Logger
}

// StorageConfig selects which sinks are enabled. Empty URLs disable a sink.
type StorageConfig struct {
	DatabaseURL  string
	RedisURL     string
	EventChannel string
}

// NewStorageManager creates a new storage manager
func NewStorageManager(cfg *StorageConfig) (*StorageManager, error) {
	sm := &StorageManager{logger: logging.NewLogger("StorageManager")}
	if cfg == nil {
		return sm, nil
	}

	if cfg.DatabaseURL != "" {
		ledger, err := NewPostgresLedger(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL ledger: %w", err)
		}
		sm.sinks = append(sm.sinks, ledger)
	}

	if cfg.RedisURL != "" {
		publisher, err := NewRedisEventPublisher(cfg.RedisURL, cfg.EventChannel)
		if err != nil {
			sm.Close() // Cleanup on failure
			return nil, fmt.Errorf("failed to initialize Redis event publisher: %w", err)
		}
		sm.sinks = append(sm.sinks, publisher)
	}

	return sm, nil
}

// Enabled returns the names of active sinks
func (sm *StorageManager) Enabled() []string {
	names := make([]string, 0, len(sm.sinks))
	for _, s := range sm.sinks {
		names = append(names, s.Name())
	}
	return names
}

// RecordOutcome writes the outcome to every sink, continuing past failures
func (sm *StorageManager) RecordOutcome(ctx context.Context, outcome *UploadOutcome) error {
	if outcome == nil {
		return fmt.Errorf("outcome is required")
	}

	var errs []error
	for _, s := range sm.sinks {
		if err := s.RecordOutcome(ctx, outcome); err != nil {
			sm.logger.Warn("Failed to record upload outcome",
				"sink", s.Name(),
				"requestId", outcome.RequestID,
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// HealthCheck pings every sink and reports "ok" or the error per sink
func (sm *StorageManager) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string, len(sm.sinks))
	for _, s := range sm.sinks {
		if err := s.Ping(ctx); err != nil {
			status[s.Name()] = err.Error()
			continue
		}
		status[s.Name()] = "ok"
	}
	return status
}

// Close closes all connections
func (sm *StorageManager) Close() error {
	var errs []error
	for _, s := range sm.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
