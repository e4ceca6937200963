/**
 * Redis event publisher
 *
 * Publishes one JSON event per upload on a pub/sub channel so dashboards and
 * notification workers can follow processing without polling. Events are
 * fire-and-forget; nothing is stored in Redis.
 */

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultEventChannel is used when no channel is configured
const DefaultEventChannel = "rxmind:events"

// UploadEvent is the JSON payload published per upload
type UploadEvent struct {
	Event            string `json:"event"`
	RequestID        string `json:"requestId"`
	Status           string `json:"status"`
	ErrorCode        string `json:"errorCode,omitempty"`
	ImageFormat      string `json:"imageFormat,omitempty"`
	SizeBytes        int64  `json:"sizeBytes"`
	TextLength       int    `json:"textLength"`
	SummaryGenerated bool   `json:"summaryGenerated"`
	DurationMs       int64  `json:"durationMs"`
	Timestamp        string `json:"timestamp"`
}

// RedisEventPublisher publishes upload events to Redis
type RedisEventPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisEventPublisher connects to Redis and verifies the connection
func NewRedisEventPublisher(redisURL string, channel string) (*RedisEventPublisher, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if channel == "" {
		channel = DefaultEventChannel
	}

	// Parse Redis URL
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Create Redis client
	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisEventPublisher{
		client:  client,
		channel: channel,
	}, nil
}

// Name identifies the sink
func (r *RedisEventPublisher) Name() string {
	return "redis"
}

// RecordOutcome publishes the outcome as an upload event
func (r *RedisEventPublisher) RecordOutcome(ctx context.Context, outcome *UploadOutcome) error {
	data, err := json.Marshal(buildUploadEvent(outcome))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}
	return nil
}

func buildUploadEvent(o *UploadOutcome) UploadEvent {
	ts := o.CompletedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	return UploadEvent{
		Event:            fmt.Sprintf("upload:%s", o.Status),
		RequestID:        o.RequestID,
		Status:           o.Status,
		ErrorCode:        o.ErrorCode,
		ImageFormat:      o.ImageFormat,
		SizeBytes:        o.SizeBytes,
		TextLength:       o.TextLength,
		SummaryGenerated: o.SummaryGenerated,
		DurationMs:       o.TotalDuration.Milliseconds(),
		Timestamp:        ts.UTC().Format(time.RFC3339),
	}
}

// Ping checks Redis connectivity
func (r *RedisEventPublisher) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (r *RedisEventPublisher) Close() error {
	return r.client.Close()
}
