package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"workspace-state-engine/internal/metrics"
)

// remoteKeyPrefix namespaces remote blobs by authenticated identity
const remoteKeyPrefix = "workspace_state:"

// RemoteState is the remote blob together with its last-modified marker. The
// marker is the sole input to the last-writer-wins comparison; no field-level
// merge is attempted.
type RemoteState struct {
	Payload   []byte
	UpdatedAt time.Time
}

// RemoteStateClient defines the interface for remote store communication
type RemoteStateClient interface {
	// Fetch reads the current remote blob for a user; nil when none exists
	Fetch(ctx context.Context, userID string) (*RemoteState, error)
	// Push writes a blob with its timestamp
	Push(ctx context.Context, userID string, payload []byte, updatedAt time.Time) error
}

// redisStateClient implements RemoteStateClient over redis
type redisStateClient struct {
	rdb     *redis.Client
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRemoteStateClient creates a redis-backed remote state client
func NewRemoteStateClient(rdb *redis.Client, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) RemoteStateClient {
	return &redisStateClient{
		rdb:     rdb,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Fetch reads the remote blob and its last-modified marker
func (c *redisStateClient) Fetch(ctx context.Context, userID string) (*RemoteState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	fields, err := c.rdb.HGetAll(ctx, remoteKeyPrefix+userID).Result()
	if c.metrics != nil {
		c.metrics.RecordRemoteRequest("fetch", time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("Failed to fetch remote state",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("remote fetch failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		// A blob without a readable marker loses every LWW comparison
		updatedAt = time.Time{}
	}
	return &RemoteState{
		Payload:   []byte(fields["payload"]),
		UpdatedAt: updatedAt,
	}, nil
}

// Push writes the blob and marker atomically
func (c *redisStateClient) Push(ctx context.Context, userID string, payload []byte, updatedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.rdb.HSet(ctx, remoteKeyPrefix+userID,
		"payload", string(payload),
		"updated_at", updatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if c.metrics != nil {
		c.metrics.RecordRemoteRequest("push", time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("Failed to push remote state",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("remote push failed: %w", err)
	}
	return nil
}
