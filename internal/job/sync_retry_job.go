package job

import (
	"context"

	"go.uber.org/zap"

	"workspace-state-engine/internal/controller"
)

// SyncRetryJob retries failed persistence for every loaded controller.
// Debounced writes that failed stay marked in the controller's sync status;
// this job gives them another chance on a fixed cadence.
type SyncRetryJob struct {
	registry *controller.Registry
	logger   *zap.Logger
}

// NewSyncRetryJob creates a new SyncRetryJob instance
func NewSyncRetryJob(registry *controller.Registry, logger *zap.Logger) *SyncRetryJob {
	return &SyncRetryJob{
		registry: registry,
		logger:   logger,
	}
}

// Run executes the retry pass
func (j *SyncRetryJob) Run() {
	ctx := context.Background()

	retried := 0
	j.registry.Each(func(userID string, c *controller.Controller) {
		status := c.Status()
		if status.Error == "" {
			return
		}

		j.logger.Info("Retrying failed sync",
			zap.String("user_id", userID),
			zap.String("last_error", status.Error),
		)
		c.Retry(ctx)
		retried++
	})

	if retried > 0 {
		j.logger.Info("Sync retry pass completed", zap.Int("retried", retried))
	}
}
