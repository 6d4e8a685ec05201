package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETRY NOTIFICATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RetryNotificationsJob re-sends failed notifications that still have
// retry attempts left and prunes delivered notifications past retention.
type RetryNotificationsJob struct {
	notifications notification.Repository
	sender        notification.Sender
	clock         shared.Clock
	logger        *slog.Logger

	config RetryNotificationsConfig
}

// RetryNotificationsConfig contains configuration for the retry job.
type RetryNotificationsConfig struct {
	// BatchSize is the maximum number of notifications retried per run.
	BatchSize int

	// RetentionDays is how long notifications are kept; 0 disables pruning.
	RetentionDays int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultRetryNotificationsConfig returns sensible defaults.
func DefaultRetryNotificationsConfig() RetryNotificationsConfig {
	return RetryNotificationsConfig{
		BatchSize:     100,
		RetentionDays: 90,
		Timeout:       5 * time.Minute,
	}
}

// NewRetryNotificationsJob creates a new retry notifications job.
func NewRetryNotificationsJob(
	notifications notification.Repository,
	sender notification.Sender,
	clock shared.Clock,
	logger *slog.Logger,
	config RetryNotificationsConfig,
) *RetryNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	return &RetryNotificationsJob{
		notifications: notifications,
		sender:        sender,
		clock:         clock,
		logger:        logger,
		config:        config,
	}
}

// Name returns the job name.
func (j *RetryNotificationsJob) Name() string {
	return "retry_notifications"
}

// Description returns a human-readable description.
func (j *RetryNotificationsJob) Description() string {
	return "Re-sends failed notifications and prunes old ones"
}

// Run executes the retry job.
func (j *RetryNotificationsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	failed, err := j.notifications.ListFailedForRetry(ctx, j.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list failed notifications: %w", err)
	}

	var retried, delivered int
	for _, n := range failed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := n.ResetForRetry(); err != nil {
			// Exhausted between listing and retry; leave it as is.
			continue
		}
		retried++

		result := j.sender.Send(ctx, n)
		if result.Success {
			if err := n.MarkDelivered(result.DeliveredAt); err != nil {
				j.logger.Warn("failed to mark notification delivered",
					"notification_id", n.ID,
					"error", err,
				)
				continue
			}
			delivered++
		} else {
			cause := "sender unavailable"
			if result.Error != nil {
				cause = result.Error.Error()
			}
			if err := n.MarkFailed(cause); err != nil {
				j.logger.Warn("failed to mark notification failed",
					"notification_id", n.ID,
					"error", err,
				)
				continue
			}
		}

		if err := j.notifications.Save(ctx, n); err != nil {
			j.logger.Error("failed to save notification after retry",
				"notification_id", n.ID,
				"error", err,
			)
		}
	}

	var pruned int64
	if j.config.RetentionDays > 0 {
		threshold := j.clock.Now().AddDate(0, 0, -j.config.RetentionDays)
		pruned, err = j.notifications.DeleteOlderThan(ctx, threshold)
		if err != nil {
			j.logger.Warn("failed to prune old notifications", "error", err)
		}
	}

	j.logger.Info("notification retry completed",
		"retried", retried,
		"delivered", delivered,
		"pruned", pruned,
	)

	return nil
}
