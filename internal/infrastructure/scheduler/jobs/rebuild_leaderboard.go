// Package jobs contains the scheduled background jobs of Unitex Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the XP leaderboard cache from profiles.
// Profiles are the source of truth; incremental ZADD updates from the XP
// event handler can drift after crashes or cache restarts, so this job
// restores the cache wholesale on a fixed schedule.
type RebuildLeaderboardJob struct {
	profiles  profile.Repository
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	logger    *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// warmRecorder is implemented by caches that track their last rebuild time.
type warmRecorder interface {
	MarkWarmed(ctx context.Context, at time.Time) error
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// MaxMembers limits how many profiles are loaded into the cache.
	MaxMembers int

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		MaxMembers: 10000,
		Timeout:    2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Members     int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	profiles profile.Repository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxMembers <= 0 {
		config.MaxMembers = 10000
	}

	return &RebuildLeaderboardJob{
		profiles:  profiles,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the XP leaderboard cache from profile data"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	profiles, err := j.profiles.GetTopByXP(ctx, j.config.MaxMembers)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	members := make([]leaderboard.Member, 0, len(profiles))
	for _, p := range profiles {
		members = append(members, leaderboard.Member{
			UserID: p.UserID,
			XP:     p.XP,
		})
	}

	ranked := leaderboard.RankMembers(members)
	if err := j.cache.Rebuild(ctx, ranked); err != nil {
		return fmt.Errorf("rebuild cache: %w", err)
	}

	if recorder, ok := j.cache.(warmRecorder); ok {
		if err := recorder.MarkWarmed(ctx, time.Now()); err != nil {
			j.logger.Warn("failed to record cache warm time", "error", err)
		}
	}

	if j.publisher != nil {
		if err := j.publisher.Publish(shared.NewLeaderboardUpdatedEvent(len(ranked))); err != nil {
			j.logger.Warn("failed to publish leaderboard update", "error", err)
		}
	}

	stats := &RebuildStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Members:     len(ranked),
	}
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("leaderboard rebuilt",
		"members", stats.Members,
		"duration", stats.Duration.String(),
	)

	return nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
