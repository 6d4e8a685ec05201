package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyDigestJob sends a weekly progress summary to every student.
// The digest goes through the notification pipeline, so recipients who
// disabled digests in their preferences are skipped there, not here.
type WeeklyDigestJob struct {
	profiles    profile.Repository
	completions lesson.CompletionRepository
	cache       leaderboard.Cache
	notifier    DigestNotifier
	logger      *slog.Logger

	config WeeklyDigestConfig

	lastRunStats atomic.Value // *WeeklyDigestStats
}

// DigestNotifier delivers a built notification through the standard
// preference-filtering pipeline.
type DigestNotifier interface {
	Deliver(ctx context.Context, params notification.NewNotificationParams) error
}

// WeeklyDigestConfig contains configuration for the weekly digest job.
type WeeklyDigestConfig struct {
	// Concurrency is the number of digests built and sent in parallel.
	Concurrency int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration

	// SkipInactiveAfterDays skips students inactive for more than N days.
	SkipInactiveAfterDays int

	// MaxStudents limits how many profiles are processed per run.
	MaxStudents int
}

// DefaultWeeklyDigestConfig returns sensible defaults.
func DefaultWeeklyDigestConfig() WeeklyDigestConfig {
	return WeeklyDigestConfig{
		Concurrency:           10,
		Timeout:               15 * time.Minute,
		SkipInactiveAfterDays: 30,
		MaxStudents:           10000,
	}
}

// WeeklyDigestStats contains statistics from a digest run.
type WeeklyDigestStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalStudents int
	DigestsSent   int
	Skipped       int
	Failed        int
}

// NewWeeklyDigestJob creates a new weekly digest job.
func NewWeeklyDigestJob(
	profiles profile.Repository,
	completions lesson.CompletionRepository,
	cache leaderboard.Cache,
	notifier DigestNotifier,
	logger *slog.Logger,
	config WeeklyDigestConfig,
) *WeeklyDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}
	if config.MaxStudents <= 0 {
		config.MaxStudents = 10000
	}

	return &WeeklyDigestJob{
		profiles:    profiles,
		completions: completions,
		cache:       cache,
		notifier:    notifier,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *WeeklyDigestJob) Name() string {
	return "weekly_digest"
}

// Description returns a human-readable description.
func (j *WeeklyDigestJob) Description() string {
	return "Sends weekly progress summaries to students"
}

// Run executes the weekly digest job.
func (j *WeeklyDigestJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &WeeklyDigestStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	students, err := j.profiles.GetTopByXP(ctx, j.config.MaxStudents)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	stats.TotalStudents = len(students)

	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, s := range students {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if j.config.SkipInactiveAfterDays > 0 &&
			timeutil.DaysSince(s.LastActivityAt) > j.config.SkipInactiveAfterDays {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(p *profile.Profile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			err := j.sendDigest(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				j.logger.Error("failed to send digest",
					"user_id", p.UserID,
					"error", err,
				)
			} else {
				stats.DigestsSent++
			}
		}(s)
	}

	wg.Wait()

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("weekly digest completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalStudents,
		"sent", stats.DigestsSent,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	return nil
}

// sendDigest builds and delivers one student's digest.
func (j *WeeklyDigestJob) sendDigest(ctx context.Context, p *profile.Profile) error {
	lessonsDone, err := j.completions.CountByUser(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("count completions: %w", err)
	}

	var rank leaderboard.Rank
	if j.cache != nil {
		r, err := j.cache.RankOf(ctx, p.UserID)
		if err != nil && !errors.Is(err, leaderboard.ErrNotRanked) {
			j.logger.Warn("failed to read rank for digest",
				"user_id", p.UserID,
				"error", err,
			)
		}
		rank = r
	}

	message := j.formatDigest(p, lessonsDone, rank)

	return j.notifier.Deliver(ctx, notification.NewNotificationParams{
		Type:        notification.NotificationTypeWeeklyDigest,
		RecipientID: p.UserID,
		Title:       "Rezumatul săptămânii",
		Message:     message,
	})
}

// formatDigest builds the Romanian digest message.
func (j *WeeklyDigestJob) formatDigest(p *profile.Profile, lessonsDone int, rank leaderboard.Rank) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Salut, %s!\n", p.DisplayName))
	sb.WriteString(fmt.Sprintf("Săptămâna s-a încheiat pe %s.\n\n", timeutil.FormatRomanian(timeutil.Now())))

	sb.WriteString(fmt.Sprintf("Nivel: %d (%d XP)\n", int(p.Level), int(p.XP)))
	sb.WriteString(fmt.Sprintf("Lecții finalizate: %d\n", lessonsDone))

	if p.Streak > 0 {
		sb.WriteString(fmt.Sprintf("Serie de activitate: %d zile\n", p.Streak))
	}
	if rank.IsValid() {
		sb.WriteString(fmt.Sprintf("Poziția în clasament: %s\n", rank))
	}

	sb.WriteString("\nContinuă tot așa săptămâna viitoare!")

	return sb.String()
}

// LastRunStats returns statistics from the last digest run.
func (j *WeeklyDigestJob) LastRunStats() *WeeklyDigestStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*WeeklyDigestStats)
}
