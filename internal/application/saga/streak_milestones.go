// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/application/command"
	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK MILESTONE FLOW
// Business process: recognizing long activity streaks.
// Flow: Load Profile → Match Milestone → Ensure Badge → Award →
//
//	Grant Bonus XP → Publish Event
//
// The flow runs after streak bumps. Every operation in it is idempotent,
// so re-running the flow for the same streak value is safe.
// ══════════════════════════════════════════════════════════════════════════════

// StreakMilestone describes one recognized streak length.
type StreakMilestone struct {
	// Days - the exact streak length that triggers the milestone.
	Days int

	// BadgeSlug - the badge awarded for the milestone.
	BadgeSlug shared.Slug

	// BadgeName - display name for the badge.
	BadgeName string

	// BonusXP - one-time XP bonus granted with the badge.
	BonusXP int
}

// DefaultStreakMilestones returns the standard milestone ladder.
func DefaultStreakMilestones() []StreakMilestone {
	return []StreakMilestone{
		{Days: 7, BadgeSlug: "serie-7-zile", BadgeName: "O săptămână în formă", BonusXP: 30},
		{Days: 30, BadgeSlug: "serie-30-zile", BadgeName: "O lună de perseverență", BonusXP: 100},
		{Days: 100, BadgeSlug: "serie-100-zile", BadgeName: "Sută de zile", BonusXP: 300},
	}
}

// FlowStep identifies a step of the flow for the result log.
type FlowStep string

const (
	StepLoadProfile    FlowStep = "load_profile"
	StepMatchMilestone FlowStep = "match_milestone"
	StepEnsureBadge    FlowStep = "ensure_badge"
	StepAwardBadge     FlowStep = "award_badge"
	StepGrantBonus     FlowStep = "grant_bonus"
	StepPublishEvent   FlowStep = "publish_event"
)

// StreakMilestoneResult describes the outcome of one flow run.
type StreakMilestoneResult struct {
	// Triggered - whether the current streak matched a milestone.
	Triggered bool

	// Milestone - the matched milestone; zero value when not triggered.
	Milestone StreakMilestone

	// BadgeAwarded - whether the badge was created by this run.
	// False on repeat runs for the same streak value.
	BadgeAwarded bool

	// XPGranted - the applied bonus grant.
	XPGranted profile.LevelUpResult

	// CompletedSteps - steps executed by this run, in order.
	CompletedSteps []FlowStep
}

// StreakMilestoneFlow awards badges and bonus XP for long streaks.
type StreakMilestoneFlow struct {
	profiles    profile.Repository
	badges      badge.Repository
	progression *command.Progression
	publisher   shared.EventPublisher
	logger      *slog.Logger
	milestones  []StreakMilestone
}

// NewStreakMilestoneFlow creates a new streak milestone flow.
func NewStreakMilestoneFlow(
	profiles profile.Repository,
	badges badge.Repository,
	progression *command.Progression,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	milestones []StreakMilestone,
) *StreakMilestoneFlow {
	if logger == nil {
		logger = slog.Default()
	}
	if len(milestones) == 0 {
		milestones = DefaultStreakMilestones()
	}
	return &StreakMilestoneFlow{
		profiles:    profiles,
		badges:      badges,
		progression: progression,
		publisher:   publisher,
		logger:      logger.With("flow", "streak_milestones"),
		milestones:  milestones,
	}
}

// Run executes the flow for one user.
func (f *StreakMilestoneFlow) Run(ctx context.Context, userID shared.UserID) (*StreakMilestoneResult, error) {
	if !userID.IsValid() {
		return nil, errors.New("streak_milestones: valid user_id is required")
	}

	result := &StreakMilestoneResult{}
	step := func(s FlowStep) { result.CompletedSteps = append(result.CompletedSteps, s) }

	p, err := f.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("streak_milestones: load profile: %w", err)
	}
	step(StepLoadProfile)

	milestone, ok := f.match(p.Streak)
	step(StepMatchMilestone)
	if !ok {
		return result, nil
	}
	result.Triggered = true
	result.Milestone = milestone

	b, err := badge.NewBadge(milestone.BadgeSlug, milestone.BadgeName, badge.RuleActivityStreak, milestone.Days, milestone.BonusXP)
	if err != nil {
		return nil, fmt.Errorf("streak_milestones: build badge template: %w", err)
	}
	if err := f.badges.EnsureBadge(ctx, b); err != nil {
		return nil, fmt.Errorf("streak_milestones: ensure badge: %w", err)
	}
	step(StepEnsureBadge)

	created, err := f.badges.EnsureAward(ctx, badge.Award{
		UserID:    userID,
		BadgeSlug: milestone.BadgeSlug,
		AwardedAt: p.LastActivityAt,
	})
	if err != nil {
		return nil, fmt.Errorf("streak_milestones: award badge: %w", err)
	}
	step(StepAwardBadge)
	result.BadgeAwarded = created

	// Repeat run for the same streak: badge already there, nothing to grant.
	if !created {
		f.logger.Debug("streak milestone already awarded",
			"user_id", userID,
			"days", milestone.Days,
		)
		return result, nil
	}

	grant, err := f.progression.GrantExperience(ctx, userID, milestone.BonusXP, command.ReasonBadgeReward)
	if err != nil {
		return nil, fmt.Errorf("streak_milestones: grant bonus: %w", err)
	}
	step(StepGrantBonus)
	result.XPGranted = grant

	if f.publisher != nil {
		event := shared.NewBadgeAwardedEvent(userID.String(), milestone.BadgeSlug.String(), milestone.BadgeName, milestone.BonusXP)
		if err := f.publisher.Publish(event); err != nil {
			f.logger.Warn("failed to publish badge awarded event",
				"user_id", userID,
				"badge_slug", milestone.BadgeSlug,
				"error", err,
			)
		}
	}
	step(StepPublishEvent)

	f.logger.Info("streak milestone awarded",
		"user_id", userID,
		"days", milestone.Days,
		"badge_slug", milestone.BadgeSlug,
	)

	return result, nil
}

// match returns the milestone matching the exact streak length.
// Milestones fire on the exact day the streak reaches them, which keeps
// the flow idempotent without extra bookkeeping.
func (f *StreakMilestoneFlow) match(streak int) (StreakMilestone, bool) {
	for _, m := range f.milestones {
		if m.Days == streak {
			return m, true
		}
	}
	return StreakMilestone{}, false
}
