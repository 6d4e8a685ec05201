// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION FLOW
// Shared orchestration used by all write commands: XP grants through the
// ledger, mission advancement, badge evaluation. Command handlers own the
// trigger (lesson, quiz, project); this component owns the consequences.
// ══════════════════════════════════════════════════════════════════════════════

// XP grant reasons recorded on experience events.
const (
	ReasonLessonCompleted = "lesson_completed"
	ReasonQuizCorrect     = "quiz_correct"
	ReasonMissionReward   = "mission_reward"
	ReasonBadgeReward     = "badge_reward"
)

// ProgressionConfig contains tunables for the progression flow.
type ProgressionConfig struct {
	// StreakDailyGate limits the streak bump to once per calendar day.
	// Off reproduces the historical behavior: every badge evaluation bumps.
	StreakDailyGate bool
}

// Progression coordinates XP, missions, and badges for write commands.
type Progression struct {
	profiles    profile.Repository
	missions    mission.Repository
	badges      badge.Repository
	completions lesson.CompletionRepository

	ledger      *profile.Ledger
	missionEval *mission.Evaluator
	badgeEval   *badge.Evaluator

	publisher shared.EventPublisher
	clock     shared.Clock
	config    ProgressionConfig
}

// NewProgression creates the progression flow component.
func NewProgression(
	profiles profile.Repository,
	missions mission.Repository,
	badges badge.Repository,
	completions lesson.CompletionRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	config ProgressionConfig,
) *Progression {
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &Progression{
		profiles:    profiles,
		missions:    missions,
		badges:      badges,
		completions: completions,
		ledger:      profile.NewLedger(clock),
		missionEval: mission.NewEvaluator(clock),
		badgeEval:   badge.NewEvaluator(),
		publisher:   publisher,
		clock:       clock,
		config:      config,
	}
}

// GrantExperience applies an XP grant atomically through the repository.
// Non-student roles and non-positive amounts are silent no-ops. On success
// the experience event is persisted and XPGained/LevelUp events published.
func (p *Progression) GrantExperience(ctx context.Context, userID shared.UserID, amount int, reason string) (profile.LevelUpResult, error) {
	if amount <= 0 {
		return profile.LevelUpResult{}, nil
	}

	result, err := p.profiles.AddExperience(ctx, userID, func(pr *profile.Profile) (profile.LevelUpResult, error) {
		if !pr.Role.EarnsExperience() {
			return profile.LevelUpResult{OldLevel: pr.Level, NewLevel: pr.Level, NewXP: pr.XP}, nil
		}
		return p.ledger.AddExperience(pr, amount, reason), nil
	})
	if err != nil {
		return result, fmt.Errorf("progression: add experience: %w", err)
	}

	if !result.Applied() {
		return result, nil
	}

	if err := p.profiles.SaveExperienceEvent(ctx, *result.Event); err != nil {
		return result, fmt.Errorf("progression: save experience event: %w", err)
	}

	p.publish(shared.NewXPGainedEvent(userID.String(), amount, result.NewXP.Int(), reason))
	if result.LeveledUp {
		p.publish(shared.NewLevelUpEvent(userID.String(), result.OldLevel.Int(), result.NewLevel.Int(), result.NewXP.Int()))
	}

	return result, nil
}

// MissionAdvance is the outcome of advancing one mission.
type MissionAdvance struct {
	MissionCode   shared.Slug
	Outcome       mission.Outcome
	RewardGranted profile.LevelUpResult
	BadgeAwarded  bool
}

// AdvanceMission registers increment units of progress on the user's state
// for the given mission. The state is persisted unconditionally; the reward
// (XP and optional badge) is granted only when this call completes the
// mission. An inactive or missing mission is a no-op, not an error: mission
// templates are seeded configuration, and a command must not fail because
// an operator disabled one.
func (p *Progression) AdvanceMission(ctx context.Context, userID shared.UserID, code shared.Slug, increment int) (*MissionAdvance, error) {
	m, err := p.missions.GetMission(ctx, code)
	if err != nil {
		if shared.IsNotFound(err) {
			return &MissionAdvance{MissionCode: code}, nil
		}
		return nil, fmt.Errorf("progression: get mission %s: %w", code, err)
	}
	if !m.Active {
		return &MissionAdvance{MissionCode: code}, nil
	}

	st, err := p.missions.GetOrCreateState(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("progression: get mission state %s: %w", code, err)
	}

	outcome := p.missionEval.RegisterProgress(m, st, p.clock.Today(), increment)

	if err := p.missions.SaveState(ctx, st); err != nil {
		return nil, fmt.Errorf("progression: save mission state %s: %w", code, err)
	}

	advance := &MissionAdvance{MissionCode: code, Outcome: outcome}
	if !outcome.JustCompleted {
		return advance, nil
	}

	advance.RewardGranted, err = p.GrantExperience(ctx, userID, outcome.RewardPoints, ReasonMissionReward)
	if err != nil {
		return nil, err
	}

	if outcome.RewardBadge != "" {
		created, err := p.awardMissionBadge(ctx, userID, outcome.RewardBadge)
		if err != nil {
			return nil, err
		}
		advance.BadgeAwarded = created
	}

	p.publish(shared.NewMissionCompletedEvent(
		userID.String(), code.String(), outcome.RewardPoints, outcome.RewardBadge.String()))

	return advance, nil
}

// EvaluateBadges checks milestone rules against the user's activity counts
// and awards every newly qualifying badge. Awarding is idempotent: a second
// evaluation with the same counts creates nothing. Each successful
// evaluation also bumps the streak (gated by config) and, past the legacy
// threshold, ensures the historical reward record.
func (p *Progression) EvaluateBadges(ctx context.Context, userID shared.UserID) ([]badge.Milestone, error) {
	lessonsDone, err := p.completions.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("progression: count completions: %w", err)
	}
	counts := badge.ActivityCounts{LessonsCompleted: lessonsDone}

	alreadyAwarded, err := p.badges.ListAwardedSlugs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("progression: list awarded slugs: %w", err)
	}

	now := p.clock.Now()
	var granted []badge.Milestone

	for _, m := range p.badgeEval.Qualifying(counts, alreadyAwarded) {
		if err := p.badges.EnsureBadge(ctx, m.Template()); err != nil {
			return granted, fmt.Errorf("progression: ensure badge %s: %w", m.Slug, err)
		}

		created, err := p.badges.EnsureAward(ctx, badge.Award{
			UserID:    userID,
			BadgeSlug: m.Slug,
			AwardedAt: now,
		})
		if err != nil {
			return granted, fmt.Errorf("progression: ensure award %s: %w", m.Slug, err)
		}
		if !created {
			continue
		}

		granted = append(granted, m)
		if _, err := p.GrantExperience(ctx, userID, m.XPReward, ReasonBadgeReward); err != nil {
			return granted, err
		}
		p.publish(shared.NewBadgeAwardedEvent(userID.String(), m.Slug.String(), m.Name, m.XPReward))
	}

	if p.badgeEval.LegacyRewardDue(counts) {
		if _, err := p.badges.EnsureReward(ctx, badge.Reward{
			UserID:      userID,
			Name:        badge.LegacyRewardName,
			Description: "Ai finalizat 10 lecții",
			AwardedAt:   now,
		}); err != nil {
			return granted, fmt.Errorf("progression: ensure legacy reward: %w", err)
		}
	}

	if err := p.bumpStreak(ctx, userID); err != nil {
		return granted, err
	}

	return granted, nil
}

// awardMissionBadge ensures a mission reward badge exists and awards it.
// The badge XP is granted only when the award row is actually created.
func (p *Progression) awardMissionBadge(ctx context.Context, userID shared.UserID, slug shared.Slug) (bool, error) {
	b, err := p.badges.GetBadge(ctx, slug)
	if err != nil {
		if shared.IsNotFound(err) {
			b = &badge.Badge{Slug: slug, Name: slug.String(), Rule: badge.RuleMissionReward}
			if err := p.badges.EnsureBadge(ctx, b); err != nil {
				return false, fmt.Errorf("progression: ensure mission badge %s: %w", slug, err)
			}
		} else {
			return false, fmt.Errorf("progression: get badge %s: %w", slug, err)
		}
	}

	created, err := p.badges.EnsureAward(ctx, badge.Award{
		UserID:    userID,
		BadgeSlug: slug,
		AwardedAt: p.clock.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("progression: ensure mission award %s: %w", slug, err)
	}
	if created {
		if _, err := p.GrantExperience(ctx, userID, b.XPReward, ReasonBadgeReward); err != nil {
			return created, err
		}
		p.publish(shared.NewBadgeAwardedEvent(userID.String(), slug.String(), b.Name, b.XPReward))
	}

	return created, nil
}

// bumpStreak increments the activity streak. With the daily gate enabled
// the bump is skipped when the profile was already active today.
func (p *Progression) bumpStreak(ctx context.Context, userID shared.UserID) error {
	pr, err := p.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("progression: get profile for streak: %w", err)
	}

	if p.config.StreakDailyGate && pr.ActiveOn(p.clock.Today()) {
		return nil
	}

	pr.BumpStreak(p.clock.Now())
	if err := p.profiles.Update(ctx, pr); err != nil {
		return fmt.Errorf("progression: update streak: %w", err)
	}

	p.publish(shared.NewStreakUpdatedEvent(userID.String(), pr.Streak))
	return nil
}

func (p *Progression) publish(event shared.Event) {
	if p.publisher == nil {
		return
	}
	// Delivery failures must never roll back the progression write.
	_ = p.publisher.Publish(event)
}
