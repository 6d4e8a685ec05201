package saga

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/application/command"
	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

const sagaTestUser shared.UserID = "0f8fad5b-d9cb-469f-a165-70867728950e"

var sagaClock = shared.FixedClock{Time: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}

// ─── fakes ───────────────────────────────────────────────────────────────────

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[shared.UserID]*profile.Profile
	events   []profile.ExperienceEvent
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[shared.UserID]*profile.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, _ string) (*profile.Profile, error) {
	return nil, profile.ErrProfileNotFound
}

func (r *fakeProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) AddExperience(_ context.Context, userID shared.UserID, mutate func(p *profile.Profile) (profile.LevelUpResult, error)) (profile.LevelUpResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return profile.LevelUpResult{}, profile.ErrProfileNotFound
	}
	return mutate(p)
}

func (r *fakeProfileRepo) SaveExperienceEvent(_ context.Context, event profile.ExperienceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeProfileRepo) GetExperienceEvents(_ context.Context, _ shared.UserID, _ int) ([]profile.ExperienceEvent, error) {
	return nil, nil
}

func (r *fakeProfileRepo) GetTopByXP(_ context.Context, _ int) ([]*profile.Profile, error) {
	return nil, nil
}

func (r *fakeProfileRepo) Count(_ context.Context) (int, error) { return 0, nil }

type fakeBadgeRepo struct {
	mu     sync.Mutex
	badges map[shared.Slug]*badge.Badge
	awards []badge.Award
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{badges: make(map[shared.Slug]*badge.Badge)}
}

func (r *fakeBadgeRepo) EnsureBadge(_ context.Context, b *badge.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.badges[b.Slug]; !ok {
		r.badges[b.Slug] = b
	}
	return nil
}

func (r *fakeBadgeRepo) GetBadge(_ context.Context, slug shared.Slug) (*badge.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.badges[slug]
	if !ok {
		return nil, badge.ErrBadgeNotFound
	}
	return b, nil
}

func (r *fakeBadgeRepo) EnsureAward(_ context.Context, award badge.Award) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.awards {
		if a.UserID == award.UserID && a.BadgeSlug == award.BadgeSlug {
			return false, nil
		}
	}
	r.awards = append(r.awards, award)
	return true, nil
}

func (r *fakeBadgeRepo) ListAwards(_ context.Context, _ shared.UserID) ([]badge.Award, error) {
	return nil, nil
}

func (r *fakeBadgeRepo) ListAwardedSlugs(_ context.Context, _ shared.UserID) (map[shared.Slug]bool, error) {
	return map[shared.Slug]bool{}, nil
}

func (r *fakeBadgeRepo) EnsureReward(_ context.Context, _ badge.Reward) (bool, error) {
	return false, nil
}

type fakeMissionRepo struct{}

func (fakeMissionRepo) EnsureMission(_ context.Context, _ *mission.Mission) error { return nil }
func (fakeMissionRepo) GetMission(_ context.Context, _ shared.Slug) (*mission.Mission, error) {
	return nil, mission.ErrMissionNotFound
}
func (fakeMissionRepo) ListActive(_ context.Context) ([]*mission.Mission, error) { return nil, nil }
func (fakeMissionRepo) GetOrCreateState(_ context.Context, userID shared.UserID, code shared.Slug) (*mission.State, error) {
	return mission.NewState(userID, code), nil
}
func (fakeMissionRepo) SaveState(_ context.Context, _ *mission.State) error { return nil }
func (fakeMissionRepo) ListStates(_ context.Context, _ shared.UserID) ([]*mission.State, error) {
	return nil, nil
}

type fakeCompletionRepo struct{}

func (fakeCompletionRepo) Upsert(_ context.Context, _ shared.UserID, _ shared.LessonID, _ time.Time, _ time.Duration) (bool, error) {
	return false, nil
}
func (fakeCompletionRepo) Get(_ context.Context, _ shared.UserID, _ shared.LessonID) (*lesson.Completion, error) {
	return nil, lesson.ErrLessonNotFound
}
func (fakeCompletionRepo) ListCompletedIDs(_ context.Context, _ shared.UserID) (map[shared.LessonID]bool, error) {
	return map[shared.LessonID]bool{}, nil
}
func (fakeCompletionRepo) CountByUser(_ context.Context, _ shared.UserID) (int, error) {
	return 0, nil
}
func (fakeCompletionRepo) CountCompletedToday(_ context.Context, _ shared.UserID, _ shared.Date) (int, error) {
	return 0, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// ─── tests ───────────────────────────────────────────────────────────────────

func newFlowFixture(t *testing.T, streak int) (*StreakMilestoneFlow, *fakeProfileRepo, *fakeBadgeRepo, *capturingPublisher) {
	t.Helper()

	profiles := newFakeProfileRepo()
	badges := newFakeBadgeRepo()
	publisher := &capturingPublisher{}

	p, err := profile.NewProfile(profile.NewProfileParams{
		UserID:      sagaTestUser,
		DisplayName: "Ana",
		Email:       "ana@unitex.md",
	}, sagaClock.Now())
	require.NoError(t, err)
	p.Streak = streak
	require.NoError(t, profiles.Create(context.Background(), p))

	progression := command.NewProgression(
		profiles, fakeMissionRepo{}, badges, fakeCompletionRepo{},
		publisher, sagaClock, command.ProgressionConfig{})

	flow := NewStreakMilestoneFlow(profiles, badges, progression, publisher, nil, nil)
	return flow, profiles, badges, publisher
}

func TestStreakMilestoneFlow_SevenDayStreakAwards(t *testing.T) {
	flow, profiles, badges, publisher := newFlowFixture(t, 7)

	result, err := flow.Run(context.Background(), sagaTestUser)
	require.NoError(t, err)

	assert.True(t, result.Triggered)
	assert.True(t, result.BadgeAwarded)
	assert.Equal(t, 7, result.Milestone.Days)
	assert.True(t, result.XPGranted.Applied())

	p, err := profiles.GetByUserID(context.Background(), sagaTestUser)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(30), p.XP)

	require.Len(t, badges.awards, 1)
	assert.Equal(t, shared.Slug("serie-7-zile"), badges.awards[0].BadgeSlug)

	// XPGained from the grant plus the flow's own BadgeAwarded event.
	assert.NotEmpty(t, publisher.events)
}

func TestStreakMilestoneFlow_RepeatRunIsIdempotent(t *testing.T) {
	flow, profiles, badges, _ := newFlowFixture(t, 7)

	_, err := flow.Run(context.Background(), sagaTestUser)
	require.NoError(t, err)

	second, err := flow.Run(context.Background(), sagaTestUser)
	require.NoError(t, err)

	assert.True(t, second.Triggered)
	assert.False(t, second.BadgeAwarded)
	assert.False(t, second.XPGranted.Applied())

	p, err := profiles.GetByUserID(context.Background(), sagaTestUser)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(30), p.XP)
	assert.Len(t, badges.awards, 1)
}

func TestStreakMilestoneFlow_NoMilestoneNoAction(t *testing.T) {
	flow, _, badges, _ := newFlowFixture(t, 5)

	result, err := flow.Run(context.Background(), sagaTestUser)
	require.NoError(t, err)

	assert.False(t, result.Triggered)
	assert.Empty(t, badges.awards)
	assert.Equal(t, []FlowStep{StepLoadProfile, StepMatchMilestone}, result.CompletedSteps)
}

func TestStreakMilestoneFlow_InvalidUser(t *testing.T) {
	flow, _, _, _ := newFlowFixture(t, 7)

	_, err := flow.Run(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}
