package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

const lessonTestUser shared.UserID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type lessonFixture struct {
	profiles    *fakeProfileRepo
	missions    *fakeMissionRepo
	badges      *fakeBadgeRepo
	lessons     *fakeLessonRepo
	completions *fakeCompletionRepo
	publisher   *capturingPublisher
	progression *Progression
	handler     *CompleteLessonHandler
	clock       shared.FixedClock
}

func newLessonFixture(t *testing.T) *lessonFixture {
	t.Helper()

	f := &lessonFixture{
		profiles:    newFakeProfileRepo(),
		missions:    newFakeMissionRepo(),
		badges:      newFakeBadgeRepo(),
		lessons:     newFakeLessonRepo(),
		completions: newFakeCompletionRepo(),
		publisher:   &capturingPublisher{},
		clock:       shared.FixedClock{Time: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
	}

	f.progression = NewProgression(
		f.profiles, f.missions, f.badges, f.completions,
		f.publisher, f.clock, ProgressionConfig{})
	f.handler = NewCompleteLessonHandler(
		f.lessons, f.completions, f.progression, f.publisher, f.clock)

	p, err := profile.NewProfile(profile.NewProfileParams{
		UserID:      lessonTestUser,
		DisplayName: "Ana",
		Email:       "ana@unitex.md",
		Role:        profile.RoleStudent,
	}, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.profiles.Create(context.Background(), p))

	for _, m := range mission.Defaults() {
		require.NoError(t, f.missions.EnsureMission(context.Background(), m))
	}

	return f
}

func (f *lessonFixture) addLesson(t *testing.T, id shared.LessonID, subjectID int64, day int, required bool, xp int) {
	t.Helper()
	l := &lesson.Lesson{
		ID:          id,
		SubjectID:   subjectID,
		Title:       "Lecția",
		ScheduledOn: shared.DateOf(time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)),
		Required:    required,
		XPReward:    xp,
	}
	require.NoError(t, f.lessons.CreateLesson(context.Background(), l))
}

func TestCompleteLesson_FirstCompletionGrantsEverything(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 50)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID:   lessonTestUser,
		LessonID: 1,
	})
	require.NoError(t, err)

	assert.True(t, result.FirstCompletion)
	assert.True(t, result.XPGranted.Applied())

	// Daily mission (target 1, reward 40) completes on the first lesson.
	require.NotNil(t, result.Mission)
	assert.True(t, result.Mission.Outcome.JustCompleted)

	// First milestone badge (threshold 1, +20 XP) awards immediately.
	require.Len(t, result.BadgesAwarded, 1)
	assert.Equal(t, shared.Slug("primul-pas"), result.BadgesAwarded[0].Slug)

	// Lesson 50 + mission 40 + badge 20.
	p, err := f.profiles.GetByUserID(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(110), p.XP)
	assert.Equal(t, 1, p.Streak)

	assert.Len(t, f.publisher.byType(shared.EventLessonCompleted), 1)
	assert.Len(t, f.publisher.byType(shared.EventMissionCompleted), 1)
	assert.Len(t, f.publisher.byType(shared.EventBadgeAwarded), 1)
}

func TestCompleteLesson_LockedLessonRejected(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 50)
	f.addLesson(t, 2, 10, 2, true, 50)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID:   lessonTestUser,
		LessonID: 2,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, lesson.ErrLessonLocked))
}

func TestCompleteLesson_RepeatImprovesTimeWithoutRewards(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 50)

	first, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1, DurationSeconds: 600,
	})
	require.NoError(t, err)
	require.True(t, first.FirstCompletion)

	second, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1, DurationSeconds: 300,
	})
	require.NoError(t, err)

	assert.False(t, second.FirstCompletion)
	assert.False(t, second.XPGranted.Applied())
	assert.Nil(t, second.Mission)

	c, err := f.completions.Get(context.Background(), lessonTestUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.BestDuration)

	// XP did not change on the repeat.
	p, err := f.profiles.GetByUserID(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(110), p.XP)
}

func TestCompleteLesson_SlowerRepeatKeepsBestTime(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1, DurationSeconds: 300,
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1, DurationSeconds: 900,
	})
	require.NoError(t, err)

	c, err := f.completions.Get(context.Background(), lessonTestUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.BestDuration)
}

func TestCompleteLesson_CompletedAheadOfOrderCanRetry(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)
	f.addLesson(t, 2, 10, 2, true, 10)

	// Lesson 2 was completed before lesson 1 (imported history). A repeat
	// attempt on it must not be rejected as locked: completion keeps the
	// lesson accessible, and only the best time changes.
	created, err := f.completions.Upsert(context.Background(), lessonTestUser, 2,
		f.clock.Now(), 10*time.Minute)
	require.NoError(t, err)
	require.True(t, created)

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 2, DurationSeconds: 300,
	})
	require.NoError(t, err)

	assert.False(t, result.FirstCompletion)
	c, err := f.completions.Get(context.Background(), lessonTestUser, 2)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.BestDuration)
}

func TestCompleteLesson_BadgeEvaluationIdempotent(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)
	f.addLesson(t, 2, 10, 2, false, 10)

	first, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1,
	})
	require.NoError(t, err)
	require.Len(t, first.BadgesAwarded, 1)

	// Second lesson: count=2, still below the next threshold of 5 -
	// the threshold-1 badge must not be granted again.
	second, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, second.BadgesAwarded)

	awards, err := f.badges.ListAwards(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Len(t, awards, 1)
}

func TestCompleteLesson_MissingLesson(t *testing.T) {
	f := newLessonFixture(t)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 99,
	})

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteLesson_StreakDailyGate(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)
	f.addLesson(t, 2, 10, 2, false, 10)

	// With the gate on, a second evaluation on the same day keeps streak 1.
	f.progression = NewProgression(
		f.profiles, f.missions, f.badges, f.completions,
		f.publisher, f.clock, ProgressionConfig{StreakDailyGate: true})
	f.handler = NewCompleteLessonHandler(
		f.lessons, f.completions, f.progression, f.publisher, f.clock)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1,
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 2,
	})
	require.NoError(t, err)

	p, err := f.profiles.GetByUserID(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Streak)
}

func TestCompleteLesson_StreakWithoutGateBumpsEveryTime(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)
	f.addLesson(t, 2, 10, 2, false, 10)

	_, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1,
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 2,
	})
	require.NoError(t, err)

	p, err := f.profiles.GetByUserID(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Streak)
}

func TestCompleteLesson_InactiveMissionIsNoOp(t *testing.T) {
	f := newLessonFixture(t)
	f.addLesson(t, 1, 10, 1, true, 10)

	m, err := f.missions.GetMission(context.Background(), mission.CodeDailyLesson)
	require.NoError(t, err)
	m.Active = false

	result, err := f.handler.Handle(context.Background(), CompleteLessonCommand{
		UserID: lessonTestUser, LessonID: 1,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Mission)
	assert.False(t, result.Mission.Outcome.JustCompleted)
	assert.Empty(t, f.publisher.byType(shared.EventMissionCompleted))
}
