package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

type fakeQuizRepo struct {
	mu       sync.Mutex
	attempts []QuizAttempt
}

func (r *fakeQuizRepo) Save(_ context.Context, attempt QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeQuizRepo) CountCorrect(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.attempts {
		if a.UserID == userID && a.Correct {
			count++
		}
	}
	return count, nil
}

type quizFixture struct {
	profiles  *fakeProfileRepo
	missions  *fakeMissionRepo
	attempts  *fakeQuizRepo
	publisher *capturingPublisher
	handler   *SubmitQuizHandler
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()

	f := &quizFixture{
		profiles:  newFakeProfileRepo(),
		missions:  newFakeMissionRepo(),
		attempts:  &fakeQuizRepo{},
		publisher: &capturingPublisher{},
	}
	clock := shared.FixedClock{Time: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}

	progression := NewProgression(
		f.profiles, f.missions, newFakeBadgeRepo(), newFakeCompletionRepo(),
		f.publisher, clock, ProgressionConfig{})
	f.handler = NewSubmitQuizHandler(f.attempts, progression, f.publisher)

	p, err := profile.NewProfile(profile.NewProfileParams{
		UserID:      lessonTestUser,
		DisplayName: "Ana",
		Email:       "ana@unitex.md",
	}, clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.profiles.Create(context.Background(), p))

	for _, m := range mission.Defaults() {
		require.NoError(t, f.missions.EnsureMission(context.Background(), m))
	}

	return f
}

func TestSubmitQuiz_CorrectAnswerGrantsXPAndAdvancesMission(t *testing.T) {
	f := newQuizFixture(t)

	result, err := f.handler.Handle(context.Background(), SubmitQuizCommand{
		UserID: lessonTestUser, QuizID: 7, Correct: true,
	})
	require.NoError(t, err)

	assert.True(t, result.XPGranted.Applied())
	require.NotNil(t, result.Mission)
	assert.Equal(t, 1, result.Mission.Outcome.Progress)
	assert.False(t, result.Mission.Outcome.JustCompleted)
}

func TestSubmitQuiz_WrongAnswerRecordedWithoutProgression(t *testing.T) {
	f := newQuizFixture(t)

	result, err := f.handler.Handle(context.Background(), SubmitQuizCommand{
		UserID: lessonTestUser, QuizID: 7, Correct: false,
	})
	require.NoError(t, err)

	assert.False(t, result.XPGranted.Applied())
	assert.Nil(t, result.Mission)
	require.Len(t, f.attempts.attempts, 1)
	assert.Equal(t, 0, f.attempts.attempts[0].XPEarned)
}

func TestSubmitQuiz_ThreeCorrectAnswersCompleteWeeklyMission(t *testing.T) {
	f := newQuizFixture(t)

	for i := int64(1); i <= 2; i++ {
		_, err := f.handler.Handle(context.Background(), SubmitQuizCommand{
			UserID: lessonTestUser, QuizID: i, Correct: true,
		})
		require.NoError(t, err)
	}

	third, err := f.handler.Handle(context.Background(), SubmitQuizCommand{
		UserID: lessonTestUser, QuizID: 3, Correct: true,
	})
	require.NoError(t, err)

	require.NotNil(t, third.Mission)
	assert.True(t, third.Mission.Outcome.JustCompleted)

	// 3 correct answers * 15 + weekly reward 80.
	p, err := f.profiles.GetByUserID(context.Background(), lessonTestUser)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(125), p.XP)
	// 125 reaches the level-1 threshold exactly.
	assert.Equal(t, shared.Level(2), p.Level)
}

func TestSubmitQuiz_Validation(t *testing.T) {
	f := newQuizFixture(t)

	_, err := f.handler.Handle(context.Background(), SubmitQuizCommand{QuizID: 1})
	assert.Error(t, err)

	_, err = f.handler.Handle(context.Background(), SubmitQuizCommand{UserID: lessonTestUser})
	assert.Error(t, err)
}
