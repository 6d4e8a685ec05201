package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func seedSubject(t *testing.T, repo *fakeLessonRepo, id int64, name string, slug shared.Slug) {
	t.Helper()
	require.NoError(t, repo.CreateSubject(context.Background(), &lesson.Subject{
		ID:   id,
		Name: name,
		Slug: slug,
	}))
}

func seedLesson(t *testing.T, repo *fakeLessonRepo, id shared.LessonID, subjectID int64, day int, required bool, xp int) {
	t.Helper()
	require.NoError(t, repo.CreateLesson(context.Background(), &lesson.Lesson{
		ID:          id,
		SubjectID:   subjectID,
		Title:       "Lecția",
		ScheduledOn: shared.DateOf(time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)),
		Required:    required,
		XPReward:    xp,
	}))
}

func newPathFixture(t *testing.T) (*GetLearningPathHandler, *fakeLessonRepo, *fakeCompletionRepo) {
	t.Helper()
	lessons := newFakeLessonRepo()
	completions := newFakeCompletionRepo()
	return NewGetLearningPathHandler(lessons, completions, queryClock), lessons, completions
}

func TestGetLearningPath_FrontierAndProgress(t *testing.T) {
	handler, lessons, completions := newPathFixture(t)

	seedSubject(t, lessons, 1, "Matematică", "matematica")
	seedSubject(t, lessons, 2, "Informatică", "informatica")
	seedLesson(t, lessons, 1, 1, 1, true, 50)
	seedLesson(t, lessons, 2, 1, 2, true, 50)
	seedLesson(t, lessons, 3, 1, 3, false, 30)
	seedLesson(t, lessons, 4, 2, 1, true, 50)

	completions.complete(uid(1), 1, queryClock.Now())

	result, err := handler.Handle(context.Background(), GetLearningPathQuery{UserID: uid(1)})
	require.NoError(t, err)

	require.Len(t, result.Subjects, 2)

	math := result.Subjects[0]
	assert.Equal(t, int64(1), math.SubjectID)
	require.Len(t, math.Lessons, 3)

	assert.True(t, math.Lessons[0].Completed)
	assert.True(t, math.Lessons[0].Accessible)

	assert.True(t, math.Lessons[1].Accessible)
	assert.False(t, math.Lessons[1].Completed)

	// Lesson 3 sits behind the uncompleted required lesson 2.
	assert.False(t, math.Lessons[2].Accessible)
	assert.Equal(t, int64(2), math.Lessons[2].LockedBy)

	assert.Equal(t, 1, math.Completed)
	assert.Equal(t, 3, math.Total)
	assert.Equal(t, 33, math.Percent)
	assert.Equal(t, int64(2), math.NextUp)

	info := result.Subjects[1]
	assert.True(t, info.Lessons[0].Accessible)
	assert.Equal(t, int64(4), info.NextUp)

	assert.Equal(t, 1, result.Overall.Completed)
	assert.Equal(t, 4, result.Overall.Total)
	assert.Equal(t, 25, result.Overall.Percent)
}

func TestGetLearningPath_SubjectFilter(t *testing.T) {
	handler, lessons, _ := newPathFixture(t)

	seedSubject(t, lessons, 1, "Matematică", "matematica")
	seedSubject(t, lessons, 2, "Informatică", "informatica")
	seedLesson(t, lessons, 1, 1, 1, true, 50)
	seedLesson(t, lessons, 4, 2, 1, true, 50)

	result, err := handler.Handle(context.Background(), GetLearningPathQuery{UserID: uid(1), SubjectID: 2})
	require.NoError(t, err)

	require.Len(t, result.Subjects, 1)
	assert.Equal(t, int64(2), result.Subjects[0].SubjectID)
	assert.Equal(t, 1, result.Overall.Total)
}

func TestGetLearningPath_UnknownSubject(t *testing.T) {
	handler, _, _ := newPathFixture(t)

	_, err := handler.Handle(context.Background(), GetLearningPathQuery{UserID: uid(1), SubjectID: 42})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetLearningPath_EmptySubjectsHidden(t *testing.T) {
	handler, lessons, _ := newPathFixture(t)

	seedSubject(t, lessons, 1, "Matematică", "matematica")
	seedSubject(t, lessons, 2, "Fără lecții", "gol")
	seedLesson(t, lessons, 1, 1, 1, true, 50)

	result, err := handler.Handle(context.Background(), GetLearningPathQuery{UserID: uid(1)})
	require.NoError(t, err)

	require.Len(t, result.Subjects, 1)
	assert.Equal(t, int64(1), result.Subjects[0].SubjectID)
}

func TestGetLearningPath_Validation(t *testing.T) {
	handler, _, _ := newPathFixture(t)

	_, err := handler.Handle(context.Background(), GetLearningPathQuery{})
	assert.Error(t, err)
}
