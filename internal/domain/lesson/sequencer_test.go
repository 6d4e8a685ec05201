package lesson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func day(d int) shared.Date {
	return shared.DateOf(time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC))
}

func mkLesson(id shared.LessonID, subjectID int64, scheduled shared.Date, required bool) *Lesson {
	return &Lesson{
		ID:          id,
		SubjectID:   subjectID,
		Title:       "Lecția",
		ScheduledOn: scheduled,
		Required:    required,
	}
}

func TestComputeAccessibility_FrontierBlocksFollowing(t *testing.T) {
	// Три обязательные лекции, первая завершена: доступны первая и
	// вторая (вторая - граница), третья заблокирована второй.
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
		mkLesson(3, 10, day(3), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{1: true})

	assert.True(t, access.IsAccessible(1))
	assert.True(t, access.IsAccessible(2))
	assert.False(t, access.IsAccessible(3))

	blocker, locked := access.BlockedBy(3)
	require.True(t, locked)
	assert.Equal(t, shared.LessonID(2), blocker)
}

func TestComputeAccessibility_CompletedAfterFrontierStaysAccessible(t *testing.T) {
	// Вторая лекция завершена вне очереди (первая ещё нет). Завершённая
	// остаётся доступной - её можно перепройти на лучшее время, - а
	// граница по-прежнему первая лекция, и блокирует она только третью.
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
		mkLesson(3, 10, day(3), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{2: true})

	assert.True(t, access.IsAccessible(1))
	assert.True(t, access.IsAccessible(2))
	assert.False(t, access.IsAccessible(3))

	_, locked := access.BlockedBy(2)
	assert.False(t, locked)

	blocker, locked := access.BlockedBy(3)
	require.True(t, locked)
	assert.Equal(t, shared.LessonID(1), blocker)
}

func TestComputeAccessibility_NothingCompleted(t *testing.T) {
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
		mkLesson(3, 10, day(3), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, nil)

	assert.True(t, access.IsAccessible(1))
	assert.False(t, access.IsAccessible(2))
	assert.False(t, access.IsAccessible(3))

	blocker, _ := access.BlockedBy(2)
	assert.Equal(t, shared.LessonID(1), blocker)
	blocker, _ = access.BlockedBy(3)
	assert.Equal(t, shared.LessonID(1), blocker)
}

func TestComputeAccessibility_OptionalLessonsDoNotBlock(t *testing.T) {
	// Необязательная лекция между обязательными не двигает границу:
	// её можно пропустить, и она не блокирует следующих.
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), false),
		mkLesson(3, 10, day(3), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{1: true})

	assert.True(t, access.IsAccessible(2))
	assert.True(t, access.IsAccessible(3))
	assert.Empty(t, access.Locked)
}

func TestComputeAccessibility_SubjectsIndependent(t *testing.T) {
	// Граница одного предмета не влияет на другой.
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
		mkLesson(5, 20, day(1), true),
		mkLesson(6, 20, day(2), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{5: true})

	assert.True(t, access.IsAccessible(1))
	assert.False(t, access.IsAccessible(2))
	assert.True(t, access.IsAccessible(5))
	assert.True(t, access.IsAccessible(6))
}

func TestComputeAccessibility_SameDateOrderedByID(t *testing.T) {
	// При совпадении дат канонический порядок определяет id.
	lessons := []*Lesson{
		mkLesson(7, 10, day(1), true),
		mkLesson(3, 10, day(1), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, nil)

	assert.True(t, access.IsAccessible(3))
	assert.False(t, access.IsAccessible(7))

	blocker, _ := access.BlockedBy(7)
	assert.Equal(t, shared.LessonID(3), blocker)
}

func TestComputeAccessibility_AllCompletedAllAccessible(t *testing.T) {
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{1: true, 2: true})

	assert.True(t, access.IsAccessible(1))
	assert.True(t, access.IsAccessible(2))
	assert.Empty(t, access.Locked)
}

func TestComputeAccessibility_UnsortedInput(t *testing.T) {
	// Лекции приходят в произвольном порядке - секвенсор сортирует сам.
	lessons := []*Lesson{
		mkLesson(3, 10, day(3), true),
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
	}
	seq := NewSequencer()

	access := seq.ComputeAccessibility(lessons, map[shared.LessonID]bool{1: true, 2: true})

	assert.True(t, access.IsAccessible(3))
	assert.Empty(t, access.Locked)
}

func TestNextUp_FirstAccessibleUncompletedPerSubject(t *testing.T) {
	lessons := []*Lesson{
		mkLesson(1, 10, day(1), true),
		mkLesson(2, 10, day(2), true),
		mkLesson(5, 20, day(1), true),
	}
	seq := NewSequencer()

	next := seq.NextUp(lessons, map[shared.LessonID]bool{1: true})

	require.Len(t, next, 2)
	assert.Equal(t, shared.LessonID(2), next[0].ID)
	assert.Equal(t, shared.LessonID(5), next[1].ID)
}

func TestNextUp_EverythingDone(t *testing.T) {
	lessons := []*Lesson{mkLesson(1, 10, day(1), true)}
	seq := NewSequencer()

	next := seq.NextUp(lessons, map[shared.LessonID]bool{1: true})

	assert.Empty(t, next)
}

func TestCompletionImprove(t *testing.T) {
	c, err := NewCompletion("0f8fad5b-d9cb-469f-a165-70867728950e", 1,
		time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), 10*time.Minute)
	require.NoError(t, err)

	// Быстрее - улучшает, медленнее и ноль - нет.
	assert.True(t, c.Improve(8*time.Minute))
	assert.Equal(t, 8*time.Minute, c.BestDuration)
	assert.False(t, c.Improve(9*time.Minute))
	assert.False(t, c.Improve(0))
	assert.Equal(t, 8*time.Minute, c.BestDuration)
}

func TestCompletionImprove_FromUnmeasured(t *testing.T) {
	c, err := NewCompletion("0f8fad5b-d9cb-469f-a165-70867728950e", 1,
		time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)

	assert.True(t, c.Improve(5*time.Minute))
	assert.Equal(t, 5*time.Minute, c.BestDuration)
}

func TestLessonBefore(t *testing.T) {
	earlier := mkLesson(5, 10, day(1), true)
	later := mkLesson(2, 10, day(2), true)

	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))

	sameDay := mkLesson(6, 10, day(1), true)
	assert.True(t, earlier.Before(sameDay))
}
