package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func TestLessonMilestones_AscendingThresholds(t *testing.T) {
	milestones := LessonMilestones()
	require.NotEmpty(t, milestones)

	for i := 1; i < len(milestones); i++ {
		assert.Greater(t, milestones[i].Threshold, milestones[i-1].Threshold)
	}
	for _, m := range milestones {
		assert.True(t, m.Slug.IsValid())
		assert.Positive(t, m.XPReward)
	}
}

func TestQualifying_AllReachedMilestonesInOneCall(t *testing.T) {
	ev := NewEvaluator()

	// Счётчик 5 покрывает ступени 1 и 5; обе выдаются одним вызовом,
	// младшая не пропускается.
	got := ev.Qualifying(ActivityCounts{LessonsCompleted: 5}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, shared.Slug("primul-pas"), got[0].Slug)
	assert.Equal(t, shared.Slug("explorator"), got[1].Slug)
}

func TestQualifying_SkipsAlreadyAwarded(t *testing.T) {
	ev := NewEvaluator()
	awarded := map[shared.Slug]bool{"primul-pas": true}

	got := ev.Qualifying(ActivityCounts{LessonsCompleted: 5}, awarded)

	require.Len(t, got, 1)
	assert.Equal(t, shared.Slug("explorator"), got[0].Slug)
}

func TestQualifying_IdempotentSecondEvaluation(t *testing.T) {
	ev := NewEvaluator()
	counts := ActivityCounts{LessonsCompleted: 10}

	first := ev.Qualifying(counts, nil)
	require.Len(t, first, 3)

	awarded := map[shared.Slug]bool{}
	for _, m := range first {
		awarded[m.Slug] = true
	}

	// Повторная оценка с тем же счётчиком ничего не выдаёт.
	second := ev.Qualifying(counts, awarded)
	assert.Empty(t, second)
}

func TestQualifying_BelowFirstThreshold(t *testing.T) {
	ev := NewEvaluator()
	assert.Empty(t, ev.Qualifying(ActivityCounts{LessonsCompleted: 0}, nil))
}

func TestLegacyRewardDue(t *testing.T) {
	ev := NewEvaluator()

	assert.False(t, ev.LegacyRewardDue(ActivityCounts{LessonsCompleted: 9}))
	assert.True(t, ev.LegacyRewardDue(ActivityCounts{LessonsCompleted: 10}))
	assert.True(t, ev.LegacyRewardDue(ActivityCounts{LessonsCompleted: 42}))
}

func TestMilestoneTemplate(t *testing.T) {
	m := LessonMilestones()[0]
	b := m.Template()

	assert.Equal(t, m.Slug, b.Slug)
	assert.Equal(t, RuleLessonsCompleted, b.Rule)
	assert.Equal(t, m.Threshold, b.Threshold)
	assert.Equal(t, m.XPReward, b.XPReward)
}

func TestNewEvaluatorWithMilestones_SortsInput(t *testing.T) {
	ev := NewEvaluatorWithMilestones([]Milestone{
		{Slug: "mare", Threshold: 50, Name: "Mare"},
		{Slug: "mic", Threshold: 2, Name: "Mic"},
	})

	got := ev.Qualifying(ActivityCounts{LessonsCompleted: 60}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, shared.Slug("mic"), got[0].Slug)
	assert.Equal(t, shared.Slug("mare"), got[1].Slug)
}
