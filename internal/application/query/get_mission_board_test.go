package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func newBoardFixture(t *testing.T) (*GetMissionBoardHandler, *fakeMissionRepo) {
	t.Helper()
	missions := newFakeMissionRepo()
	for _, m := range mission.Defaults() {
		require.NoError(t, missions.EnsureMission(context.Background(), m))
	}
	return NewGetMissionBoardHandler(missions, queryClock), missions
}

func TestGetMissionBoard_GroupsByFrequency(t *testing.T) {
	handler, _ := newBoardFixture(t)

	result, err := handler.Handle(context.Background(), GetMissionBoardQuery{UserID: uid(1)})
	require.NoError(t, err)

	require.Len(t, result.Daily, 1)
	require.Len(t, result.Weekly, 1)
	require.Len(t, result.Special, 1)

	daily := result.Daily[0]
	assert.Equal(t, string(mission.CodeDailyLesson), daily.Code)
	assert.Equal(t, 1, daily.Target)
	assert.Equal(t, 0, daily.Progress)
	assert.Equal(t, 0, daily.Percent)
	assert.False(t, daily.Completed)
	assert.Equal(t, 40, daily.RewardPoints)

	assert.Equal(t, 0, result.CompletedToday)
}

func TestGetMissionBoard_ShowsStoredProgress(t *testing.T) {
	handler, missions := newBoardFixture(t)

	st, err := missions.GetOrCreateState(context.Background(), uid(1), mission.CodeWeeklyQuiz)
	require.NoError(t, err)
	st.Progress = 2
	st.LastReset = queryClock.Today()
	require.NoError(t, missions.SaveState(context.Background(), st))

	result, err := handler.Handle(context.Background(), GetMissionBoardQuery{UserID: uid(1)})
	require.NoError(t, err)

	weekly := result.Weekly[0]
	assert.Equal(t, 2, weekly.Progress)
	assert.Equal(t, 66, weekly.Percent)
	assert.False(t, weekly.Completed)
}

func TestGetMissionBoard_StaleDailyPeriodShownAsZero(t *testing.T) {
	handler, missions := newBoardFixture(t)

	completedAt := queryClock.Now().AddDate(0, 0, -1)
	st, err := missions.GetOrCreateState(context.Background(), uid(1), mission.CodeDailyLesson)
	require.NoError(t, err)
	st.Progress = 1
	st.Completed = true
	st.CompletedAt = &completedAt
	st.LastReset = queryClock.Today().AddDays(-1)
	require.NoError(t, missions.SaveState(context.Background(), st))

	result, err := handler.Handle(context.Background(), GetMissionBoardQuery{UserID: uid(1)})
	require.NoError(t, err)

	daily := result.Daily[0]
	assert.Equal(t, 0, daily.Progress)
	assert.False(t, daily.Completed)
	assert.Equal(t, 0, result.CompletedToday)
}

func TestGetMissionBoard_OnceMissionNeverGoesStale(t *testing.T) {
	handler, missions := newBoardFixture(t)

	completedAt := queryClock.Now().AddDate(0, -2, 0)
	st, err := missions.GetOrCreateState(context.Background(), uid(1), mission.CodeProjectProgress)
	require.NoError(t, err)
	st.Progress = 1
	st.Completed = true
	st.CompletedAt = &completedAt
	st.LastReset = shared.DateOf(completedAt)
	require.NoError(t, missions.SaveState(context.Background(), st))

	result, err := handler.Handle(context.Background(), GetMissionBoardQuery{UserID: uid(1)})
	require.NoError(t, err)

	special := result.Special[0]
	assert.True(t, special.Completed)
	assert.Equal(t, 100, special.Percent)
	assert.Equal(t, 1, result.CompletedToday)
}

func TestGetMissionBoard_InactiveMissionHidden(t *testing.T) {
	handler, missions := newBoardFixture(t)

	m, err := missions.GetMission(context.Background(), mission.CodeDailyLesson)
	require.NoError(t, err)
	m.Active = false

	result, err := handler.Handle(context.Background(), GetMissionBoardQuery{UserID: uid(1)})
	require.NoError(t, err)
	assert.Empty(t, result.Daily)
}

func TestGetMissionBoard_Validation(t *testing.T) {
	handler, _ := newBoardFixture(t)

	_, err := handler.Handle(context.Background(), GetMissionBoardQuery{})
	assert.Error(t, err)
}
