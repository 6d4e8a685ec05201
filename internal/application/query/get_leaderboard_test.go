package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

var queryClock = shared.FixedClock{Time: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}

func uid(n int) shared.UserID {
	return shared.UserID(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func seedProfile(t *testing.T, repo *fakeProfileRepo, id shared.UserID, name string, xp int, level shared.Level, streak int) {
	t.Helper()
	p, err := profile.NewProfile(profile.NewProfileParams{
		UserID:      id,
		DisplayName: name,
		Email:       string(id) + "@unitex.md",
	}, queryClock.Now())
	require.NoError(t, err)
	p.XP = shared.XP(xp)
	p.Level = level
	p.Streak = streak
	require.NoError(t, repo.Create(context.Background(), p))
}

func TestGetLeaderboard_FallbackToProfiles(t *testing.T) {
	profiles := newFakeProfileRepo()
	seedProfile(t, profiles, uid(1), "Ana", 300, 2, 3)
	seedProfile(t, profiles, uid(2), "Mihai", 500, 3, 1)
	seedProfile(t, profiles, uid(3), "Ioana", 100, 1, 0)

	handler := NewGetLeaderboardHandler(profiles, nil, queryClock)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{UserID: uid(3)})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "Mihai", result.Entries[0].DisplayName)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, 500, result.Entries[0].XP)
	assert.Equal(t, "Ana", result.Entries[1].DisplayName)
	assert.Equal(t, "Ioana", result.Entries[2].DisplayName)

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 3, result.RequesterRank)
	assert.False(t, result.HasMore)
}

func TestGetLeaderboard_CacheHitEnrichedFromProfiles(t *testing.T) {
	profiles := newFakeProfileRepo()
	seedProfile(t, profiles, uid(1), "Ana", 300, 2, 3)
	seedProfile(t, profiles, uid(2), "Mihai", 500, 3, 1)

	cache := &fakeLeaderboardCache{}
	require.NoError(t, cache.Rebuild(context.Background(), []leaderboard.Member{
		{UserID: uid(2), XP: 500},
		{UserID: uid(1), XP: 300},
		// Stale cache entry without a backing profile is skipped.
		{UserID: uid(9), XP: 50},
	}))

	handler := NewGetLeaderboardHandler(profiles, cache, queryClock)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{UserID: uid(1)})
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "Mihai", result.Entries[0].DisplayName)
	assert.Equal(t, "Ana", result.Entries[1].DisplayName)
	assert.Equal(t, 2, result.RequesterRank)
}

func TestGetLeaderboard_Pagination(t *testing.T) {
	profiles := newFakeProfileRepo()
	for i := 1; i <= 5; i++ {
		seedProfile(t, profiles, uid(i), fmt.Sprintf("Elev %d", i), i*100, 1, 0)
	}

	handler := NewGetLeaderboardHandler(profiles, nil, queryClock)

	first, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, 500, first.Entries[0].XP)
	assert.True(t, first.HasMore)
	assert.Equal(t, 1, first.Page)

	second, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second.Entries, 2)
	assert.Equal(t, 3, second.Entries[0].Rank)
	assert.Equal(t, 300, second.Entries[0].XP)
	assert.Equal(t, 2, second.Page)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	handler := NewGetLeaderboardHandler(newFakeProfileRepo(), nil, queryClock)

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), GetLeaderboardQuery{Offset: -1})
	assert.Error(t, err)
}

func TestGetLeaderboard_EmptyBoard(t *testing.T) {
	handler := NewGetLeaderboardHandler(newFakeProfileRepo(), nil, queryClock)

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, result.TotalCount)
}
