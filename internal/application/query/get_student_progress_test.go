package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func TestGetStudentProgress_Card(t *testing.T) {
	profiles := newFakeProfileRepo()
	badges := newFakeBadgeRepo()
	seedProfile(t, profiles, uid(1), "Ana", 150, 2, 4)

	for i := 0; i < 3; i++ {
		require.NoError(t, profiles.SaveExperienceEvent(context.Background(), profile.ExperienceEvent{
			UserID:    uid(1),
			Amount:    50,
			Reason:    "lesson_completed",
			Timestamp: queryClock.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	_, err := badges.EnsureAward(context.Background(), badge.Award{
		UserID:    uid(1),
		BadgeSlug: "primul-pas",
		AwardedAt: queryClock.Now(),
	})
	require.NoError(t, err)

	handler := NewGetStudentProgressHandler(profiles, badges, queryClock)

	result, err := handler.Handle(context.Background(), GetStudentProgressQuery{UserID: uid(1)})
	require.NoError(t, err)

	assert.Equal(t, "Ana", result.DisplayName)
	assert.Equal(t, 150, result.XP)
	assert.Equal(t, 2, result.Level)
	// Threshold to leave level 2: 100 + 2^2 * 25 = 200.
	assert.Equal(t, 200, result.NextLevelAt)
	// Level 2 spans [125, 200); 150 is a third of the way.
	assert.Equal(t, 33, result.LevelPercent)
	assert.Equal(t, 4, result.Streak)

	require.Len(t, result.RecentEvents, 3)
	// Newest first.
	assert.True(t, result.RecentEvents[0].Timestamp.After(result.RecentEvents[2].Timestamp))

	require.Len(t, result.Badges, 1)
	assert.Equal(t, "primul-pas", result.Badges[0].Slug)
}

func TestGetStudentProgress_RecentLimitClamped(t *testing.T) {
	profiles := newFakeProfileRepo()
	seedProfile(t, profiles, uid(1), "Ana", 0, 1, 0)

	for i := 0; i < 15; i++ {
		require.NoError(t, profiles.SaveExperienceEvent(context.Background(), profile.ExperienceEvent{
			UserID:    uid(1),
			Amount:    10,
			Reason:    "quiz_correct",
			Timestamp: queryClock.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	handler := NewGetStudentProgressHandler(profiles, newFakeBadgeRepo(), queryClock)

	result, err := handler.Handle(context.Background(), GetStudentProgressQuery{UserID: uid(1)})
	require.NoError(t, err)
	assert.Len(t, result.RecentEvents, DefaultRecentEvents)
}

func TestGetStudentProgress_MissingProfile(t *testing.T) {
	handler := NewGetStudentProgressHandler(newFakeProfileRepo(), newFakeBadgeRepo(), queryClock)

	_, err := handler.Handle(context.Background(), GetStudentProgressQuery{UserID: uid(1)})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetStudentProgress_Validation(t *testing.T) {
	handler := NewGetStudentProgressHandler(newFakeProfileRepo(), newFakeBadgeRepo(), queryClock)

	_, err := handler.Handle(context.Background(), GetStudentProgressQuery{UserID: "not-a-uuid"})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), GetStudentProgressQuery{UserID: uid(1), RecentLimit: -1})
	assert.Error(t, err)
}
