package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	// Исторически серия растёт на каждой активности; дневной лимит выключен.
	assert.False(t, ff.IsEnabled(FeatureProgressionStreakDailyGate, nil))
	assert.True(t, ff.IsEnabled(FeatureProgressionBadges, nil))
	assert.True(t, ff.IsEnabled(FeatureProgressionMissions, nil))
	assert.True(t, ff.IsEnabled(FeatureLearningFrontierLock, nil))
	assert.True(t, ff.IsEnabled(FeatureNotifyWeeklyDigest, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalWebhooks, nil))

	// Неизвестный флаг всегда выключен.
	assert.False(t, ff.IsEnabled("no.such.feature", nil))
}

func TestLoadFeatureFlags_EnvBoolOverride(t *testing.T) {
	t.Setenv("FEATURE_PROGRESSION_STREAK_DAILY_GATE", "true")
	t.Setenv("FEATURE_PROGRESSION_BADGES", "false")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureProgressionStreakDailyGate, nil))
	assert.False(t, ff.IsEnabled(FeatureProgressionBadges, nil))
}

func TestLoadFeatureFlags_EnvPercentOverride(t *testing.T) {
	t.Setenv("FEATURE_EXPERIMENTAL_WEBHOOKS", "50")

	ff := LoadFeatureFlags()
	features := ff.GetAllFeatures()

	require.Contains(t, features, FeatureExperimentalWebhooks)
	assert.True(t, features[FeatureExperimentalWebhooks].Enabled)
	assert.Equal(t, 50, features[FeatureExperimentalWebhooks].RolloutPercent)
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_PROGRESSION_STREAK_DAILY_GATE",
		featureNameToEnvKey(FeatureProgressionStreakDailyGate))
	assert.Equal(t, "FEATURE_NOTIFY_LEVEL_UP", featureNameToEnvKey(FeatureNotifyLevelUp))
}

func TestIsEnabled_RolloutIsDeterministicPerUser(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyWeeklyDigest, 50))

	ctx := &FeatureContext{UserID: "0f8fad5b-d9cb-469f-a165-70867728950e"}
	first := ff.IsEnabled(FeatureNotifyWeeklyDigest, ctx)

	// Пользователь не мигрирует между корзинами от вызова к вызову.
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureNotifyWeeklyDigest, ctx))
	}
}

func TestIsEnabled_RolloutBoundaries(t *testing.T) {
	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "0f8fad5b-d9cb-469f-a165-70867728950e"}

	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyWeeklyDigest, 100))
	assert.True(t, ff.IsEnabled(FeatureNotifyWeeklyDigest, ctx))

	require.NoError(t, ff.SetRolloutPercent(FeatureNotifyWeeklyDigest, 0))
	assert.False(t, ff.IsEnabled(FeatureNotifyWeeklyDigest, ctx))
}

func TestSetRolloutPercent_Validation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureNotifyLevelUp, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureNotifyLevelUp, -1), ErrInvalidRolloutPercent)
}

func TestUserOverrides(t *testing.T) {
	ff := LoadFeatureFlags()
	userID := "0f8fad5b-d9cb-469f-a165-70867728950e"
	ctx := &FeatureContext{UserID: userID}

	// Выключенную фичу можно включить точечно.
	ff.SetUserOverride(userID, FeatureExperimentalWebhooks, true)
	assert.True(t, ff.IsEnabled(FeatureExperimentalWebhooks, ctx))

	// Для других пользователей фича остаётся выключенной.
	other := &FeatureContext{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7"}
	assert.False(t, ff.IsEnabled(FeatureExperimentalWebhooks, other))

	ff.ClearUserOverrides(userID)
	assert.False(t, ff.IsEnabled(FeatureExperimentalWebhooks, ctx))
}

func TestIsEnabled_AdminGetsEverything(t *testing.T) {
	ff := LoadFeatureFlags()
	admin := &FeatureContext{UserID: "0f8fad5b-d9cb-469f-a165-70867728950e", IsAdmin: true}

	assert.True(t, ff.IsEnabled(FeatureExperimentalWebhooks, admin))
}

func TestEnableDisableFeature(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.DisableFeature(FeatureProgressionMissions))
	assert.False(t, ff.IsEnabled(FeatureProgressionMissions, nil))

	require.NoError(t, ff.EnableFeature(FeatureProgressionMissions))
	assert.True(t, ff.IsEnabled(FeatureProgressionMissions, nil))
}
