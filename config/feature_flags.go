package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage rollout, per-user overrides and time-based activation.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // profile user ID
	Role    string // student, teacher, admin, parent
	IsAdmin bool
}

// Predefined feature flag names.
const (
	// === Progression Features ===
	FeatureProgressionStreakDailyGate = "progression.streak_daily_gate" // at most one streak bump per day
	FeatureProgressionBadges          = "progression.badges"            // milestone badge awards
	FeatureProgressionMissions        = "progression.missions"          // mission board and rewards

	// === Learning Path Features ===
	FeatureLearningFrontierLock = "learning.frontier_lock" // lock lessons behind prerequisites
	FeatureLearningBestTime     = "learning.best_time"     // track best completion time

	// === Leaderboard Features ===
	FeatureLeaderboardCache         = "leaderboard.cache"          // serve ranks from Redis
	FeatureLeaderboardRequesterRank = "leaderboard.requester_rank" // include the caller's own rank

	// === Notification Features ===
	FeatureNotifyLevelUp          = "notify.level_up"
	FeatureNotifyBadgeAwarded     = "notify.badge_awarded"
	FeatureNotifyMissionCompleted = "notify.mission_completed"
	FeatureNotifyLessonUnlocked   = "notify.lesson_unlocked"
	FeatureNotifyStreakMilestone  = "notify.streak_milestone"
	FeatureNotifyWeeklyDigest     = "notify.weekly_digest"

	// === Experimental Features ===
	FeatureExperimentalWebhooks = "experimental.webhooks" // mirror notifications to an external gateway
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Progression features
	ff.features[FeatureProgressionStreakDailyGate] = &Feature{
		Name:           FeatureProgressionStreakDailyGate,
		Description:    "Limit streak growth to once per calendar day",
		Enabled:        false, // historical behavior bumps on every activity
		RolloutPercent: 0,
	}

	ff.features[FeatureProgressionBadges] = &Feature{
		Name:           FeatureProgressionBadges,
		Description:    "Award milestone badges for completed lessons",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressionMissions] = &Feature{
		Name:           FeatureProgressionMissions,
		Description:    "Daily and weekly missions with XP rewards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Learning path features
	ff.features[FeatureLearningFrontierLock] = &Feature{
		Name:           FeatureLearningFrontierLock,
		Description:    "Lock lessons until their prerequisites are completed",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLearningBestTime] = &Feature{
		Name:           FeatureLearningBestTime,
		Description:    "Track best completion time on repeats",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Leaderboard features
	ff.features[FeatureLeaderboardCache] = &Feature{
		Name:           FeatureLeaderboardCache,
		Description:    "Serve leaderboard reads from the Redis cache",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardRequesterRank] = &Feature{
		Name:           FeatureLeaderboardRequesterRank,
		Description:    "Include the requesting student's own rank",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - tuned to motivate, not to spam
	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Notify on level up",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyBadgeAwarded] = &Feature{
		Name:           FeatureNotifyBadgeAwarded,
		Description:    "Notify on badge award",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyMissionCompleted] = &Feature{
		Name:           FeatureNotifyMissionCompleted,
		Description:    "Notify on mission completion",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyLessonUnlocked] = &Feature{
		Name:           FeatureNotifyLessonUnlocked,
		Description:    "Notify when a new lesson becomes accessible",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakMilestone] = &Feature{
		Name:           FeatureNotifyStreakMilestone,
		Description:    "Notify on streak milestones (7, 30, 100 days)",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyWeeklyDigest] = &Feature{
		Name:           FeatureNotifyWeeklyDigest,
		Description:    "Weekly progress summary",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalWebhooks] = &Feature{
		Name:           FeatureExperimentalWebhooks,
		Description:    "Mirror notifications to an external webhook gateway",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PROGRESSION_STREAK_DAILY_GATE=true
// Example: FEATURE_NOTIFY_WEEKLY_DIGEST=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		// Try parsing as boolean
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		// Try parsing as percentage
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "progression.streak_daily_gate" -> "FEATURE_PROGRESSION_STREAK_DAILY_GATE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	return ff.isEnabledLocked(featureName, ctx)
}

func (ff *FeatureFlags) isEnabledLocked(featureName string, ctx *FeatureContext) bool {
	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
