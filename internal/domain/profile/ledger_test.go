package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

func testClock() shared.FixedClock {
	return shared.FixedClock{Time: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func newTestProfile(t *testing.T) *Profile {
	t.Helper()
	p, err := NewProfile(NewProfileParams{
		UserID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		DisplayName: "Andrei",
		Email:       "andrei@unitex.md",
		Role:        RoleStudent,
	}, testClock().Now())
	require.NoError(t, err)
	return p
}

func TestAddExperience_NonPositiveAmountIsNoOp(t *testing.T) {
	ledger := NewLedger(testClock())

	for _, amount := range []int{0, -1, -100} {
		p := newTestProfile(t)
		before := p.Clone()

		result := ledger.AddExperience(p, amount, "test")

		assert.False(t, result.Applied())
		assert.False(t, result.LeveledUp)
		assert.Nil(t, result.Event)
		assert.Equal(t, before.XP, p.XP)
		assert.Equal(t, before.Level, p.Level)
		assert.Equal(t, before.LastActivityAt, p.LastActivityAt)
	}
}

func TestAddExperience_LevelThresholdExample(t *testing.T) {
	// level=1 -> threshold = 100 + 1*25 = 125
	assert.Equal(t, shared.XP(125), NextLevelThreshold(1))
	assert.Equal(t, shared.XP(200), NextLevelThreshold(2))

	ledger := NewLedger(testClock())
	p := newTestProfile(t)

	result := ledger.AddExperience(p, 130, "test")

	require.True(t, result.Applied())
	assert.True(t, result.LeveledUp)
	assert.Equal(t, shared.XP(130), p.XP)
	assert.Equal(t, shared.Level(2), p.Level) // 130 >= 125, 130 < 200
	assert.Equal(t, shared.Level(1), result.OldLevel)
	assert.Equal(t, shared.Level(2), result.NewLevel)
}

func TestAddExperience_MultipleLevelUpsInOneGrant(t *testing.T) {
	ledger := NewLedger(testClock())
	p := newTestProfile(t)

	// Thresholds: 125 (level 1), 200 (level 2), 325 (level 3), 500 (level 4).
	result := ledger.AddExperience(p, 400, "bonus")

	assert.True(t, result.LeveledUp)
	assert.Equal(t, shared.Level(4), p.Level)
	assert.True(t, p.XP < NextLevelThreshold(p.Level))
}

func TestAddExperience_LoopStabilizes(t *testing.T) {
	ledger := NewLedger(testClock())
	p := newTestProfile(t)

	ledger.AddExperience(p, 5000, "test")
	level := p.Level

	// Инвариант цикла: после вызова порог текущего уровня не достигнут.
	assert.True(t, p.XP < NextLevelThreshold(p.Level))

	// Повторный no-op ничего не меняет.
	result := ledger.AddExperience(p, 0, "")
	assert.False(t, result.Applied())
	assert.Equal(t, level, p.Level)
}

func TestAddExperience_EmitsEvent(t *testing.T) {
	clock := testClock()
	ledger := NewLedger(clock)
	p := newTestProfile(t)

	result := ledger.AddExperience(p, 40, "mission_reward")

	require.NotNil(t, result.Event)
	assert.Equal(t, p.UserID, result.Event.UserID)
	assert.Equal(t, 40, result.Event.Amount)
	assert.Equal(t, "mission_reward", result.Event.Reason)
	assert.Equal(t, clock.Now(), result.Event.Timestamp)
	assert.Equal(t, clock.Now(), p.LastActivityAt)
}

func TestAddExperience_LevelMonotonicallyNonDecreasing(t *testing.T) {
	ledger := NewLedger(testClock())
	p := newTestProfile(t)

	prev := p.Level
	for _, amount := range []int{10, 50, 115, 1, 300, 7, 999} {
		ledger.AddExperience(p, amount, "test")
		assert.GreaterOrEqual(t, p.Level, prev)
		prev = p.Level
	}
}

func TestProgressToNextLevel_Bounds(t *testing.T) {
	ledger := NewLedger(testClock())
	p := newTestProfile(t)

	// Свежий профиль: XP ниже нижнего порога, процент зажат в 0.
	assert.Equal(t, shared.Percent(0), ProgressToNextLevel(p))

	ledger.AddExperience(p, 130, "test")
	pct := ProgressToNextLevel(p)
	assert.GreaterOrEqual(t, pct.Int(), 0)
	assert.LessOrEqual(t, pct.Int(), 100)
}

func TestNewProfile_Validation(t *testing.T) {
	now := testClock().Now()

	_, err := NewProfile(NewProfileParams{UserID: "not-a-uuid", DisplayName: "X"}, now)
	assert.Error(t, err)

	_, err = NewProfile(NewProfileParams{
		UserID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		DisplayName: "",
	}, now)
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	_, err = NewProfile(NewProfileParams{
		UserID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		DisplayName: "Andrei",
		Role:        Role("alien"),
	}, now)
	assert.ErrorIs(t, err, ErrInvalidRole)

	p, err := NewProfile(NewProfileParams{
		UserID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		DisplayName: "Andrei",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, p.Role)
	assert.Equal(t, shared.MinLevel, p.Level)
	assert.Equal(t, shared.XP(0), p.XP)
}

func TestBumpStreak(t *testing.T) {
	p := newTestProfile(t)
	now := testClock().Now().Add(time.Hour)

	p.BumpStreak(now)
	p.BumpStreak(now)

	assert.Equal(t, 2, p.Streak)
	assert.Equal(t, now, p.LastActivityAt)
	assert.True(t, p.ActiveOn(shared.DateOf(now)))
	assert.False(t, p.ActiveOn(shared.DateOf(now).AddDays(1)))
}
