package mission

import (
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MISSION EVALUATOR
// Чистая оценка прогресса миссии: сброс периода, инкремент, выполнение.
// Начисление награды и запись состояния - обязанность вызывающего слоя.
// ══════════════════════════════════════════════════════════════════════════════

// Outcome - результат регистрации прогресса.
type Outcome struct {
	// WasReset - был ли прогресс сброшен из-за смены периода.
	WasReset bool

	// JustCompleted - миссия выполнена именно этим вызовом.
	// Награда начисляется ровно один раз - только при JustCompleted.
	JustCompleted bool

	// Progress - прогресс после применения инкремента.
	Progress int

	// RewardPoints - XP к начислению; ненулевой только при JustCompleted.
	RewardPoints int

	// RewardBadge - slug бейджа к выдаче; пустой, если бейдж не положен
	// или миссия не была выполнена этим вызовом.
	RewardBadge shared.Slug
}

// Evaluator применяет прогресс миссий к состояниям.
type Evaluator struct {
	clock shared.Clock
}

// NewEvaluator создаёт оценщик миссий с инжектируемыми часами.
func NewEvaluator(clock shared.Clock) *Evaluator {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Evaluator{clock: clock}
}

// RegisterProgress регистрирует increment единиц прогресса на состоянии.
//
// Политика сброса:
//   - daily: если LastReset не совпадает с today, прогресс обнуляется
//     до применения инкремента;
//   - weekly: если LastReset установлен и его ISO-(год, неделя) отличается
//     от today, прогресс обнуляется; в пределах одной недели сброса нет;
//   - once: сброса не бывает.
//
// После сброса прогресс увеличивается на increment и LastReset = today.
// Если миссия ещё не выполнена и прогресс достиг порога, она помечается
// выполненной с текущей меткой времени. Неположительный TargetValue
// трактуется как тривиально достижимый - миссия выполняется первой же
// регистрацией (решение по открытому вопросу конфигурации).
//
// Состояние должно быть записано вызывающим безусловно, даже без изменений.
func (e *Evaluator) RegisterProgress(m *Mission, st *State, today shared.Date, increment int) Outcome {
	outcome := Outcome{}

	switch m.Frequency {
	case FrequencyDaily:
		if !st.LastReset.IsZero() && !st.LastReset.Equal(today) {
			st.Progress = 0
			st.Completed = false
			st.CompletedAt = nil
			outcome.WasReset = true
		}
	case FrequencyWeekly:
		if !st.LastReset.IsZero() && !st.LastReset.SameISOWeek(today) {
			st.Progress = 0
			st.Completed = false
			st.CompletedAt = nil
			outcome.WasReset = true
		}
	case FrequencyOnce:
		// Разовые миссии не сбрасываются.
	}

	st.Progress += increment
	st.LastReset = today

	now := e.clock.Now()
	st.UpdatedAt = now

	if !st.Completed && st.Progress >= m.TargetValue {
		st.Completed = true
		completedAt := now
		st.CompletedAt = &completedAt

		outcome.JustCompleted = true
		outcome.RewardPoints = m.RewardPoints
		if m.HasRewardBadge() {
			outcome.RewardBadge = m.RewardBadge
		}
	}

	outcome.Progress = st.Progress
	return outcome
}

// EffectiveProgress возвращает прогресс и флаг выполнения с учётом смены
// периода, не изменяя состояние. Используется read-стороной: если период
// миссии истёк, на доске показывается обнулённый прогресс ещё до того,
// как следующая регистрация фактически сбросит состояние.
func EffectiveProgress(m *Mission, st *State, today shared.Date) (progress int, completed bool) {
	if st.LastReset.IsZero() {
		return st.Progress, st.Completed
	}

	switch m.Frequency {
	case FrequencyDaily:
		if !st.LastReset.Equal(today) {
			return 0, false
		}
	case FrequencyWeekly:
		if !st.LastReset.SameISOWeek(today) {
			return 0, false
		}
	}

	return st.Progress, st.Completed
}

// PercentComplete возвращает процент выполнения миссии для отображения.
func PercentComplete(m *Mission, st *State) shared.Percent {
	if m.TargetValue <= 0 {
		return 100
	}
	return shared.ClampPercent(st.Progress * 100 / m.TargetValue)
}
