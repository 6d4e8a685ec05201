package profile

import (
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION LEDGER
// Единственный модуль, которому разрешено менять XP и Level профиля.
// Чистое вычисление в памяти; долговременная запись делегируется репозиторию.
// ══════════════════════════════════════════════════════════════════════════════

// ExperienceEvent - неизменяемая запись об одном начислении XP.
// Создаётся ровно один раз на начисление; никогда не изменяется и не удаляется.
type ExperienceEvent struct {
	// UserID - кому начислено.
	UserID shared.UserID

	// Amount - величина начисления, всегда положительная на момент создания.
	Amount int

	// Reason - причина начисления в свободной форме
	// (например, "lesson_completed", "mission_reward", "badge_reward").
	Reason string

	// Timestamp - время начисления.
	Timestamp time.Time
}

// LevelUpResult - результат применения начисления XP.
type LevelUpResult struct {
	// LeveledUp - произошло ли хотя бы одно повышение уровня.
	LeveledUp bool

	// OldLevel - уровень до начисления.
	OldLevel shared.Level

	// NewLevel - уровень после начисления.
	NewLevel shared.Level

	// NewXP - суммарный XP после начисления.
	NewXP shared.XP

	// Event - запись о начислении; nil, если начисление было no-op.
	Event *ExperienceEvent
}

// Applied возвращает true, если начисление действительно применилось.
func (r LevelUpResult) Applied() bool {
	return r.Event != nil
}

// NextLevelThreshold возвращает XP, необходимый для перехода С текущего
// уровня. Формула источника дословно: 100 + level^2 * 25.
func NextLevelThreshold(level shared.Level) shared.XP {
	return level.UpgradeThreshold()
}

// Ledger применяет начисления XP к профилю и вычисляет повышения уровня.
type Ledger struct {
	clock shared.Clock
}

// NewLedger создаёт новый Ledger с инжектируемыми часами.
func NewLedger(clock shared.Clock) *Ledger {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Ledger{clock: clock}
}

// AddExperience начисляет amount XP профилю.
//
// Правила:
//   - amount <= 0 - тихий no-op: ни записи, ни ошибки, профиль не меняется;
//   - XP увеличивается на amount; уровень повышается в цикле, пока
//     XP >= NextLevelThreshold(текущий уровень);
//   - время последней активности обновляется на "сейчас".
//
// Вызывающий отвечает за долговременную запись профиля и ExperienceEvent;
// ошибка записи означает, что начисление не зафиксировано.
func (l *Ledger) AddExperience(p *Profile, amount int, reason string) LevelUpResult {
	result := LevelUpResult{
		OldLevel: p.Level,
		NewLevel: p.Level,
		NewXP:    p.XP,
	}

	if amount <= 0 {
		return result
	}

	now := l.clock.Now()

	p.XP = p.XP.Add(amount)
	for p.XP >= NextLevelThreshold(p.Level) {
		p.Level++
	}
	p.LastActivityAt = now
	p.UpdatedAt = now

	result.LeveledUp = p.Level > result.OldLevel
	result.NewLevel = p.Level
	result.NewXP = p.XP
	result.Event = &ExperienceEvent{
		UserID:    p.UserID,
		Amount:    amount,
		Reason:    reason,
		Timestamp: now,
	}

	return result
}

// ProgressToNextLevel возвращает процент [0,100] позиции XP между порогом
// предыдущего уровня и порогом текущего. При совпадении порогов возвращает 0
// (защита от деления на ноль).
func ProgressToNextLevel(p *Profile) shared.Percent {
	floor := NextLevelThreshold(p.Level - 1)
	ceil := NextLevelThreshold(p.Level)

	if ceil == floor {
		return 0
	}

	return shared.ClampPercent((p.XP.Int() - floor.Int()) * 100 / (ceil.Int() - floor.Int()))
}
