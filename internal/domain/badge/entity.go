// Package badge содержит доменную модель бейджей платформы Unitex.
// Бейдж - постоянное достижение, выдаваемое не более одного раза на
// пару (пользователь, бейдж); идемпотентность обеспечивается структурно,
// уникальным ключом в хранилище, а не обработкой ошибок.
package badge

import (
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// RuleKind определяет вид правила выдачи бейджа.
type RuleKind string

const (
	// RuleLessonsCompleted - по количеству завершённых лекций.
	RuleLessonsCompleted RuleKind = "lessons_completed"
	// RuleQuizStreak - по серии верных ответов на квизы.
	RuleQuizStreak RuleKind = "quiz_streak"
	// RuleMissionReward - бейдж-награда за миссию, порог не применяется.
	RuleMissionReward RuleKind = "mission_reward"
	// RuleActivityStreak - по длине серии активных дней.
	RuleActivityStreak RuleKind = "activity_streak"
)

// IsValid проверяет, что вид правила корректен.
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleLessonsCompleted, RuleQuizStreak, RuleMissionReward, RuleActivityStreak:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidSlug - невалидный slug бейджа.
	ErrInvalidSlug = errors.New("invalid badge slug")

	// ErrBadgeNotFound - бейдж не найден.
	ErrBadgeNotFound = fmt.Errorf("badge not found: %w", shared.ErrNotFound)
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE TEMPLATE
// ══════════════════════════════════════════════════════════════════════════════

// Badge - шаблон достижения. Создаётся при посеве и почти не меняется.
type Badge struct {
	// Slug - уникальный идентификатор бейджа.
	Slug shared.Slug

	// Name - отображаемое имя.
	Name string

	// Rule - вид правила выдачи.
	Rule RuleKind

	// Threshold - порог срабатывания правила.
	Threshold int

	// XPReward - XP, начисляемый при первой выдаче.
	XPReward int

	// Icon - имя иконки для интерфейса.
	Icon string

	// Color - акцентный цвет для интерфейса.
	Color string
}

// NewBadge создаёт шаблон бейджа с валидацией.
func NewBadge(slug shared.Slug, name string, rule RuleKind, threshold, xpReward int) (*Badge, error) {
	if !slug.IsValid() {
		return nil, ErrInvalidSlug
	}
	if !rule.IsValid() {
		return nil, errors.New("invalid badge rule kind")
	}

	return &Badge{
		Slug:      slug,
		Name:      name,
		Rule:      rule,
		Threshold: threshold,
		XPReward:  xpReward,
	}, nil
}

// String возвращает строковое представление бейджа для логирования.
func (b *Badge) String() string {
	return fmt.Sprintf("Badge{Slug: %s, Rule: %s, Threshold: %d}", b.Slug, b.Rule, b.Threshold)
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE AWARD
// ══════════════════════════════════════════════════════════════════════════════

// Award - неизменяемая запись о выдаче бейджа пользователю.
// Создаётся не более одного раза на пару (пользователь, бейдж).
type Award struct {
	// UserID - кому выдан бейдж.
	UserID shared.UserID

	// BadgeSlug - какой бейдж выдан.
	BadgeSlug shared.Slug

	// AwardedAt - когда выдан.
	AwardedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// LEGACY REWARD
// Параллельный путь наград по счётчику, сохранён для обратной совместимости
// со старыми данными платформы. XP не начисляет - только запись.
// ══════════════════════════════════════════════════════════════════════════════

// LegacyRewardThreshold - порог старой награды "10 лекций завершено".
const LegacyRewardThreshold = 10

// LegacyRewardName - имя старой награды, ключ идемпотентности.
const LegacyRewardName = "10 Lessons Complete"

// Reward - запись старой награды по счётчику.
type Reward struct {
	// UserID - кому выдана награда.
	UserID shared.UserID

	// Name - имя награды, уникальное на пользователя.
	Name string

	// Description - описание награды.
	Description string

	// AwardedAt - когда выдана.
	AwardedAt time.Time
}
