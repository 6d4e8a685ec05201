package badge

import (
	"sort"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE RULES
// Фиксированный упорядоченный список правил по счётчику завершённых лекций.
// Порядок строго по возрастанию порога, чтобы младшие ступени не пропускались:
// все подходящие ступени выдаются одним вызовом, каждая - отдельный бейдж.
// ══════════════════════════════════════════════════════════════════════════════

// Milestone - одно правило ступени (slug, порог, имя, иконка, цвет).
type Milestone struct {
	Slug      shared.Slug
	Threshold int
	Name      string
	Icon      string
	Color     string
	XPReward  int
}

// LessonMilestones возвращает ступени по количеству завершённых лекций,
// отсортированные по возрастанию порога.
func LessonMilestones() []Milestone {
	milestones := []Milestone{
		{Slug: "primul-pas", Threshold: 1, Name: "Primul pas", Icon: "fa-seedling", Color: "#34d399", XPReward: 20},
		{Slug: "explorator", Threshold: 5, Name: "Explorator", Icon: "fa-compass", Color: "#60a5fa", XPReward: 50},
		{Slug: "maestrul-lectiilor", Threshold: 10, Name: "Maestrul lecțiilor", Icon: "fa-graduation-cap", Color: "#f59e0b", XPReward: 100},
		{Slug: "campion-unitex", Threshold: 25, Name: "Campion Unitex", Icon: "fa-crown", Color: "#a855f7", XPReward: 250},
	}

	sort.Slice(milestones, func(i, j int) bool {
		return milestones[i].Threshold < milestones[j].Threshold
	})

	return milestones
}

// Template строит шаблон бейджа из ступени для ленивого посева.
func (m Milestone) Template() *Badge {
	return &Badge{
		Slug:      m.Slug,
		Name:      m.Name,
		Rule:      RuleLessonsCompleted,
		Threshold: m.Threshold,
		XPReward:  m.XPReward,
		Icon:      m.Icon,
		Color:     m.Color,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE EVALUATOR
// Чистая проверка ступеней: по монотонному счётчику активности и множеству
// уже выданных бейджей возвращает ступени к выдаче. Запись и начисление XP -
// обязанность вызывающего слоя (идемпотентный get-or-create по паре).
// ══════════════════════════════════════════════════════════════════════════════

// ActivityCounts - монотонные счётчики активности пользователя,
// вычисленные вызывающим слоем и переданные внутрь. Ступенчатые
// правила читают только счётчик завершённых лекций.
type ActivityCounts struct {
	// LessonsCompleted - завершено лекций всего.
	LessonsCompleted int
}

// Evaluator проверяет правила выдачи бейджей.
type Evaluator struct {
	milestones []Milestone
}

// NewEvaluator создаёт оценщик со стандартными ступенями.
func NewEvaluator() *Evaluator {
	return &Evaluator{milestones: LessonMilestones()}
}

// NewEvaluatorWithMilestones создаёт оценщик с заданными ступенями
// (для тестов и нестандартных конфигураций).
func NewEvaluatorWithMilestones(milestones []Milestone) *Evaluator {
	sorted := make([]Milestone, len(milestones))
	copy(sorted, milestones)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold < sorted[j].Threshold
	})
	return &Evaluator{milestones: sorted}
}

// Qualifying возвращает ступени, чей порог достигнут счётчиком и чей бейдж
// ещё не выдан пользователю. Порядок результата - по возрастанию порога.
func (e *Evaluator) Qualifying(counts ActivityCounts, awarded map[shared.Slug]bool) []Milestone {
	var result []Milestone
	for _, m := range e.milestones {
		if counts.LessonsCompleted < m.Threshold {
			// Ступени упорядочены - дальше пороги только выше.
			break
		}
		if awarded[m.Slug] {
			continue
		}
		result = append(result, m)
	}
	return result
}

// LegacyRewardDue возвращает true, если по старому параллельному пути
// положена запись Reward (порог счётчика достигнут).
func (e *Evaluator) LegacyRewardDue(counts ActivityCounts) bool {
	return counts.LessonsCompleted >= LegacyRewardThreshold
}
