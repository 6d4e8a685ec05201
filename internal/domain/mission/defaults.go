package mission

import (
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT MISSIONS
// Стандартный набор миссий платформы. Сеется явным идемпотентным шагом
// при старте сервиса, а не проверками существования на каждом запросе.
// ══════════════════════════════════════════════════════════════════════════════

// Хорошо известные коды миссий, на которые ссылаются команды приложения.
const (
	// CodeDailyLesson - "заверши хотя бы одну лекцию сегодня".
	CodeDailyLesson shared.Slug = "daily-complete-lesson"

	// CodeWeeklyQuiz - "ответь верно на три квиза за неделю".
	CodeWeeklyQuiz shared.Slug = "weekly-quiz-master"

	// CodeProjectProgress - разовая миссия за загрузку проекта.
	CodeProjectProgress shared.Slug = "project-progress"
)

// Defaults возвращает стандартные шаблоны миссий платформы.
func Defaults() []*Mission {
	return []*Mission{
		{
			Code:         CodeDailyLesson,
			Title:        "Complete o lecție",
			Description:  "Finalizează cel puțin o lecție astăzi",
			Frequency:    FrequencyDaily,
			TargetValue:  1,
			RewardPoints: 40,
			Icon:         "fa-check-double",
			Color:        "#22c55e",
			Active:       true,
		},
		{
			Code:         CodeWeeklyQuiz,
			Title:        "Campion la quiz-uri",
			Description:  "Răspunde corect la trei quiz-uri în această săptămână",
			Frequency:    FrequencyWeekly,
			TargetValue:  3,
			RewardPoints: 80,
			Icon:         "fa-trophy",
			Color:        "#f59e0b",
			Active:       true,
		},
		{
			Code:         CodeProjectProgress,
			Title:        "Pas spre proiect",
			Description:  "Încarcă un proiect sau un mini-proiect",
			Frequency:    FrequencyOnce,
			TargetValue:  1,
			RewardPoints: 120,
			Icon:         "fa-rocket",
			Color:        "#6366f1",
			Active:       true,
		},
	}
}
