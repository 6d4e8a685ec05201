package lesson

import (
	"sort"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON SEQUENCER
// Вычисляет доступность лекций по границе обязательных лекций, отдельно
// для каждого предмета. Лекции предмета идут в каноническом порядке
// (дата, id); первая незавершённая обязательная лекция - "граница":
// она сама и все лекции до неё доступны, всё после неё заблокировано
// этой границей. Завершённая лекция доступна всегда, где бы она ни
// стояла относительно границы. Необязательные лекции границу не двигают.
// ══════════════════════════════════════════════════════════════════════════════

// Access - результат вычисления доступности для набора лекций.
type Access struct {
	// Accessible - множество доступных лекций.
	Accessible map[shared.LessonID]bool

	// Locked - для каждой заблокированной лекции указывает id
	// обязательной лекции, которую нужно завершить первой.
	Locked map[shared.LessonID]shared.LessonID
}

// IsAccessible проверяет доступность лекции.
func (a Access) IsAccessible(id shared.LessonID) bool {
	return a.Accessible[id]
}

// BlockedBy возвращает лекцию-блокер и признак блокировки.
func (a Access) BlockedBy(id shared.LessonID) (shared.LessonID, bool) {
	blocker, ok := a.Locked[id]
	return blocker, ok
}

// Sequencer вычисляет доступность лекций. Чистая логика без хранилища:
// все данные передаются аргументами.
type Sequencer struct{}

// NewSequencer создаёт секвенсор учебного плана.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// ComputeAccessibility вычисляет доступность за один проход по каждому
// предмету. Лекции могут прийти в любом порядке и с любых предметов -
// секвенсор сам группирует и сортирует.
//
// Правило границы: внутри предмета держится указатель на первую
// обязательную лекцию, не входящую в completed. Завершённые лекции
// всегда доступны и указатель не двигают. Пока указатель пуст,
// лекции доступны; обязательная незавершённая лекция становится
// указателем (и остаётся доступной - её можно пройти), а каждая
// последующая незавершённая лекция предмета помечается
// заблокированной с ссылкой на указатель.
func (s *Sequencer) ComputeAccessibility(lessons []*Lesson, completed map[shared.LessonID]bool) Access {
	access := Access{
		Accessible: make(map[shared.LessonID]bool, len(lessons)),
		Locked:     make(map[shared.LessonID]shared.LessonID),
	}

	for _, subjectLessons := range groupBySubject(lessons) {
		sortCanonical(subjectLessons)

		var frontier shared.LessonID
		for _, l := range subjectLessons {
			// Завершённое остаётся доступным в силу завершения,
			// даже если стоит после границы.
			if completed[l.ID] {
				access.Accessible[l.ID] = true
				continue
			}

			if frontier != 0 {
				access.Locked[l.ID] = frontier
				continue
			}

			access.Accessible[l.ID] = true
			if l.Required {
				frontier = l.ID
			}
		}
	}

	return access
}

// NextUp возвращает для каждого предмета ближайшую доступную
// незавершённую лекцию - то, что студенту стоит открыть следующим.
func (s *Sequencer) NextUp(lessons []*Lesson, completed map[shared.LessonID]bool) []*Lesson {
	access := s.ComputeAccessibility(lessons, completed)

	var next []*Lesson
	for _, subjectLessons := range groupBySubject(lessons) {
		sortCanonical(subjectLessons)
		for _, l := range subjectLessons {
			if access.IsAccessible(l.ID) && !completed[l.ID] {
				next = append(next, l)
				break
			}
		}
	}

	sort.Slice(next, func(i, j int) bool {
		if next[i].SubjectID != next[j].SubjectID {
			return next[i].SubjectID < next[j].SubjectID
		}
		return next[i].Before(next[j])
	})
	return next
}

func groupBySubject(lessons []*Lesson) map[int64][]*Lesson {
	grouped := make(map[int64][]*Lesson)
	for _, l := range lessons {
		grouped[l.SubjectID] = append(grouped[l.SubjectID], l)
	}
	return grouped
}

func sortCanonical(lessons []*Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].Before(lessons[j])
	})
}
