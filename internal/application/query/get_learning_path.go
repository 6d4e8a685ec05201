package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNING PATH QUERY
// Собирает учебный план ученика: лекции по предметам с флагами доступности,
// блокирующими лекциями и сводкой общего прогресса. Доступность вычисляется
// на каждый запрос - кешированного состояния у секвенсора нет.
// ══════════════════════════════════════════════════════════════════════════════

// GetLearningPathQuery содержит параметры запроса учебного плана.
type GetLearningPathQuery struct {
	// UserID - ученик, для которого собирается план.
	UserID shared.UserID

	// SubjectID - опциональный фильтр по предмету (0 = все предметы).
	SubjectID int64
}

// Validate проверяет корректность параметров запроса.
func (q *GetLearningPathQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("valid user_id is required")
	}
	if q.SubjectID < 0 {
		return errors.New("subject_id cannot be negative")
	}
	return nil
}

// LessonPathDTO - DTO для лекции в учебном плане.
type LessonPathDTO struct {
	// ID - идентификатор лекции.
	ID int64 `json:"id"`

	// Title - заголовок лекции.
	Title string `json:"title"`

	// ScheduledOn - плановая дата в формате YYYY-MM-DD.
	ScheduledOn string `json:"scheduled_on"`

	// Required - обязательна ли лекция.
	Required bool `json:"required"`

	// XPReward - XP за первое завершение.
	XPReward int `json:"xp_reward"`

	// Completed - завершена ли лекция учеником.
	Completed bool `json:"completed"`

	// Accessible - доступна ли лекция для прохождения.
	Accessible bool `json:"accessible"`

	// LockedBy - id первой незавершённой обязательной лекции,
	// блокирующей эту; 0, если лекция доступна.
	LockedBy int64 `json:"locked_by,omitempty"`
}

// SubjectPathDTO - DTO для предмета с его лекциями.
type SubjectPathDTO struct {
	// SubjectID - идентификатор предмета.
	SubjectID int64 `json:"subject_id"`

	// Name - название предмета.
	Name string `json:"name"`

	// Slug - slug предмета.
	Slug string `json:"slug"`

	// Lessons - лекции предмета в каноническом порядке.
	Lessons []LessonPathDTO `json:"lessons"`

	// Completed - завершено лекций в предмете.
	Completed int `json:"completed"`

	// Total - всего лекций в предмете.
	Total int `json:"total"`

	// Percent - процент завершения предмета.
	Percent int `json:"percent"`

	// NextUp - id первой доступной незавершённой лекции; 0, если
	// предмет пройден полностью.
	NextUp int64 `json:"next_up,omitempty"`
}

// ProgressSummaryDTO - сводка общего прогресса по учебному плану.
type ProgressSummaryDTO struct {
	// Completed - завершено лекций всего.
	Completed int `json:"completed"`

	// Total - всего лекций в плане.
	Total int `json:"total"`

	// Percent - процент завершения плана.
	Percent int `json:"percent"`
}

// GetLearningPathResult содержит результат запроса учебного плана.
type GetLearningPathResult struct {
	// Subjects - предметы с лекциями.
	Subjects []SubjectPathDTO `json:"subjects"`

	// Overall - сводка общего прогресса.
	Overall ProgressSummaryDTO `json:"overall"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLearningPathHandler обрабатывает запросы учебного плана.
type GetLearningPathHandler struct {
	lessons     lesson.Repository
	completions lesson.CompletionRepository
	sequencer   *lesson.Sequencer
	clock       shared.Clock
}

// NewGetLearningPathHandler создаёт новый обработчик учебного плана.
func NewGetLearningPathHandler(
	lessons lesson.Repository,
	completions lesson.CompletionRepository,
	clock shared.Clock,
) *GetLearningPathHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetLearningPathHandler{
		lessons:     lessons,
		completions: completions,
		sequencer:   lesson.NewSequencer(),
		clock:       clock,
	}
}

// Handle выполняет запрос учебного плана.
func (h *GetLearningPathHandler) Handle(ctx context.Context, query GetLearningPathQuery) (*GetLearningPathResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLearningPath", shared.ErrValidation, err.Error(), err)
	}

	completed, err := h.completions.ListCompletedIDs(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_learning_path: list completions: %w", err)
	}

	all, err := h.loadLessons(ctx, query.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("get_learning_path: %w", err)
	}

	subjects, err := h.loadSubjects(ctx, query.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("get_learning_path: %w", err)
	}

	access := h.sequencer.ComputeAccessibility(all, completed)
	nextUp := make(map[int64]shared.LessonID)
	for _, l := range h.sequencer.NextUp(all, completed) {
		nextUp[l.SubjectID] = l.ID
	}

	bySubject := make(map[int64][]*lesson.Lesson)
	for _, l := range all {
		bySubject[l.SubjectID] = append(bySubject[l.SubjectID], l)
	}

	result := &GetLearningPathResult{
		Subjects:    make([]SubjectPathDTO, 0, len(subjects)),
		GeneratedAt: h.clock.Now(),
	}

	var overallDone, overallTotal int
	for _, s := range subjects {
		subjectLessons := bySubject[s.ID]
		if len(subjectLessons) == 0 && query.SubjectID == 0 {
			// Предметы без лекций в общем плане не показываются.
			continue
		}

		dto := SubjectPathDTO{
			SubjectID: s.ID,
			Name:      s.Name,
			Slug:      s.Slug.String(),
			Lessons:   make([]LessonPathDTO, 0, len(subjectLessons)),
			Total:     len(subjectLessons),
			NextUp:    nextUp[s.ID].Int64(),
		}

		for _, l := range subjectLessons {
			blockedBy, _ := access.BlockedBy(l.ID)
			lessonDTO := LessonPathDTO{
				ID:          l.ID.Int64(),
				Title:       l.Title,
				ScheduledOn: l.ScheduledOn.String(),
				Required:    l.Required,
				XPReward:    l.XPReward,
				Completed:   completed[l.ID],
				Accessible:  access.IsAccessible(l.ID),
				LockedBy:    blockedBy.Int64(),
			}
			if lessonDTO.Completed {
				dto.Completed++
			}
			dto.Lessons = append(dto.Lessons, lessonDTO)
		}

		dto.Percent = progressPercent(dto.Completed, dto.Total)
		overallDone += dto.Completed
		overallTotal += dto.Total
		result.Subjects = append(result.Subjects, dto)
	}

	result.Overall = ProgressSummaryDTO{
		Completed: overallDone,
		Total:     overallTotal,
		Percent:   progressPercent(overallDone, overallTotal),
	}

	return result, nil
}

// loadLessons возвращает лекции плана с учётом фильтра по предмету.
func (h *GetLearningPathHandler) loadLessons(ctx context.Context, subjectID int64) ([]*lesson.Lesson, error) {
	if subjectID > 0 {
		lessons, err := h.lessons.ListBySubject(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("list lessons for subject %d: %w", subjectID, err)
		}
		return lessons, nil
	}

	lessons, err := h.lessons.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all lessons: %w", err)
	}
	return lessons, nil
}

// loadSubjects возвращает предметы плана с учётом фильтра.
func (h *GetLearningPathHandler) loadSubjects(ctx context.Context, subjectID int64) ([]*lesson.Subject, error) {
	if subjectID > 0 {
		s, err := h.lessons.GetSubject(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("get subject %d: %w", subjectID, err)
		}
		return []*lesson.Subject{s}, nil
	}

	subjects, err := h.lessons.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// progressPercent считает процент завершения, избегая деления на ноль.
func progressPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return shared.ClampPercent(done * 100 / total).Int()
}
