// Package lesson содержит доменную модель учебного плана платформы Unitex:
// предметы, лекции в хронологическом порядке и записи о завершении.
// Доступность лекций вычисляется секвенсором по границе обязательных лекций.
package lesson

import (
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLessonNotFound - лекция не найдена.
	ErrLessonNotFound = fmt.Errorf("lesson not found: %w", shared.ErrNotFound)

	// ErrSubjectNotFound - предмет не найден.
	ErrSubjectNotFound = fmt.Errorf("subject not found: %w", shared.ErrNotFound)

	// ErrLessonLocked - лекция ещё недоступна студенту.
	ErrLessonLocked = fmt.Errorf("lesson is locked: %w", shared.ErrInvalidState)

	// ErrInvalidTitle - пустое название.
	ErrInvalidTitle = errors.New("invalid title")
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// Subject - предмет, группирующий лекции. Граница доступности
// вычисляется отдельно для каждого предмета.
type Subject struct {
	// ID - идентификатор предмета.
	ID int64

	// Name - название предмета.
	Name string

	// Slug - URL-идентификатор.
	Slug shared.Slug

	// Description - описание для каталога.
	Description string

	// CreatedAt - когда предмет создан.
	CreatedAt time.Time
}

// NewSubject создаёт предмет с валидацией.
func NewSubject(name string, slug shared.Slug, now time.Time) (*Subject, error) {
	if name == "" {
		return nil, ErrInvalidTitle
	}
	if !slug.IsValid() {
		return nil, shared.ErrValidation
	}

	return &Subject{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON
// Лекции предмета упорядочены по (дата, id) - это канонический порядок
// прохождения. Обязательная лекция, не пройденная студентом, блокирует
// все последующие лекции предмета.
// ══════════════════════════════════════════════════════════════════════════════

// Lesson - одна лекция учебного плана.
type Lesson struct {
	// ID - идентификатор лекции.
	ID shared.LessonID

	// SubjectID - предмет, к которому относится лекция.
	SubjectID int64

	// Title - название лекции.
	Title string

	// Content - тело лекции (markdown).
	Content string

	// ScheduledOn - дата лекции, первый ключ сортировки.
	ScheduledOn shared.Date

	// Required - обязательна ли лекция для продвижения границы.
	Required bool

	// XPReward - XP за первое завершение лекции.
	XPReward int

	// DurationMinutes - ориентировочная длительность.
	DurationMinutes int

	// CreatedAt - когда лекция создана.
	CreatedAt time.Time
}

// NewLesson создаёт лекцию с валидацией.
func NewLesson(subjectID int64, title string, scheduledOn shared.Date, required bool, xpReward int) (*Lesson, error) {
	if title == "" {
		return nil, ErrInvalidTitle
	}
	if subjectID <= 0 {
		return nil, fmt.Errorf("%w: subject id must be positive", shared.ErrValidation)
	}
	if xpReward < 0 {
		xpReward = 0
	}

	return &Lesson{
		SubjectID:   subjectID,
		Title:       title,
		ScheduledOn: scheduledOn,
		Required:    required,
		XPReward:    xpReward,
	}, nil
}

// Before сравнивает лекции по каноническому порядку (дата, затем id).
func (l *Lesson) Before(other *Lesson) bool {
	if !l.ScheduledOn.Equal(other.ScheduledOn) {
		return l.ScheduledOn.Before(other.ScheduledOn)
	}
	return l.ID < other.ID
}

// String возвращает строковое представление для логирования.
func (l *Lesson) String() string {
	return fmt.Sprintf("Lesson{ID: %d, Subject: %d, Title: %q, Required: %t}",
		l.ID, l.SubjectID, l.Title, l.Required)
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON COMPLETION
// Запись о прохождении лекции студентом. Пара (пользователь, лекция)
// уникальна; повторное прохождение лишь улучшает лучшее время.
// ══════════════════════════════════════════════════════════════════════════════

// Completion - запись о завершении лекции.
type Completion struct {
	// UserID - кто завершил.
	UserID shared.UserID

	// LessonID - какую лекцию.
	LessonID shared.LessonID

	// CompletedAt - момент первого завершения.
	CompletedAt time.Time

	// BestDuration - лучшее (минимальное) время прохождения.
	// Нулевое значение - длительность не замерялась.
	BestDuration time.Duration
}

// NewCompletion создаёт запись о первом завершении.
func NewCompletion(userID shared.UserID, lessonID shared.LessonID, completedAt time.Time, duration time.Duration) (*Completion, error) {
	if !userID.IsValid() {
		return nil, shared.ErrValidation
	}
	if duration < 0 {
		duration = 0
	}

	return &Completion{
		UserID:       userID,
		LessonID:     lessonID,
		CompletedAt:  completedAt,
		BestDuration: duration,
	}, nil
}

// Improve обновляет лучшее время, если новое прохождение быстрее.
// Возвращает true, если запись изменилась. Время первого завершения
// и сам факт завершения монотонны и никогда не откатываются.
func (c *Completion) Improve(duration time.Duration) bool {
	if duration <= 0 {
		return false
	}
	if c.BestDuration == 0 || duration < c.BestDuration {
		c.BestDuration = duration
		return true
	}
	return false
}
