package lesson

import (
	"context"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения учебного плана.
type Repository interface {
	// CreateSubject создаёт предмет.
	CreateSubject(ctx context.Context, s *Subject) error

	// GetSubject возвращает предмет по id.
	// Возвращает ErrSubjectNotFound, если предмет отсутствует.
	GetSubject(ctx context.Context, id int64) (*Subject, error)

	// GetSubjectBySlug возвращает предмет по slug.
	GetSubjectBySlug(ctx context.Context, slug shared.Slug) (*Subject, error)

	// ListSubjects возвращает все предметы в порядке создания.
	ListSubjects(ctx context.Context) ([]*Subject, error)

	// CreateLesson создаёт лекцию.
	CreateLesson(ctx context.Context, l *Lesson) error

	// GetLesson возвращает лекцию по id.
	// Возвращает ErrLessonNotFound, если лекция отсутствует.
	GetLesson(ctx context.Context, id shared.LessonID) (*Lesson, error)

	// ListBySubject возвращает лекции предмета в каноническом
	// порядке (дата, id).
	ListBySubject(ctx context.Context, subjectID int64) ([]*Lesson, error)

	// ListAll возвращает все лекции в каноническом порядке
	// внутри каждого предмета.
	ListAll(ctx context.Context) ([]*Lesson, error)
}

// CompletionRepository определяет операции хранения завершений.
type CompletionRepository interface {
	// Upsert записывает завершение лекции. Первая запись создаёт строку;
	// повторная может только улучшить лучшее время, момент первого
	// завершения не перезаписывается. Возвращает created=true при
	// фактическом создании строки.
	Upsert(ctx context.Context, userID shared.UserID, lessonID shared.LessonID, completedAt time.Time, duration time.Duration) (created bool, err error)

	// Get возвращает запись завершения.
	// Возвращает ErrLessonNotFound, если записи нет.
	Get(ctx context.Context, userID shared.UserID, lessonID shared.LessonID) (*Completion, error)

	// ListCompletedIDs возвращает множество завершённых лекций пользователя.
	ListCompletedIDs(ctx context.Context, userID shared.UserID) (map[shared.LessonID]bool, error)

	// CountByUser возвращает количество завершённых лекций пользователя.
	CountByUser(ctx context.Context, userID shared.UserID) (int, error)

	// CountCompletedToday возвращает количество лекций, завершённых
	// пользователем в указанный календарный день.
	CountCompletedToday(ctx context.Context, userID shared.UserID, day shared.Date) (int, error)
}
