package profile

import (
	"context"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения профилей.
type Repository interface {
	// Create создаёт новый профиль.
	// Возвращает ErrProfileAlreadyExists, если профиль уже существует.
	Create(ctx context.Context, p *Profile) error

	// GetByUserID возвращает профиль пользователя.
	// Возвращает ErrProfileNotFound, если профиль отсутствует - это дефект
	// конфигурации, а не штатный случай.
	GetByUserID(ctx context.Context, userID shared.UserID) (*Profile, error)

	// GetByEmail возвращает профиль по адресу почты.
	GetByEmail(ctx context.Context, email string) (*Profile, error)

	// Update обновляет профиль целиком.
	Update(ctx context.Context, p *Profile) error

	// AddExperience атомарно применяет начисление XP: читает профиль под
	// блокировкой строки, применяет mutate и записывает результат в одной
	// транзакции. Закрывает гонку конкурентных read-modify-write начислений.
	AddExperience(ctx context.Context, userID shared.UserID, mutate func(p *Profile) (LevelUpResult, error)) (LevelUpResult, error)

	// SaveExperienceEvent сохраняет неизменяемую запись о начислении.
	SaveExperienceEvent(ctx context.Context, event ExperienceEvent) error

	// GetExperienceEvents возвращает последние начисления пользователя.
	GetExperienceEvents(ctx context.Context, userID shared.UserID, limit int) ([]ExperienceEvent, error)

	// GetTopByXP возвращает профили, отсортированные по XP по убыванию.
	GetTopByXP(ctx context.Context, limit int) ([]*Profile, error)

	// Count возвращает общее количество профилей.
	Count(ctx context.Context) (int, error)
}
