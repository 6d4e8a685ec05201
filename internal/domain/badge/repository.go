package badge

import (
	"context"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения бейджей и выдач.
type Repository interface {
	// EnsureBadge создаёт шаблон бейджа, если его ещё нет (upsert по slug).
	EnsureBadge(ctx context.Context, b *Badge) error

	// GetBadge возвращает шаблон по slug.
	// Возвращает ErrBadgeNotFound, если шаблон отсутствует.
	GetBadge(ctx context.Context, slug shared.Slug) (*Badge, error)

	// EnsureAward создаёт запись выдачи, если её ещё нет.
	// Возвращает created=true только при фактическом создании строки -
	// повторный вызов для уже выданного бейджа это no-op, не ошибка.
	EnsureAward(ctx context.Context, award Award) (created bool, err error)

	// ListAwards возвращает выдачи пользователя, новые первыми.
	ListAwards(ctx context.Context, userID shared.UserID) ([]Award, error)

	// ListAwardedSlugs возвращает множество slug'ов выданных бейджей.
	ListAwardedSlugs(ctx context.Context, userID shared.UserID) (map[shared.Slug]bool, error)

	// EnsureReward создаёт запись старой награды, если её ещё нет
	// (get-or-create по паре пользователь+имя).
	EnsureReward(ctx context.Context, reward Reward) (created bool, err error)
}
