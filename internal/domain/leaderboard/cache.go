package leaderboard

import (
	"context"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Реализация находится в infrastructure/persistence/redis (sorted set).
// ══════════════════════════════════════════════════════════════════════════════

// ErrNotRanked возвращается, когда пользователя нет в кеше рейтинга.
var ErrNotRanked = fmt.Errorf("user not ranked: %w", shared.ErrNotFound)

// Cache определяет контракт кеша рейтинга.
// Кеш - это ускоритель, а не хранилище: любая операция чтения обязана
// иметь фолбэк на профили, а Rebuild восстанавливает кеш с нуля.
type Cache interface {
	// UpdateScore записывает актуальный XP пользователя в кеш.
	UpdateScore(ctx context.Context, member Member) error

	// Top возвращает первых limit участников по убыванию XP.
	Top(ctx context.Context, limit int) ([]Member, error)

	// RankOf возвращает позицию пользователя (начиная с 1).
	// Возвращает ErrNotRanked, если пользователя нет в кеше.
	RankOf(ctx context.Context, userID shared.UserID) (Rank, error)

	// Size возвращает количество участников в кеше.
	Size(ctx context.Context) (int, error)

	// Rebuild атомарно заменяет содержимое кеша новым набором участников.
	Rebuild(ctx context.Context, members []Member) error
}
