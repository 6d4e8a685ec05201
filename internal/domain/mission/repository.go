package mission

import (
	"context"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения шаблонов и состояний миссий.
type Repository interface {
	// EnsureMission создаёт шаблон миссии, если его ещё нет (upsert по коду).
	// Существующий шаблон не перезаписывается - посев идемпотентен.
	EnsureMission(ctx context.Context, m *Mission) error

	// GetMission возвращает шаблон по коду.
	// Возвращает ErrMissionNotFound, если шаблон отсутствует.
	GetMission(ctx context.Context, code shared.Slug) (*Mission, error)

	// ListActive возвращает все активные шаблоны миссий.
	ListActive(ctx context.Context) ([]*Mission, error)

	// GetOrCreateState возвращает состояние пары (пользователь, миссия),
	// создавая пустое при отсутствии. Идемпотентно по уникальному ключу.
	GetOrCreateState(ctx context.Context, userID shared.UserID, code shared.Slug) (*State, error)

	// SaveState записывает состояние безусловно, даже если оно не менялось.
	SaveState(ctx context.Context, st *State) error

	// ListStates возвращает состояния пользователя по всем активным миссиям.
	ListStates(ctx context.Context, userID shared.UserID) ([]*State, error)
}
