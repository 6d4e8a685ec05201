package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON XP GAINED HANDLER
// Подталкивает кеш рейтинга после каждого начисления XP, чтобы топ
// не ждал планового пересбора. Кеш - не источник истины: ошибка здесь
// логируется и не возвращается наверх.
// ═══════════════════════════════════════════════════════════════════════════

// OnXPGainedHandler обновляет кеш рейтинга после начисления XP.
type OnXPGainedHandler struct {
	cache  leaderboard.Cache
	logger *slog.Logger
}

// NewOnXPGainedHandler создаёт новый обработчик начисления XP.
func NewOnXPGainedHandler(cache leaderboard.Cache, logger *slog.Logger) *OnXPGainedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnXPGainedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_xp_gained"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnXPGainedHandler) Name() string {
	return "on_xp_gained"
}

// Handle обрабатывает событие начисления XP.
func (h *OnXPGainedHandler) Handle(event shared.Event) error {
	gained, ok := event.(shared.XPGainedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	if h.cache == nil {
		return nil
	}

	member := leaderboard.Member{
		UserID: shared.UserID(gained.UserID),
		XP:     shared.XP(gained.NewTotal),
	}
	if err := h.cache.UpdateScore(context.Background(), member); err != nil {
		h.logger.Warn("failed to update leaderboard cache",
			"user_id", gained.UserID,
			"new_total", gained.NewTotal,
			"error", err,
		)
		return fmt.Errorf("update leaderboard cache: %w", err)
	}

	return nil
}
