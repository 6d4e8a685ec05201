package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unitex-school/unitex-hub/internal/application/saga"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STREAK UPDATED HANDLER
// Запускает процесс признания серий после каждого роста серии. Сам
// процесс идемпотентен: повторный запуск на той же длине серии ничего
// не дублирует.
// ═══════════════════════════════════════════════════════════════════════════

// streakFlowTimeout ограничивает один прогон процесса признания серий.
const streakFlowTimeout = 30 * time.Second

// OnStreakUpdatedHandler запускает StreakMilestoneFlow при росте серии.
type OnStreakUpdatedHandler struct {
	flow   *saga.StreakMilestoneFlow
	logger *slog.Logger
}

// NewOnStreakUpdatedHandler создаёт новый обработчик роста серии.
func NewOnStreakUpdatedHandler(flow *saga.StreakMilestoneFlow, logger *slog.Logger) *OnStreakUpdatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnStreakUpdatedHandler{
		flow:   flow,
		logger: logger.With("handler", "on_streak_updated"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnStreakUpdatedHandler) Name() string {
	return "on_streak_updated"
}

// Handle обрабатывает событие роста серии.
func (h *OnStreakUpdatedHandler) Handle(event shared.Event) error {
	updated, ok := event.(shared.StreakUpdatedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), streakFlowTimeout)
	defer cancel()

	result, err := h.flow.Run(ctx, shared.UserID(updated.UserID))
	if err != nil {
		return fmt.Errorf("streak milestone flow: %w", err)
	}

	if result.Triggered {
		h.logger.Info("streak milestone recognized",
			"user_id", updated.UserID,
			"streak", updated.Streak,
			"badge", result.Milestone.BadgeSlug,
		)
	}

	return nil
}
