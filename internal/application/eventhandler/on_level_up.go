package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Поздравляет ученика с новым уровнем. Уведомление проходит через
// настройки получателя; отказ доставки не влияет на прогрессию.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	notifier *Notifier
	logger   *slog.Logger
}

// NewOnLevelUpHandler создаёт новый обработчик повышения уровня.
func NewOnLevelUpHandler(notifier *Notifier, logger *slog.Logger) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLevelUpHandler{
		notifier: notifier,
		logger:   logger.With("handler", "on_level_up"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnLevelUpHandler) Name() string {
	return "on_level_up"
}

// Handle обрабатывает событие повышения уровня.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	levelUp, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	newLevel := shared.Level(levelUp.NewLevel)
	message := fmt.Sprintf("Nivel nou! Acum ești Nivel %d - %s. Continuă tot așa!",
		levelUp.NewLevel, newLevel.Title())

	err := h.notifier.Deliver(context.Background(), notification.NewNotificationParams{
		Type:        notification.NotificationTypeLevelUp,
		RecipientID: shared.UserID(levelUp.UserID),
		Title:       "Nivel nou",
		Message:     message,
	})
	if err != nil {
		h.logger.Error("failed to deliver level up notification",
			"user_id", levelUp.UserID,
			"new_level", levelUp.NewLevel,
			"error", err,
		)
		return fmt.Errorf("deliver level up notification: %w", err)
	}

	return nil
}
