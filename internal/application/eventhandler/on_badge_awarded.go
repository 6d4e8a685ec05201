package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON BADGE AWARDED HANDLER
// Сообщает ученику о новой инсигнии. Бейдж выдаётся не более одного
// раза, поэтому и уведомление приходит не более одного раза.
// ═══════════════════════════════════════════════════════════════════════════

// OnBadgeAwardedHandler обрабатывает событие выдачи бейджа.
type OnBadgeAwardedHandler struct {
	notifier *Notifier
	logger   *slog.Logger
}

// NewOnBadgeAwardedHandler создаёт новый обработчик выдачи бейджа.
func NewOnBadgeAwardedHandler(notifier *Notifier, logger *slog.Logger) *OnBadgeAwardedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnBadgeAwardedHandler{
		notifier: notifier,
		logger:   logger.With("handler", "on_badge_awarded"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnBadgeAwardedHandler) Name() string {
	return "on_badge_awarded"
}

// Handle обрабатывает событие выдачи бейджа.
func (h *OnBadgeAwardedHandler) Handle(event shared.Event) error {
	awarded, ok := event.(shared.BadgeAwardedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	name := awarded.BadgeName
	if name == "" {
		name = awarded.BadgeSlug
	}

	message := fmt.Sprintf("Insignă nouă: %s!", name)
	if awarded.XPReward > 0 {
		message = fmt.Sprintf("Insignă nouă: %s! (+%d XP)", name, awarded.XPReward)
	}

	err := h.notifier.Deliver(context.Background(), notification.NewNotificationParams{
		Type:        notification.NotificationTypeBadgeAwarded,
		RecipientID: shared.UserID(awarded.UserID),
		Title:       "Insignă nouă",
		Message:     message,
	})
	if err != nil {
		h.logger.Error("failed to deliver badge notification",
			"user_id", awarded.UserID,
			"badge_slug", awarded.BadgeSlug,
			"error", err,
		)
		return fmt.Errorf("deliver badge notification: %w", err)
	}

	return nil
}
