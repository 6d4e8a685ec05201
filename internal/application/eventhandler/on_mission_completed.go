package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MISSION COMPLETED HANDLER
// Сообщает ученику о выполненной миссии и начисленной награде.
// ═══════════════════════════════════════════════════════════════════════════

// OnMissionCompletedHandler обрабатывает событие выполнения миссии.
type OnMissionCompletedHandler struct {
	notifier *Notifier
	logger   *slog.Logger
}

// NewOnMissionCompletedHandler создаёт новый обработчик выполнения миссии.
func NewOnMissionCompletedHandler(notifier *Notifier, logger *slog.Logger) *OnMissionCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnMissionCompletedHandler{
		notifier: notifier,
		logger:   logger.With("handler", "on_mission_completed"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnMissionCompletedHandler) Name() string {
	return "on_mission_completed"
}

// Handle обрабатывает событие выполнения миссии.
func (h *OnMissionCompletedHandler) Handle(event shared.Event) error {
	completed, ok := event.(shared.MissionCompletedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	message := fmt.Sprintf("Misiune îndeplinită: %s", completed.MissionCode)
	if completed.RewardPoints > 0 {
		message = fmt.Sprintf("Misiune îndeplinită: %s (+%d XP)",
			completed.MissionCode, completed.RewardPoints)
	}

	err := h.notifier.Deliver(context.Background(), notification.NewNotificationParams{
		Type:        notification.NotificationTypeMissionCompleted,
		RecipientID: shared.UserID(completed.UserID),
		Title:       "Misiune îndeplinită",
		Message:     message,
	})
	if err != nil {
		h.logger.Error("failed to deliver mission notification",
			"user_id", completed.UserID,
			"mission_code", completed.MissionCode,
			"error", err,
		)
		return fmt.Errorf("deliver mission notification: %w", err)
	}

	return nil
}
