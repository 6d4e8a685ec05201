package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STUDENT REGISTERED HANDLER
// Приветствует нового ученика. Приветствие относится к системной
// категории и настройками не отключается.
// ═══════════════════════════════════════════════════════════════════════════

// OnStudentRegisteredHandler обрабатывает событие регистрации ученика.
type OnStudentRegisteredHandler struct {
	notifier *Notifier
	logger   *slog.Logger
}

// NewOnStudentRegisteredHandler создаёт новый обработчик регистрации.
func NewOnStudentRegisteredHandler(notifier *Notifier, logger *slog.Logger) *OnStudentRegisteredHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnStudentRegisteredHandler{
		notifier: notifier,
		logger:   logger.With("handler", "on_student_registered"),
	}
}

// Name реализует интерфейс shared.EventHandler.
func (h *OnStudentRegisteredHandler) Name() string {
	return "on_student_registered"
}

// Handle обрабатывает событие регистрации ученика.
func (h *OnStudentRegisteredHandler) Handle(event shared.Event) error {
	registered, ok := event.(shared.StudentRegisteredEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	message := fmt.Sprintf(
		"Bine ai venit la Unitex, %s! Prima lecție te așteaptă în planul tău de studiu.",
		registered.DisplayName,
	)

	err := h.notifier.Deliver(context.Background(), notification.NewNotificationParams{
		Type:        notification.NotificationTypeWelcome,
		RecipientID: shared.UserID(registered.AggregateID()),
		Title:       "Bine ai venit",
		Message:     message,
	})
	if err != nil {
		h.logger.Error("failed to deliver welcome notification",
			"user_id", registered.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("deliver welcome notification: %w", err)
	}

	return nil
}
