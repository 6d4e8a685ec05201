// Package eventhandler содержит обработчики доменных событий.
// Обработчики подписываются на шину событий и выполняют побочные
// реакции: уведомления, обновление кеша рейтинга. Ошибки обработчиков
// логируются и никогда не откатывают породившую событие команду.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// NOTIFIER
// Общий конвейер доставки для всех обработчиков-уведомителей:
// настройки получателя -> отправка -> запись статуса.
// ═══════════════════════════════════════════════════════════════════════════

// Notifier строит уведомление, фильтрует его настройками получателя
// и доставляет через Sender. Каждое уведомление сохраняется с итоговым
// статусом - и доставленное, и пропущенное, и неудачное.
type Notifier struct {
	notifications notification.Repository
	preferences   notification.PreferencesRepository
	sender        notification.Sender
	logger        *slog.Logger
	clock         shared.Clock
}

// NewNotifier создаёт новый конвейер доставки уведомлений.
func NewNotifier(
	notifications notification.Repository,
	preferences notification.PreferencesRepository,
	sender notification.Sender,
	logger *slog.Logger,
	clock shared.Clock,
) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Notifier{
		notifications: notifications,
		preferences:   preferences,
		sender:        sender,
		logger:        logger,
		clock:         clock,
	}
}

// Deliver создаёт и доставляет одно уведомление.
//
// Порядок:
//  1. уведомление создаётся со статусом pending;
//  2. настройки получателя могут перевести его в skipped;
//  3. отправка переводит в delivered или failed;
//  4. итоговый статус сохраняется в любом случае.
func (n *Notifier) Deliver(ctx context.Context, params notification.NewNotificationParams) error {
	if params.ID == "" {
		params.ID = notification.NotificationID(uuid.New().String())
	}

	notif, err := notification.NewNotification(params, n.clock.Now())
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	prefs, err := n.preferences.Get(ctx, notif.RecipientID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	if !prefs.AllowsType(notif.Type) {
		if err := notif.MarkSkipped("disabled by recipient preferences"); err != nil {
			return err
		}
		n.logger.Debug("notification skipped by preferences",
			"type", notif.Type,
			"recipient", notif.RecipientID,
		)
		return n.notifications.Save(ctx, notif)
	}

	result := n.send(ctx, notif)
	if result.Success {
		if err := notif.MarkDelivered(result.DeliveredAt); err != nil {
			return err
		}
	} else {
		cause := "sender unavailable"
		if result.Error != nil {
			cause = result.Error.Error()
		}
		if err := notif.MarkFailed(cause); err != nil {
			return err
		}
		n.logger.Warn("notification delivery failed",
			"type", notif.Type,
			"recipient", notif.RecipientID,
			"error", cause,
			"retryable", result.Retryable,
		)
	}

	return n.notifications.Save(ctx, notif)
}

func (n *Notifier) send(ctx context.Context, notif *notification.Notification) notification.DeliveryResult {
	if n.sender == nil {
		return notification.NewFailureResult(notification.ErrSenderUnavailable, true)
	}
	return n.sender.Send(ctx, notif)
}
