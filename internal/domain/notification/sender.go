package notification

import (
	"context"
	"errors"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY RESULT
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryResult представляет результат доставки уведомления.
type DeliveryResult struct {
	// Success - успешно ли доставлено.
	Success bool

	// DeliveredAt - время доставки.
	DeliveredAt time.Time

	// Error - ошибка доставки (если Success = false).
	Error error

	// Retryable - можно ли повторить отправку.
	Retryable bool
}

// NewSuccessResult создаёт результат успешной доставки.
func NewSuccessResult(deliveredAt time.Time) DeliveryResult {
	return DeliveryResult{Success: true, DeliveredAt: deliveredAt}
}

// NewFailureResult создаёт результат неудачной доставки.
func NewFailureResult(err error, retryable bool) DeliveryResult {
	return DeliveryResult{Success: false, Error: err, Retryable: retryable}
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDER INTERFACE
// Абстракция над конкретной системой доставки (in-app лента, email).
// ══════════════════════════════════════════════════════════════════════════════

// Sender определяет интерфейс отправки уведомлений.
type Sender interface {
	// Send доставляет одно уведомление. Настройки получателя проверяются
	// до вызова - Sender получает только разрешённые уведомления.
	Send(ctx context.Context, n *Notification) DeliveryResult
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения уведомлений.
type Repository interface {
	// Save сохраняет уведомление (вставка или обновление статуса).
	Save(ctx context.Context, n *Notification) error

	// GetByID возвращает уведомление по ID.
	// Возвращает ErrNotificationNotFound, если уведомления нет.
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)

	// ListByRecipient возвращает уведомления получателя, новые первыми.
	ListByRecipient(ctx context.Context, userID shared.UserID, limit int) ([]*Notification, error)

	// ListPending возвращает уведомления, ожидающие отправки.
	ListPending(ctx context.Context, limit int) ([]*Notification, error)

	// ListFailedForRetry возвращает неудачные уведомления с
	// неисчерпанными попытками.
	ListFailedForRetry(ctx context.Context, limit int) ([]*Notification, error)

	// DeleteOlderThan удаляет уведомления старше указанной даты.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// PreferencesRepository определяет операции хранения настроек.
type PreferencesRepository interface {
	// Get возвращает настройки пользователя; при отсутствии строки
	// возвращаются настройки по умолчанию.
	Get(ctx context.Context, userID shared.UserID) (*Preferences, error)

	// Save сохраняет настройки (upsert по пользователю).
	Save(ctx context.Context, p *Preferences) error
}

// ErrSenderUnavailable - система доставки недоступна.
var ErrSenderUnavailable = errors.New("notification sender is unavailable")
