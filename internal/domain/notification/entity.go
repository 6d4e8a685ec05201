// Package notification содержит доменную модель уведомлений платформы Unitex.
// Уведомления сообщают студенту о прогрессе (уровни, бейджи, миссии) и
// фильтруются настройками получателя до постановки в очередь.
package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID представляет уникальный идентификатор уведомления.
type NotificationID string

// IsValid проверяет, что ID не пустой.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id NotificationID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType определяет тип уведомления.
type NotificationType string

const (
	// NotificationTypeLevelUp - студент повысил уровень.
	// "Nivel nou! Acum ești Nivel 5"
	NotificationTypeLevelUp NotificationType = "level_up"

	// NotificationTypeBadgeAwarded - выдан бейдж.
	// "Insignă nouă: Primul pas!"
	NotificationTypeBadgeAwarded NotificationType = "badge_awarded"

	// NotificationTypeMissionCompleted - миссия выполнена.
	// "Misiune îndeplinită: Complete o lecție (+40 XP)"
	NotificationTypeMissionCompleted NotificationType = "mission_completed"

	// NotificationTypeLessonUnlocked - открылась следующая лекция.
	// "Lecția următoare este disponibilă"
	NotificationTypeLessonUnlocked NotificationType = "lesson_unlocked"

	// NotificationTypeStreakMilestone - достигнута серия активных дней.
	NotificationTypeStreakMilestone NotificationType = "streak_milestone"

	// NotificationTypeWelcome - приветствие нового студента.
	NotificationTypeWelcome NotificationType = "welcome"

	// NotificationTypeWeeklyDigest - еженедельная сводка прогресса.
	NotificationTypeWeeklyDigest NotificationType = "weekly_digest"

	// NotificationTypeSystemAlert - системное уведомление.
	NotificationTypeSystemAlert NotificationType = "system_alert"
)

// IsValid проверяет, что тип уведомления корректен.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeLevelUp,
		NotificationTypeBadgeAwarded,
		NotificationTypeMissionCompleted,
		NotificationTypeLessonUnlocked,
		NotificationTypeStreakMilestone,
		NotificationTypeWelcome,
		NotificationTypeWeeklyDigest,
		NotificationTypeSystemAlert:
		return true
	default:
		return false
	}
}

// Category возвращает категорию уведомления для группировки.
func (t NotificationType) Category() Category {
	switch t {
	case NotificationTypeLevelUp, NotificationTypeBadgeAwarded,
		NotificationTypeMissionCompleted, NotificationTypeStreakMilestone:
		return CategoryProgress
	case NotificationTypeLessonUnlocked:
		return CategoryLearning
	case NotificationTypeWeeklyDigest:
		return CategoryDigest
	case NotificationTypeWelcome, NotificationTypeSystemAlert:
		return CategorySystem
	default:
		return CategorySystem
	}
}

// DefaultPriority возвращает приоритет по умолчанию для данного типа.
func (t NotificationType) DefaultPriority() Priority {
	switch t {
	case NotificationTypeLevelUp, NotificationTypeBadgeAwarded, NotificationTypeWelcome:
		return PriorityHigh
	case NotificationTypeMissionCompleted, NotificationTypeLessonUnlocked,
		NotificationTypeStreakMilestone:
		return PriorityNormal
	case NotificationTypeWeeklyDigest:
		return PriorityLow
	case NotificationTypeSystemAlert:
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

// String возвращает строковое представление типа.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// Category определяет категорию уведомления для фильтрации настройками.
type Category string

const (
	// CategoryProgress - уведомления о прогрессе (XP, уровни, бейджи, миссии).
	CategoryProgress Category = "progress"

	// CategoryLearning - уведомления учебного плана.
	CategoryLearning Category = "learning"

	// CategoryDigest - дайджесты и сводки.
	CategoryDigest Category = "digest"

	// CategorySystem - системные уведомления, не отключаются.
	CategorySystem Category = "system"
)

// IsValid проверяет корректность категории.
func (c Category) IsValid() bool {
	switch c {
	case CategoryProgress, CategoryLearning, CategoryDigest, CategorySystem:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет приоритет уведомления.
type Priority int

const (
	// PriorityLow - низкий приоритет, можно объединить с другими.
	PriorityLow Priority = 1

	// PriorityNormal - обычный приоритет.
	PriorityNormal Priority = 2

	// PriorityHigh - важное уведомление.
	PriorityHigh Priority = 3

	// PriorityUrgent - срочное, отправляется немедленно.
	PriorityUrgent Priority = 4
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// String возвращает строковое представление приоритета.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет статус доставки уведомления.
type Status string

const (
	// StatusPending - уведомление ожидает отправки.
	StatusPending Status = "pending"

	// StatusDelivered - уведомление доставлено.
	StatusDelivered Status = "delivered"

	// StatusFailed - доставка не удалась.
	StatusFailed Status = "failed"

	// StatusSkipped - уведомление пропущено настройками получателя.
	StatusSkipped Status = "skipped"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal возвращает true, если это конечный статус.
func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusSkipped
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification представляет уведомление, отправляемое студенту.
type Notification struct {
	// ID - уникальный идентификатор уведомления.
	ID NotificationID

	// Type - тип уведомления.
	Type NotificationType

	// RecipientID - получатель.
	RecipientID shared.UserID

	// Priority - приоритет уведомления.
	Priority Priority

	// Status - текущий статус доставки.
	Status Status

	// Title - заголовок уведомления.
	Title string

	// Message - текст уведомления.
	Message string

	// RetryCount - количество попыток отправки.
	RetryCount int

	// MaxRetries - максимальное количество попыток.
	MaxRetries int

	// LastError - последняя ошибка доставки.
	LastError string

	// CreatedAt - время создания.
	CreatedAt time.Time

	// SentAt - фактическое время доставки.
	SentAt *time.Time
}

// NewNotificationParams содержит параметры для создания уведомления.
type NewNotificationParams struct {
	ID          NotificationID
	Type        NotificationType
	RecipientID shared.UserID
	Title       string
	Message     string
	Priority    *Priority
	MaxRetries  int
}

// NewNotification создаёт новое уведомление с валидацией.
func NewNotification(params NewNotificationParams, now time.Time) (*Notification, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidNotificationID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidNotificationType
	}
	if !params.RecipientID.IsValid() {
		return nil, ErrInvalidRecipientID
	}
	if params.Message == "" {
		return nil, ErrEmptyMessage
	}

	priority := params.Type.DefaultPriority()
	if params.Priority != nil && params.Priority.IsValid() {
		priority = *params.Priority
	}

	maxRetries := 3
	if params.MaxRetries > 0 {
		maxRetries = params.MaxRetries
	}

	return &Notification{
		ID:          params.ID,
		Type:        params.Type,
		RecipientID: params.RecipientID,
		Priority:    priority,
		Status:      StatusPending,
		Title:       params.Title,
		Message:     params.Message,
		MaxRetries:  maxRetries,
		CreatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// Category возвращает категорию уведомления.
func (n *Notification) Category() Category {
	return n.Type.Category()
}

// MarkDelivered помечает уведомление как доставленное.
func (n *Notification) MarkDelivered(now time.Time) error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusDelivered
	n.SentAt = &now
	return nil
}

// MarkFailed помечает уведомление как неудачное и увеличивает счётчик попыток.
func (n *Notification) MarkFailed(cause string) error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusFailed
	n.LastError = cause
	n.RetryCount++
	return nil
}

// MarkSkipped помечает уведомление как отфильтрованное настройками.
func (n *Notification) MarkSkipped(reason string) error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusSkipped
	n.LastError = reason
	return nil
}

// CanRetry возвращает true, если можно повторить отправку.
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries
}

// ResetForRetry подготавливает уведомление для повторной отправки.
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrMaxRetriesExceeded
	}
	n.Status = StatusPending
	return nil
}

// String возвращает строковое представление для логирования.
func (n *Notification) String() string {
	return fmt.Sprintf(
		"Notification{ID: %s, Type: %s, Recipient: %s, Status: %s}",
		n.ID, n.Type, n.RecipientID, n.Status,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidNotificationID - невалидный ID уведомления.
	ErrInvalidNotificationID = errors.New("invalid notification id: cannot be empty")

	// ErrInvalidNotificationType - невалидный тип уведомления.
	ErrInvalidNotificationType = errors.New("invalid notification type")

	// ErrInvalidRecipientID - невалидный ID получателя.
	ErrInvalidRecipientID = errors.New("invalid recipient id")

	// ErrEmptyMessage - пустое сообщение.
	ErrEmptyMessage = errors.New("notification message cannot be empty")

	// ErrInvalidStatusTransition - недопустимый переход статуса.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrMaxRetriesExceeded - превышено количество попыток.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrNotificationNotFound - уведомление не найдено.
	ErrNotificationNotFound = fmt.Errorf("notification not found: %w", shared.ErrNotFound)
)
