package notification

import (
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION PREFERENCES
// Настройки получателя проверяются до постановки уведомления в очередь.
// Системные уведомления настройками не отключаются.
// ══════════════════════════════════════════════════════════════════════════════

// Preferences - настройки уведомлений одного пользователя.
type Preferences struct {
	// UserID - владелец настроек.
	UserID shared.UserID

	// EmailEnabled - дублировать уведомления на email.
	EmailEnabled bool

	// ProgressEnabled - уведомления о прогрессе (XP, уровни, бейджи, миссии).
	ProgressEnabled bool

	// LearningEnabled - уведомления учебного плана.
	LearningEnabled bool

	// DigestEnabled - еженедельные сводки.
	DigestEnabled bool

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// DefaultPreferences возвращает настройки по умолчанию: всё включено.
func DefaultPreferences(userID shared.UserID, now time.Time) *Preferences {
	return &Preferences{
		UserID:          userID,
		EmailEnabled:    true,
		ProgressEnabled: true,
		LearningEnabled: true,
		DigestEnabled:   true,
		UpdatedAt:       now,
	}
}

// Allows проверяет, разрешена ли категория настройками.
func (p *Preferences) Allows(c Category) bool {
	switch c {
	case CategoryProgress:
		return p.ProgressEnabled
	case CategoryLearning:
		return p.LearningEnabled
	case CategoryDigest:
		return p.DigestEnabled
	case CategorySystem:
		return true
	default:
		return true
	}
}

// AllowsType проверяет, разрешён ли тип уведомления настройками.
func (p *Preferences) AllowsType(t NotificationType) bool {
	return p.Allows(t.Category())
}
