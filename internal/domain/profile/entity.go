// Package profile содержит доменную модель профиля ученика платформы Unitex.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя на платформе.
type Role string

const (
	// RoleStudent - ученик, основная роль платформы.
	RoleStudent Role = "student"
	// RoleTeacher - преподаватель.
	RoleTeacher Role = "teacher"
	// RoleAdmin - администратор платформы.
	RoleAdmin Role = "admin"
	// RoleParent - родитель ученика.
	RoleParent Role = "parent"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleParent:
		return true
	default:
		return false
	}
}

// EarnsExperience возвращает true, если роль участвует в прогрессии.
func (r Role) EarnsExperience() bool {
	return r == RoleStudent
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRole - невалидная роль профиля.
	ErrInvalidRole = errors.New("invalid profile role")

	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrProfileNotFound - профиль не найден. Профиль создаётся явным шагом
	// при регистрации, поэтому его отсутствие - дефект конфигурации.
	ErrProfileNotFound = fmt.Errorf("profile not found: %w", shared.ErrNotFound)

	// ErrProfileAlreadyExists - профиль уже существует.
	ErrProfileAlreadyExists = fmt.Errorf("profile already exists: %w", shared.ErrAlreadyExists)
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - центральная сущность прогрессии. Принадлежит ровно одному
// пользователю. Поля XP и Level изменяются только через Ledger.
type Profile struct {
	// UserID - идентификатор пользователя (UUID в строковом формате).
	UserID shared.UserID

	// DisplayName - отображаемое имя ученика.
	DisplayName string

	// Email - адрес для входа и уведомлений.
	Email string

	// PasswordHash - bcrypt-хеш пароля.
	PasswordHash string

	// Role - роль на платформе.
	Role Role

	// XP - накопленные очки опыта, неотрицательные.
	XP shared.XP

	// Level - текущий уровень, начинается с 1.
	// Инвариант: цикл повышения стабилизирован - XP < 100 + Level^2 * 25.
	Level shared.Level

	// Streak - счётчик серии активности, неотрицательный.
	Streak int

	// LastActivityAt - время последней активности.
	LastActivityAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewProfileParams содержит параметры для создания нового профиля.
type NewProfileParams struct {
	UserID       shared.UserID
	DisplayName  string
	Email        string
	PasswordHash string
	Role         Role
}

// NewProfile создаёт новый профиль с валидацией всех полей.
// Профиль всегда стартует с XP=0, Level=1, Streak=0.
func NewProfile(params NewProfileParams, now time.Time) (*Profile, error) {
	if !params.UserID.IsValid() {
		return nil, errors.New("profile user id is required")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	role := params.Role
	if role == "" {
		role = RoleStudent
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	return &Profile{
		UserID:         params.UserID,
		DisplayName:    displayName,
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		PasswordHash:   params.PasswordHash,
		Role:           role,
		XP:             0,
		Level:          shared.MinLevel,
		Streak:         0,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// BumpStreak увеличивает серию активности на единицу и обновляет время
// последней активности. Вызывается оценщиком бейджей при каждом успешном
// вычислении (поведение источника; календарная фильтрация - на уровне выше).
func (p *Profile) BumpStreak(now time.Time) {
	p.Streak++
	p.LastActivityAt = now
	p.UpdatedAt = now
}

// ActiveOn проверяет, была ли последняя активность в указанный день.
func (p *Profile) ActiveOn(day shared.Date) bool {
	if p.LastActivityAt.IsZero() {
		return false
	}
	return shared.DateOf(p.LastActivityAt).Equal(day)
}

// Touch обновляет время последней активности без изменения прогрессии.
func (p *Profile) Touch(now time.Time) {
	p.LastActivityAt = now
	p.UpdatedAt = now
}

// String возвращает строковое представление профиля для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf(
		"Profile{UserID: %s, Role: %s, XP: %d, Level: %d, Streak: %d}",
		p.UserID, p.Role, p.XP, p.Level, p.Streak,
	)
}

// Clone создаёт копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	clone := *p
	return &clone
}
