// Package mission содержит доменную модель миссий платформы Unitex.
// Миссия - это повторяемая или разовая цель с числовым порогом;
// состояние прогресса хранится отдельно для каждой пары (пользователь, миссия).
package mission

import (
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Frequency определяет периодичность миссии.
type Frequency string

const (
	// FrequencyDaily - прогресс сбрасывается при смене календарного дня.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly - прогресс сбрасывается при смене ISO-недели.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyOnce - разовая миссия, никогда не сбрасывается.
	FrequencyOnce Frequency = "once"
)

// IsValid проверяет, что периодичность корректна.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyOnce:
		return true
	default:
		return false
	}
}

// Resets возвращает true, если миссия подлежит периодическому сбросу.
func (f Frequency) Resets() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidCode - невалидный код миссии.
	ErrInvalidCode = errors.New("invalid mission code")

	// ErrInvalidFrequency - невалидная периодичность.
	ErrInvalidFrequency = errors.New("invalid mission frequency")

	// ErrMissionNotFound - миссия не найдена.
	ErrMissionNotFound = fmt.Errorf("mission not found: %w", shared.ErrNotFound)
)

// ══════════════════════════════════════════════════════════════════════════════
// MISSION TEMPLATE
// ══════════════════════════════════════════════════════════════════════════════

// Mission - шаблон цели. Создаётся при посеве данных и почти не меняется.
type Mission struct {
	// Code - уникальный код миссии (slug).
	Code shared.Slug

	// Title - заголовок для отображения.
	Title string

	// Description - описание цели.
	Description string

	// Frequency - периодичность сброса.
	Frequency Frequency

	// TargetValue - положительный порог выполнения.
	// Неположительный порог - ошибка конфигурации; оценщик трактует такие
	// миссии как тривиально выполнимые при первой регистрации прогресса.
	TargetValue int

	// RewardPoints - XP за выполнение.
	RewardPoints int

	// RewardBadge - опциональный slug бейджа-награды; пустой, если нет.
	RewardBadge shared.Slug

	// Icon - имя иконки для интерфейса.
	Icon string

	// Color - акцентный цвет для интерфейса.
	Color string

	// Active - участвует ли миссия в выдаче пользователям.
	Active bool
}

// NewMission создаёт шаблон миссии с валидацией.
func NewMission(code shared.Slug, title string, frequency Frequency, targetValue, rewardPoints int) (*Mission, error) {
	if !code.IsValid() {
		return nil, ErrInvalidCode
	}
	if !frequency.IsValid() {
		return nil, ErrInvalidFrequency
	}

	return &Mission{
		Code:         code,
		Title:        title,
		Frequency:    frequency,
		TargetValue:  targetValue,
		RewardPoints: rewardPoints,
		Active:       true,
	}, nil
}

// HasRewardBadge возвращает true, если за миссию положен бейдж.
func (m *Mission) HasRewardBadge() bool {
	return m.RewardBadge != ""
}

// String возвращает строковое представление миссии для логирования.
func (m *Mission) String() string {
	return fmt.Sprintf("Mission{Code: %s, Frequency: %s, Target: %d, Reward: %d}",
		m.Code, m.Frequency, m.TargetValue, m.RewardPoints)
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION STATE
// ══════════════════════════════════════════════════════════════════════════════

// State - изменяемый прогресс пары (пользователь, миссия).
// Ровно одна запись на пару; уникальность обеспечивается хранилищем.
type State struct {
	// UserID - владелец прогресса.
	UserID shared.UserID

	// MissionCode - код миссии.
	MissionCode shared.Slug

	// Progress - текущий счётчик прогресса.
	Progress int

	// Completed - выполнена ли миссия в текущем периоде.
	Completed bool

	// CompletedAt - время выполнения; nil, если не выполнена.
	CompletedAt *time.Time

	// LastReset - день последней оценки; нулевая дата - ещё не оценивалась.
	LastReset shared.Date

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewState создаёт пустое состояние для пары (пользователь, миссия).
func NewState(userID shared.UserID, code shared.Slug) *State {
	return &State{
		UserID:      userID,
		MissionCode: code,
	}
}

// String возвращает строковое представление состояния для логирования.
func (s *State) String() string {
	return fmt.Sprintf("State{User: %s, Mission: %s, Progress: %d, Completed: %t}",
		s.UserID, s.MissionCode, s.Progress, s.Completed)
}
