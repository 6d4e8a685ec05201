package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT PROGRESS QUERY
// Собирает карточку прогрессии ученика: XP, уровень, порог следующего
// уровня, серию активности, последние начисления и выданные бейджи.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecentEvents - количество начислений в карточке по умолчанию.
const DefaultRecentEvents = 10

// GetStudentProgressQuery содержит параметры запроса прогрессии.
type GetStudentProgressQuery struct {
	// UserID - ученик, чья карточка запрашивается.
	UserID shared.UserID

	// RecentLimit - количество последних начислений (по умолчанию 10,
	// максимум 50).
	RecentLimit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetStudentProgressQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("valid user_id is required")
	}
	if q.RecentLimit < 0 {
		return errors.New("recent_limit cannot be negative")
	}
	if q.RecentLimit == 0 {
		q.RecentLimit = DefaultRecentEvents
	}
	if q.RecentLimit > 50 {
		q.RecentLimit = 50
	}
	return nil
}

// ExperienceEventDTO - DTO для записи о начислении XP.
type ExperienceEventDTO struct {
	// Amount - величина начисления.
	Amount int `json:"amount"`

	// Reason - причина начисления.
	Reason string `json:"reason"`

	// Timestamp - время начисления.
	Timestamp time.Time `json:"timestamp"`
}

// AwardDTO - DTO для выданного бейджа.
type AwardDTO struct {
	// Slug - slug бейджа.
	Slug string `json:"slug"`

	// AwardedAt - когда выдан.
	AwardedAt time.Time `json:"awarded_at"`
}

// GetStudentProgressResult содержит карточку прогрессии ученика.
type GetStudentProgressResult struct {
	// UserID - идентификатор ученика.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// XP - накопленные очки опыта.
	XP int `json:"xp"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// LevelTitle - название уровня.
	LevelTitle string `json:"level_title"`

	// NextLevelAt - XP, необходимый для следующего уровня.
	NextLevelAt int `json:"next_level_at"`

	// LevelPercent - процент пути к следующему уровню.
	LevelPercent int `json:"level_percent"`

	// Streak - серия активности.
	Streak int `json:"streak"`

	// RecentEvents - последние начисления, новые первыми.
	RecentEvents []ExperienceEventDTO `json:"recent_events"`

	// Badges - выданные бейджи, новые первыми.
	Badges []AwardDTO `json:"badges"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudentProgressHandler обрабатывает запросы карточки прогрессии.
type GetStudentProgressHandler struct {
	profiles profile.Repository
	badges   badge.Repository
	clock    shared.Clock
}

// NewGetStudentProgressHandler создаёт новый обработчик карточки прогрессии.
func NewGetStudentProgressHandler(
	profiles profile.Repository,
	badges badge.Repository,
	clock shared.Clock,
) *GetStudentProgressHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetStudentProgressHandler{profiles: profiles, badges: badges, clock: clock}
}

// Handle выполняет запрос карточки прогрессии.
func (h *GetStudentProgressHandler) Handle(ctx context.Context, query GetStudentProgressQuery) (*GetStudentProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStudentProgress", shared.ErrValidation, err.Error(), err)
	}

	p, err := h.profiles.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_student_progress: load profile: %w", err)
	}

	events, err := h.profiles.GetExperienceEvents(ctx, query.UserID, query.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("get_student_progress: load experience events: %w", err)
	}

	awards, err := h.badges.ListAwards(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_student_progress: load awards: %w", err)
	}

	result := &GetStudentProgressResult{
		UserID:       p.UserID.String(),
		DisplayName:  p.DisplayName,
		XP:           p.XP.Int(),
		Level:        p.Level.Int(),
		LevelTitle:   p.Level.Title(),
		NextLevelAt:  profile.NextLevelThreshold(p.Level).Int(),
		LevelPercent: profile.ProgressToNextLevel(p).Int(),
		Streak:       p.Streak,
		RecentEvents: make([]ExperienceEventDTO, 0, len(events)),
		Badges:       make([]AwardDTO, 0, len(awards)),
		GeneratedAt:  h.clock.Now(),
	}

	for _, e := range events {
		result.RecentEvents = append(result.RecentEvents, ExperienceEventDTO{
			Amount:    e.Amount,
			Reason:    e.Reason,
			Timestamp: e.Timestamp,
		})
	}
	for _, a := range awards {
		result.Badges = append(result.Badges, AwardDTO{
			Slug:      a.BadgeSlug.String(),
			AwardedAt: a.AwardedAt,
		})
	}

	return result, nil
}
