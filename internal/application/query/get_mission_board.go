package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MISSION BOARD QUERY
// Собирает доску миссий ученика: активные шаблоны, сгруппированные по
// периодичности, с текущим прогрессом. Просроченный период показывается
// как нулевой прогресс, хотя фактический сброс состояния произойдёт
// только при следующей регистрации.
// ══════════════════════════════════════════════════════════════════════════════

// GetMissionBoardQuery содержит параметры запроса доски миссий.
type GetMissionBoardQuery struct {
	// UserID - ученик, для которого собирается доска.
	UserID shared.UserID
}

// Validate проверяет корректность параметров запроса.
func (q *GetMissionBoardQuery) Validate() error {
	if !q.UserID.IsValid() {
		return errors.New("valid user_id is required")
	}
	return nil
}

// MissionDTO - DTO для миссии на доске.
type MissionDTO struct {
	// Code - код миссии.
	Code string `json:"code"`

	// Title - заголовок миссии.
	Title string `json:"title"`

	// Description - описание цели.
	Description string `json:"description,omitempty"`

	// Frequency - периодичность: "daily", "weekly", "once".
	Frequency string `json:"frequency"`

	// Target - порог выполнения.
	Target int `json:"target"`

	// Progress - текущий прогресс с учётом смены периода.
	Progress int `json:"progress"`

	// Percent - процент выполнения.
	Percent int `json:"percent"`

	// Completed - выполнена ли миссия в текущем периоде.
	Completed bool `json:"completed"`

	// RewardPoints - XP за выполнение.
	RewardPoints int `json:"reward_points"`

	// RewardBadge - slug бейджа-награды; пустой, если нет.
	RewardBadge string `json:"reward_badge,omitempty"`

	// Icon - имя иконки для интерфейса.
	Icon string `json:"icon,omitempty"`

	// Color - акцентный цвет для интерфейса.
	Color string `json:"color,omitempty"`
}

// GetMissionBoardResult содержит доску миссий, сгруппированную по периодичности.
type GetMissionBoardResult struct {
	// Daily - ежедневные миссии.
	Daily []MissionDTO `json:"daily"`

	// Weekly - еженедельные миссии.
	Weekly []MissionDTO `json:"weekly"`

	// Special - разовые миссии.
	Special []MissionDTO `json:"special"`

	// CompletedToday - количество миссий, выполненных в текущем периоде.
	CompletedToday int `json:"completed_today"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetMissionBoardHandler обрабатывает запросы доски миссий.
type GetMissionBoardHandler struct {
	missions mission.Repository
	clock    shared.Clock
}

// NewGetMissionBoardHandler создаёт новый обработчик доски миссий.
func NewGetMissionBoardHandler(missions mission.Repository, clock shared.Clock) *GetMissionBoardHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetMissionBoardHandler{missions: missions, clock: clock}
}

// Handle выполняет запрос доски миссий.
func (h *GetMissionBoardHandler) Handle(ctx context.Context, query GetMissionBoardQuery) (*GetMissionBoardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetMissionBoard", shared.ErrValidation, err.Error(), err)
	}

	active, err := h.missions.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_mission_board: list active missions: %w", err)
	}

	states, err := h.missions.ListStates(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_mission_board: list states: %w", err)
	}

	byCode := make(map[shared.Slug]*mission.State, len(states))
	for _, st := range states {
		byCode[st.MissionCode] = st
	}

	today := h.clock.Today()
	result := &GetMissionBoardResult{GeneratedAt: h.clock.Now()}

	for _, m := range active {
		st := byCode[m.Code]
		if st == nil {
			// Состояние создаётся лениво при первой регистрации прогресса;
			// до этого миссия показывается с нулевым прогрессом.
			st = mission.NewState(query.UserID, m.Code)
		}

		progress, completedNow := mission.EffectiveProgress(m, st, today)
		dto := MissionDTO{
			Code:         m.Code.String(),
			Title:        m.Title,
			Description:  m.Description,
			Frequency:    string(m.Frequency),
			Target:       m.TargetValue,
			Progress:     progress,
			Percent:      missionPercent(m, progress),
			Completed:    completedNow,
			RewardPoints: m.RewardPoints,
			RewardBadge:  m.RewardBadge.String(),
			Icon:         m.Icon,
			Color:        m.Color,
		}
		if completedNow {
			result.CompletedToday++
		}

		switch m.Frequency {
		case mission.FrequencyDaily:
			result.Daily = append(result.Daily, dto)
		case mission.FrequencyWeekly:
			result.Weekly = append(result.Weekly, dto)
		default:
			result.Special = append(result.Special, dto)
		}
	}

	return result, nil
}

// missionPercent считает процент выполнения от эффективного прогресса.
func missionPercent(m *mission.Mission, progress int) int {
	if m.TargetValue <= 0 {
		return 100
	}
	return shared.ClampPercent(progress * 100 / m.TargetValue).Int()
}
