// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N учеников по XP. Сначала пробует кеш (sorted set),
// при промахе читает профили напрямую - кеш никогда не является
// источником истины.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// Offset - смещение для пагинации.
	Offset int

	// UserID - опциональный ID запрашивающего; если задан, в результат
	// включается его собственная позиция.
	UserID shared.UserID
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// LeaderboardEntryDTO - DTO для строки рейтинга.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - идентификатор ученика.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// XP - текущее количество очков опыта.
	XP int `json:"xp"`

	// Level - уровень ученика.
	Level int `json:"level"`

	// LevelTitle - название уровня для отображения.
	LevelTitle string `json:"level_title"`

	// Streak - серия активности.
	Streak int `json:"streak"`
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	// Entries - строки рейтинга.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - общее количество участников.
	TotalCount int `json:"total_count"`

	// RequesterRank - позиция запрашивающего; 0, если не запрошена
	// или пользователь ещё не в рейтинге.
	RequesterRank int `json:"requester_rank,omitempty"`

	// FromCache - собран ли результат из кеша.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"has_more"`

	// Page - текущая страница (1-based).
	Page int `json:"page"`

	// PageSize - размер страницы.
	PageSize int `json:"page_size"`
}

// GetLeaderboardHandler обрабатывает запросы на получение рейтинга.
type GetLeaderboardHandler struct {
	profiles profile.Repository
	cache    leaderboard.Cache
	clock    shared.Clock
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса рейтинга.
func NewGetLeaderboardHandler(
	profiles profile.Repository,
	cache leaderboard.Cache,
	clock shared.Clock,
) *GetLeaderboardHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetLeaderboardHandler{profiles: profiles, cache: cache, clock: clock}
}

// Handle выполняет запрос на получение рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	want := query.Offset + query.Limit

	entries, fromCache, err := h.load(ctx, want)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	totalCount := h.totalCount(ctx, fromCache, len(entries))
	page := entries
	if query.Offset < len(entries) {
		page = entries[query.Offset:]
	} else {
		page = nil
	}
	if len(page) > query.Limit {
		page = page[:query.Limit]
	}

	result := &GetLeaderboardResult{
		Entries:     make([]LeaderboardEntryDTO, 0, len(page)),
		TotalCount:  totalCount,
		FromCache:   fromCache,
		GeneratedAt: h.clock.Now(),
		HasMore:     query.Offset+len(page) < totalCount,
		Page:        pageNumber(query.Offset, query.Limit),
		PageSize:    query.Limit,
	}
	for _, e := range page {
		result.Entries = append(result.Entries, toLeaderboardDTO(e))
	}

	if query.UserID.IsValid() {
		result.RequesterRank = h.requesterRank(ctx, query.UserID, entries)
	}

	return result, nil
}

// load собирает ранжированные строки: кеш, при промахе - профили.
func (h *GetLeaderboardHandler) load(ctx context.Context, limit int) ([]leaderboard.Entry, bool, error) {
	if h.cache != nil {
		members, err := h.cache.Top(ctx, limit)
		if err == nil && len(members) > 0 {
			entries, enrichErr := h.enrich(ctx, members)
			if enrichErr == nil {
				return entries, true, nil
			}
		}
	}

	top, err := h.profiles.GetTopByXP(ctx, limit)
	if err != nil {
		return nil, false, fmt.Errorf("load top profiles: %w", err)
	}

	entries := make([]leaderboard.Entry, len(top))
	for i, p := range top {
		entries[i] = leaderboard.Entry{
			Rank:        leaderboard.Rank(i + 1),
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			XP:          p.XP,
			Level:       p.Level,
			Streak:      p.Streak,
		}
	}
	return entries, false, nil
}

// enrich дочитывает отображаемые поля к участникам из кеша.
// XP берётся из профиля, а не из кеша: кеш может отставать на одно
// начисление, профиль - никогда.
func (h *GetLeaderboardHandler) enrich(ctx context.Context, members []leaderboard.Member) ([]leaderboard.Entry, error) {
	entries := make([]leaderboard.Entry, 0, len(members))
	for i, m := range members {
		p, err := h.profiles.GetByUserID(ctx, m.UserID)
		if err != nil {
			if shared.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("enrich member %s: %w", m.UserID, err)
		}
		entries = append(entries, leaderboard.Entry{
			Rank:        leaderboard.Rank(i + 1),
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			XP:          p.XP,
			Level:       p.Level,
			Streak:      p.Streak,
		})
	}
	return entries, nil
}

// totalCount возвращает общее количество участников с фолбэком.
func (h *GetLeaderboardHandler) totalCount(ctx context.Context, fromCache bool, fallback int) int {
	if fromCache && h.cache != nil {
		if size, err := h.cache.Size(ctx); err == nil {
			return size
		}
	}
	if count, err := h.profiles.Count(ctx); err == nil {
		return count
	}
	return fallback
}

// requesterRank определяет позицию запрашивающего: кеш, затем загруженный топ.
func (h *GetLeaderboardHandler) requesterRank(ctx context.Context, userID shared.UserID, entries []leaderboard.Entry) int {
	if h.cache != nil {
		if rank, err := h.cache.RankOf(ctx, userID); err == nil {
			return int(rank)
		}
	}
	for _, e := range entries {
		if e.UserID == userID {
			return int(e.Rank)
		}
	}
	return 0
}

func toLeaderboardDTO(e leaderboard.Entry) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Rank:        int(e.Rank),
		UserID:      e.UserID.String(),
		DisplayName: e.DisplayName,
		XP:          e.XP.Int(),
		Level:       e.Level.Int(),
		LevelTitle:  e.Level.Title(),
		Streak:      e.Streak,
	}
}

func pageNumber(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return (offset / limit) + 1
}
