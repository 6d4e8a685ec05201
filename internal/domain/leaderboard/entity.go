// Package leaderboard содержит доменную модель рейтинга учеников Unitex.
// Рейтинг - это производная проекция профилей: источником истины всегда
// остаётся таблица профилей, а кеш лишь ускоряет чтение топа.
package leaderboard

import (
	"fmt"
	"sort"

	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию ученика в рейтинге. Начинается с 1.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsPodium возвращает true для первых трёх мест.
func (r Rank) IsPodium() bool {
	return r >= 1 && r <= 3
}

// IsTop10 возвращает true, если ученик в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - строка рейтинга, готовая к отображению.
type Entry struct {
	// Rank - позиция в рейтинге.
	Rank Rank

	// UserID - идентификатор ученика.
	UserID shared.UserID

	// DisplayName - отображаемое имя.
	DisplayName string

	// XP - накопленные очки опыта.
	XP shared.XP

	// Level - текущий уровень.
	Level shared.Level

	// Streak - серия активности.
	Streak int
}

// Member - минимальная единица кеша: пользователь и его счёт.
// Отображаемые поля дочитываются из профилей при сборке Entry.
type Member struct {
	UserID shared.UserID
	XP     shared.XP
}

// RankMembers сортирует участников по убыванию XP и присваивает ранги.
// При равном XP порядок фиксируется по UserID, чтобы ранжирование
// было детерминированным между перезапусками.
func RankMembers(members []Member) []Member {
	ranked := make([]Member, len(members))
	copy(ranked, members)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].XP != ranked[j].XP {
			return ranked[i].XP > ranked[j].XP
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	return ranked
}
