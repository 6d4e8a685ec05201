package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfDay(t *testing.T) {
	ts := DateTime(2025, 3, 11, 14, 30, 45)

	start := StartOfDay(ts)
	assert.Equal(t, DateTime(2025, 3, 11, 0, 0, 0), start)

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 11, end.Day())
}

func TestStartOfWeek_MondayBased(t *testing.T) {
	// 13 марта 2025 - четверг; начало недели - понедельник 10 марта.
	thursday := DateTime(2025, 3, 13, 12, 0, 0)
	assert.Equal(t, Date(2025, 3, 10), StartOfWeek(thursday))

	// Воскресенье принадлежит той же неделе, что и прошедший понедельник.
	sunday := DateTime(2025, 3, 16, 12, 0, 0)
	assert.Equal(t, Date(2025, 3, 10), StartOfWeek(sunday))

	monday := DateTime(2025, 3, 10, 0, 0, 0)
	assert.Equal(t, Date(2025, 3, 10), StartOfWeek(monday))
}

func TestEndOfWeek_Sunday(t *testing.T) {
	thursday := DateTime(2025, 3, 13, 12, 0, 0)
	end := EndOfWeek(thursday)

	assert.Equal(t, time.Sunday, end.Weekday())
	assert.Equal(t, 16, end.Day())
}

func TestStartAndEndOfMonth(t *testing.T) {
	ts := DateTime(2025, 2, 14, 9, 0, 0)

	assert.Equal(t, Date(2025, 2, 1), StartOfMonth(ts))
	assert.Equal(t, 28, EndOfMonth(ts).Day()) // февраль 2025 не високосный
}

func TestIsSameDay(t *testing.T) {
	morning := DateTime(2025, 3, 11, 0, 30, 0)
	evening := DateTime(2025, 3, 11, 23, 30, 0)
	nextDay := DateTime(2025, 3, 12, 0, 30, 0)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, nextDay))

	// Полночь по UTC может быть другим днём по Бухаресту.
	utcLateNight := time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC)
	assert.False(t, IsSameDay(morning, utcLateNight))
}

func TestIsConsecutiveDay(t *testing.T) {
	d1 := DateTime(2025, 3, 11, 22, 0, 0)
	d2 := DateTime(2025, 3, 12, 6, 0, 0)
	d3 := DateTime(2025, 3, 13, 6, 0, 0)

	assert.True(t, IsConsecutiveDay(d1, d2))
	assert.False(t, IsConsecutiveDay(d1, d3))
	assert.False(t, IsConsecutiveDay(d2, d1))
}

func TestDaysBetween(t *testing.T) {
	d1 := DateTime(2025, 3, 11, 23, 0, 0)
	d2 := DateTime(2025, 3, 14, 1, 0, 0)

	assert.Equal(t, 3, DaysBetween(d1, d2))
	assert.Equal(t, 3, DaysBetween(d2, d1)) // порядок аргументов не важен
	assert.Equal(t, 0, DaysBetween(d1, d1))
}

func TestIsSchoolHours(t *testing.T) {
	assert.True(t, IsSchoolHours(DateTime(2025, 3, 11, 8, 0, 0)))
	assert.True(t, IsSchoolHours(DateTime(2025, 3, 11, 19, 59, 0)))
	assert.False(t, IsSchoolHours(DateTime(2025, 3, 11, 20, 0, 0)))
	assert.False(t, IsSchoolHours(DateTime(2025, 3, 11, 7, 59, 0)))
}

func TestIsWeekendAndSchoolDay(t *testing.T) {
	saturday := DateTime(2025, 3, 15, 12, 0, 0)
	monday := DateTime(2025, 3, 17, 12, 0, 0)

	assert.True(t, IsWeekend(saturday))
	assert.False(t, IsSchoolDay(saturday))
	assert.False(t, IsWeekend(monday))
	assert.True(t, IsSchoolDay(monday))
}

func TestNextSchoolDay_SkipsWeekend(t *testing.T) {
	friday := DateTime(2025, 3, 14, 12, 0, 0)
	next := NextSchoolDay(friday)

	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 17, next.Day())
	assert.Equal(t, 0, next.Hour())
}

func TestNextSafeNotificationTime(t *testing.T) {
	// Раннее утро - ждём до 9:00 того же дня.
	early := DateTime(2025, 3, 11, 6, 30, 0)
	assert.Equal(t, DateTime(2025, 3, 11, 9, 0, 0), NextSafeNotificationTime(early))

	// Поздний вечер - переносим на 9:00 следующего дня.
	late := DateTime(2025, 3, 11, 22, 0, 0)
	assert.Equal(t, DateTime(2025, 3, 12, 9, 0, 0), NextSafeNotificationTime(late))

	// Дневное время безопасно как есть.
	noon := DateTime(2025, 3, 11, 12, 0, 0)
	assert.Equal(t, noon, NextSafeNotificationTime(noon))
	assert.True(t, IsSafeNotificationTime(noon))
}

func TestFormatRomanian(t *testing.T) {
	ts := DateTime(2025, 3, 11, 14, 30, 0)

	assert.Equal(t, "11.03.2025", FormatRomanian(ts))
	assert.Equal(t, "2025-03-11", FormatDateStr(ts))
	assert.Equal(t, "14:30", FormatTimeStr(ts))
}

func TestParseDateBucharest(t *testing.T) {
	parsed, err := ParseDateBucharest("2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, Date(2025, 3, 11), parsed)

	_, err = ParseDateBucharest("11.03.2025")
	assert.Error(t, err)
}

func TestWeekdayNameRo(t *testing.T) {
	assert.Equal(t, "Marți", WeekdayNameRo(DateTime(2025, 3, 11, 12, 0, 0)))
	assert.Equal(t, "Duminică", WeekdayNameRo(DateTime(2025, 3, 16, 12, 0, 0)))
}

func TestMonthNameRo(t *testing.T) {
	assert.Equal(t, "Martie", MonthNameRo(time.March))
	assert.Equal(t, "Decembrie", MonthNameRo(time.December))
	assert.Equal(t, "", MonthNameRo(time.Month(13)))
}
