// Package timeutil provides timezone utilities for the Bucharest timezone.
// All Unitex students study on Romanian school time, so day boundaries for
// streaks, mission resets and lesson scheduling are computed here.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

var (
	bucharestOnce sync.Once
	bucharestTZ   *time.Location
)

// BucharestTZ returns the Europe/Bucharest timezone (EET/EEST, observes DST).
// Falls back to a fixed UTC+2 zone if the tzdata is unavailable.
func BucharestTZ() *time.Location {
	bucharestOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Bucharest")
		if err != nil {
			loc = time.FixedZone("EET", 2*60*60)
		}
		bucharestTZ = loc
	})
	return bucharestTZ
}

// Now returns the current time in Bucharest timezone.
func Now() time.Time {
	return time.Now().In(BucharestTZ())
}

// ToBucharest converts a time to Bucharest timezone.
func ToBucharest(t time.Time) time.Time {
	return t.In(BucharestTZ())
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Bucharest timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, BucharestTZ())
}

// DateTime creates a time in Bucharest timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, BucharestTZ())
}

// StartOfDay returns the start of the day (00:00:00) in Bucharest timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, BucharestTZ())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Bucharest timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, BucharestTZ())
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in Bucharest timezone.
func StartOfWeek(t time.Time) time.Time {
	local := ToBucharest(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in Bucharest timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in Bucharest timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToBucharest(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, BucharestTZ())
}

// EndOfMonth returns the end of the month in Bucharest timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsToday checks if the given time is today in Bucharest timezone.
func IsToday(t time.Time) bool {
	now := Now()
	local := ToBucharest(t)
	return local.Year() == now.Year() &&
		local.Month() == now.Month() &&
		local.Day() == now.Day()
}

// IsYesterday checks if the given time is yesterday in Bucharest timezone.
func IsYesterday(t time.Time) bool {
	yesterday := Now().AddDate(0, 0, -1)
	local := ToBucharest(t)
	return local.Year() == yesterday.Year() &&
		local.Month() == yesterday.Month() &&
		local.Day() == yesterday.Day()
}

// IsThisWeek checks if the given time is in the current week.
func IsThisWeek(t time.Time) bool {
	now := Now()
	weekStart := StartOfWeek(now)
	weekEnd := EndOfWeek(now)
	local := ToBucharest(t)
	return !local.Before(weekStart) && !local.After(weekEnd)
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// School hours for the Unitex platform.
const (
	// SchoolDayStart is when lessons open (8:00 AM).
	SchoolDayStart = 8
	// SchoolDayEnd is when the school day ends (8:00 PM).
	SchoolDayEnd = 20
)

// IsSchoolHours checks if the given time is within school hours (8:00-20:00).
func IsSchoolHours(t time.Time) bool {
	local := ToBucharest(t)
	hour := local.Hour()
	return hour >= SchoolDayStart && hour < SchoolDayEnd
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	local := ToBucharest(t)
	weekday := local.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSchoolDay checks if the given time is on a school day (Mon-Fri).
func IsSchoolDay(t time.Time) bool {
	return !IsWeekend(t)
}

// NextSchoolDay returns the next school day (skipping weekends).
func NextSchoolDay(t time.Time) time.Time {
	next := ToBucharest(t).AddDate(0, 0, 1)
	for IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatRomanianDate is the Romanian date format (DD.MM.YYYY).
	FormatRomanianDate = "02.01.2006"
	// FormatRomanianDateTime is the Romanian datetime format.
	FormatRomanianDateTime = "02.01.2006 15:04"
)

// FormatBucharest formats a time in Bucharest timezone with the given layout.
func FormatBucharest(t time.Time, layout string) string {
	return ToBucharest(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Bucharest timezone.
func FormatDateStr(t time.Time) string {
	return FormatBucharest(t, FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in Bucharest timezone.
func FormatTimeStr(t time.Time) string {
	return FormatBucharest(t, FormatTime)
}

// FormatRomanian formats a time in Romanian format (DD.MM.YYYY).
func FormatRomanian(t time.Time) string {
	return FormatBucharest(t, FormatRomanianDate)
}

// ParseBucharest parses a time string in Bucharest timezone.
func ParseBucharest(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, BucharestTZ())
}

// ParseDateBucharest parses a date string (YYYY-MM-DD) in Bucharest timezone.
func ParseDateBucharest(value string) (time.Time, error) {
	return ParseBucharest(FormatDate, value)
}

// Streak-related helpers.

// IsSameDay checks if two times are on the same day in Bucharest timezone.
func IsSameDay(t1, t2 time.Time) bool {
	b1, b2 := ToBucharest(t1), ToBucharest(t2)
	return b1.Year() == b2.Year() && b1.YearDay() == b2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	b1, b2 := ToBucharest(t1), ToBucharest(t2)
	nextDay := b1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, b2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	b1 := StartOfDay(t1)
	b2 := StartOfDay(t2)
	duration := b2.Sub(b1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (9:00-21:00).
func IsSafeNotificationTime(t time.Time) bool {
	local := ToBucharest(t)
	hour := local.Hour()
	return hour >= 9 && hour < 21
}

// NextSafeNotificationTime returns the next time when notifications are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	local := ToBucharest(t)
	hour := local.Hour()

	if hour < 9 {
		return DateTime(local.Year(), int(local.Month()), local.Day(), 9, 0, 0)
	} else if hour >= 21 {
		tomorrow := local.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 9, 0, 0)
	}

	return local
}

// FormatRelative returns a human-readable relative time string in Romanian.
func FormatRelative(t time.Time) string {
	now := Now()
	local := ToBucharest(t)
	duration := now.Sub(local)

	if duration < 0 {
		return formatFutureDuration(-duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "chiar acum"
	case d < time.Hour:
		return fmt.Sprintf("acum %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("acum %d ore", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "ieri"
		}
		return fmt.Sprintf("acum %d zile", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("acum %d săptămâni", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("acum %d luni", months)
		}
		return fmt.Sprintf("acum %d ani", months/12)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "acum"
	case d < time.Hour:
		return fmt.Sprintf("în %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("în %d ore", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "mâine"
		}
		return fmt.Sprintf("în %d zile", days)
	}
}

// WeekdayNameRo returns the Romanian name for a weekday.
func WeekdayNameRo(t time.Time) string {
	local := ToBucharest(t)
	switch local.Weekday() {
	case time.Monday:
		return "Luni"
	case time.Tuesday:
		return "Marți"
	case time.Wednesday:
		return "Miercuri"
	case time.Thursday:
		return "Joi"
	case time.Friday:
		return "Vineri"
	case time.Saturday:
		return "Sâmbătă"
	case time.Sunday:
		return "Duminică"
	default:
		return ""
	}
}

// MonthNameRo returns the Romanian name for a month.
func MonthNameRo(m time.Month) string {
	names := []string{
		"", "Ianuarie", "Februarie", "Martie", "Aprilie", "Mai", "Iunie",
		"Iulie", "August", "Septembrie", "Octombrie", "Noiembrie", "Decembrie",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}
