// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// LessonID represents a unique lesson identifier.
type LessonID int64

// IsValid checks if the lesson ID is positive.
func (l LessonID) IsValid() bool {
	return l > 0
}

// Int64 returns the underlying int64 value.
func (l LessonID) Int64() int64 {
	return int64(l)
}

// Slug represents a URL-safe identifier for lessons, badges, and missions.
type Slug string

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsValid checks if the slug format is valid.
func (s Slug) IsValid() bool {
	str := string(s)
	return len(str) >= 2 && len(str) <= 100 && slugRegex.MatchString(str)
}

// String returns the string representation.
func (s Slug) String() string {
	return string(s)
}

// NewSlug creates a new Slug with validation.
func NewSlug(value string) (Slug, error) {
	s := Slug(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", NewDomainError("shared", "NewSlug", ErrInvalidFormat, "invalid slug format")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned by a student.
type XP int

// MinXP is the lower XP boundary; XP never goes negative.
const MinXP XP = 0

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, floored at MinXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result < MinXP {
		return MinXP
	}
	return result
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a student's level. Levels start at 1 and only grow.
type Level int

// MinLevel is the starting level for every profile.
const MinLevel Level = 1

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// UpgradeThreshold returns the XP required to advance FROM this level.
// Formula: 100 + level^2 * 25, evaluated at the current level.
func (l Level) UpgradeThreshold() XP {
	return XP(100 + int(l)*int(l)*25)
}

// Title returns a human-readable title for the level.
func (l Level) Title() string {
	switch {
	case l < 3:
		return "Începător"
	case l < 6:
		return "Explorator"
	case l < 10:
		return "Practicant"
	case l < 15:
		return "Specialist"
	default:
		return "Maestru"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent represents a percentage value clamped to [0, 100].
type Percent int

// ClampPercent builds a Percent from an arbitrary int.
func ClampPercent(value int) Percent {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return Percent(value)
}

// Int returns the underlying int value.
func (p Percent) Int() int {
	return int(p)
}

// ═══════════════════════════════════════════════════════════════════════════
// Date Value Object (calendar day, no time component)
// ═══════════════════════════════════════════════════════════════════════════

// Date represents a calendar day. Mission resets compare dates, never
// timestamps, so the time component is always truncated.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a time to its calendar day in the time's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero checks if the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Equal checks if two dates are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// Before checks if the date is strictly earlier than the other date.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Time returns the start of the day in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// ISOWeek returns the ISO 8601 (year, week) pair for the date.
func (d Date) ISOWeek() (year, week int) {
	return d.Time(time.UTC).ISOWeek()
}

// SameISOWeek checks if two dates fall into the same ISO week.
func (d Date) SameISOWeek(other Date) bool {
	y1, w1 := d.ISOWeek()
	y2, w2 := other.ISOWeek()
	return y1 == y2 && w1 == w2
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, days))
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	return d.Time(time.UTC).Format("2006-01-02")
}

// ═══════════════════════════════════════════════════════════════════════════
// Clock (injectable time source, spec'd for deterministic tests)
// ═══════════════════════════════════════════════════════════════════════════

// Clock supplies "now" for timestamps and "today" for mission reset
// comparisons. Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns the current calendar day.
	Today() Date
}

// SystemClock is the production Clock backed by time.Now in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Today returns the current calendar day in the clock's location.
func (c SystemClock) Today() Date {
	return DateOf(c.Now())
}

// FixedClock is a Clock frozen at a single instant, for tests.
type FixedClock struct {
	Time time.Time
}

// Now returns the frozen instant.
func (c FixedClock) Now() time.Time {
	return c.Time
}

// Today returns the calendar day of the frozen instant.
func (c FixedClock) Today() Date {
	return DateOf(c.Time)
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
