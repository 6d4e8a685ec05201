// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Profile events
	EventStudentRegistered EventType = "profile.student_registered"
	EventXPGained          EventType = "profile.xp_gained"
	EventLevelUp           EventType = "profile.level_up"
	EventStreakUpdated     EventType = "profile.streak_updated"

	// Mission events
	EventMissionProgressed EventType = "mission.progressed"
	EventMissionCompleted  EventType = "mission.completed"
	EventMissionReset      EventType = "mission.reset"

	// Badge events
	EventBadgeAwarded  EventType = "badge.awarded"
	EventRewardGranted EventType = "badge.reward_granted"

	// Lesson events
	EventLessonCompleted  EventType = "lesson.completed"
	EventQuizAnswered     EventType = "lesson.quiz_answered"
	EventProjectSubmitted EventType = "lesson.project_submitted"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventPublisher publishes domain events to interested handlers.
// Implemented by the in-memory event bus in infrastructure/messaging.
type EventPublisher interface {
	// Publish delivers an event to all subscribed handlers.
	Publish(event Event) error
}

// EventHandler processes domain events delivered by the event bus.
type EventHandler interface {
	// Handle processes a single event.
	Handle(event Event) error

	// Name returns the handler name for logging and metrics.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f.Fn(event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a new student registers and the
// profile is created as an explicit part of the registration workflow.
type StudentRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"role":         e.Role,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(userID, email, displayName, role string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventStudentRegistered, userID),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
}

// XPGainedEvent is emitted when a student gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Reason   string `json:"reason"` // e.g., "lesson_completed", "mission_reward"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"reason":    e.Reason,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID string, amount, newTotal int, reason string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Reason:    reason,
	}
}

// LevelUpEvent is emitted when a student's level increases.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	TotalXP  int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// StreakUpdatedEvent is emitted when a student's activity streak grows.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Streak int    `json:"streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"streak":  e.Streak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, streak int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(EventStreakUpdated, userID),
		UserID:    userID,
		Streak:    streak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Mission Events
// ═══════════════════════════════════════════════════════════════════════════

// MissionCompletedEvent is emitted when a mission target is reached.
type MissionCompletedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	MissionCode  string `json:"mission_code"`
	RewardPoints int    `json:"reward_points"`
	RewardBadge  string `json:"reward_badge,omitempty"`
}

// Payload implements Event interface.
func (e MissionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"mission_code":  e.MissionCode,
		"reward_points": e.RewardPoints,
		"reward_badge":  e.RewardBadge,
	}
}

// NewMissionCompletedEvent creates a new MissionCompletedEvent.
func NewMissionCompletedEvent(userID, missionCode string, rewardPoints int, rewardBadge string) MissionCompletedEvent {
	return MissionCompletedEvent{
		BaseEvent:    NewBaseEvent(EventMissionCompleted, userID),
		UserID:       userID,
		MissionCode:  missionCode,
		RewardPoints: rewardPoints,
		RewardBadge:  rewardBadge,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeAwardedEvent is emitted when a badge is awarded for the first time.
type BadgeAwardedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	BadgeSlug string `json:"badge_slug"`
	BadgeName string `json:"badge_name"`
	XPReward  int    `json:"xp_reward"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"badge_slug": e.BadgeSlug,
		"badge_name": e.BadgeName,
		"xp_reward":  e.XPReward,
	}
}

// NewBadgeAwardedEvent creates a new BadgeAwardedEvent.
func NewBadgeAwardedEvent(userID, badgeSlug, badgeName string, xpReward int) BadgeAwardedEvent {
	return BadgeAwardedEvent{
		BaseEvent: NewBaseEvent(EventBadgeAwarded, userID),
		UserID:    userID,
		BadgeSlug: badgeSlug,
		BadgeName: badgeName,
		XPReward:  xpReward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lesson Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a student completes a lesson.
type LessonCompletedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	LessonID   int64  `json:"lesson_id"`
	SubjectID  int64  `json:"subject_id"`
	XPEarned   int    `json:"xp_earned"`
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"lesson_id":        e.LessonID,
		"subject_id":       e.SubjectID,
		"xp_earned":        e.XPEarned,
		"duration_seconds": e.DurationSeconds,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID string, lessonID, subjectID int64, xpEarned, durationSeconds int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:       NewBaseEvent(EventLessonCompleted, userID),
		UserID:          userID,
		LessonID:        lessonID,
		SubjectID:       subjectID,
		XPEarned:        xpEarned,
		DurationSeconds: durationSeconds,
	}
}

// QuizAnsweredEvent is emitted when a student answers a quiz question.
type QuizAnsweredEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	QuizID   int64  `json:"quiz_id"`
	Correct  bool   `json:"correct"`
	XPEarned int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e QuizAnsweredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"quiz_id":   e.QuizID,
		"correct":   e.Correct,
		"xp_earned": e.XPEarned,
	}
}

// NewQuizAnsweredEvent creates a new QuizAnsweredEvent.
func NewQuizAnsweredEvent(userID string, quizID int64, correct bool, xpEarned int) QuizAnsweredEvent {
	return QuizAnsweredEvent{
		BaseEvent: NewBaseEvent(EventQuizAnswered, userID),
		UserID:    userID,
		QuizID:    quizID,
		Correct:   correct,
		XPEarned:  xpEarned,
	}
}

// ProjectSubmittedEvent is emitted when a student submits a project.
type ProjectSubmittedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	SubjectID int64  `json:"subject_id"`
	Title     string `json:"title"`
}

// Payload implements Event interface.
func (e ProjectSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"subject_id": e.SubjectID,
		"title":      e.Title,
	}
}

// NewProjectSubmittedEvent creates a new ProjectSubmittedEvent.
func NewProjectSubmittedEvent(userID string, subjectID int64, title string) ProjectSubmittedEvent {
	return ProjectSubmittedEvent{
		BaseEvent: NewBaseEvent(EventProjectSubmitted, userID),
		UserID:    userID,
		SubjectID: subjectID,
		Title:     title,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted after a leaderboard rebuild.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	EntryCount int `json:"entry_count"`
}

// Payload implements Event interface.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entry_count": e.EntryCount,
	}
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent.
func NewLeaderboardUpdatedEvent(entryCount int) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventLeaderboardUpdated, "leaderboard"),
		EntryCount: entryCount,
	}
}
