package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The main progression trigger: records the completion, grants the lesson
// XP, advances the daily mission, and evaluates badge milestones. Only the
// first completion of a lesson pays out; repeats can improve the best time.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to complete a lesson.
type CompleteLessonCommand struct {
	// UserID is the student completing the lesson.
	UserID shared.UserID

	// LessonID is the lesson being completed.
	LessonID shared.LessonID

	// DurationSeconds is how long the attempt took; 0 means unmeasured.
	DurationSeconds int
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("complete_lesson: valid user_id is required")
	}
	if !c.LessonID.IsValid() {
		return errors.New("complete_lesson: valid lesson_id is required")
	}
	return nil
}

// CompleteLessonResult contains the result of completing a lesson.
type CompleteLessonResult struct {
	// FirstCompletion is true when this call created the completion record.
	FirstCompletion bool

	// XPGranted is the lesson XP applied (0 on repeats).
	XPGranted profile.LevelUpResult

	// Mission is the daily mission advance outcome; nil on repeats.
	Mission *MissionAdvance

	// BadgesAwarded lists milestone badges granted by this completion.
	BadgesAwarded []badge.Milestone

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	lessons     lesson.Repository
	completions lesson.CompletionRepository
	progression *Progression
	sequencer   *lesson.Sequencer
	publisher   shared.EventPublisher
	clock       shared.Clock
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	lessons lesson.Repository,
	completions lesson.CompletionRepository,
	progression *Progression,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *CompleteLessonHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &CompleteLessonHandler{
		lessons:     lessons,
		completions: completions,
		progression: progression,
		sequencer:   lesson.NewSequencer(),
		publisher:   publisher,
		clock:       clock,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	l, err := h.lessons.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: get lesson: %w", err)
	}

	completed, err := h.completions.ListCompletedIDs(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: list completed: %w", err)
	}

	subjectLessons, err := h.lessons.ListBySubject(ctx, l.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: list subject lessons: %w", err)
	}

	access := h.sequencer.ComputeAccessibility(subjectLessons, completed)
	if !access.IsAccessible(cmd.LessonID) {
		blocker, _ := access.BlockedBy(cmd.LessonID)
		return nil, fmt.Errorf("complete_lesson: lesson %d blocked by %d: %w",
			cmd.LessonID, blocker, lesson.ErrLessonLocked)
	}

	now := h.clock.Now()
	duration := time.Duration(cmd.DurationSeconds) * time.Second

	created, err := h.completions.Upsert(ctx, cmd.UserID, cmd.LessonID, now, duration)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: record completion: %w", err)
	}

	result := &CompleteLessonResult{
		FirstCompletion: created,
		CompletedAt:     now,
	}
	if !created {
		// Repeat run: best time may have improved, no rewards.
		return result, nil
	}

	result.XPGranted, err = h.progression.GrantExperience(ctx, cmd.UserID, l.XPReward, ReasonLessonCompleted)
	if err != nil {
		return nil, err
	}

	result.Mission, err = h.progression.AdvanceMission(ctx, cmd.UserID, mission.CodeDailyLesson, 1)
	if err != nil {
		return nil, err
	}

	result.BadgesAwarded, err = h.progression.EvaluateBadges(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewLessonCompletedEvent(
			cmd.UserID.String(), cmd.LessonID.Int64(), l.SubjectID, l.XPReward, cmd.DurationSeconds))
	}

	return result, nil
}
