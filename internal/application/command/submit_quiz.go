package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Records a quiz answer. Correct answers grant quiz XP and advance the
// weekly quiz mission; wrong answers are recorded without progression.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultQuizXP is the XP granted per correct quiz answer.
const DefaultQuizXP = 15

// QuizAttempt is one recorded quiz answer.
type QuizAttempt struct {
	UserID   shared.UserID
	QuizID   int64
	Correct  bool
	XPEarned int
}

// QuizAttemptRepository stores quiz attempts.
type QuizAttemptRepository interface {
	// Save appends an attempt record.
	Save(ctx context.Context, attempt QuizAttempt) error

	// CountCorrect returns the number of correct attempts by the user.
	CountCorrect(ctx context.Context, userID shared.UserID) (int, error)
}

// SubmitQuizCommand contains the data to submit a quiz answer.
type SubmitQuizCommand struct {
	// UserID is the student answering.
	UserID shared.UserID

	// QuizID identifies the quiz question.
	QuizID int64

	// Correct is whether the answer was right.
	Correct bool
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("submit_quiz: valid user_id is required")
	}
	if c.QuizID <= 0 {
		return errors.New("submit_quiz: valid quiz_id is required")
	}
	return nil
}

// SubmitQuizResult contains the result of the submission.
type SubmitQuizResult struct {
	// Correct echoes the recorded correctness.
	Correct bool

	// XPGranted is the quiz XP applied (zero result for wrong answers).
	XPGranted profile.LevelUpResult

	// Mission is the weekly quiz mission advance; nil for wrong answers.
	Mission *MissionAdvance
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	attempts    QuizAttemptRepository
	progression *Progression
	publisher   shared.EventPublisher

	quizXP int
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
func NewSubmitQuizHandler(
	attempts QuizAttemptRepository,
	progression *Progression,
	publisher shared.EventPublisher,
) *SubmitQuizHandler {
	return &SubmitQuizHandler{
		attempts:    attempts,
		progression: progression,
		publisher:   publisher,
		quizXP:      DefaultQuizXP,
	}
}

// Handle executes the submit quiz command.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	result := &SubmitQuizResult{Correct: cmd.Correct}

	earned := 0
	if cmd.Correct {
		earned = h.quizXP
	}

	if err := h.attempts.Save(ctx, QuizAttempt{
		UserID:   cmd.UserID,
		QuizID:   cmd.QuizID,
		Correct:  cmd.Correct,
		XPEarned: earned,
	}); err != nil {
		return nil, fmt.Errorf("submit_quiz: save attempt: %w", err)
	}

	if cmd.Correct {
		var err error
		result.XPGranted, err = h.progression.GrantExperience(ctx, cmd.UserID, earned, ReasonQuizCorrect)
		if err != nil {
			return nil, err
		}

		result.Mission, err = h.progression.AdvanceMission(ctx, cmd.UserID, mission.CodeWeeklyQuiz, 1)
		if err != nil {
			return nil, err
		}
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewQuizAnsweredEvent(
			cmd.UserID.String(), cmd.QuizID, cmd.Correct, earned))
	}

	return result, nil
}
