package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT PROJECT COMMAND
// Records a project submission and advances the one-time project mission.
// ══════════════════════════════════════════════════════════════════════════════

// ProjectSubmission is one recorded project upload.
type ProjectSubmission struct {
	UserID    shared.UserID
	SubjectID int64
	Title     string
}

// ProjectRepository stores project submissions.
type ProjectRepository interface {
	// Save appends a submission record.
	Save(ctx context.Context, submission ProjectSubmission) error

	// CountByUser returns the number of submissions by the user.
	CountByUser(ctx context.Context, userID shared.UserID) (int, error)
}

// SubmitProjectCommand contains the data to submit a project.
type SubmitProjectCommand struct {
	// UserID is the submitting student.
	UserID shared.UserID

	// SubjectID is the subject the project belongs to.
	SubjectID int64

	// Title is the project title.
	Title string
}

// Validate validates the command.
func (c SubmitProjectCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("submit_project: valid user_id is required")
	}
	if c.SubjectID <= 0 {
		return errors.New("submit_project: valid subject_id is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("submit_project: title is required")
	}
	return nil
}

// SubmitProjectResult contains the result of the submission.
type SubmitProjectResult struct {
	// Mission is the one-time project mission advance.
	Mission *MissionAdvance
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitProjectHandler handles the SubmitProjectCommand.
type SubmitProjectHandler struct {
	projects    ProjectRepository
	progression *Progression
	publisher   shared.EventPublisher
}

// NewSubmitProjectHandler creates a new SubmitProjectHandler.
func NewSubmitProjectHandler(
	projects ProjectRepository,
	progression *Progression,
	publisher shared.EventPublisher,
) *SubmitProjectHandler {
	return &SubmitProjectHandler{
		projects:    projects,
		progression: progression,
		publisher:   publisher,
	}
}

// Handle executes the submit project command.
func (h *SubmitProjectHandler) Handle(ctx context.Context, cmd SubmitProjectCommand) (*SubmitProjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if err := h.projects.Save(ctx, ProjectSubmission{
		UserID:    cmd.UserID,
		SubjectID: cmd.SubjectID,
		Title:     strings.TrimSpace(cmd.Title),
	}); err != nil {
		return nil, fmt.Errorf("submit_project: save submission: %w", err)
	}

	advance, err := h.progression.AdvanceMission(ctx, cmd.UserID, mission.CodeProjectProgress, 1)
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewProjectSubmittedEvent(
			cmd.UserID.String(), cmd.SubjectID, cmd.Title))
	}

	return &SubmitProjectResult{Mission: advance}, nil
}
