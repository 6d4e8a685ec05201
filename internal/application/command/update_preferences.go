package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// Updates the student's notification preferences. Nil fields mean "keep".
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand contains the data to update preferences.
type UpdatePreferencesCommand struct {
	// UserID is the owner of the preferences.
	UserID shared.UserID

	// Email - mirror notifications to email.
	Email *bool

	// Progress - progress notifications (XP, levels, badges, missions).
	Progress *bool

	// Learning - learning-path notifications.
	Learning *bool

	// Digest - weekly digest.
	Digest *bool
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if !c.UserID.IsValid() {
		return errors.New("update_preferences: valid user_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesHandler handles the UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	preferences notification.PreferencesRepository
	clock       shared.Clock
}

// NewUpdatePreferencesHandler creates a new UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(
	preferences notification.PreferencesRepository,
	clock shared.Clock,
) *UpdatePreferencesHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &UpdatePreferencesHandler{preferences: preferences, clock: clock}
}

// Handle executes the update preferences command.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*notification.Preferences, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	prefs, err := h.preferences.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("update_preferences: get preferences: %w", err)
	}

	if cmd.Email != nil {
		prefs.EmailEnabled = *cmd.Email
	}
	if cmd.Progress != nil {
		prefs.ProgressEnabled = *cmd.Progress
	}
	if cmd.Learning != nil {
		prefs.LearningEnabled = *cmd.Learning
	}
	if cmd.Digest != nil {
		prefs.DigestEnabled = *cmd.Digest
	}
	prefs.UpdatedAt = h.clock.Now()

	if err := h.preferences.Save(ctx, prefs); err != nil {
		return nil, fmt.Errorf("update_preferences: save preferences: %w", err)
	}

	return prefs, nil
}
