package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT COMMAND
// Creates the user profile and default notification preferences as explicit
// steps of one workflow. There is no implicit profile creation anywhere
// else: a missing profile later on is a setup defect, not a runtime case.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentCommand contains the data to register a new student.
type RegisterStudentCommand struct {
	// Email is the login address, unique across the platform.
	Email string

	// DisplayName is the student's visible name.
	DisplayName string

	// Password is the plaintext password, hashed before storage.
	Password string

	// Role defaults to student when empty.
	Role profile.Role
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	email := strings.TrimSpace(c.Email)
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("register_student: valid email is required")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("register_student: display name is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register_student: password must be at least 8 characters")
	}
	if c.Role != "" && !c.Role.IsValid() {
		return errors.New("register_student: invalid role")
	}
	return nil
}

// RegisterStudentResult contains the result of the registration.
type RegisterStudentResult struct {
	// UserID is the generated user identifier.
	UserID shared.UserID

	// Profile is the created profile.
	Profile *profile.Profile

	// RegisteredAt is when the registration happened.
	RegisteredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	profiles    profile.Repository
	preferences notification.PreferencesRepository
	publisher   shared.EventPublisher
	clock       shared.Clock

	bcryptCost int
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
func NewRegisterStudentHandler(
	profiles profile.Repository,
	preferences notification.PreferencesRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
) *RegisterStudentHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &RegisterStudentHandler{
		profiles:    profiles,
		preferences: preferences,
		publisher:   publisher,
		clock:       clock,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// Handle executes the register student command.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*RegisterStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if existing, err := h.profiles.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, profile.ErrProfileAlreadyExists
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("register_student: check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register_student: hash password: %w", err)
	}

	now := h.clock.Now()
	userID := shared.UserID(uuid.New().String())

	p, err := profile.NewProfile(profile.NewProfileParams{
		UserID:       userID,
		DisplayName:  cmd.DisplayName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         cmd.Role,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("register_student: %w", err)
	}

	if err := h.profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("register_student: create profile: %w", err)
	}

	// Preference failures must not undo the registration.
	if h.preferences != nil {
		prefs := notification.DefaultPreferences(userID, now)
		_ = h.preferences.Save(ctx, prefs)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewStudentRegisteredEvent(
			userID.String(), email, p.DisplayName, string(p.Role)))
	}

	return &RegisterStudentResult{
		UserID:       userID,
		Profile:      p,
		RegisteredAt: now,
	}, nil
}
