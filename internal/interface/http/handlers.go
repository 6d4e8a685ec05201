package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/unitex-school/unitex-hub/internal/application/command"
	"github.com/unitex-school/unitex-hub/internal/application/query"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
	"github.com/unitex-school/unitex-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Unitex Hub API",
		"version":     "v1",
		"description": "REST API for Unitex Hub - student progression and gamification",
		"endpoints": map[string]string{
			"health":        "/health",
			"leaderboard":   "/api/v1/leaderboard",
			"progress":      "/api/v1/students/{id}/progress",
			"learning_path": "/api/v1/students/{id}/learning-path",
			"missions":      "/api/v1/students/{id}/missions",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleMetrics handles the metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": s.Uptime().Seconds(),
		"running":        s.IsRunning(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit:  getQueryParamInt(r, "limit", 20),
		Offset: getQueryParamInt(r, "offset", 0),
		UserID: shared.UserID(r.URL.Query().Get("user_id")),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasMore:    result.HasMore,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// handleGetStudentProgress handles GET /api/v1/students/{id}/progress
func (s *Server) handleGetStudentProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.GetStudentProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	q := query.GetStudentProgressQuery{
		UserID:      userID,
		RecentLimit: getQueryParamInt(r, "recent", 0),
	}

	result, err := s.deps.GetStudentProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLearningPath handles GET /api/v1/students/{id}/learning-path
func (s *Server) handleGetLearningPath(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.GetLearningPathHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Learning path handler not configured")
		return
	}

	q := query.GetLearningPathQuery{
		UserID:    userID,
		SubjectID: getQueryParamInt64(r, "subject_id", 0),
	}

	result, err := s.deps.GetLearningPathHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetMissionBoard handles GET /api/v1/students/{id}/missions
func (s *Server) handleGetMissionBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.GetMissionBoardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Mission board handler not configured")
		return
	}

	result, err := s.deps.GetMissionBoardHandler.Handle(r.Context(), query.GetMissionBoardQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// notificationDTO is the feed representation of a notification.
type notificationDTO struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Status    string     `json:"status"`
	Title     string     `json:"title,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// handleListNotifications handles GET /api/v1/students/{id}/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.Notifications == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notification feed not configured")
		return
	}

	limit := getQueryParamInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, err := s.deps.Notifications.ListByRecipient(r.Context(), userID, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	feed := make([]notificationDTO, 0, len(items))
	for _, n := range items {
		feed = append(feed, notificationDTO{
			ID:        n.ID.String(),
			Type:      n.Type.String(),
			Priority:  n.Priority.String(),
			Status:    string(n.Status),
			Title:     n.Title,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
			SentAt:    n.SentAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": feed})
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerStudentRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
}

type registerStudentResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	Level        int       `json:"level"`
	XP           int       `json:"xp"`
	RegisteredAt time.Time `json:"registered_at"`
}

// handleRegisterStudent handles POST /api/v1/students
func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	if s.deps.RegisterStudentHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Registration handler not configured")
		return
	}

	var req registerStudentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterStudentHandler.Handle(r.Context(), command.RegisterStudentCommand{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        profile.Role(req.Role),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// The profile entity carries the password hash; never expose it raw.
	writeJSON(w, http.StatusCreated, registerStudentResponse{
		UserID:       result.UserID.String(),
		Email:        result.Profile.Email,
		DisplayName:  result.Profile.DisplayName,
		Role:         string(result.Profile.Role),
		Level:        int(result.Profile.Level),
		XP:           int(result.Profile.XP),
		RegisteredAt: result.RegisteredAt,
	})
}

type completeLessonRequest struct {
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

type xpGrantDTO struct {
	Amount    int  `json:"amount"`
	LeveledUp bool `json:"leveled_up"`
	OldLevel  int  `json:"old_level"`
	NewLevel  int  `json:"new_level"`
	NewXP     int  `json:"new_xp"`
}

type missionAdvanceDTO struct {
	Code          string `json:"code"`
	Progress      int    `json:"progress"`
	JustCompleted bool   `json:"just_completed"`
	RewardPoints  int    `json:"reward_points,omitempty"`
	BadgeAwarded  bool   `json:"badge_awarded,omitempty"`
}

type badgeAwardDTO struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	XPReward int    `json:"xp_reward"`
}

type completeLessonResponse struct {
	FirstCompletion bool               `json:"first_completion"`
	XPGranted       xpGrantDTO         `json:"xp_granted"`
	Mission         *missionAdvanceDTO `json:"mission,omitempty"`
	BadgesAwarded   []badgeAwardDTO    `json:"badges_awarded,omitempty"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// handleCompleteLesson handles POST /api/v1/students/{id}/lessons/{lesson_id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	lessonID := pathInt64(r, "lesson_id")
	if lessonID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Valid lesson ID is required")
		return
	}

	if s.deps.CompleteLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lesson handler not configured")
		return
	}

	// The body is optional: a bare POST counts as an unmeasured attempt.
	var req completeLessonRequest
	if r.ContentLength > 0 && !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), command.CompleteLessonCommand{
		UserID:          userID,
		LessonID:        shared.LessonID(lessonID),
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := completeLessonResponse{
		FirstCompletion: result.FirstCompletion,
		XPGranted:       toXPGrantDTO(result.XPGranted),
		Mission:         toMissionAdvanceDTO(result.Mission),
		CompletedAt:     result.CompletedAt,
	}
	for _, m := range result.BadgesAwarded {
		resp.BadgesAwarded = append(resp.BadgesAwarded, badgeAwardDTO{
			Slug:     m.Slug.String(),
			Name:     m.Name,
			Icon:     m.Icon,
			Color:    m.Color,
			XPReward: m.XPReward,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type submitQuizRequest struct {
	Correct bool `json:"correct"`
}

type submitQuizResponse struct {
	Correct   bool               `json:"correct"`
	XPGranted xpGrantDTO         `json:"xp_granted"`
	Mission   *missionAdvanceDTO `json:"mission,omitempty"`
}

// handleSubmitQuiz handles POST /api/v1/students/{id}/quizzes/{quiz_id}/submit
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	quizID := pathInt64(r, "quiz_id")
	if quizID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Valid quiz ID is required")
		return
	}

	if s.deps.SubmitQuizHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Quiz handler not configured")
		return
	}

	var req submitQuizRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitQuizHandler.Handle(r.Context(), command.SubmitQuizCommand{
		UserID:  userID,
		QuizID:  quizID,
		Correct: req.Correct,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitQuizResponse{
		Correct:   result.Correct,
		XPGranted: toXPGrantDTO(result.XPGranted),
		Mission:   toMissionAdvanceDTO(result.Mission),
	})
}

type submitProjectRequest struct {
	SubjectID int64  `json:"subject_id"`
	Title     string `json:"title"`
}

type submitProjectResponse struct {
	Accepted bool               `json:"accepted"`
	Mission  *missionAdvanceDTO `json:"mission,omitempty"`
}

// handleSubmitProject handles POST /api/v1/students/{id}/projects
func (s *Server) handleSubmitProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.SubmitProjectHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Project handler not configured")
		return
	}

	var req submitProjectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitProjectHandler.Handle(r.Context(), command.SubmitProjectCommand{
		UserID:    userID,
		SubjectID: req.SubjectID,
		Title:     req.Title,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitProjectResponse{
		Accepted: true,
		Mission:  toMissionAdvanceDTO(result.Mission),
	})
}

type updatePreferencesRequest struct {
	Email    *bool `json:"email,omitempty"`
	Progress *bool `json:"progress,omitempty"`
	Learning *bool `json:"learning,omitempty"`
	Digest   *bool `json:"digest,omitempty"`
}

type preferencesResponse struct {
	Email    bool `json:"email"`
	Progress bool `json:"progress"`
	Learning bool `json:"learning"`
	Digest   bool `json:"digest"`
}

// handleUpdatePreferences handles PUT /api/v1/students/{id}/preferences
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}

	if s.deps.UpdatePreferencesHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Preferences handler not configured")
		return
	}

	var req updatePreferencesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	prefs, err := s.deps.UpdatePreferencesHandler.Handle(r.Context(), command.UpdatePreferencesCommand{
		UserID:   userID,
		Email:    req.Email,
		Progress: req.Progress,
		Learning: req.Learning,
		Digest:   req.Digest,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, preferencesResponse{
		Email:    prefs.EmailEnabled,
		Progress: prefs.ProgressEnabled,
		Learning: prefs.LearningEnabled,
		Digest:   prefs.DigestEnabled,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// pathUserID extracts and validates the {id} path segment.
func (s *Server) pathUserID(w http.ResponseWriter, r *http.Request) (shared.UserID, bool) {
	userID := shared.UserID(r.PathValue("id"))
	if !userID.IsValid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Valid student ID is required")
		return "", false
	}
	return userID, true
}

// pathInt64 parses a numeric path segment; returns 0 on failure.
func pathInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// decodeBody decodes the JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		s.logger.Warn("invalid request body",
			logger.Err(err),
			logger.String("path", r.URL.Path),
		)
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

func toXPGrantDTO(grant profile.LevelUpResult) xpGrantDTO {
	dto := xpGrantDTO{
		LeveledUp: grant.LeveledUp,
		OldLevel:  int(grant.OldLevel),
		NewLevel:  int(grant.NewLevel),
		NewXP:     int(grant.NewXP),
	}
	if grant.Event != nil {
		dto.Amount = grant.Event.Amount
	}
	return dto
}

func toMissionAdvanceDTO(advance *command.MissionAdvance) *missionAdvanceDTO {
	if advance == nil {
		return nil
	}
	return &missionAdvanceDTO{
		Code:          advance.MissionCode.String(),
		Progress:      advance.Outcome.Progress,
		JustCompleted: advance.Outcome.JustCompleted,
		RewardPoints:  advance.Outcome.RewardPoints,
		BadgeAwarded:  advance.BadgeAwarded,
	}
}
