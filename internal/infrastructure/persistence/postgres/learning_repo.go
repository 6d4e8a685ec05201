package postgres

import (
	"context"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/application/command"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING RECORDS
// Append-only stores for quiz attempts and project submissions. Both feed
// the mission evaluator through their count queries.
// ══════════════════════════════════════════════════════════════════════════════

// QuizAttemptRepository implements command.QuizAttemptRepository for PostgreSQL.
type QuizAttemptRepository struct {
	conn *Connection
}

// NewQuizAttemptRepository creates a new QuizAttemptRepository.
func NewQuizAttemptRepository(conn *Connection) *QuizAttemptRepository {
	return &QuizAttemptRepository{conn: conn}
}

// Save appends an attempt record.
func (r *QuizAttemptRepository) Save(ctx context.Context, attempt command.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (user_id, quiz_id, correct, xp_earned)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query,
		string(attempt.UserID),
		attempt.QuizID,
		attempt.Correct,
		attempt.XPEarned,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz attempt: %w", err)
	}

	return nil
}

// CountCorrect returns the number of correct attempts by the user.
func (r *QuizAttemptRepository) CountCorrect(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1 AND correct`,
		string(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count correct attempts: %w", err)
	}

	return count, nil
}

// ProjectRepository implements command.ProjectRepository for PostgreSQL.
type ProjectRepository struct {
	conn *Connection
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(conn *Connection) *ProjectRepository {
	return &ProjectRepository{conn: conn}
}

// Save appends a submission record.
func (r *ProjectRepository) Save(ctx context.Context, submission command.ProjectSubmission) error {
	query := `
		INSERT INTO project_submissions (user_id, subject_id, title)
		VALUES ($1, $2, $3)
	`

	_, err := r.conn.Exec(ctx, query,
		string(submission.UserID),
		submission.SubjectID,
		submission.Title,
	)
	if err != nil {
		return fmt.Errorf("failed to save project submission: %w", err)
	}

	return nil
}

// CountByUser returns the number of submissions by the user.
func (r *ProjectRepository) CountByUser(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM project_submissions WHERE user_id = $1`,
		string(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count project submissions: %w", err)
	}

	return count, nil
}
