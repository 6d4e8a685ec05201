package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// Lessons are returned in canonical order (scheduled_on, id) - the order
// the sequencer walks when computing the accessibility frontier.
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements lesson.Repository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// CreateSubject creates a subject and fills in its generated ID.
func (r *LessonRepository) CreateSubject(ctx context.Context, s *lesson.Subject) error {
	query := `
		INSERT INTO subjects (name, slug, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query, s.Name, string(s.Slug), s.Description, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("subject slug taken: %w", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subject: %w", err)
	}

	return nil
}

// GetSubject returns a subject by ID.
func (r *LessonRepository) GetSubject(ctx context.Context, id int64) (*lesson.Subject, error) {
	query := `SELECT id, name, slug, description, created_at FROM subjects WHERE id = $1`

	return scanSubject(r.conn.QueryRow(ctx, query, id))
}

// GetSubjectBySlug returns a subject by slug.
func (r *LessonRepository) GetSubjectBySlug(ctx context.Context, slug shared.Slug) (*lesson.Subject, error) {
	query := `SELECT id, name, slug, description, created_at FROM subjects WHERE slug = $1`

	return scanSubject(r.conn.QueryRow(ctx, query, string(slug)))
}

// ListSubjects returns all subjects in creation order.
func (r *LessonRepository) ListSubjects(ctx context.Context) ([]*lesson.Subject, error) {
	query := `SELECT id, name, slug, description, created_at FROM subjects ORDER BY id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*lesson.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}

	return subjects, rows.Err()
}

// CreateLesson creates a lesson and fills in its generated ID.
func (r *LessonRepository) CreateLesson(ctx context.Context, l *lesson.Lesson) error {
	query := `
		INSERT INTO lessons (
			subject_id, title, content, scheduled_on, required,
			xp_reward, duration_minutes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.conn.QueryRow(ctx, query,
		l.SubjectID,
		l.Title,
		l.Content,
		l.ScheduledOn.Time(time.UTC),
		l.Required,
		l.XPReward,
		l.DurationMinutes,
		l.CreatedAt,
	).Scan(&id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return lesson.ErrSubjectNotFound
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	l.ID = shared.LessonID(id)
	return nil
}

const lessonColumns = `id, subject_id, title, content, scheduled_on, required,
		   xp_reward, duration_minutes, created_at`

// GetLesson returns a lesson by ID.
func (r *LessonRepository) GetLesson(ctx context.Context, id shared.LessonID) (*lesson.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1`, lessonColumns)

	return scanLesson(r.conn.QueryRow(ctx, query, int64(id)))
}

// ListBySubject returns a subject's lessons in canonical order.
func (r *LessonRepository) ListBySubject(ctx context.Context, subjectID int64) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE subject_id = $1
		ORDER BY scheduled_on, id
	`, lessonColumns)

	return r.queryLessons(ctx, query, subjectID)
}

// ListAll returns all lessons in canonical order within each subject.
func (r *LessonRepository) ListAll(ctx context.Context) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		ORDER BY subject_id, scheduled_on, id
	`, lessonColumns)

	return r.queryLessons(ctx, query)
}

func (r *LessonRepository) queryLessons(ctx context.Context, query string, args ...interface{}) ([]*lesson.Lesson, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*lesson.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}

	return lessons, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanSubject(row pgx.Row) (*lesson.Subject, error) {
	var (
		s    lesson.Subject
		slug string
	)

	err := row.Scan(&s.ID, &s.Name, &slug, &s.Description, &s.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}

	s.Slug = shared.Slug(slug)
	return &s, nil
}

func scanLesson(row pgx.Row) (*lesson.Lesson, error) {
	var (
		l           lesson.Lesson
		id          int64
		scheduledOn time.Time
	)

	err := row.Scan(
		&id,
		&l.SubjectID,
		&l.Title,
		&l.Content,
		&scheduledOn,
		&l.Required,
		&l.XPReward,
		&l.DurationMinutes,
		&l.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	l.ID = shared.LessonID(id)
	l.ScheduledOn = shared.DateOf(scheduledOn)
	return &l, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository implements lesson.CompletionRepository for PostgreSQL.
type CompletionRepository struct {
	conn *Connection
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(conn *Connection) *CompletionRepository {
	return &CompletionRepository{conn: conn}
}

// Upsert records a lesson completion. The first write creates the row;
// a repeat can only improve the best duration. The first completion moment
// is never rewritten.
func (r *CompletionRepository) Upsert(
	ctx context.Context,
	userID shared.UserID,
	lessonID shared.LessonID,
	completedAt time.Time,
	duration time.Duration,
) (bool, error) {
	seconds := int64(duration / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	insert := `
		INSERT INTO lesson_completions (user_id, lesson_id, completed_at, best_duration_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, insert, string(userID), int64(lessonID), completedAt, seconds)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return false, lesson.ErrLessonNotFound
		}
		return false, fmt.Errorf("failed to insert completion: %w", err)
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}

	// Row already exists: improve best time only.
	if seconds > 0 {
		improve := `
			UPDATE lesson_completions
			SET best_duration_seconds = $3
			WHERE user_id = $1 AND lesson_id = $2
			  AND (best_duration_seconds = 0 OR best_duration_seconds > $3)
		`
		if _, err := r.conn.Exec(ctx, improve, string(userID), int64(lessonID), seconds); err != nil {
			return false, fmt.Errorf("failed to improve completion: %w", err)
		}
	}

	return false, nil
}

// Get returns a completion record.
func (r *CompletionRepository) Get(ctx context.Context, userID shared.UserID, lessonID shared.LessonID) (*lesson.Completion, error) {
	query := `
		SELECT user_id, lesson_id, completed_at, best_duration_seconds
		FROM lesson_completions
		WHERE user_id = $1 AND lesson_id = $2
	`

	var (
		c       lesson.Completion
		uid     string
		lid     int64
		seconds int64
	)
	err := r.conn.QueryRow(ctx, query, string(userID), int64(lessonID)).Scan(
		&uid, &lid, &c.CompletedAt, &seconds,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}

	c.UserID = shared.UserID(uid)
	c.LessonID = shared.LessonID(lid)
	c.BestDuration = time.Duration(seconds) * time.Second

	return &c, nil
}

// ListCompletedIDs returns the set of lessons the user has completed.
func (r *CompletionRepository) ListCompletedIDs(ctx context.Context, userID shared.UserID) (map[shared.LessonID]bool, error) {
	query := `SELECT lesson_id FROM lesson_completions WHERE user_id = $1`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query completed lessons: %w", err)
	}
	defer rows.Close()

	completed := make(map[shared.LessonID]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan completed lesson: %w", err)
		}
		completed[shared.LessonID(id)] = true
	}

	return completed, rows.Err()
}

// CountByUser returns the number of lessons the user has completed.
func (r *CompletionRepository) CountByUser(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM lesson_completions WHERE user_id = $1`,
		string(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}

	return count, nil
}

// CountCompletedToday returns the number of lessons the user completed
// on the given calendar day.
func (r *CompletionRepository) CountCompletedToday(ctx context.Context, userID shared.UserID, day shared.Date) (int, error) {
	dayStart := day.Time(time.UTC)

	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM lesson_completions
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
	`, string(userID), dayStart, dayStart.AddDate(0, 0, 1)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's completions: %w", err)
	}

	return count, nil
}
