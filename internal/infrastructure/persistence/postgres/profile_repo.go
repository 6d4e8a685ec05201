package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `user_id, display_name, email, password_hash, role,
		   xp, level, streak, last_activity_at, created_at, updated_at`

// Create creates a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, display_name, email, password_hash, role,
			xp, level, streak, last_activity_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		string(p.UserID),
		p.DisplayName,
		p.Email,
		p.PasswordHash,
		string(p.Role),
		int(p.XP),
		int(p.Level),
		p.Streak,
		p.LastActivityAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return profile.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByUserID returns a profile by user ID.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1`, profileColumns)

	row := r.conn.QueryRow(ctx, query, string(userID))
	return scanProfile(row)
}

// GetByEmail returns a profile by email address.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE email = $1`, profileColumns)

	row := r.conn.QueryRow(ctx, query, email)
	return scanProfile(row)
}

// Update updates a profile.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	result, err := r.conn.Exec(ctx, updateProfileQuery, updateProfileArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return profile.ErrProfileNotFound
	}

	return nil
}

// AddExperience atomically applies an XP grant: the profile row is read
// under a row lock, mutated, and written back in a single transaction.
func (r *ProfileRepository) AddExperience(
	ctx context.Context,
	userID shared.UserID,
	mutate func(p *profile.Profile) (profile.LevelUpResult, error),
) (profile.LevelUpResult, error) {
	var result profile.LevelUpResult

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1 FOR UPDATE`, profileColumns)

		p, err := scanProfile(tx.QueryRow(ctx, query, string(userID)))
		if err != nil {
			return err
		}

		result, err = mutate(p)
		if err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, updateProfileQuery, updateProfileArgs(p)...)
		if err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return profile.ErrProfileNotFound
		}

		if result.Event != nil {
			if err := saveExperienceEvent(ctx, tx, *result.Event); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return profile.LevelUpResult{}, err
	}

	return result, nil
}

// SaveExperienceEvent persists an immutable ledger record.
func (r *ProfileRepository) SaveExperienceEvent(ctx context.Context, event profile.ExperienceEvent) error {
	return saveExperienceEvent(ctx, r.conn, event)
}

func saveExperienceEvent(ctx context.Context, q Querier, event profile.ExperienceEvent) error {
	query := `
		INSERT INTO experience_events (user_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.Exec(ctx, query, string(event.UserID), event.Amount, event.Reason, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save experience event: %w", err)
	}

	return nil
}

// GetExperienceEvents returns the most recent grants for a user, newest first.
func (r *ProfileRepository) GetExperienceEvents(ctx context.Context, userID shared.UserID, limit int) ([]profile.ExperienceEvent, error) {
	query := `
		SELECT user_id, amount, reason, created_at
		FROM experience_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, string(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query experience events: %w", err)
	}
	defer rows.Close()

	events := make([]profile.ExperienceEvent, 0, limit)
	for rows.Next() {
		var (
			uid    string
			event  profile.ExperienceEvent
			stamp  time.Time
			reason string
		)
		if err := rows.Scan(&uid, &event.Amount, &reason, &stamp); err != nil {
			return nil, fmt.Errorf("failed to scan experience event: %w", err)
		}
		event.UserID = shared.UserID(uid)
		event.Reason = reason
		event.Timestamp = stamp
		events = append(events, event)
	}

	return events, rows.Err()
}

// GetTopByXP returns profiles ordered by XP descending, ties by user ID.
func (r *ProfileRepository) GetTopByXP(ctx context.Context, limit int) ([]*profile.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM profiles
		ORDER BY xp DESC, user_id ASC
		LIMIT $1
	`, profileColumns)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*profile.Profile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Count returns the total number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

const updateProfileQuery = `
	UPDATE profiles SET
		display_name = $1,
		email = $2,
		password_hash = $3,
		role = $4,
		xp = $5,
		level = $6,
		streak = $7,
		last_activity_at = $8,
		updated_at = $9
	WHERE user_id = $10
`

func updateProfileArgs(p *profile.Profile) []interface{} {
	return []interface{}{
		p.DisplayName,
		p.Email,
		p.PasswordHash,
		string(p.Role),
		int(p.XP),
		int(p.Level),
		p.Streak,
		p.LastActivityAt,
		p.UpdatedAt,
		string(p.UserID),
	}
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p    profile.Profile
		uid  string
		role string
		xp   int
		lvl  int
	)

	err := row.Scan(
		&uid,
		&p.DisplayName,
		&p.Email,
		&p.PasswordHash,
		&role,
		&xp,
		&lvl,
		&p.Streak,
		&p.LastActivityAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.UserID = shared.UserID(uid)
	p.Role = profile.Role(role)
	p.XP = shared.XP(xp)
	p.Level = shared.Level(lvl)

	return &p, nil
}
