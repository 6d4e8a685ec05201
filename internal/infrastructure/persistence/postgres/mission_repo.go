package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MissionRepository implements mission.Repository for PostgreSQL.
type MissionRepository struct {
	conn *Connection
}

// NewMissionRepository creates a new MissionRepository.
func NewMissionRepository(conn *Connection) *MissionRepository {
	return &MissionRepository{conn: conn}
}

const missionColumns = `code, title, description, frequency, target_value,
		   reward_points, reward_badge, icon, color, active`

// EnsureMission creates a mission template if it does not exist yet.
// An existing template is left untouched, so seeding is idempotent.
func (r *MissionRepository) EnsureMission(ctx context.Context, m *mission.Mission) error {
	query := `
		INSERT INTO missions (
			code, title, description, frequency, target_value,
			reward_points, reward_badge, icon, color, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		string(m.Code),
		m.Title,
		m.Description,
		string(m.Frequency),
		m.TargetValue,
		m.RewardPoints,
		string(m.RewardBadge),
		m.Icon,
		m.Color,
		m.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure mission: %w", err)
	}

	return nil
}

// GetMission returns a mission template by code.
func (r *MissionRepository) GetMission(ctx context.Context, code shared.Slug) (*mission.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions WHERE code = $1`, missionColumns)

	return scanMission(r.conn.QueryRow(ctx, query, string(code)))
}

// ListActive returns all active mission templates.
func (r *MissionRepository) ListActive(ctx context.Context) ([]*mission.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions WHERE active ORDER BY code`, missionColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active missions: %w", err)
	}
	defer rows.Close()

	var missions []*mission.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}

	return missions, rows.Err()
}

// GetOrCreateState returns the state for a (user, mission) pair, inserting
// an empty row when none exists. The primary key keeps this idempotent under
// concurrent calls.
func (r *MissionRepository) GetOrCreateState(ctx context.Context, userID shared.UserID, code shared.Slug) (*mission.State, error) {
	insert := `
		INSERT INTO mission_states (user_id, mission_code, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, mission_code) DO NOTHING
	`

	if _, err := r.conn.Exec(ctx, insert, string(userID), string(code)); err != nil {
		return nil, fmt.Errorf("failed to ensure mission state: %w", err)
	}

	query := `
		SELECT user_id, mission_code, progress, completed, completed_at, last_reset, updated_at
		FROM mission_states
		WHERE user_id = $1 AND mission_code = $2
	`

	return scanMissionState(r.conn.QueryRow(ctx, query, string(userID), string(code)))
}

// SaveState writes the state unconditionally.
func (r *MissionRepository) SaveState(ctx context.Context, st *mission.State) error {
	query := `
		INSERT INTO mission_states (
			user_id, mission_code, progress, completed, completed_at, last_reset, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, mission_code) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			last_reset = EXCLUDED.last_reset,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(st.UserID),
		string(st.MissionCode),
		st.Progress,
		st.Completed,
		st.CompletedAt,
		dateToSQL(st.LastReset),
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save mission state: %w", err)
	}

	return nil
}

// ListStates returns the user's states across all active missions.
func (r *MissionRepository) ListStates(ctx context.Context, userID shared.UserID) ([]*mission.State, error) {
	query := `
		SELECT s.user_id, s.mission_code, s.progress, s.completed,
			   s.completed_at, s.last_reset, s.updated_at
		FROM mission_states s
		JOIN missions m ON m.code = s.mission_code
		WHERE s.user_id = $1 AND m.active
		ORDER BY s.mission_code
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query mission states: %w", err)
	}
	defer rows.Close()

	var states []*mission.State
	for rows.Next() {
		st, err := scanMissionState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	return states, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanMission(row pgx.Row) (*mission.Mission, error) {
	var (
		m           mission.Mission
		code        string
		frequency   string
		rewardBadge string
	)

	err := row.Scan(
		&code,
		&m.Title,
		&m.Description,
		&frequency,
		&m.TargetValue,
		&m.RewardPoints,
		&rewardBadge,
		&m.Icon,
		&m.Color,
		&m.Active,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, mission.ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}

	m.Code = shared.Slug(code)
	m.Frequency = mission.Frequency(frequency)
	m.RewardBadge = shared.Slug(rewardBadge)

	return &m, nil
}

func scanMissionState(row pgx.Row) (*mission.State, error) {
	var (
		st        mission.State
		uid       string
		code      string
		lastReset *time.Time
	)

	err := row.Scan(
		&uid,
		&code,
		&st.Progress,
		&st.Completed,
		&st.CompletedAt,
		&lastReset,
		&st.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, mission.ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to scan mission state: %w", err)
	}

	st.UserID = shared.UserID(uid)
	st.MissionCode = shared.Slug(code)
	if lastReset != nil {
		st.LastReset = shared.DateOf(*lastReset)
	}

	return &st, nil
}

// dateToSQL converts a domain date to a nullable SQL DATE value.
// The zero date maps to NULL.
func dateToSQL(d shared.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time(time.UTC)
	return &t
}
