package postgres

import (
	"context"
	"fmt"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE REPOSITORY IMPLEMENTATION
// Award idempotence rests on the (user_id, badge_slug) primary key:
// ON CONFLICT DO NOTHING turns a repeat award into a reported no-op.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRepository implements badge.Repository for PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

// EnsureBadge creates a badge template if it does not exist yet.
func (r *BadgeRepository) EnsureBadge(ctx context.Context, b *badge.Badge) error {
	query := `
		INSERT INTO badges (slug, name, rule, threshold, xp_reward, icon, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		string(b.Slug),
		b.Name,
		string(b.Rule),
		b.Threshold,
		b.XPReward,
		b.Icon,
		b.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure badge: %w", err)
	}

	return nil
}

// GetBadge returns a badge template by slug.
func (r *BadgeRepository) GetBadge(ctx context.Context, slug shared.Slug) (*badge.Badge, error) {
	query := `
		SELECT slug, name, rule, threshold, xp_reward, icon, color
		FROM badges
		WHERE slug = $1
	`

	var (
		b       badge.Badge
		slugCol string
		ruleCol string
	)
	err := r.conn.QueryRow(ctx, query, string(slug)).Scan(
		&slugCol, &b.Name, &ruleCol, &b.Threshold, &b.XPReward, &b.Icon, &b.Color,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, badge.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}

	b.Slug = shared.Slug(slugCol)
	b.Rule = badge.RuleKind(ruleCol)

	return &b, nil
}

// EnsureAward creates an award record if it does not exist yet.
// Returns created=true only when a row was actually inserted.
func (r *BadgeRepository) EnsureAward(ctx context.Context, award badge.Award) (bool, error) {
	query := `
		INSERT INTO badge_awards (user_id, badge_slug, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_slug) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		string(award.UserID),
		string(award.BadgeSlug),
		award.AwardedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to ensure badge award: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListAwards returns the user's awards, newest first.
func (r *BadgeRepository) ListAwards(ctx context.Context, userID shared.UserID) ([]badge.Award, error) {
	query := `
		SELECT user_id, badge_slug, awarded_at
		FROM badge_awards
		WHERE user_id = $1
		ORDER BY awarded_at DESC, badge_slug
	`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query badge awards: %w", err)
	}
	defer rows.Close()

	var awards []badge.Award
	for rows.Next() {
		var (
			a    badge.Award
			uid  string
			slug string
		)
		if err := rows.Scan(&uid, &slug, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge award: %w", err)
		}
		a.UserID = shared.UserID(uid)
		a.BadgeSlug = shared.Slug(slug)
		awards = append(awards, a)
	}

	return awards, rows.Err()
}

// ListAwardedSlugs returns the set of badge slugs awarded to the user.
func (r *BadgeRepository) ListAwardedSlugs(ctx context.Context, userID shared.UserID) (map[shared.Slug]bool, error) {
	query := `SELECT badge_slug FROM badge_awards WHERE user_id = $1`

	rows, err := r.conn.Query(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query awarded slugs: %w", err)
	}
	defer rows.Close()

	slugs := make(map[shared.Slug]bool)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan awarded slug: %w", err)
		}
		slugs[shared.Slug(slug)] = true
	}

	return slugs, rows.Err()
}

// EnsureReward creates a legacy counter reward if it does not exist yet.
func (r *BadgeRepository) EnsureReward(ctx context.Context, reward badge.Reward) (bool, error) {
	query := `
		INSERT INTO rewards (user_id, name, description, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		string(reward.UserID),
		reward.Name,
		reward.Description,
		reward.AwardedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to ensure reward: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
