// Package seed provides idempotent seeding of default platform data.
// Mission templates and milestone badges are created once at service
// startup instead of get-or-create checks on every read path.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
)

// Seeder creates the default mission templates and milestone badges.
type Seeder struct {
	missions mission.Repository
	badges   badge.Repository
	logger   *slog.Logger
}

// NewSeeder creates a new Seeder.
func NewSeeder(missions mission.Repository, badges badge.Repository, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		missions: missions,
		badges:   badges,
		logger:   logger,
	}
}

// Run seeds all default data. Existing rows are left untouched, so the
// call is safe on every startup.
func (s *Seeder) Run(ctx context.Context) error {
	seeded := 0
	for _, m := range mission.Defaults() {
		if err := s.missions.EnsureMission(ctx, m); err != nil {
			return fmt.Errorf("seed: ensure mission %s: %w", m.Code, err)
		}
		seeded++
	}

	for _, milestone := range badge.LessonMilestones() {
		if err := s.badges.EnsureBadge(ctx, milestone.Template()); err != nil {
			return fmt.Errorf("seed: ensure badge %s: %w", milestone.Slug, err)
		}
		seeded++
	}

	s.logger.Info("default data seeded", "templates", seeded)
	return nil
}
