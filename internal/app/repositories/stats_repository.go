package repositories

import (
	"context"
	"fmt"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
)

// IStatsRepository computes public counters
type IStatsRepository interface {
	LandingCounts(ctx context.Context) (*models.LandingCounts, error)
}

// StatsRepository handles aggregate counters
type StatsRepository struct {
	db db.Querier
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(q db.Querier) *StatsRepository {
	return &StatsRepository{db: q}
}

const landingCountsSQL = `
	SELECT
		(SELECT COUNT(*) FROM users WHERE active),
		(SELECT COUNT(*) FROM organizations WHERE org_type = 'College'),
		(SELECT COUNT(*) FROM organizations WHERE org_type = 'Company'),
		(SELECT COUNT(*) FROM organizations WHERE org_type = 'Community'),
		(SELECT COUNT(*) FROM learning_circles),
		(SELECT COALESCE(SUM(karma), 0)::BIGINT FROM wallets)`

// LandingCounts loads all landing page counters in one round trip
func (r *StatsRepository) LandingCounts(ctx context.Context) (*models.LandingCounts, error) {
	c := &models.LandingCounts{}
	err := r.db.QueryRow(ctx, landingCountsSQL).Scan(
		&c.Members, &c.Colleges, &c.Companies, &c.Communities, &c.LearningCircles, &c.TotalKarma)
	if err != nil {
		return nil, fmt.Errorf("error loading landing counts: %w", err)
	}
	return c, nil
}
