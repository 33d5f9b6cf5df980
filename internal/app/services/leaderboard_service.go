package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/gtech-mulearn/mulearn/internal/pkg/ranking"
)

// Leaderboard periods
const (
	PeriodAll     = "all"
	PeriodMonthly = "monthly"
)

// Leaderboard limits
const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// StudentBoardQuery selects a student leaderboard
type StudentBoardQuery struct {
	Period string
	Role   string
	OrgID  string
	Limit  int
}

// OrganizationBoardQuery selects an organization leaderboard
type OrganizationBoardQuery struct {
	OrgType models.OrgType
	Scope   models.LocationLevel
	ScopeID string
	Period  string
	Limit   int
}

// RegionBoardQuery selects a region leaderboard
type RegionBoardQuery struct {
	Level    models.LocationLevel
	ParentID string
	Period   string
	Limit    int
}

// LeaderboardService ranks students, organizations and regions
type LeaderboardService interface {
	Students(ctx context.Context, q StudentBoardQuery) ([]dto.LeaderboardEntry, error)
	Organizations(ctx context.Context, q OrganizationBoardQuery) ([]dto.LeaderboardEntry, error)
	Regions(ctx context.Context, q RegionBoardQuery) ([]dto.LeaderboardEntry, error)
	UserRank(ctx context.Context, userID string) (*dto.UserRankResponse, error)
}

type leaderboardServiceImpl struct {
	repos    *repositories.Repositories
	location *time.Location
	now      func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService. Monthly boards
// start at midnight on the first of the month in loc.
func NewLeaderboardService(repos *repositories.Repositories, loc *time.Location) LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &leaderboardServiceImpl{repos: repos, location: loc, now: time.Now}
}

// Students ranks users holding a role, Student by default
func (s *leaderboardServiceImpl) Students(ctx context.Context, q StudentBoardQuery) ([]dto.LeaderboardEntry, error) {
	since, err := s.since(q.Period)
	if err != nil {
		return nil, err
	}

	role := q.Role
	if role == "" {
		role = models.RoleStudent
	}

	entries, err := s.repos.Leaderboard.StudentScores(ctx, repositories.StudentFilter{
		Role:  role,
		OrgID: q.OrgID,
		Since: since,
	})
	if err != nil {
		return nil, err
	}
	return toLeaderboard(ranking.Top(entries, clampLimit(q.Limit))), nil
}

// Organizations ranks organizations of one type by the sum of member scores
func (s *leaderboardServiceImpl) Organizations(ctx context.Context, q OrganizationBoardQuery) ([]dto.LeaderboardEntry, error) {
	if !q.OrgType.Valid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown organization type %q", q.OrgType))
	}
	if q.Scope != "" && q.ScopeID == "" {
		return nil, apperrors.NewBadRequestError("scopeId is required when scope is set")
	}

	since, err := s.since(q.Period)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.Leaderboard.OrganizationScores(ctx, repositories.OrgScoreFilter{
		OrgType: q.OrgType,
		Scope:   q.Scope,
		ScopeID: q.ScopeID,
		Since:   since,
	})
	if err != nil {
		return nil, err
	}
	return toLeaderboard(ranking.Top(entries, clampLimit(q.Limit))), nil
}

// Regions ranks districts, zones or states by the scores of their organizations
func (s *leaderboardServiceImpl) Regions(ctx context.Context, q RegionBoardQuery) ([]dto.LeaderboardEntry, error) {
	since, err := s.since(q.Period)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.Leaderboard.RegionScores(ctx, repositories.RegionFilter{
		Level:    q.Level,
		ParentID: q.ParentID,
		Since:    since,
	})
	if err != nil {
		return nil, err
	}
	return toLeaderboard(ranking.Top(entries, clampLimit(q.Limit))), nil
}

// UserRank places the user among all students, overall and this month. A
// user without karma still gets a rank behind everyone who has some.
func (s *leaderboardServiceImpl) UserRank(ctx context.Context, userID string) (*dto.UserRankResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.repos.Wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	monthStart := helpers.StartOfMonth(s.now(), s.location)
	monthly, err := s.repos.Karma.SumApprovedSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	all, err := s.repos.Leaderboard.StudentScores(ctx, repositories.StudentFilter{Role: models.RoleStudent})
	if err != nil {
		return nil, err
	}
	month, err := s.repos.Leaderboard.StudentScores(ctx, repositories.StudentFilter{Role: models.RoleStudent, Since: &monthStart})
	if err != nil {
		return nil, err
	}

	return &dto.UserRankResponse{
		MUID:         user.MUID,
		FullName:     user.FullName,
		Karma:        wallet.Karma,
		Rank:         ranking.RankOf(wallet.Karma, scores(all)),
		MonthlyKarma: monthly,
		MonthlyRank:  ranking.RankOf(monthly, scores(month)),
	}, nil
}

func (s *leaderboardServiceImpl) since(period string) (*time.Time, error) {
	switch period {
	case "", PeriodAll:
		return nil, nil
	case PeriodMonthly:
		start := helpers.StartOfMonth(s.now(), s.location)
		return &start, nil
	default:
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown period %q", period))
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

func scores(entries []ranking.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}

func toLeaderboard(ranked []ranking.Ranked) []dto.LeaderboardEntry {
	out := make([]dto.LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		out[i] = dto.LeaderboardEntry{Rank: r.Rank, ID: r.ID, Name: r.Name, Score: r.Score}
	}
	return out
}
