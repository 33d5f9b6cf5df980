package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/ranking"
)

// StudentFilter selects whose karma is ranked. Since nil ranks wallet totals,
// otherwise approved karma created at or after Since.
type StudentFilter struct {
	Role  string
	OrgID string
	Since *time.Time
}

// OrgScoreFilter ranks organizations of one type inside an optional region
type OrgScoreFilter struct {
	OrgType models.OrgType
	Scope   models.LocationLevel
	ScopeID string
	Since   *time.Time
}

// RegionFilter ranks regions of one level under an optional parent
type RegionFilter struct {
	Level    models.LocationLevel
	ParentID string
	Since    *time.Time
}

// ILeaderboardRepository loads unranked scores; ordering and ranks are
// computed by the ranking package
type ILeaderboardRepository interface {
	StudentScores(ctx context.Context, f StudentFilter) ([]ranking.Entry, error)
	OrganizationScores(ctx context.Context, f OrgScoreFilter) ([]ranking.Entry, error)
	RegionScores(ctx context.Context, f RegionFilter) ([]ranking.Entry, error)
}

// LeaderboardRepository aggregates karma scores
type LeaderboardRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewLeaderboardRepository creates a new LeaderboardRepository
func NewLeaderboardRepository(q db.Querier) *LeaderboardRepository {
	return &LeaderboardRepository{db: q, sb: newBuilder()}
}

// scoreJoin joins a per-user score relation aliased s(user_id, karma)
func scoreJoin(kind, userColumn string, since *time.Time) squirrel.Sqlizer {
	if since == nil {
		return squirrel.Expr(kind + " wallets s ON s.user_id = " + userColumn)
	}
	return squirrel.Expr(kind+` (
		SELECT user_id, SUM(karma)::BIGINT AS karma
		FROM karma_activity_logs
		WHERE appraiser_approved AND created_at >= ?
		GROUP BY user_id
	) s ON s.user_id = `+userColumn, *since)
}

// StudentScores lists users holding f.Role with a positive score
func (r *LeaderboardRepository) StudentScores(ctx context.Context, f StudentFilter) ([]ranking.Entry, error) {
	q := r.sb.Select("u.id", "u.full_name", "s.karma").
		From("users u").
		JoinClause(scoreJoin("JOIN", "u.id", f.Since)).
		Join("user_role_links rl ON rl.user_id = u.id AND rl.verified").
		Join("roles r ON r.id = rl.role_id").
		Where(squirrel.Eq{"r.title": f.Role, "u.active": true}).
		Where("s.karma > 0")

	if f.OrgID != "" {
		q = q.Where(`EXISTS (
			SELECT 1 FROM user_organization_links ol
			WHERE ol.user_id = u.id AND ol.org_id = ? AND ol.verified)`, f.OrgID)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("student scores", err)
	}
	return r.entries(ctx, sql, args)
}

var orgScopeColumns = map[models.LocationLevel]string{
	models.LevelDistrict: "o.district_id",
	models.LevelZone:     "d.zone_id",
	models.LevelState:    "z.state_id",
	models.LevelCountry:  "st.country_id",
}

// OrganizationScores sums member scores per organization
func (r *LeaderboardRepository) OrganizationScores(ctx context.Context, f OrgScoreFilter) ([]ranking.Entry, error) {
	q := r.sb.Select("o.id", "o.title", "COALESCE(SUM(s.karma), 0)::BIGINT").
		From("organizations o").
		LeftJoin("districts d ON d.id = o.district_id").
		LeftJoin("zones z ON z.id = d.zone_id").
		LeftJoin("states st ON st.id = z.state_id").
		LeftJoin("user_organization_links ol ON ol.org_id = o.id AND ol.verified").
		JoinClause(scoreJoin("LEFT JOIN", "ol.user_id", f.Since)).
		Where(squirrel.Eq{"o.org_type": string(f.OrgType)}).
		GroupBy("o.id", "o.title")

	if f.ScopeID != "" {
		column, ok := orgScopeColumns[f.Scope]
		if !ok {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown scope %q", f.Scope))
		}
		q = q.Where(squirrel.Eq{column: f.ScopeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("organization scores", err)
	}
	return r.entries(ctx, sql, args)
}

type regionQuery struct {
	table        string
	parentColumn string
	joins        []string
}

var regionQueries = map[models.LocationLevel]regionQuery{
	models.LevelDistrict: {
		table:        "districts",
		parentColumn: "g.zone_id",
		joins:        []string{"organizations o ON o.district_id = g.id"},
	},
	models.LevelZone: {
		table:        "zones",
		parentColumn: "g.state_id",
		joins: []string{
			"districts d ON d.zone_id = g.id",
			"organizations o ON o.district_id = d.id",
		},
	},
	models.LevelState: {
		table:        "states",
		parentColumn: "g.country_id",
		joins: []string{
			"zones z ON z.state_id = g.id",
			"districts d ON d.zone_id = z.id",
			"organizations o ON o.district_id = d.id",
		},
	},
}

// RegionScores sums member scores of the organizations inside each region
func (r *LeaderboardRepository) RegionScores(ctx context.Context, f RegionFilter) ([]ranking.Entry, error) {
	rq, ok := regionQueries[f.Level]
	if !ok {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown region level %q", f.Level))
	}

	q := r.sb.Select("g.id", "g.name", "COALESCE(SUM(s.karma), 0)::BIGINT").
		From(rq.table + " g")
	for _, j := range rq.joins {
		q = q.LeftJoin(j)
	}
	q = q.LeftJoin("user_organization_links ol ON ol.org_id = o.id AND ol.verified").
		JoinClause(scoreJoin("LEFT JOIN", "ol.user_id", f.Since)).
		GroupBy("g.id", "g.name")

	if f.ParentID != "" {
		q = q.Where(squirrel.Eq{rq.parentColumn: f.ParentID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("region scores", err)
	}
	return r.entries(ctx, sql, args)
}

func (r *LeaderboardRepository) entries(ctx context.Context, sql string, args []any) ([]ranking.Entry, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying scores: %w", err)
	}
	defer rows.Close()

	entries := []ranking.Entry{}
	for rows.Next() {
		var e ranking.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score); err != nil {
			return nil, fmt.Errorf("error scanning score: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
