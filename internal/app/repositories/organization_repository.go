package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
)

// OrganizationFilter narrows organization listings
type OrganizationFilter struct {
	OrgType    models.OrgType
	DistrictID string
	Search     string
}

// IOrganizationRepository defines read access to the location hierarchy and
// organizations
type IOrganizationRepository interface {
	ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error)
	List(ctx context.Context, f OrganizationFilter, offset, limit uint64) ([]models.Organization, int64, error)
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	GetDetail(ctx context.Context, id string) (*models.OrganizationDetail, error)
}

// OrganizationRepository handles organizations and locations
type OrganizationRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(q db.Querier) *OrganizationRepository {
	return &OrganizationRepository{db: q, sb: newBuilder()}
}

type locationTable struct {
	table        string
	parentColumn string
}

var locationTables = map[models.LocationLevel]locationTable{
	models.LevelCountry:  {table: "countries"},
	models.LevelState:    {table: "states", parentColumn: "country_id"},
	models.LevelZone:     {table: "zones", parentColumn: "state_id"},
	models.LevelDistrict: {table: "districts", parentColumn: "zone_id"},
}

// ListLocations lists one level of the hierarchy, optionally under parentID
func (r *OrganizationRepository) ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error) {
	lt, ok := locationTables[level]
	if !ok {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown location level %q", level))
	}

	parent := "''"
	if lt.parentColumn != "" {
		parent = lt.parentColumn + "::TEXT"
	}
	q := r.sb.Select("id", "name", parent).From(lt.table).OrderBy("name")
	if parentID != "" && lt.parentColumn != "" {
		q = q.Where(squirrel.Eq{lt.parentColumn: parentID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("list locations", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", lt.table, err)
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.ParentID); err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// List returns organizations matching f ordered by title
func (r *OrganizationRepository) List(ctx context.Context, f OrganizationFilter, offset, limit uint64) ([]models.Organization, int64, error) {
	base := r.sb.Select("id", "title", "code", "org_type", "district_id").From("organizations")
	if f.OrgType != "" {
		base = base.Where(squirrel.Eq{"org_type": string(f.OrgType)})
	}
	if f.DistrictID != "" {
		base = base.Where(squirrel.Eq{"district_id": f.DistrictID})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		base = base.Where(squirrel.Or{squirrel.ILike{"title": pattern}, squirrel.ILike{"code": pattern}})
	}

	sql, args, err := countQuery(base).ToSql()
	if err != nil {
		return nil, 0, buildErr("count organizations", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting organizations: %w", err)
	}

	sql, args, err = base.OrderBy("title", "id").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, buildErr("list organizations", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Title, &o.Code, &o.OrgType, &o.DistrictID); err != nil {
			return nil, 0, fmt.Errorf("error scanning organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, total, rows.Err()
}

// GetByID retrieves an organization
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	sql, args, err := r.sb.Select("id", "title", "code", "org_type", "district_id").
		From("organizations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, buildErr("get organization", err)
	}

	o := &models.Organization{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.Title, &o.Code, &o.OrgType, &o.DistrictID); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("organization not found")
		}
		return nil, fmt.Errorf("error retrieving organization: %w", err)
	}
	return o, nil
}

// GetDetail retrieves an organization with member count and total karma
func (r *OrganizationRepository) GetDetail(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	d := &models.OrganizationDetail{}
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.title, o.code, o.org_type, o.district_id, COALESCE(d.name, ''),
			COUNT(l.user_id), COALESCE(SUM(w.karma), 0)::BIGINT
		FROM organizations o
		LEFT JOIN districts d ON d.id = o.district_id
		LEFT JOIN user_organization_links l ON l.org_id = o.id AND l.verified
		LEFT JOIN wallets w ON w.user_id = l.user_id
		WHERE o.id = $1
		GROUP BY o.id, d.name`,
		id).Scan(&d.ID, &d.Title, &d.Code, &d.OrgType, &d.DistrictID, &d.DistrictName, &d.MemberCount, &d.TotalKarma)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("organization not found")
		}
		return nil, fmt.Errorf("error retrieving organization detail: %w", err)
	}
	return d, nil
}
