package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/dberrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/logger"
)

// CircleFilter narrows circle listings
type CircleFilter struct {
	OrgID  string
	Search string
}

// ICircleRepository defines learning circle and membership operations
type ICircleRepository interface {
	Create(ctx context.Context, circle *models.LearningCircle) error
	GetByID(ctx context.Context, id string) (*models.LearningCircle, error)
	GetForUpdate(ctx context.Context, id string) (*models.LearningCircle, error)
	List(ctx context.Context, f CircleFilter, offset, limit uint64) ([]models.LearningCircle, int64, error)
	Delete(ctx context.Context, id string) error
	SetLead(ctx context.Context, circleID string, leadID *string) error

	AddMember(ctx context.Context, circleID, userID string, lead bool, accepted *bool) error
	GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error)
	ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error)
	CountAccepted(ctx context.Context, circleID string) (int, error)
	AcceptMember(ctx context.Context, circleID, userID string, at time.Time) error
	RemoveMember(ctx context.Context, circleID, userID string) error
	SetMemberLead(ctx context.Context, circleID, userID string, lead bool) error
}

// CircleRepository handles learning_circles and user_circle_links
type CircleRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewCircleRepository creates a new CircleRepository
func NewCircleRepository(q db.Querier) *CircleRepository {
	return &CircleRepository{db: q, sb: newBuilder()}
}

const acceptedCountColumn = `(SELECT COUNT(*) FROM user_circle_links m WHERE m.circle_id = c.id AND m.accepted) AS member_count`

func (r *CircleRepository) selectCircles() squirrel.SelectBuilder {
	return r.sb.Select("c.id", "c.name", "c.circle_code", "c.org_id", "c.lead_id", "c.meet_place", "c.note", "c.created_at", acceptedCountColumn).
		From("learning_circles c")
}

func scanCircle(row interface{ Scan(...any) error }, c *models.LearningCircle) error {
	return row.Scan(&c.ID, &c.Name, &c.CircleCode, &c.OrgID, &c.LeadID, &c.MeetPlace, &c.Note, &c.CreatedAt, &c.MemberCount)
}

// Create inserts a circle. A code collision returns ErrConflict so the
// caller can retry with a new code.
func (r *CircleRepository) Create(ctx context.Context, c *models.LearningCircle) error {
	sql, args, err := r.sb.Insert("learning_circles").
		Columns("name", "circle_code", "org_id", "lead_id", "meet_place", "note").
		Values(c.Name, c.CircleCode, c.OrgID, c.LeadID, c.MeetPlace, c.Note).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return buildErr("create circle", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "learning_circles_code_key") {
			return apperrors.NewConflictError("circle code already in use")
		}
		logger.Error().Err(err).Str("name", c.Name).Msg("Error executing create circle query")
		return fmt.Errorf("error creating circle: %w", err)
	}
	return nil
}

func (r *CircleRepository) get(ctx context.Context, id string, lock bool) (*models.LearningCircle, error) {
	q := r.selectCircles().Where(squirrel.Eq{"c.id": id})
	if lock {
		q = q.Suffix("FOR UPDATE OF c")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, buildErr("get circle", err)
	}

	c := &models.LearningCircle{}
	if err := scanCircle(r.db.QueryRow(ctx, sql, args...), c); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrCircleNotFound
		}
		return nil, fmt.Errorf("error retrieving circle: %w", err)
	}
	return c, nil
}

// GetByID retrieves a circle with its accepted member count
func (r *CircleRepository) GetByID(ctx context.Context, id string) (*models.LearningCircle, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves and locks a circle, serializing membership and
// meeting changes
func (r *CircleRepository) GetForUpdate(ctx context.Context, id string) (*models.LearningCircle, error) {
	return r.get(ctx, id, true)
}

// List returns circles matching f, newest first
func (r *CircleRepository) List(ctx context.Context, f CircleFilter, offset, limit uint64) ([]models.LearningCircle, int64, error) {
	base := r.selectCircles()
	if f.OrgID != "" {
		base = base.Where(squirrel.Eq{"c.org_id": f.OrgID})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		base = base.Where(squirrel.Or{
			squirrel.ILike{"c.name": pattern},
			squirrel.ILike{"c.circle_code": pattern},
		})
	}

	sql, args, err := countQuery(base).ToSql()
	if err != nil {
		return nil, 0, buildErr("count circles", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting circles: %w", err)
	}

	sql, args, err = base.OrderBy("c.created_at DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, buildErr("list circles", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing circles: %w", err)
	}
	defer rows.Close()

	circles := []models.LearningCircle{}
	for rows.Next() {
		var c models.LearningCircle
		if err := scanCircle(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("error scanning circle: %w", err)
		}
		circles = append(circles, c)
	}
	return circles, total, rows.Err()
}

// Delete removes a circle with its links and meetings
func (r *CircleRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.sb.Delete("learning_circles").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return buildErr("delete circle", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting circle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCircleNotFound
	}
	return nil
}

// SetLead updates the circle's lead reference
func (r *CircleRepository) SetLead(ctx context.Context, circleID string, leadID *string) error {
	sql, args, err := r.sb.Update("learning_circles").
		Set("lead_id", leadID).
		Where(squirrel.Eq{"id": circleID}).
		ToSql()
	if err != nil {
		return buildErr("set circle lead", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error setting circle lead: %w", err)
	}
	return nil
}

// AddMember creates a membership row; accepted nil means a pending request
func (r *CircleRepository) AddMember(ctx context.Context, circleID, userID string, lead bool, accepted *bool) error {
	var acceptedAt *time.Time
	if accepted != nil && *accepted {
		now := time.Now()
		acceptedAt = &now
	}

	sql, args, err := r.sb.Insert("user_circle_links").
		Columns("user_id", "circle_id", "lead", "accepted", "accepted_at").
		Values(userID, circleID, lead, accepted, acceptedAt).
		ToSql()
	if err != nil {
		return buildErr("add circle member", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "user_circle_links_user_circle_key") {
			return apperrors.ErrAlreadyCircleMember
		}
		return fmt.Errorf("error adding circle member: %w", err)
	}
	return nil
}

func (r *CircleRepository) selectMembers() squirrel.SelectBuilder {
	return r.sb.Select("l.user_id", "u.full_name", "u.muid", "l.lead", "l.accepted", "l.accepted_at", "l.created_at").
		From("user_circle_links l").
		Join("users u ON u.id = l.user_id")
}

func scanMember(row interface{ Scan(...any) error }, m *models.CircleMember) error {
	return row.Scan(&m.UserID, &m.FullName, &m.MUID, &m.Lead, &m.Accepted, &m.AcceptedAt, &m.CreatedAt)
}

// GetMember retrieves one membership row, pending or accepted
func (r *CircleRepository) GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error) {
	sql, args, err := r.selectMembers().
		Where(squirrel.Eq{"l.circle_id": circleID, "l.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, buildErr("get circle member", err)
	}

	m := &models.CircleMember{}
	if err := scanMember(r.db.QueryRow(ctx, sql, args...), m); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrNotCircleMember
		}
		return nil, fmt.Errorf("error retrieving circle member: %w", err)
	}
	return m, nil
}

// ListMembers returns accepted members in join order, then pending requests
func (r *CircleRepository) ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	sql, args, err := r.selectMembers().
		Where(squirrel.Eq{"l.circle_id": circleID}).
		OrderBy("l.accepted_at ASC NULLS LAST", "l.created_at ASC", "l.user_id").
		ToSql()
	if err != nil {
		return nil, buildErr("list circle members", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing circle members: %w", err)
	}
	defer rows.Close()

	members := []models.CircleMember{}
	for rows.Next() {
		var m models.CircleMember
		if err := scanMember(rows, &m); err != nil {
			return nil, fmt.Errorf("error scanning circle member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountAccepted counts accepted members
func (r *CircleRepository) CountAccepted(ctx context.Context, circleID string) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("user_circle_links").
		Where(squirrel.Eq{"circle_id": circleID, "accepted": true}).
		ToSql()
	if err != nil {
		return 0, buildErr("count circle members", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting circle members: %w", err)
	}
	return n, nil
}

// AcceptMember turns a pending request into a membership
func (r *CircleRepository) AcceptMember(ctx context.Context, circleID, userID string, at time.Time) error {
	sql, args, err := r.sb.Update("user_circle_links").
		Set("accepted", true).
		Set("accepted_at", at).
		Where(squirrel.Eq{"circle_id": circleID, "user_id": userID, "accepted": nil}).
		ToSql()
	if err != nil {
		return buildErr("accept circle member", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error accepting circle member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError("join request not found")
	}
	return nil
}

// RemoveMember deletes a membership or pending request
func (r *CircleRepository) RemoveMember(ctx context.Context, circleID, userID string) error {
	sql, args, err := r.sb.Delete("user_circle_links").
		Where(squirrel.Eq{"circle_id": circleID, "user_id": userID}).
		ToSql()
	if err != nil {
		return buildErr("remove circle member", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error removing circle member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotCircleMember
	}
	return nil
}

// SetMemberLead flags or unflags a member as lead
func (r *CircleRepository) SetMemberLead(ctx context.Context, circleID, userID string, lead bool) error {
	sql, args, err := r.sb.Update("user_circle_links").
		Set("lead", lead).
		Where(squirrel.Eq{"circle_id": circleID, "user_id": userID}).
		ToSql()
	if err != nil {
		return buildErr("set member lead", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error setting member lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotCircleMember
	}
	return nil
}
