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

// IKarmaRepository defines karma activity log operations
type IKarmaRepository interface {
	Create(ctx context.Context, activity *models.KarmaActivity) error
	GetForUpdate(ctx context.Context, id string) (*models.KarmaActivity, error)
	SetAppraisal(ctx context.Context, id string, approved bool, appraiserID string, at time.Time) error
	ListPending(ctx context.Context, offset, limit uint64) ([]models.KarmaActivity, int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.KarmaActivity, error)
	SumApprovedSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// KarmaRepository handles karma_activity_logs
type KarmaRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewKarmaRepository creates a new KarmaRepository
func NewKarmaRepository(q db.Querier) *KarmaRepository {
	return &KarmaRepository{db: q, sb: newBuilder()}
}

var activityColumns = []string{
	"k.id", "k.user_id", "k.task_id", "t.hashtag", "k.karma", "k.proof_url",
	"k.appraiser_approved", "k.appraised_by", "k.appraised_at", "k.created_at",
}

func (r *KarmaRepository) selectActivities() squirrel.SelectBuilder {
	return r.sb.Select(activityColumns...).
		From("karma_activity_logs k").
		Join("task_list t ON t.id = k.task_id")
}

func scanActivity(row interface{ Scan(...any) error }, a *models.KarmaActivity) error {
	return row.Scan(&a.ID, &a.UserID, &a.TaskID, &a.Hashtag, &a.Karma, &a.ProofURL,
		&a.AppraiserApproved, &a.AppraisedBy, &a.AppraisedAt, &a.CreatedAt)
}

// Create inserts an activity. A nil AppraiserApproved leaves it pending.
func (r *KarmaRepository) Create(ctx context.Context, a *models.KarmaActivity) error {
	sql, args, err := r.sb.Insert("karma_activity_logs").
		Columns("user_id", "task_id", "karma", "proof_url", "appraiser_approved", "appraised_by", "appraised_at").
		Values(a.UserID, a.TaskID, a.Karma, a.ProofURL, a.AppraiserApproved, a.AppraisedBy, a.AppraisedAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return buildErr("create karma activity", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
		logger.Error().Err(err).Str("userID", a.UserID).Str("taskID", a.TaskID).Msg("Error executing create karma activity query")
		return fmt.Errorf("error creating karma activity: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and locks an activity
func (r *KarmaRepository) GetForUpdate(ctx context.Context, id string) (*models.KarmaActivity, error) {
	sql, args, err := r.selectActivities().
		Where(squirrel.Eq{"k.id": id}).
		Suffix("FOR UPDATE OF k").
		ToSql()
	if err != nil {
		return nil, buildErr("get karma activity", err)
	}

	a := &models.KarmaActivity{}
	if err := scanActivity(r.db.QueryRow(ctx, sql, args...), a); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError("karma activity not found")
		}
		return nil, fmt.Errorf("error retrieving karma activity: %w", err)
	}
	return a, nil
}

// SetAppraisal records the appraiser's decision on a pending activity
func (r *KarmaRepository) SetAppraisal(ctx context.Context, id string, approved bool, appraiserID string, at time.Time) error {
	sql, args, err := r.sb.Update("karma_activity_logs").
		Set("appraiser_approved", approved).
		Set("appraised_by", appraiserID).
		Set("appraised_at", at).
		Where(squirrel.Eq{"id": id, "appraiser_approved": nil}).
		ToSql()
	if err != nil {
		return buildErr("appraise karma activity", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error appraising karma activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrKarmaAlreadyAppraised
	}
	return nil
}

// ListPending returns the oldest pending activities first
func (r *KarmaRepository) ListPending(ctx context.Context, offset, limit uint64) ([]models.KarmaActivity, int64, error) {
	base := r.selectActivities().Where(squirrel.Eq{"k.appraiser_approved": nil})

	sql, args, err := countQuery(base).ToSql()
	if err != nil {
		return nil, 0, buildErr("count pending", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting pending activities: %w", err)
	}

	sql, args, err = base.OrderBy("k.created_at ASC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, buildErr("list pending", err)
	}
	activities, err := r.query(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

// ListByUser returns the user's activities, newest first
func (r *KarmaRepository) ListByUser(ctx context.Context, userID string) ([]models.KarmaActivity, error) {
	sql, args, err := r.selectActivities().
		Where(squirrel.Eq{"k.user_id": userID}).
		OrderBy("k.created_at DESC").
		ToSql()
	if err != nil {
		return nil, buildErr("list user activities", err)
	}
	return r.query(ctx, sql, args)
}

func (r *KarmaRepository) query(ctx context.Context, sql string, args []any) ([]models.KarmaActivity, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying karma activities: %w", err)
	}
	defer rows.Close()

	activities := []models.KarmaActivity{}
	for rows.Next() {
		var a models.KarmaActivity
		if err := scanActivity(rows, &a); err != nil {
			return nil, fmt.Errorf("error scanning karma activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// SumApprovedSince totals approved karma created at or after since
func (r *KarmaRepository) SumApprovedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	sql, args, err := r.sb.Select("COALESCE(SUM(karma), 0)").
		From("karma_activity_logs").
		Where(squirrel.Eq{"user_id": userID, "appraiser_approved": true}).
		Where(squirrel.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, buildErr("sum karma", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error summing karma: %w", err)
	}
	return total, nil
}
