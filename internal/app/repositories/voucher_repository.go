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
)

// IVoucherRepository defines karma voucher operations
type IVoucherRepository interface {
	Create(ctx context.Context, v *models.Voucher) error
	GetByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error)
	MarkClaimed(ctx context.Context, id string, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]models.Voucher, error)
}

// VoucherRepository handles voucher_logs
type VoucherRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewVoucherRepository creates a new VoucherRepository
func NewVoucherRepository(q db.Querier) *VoucherRepository {
	return &VoucherRepository{db: q, sb: newBuilder()}
}

func (r *VoucherRepository) selectVouchers() squirrel.SelectBuilder {
	return r.sb.Select("v.id", "v.code", "v.user_id", "v.task_id", "t.hashtag", "v.karma", "v.month", "v.week",
		"v.claimed", "v.claimed_at", "v.issued_by", "v.created_at").
		From("voucher_logs v").
		Join("task_list t ON t.id = v.task_id")
}

func scanVoucher(row interface{ Scan(...any) error }, v *models.Voucher) error {
	return row.Scan(&v.ID, &v.Code, &v.UserID, &v.TaskID, &v.Hashtag, &v.Karma, &v.Month, &v.Week,
		&v.Claimed, &v.ClaimedAt, &v.IssuedBy, &v.CreatedAt)
}

// Create inserts a voucher. A code collision returns ErrConflict.
func (r *VoucherRepository) Create(ctx context.Context, v *models.Voucher) error {
	sql, args, err := r.sb.Insert("voucher_logs").
		Columns("code", "user_id", "task_id", "karma", "month", "week", "issued_by").
		Values(v.Code, v.UserID, v.TaskID, v.Karma, v.Month, v.Week, v.IssuedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return buildErr("create voucher", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&v.ID, &v.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "voucher_logs_code_key") {
			return apperrors.NewConflictError("voucher code already in use")
		}
		return fmt.Errorf("error creating voucher: %w", err)
	}
	return nil
}

// GetByCodeForUpdate retrieves and locks a voucher
func (r *VoucherRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error) {
	sql, args, err := r.selectVouchers().
		Where(squirrel.Eq{"v.code": code}).
		Suffix("FOR UPDATE OF v").
		ToSql()
	if err != nil {
		return nil, buildErr("get voucher", err)
	}

	v := &models.Voucher{}
	if err := scanVoucher(r.db.QueryRow(ctx, sql, args...), v); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("error retrieving voucher: %w", err)
	}
	return v, nil
}

// MarkClaimed flags an unclaimed voucher as claimed
func (r *VoucherRepository) MarkClaimed(ctx context.Context, id string, at time.Time) error {
	sql, args, err := r.sb.Update("voucher_logs").
		Set("claimed", true).
		Set("claimed_at", at).
		Where(squirrel.Eq{"id": id, "claimed": false}).
		ToSql()
	if err != nil {
		return buildErr("claim voucher", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error claiming voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrVoucherClaimed
	}
	return nil
}

// ListByUser returns the user's vouchers, newest first
func (r *VoucherRepository) ListByUser(ctx context.Context, userID string) ([]models.Voucher, error) {
	sql, args, err := r.selectVouchers().
		Where(squirrel.Eq{"v.user_id": userID}).
		OrderBy("v.created_at DESC").
		ToSql()
	if err != nil {
		return nil, buildErr("list vouchers", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []models.Voucher{}
	for rows.Next() {
		var v models.Voucher
		if err := scanVoucher(rows, &v); err != nil {
			return nil, fmt.Errorf("error scanning voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}
