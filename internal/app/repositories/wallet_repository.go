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

// IWalletRepository defines karma wallet operations
type IWalletRepository interface {
	Create(ctx context.Context, userID string) error
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	AddKarma(ctx context.Context, userID string, amount int64) error
}

// WalletRepository handles wallet database operations
type WalletRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(q db.Querier) *WalletRepository {
	return &WalletRepository{db: q, sb: newBuilder()}
}

// Create opens an empty wallet
func (r *WalletRepository) Create(ctx context.Context, userID string) error {
	sql, args, err := r.sb.Insert("wallets").
		Columns("user_id", "karma").
		Values(userID, 0).
		ToSql()
	if err != nil {
		return buildErr("create wallet", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "wallets_user_id_key") {
			return apperrors.NewConflictError("wallet already exists")
		}
		return fmt.Errorf("error creating wallet: %w", err)
	}
	return nil
}

// GetByUserID retrieves a user's wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	sql, args, err := r.sb.Select("id", "user_id", "karma", "karma_last_updated_at").
		From("wallets").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, buildErr("get wallet", err)
	}

	w := &models.Wallet{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.ID, &w.UserID, &w.Karma, &w.KarmaLastUpdatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("error retrieving wallet: %w", err)
	}
	return w, nil
}

// AddKarma credits amount to the user's wallet
func (r *WalletRepository) AddKarma(ctx context.Context, userID string, amount int64) error {
	now := time.Now()
	sql, args, err := r.sb.Update("wallets").
		Set("karma", squirrel.Expr("karma + ?", amount)).
		Set("karma_last_updated_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return buildErr("add karma", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error adding karma: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}
