package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/rs/zerolog"
)

const (
	voucherCodePrefix   = "MU-"
	voucherCodeLength   = 8
	voucherCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// VoucherService issues and redeems karma vouchers
type VoucherService interface {
	Issue(ctx context.Context, issuerID string, req *dto.IssueVouchersRequest) ([]models.Voucher, error)
	Claim(ctx context.Context, userID, code string) (*models.Voucher, error)
	ListMine(ctx context.Context, userID string) ([]models.Voucher, error)
}

type voucherServiceImpl struct {
	repos     *repositories.Repositories
	tx        repositories.Transactor
	publisher eventbus.Publisher
	recorder  KarmaRecorder
	logger    zerolog.Logger
	now       func() time.Time
	newCode   func() (string, error)
}

// NewVoucherService creates a new VoucherService. recorder may be nil.
func NewVoucherService(
	repos *repositories.Repositories,
	tx repositories.Transactor,
	publisher eventbus.Publisher,
	recorder KarmaRecorder,
	logger zerolog.Logger,
) VoucherService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &voucherServiceImpl{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
		newCode:   GenerateVoucherCode,
	}
}

// invalidItem reports the batch item that made Issue roll back
func invalidItem(index int, msg string, item dto.VoucherItem) error {
	return apperrors.NewCustomError(apperrors.ErrValidationFailed, msg).WithDetails(map[string]interface{}{
		"item":    index,
		"muid":    item.MUID,
		"email":   item.Email,
		"hashtag": item.Hashtag,
	})
}

// Issue creates every voucher in the batch or none of them
func (s *voucherServiceImpl) Issue(ctx context.Context, issuerID string, req *dto.IssueVouchersRequest) ([]models.Voucher, error) {
	vouchers := make([]models.Voucher, 0, len(req.Items))

	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		for i, item := range req.Items {
			user, err := r.Users.GetByMUIDOrEmail(ctx, strings.TrimSpace(item.MUID), strings.ToLower(strings.TrimSpace(item.Email)))
			if err != nil {
				if errors.Is(err, apperrors.ErrUserNotFound) {
					return invalidItem(i, fmt.Sprintf("items[%d]: user not found", i), item)
				}
				return err
			}

			task, err := r.Tasks.GetByHashtag(ctx, strings.ToLower(item.Hashtag))
			if err != nil {
				if errors.Is(err, apperrors.ErrTaskNotFound) {
					return invalidItem(i, fmt.Sprintf("items[%d]: unknown hashtag %s", i, item.Hashtag), item)
				}
				return err
			}

			code, err := s.newCode()
			if err != nil {
				return err
			}

			v := models.Voucher{
				Code:     code,
				UserID:   user.ID,
				TaskID:   task.ID,
				Hashtag:  task.Hashtag,
				Karma:    item.Karma,
				Month:    item.Month,
				Week:     item.Week,
				IssuedBy: &issuerID,
			}
			if err := r.Vouchers.Create(ctx, &v); err != nil {
				return err
			}
			vouchers = append(vouchers, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("issuerID", issuerID).Int("count", len(vouchers)).Msg("Vouchers issued")
	return vouchers, nil
}

// Claim redeems the caller's voucher: it is marked claimed, an approved
// karma log is written and the wallet is credited in one transaction
func (s *voucherServiceImpl) Claim(ctx context.Context, userID, code string) (*models.Voucher, error) {
	var voucher *models.Voucher
	at := s.now()

	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		var err error
		voucher, err = r.Vouchers.GetByCodeForUpdate(ctx, strings.ToUpper(strings.TrimSpace(code)))
		if err != nil {
			return err
		}
		// Someone else's code looks the same as a missing one
		if voucher.UserID != userID {
			return apperrors.ErrVoucherNotFound
		}
		if voucher.Claimed {
			return apperrors.ErrVoucherClaimed
		}

		if err := r.Vouchers.MarkClaimed(ctx, voucher.ID, at); err != nil {
			return err
		}

		approved := true
		activity := &models.KarmaActivity{
			UserID:            userID,
			TaskID:            voucher.TaskID,
			Karma:             voucher.Karma,
			AppraiserApproved: &approved,
			AppraisedBy:       voucher.IssuedBy,
			AppraisedAt:       &at,
		}
		if err := r.Karma.Create(ctx, activity); err != nil {
			return err
		}
		return r.Wallets.AddKarma(ctx, userID, int64(voucher.Karma))
	})
	if err != nil {
		return nil, err
	}

	voucher.Claimed = true
	voucher.ClaimedAt = &at

	s.logger.Info().Str("userID", userID).Str("code", voucher.Code).Int("karma", voucher.Karma).Msg("Voucher claimed")
	s.recorder.KarmaAwarded(ctx, KarmaSourceVoucher, int64(voucher.Karma))
	notifyCountsChanged(ctx, s.publisher, s.logger, "voucher.claimed")
	return voucher, nil
}

// ListMine returns the vouchers issued to the user
func (s *voucherServiceImpl) ListMine(ctx context.Context, userID string) ([]models.Voucher, error) {
	vouchers, err := s.repos.Vouchers.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if vouchers == nil {
		vouchers = []models.Voucher{}
	}
	return vouchers, nil
}

// GenerateVoucherCode returns MU- followed by eight random upper case
// letters or digits
func GenerateVoucherCode() (string, error) {
	buf := make([]byte, voucherCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate voucher code: %w", err)
	}
	for i, b := range buf {
		buf[i] = voucherCodeAlphabet[int(b)%len(voucherCodeAlphabet)]
	}
	return voucherCodePrefix + string(buf), nil
}
