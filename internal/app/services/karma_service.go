package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// KarmaService handles tasks and karma activity appraisal
type KarmaService interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	SubmitActivity(ctx context.Context, userID string, req *dto.SubmitActivityRequest) (*models.KarmaActivity, error)
	Appraise(ctx context.Context, activityID, appraiserID string, approve bool) (*models.KarmaActivity, error)
	ListPending(ctx context.Context, page, size int) (*dto.PaginatedResponse, error)
	UserHistory(ctx context.Context, userID string) ([]models.KarmaActivity, error)
}

type karmaServiceImpl struct {
	repos     *repositories.Repositories
	tx        repositories.Transactor
	publisher eventbus.Publisher
	recorder  KarmaRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewKarmaService creates a new KarmaService. recorder may be nil.
func NewKarmaService(
	repos *repositories.Repositories,
	tx repositories.Transactor,
	publisher eventbus.Publisher,
	recorder KarmaRecorder,
	logger zerolog.Logger,
) KarmaService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &karmaServiceImpl{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// ListTasks returns the active tasks
func (s *karmaServiceImpl) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.repos.Tasks.List(ctx, true)
}

// SubmitActivity records a pending claim for the task behind the hashtag
func (s *karmaServiceImpl) SubmitActivity(ctx context.Context, userID string, req *dto.SubmitActivityRequest) (*models.KarmaActivity, error) {
	task, err := s.repos.Tasks.GetByHashtag(ctx, strings.ToLower(strings.TrimSpace(req.Hashtag)))
	if err != nil {
		return nil, err
	}
	if !task.Active {
		return nil, apperrors.ErrTaskInactive
	}

	activity := &models.KarmaActivity{
		UserID:   userID,
		TaskID:   task.ID,
		Hashtag:  task.Hashtag,
		Karma:    task.Karma,
		ProofURL: req.ProofURL,
	}
	if err := s.repos.Karma.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", userID).Str("hashtag", task.Hashtag).Str("activityID", activity.ID).Msg("Karma activity submitted")
	return activity, nil
}

// Appraise approves or rejects a pending activity. Approval credits the
// wallet in the same transaction.
func (s *karmaServiceImpl) Appraise(ctx context.Context, activityID, appraiserID string, approve bool) (*models.KarmaActivity, error) {
	var activity *models.KarmaActivity
	at := s.now()

	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		var err error
		activity, err = r.Karma.GetForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if !activity.Pending() {
			return apperrors.ErrKarmaAlreadyAppraised
		}

		if err := r.Karma.SetAppraisal(ctx, activity.ID, approve, appraiserID, at); err != nil {
			return err
		}
		if approve {
			if err := r.Wallets.AddKarma(ctx, activity.UserID, int64(activity.Karma)); err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activity.AppraiserApproved = &approve
	activity.AppraisedBy = &appraiserID
	activity.AppraisedAt = &at

	s.logger.Info().
		Str("activityID", activity.ID).
		Str("appraiserID", appraiserID).
		Bool("approved", approve).
		Int("karma", activity.Karma).
		Msg("Karma activity appraised")

	if approve {
		s.recorder.KarmaAwarded(ctx, KarmaSourceAppraisal, int64(activity.Karma))
		notifyCountsChanged(ctx, s.publisher, s.logger, "karma.approved")
	}
	return activity, nil
}

// ListPending returns activities waiting for appraisal, oldest first
func (s *karmaServiceImpl) ListPending(ctx context.Context, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.repos.Karma.ListPending(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.KarmaActivity{}
	}
	return paginated(items, total, page, int(limit)), nil
}

// UserHistory returns every activity of the user, newest first
func (s *karmaServiceImpl) UserHistory(ctx context.Context, userID string) ([]models.KarmaActivity, error) {
	items, err := s.repos.Karma.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.KarmaActivity{}
	}
	return items, nil
}
