package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/discord"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/rs/zerolog"
)

// KKEMDecrypter opens a KKEM redirect parameter
type KKEMDecrypter interface {
	Decrypt(payload string) (url.Values, error)
}

// IntegrationService links user accounts to partner platforms
type IntegrationService interface {
	LinkKKEM(ctx context.Context, userID, param string) (*dto.KKEMStatusResponse, error)
	KKEMStatus(ctx context.Context, userID string) (*dto.KKEMStatusResponse, error)
	UnlinkKKEM(ctx context.Context, userID string) error
	LinkDiscord(ctx context.Context, userID, accessToken string) error
}

type integrationServiceImpl struct {
	repos     *repositories.Repositories
	kkem      KKEMDecrypter
	publisher eventbus.Publisher
	logger    zerolog.Logger
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	repos *repositories.Repositories,
	kkem KKEMDecrypter,
	publisher eventbus.Publisher,
	logger zerolog.Logger,
) IntegrationService {
	return &integrationServiceImpl{
		repos:     repos,
		kkem:      kkem,
		publisher: publisher,
		logger:    logger,
	}
}

// LinkKKEM decrypts the partner parameter and stores the jsid it carries
func (s *integrationServiceImpl) LinkKKEM(ctx context.Context, userID, param string) (*dto.KKEMStatusResponse, error) {
	values, err := s.kkem.Decrypt(param)
	if err != nil {
		s.logger.Warn().Err(err).Str("userID", userID).Msg("Rejected KKEM payload")
		return nil, err
	}

	jsid := strings.TrimSpace(values.Get("jsid"))
	if jsid == "" {
		return nil, fmt.Errorf("%w: jsid is missing", apperrors.ErrKKEMPayloadInvalid)
	}

	link := &models.IntegrationAuthorization{
		Integration:      models.IntegrationKKEM,
		UserID:           userID,
		IntegrationValue: jsid,
		AdditionalField:  strings.TrimSpace(values.Get("dwms_id")),
		Verified:         true,
	}
	if err := s.repos.Integrations.Upsert(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", userID).Str("jsid", jsid).Msg("KKEM account linked")
	return kkemStatus(link), nil
}

// KKEMStatus reports whether the user has a KKEM link
func (s *integrationServiceImpl) KKEMStatus(ctx context.Context, userID string) (*dto.KKEMStatusResponse, error) {
	link, err := s.repos.Integrations.Get(ctx, models.IntegrationKKEM, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrIntegrationNotLinked) {
			return &dto.KKEMStatusResponse{Linked: false}, nil
		}
		return nil, err
	}
	return kkemStatus(link), nil
}

// UnlinkKKEM removes the user's KKEM link
func (s *integrationServiceImpl) UnlinkKKEM(ctx context.Context, userID string) error {
	if err := s.repos.Integrations.Delete(ctx, models.IntegrationKKEM, userID); err != nil {
		return err
	}
	s.logger.Info().Str("userID", userID).Msg("KKEM account unlinked")
	return nil
}

// LinkDiscord queues the onboarding job and returns without waiting for Discord
func (s *integrationServiceImpl) LinkDiscord(ctx context.Context, userID, accessToken string) error {
	job := eventbus.DiscordOnboardJob{UserID: userID, AccessToken: accessToken}
	if err := s.publisher.Publish(ctx, eventbus.SubjectDiscordOnboard, job); err != nil {
		return fmt.Errorf("failed to queue discord onboarding: %w", err)
	}
	s.logger.Info().Str("userID", userID).Msg("Discord onboarding queued")
	return nil
}

func kkemStatus(link *models.IntegrationAuthorization) *dto.KKEMStatusResponse {
	resp := &dto.KKEMStatusResponse{
		Linked: true,
		JSID:   link.IntegrationValue,
		DWMSID: link.AdditionalField,
	}
	if !link.UpdatedAt.IsZero() {
		linkedAt := link.UpdatedAt
		resp.LinkedAt = &linkedAt
	}
	return resp
}

// DiscordOnboarder consumes Discord onboarding jobs
type DiscordOnboarder struct {
	tx       repositories.Transactor
	resolver discord.Resolver
	logger   zerolog.Logger
}

// NewDiscordOnboarder creates the onboarding worker
func NewDiscordOnboarder(tx repositories.Transactor, resolver discord.Resolver, logger zerolog.Logger) *DiscordOnboarder {
	return &DiscordOnboarder{tx: tx, resolver: resolver, logger: logger}
}

// Start subscribes the worker to the onboarding subject
func (w *DiscordOnboarder) Start(sub eventbus.Subscriber) error {
	return sub.Subscribe(eventbus.SubjectDiscordOnboard, w.Handle)
}

// Handle resolves the Discord account and stores its id on the user.
// Problems retrying cannot fix are logged and acknowledged.
func (w *DiscordOnboarder) Handle(ctx context.Context, data []byte) error {
	var job eventbus.DiscordOnboardJob
	if err := eventbus.Decode(data, &job); err != nil {
		w.logger.Error().Err(err).Msg("Dropping malformed discord onboarding job")
		return nil
	}

	identity, err := w.resolver.Resolve(ctx, job.AccessToken)
	if err != nil {
		if errors.Is(err, discord.ErrMissingToken) {
			w.logger.Warn().Str("userID", job.UserID).Msg("Discord onboarding job without token")
			return nil
		}
		return err
	}

	err = w.tx.WithinTx(ctx, func(ctx context.Context, r *repositories.Repositories) error {
		if err := r.Users.SetDiscordID(ctx, job.UserID, identity.ID); err != nil {
			return err
		}
		return r.Integrations.Upsert(ctx, &models.IntegrationAuthorization{
			Integration:      models.IntegrationDiscord,
			UserID:           job.UserID,
			IntegrationValue: identity.ID,
			AdditionalField:  identity.Username,
			Verified:         true,
		})
	})
	switch {
	case err == nil:
		w.logger.Info().Str("userID", job.UserID).Str("discordID", identity.ID).Msg("Discord account linked")
		return nil
	case apperrors.Is(err, apperrors.ErrIntegrationValueTaken, apperrors.ErrUserNotFound):
		w.logger.Warn().Err(err).Str("userID", job.UserID).Str("discordID", identity.ID).Msg("Discord account could not be linked")
		return nil
	default:
		return err
	}
}
