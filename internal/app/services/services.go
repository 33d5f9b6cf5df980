// Package services holds the business rules of the platform. Services talk
// to storage only through repository interfaces and run multi-row writes
// through a repositories.Transactor.
//
// Services defined in this package:
// - AuthService: registration, login, token refresh and profile
// - KarmaService: tasks, activity submission and appraisal
// - LeaderboardService: student, organization and region rankings
// - CircleService: learning circles, membership and meetings
// - VoucherService: issuing and claiming karma vouchers
// - OrganizationService: location hierarchy and organizations
// - EventService: upcoming events
// - IntegrationService: KKEM and Discord account linking
// - LiveCountsService: landing page counters pushed over websocket
package services

import (
	"context"

	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// KarmaRecorder receives karma credited to wallets
type KarmaRecorder interface {
	KarmaAwarded(ctx context.Context, source string, amount int64)
}

type noopRecorder struct{}

func (noopRecorder) KarmaAwarded(context.Context, string, int64) {}

// Karma award sources
const (
	KarmaSourceAppraisal = "appraisal"
	KarmaSourceVoucher   = "voucher"
)

// notifyCountsChanged tells live counter subscribers to refresh. A failed
// publish never fails the request that caused it.
func notifyCountsChanged(ctx context.Context, pub eventbus.Publisher, logger zerolog.Logger, reason string) {
	if err := pub.Publish(ctx, eventbus.SubjectCountsChanged, eventbus.CountsChanged{Reason: reason}); err != nil {
		logger.Warn().Err(err).Str("reason", reason).Msg("Failed to publish counts changed event")
	}
}

func paginated(data interface{}, total int64, page, size int) *dto.PaginatedResponse {
	return &dto.PaginatedResponse{
		Data:       data,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
}
