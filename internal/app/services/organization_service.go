package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/helpers"
)

// OrganizationService exposes the read-only location hierarchy
type OrganizationService interface {
	ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error)
	List(ctx context.Context, f repositories.OrganizationFilter, page, size int) (*dto.PaginatedResponse, error)
	Get(ctx context.Context, id string) (*models.OrganizationDetail, error)
}

type organizationServiceImpl struct {
	orgRepo repositories.IOrganizationRepository
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(orgRepo repositories.IOrganizationRepository) OrganizationService {
	return &organizationServiceImpl{orgRepo: orgRepo}
}

// ListLocations lists countries, or the children of parentID one level down
func (s *organizationServiceImpl) ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error) {
	if level != models.LevelCountry && parentID == "" {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("a parent id is required to list %ss", level))
	}
	locations, err := s.orgRepo.ListLocations(ctx, level, parentID)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []models.Location{}
	}
	return locations, nil
}

// List pages through organizations
func (s *organizationServiceImpl) List(ctx context.Context, f repositories.OrganizationFilter, page, size int) (*dto.PaginatedResponse, error) {
	if f.OrgType != "" && !f.OrgType.Valid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown organization type %q", f.OrgType))
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	orgs, total, err := s.orgRepo.List(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	return paginated(orgs, total, page, int(limit)), nil
}

// Get returns an organization with its member count and karma total
func (s *organizationServiceImpl) Get(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	return s.orgRepo.GetDetail(ctx, id)
}

// EventService lists community events
type EventService interface {
	ListUpcoming(ctx context.Context, page, size int) (*dto.PaginatedResponse, error)
}

type eventServiceImpl struct {
	eventRepo repositories.IEventRepository
	now       func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(eventRepo repositories.IEventRepository) EventService {
	return &eventServiceImpl{eventRepo: eventRepo, now: time.Now}
}

// ListUpcoming returns events that have not ended, soonest first
func (s *eventServiceImpl) ListUpcoming(ctx context.Context, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	events, total, err := s.eventRepo.ListUpcoming(ctx, s.now(), offset, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return paginated(events, total, page, int(limit)), nil
}
