package controllers

import (
	"context"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/app/services"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of services.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TokenResponse), args.Error(1)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserResponse), args.Error(1)
}

// MockKarmaService is a mock implementation of services.KarmaService
type MockKarmaService struct {
	mock.Mock
}

func (m *MockKarmaService) ListTasks(ctx context.Context) ([]models.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockKarmaService) SubmitActivity(ctx context.Context, userID string, req *dto.SubmitActivityRequest) (*models.KarmaActivity, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KarmaActivity), args.Error(1)
}

func (m *MockKarmaService) Appraise(ctx context.Context, activityID, appraiserID string, approve bool) (*models.KarmaActivity, error) {
	args := m.Called(ctx, activityID, appraiserID, approve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KarmaActivity), args.Error(1)
}

func (m *MockKarmaService) ListPending(ctx context.Context, page, size int) (*dto.PaginatedResponse, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse), args.Error(1)
}

func (m *MockKarmaService) UserHistory(ctx context.Context, userID string) ([]models.KarmaActivity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KarmaActivity), args.Error(1)
}

// MockLeaderboardService is a mock implementation of services.LeaderboardService
type MockLeaderboardService struct {
	mock.Mock
}

func (m *MockLeaderboardService) Students(ctx context.Context, q services.StudentBoardQuery) ([]dto.LeaderboardEntry, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardService) Organizations(ctx context.Context, q services.OrganizationBoardQuery) ([]dto.LeaderboardEntry, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardService) Regions(ctx context.Context, q services.RegionBoardQuery) ([]dto.LeaderboardEntry, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardService) UserRank(ctx context.Context, userID string) (*dto.UserRankResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserRankResponse), args.Error(1)
}

// MockCircleService is a mock implementation of services.CircleService
type MockCircleService struct {
	mock.Mock
}

func (m *MockCircleService) Create(ctx context.Context, userID string, req *dto.CreateCircleRequest) (*models.LearningCircle, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningCircle), args.Error(1)
}

func (m *MockCircleService) List(ctx context.Context, f repositories.CircleFilter, page, size int) (*dto.PaginatedResponse, error) {
	args := m.Called(ctx, f, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse), args.Error(1)
}

func (m *MockCircleService) Get(ctx context.Context, circleID, viewerID string) (*dto.CircleDetailResponse, error) {
	args := m.Called(ctx, circleID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CircleDetailResponse), args.Error(1)
}

func (m *MockCircleService) Join(ctx context.Context, circleID, userID string) error {
	return m.Called(ctx, circleID, userID).Error(0)
}

func (m *MockCircleService) RespondToRequest(ctx context.Context, circleID, leadID, memberID string, accept bool) error {
	return m.Called(ctx, circleID, leadID, memberID, accept).Error(0)
}

func (m *MockCircleService) Leave(ctx context.Context, circleID, userID string) error {
	return m.Called(ctx, circleID, userID).Error(0)
}

func (m *MockCircleService) TransferLead(ctx context.Context, circleID, leadID, newLeadID string) error {
	return m.Called(ctx, circleID, leadID, newLeadID).Error(0)
}

func (m *MockCircleService) ScheduleMeeting(ctx context.Context, circleID, userID string, req *dto.ScheduleMeetingRequest) (*models.CircleMeeting, error) {
	args := m.Called(ctx, circleID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CircleMeeting), args.Error(1)
}

func (m *MockCircleService) ListMeetings(ctx context.Context, circleID string) ([]models.CircleMeeting, error) {
	args := m.Called(ctx, circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CircleMeeting), args.Error(1)
}

func (m *MockCircleService) Attend(ctx context.Context, meetingID, userID string) error {
	return m.Called(ctx, meetingID, userID).Error(0)
}

func (m *MockCircleService) SubmitReport(ctx context.Context, meetingID, userID, report string) error {
	return m.Called(ctx, meetingID, userID, report).Error(0)
}

// MockVoucherService is a mock implementation of services.VoucherService
type MockVoucherService struct {
	mock.Mock
}

func (m *MockVoucherService) Issue(ctx context.Context, issuerID string, req *dto.IssueVouchersRequest) ([]models.Voucher, error) {
	args := m.Called(ctx, issuerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Voucher), args.Error(1)
}

func (m *MockVoucherService) Claim(ctx context.Context, userID, code string) (*models.Voucher, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVoucherService) ListMine(ctx context.Context, userID string) ([]models.Voucher, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Voucher), args.Error(1)
}

// MockOrganizationService is a mock implementation of services.OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error) {
	args := m.Called(ctx, level, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockOrganizationService) List(ctx context.Context, f repositories.OrganizationFilter, page, size int) (*dto.PaginatedResponse, error) {
	args := m.Called(ctx, f, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse), args.Error(1)
}

func (m *MockOrganizationService) Get(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationDetail), args.Error(1)
}

// MockEventService is a mock implementation of services.EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ListUpcoming(ctx context.Context, page, size int) (*dto.PaginatedResponse, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse), args.Error(1)
}

// MockIntegrationService is a mock implementation of services.IntegrationService
type MockIntegrationService struct {
	mock.Mock
}

func (m *MockIntegrationService) LinkKKEM(ctx context.Context, userID, param string) (*dto.KKEMStatusResponse, error) {
	args := m.Called(ctx, userID, param)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.KKEMStatusResponse), args.Error(1)
}

func (m *MockIntegrationService) KKEMStatus(ctx context.Context, userID string) (*dto.KKEMStatusResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.KKEMStatusResponse), args.Error(1)
}

func (m *MockIntegrationService) UnlinkKKEM(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockIntegrationService) LinkDiscord(ctx context.Context, userID, accessToken string) error {
	return m.Called(ctx, userID, accessToken).Error(0)
}
