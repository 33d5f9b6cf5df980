package services

import (
	"context"
	"sync"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/discord"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/ranking"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of IUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmailOrMUID(ctx context.Context, value string) (*models.User, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByMUIDOrEmail(ctx context.Context, muid, email string) (*models.User, error) {
	args := m.Called(ctx, muid, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) MUIDExists(ctx context.Context, muid string) (bool, error) {
	args := m.Called(ctx, muid)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AssignRole(ctx context.Context, userID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *MockUserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) LinkOrganization(ctx context.Context, userID, orgID string) error {
	return m.Called(ctx, userID, orgID).Error(0)
}

func (m *MockUserRepository) GetOrganizationTitles(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) SetDiscordID(ctx context.Context, userID, discordID string) error {
	return m.Called(ctx, userID, discordID).Error(0)
}

// MockWalletRepository is a mock implementation of IWalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) AddKarma(ctx context.Context, userID string, amount int64) error {
	return m.Called(ctx, userID, amount).Error(0)
}

// MockTokenRepository is a mock implementation of ITokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token, userID string, expiryDate time.Time) error {
	return m.Called(ctx, token, userID, expiryDate).Error(0)
}

func (m *MockTokenRepository) GetForUpdate(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockTaskRepository is a mock implementation of ITaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, activeOnly bool) ([]models.Task, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByHashtag(ctx context.Context, hashtag string) (*models.Task, error) {
	args := m.Called(ctx, hashtag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

// MockKarmaRepository is a mock implementation of IKarmaRepository
type MockKarmaRepository struct {
	mock.Mock
}

func (m *MockKarmaRepository) Create(ctx context.Context, activity *models.KarmaActivity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *MockKarmaRepository) GetForUpdate(ctx context.Context, id string) (*models.KarmaActivity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KarmaActivity), args.Error(1)
}

func (m *MockKarmaRepository) SetAppraisal(ctx context.Context, id string, approved bool, appraiserID string, at time.Time) error {
	return m.Called(ctx, id, approved, appraiserID, at).Error(0)
}

func (m *MockKarmaRepository) ListPending(ctx context.Context, offset, limit uint64) ([]models.KarmaActivity, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.KarmaActivity), args.Get(1).(int64), args.Error(2)
}

func (m *MockKarmaRepository) ListByUser(ctx context.Context, userID string) ([]models.KarmaActivity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KarmaActivity), args.Error(1)
}

func (m *MockKarmaRepository) SumApprovedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockLeaderboardRepository is a mock implementation of ILeaderboardRepository
type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) StudentScores(ctx context.Context, f repositories.StudentFilter) ([]ranking.Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ranking.Entry), args.Error(1)
}

func (m *MockLeaderboardRepository) OrganizationScores(ctx context.Context, f repositories.OrgScoreFilter) ([]ranking.Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ranking.Entry), args.Error(1)
}

func (m *MockLeaderboardRepository) RegionScores(ctx context.Context, f repositories.RegionFilter) ([]ranking.Entry, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ranking.Entry), args.Error(1)
}

// MockCircleRepository is a mock implementation of ICircleRepository
type MockCircleRepository struct {
	mock.Mock
}

func (m *MockCircleRepository) Create(ctx context.Context, circle *models.LearningCircle) error {
	return m.Called(ctx, circle).Error(0)
}

func (m *MockCircleRepository) GetByID(ctx context.Context, id string) (*models.LearningCircle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningCircle), args.Error(1)
}

func (m *MockCircleRepository) GetForUpdate(ctx context.Context, id string) (*models.LearningCircle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningCircle), args.Error(1)
}

func (m *MockCircleRepository) List(ctx context.Context, f repositories.CircleFilter, offset, limit uint64) ([]models.LearningCircle, int64, error) {
	args := m.Called(ctx, f, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.LearningCircle), args.Get(1).(int64), args.Error(2)
}

func (m *MockCircleRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCircleRepository) SetLead(ctx context.Context, circleID string, leadID *string) error {
	return m.Called(ctx, circleID, leadID).Error(0)
}

func (m *MockCircleRepository) AddMember(ctx context.Context, circleID, userID string, lead bool, accepted *bool) error {
	return m.Called(ctx, circleID, userID, lead, accepted).Error(0)
}

func (m *MockCircleRepository) GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error) {
	args := m.Called(ctx, circleID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CircleMember), args.Error(1)
}

func (m *MockCircleRepository) ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	args := m.Called(ctx, circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CircleMember), args.Error(1)
}

func (m *MockCircleRepository) CountAccepted(ctx context.Context, circleID string) (int, error) {
	args := m.Called(ctx, circleID)
	return args.Int(0), args.Error(1)
}

func (m *MockCircleRepository) AcceptMember(ctx context.Context, circleID, userID string, at time.Time) error {
	return m.Called(ctx, circleID, userID, at).Error(0)
}

func (m *MockCircleRepository) RemoveMember(ctx context.Context, circleID, userID string) error {
	return m.Called(ctx, circleID, userID).Error(0)
}

func (m *MockCircleRepository) SetMemberLead(ctx context.Context, circleID, userID string, lead bool) error {
	return m.Called(ctx, circleID, userID, lead).Error(0)
}

// MockMeetingRepository is a mock implementation of IMeetingRepository
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *models.CircleMeeting) error {
	return m.Called(ctx, meeting).Error(0)
}

func (m *MockMeetingRepository) GetByID(ctx context.Context, id string) (*models.CircleMeeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CircleMeeting), args.Error(1)
}

func (m *MockMeetingRepository) GetForUpdate(ctx context.Context, id string) (*models.CircleMeeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CircleMeeting), args.Error(1)
}

func (m *MockMeetingRepository) ListByCircle(ctx context.Context, circleID string) ([]models.CircleMeeting, error) {
	args := m.Called(ctx, circleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CircleMeeting), args.Error(1)
}

func (m *MockMeetingRepository) MeetTimesBetween(ctx context.Context, circleID string, from, to time.Time) ([]time.Time, error) {
	args := m.Called(ctx, circleID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockMeetingRepository) AddAttendee(ctx context.Context, meetingID, userID string) error {
	return m.Called(ctx, meetingID, userID).Error(0)
}

func (m *MockMeetingRepository) ListAttendeeIDs(ctx context.Context, meetingID string) ([]string, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMeetingRepository) SubmitReport(ctx context.Context, meetingID, text string) error {
	return m.Called(ctx, meetingID, text).Error(0)
}

// MockVoucherRepository is a mock implementation of IVoucherRepository
type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) Create(ctx context.Context, v *models.Voucher) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockVoucherRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) MarkClaimed(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockVoucherRepository) ListByUser(ctx context.Context, userID string) ([]models.Voucher, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Voucher), args.Error(1)
}

// MockOrganizationRepository is a mock implementation of IOrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) ListLocations(ctx context.Context, level models.LocationLevel, parentID string) ([]models.Location, error) {
	args := m.Called(ctx, level, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockOrganizationRepository) List(ctx context.Context, f repositories.OrganizationFilter, offset, limit uint64) ([]models.Organization, int64, error) {
	args := m.Called(ctx, f, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Organization), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetDetail(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrganizationDetail), args.Error(1)
}

// MockEventRepository is a mock implementation of IEventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) ListUpcoming(ctx context.Context, now time.Time, offset, limit uint64) ([]models.Event, int64, error) {
	args := m.Called(ctx, now, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Event), args.Get(1).(int64), args.Error(2)
}

// MockIntegrationRepository is a mock implementation of IIntegrationRepository
type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) Get(ctx context.Context, integration, userID string) (*models.IntegrationAuthorization, error) {
	args := m.Called(ctx, integration, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IntegrationAuthorization), args.Error(1)
}

func (m *MockIntegrationRepository) Upsert(ctx context.Context, a *models.IntegrationAuthorization) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockIntegrationRepository) Delete(ctx context.Context, integration, userID string) error {
	return m.Called(ctx, integration, userID).Error(0)
}

// MockStatsRepository is a mock implementation of IStatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) LandingCounts(ctx context.Context) (*models.LandingCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LandingCounts), args.Error(1)
}

// MockEventPublisher records published subjects
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, payload any) error {
	return m.Called(ctx, subject, payload).Error(0)
}

// MockKarmaRecorder records karma metrics
type MockKarmaRecorder struct {
	mock.Mock
}

func (m *MockKarmaRecorder) KarmaAwarded(ctx context.Context, source string, amount int64) {
	m.Called(ctx, source, amount)
}

// MockResolver is a mock discord.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, accessToken string) (*discord.Identity, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discord.Identity), args.Error(1)
}

// MockBroadcaster captures websocket broadcasts
type MockBroadcaster struct {
	mu       sync.Mutex
	messages []any
}

func (b *MockBroadcaster) Broadcast(_, _ string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, data)
}

func (b *MockBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// testRepos bundles every mock behind one Repositories value
type testRepos struct {
	users         *MockUserRepository
	wallets       *MockWalletRepository
	tokens        *MockTokenRepository
	tasks         *MockTaskRepository
	karma         *MockKarmaRepository
	leaderboard   *MockLeaderboardRepository
	circles       *MockCircleRepository
	meetings      *MockMeetingRepository
	vouchers      *MockVoucherRepository
	organizations *MockOrganizationRepository
	events        *MockEventRepository
	integrations  *MockIntegrationRepository
	stats         *MockStatsRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:         new(MockUserRepository),
		wallets:       new(MockWalletRepository),
		tokens:        new(MockTokenRepository),
		tasks:         new(MockTaskRepository),
		karma:         new(MockKarmaRepository),
		leaderboard:   new(MockLeaderboardRepository),
		circles:       new(MockCircleRepository),
		meetings:      new(MockMeetingRepository),
		vouchers:      new(MockVoucherRepository),
		organizations: new(MockOrganizationRepository),
		events:        new(MockEventRepository),
		integrations:  new(MockIntegrationRepository),
		stats:         new(MockStatsRepository),
	}
}

func (t *testRepos) repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:         t.users,
		Wallets:       t.wallets,
		Tokens:        t.tokens,
		Tasks:         t.tasks,
		Karma:         t.karma,
		Leaderboard:   t.leaderboard,
		Circles:       t.circles,
		Meetings:      t.meetings,
		Vouchers:      t.vouchers,
		Organizations: t.organizations,
		Events:        t.events,
		Integrations:  t.integrations,
		Stats:         t.stats,
	}
}

func (t *testRepos) assertExpectations(tt mock.TestingT) {
	for _, m := range []interface{ AssertExpectations(mock.TestingT) bool }{
		t.users, t.wallets, t.tokens, t.tasks, t.karma, t.leaderboard, t.circles,
		t.meetings, t.vouchers, t.organizations, t.events, t.integrations, t.stats,
	} {
		m.AssertExpectations(tt)
	}
}

// fakeTransactor runs fn against the mocks. committed and rolledBack count
// outcomes the way a database transaction would see them.
type fakeTransactor struct {
	repos      *repositories.Repositories
	committed  int
	rolledBack int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn repositories.TxFn) error {
	if err := fn(ctx, f.repos); err != nil {
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

var _ eventbus.Publisher = (*MockEventPublisher)(nil)
